package xmlconv

import (
	"encoding/json"
	"io"
)

// writeJSON renders the tree, wrapped in an object keyed by the root element
// name when the document has one.
func writeJSON(w io.Writer, doc *Document, o *options) error {
	v := doc.Tree
	if doc.Root != "" {
		v = Object(F(doc.Root, doc.Tree))
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if o.indent != "" {
		enc.SetIndent("", o.indent)
	}
	return enc.Encode(v)
}
