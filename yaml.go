package xmlconv

import (
	"io"

	"gopkg.in/yaml.v3"
)

// writeYAML renders the tree unwrapped; the root element name is not part of
// the YAML document.
func writeYAML(w io.Writer, doc *Document, o *options) error {
	enc := yaml.NewEncoder(w)
	if o.indent != "" {
		enc.SetIndent(len(o.indent))
	}
	if err := enc.Encode(doc.Tree); err != nil {
		return err
	}
	return enc.Close()
}
