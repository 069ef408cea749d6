package xmlconv

import (
	"fmt"
	"io"
	"text/template"
)

// writeGoTemplate executes the template once per row. The row is passed as a
// map keyed by column, so dotted keys are reached with index:
//
//	{{index . "items.sku"}}
func writeGoTemplate(w io.Writer, tmplStr string, t *Tabular) error {
	tmpl, err := template.New("").Option("missingkey=zero").Parse(tmplStr)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidTemplate, err)
	}
	for _, row := range t.Rows {
		data := make(map[string]string, len(t.Header))
		for _, h := range t.Header {
			data[h] = row.Text(h)
		}
		if err := tmpl.Execute(w, data); err != nil {
			return fmt.Errorf("%w: %w", ErrSerialization, err)
		}
		if _, err := fmt.Fprintln(w); err != nil {
			return fmt.Errorf("%w: %w", ErrSerialization, err)
		}
	}
	return nil
}
