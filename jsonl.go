package xmlconv

import (
	"encoding/json"
	"io"
)

func writeJSONL(w io.Writer, t *Tabular) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	for _, row := range t.Rows {
		if err := enc.Encode(row); err != nil {
			return err
		}
	}
	return nil
}
