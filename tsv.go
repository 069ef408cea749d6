package xmlconv

import (
	"fmt"
	"io"
	"strings"
)

var tsvEscaper = strings.NewReplacer("\\", `\\`, "\t", `\t`, "\n", `\n`, "\r", `\r`)

func writeTSV(w io.Writer, t *Tabular, o *options) error {
	if err := writeTSVLine(w, t.Header); err != nil {
		return err
	}
	for _, rec := range cellTexts(t, o) {
		if err := writeTSVLine(w, rec); err != nil {
			return err
		}
	}
	return nil
}

func writeTSVLine(w io.Writer, cells []string) error {
	escaped := make([]string, len(cells))
	for i, c := range cells {
		escaped[i] = tsvEscaper.Replace(c)
	}
	_, err := fmt.Fprintln(w, strings.Join(escaped, "\t"))
	return err
}
