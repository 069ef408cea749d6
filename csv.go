package xmlconv

import (
	"encoding/csv"
	"io"
	"strings"
)

func writeCSV(w io.Writer, t *Tabular, o *options) error {
	cw := csv.NewWriter(w)
	cw.Comma = o.delimiter
	if err := cw.Write(t.Header); err != nil {
		return err
	}
	for _, rec := range cellTexts(t, o) {
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// cellTexts returns the table body as text, escaping string cells that a
// spreadsheet would evaluate as a formula when o asks for it.
func cellTexts(t *Tabular, o *options) [][]string {
	if !o.escapeFormulas {
		return t.Records()
	}
	out := make([][]string, len(t.Rows))
	for i, row := range t.Rows {
		rec := make([]string, len(t.Header))
		for j, h := range t.Header {
			cell, ok := row.Get(h)
			if !ok {
				continue
			}
			rec[j] = cell.Text()
			if cell.Kind() == KindScalar && cell.Scalar().Type == String {
				rec[j] = escapeFormula(rec[j])
			}
		}
		out[i] = rec
	}
	return out
}

func escapeFormula(s string) string {
	if s == "" {
		return s
	}
	switch s[0] {
	case '=', '+', '-', '@', '\t', '\r', '\n', '|':
		return "'" + strings.ReplaceAll(s, "'", "''")
	}
	return s
}
