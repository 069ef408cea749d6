package xmlconv

import (
	"errors"
	"fmt"
	"io"

	"github.com/parquet-go/parquet-go"
)

// writeParquet writes the table as a Parquet file with one optional string
// column per header key. Missing and null cells are stored as nulls. Parquet
// orders group columns by name, so the file's column order is lexical rather
// than the header order.
func writeParquet(w io.Writer, t *Tabular) error {
	if len(t.Header) == 0 {
		return errors.New("parquet output needs at least one column")
	}
	group := make(parquet.Group, len(t.Header))
	for _, h := range t.Header {
		group[h] = parquet.Optional(parquet.String())
	}
	schema := parquet.NewSchema("row", group)

	columns := schema.Columns()
	names := make([]string, len(columns))
	for i, path := range columns {
		// Header keys may contain dots; every column is a top-level leaf.
		if len(path) != 1 {
			return fmt.Errorf("unexpected nested parquet column %q", path)
		}
		names[i] = path[0]
	}

	pw := parquet.NewWriter(w, schema)
	rows := make([]parquet.Row, len(t.Rows))
	for i, r := range t.Rows {
		row := make(parquet.Row, len(names))
		for col, name := range names {
			cell, ok := r.Get(name)
			if !ok || (cell.Kind() == KindScalar && cell.Scalar().Type == Null) {
				row[col] = parquet.NullValue().Level(0, 0, col)
				continue
			}
			row[col] = parquet.ValueOf(cell.Text()).Level(0, 1, col)
		}
		rows[i] = row
	}
	if _, err := pw.WriteRows(rows); err != nil {
		return err
	}
	return pw.Close()
}
