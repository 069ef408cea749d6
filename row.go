package xmlconv

import (
	"bytes"
	"iter"
)

// Row is one flat record of a table: an ordered mapping from column key to
// cell value. Rows have value semantics; [Row.Clone] before mutating a row
// that another row may have been derived from. Cell nodes are immutable, so a
// clone may share them.
type Row struct {
	keys  []string
	cells map[string]*Node
}

// Len returns the number of cells.
func (r Row) Len() int { return len(r.keys) }

// Keys returns the column keys in insertion order.
func (r Row) Keys() []string {
	out := make([]string, len(r.keys))
	copy(out, r.keys)
	return out
}

// Get returns the cell stored under key.
func (r Row) Get(key string) (*Node, bool) {
	v, ok := r.cells[key]
	return v, ok
}

// Text returns the cell text for key, or "" when the row has no such cell.
func (r Row) Text(key string) string {
	return r.cells[key].Text()
}

// Set stores v under key. An existing key keeps its position.
func (r *Row) Set(key string, v *Node) {
	if v == nil {
		v = Nil()
	}
	if r.cells == nil {
		r.cells = make(map[string]*Node)
	}
	if _, ok := r.cells[key]; !ok {
		r.keys = append(r.keys, key)
	}
	r.cells[key] = v
}

// Clone returns an independent copy of r.
func (r Row) Clone() Row {
	out := Row{
		keys:  make([]string, len(r.keys)),
		cells: make(map[string]*Node, len(r.cells)),
	}
	copy(out.keys, r.keys)
	for k, v := range r.cells {
		out.cells[k] = v
	}
	return out
}

// All iterates cells in key order.
func (r Row) All() iter.Seq2[string, *Node] {
	return func(yield func(string, *Node) bool) {
		for _, k := range r.keys {
			if !yield(k, r.cells[k]) {
				return
			}
		}
	}
}

// Values returns the cell texts in header order. Missing cells are "".
func (r Row) Values(header []string) []string {
	out := make([]string, len(header))
	for i, h := range header {
		out[i] = r.Text(h)
	}
	return out
}

// MarshalJSON renders the row as a JSON object in key order.
func (r Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range r.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := appendJSONString(&buf, k); err != nil {
			return nil, err
		}
		buf.WriteByte(':')
		if err := r.cells[k].appendJSON(&buf); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// NewRow builds a row from fields, in order.
func NewRow(fields ...Field) Row {
	var r Row
	for _, f := range fields {
		r.Set(f.Name, f.Value)
	}
	return r
}
