package xmlconv

// ExtractRecords locates the row-like objects inside root.
//
// An array root yields all of its items, objects or not. An object root is
// searched depth first with an explicit stack, and the first array whose first
// item is an object is returned as the record list. Children of an object are
// pushed in document order, so later fields are visited first; callers must
// not rely on which of several candidate arrays wins. A scalar root, or a tree
// with no array of objects, yields nothing.
//
// Whether an array holds objects is decided by its first item alone.
//
// Known limitation: only the first qualifying array is used. A collecting
// variant that keeps popping the stack and concatenates the items of every
// qualifying array it reaches would also be valid; documents with several
// record lists produce different tables under the two readings.
func ExtractRecords(root *Node) []*Node {
	if root == nil {
		return nil
	}
	switch root.kind {
	case KindArray:
		return append([]*Node(nil), root.items...)
	case KindObject:
		stack := []*Node{root}
		for len(stack) > 0 {
			n := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			switch {
			case isRecordArray(n):
				return append([]*Node(nil), n.items...)
			case n.kind == KindObject:
				for _, f := range n.fields {
					stack = append(stack, f.Value)
				}
			}
		}
	}
	return nil
}

// Flatten expands record into one or more flat rows appended to dst, each
// seeded with a copy of base.
//
// Scalars and arrays whose first item is not an object are copied under their
// own key. Plain object fields are dropped. Every array of objects is exploded
// on its own: each object item yields one row holding the item's fields under
// "<array>.<field>", one level deep. Two such arrays of sizes m and n
// therefore produce m+n rows, not m*n. Without any array of objects the record
// yields exactly one row. A record that is not an object appends nothing.
func Flatten(dst []Row, record *Node, base Row) []Row {
	if record == nil || record.kind != KindObject {
		return dst
	}
	row := base.Clone()
	var exploded []Field
	for _, f := range record.fields {
		switch {
		case isRecordArray(f.Value):
			exploded = append(exploded, f)
		case f.Value.kind == KindObject:
			// Not flattened.
		default:
			row.Set(f.Name, f.Value)
		}
	}
	if len(exploded) == 0 {
		return append(dst, row)
	}
	for _, f := range exploded {
		for _, item := range f.Value.items {
			if item.kind != KindObject {
				continue
			}
			r := row.Clone()
			for _, nested := range item.fields {
				r.Set(f.Name+"."+nested.Name, nested.Value)
			}
			dst = append(dst, r)
		}
	}
	return dst
}

// CollectHeaders returns the union of the rows' keys in first-seen order.
func CollectHeaders(rows []Row) []string {
	seen := make(map[string]struct{})
	var header []string
	for _, r := range rows {
		for _, k := range r.keys {
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			header = append(header, k)
		}
	}
	return header
}

// Tabular is a flattened document: rows plus the column header they share.
type Tabular struct {
	Header []string
	Rows   []Row
}

// Tabulate flattens the records found in root into a table. It returns
// [ErrNoData] when no record produces a row.
func Tabulate(root *Node) (*Tabular, error) {
	var rows []Row
	for _, rec := range ExtractRecords(root) {
		rows = Flatten(rows, rec, Row{})
	}
	if len(rows) == 0 {
		return nil, ErrNoData
	}
	return &Tabular{Header: CollectHeaders(rows), Rows: rows}, nil
}

// Records returns every row's cell texts in header order.
func (t *Tabular) Records() [][]string {
	out := make([][]string, len(t.Rows))
	for i, r := range t.Rows {
		out[i] = r.Values(t.Header)
	}
	return out
}
