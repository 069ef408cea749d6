package xmlconv

import (
	"bytes"
	"encoding/json"
	"iter"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Kind identifies which variant of the tree a [Node] holds.
type Kind uint8

const (
	KindScalar Kind = iota
	KindObject
	KindArray
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindObject:
		return "object"
	case KindArray:
		return "array"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// ScalarType identifies the primitive held by a scalar node.
type ScalarType uint8

const (
	String ScalarType = iota
	Number
	Bool
	Null
)

// Scalar is a leaf value. Text holds the string, the number literal, or
// "true"/"false". It is empty for Null.
type Scalar struct {
	Type ScalarType
	Text string
}

// Field is a named child of an object node.
type Field struct {
	Name  string
	Value *Node
}

// F is shorthand for building a [Field].
func F(name string, value *Node) Field {
	return Field{Name: name, Value: value}
}

// Node is the generic tree every input format is parsed into. A node is a
// scalar, an object with ordered uniquely named fields, or an array. Nodes are
// immutable once built and may be shared freely.
type Node struct {
	kind   Kind
	scalar Scalar
	fields []Field
	items  []*Node
}

// Str returns a string scalar.
func Str(s string) *Node {
	return &Node{kind: KindScalar, scalar: Scalar{Type: String, Text: s}}
}

// Num returns a number scalar holding the literal as written.
func Num(literal string) *Node {
	return &Node{kind: KindScalar, scalar: Scalar{Type: Number, Text: literal}}
}

// Int returns a number scalar for v.
func Int(v int64) *Node {
	return Num(strconv.FormatInt(v, 10))
}

// Boolean returns a bool scalar.
func Boolean(v bool) *Node {
	return &Node{kind: KindScalar, scalar: Scalar{Type: Bool, Text: strconv.FormatBool(v)}}
}

// Nil returns a null scalar.
func Nil() *Node {
	return &Node{kind: KindScalar, scalar: Scalar{Type: Null}}
}

// Object returns an object node. A repeated name overwrites the earlier value
// but keeps the earlier position.
func Object(fields ...Field) *Node {
	var b objectBuilder
	for _, f := range fields {
		b.set(f.Name, f.Value)
	}
	return b.build()
}

// Array returns an array node.
func Array(items ...*Node) *Node {
	out := make([]*Node, len(items))
	for i, item := range items {
		if item == nil {
			item = Nil()
		}
		out[i] = item
	}
	return &Node{kind: KindArray, items: out}
}

// Kind reports the node variant.
func (n *Node) Kind() Kind { return n.kind }

// Scalar returns the leaf value. It is the zero Scalar for objects and arrays.
func (n *Node) Scalar() Scalar { return n.scalar }

// Len returns the number of fields or items. Scalars have length zero.
func (n *Node) Len() int {
	switch n.kind {
	case KindObject:
		return len(n.fields)
	case KindArray:
		return len(n.items)
	default:
		return 0
	}
}

// Get returns the value of the named object field.
func (n *Node) Get(name string) (*Node, bool) {
	for _, f := range n.fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return nil, false
}

// Index returns the i-th array item, or nil when out of range.
func (n *Node) Index(i int) *Node {
	if i < 0 || i >= len(n.items) {
		return nil
	}
	return n.items[i]
}

// Fields iterates object fields in document order.
func (n *Node) Fields() iter.Seq2[string, *Node] {
	return func(yield func(string, *Node) bool) {
		for _, f := range n.fields {
			if !yield(f.Name, f.Value) {
				return
			}
		}
	}
}

// Items iterates array items in order.
func (n *Node) Items() iter.Seq2[int, *Node] {
	return func(yield func(int, *Node) bool) {
		for i, item := range n.items {
			if !yield(i, item) {
				return
			}
		}
	}
}

// isRecordArray reports whether n is a non-empty array whose first item is an
// object. Only item 0 is inspected.
func isRecordArray(n *Node) bool {
	return n.kind == KindArray && len(n.items) > 0 && n.items[0].kind == KindObject
}

// Text renders the node as a single table cell.
func (n *Node) Text() string {
	if n == nil {
		return ""
	}
	if n.kind == KindScalar {
		return n.scalar.Text
	}
	data, err := n.MarshalJSON()
	if err != nil {
		return ""
	}
	return string(data)
}

// MarshalJSON renders the node as compact JSON, keeping field order.
func (n *Node) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := n.appendJSON(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (n *Node) appendJSON(buf *bytes.Buffer) error {
	switch n.kind {
	case KindObject:
		buf.WriteByte('{')
		for i, f := range n.fields {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := appendJSONString(buf, f.Name); err != nil {
				return err
			}
			buf.WriteByte(':')
			if err := f.Value.appendJSON(buf); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	case KindArray:
		buf.WriteByte('[')
		for i, item := range n.items {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := item.appendJSON(buf); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	default:
		switch n.scalar.Type {
		case Null:
			buf.WriteString("null")
		case Bool, Number:
			buf.WriteString(n.scalar.Text)
		default:
			return appendJSONString(buf, n.scalar.Text)
		}
	}
	return nil
}

func appendJSONString(buf *bytes.Buffer, s string) error {
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return err
	}
	// Encode terminates every value with a newline.
	buf.Truncate(buf.Len() - 1)
	return nil
}

// MarshalYAML renders the node as a yaml.Node so field order survives
// encoding. String scalars are tagged so values such as "7" or "true" stay
// strings.
func (n *Node) MarshalYAML() (any, error) {
	return n.yamlNode(), nil
}

func (n *Node) yamlNode() *yaml.Node {
	switch n.kind {
	case KindObject:
		out := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for _, f := range n.fields {
			key := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: f.Name}
			out.Content = append(out.Content, key, f.Value.yamlNode())
		}
		return out
	case KindArray:
		out := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, item := range n.items {
			out.Content = append(out.Content, item.yamlNode())
		}
		return out
	default:
		switch n.scalar.Type {
		case Null:
			return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
		case Bool:
			return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: n.scalar.Text}
		case Number:
			return &yaml.Node{Kind: yaml.ScalarNode, Value: n.scalar.Text}
		default:
			return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: n.scalar.Text}
		}
	}
}

// objectBuilder accumulates object fields during parsing. Repeated names are
// either overwritten in place or, with add, collected into an array at the
// position of the first occurrence.
type objectBuilder struct {
	names    []string
	values   []*Node
	repeated [][]*Node
	index    map[string]int
}

func (b *objectBuilder) lookup(name string) (int, bool) {
	if b.index == nil {
		b.index = make(map[string]int)
	}
	i, ok := b.index[name]
	return i, ok
}

func (b *objectBuilder) set(name string, v *Node) {
	if v == nil {
		v = Nil()
	}
	if i, ok := b.lookup(name); ok {
		b.values[i] = v
		b.repeated[i] = nil
		return
	}
	b.index[name] = len(b.names)
	b.names = append(b.names, name)
	b.values = append(b.values, v)
	b.repeated = append(b.repeated, nil)
}

func (b *objectBuilder) add(name string, v *Node) {
	i, ok := b.lookup(name)
	if !ok {
		b.set(name, v)
		return
	}
	if b.repeated[i] == nil {
		b.repeated[i] = []*Node{b.values[i]}
	}
	b.repeated[i] = append(b.repeated[i], v)
}

func (b *objectBuilder) len() int { return len(b.names) }

func (b *objectBuilder) build() *Node {
	fields := make([]Field, len(b.names))
	for i, name := range b.names {
		v := b.values[i]
		if b.repeated[i] != nil {
			v = &Node{kind: KindArray, items: b.repeated[i]}
		}
		fields[i] = Field{Name: name, Value: v}
	}
	return &Node{kind: KindObject, fields: fields}
}
