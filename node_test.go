package xmlconv_test

import (
	"encoding/json"
	"testing"

	"github.com/bjaus/xmlconv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestNodeConstructors(t *testing.T) {
	t.Parallel()
	tests := map[string]struct {
		node *xmlconv.Node
		typ  xmlconv.ScalarType
		text string
	}{
		"string":       {node: xmlconv.Str("x"), typ: xmlconv.String, text: "x"},
		"number":       {node: xmlconv.Num("1.50"), typ: xmlconv.Number, text: "1.50"},
		"int":          {node: xmlconv.Int(-42), typ: xmlconv.Number, text: "-42"},
		"bool true":    {node: xmlconv.Boolean(true), typ: xmlconv.Bool, text: "true"},
		"bool false":   {node: xmlconv.Boolean(false), typ: xmlconv.Bool, text: "false"},
		"null":         {node: xmlconv.Nil(), typ: xmlconv.Null, text: ""},
		"empty string": {node: xmlconv.Str(""), typ: xmlconv.String, text: ""},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, xmlconv.KindScalar, tt.node.Kind())
			assert.Equal(t, tt.typ, tt.node.Scalar().Type)
			assert.Equal(t, tt.text, tt.node.Text())
			assert.Equal(t, 0, tt.node.Len())
		})
	}
}

func TestKindString(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "scalar", xmlconv.KindScalar.String())
	assert.Equal(t, "object", xmlconv.KindObject.String())
	assert.Equal(t, "array", xmlconv.KindArray.String())
	assert.Equal(t, "kind(9)", xmlconv.Kind(9).String())
}

func TestObject(t *testing.T) {
	t.Parallel()
	n := xmlconv.Object(
		xmlconv.F("b", xmlconv.Str("1")),
		xmlconv.F("a", nil),
		xmlconv.F("b", xmlconv.Str("2")),
	)
	assert.Equal(t, xmlconv.KindObject, n.Kind())
	assert.Equal(t, 2, n.Len())

	var names []string
	for name := range n.Fields() {
		names = append(names, name)
	}
	assert.Equal(t, []string{"b", "a"}, names)

	b, ok := n.Get("b")
	require.True(t, ok)
	assert.Equal(t, "2", b.Text())

	a, ok := n.Get("a")
	require.True(t, ok)
	assert.Equal(t, xmlconv.Null, a.Scalar().Type)

	_, ok = n.Get("missing")
	assert.False(t, ok)
}

func TestArray(t *testing.T) {
	t.Parallel()
	n := xmlconv.Array(xmlconv.Str("x"), nil, xmlconv.Int(3))
	assert.Equal(t, xmlconv.KindArray, n.Kind())
	assert.Equal(t, 3, n.Len())
	assert.Equal(t, "x", n.Index(0).Text())
	assert.Equal(t, xmlconv.Null, n.Index(1).Scalar().Type)
	assert.Nil(t, n.Index(3))
	assert.Nil(t, n.Index(-1))

	var idx []int
	for i := range n.Items() {
		idx = append(idx, i)
		if i == 1 {
			break
		}
	}
	assert.Equal(t, []int{0, 1}, idx)
}

func TestNodeText(t *testing.T) {
	t.Parallel()
	tests := map[string]struct {
		node *xmlconv.Node
		want string
	}{
		"nil":          {node: nil, want: ""},
		"object":       {node: xmlconv.Object(xmlconv.F("k", xmlconv.Str("v")), xmlconv.F("n", xmlconv.Int(1))), want: `{"k":"v","n":1}`},
		"array":        {node: xmlconv.Array(xmlconv.Boolean(true), xmlconv.Nil()), want: `[true,null]`},
		"empty object": {node: xmlconv.Object(), want: `{}`},
		"empty array":  {node: xmlconv.Array(), want: `[]`},
		"escaping":     {node: xmlconv.Array(xmlconv.Str("a\"b<c>")), want: `["a\"b<c>"]`},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.node.Text())
		})
	}
}

func TestNodeMarshalJSONWithEncodingJSON(t *testing.T) {
	t.Parallel()
	n := xmlconv.Object(
		xmlconv.F("z", xmlconv.Num("1e3")),
		xmlconv.F("a", xmlconv.Array(xmlconv.Str("x"))),
	)
	out, err := json.Marshal(map[string]*xmlconv.Node{"doc": n})
	require.NoError(t, err)
	assert.Equal(t, `{"doc":{"z":1e3,"a":["x"]}}`, string(out))
}

func TestNodeMarshalYAML(t *testing.T) {
	t.Parallel()
	n := xmlconv.Object(
		xmlconv.F("id", xmlconv.Str("7")),
		xmlconv.F("qty", xmlconv.Int(2)),
		xmlconv.F("ok", xmlconv.Boolean(false)),
		xmlconv.F("none", xmlconv.Nil()),
		xmlconv.F("null", xmlconv.Str("null")),
	)
	out, err := yaml.Marshal(n)
	require.NoError(t, err)
	assert.Equal(t, "id: \"7\"\nqty: 2\nok: false\nnone: null\n\"null\": \"null\"\n", string(out))

	// Round trip through yaml.v3 keeps strings as strings.
	var back map[string]any
	require.NoError(t, yaml.Unmarshal(out, &back))
	assert.Equal(t, "7", back["id"])
	assert.Equal(t, 2, back["qty"])
	assert.Equal(t, "null", back["null"])
}

func TestRow(t *testing.T) {
	t.Parallel()
	r := xmlconv.NewRow(xmlconv.F("b", xmlconv.Str("1")), xmlconv.F("a", xmlconv.Int(2)))
	assert.Equal(t, 2, r.Len())
	assert.Equal(t, []string{"b", "a"}, r.Keys())

	r.Set("b", xmlconv.Str("3"))
	r.Set("c", nil)
	assert.Equal(t, []string{"b", "a", "c"}, r.Keys())
	assert.Equal(t, "3", r.Text("b"))
	assert.Equal(t, "", r.Text("c"))
	assert.Equal(t, "", r.Text("missing"))

	cell, ok := r.Get("c")
	require.True(t, ok)
	assert.Equal(t, xmlconv.Null, cell.Scalar().Type)

	assert.Equal(t, []string{"", "2", "3"}, r.Values([]string{"x", "a", "b"}))

	out, err := json.Marshal(r)
	require.NoError(t, err)
	assert.Equal(t, `{"b":"3","a":2,"c":null}`, string(out))
}

func TestRowClone(t *testing.T) {
	t.Parallel()
	r := xmlconv.NewRow(xmlconv.F("a", xmlconv.Str("1")))
	c := r.Clone()
	c.Set("a", xmlconv.Str("2"))
	c.Set("b", xmlconv.Str("3"))
	assert.Equal(t, []string{"a"}, r.Keys())
	assert.Equal(t, "1", r.Text("a"))
	assert.Equal(t, []string{"a", "b"}, c.Keys())

	// Keys returns a copy.
	keys := c.Keys()
	keys[0] = "z"
	assert.Equal(t, "a", c.Keys()[0])
}

func TestRowZeroValue(t *testing.T) {
	t.Parallel()
	var r xmlconv.Row
	assert.Equal(t, 0, r.Len())
	out, err := json.Marshal(r)
	require.NoError(t, err)
	assert.Equal(t, `{}`, string(out))

	r.Set("a", xmlconv.Str("x"))
	assert.Equal(t, "x", r.Text("a"))
}
