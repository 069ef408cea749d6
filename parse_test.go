package xmlconv_test

import (
	"io"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/bjaus/xmlconv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseInput(t *testing.T) {
	t.Parallel()
	tests := map[string]struct {
		input string
		want  xmlconv.Input
		err   bool
	}{
		"xml":   {input: "xml", want: xmlconv.XMLInput},
		"json":  {input: "json", want: xmlconv.JSONInput},
		"yaml":  {input: "yaml", want: xmlconv.YAMLInput},
		"yml":   {input: "yml", want: xmlconv.YAMLInput},
		"toml":  {input: "toml", err: true},
		"empty": {input: "", err: true},
		"case":  {input: "XML", err: true},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			got, err := xmlconv.ParseInput(tt.input)
			if tt.err {
				require.ErrorIs(t, err, xmlconv.ErrUnsupportedInput)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseUnsupportedInput(t *testing.T) {
	t.Parallel()
	_, err := xmlconv.Parse("csv", strings.NewReader("a,b"))
	require.ErrorIs(t, err, xmlconv.ErrUnsupportedInput)
}

// ============================================================
// XML
// ============================================================

func TestParseXML(t *testing.T) {
	t.Parallel()
	tests := map[string]struct {
		input string
		root  string
		json  string
	}{
		"leaf": {
			input: `<a>hello</a>`,
			root:  "a",
			json:  `"hello"`,
		},
		"empty element": {
			input: `<a/>`,
			root:  "a",
			json:  `""`,
		},
		"children are strings": {
			input: `<order><id>7</id><paid>true</paid><note/></order>`,
			root:  "order",
			json:  `{"id":"7","paid":"true","note":""}`,
		},
		"attributes become fields": {
			input: `<item sku="A" qty="2"/>`,
			root:  "item",
			json:  `{"sku":"A","qty":"2"}`,
		},
		"attributes before children": {
			input: `<item sku="A"><name>Widget</name></item>`,
			root:  "item",
			json:  `{"sku":"A","name":"Widget"}`,
		},
		"repeated siblings become an array": {
			input: `<r><x>1</x><y>a</y><x>2</x><x>3</x></r>`,
			root:  "r",
			json:  `{"x":["1","2","3"],"y":"a"}`,
		},
		"single child is not an array": {
			input: `<r><x>1</x></r>`,
			root:  "r",
			json:  `{"x":"1"}`,
		},
		"mixed text goes under the empty key": {
			input: `<p lang="en">  Hello  </p>`,
			root:  "p",
			json:  `{"lang":"en","":"Hello"}`,
		},
		"indentation is ignored": {
			input: "<r>\n  <x>1</x>\n  <x>2</x>\n</r>\n",
			root:  "r",
			json:  `{"x":["1","2"]}`,
		},
		"leaf text is kept verbatim": {
			input: "<a>  spaced  </a>",
			root:  "a",
			json:  `"  spaced  "`,
		},
		"namespace declarations are skipped": {
			input: `<r xmlns="urn:a" xmlns:b="urn:b" b:id="1"><b:x>v</b:x></r>`,
			root:  "r",
			json:  `{"id":"1","x":"v"}`,
		},
		"entities and cdata": {
			input: `<a><b>x &amp; y</b><c><![CDATA[<raw>]]></c></a>`,
			root:  "a",
			json:  `{"b":"x & y","c":"<raw>"}`,
		},
		"prolog and comments": {
			input: `<?xml version="1.0"?><!-- c --><a><!-- inner --><b>1</b></a>`,
			root:  "a",
			json:  `{"b":"1"}`,
		},
		"nested records": {
			input: `<orders><order><id>1</id></order><order><id>2</id></order></orders>`,
			root:  "orders",
			json:  `{"order":[{"id":"1"},{"id":"2"}]}`,
		},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			doc, err := xmlconv.ParseXML(strings.NewReader(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.root, doc.Root)
			got, err := doc.Tree.MarshalJSON()
			require.NoError(t, err)
			assert.JSONEq(t, tt.json, string(got))
		})
	}
}

func TestParseXMLKeepsOrder(t *testing.T) {
	t.Parallel()
	doc, err := xmlconv.ParseXML(strings.NewReader(`<r><z>1</z><a>2</a><m>3</m></r>`))
	require.NoError(t, err)
	got, err := doc.Tree.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `{"z":"1","a":"2","m":"3"}`, string(got))
}

func TestParseXMLCharset(t *testing.T) {
	t.Parallel()
	input := "<?xml version=\"1.0\" encoding=\"ISO-8859-1\"?><a>caf\xe9</a>"
	doc, err := xmlconv.ParseXML(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, "café", doc.Tree.Text())
}

func TestParseXMLErrors(t *testing.T) {
	t.Parallel()
	tests := map[string]string{
		"empty":             "",
		"whitespace only":   "  \n",
		"unclosed":          "<a><b>1</b>",
		"mismatched":        "<a></b>",
		"not xml":           "hello",
		"second root":       "<a/><b/>",
		"text after root":   "<a/>trailing",
		"bad entity":        "<a>&nope;</a>",
		"unknown charset":   `<?xml version="1.0" encoding="x-nope"?><a/>`,
		"json instead":      `{"a": 1}`,
		"attribute unquote": `<a b=1/>`,
	}
	for name, input := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			_, err := xmlconv.ParseXML(strings.NewReader(input))
			require.ErrorIs(t, err, xmlconv.ErrParse)
		})
	}
}

func TestParseXMLReaderError(t *testing.T) {
	t.Parallel()
	r := io.MultiReader(strings.NewReader("<a>"), iotest.ErrReader(assert.AnError))
	_, err := xmlconv.ParseXML(r)
	require.ErrorIs(t, err, xmlconv.ErrParse)
	assert.ErrorIs(t, err, assert.AnError)
}

// ============================================================
// JSON
// ============================================================

func TestParseJSON(t *testing.T) {
	t.Parallel()
	tests := map[string]struct {
		input string
		want  string
	}{
		"object order": {
			input: `{"b": 1, "a": 2}`,
			want:  `{"b":1,"a":2}`,
		},
		"number literals kept": {
			input: `[1.50, 1e3, -0, 12345678901234567890]`,
			want:  `[1.50,1e3,-0,12345678901234567890]`,
		},
		"scalars": {
			input: `{"s": "x", "t": true, "f": false, "n": null}`,
			want:  `{"s":"x","t":true,"f":false,"n":null}`,
		},
		"duplicate key keeps first position": {
			input: `{"a": 1, "b": 2, "a": 3}`,
			want:  `{"a":3,"b":2}`,
		},
		"nested": {
			input: `{"o": [{"id": 1, "items": []}]}`,
			want:  `{"o":[{"id":1,"items":[]}]}`,
		},
		"html is not escaped": {
			input: `{"h": "<b>&</b>"}`,
			want:  `{"h":"<b>&</b>"}`,
		},
		"bare scalar": {
			input: `"x"`,
			want:  `"x"`,
		},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			doc, err := xmlconv.ParseJSON(strings.NewReader(tt.input))
			require.NoError(t, err)
			assert.Empty(t, doc.Root)
			got, err := doc.Tree.MarshalJSON()
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
		})
	}
}

func TestParseJSONErrors(t *testing.T) {
	t.Parallel()
	tests := map[string]string{
		"empty":          "",
		"truncated":      `{"a": 1`,
		"trailing value": `{"a": 1} {"b": 2}`,
		"bad token":      `{"a": tru}`,
		"xml instead":    `<a/>`,
	}
	for name, input := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			_, err := xmlconv.ParseJSON(strings.NewReader(input))
			require.ErrorIs(t, err, xmlconv.ErrParse)
		})
	}
}

// ============================================================
// YAML
// ============================================================

func TestParseYAML(t *testing.T) {
	t.Parallel()
	tests := map[string]struct {
		input string
		want  string
	}{
		"mapping order": {
			input: "b: x\na: y\n",
			want:  `{"b":"x","a":"y"}`,
		},
		"typed scalars": {
			input: "i: 7\nf: 1.5\nb: true\nn: null\ns: '7'\n",
			want:  `{"i":7,"f":1.5,"b":true,"n":null,"s":"7"}`,
		},
		"non-finite floats become strings": {
			input: "inf: .inf\nnan: .nan\n",
			want:  `{"inf":".inf","nan":".nan"}`,
		},
		"sequence": {
			input: "- id: 1\n- id: 2\n",
			want:  `[{"id":1},{"id":2}]`,
		},
		"aliases are expanded": {
			input: "base: &b {x: 1}\ncopy: *b\n",
			want:  `{"base":{"x":1},"copy":{"x":1}}`,
		},
		"only first document": {
			input: "a: 1\n---\nb: 2\n",
			want:  `{"a":1}`,
		},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			doc, err := xmlconv.ParseYAML(strings.NewReader(tt.input))
			require.NoError(t, err)
			got, err := doc.Tree.MarshalJSON()
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
		})
	}
}

func TestParseYAMLErrors(t *testing.T) {
	t.Parallel()
	tests := map[string]string{
		"empty":        "",
		"unclosed":     "a: [1, 2\n",
		"tab indented": "a:\n\tb: 1\n",
	}
	for name, input := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			_, err := xmlconv.ParseYAML(strings.NewReader(input))
			require.ErrorIs(t, err, xmlconv.ErrParse)
		})
	}
}

func nested(open, leaf, closing string, n int) string {
	return strings.Repeat(open, n) + leaf + strings.Repeat(closing, n)
}

func TestParseNestingLimit(t *testing.T) {
	t.Parallel()
	tests := map[string]struct {
		in    xmlconv.Input
		input string
		err   bool
	}{
		"xml at limit":     {in: xmlconv.XMLInput, input: nested("<a>", "x", "</a>", 1000)},
		"xml over limit":   {in: xmlconv.XMLInput, input: nested("<a>", "x", "</a>", 1001), err: true},
		"xml unterminated": {in: xmlconv.XMLInput, input: strings.Repeat("<a>", 2_000_000), err: true},
		"json at limit":    {in: xmlconv.JSONInput, input: nested("[", "1", "]", 1000)},
		"json over limit":  {in: xmlconv.JSONInput, input: nested("[", "1", "]", 1001), err: true},
		"json objects":     {in: xmlconv.JSONInput, input: nested(`{"a":`, "1", "}", 1001), err: true},
		"json unterminated": {
			in:    xmlconv.JSONInput,
			input: strings.Repeat("[", 2_000_000),
			err:   true,
		},
		"yaml at limit":   {in: xmlconv.YAMLInput, input: nested("[", "1", "]", 1000)},
		"yaml over limit": {in: xmlconv.YAMLInput, input: nested("[", "1", "]", 1001), err: true},
		"yaml mappings":   {in: xmlconv.YAMLInput, input: nested("{a: ", "1", "}", 1001), err: true},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			doc, err := xmlconv.Parse(tt.in, strings.NewReader(tt.input))
			if tt.err {
				require.ErrorIs(t, err, xmlconv.ErrParse)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, doc.Tree)
		})
	}
}

func TestParseNestingLimitMessage(t *testing.T) {
	t.Parallel()
	_, err := xmlconv.ParseJSON(strings.NewReader(nested("[", "", "]", 1001)))
	require.ErrorIs(t, err, xmlconv.ErrParse)
	assert.Contains(t, err.Error(), "nesting deeper than 1000 levels")
}

func TestDeepestDocumentRenders(t *testing.T) {
	t.Parallel()
	src := []byte(nested("<a>", "x", "</a>", 1000))

	out, err := xmlconv.ConvertToJSON(src)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(out), `{`))
	assert.Contains(t, string(out), `"a": "x"`)

	out, err = xmlconv.ConvertToYAML(src)
	require.NoError(t, err)
	assert.Contains(t, string(out), "a: x")
}
