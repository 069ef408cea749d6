package xmlconv

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"golang.org/x/net/html/charset"
	"gopkg.in/yaml.v3"
)

// Input names the format of a source document.
type Input string

const (
	XMLInput  Input = "xml"
	JSONInput Input = "json"
	YAMLInput Input = "yaml"
)

var inputs = []Input{XMLInput, JSONInput, YAMLInput}

// String returns the input name.
func (in Input) String() string { return string(in) }

// ParseInput parses an input format name. "yml" is accepted for YAML.
func ParseInput(s string) (Input, error) {
	if s == "yml" {
		return YAMLInput, nil
	}
	for _, in := range inputs {
		if string(in) == s {
			return in, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedInput, s)
}

// Document is a parsed source document.
type Document struct {
	// Root is the name of the XML root element. It is empty for JSON and
	// YAML input, which have no named root.
	Root string
	Tree *Node
}

// Parse reads a document in the given input format.
func Parse(in Input, r io.Reader) (*Document, error) {
	switch in {
	case XMLInput:
		return ParseXML(r)
	case JSONInput:
		return ParseJSON(r)
	case YAMLInput:
		return ParseYAML(r)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedInput, in)
	}
}

// maxDepth bounds how deeply objects and arrays may nest in any input.
const maxDepth = 1000

func errTooDeep() error {
	return fmt.Errorf("nesting deeper than %d levels", maxDepth)
}

// --- XML ---

type xmlFrame struct {
	name   string
	fields objectBuilder
	text   strings.Builder
}

// ParseXML reads an XML document. The root element's content becomes the
// tree and its name becomes [Document.Root].
//
// Attributes and child elements both become object fields, in document order.
// Sibling elements sharing a name collapse into an array at the position of
// the first one. An element with neither attributes nor children becomes a
// string scalar holding its text verbatim, so an empty element is "". Text
// mixed with attributes or children is kept under the "" field.
func ParseXML(r io.Reader) (*Document, error) {
	dec := xml.NewDecoder(r)
	dec.CharsetReader = charset.NewReaderLabel

	var (
		stack []*xmlFrame
		doc   *Document
	)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrParse, err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if doc != nil {
				return nil, fmt.Errorf("%w: unexpected element <%s> after root element", ErrParse, t.Name.Local)
			}
			if len(stack) >= maxDepth {
				return nil, fmt.Errorf("%w: %w", ErrParse, errTooDeep())
			}
			fr := &xmlFrame{name: t.Name.Local}
			for _, a := range t.Attr {
				if a.Name.Space == "xmlns" || (a.Name.Space == "" && a.Name.Local == "xmlns") {
					continue
				}
				fr.fields.add(a.Name.Local, Str(a.Value))
			}
			stack = append(stack, fr)
		case xml.CharData:
			if len(stack) > 0 {
				stack[len(stack)-1].text.Write(t)
			} else if len(bytes.TrimSpace(t)) > 0 {
				return nil, fmt.Errorf("%w: text outside root element", ErrParse)
			}
		case xml.EndElement:
			fr := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			v := fr.value()
			if len(stack) == 0 {
				doc = &Document{Root: fr.name, Tree: v}
				continue
			}
			stack[len(stack)-1].fields.add(fr.name, v)
		}
	}
	if doc == nil {
		return nil, fmt.Errorf("%w: no root element", ErrParse)
	}
	return doc, nil
}

func (fr *xmlFrame) value() *Node {
	text := fr.text.String()
	if fr.fields.len() == 0 {
		return Str(text)
	}
	if trimmed := strings.TrimSpace(text); trimmed != "" {
		fr.fields.add("", Str(trimmed))
	}
	return fr.fields.build()
}

// --- JSON ---

// ParseJSON reads a single JSON value. Number literals are kept as written.
func ParseJSON(r io.Reader) (*Document, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	tree, err := decodeJSON(dec, 0)
	if err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return nil, fmt.Errorf("%w: %w", ErrParse, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: unexpected data after top-level value", ErrParse)
	}
	return &Document{Tree: tree}, nil
}

// decodeJSON reads one value. depth counts the containers enclosing it.
func decodeJSON(dec *json.Decoder, depth int) (*Node, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	switch t := tok.(type) {
	case json.Delim:
		if depth >= maxDepth {
			return nil, errTooDeep()
		}
		switch t {
		case '{':
			var b objectBuilder
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, _ := keyTok.(string)
				v, err := decodeJSON(dec, depth+1)
				if err != nil {
					return nil, err
				}
				b.set(key, v)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return b.build(), nil
		case '[':
			var items []*Node
			for dec.More() {
				v, err := decodeJSON(dec, depth+1)
				if err != nil {
					return nil, err
				}
				items = append(items, v)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return &Node{kind: KindArray, items: items}, nil
		default:
			return nil, fmt.Errorf("unexpected delimiter %q", t)
		}
	case json.Number:
		return Num(t.String()), nil
	case string:
		return Str(t), nil
	case bool:
		return Boolean(t), nil
	case nil:
		return Nil(), nil
	default:
		return nil, fmt.Errorf("unexpected token %v", t)
	}
}

// --- YAML ---

// ParseYAML reads the first document of a YAML stream. Aliases are expanded.
func ParseYAML(r io.Reader) (*Document, error) {
	var root yaml.Node
	if err := yaml.NewDecoder(r).Decode(&root); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty document", ErrParse)
		}
		return nil, fmt.Errorf("%w: %w", ErrParse, err)
	}
	tree, err := fromYAML(&root, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParse, err)
	}
	return &Document{Tree: tree}, nil
}

// fromYAML converts n. depth counts the mappings and sequences enclosing it;
// aliases are expanded in place and count the same way.
func fromYAML(n *yaml.Node, depth int) (*Node, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return Nil(), nil
		}
		return fromYAML(n.Content[0], depth)
	case yaml.AliasNode:
		return fromYAML(n.Alias, depth)
	case yaml.MappingNode:
		if depth >= maxDepth {
			return nil, errTooDeep()
		}
		var b objectBuilder
		for i := 0; i+1 < len(n.Content); i += 2 {
			v, err := fromYAML(n.Content[i+1], depth+1)
			if err != nil {
				return nil, err
			}
			b.set(n.Content[i].Value, v)
		}
		return b.build(), nil
	case yaml.SequenceNode:
		if depth >= maxDepth {
			return nil, errTooDeep()
		}
		items := make([]*Node, 0, len(n.Content))
		for _, c := range n.Content {
			v, err := fromYAML(c, depth+1)
			if err != nil {
				return nil, err
			}
			items = append(items, v)
		}
		return &Node{kind: KindArray, items: items}, nil
	case yaml.ScalarNode:
		switch n.ShortTag() {
		case "!!null":
			return Nil(), nil
		case "!!bool":
			var v bool
			if err := n.Decode(&v); err != nil {
				return nil, err
			}
			return Boolean(v), nil
		case "!!int":
			var v int64
			if err := n.Decode(&v); err != nil {
				return Str(n.Value), nil
			}
			return Int(v), nil
		case "!!float":
			var v float64
			if err := n.Decode(&v); err != nil || math.IsInf(v, 0) || math.IsNaN(v) {
				return Str(n.Value), nil
			}
			return Num(strconv.FormatFloat(v, 'g', -1, 64)), nil
		default:
			return Str(n.Value), nil
		}
	default:
		return nil, fmt.Errorf("unsupported YAML node kind %d", n.Kind)
	}
}
