package xmlconv

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Sentinel errors for programmatic error handling.
var (
	ErrParse             = errors.New("parse error")
	ErrNoData            = errors.New("no valid data to convert")
	ErrSerialization     = errors.New("serialization error")
	ErrUnsupportedFormat = errors.New("unsupported format")
	ErrUnsupportedInput  = errors.New("unsupported input")
	ErrInvalidTemplate   = errors.New("invalid template")
)

// Format represents an output format.
type Format string

const (
	JSON     Format = "json"
	YAML     Format = "yaml"
	CSV      Format = "csv"
	TSV      Format = "tsv"
	Table    Format = "table"
	Markdown Format = "markdown"
	HTML     Format = "html"
	JSONL    Format = "jsonl"
	Parquet  Format = "parquet"
)

const goTemplatePrefix = "go-template="

var formats = []Format{JSON, YAML, CSV, TSV, Table, Markdown, HTML, JSONL, Parquet}

// String returns the format name.
func (f Format) String() string { return string(f) }

// Tabular reports whether f renders the flattened table rather than the tree.
func (f Format) Tabular() bool {
	switch f {
	case JSON, YAML:
		return false
	case CSV, TSV, Table, Markdown, HTML, JSONL, Parquet:
		return true
	default:
		return strings.HasPrefix(string(f), goTemplatePrefix)
	}
}

// Formats returns all supported static format names.
// GoTemplate is not included because it is parameterized.
func Formats() []Format {
	out := make([]Format, len(formats))
	copy(out, formats)
	return out
}

// GoTemplate returns a Format that renders each table row using a Go
// text/template. The row is passed as a map from column key to cell text.
func GoTemplate(tmpl string) Format {
	return Format(goTemplatePrefix + tmpl)
}

// ParseFormat parses a format string. Recognizes all static formats and
// go-template=<tmpl> strings.
func ParseFormat(s string) (Format, error) {
	if strings.HasPrefix(s, goTemplatePrefix) {
		return Format(s), nil
	}
	for _, f := range formats {
		if string(f) == s {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
}

// --- Options ---

// BorderStyle controls table border characters.
type BorderStyle int

const (
	BorderRounded BorderStyle = iota // ╭─╮╰╯│┬┴├┤┼
	BorderNone                       // No borders, space-separated columns
	BorderASCII                      // +-+|
	BorderHeavy                      // ┏━┓┗┛┃┳┻┣┫╋
	BorderDouble                     // ╔═╗╚╝║╦╩╠╣╬
)

var borderNames = map[string]BorderStyle{
	"rounded": BorderRounded,
	"none":    BorderNone,
	"ascii":   BorderASCII,
	"heavy":   BorderHeavy,
	"double":  BorderDouble,
}

// ParseBorder parses a border style name: rounded, none, ascii, heavy or
// double.
func ParseBorder(s string) (BorderStyle, error) {
	b, ok := borderNames[s]
	if !ok {
		return 0, fmt.Errorf("unknown border style %q", s)
	}
	return b, nil
}

// Alignment controls column text alignment.
type Alignment int

const (
	AlignLeft Alignment = iota
	AlignCenter
	AlignRight
)

type options struct {
	input          Input
	indent         string
	delimiter      rune
	border         BorderStyle
	title          string
	numberHeader   string
	numbered       bool
	maxWidth       int
	escapeFormulas bool
}

func newOptions(opts []Option) *options {
	o := &options{
		input:     XMLInput,
		indent:    "  ",
		delimiter: ',',
		border:    BorderRounded,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Option configures parsing and rendering.
type Option func(*options)

// WithInput sets the source format read by [Convert] and [Marshal].
// Default: [XMLInput].
func WithInput(in Input) Option {
	return func(o *options) { o.input = in }
}

// WithIndent sets the JSON and YAML indentation. An empty string renders
// compact JSON and YAML with its default indent.
// Default: two spaces.
func WithIndent(indent string) Option {
	return func(o *options) { o.indent = indent }
}

// WithDelimiter sets the CSV field delimiter.
// Default: comma.
func WithDelimiter(r rune) Option {
	return func(o *options) { o.delimiter = r }
}

// WithBorder sets the Table border style.
// Default: BorderRounded.
func WithBorder(b BorderStyle) Option {
	return func(o *options) { o.border = b }
}

// WithTitle renders a title above Table output and as the HTML caption.
func WithTitle(title string) Option {
	return func(o *options) { o.title = title }
}

// WithRowNumbers prepends a row number column to Table, Markdown and HTML
// output.
func WithRowNumbers(header string) Option {
	return func(o *options) {
		o.numbered = true
		o.numberHeader = header
	}
}

// WithMaxWidth truncates Table cells wider than n with "...". Zero means no
// limit.
func WithMaxWidth(n int) Option {
	return func(o *options) { o.maxWidth = n }
}

// WithFormulaEscape prefixes CSV and TSV cells that a spreadsheet would treat
// as a formula with a single quote.
func WithFormulaEscape() Option {
	return func(o *options) { o.escapeFormulas = true }
}

// --- Entry points ---

// Write renders doc in format f to w. Tabular formats flatten the tree first
// and return [ErrNoData] when it holds no records. Renderer failures are
// wrapped in [ErrSerialization].
func Write(w io.Writer, f Format, doc *Document, opts ...Option) error {
	o := newOptions(opts)
	switch f {
	case JSON:
		return serialization(writeJSON(w, doc, o))
	case YAML:
		return serialization(writeYAML(w, doc, o))
	}
	if !f.Tabular() {
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, f)
	}
	t, err := Tabulate(doc.Tree)
	if err != nil {
		return err
	}
	return writeTabular(w, f, t, o)
}

// WriteTable renders an already flattened table in a tabular format.
func WriteTable(w io.Writer, f Format, t *Tabular, opts ...Option) error {
	if !f.Tabular() {
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, f)
	}
	return writeTabular(w, f, t, newOptions(opts))
}

func writeTabular(w io.Writer, f Format, t *Tabular, o *options) error {
	var err error
	switch f {
	case CSV:
		err = writeCSV(w, t, o)
	case TSV:
		err = writeTSV(w, t, o)
	case Table:
		err = writeTable(w, t, o)
	case Markdown:
		err = writeMarkdown(w, t, o)
	case HTML:
		err = writeHTML(w, t, o)
	case JSONL:
		err = writeJSONL(w, t)
	case Parquet:
		err = writeParquet(w, t)
	default:
		tmpl, _ := strings.CutPrefix(string(f), goTemplatePrefix)
		// Template errors are reported as is; they are caller mistakes.
		return writeGoTemplate(w, tmpl, t)
	}
	return serialization(err)
}

func serialization(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrSerialization, err)
}

// Convert parses a document from r and renders it in format f to w.
func Convert(w io.Writer, f Format, r io.Reader, opts ...Option) error {
	o := newOptions(opts)
	doc, err := Parse(o.input, r)
	if err != nil {
		return err
	}
	return Write(w, f, doc, opts...)
}

// Marshal converts data to format f and returns the bytes.
func Marshal(f Format, data []byte, opts ...Option) ([]byte, error) {
	var buf bytes.Buffer
	if err := Convert(&buf, f, bytes.NewReader(data), opts...); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ConvertToJSON converts an XML document to JSON wrapped in an object keyed by
// the root element name.
func ConvertToJSON(xml []byte, opts ...Option) ([]byte, error) {
	return Marshal(JSON, xml, opts...)
}

// ConvertToYAML converts an XML document to YAML.
func ConvertToYAML(xml []byte, opts ...Option) ([]byte, error) {
	return Marshal(YAML, xml, opts...)
}

// ConvertToTable flattens an XML document into CSV. It returns [ErrNoData]
// when the document holds no array of records.
func ConvertToTable(xml []byte, opts ...Option) ([]byte, error) {
	return Marshal(CSV, xml, opts...)
}
