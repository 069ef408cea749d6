// Package xmlconv converts semi-structured documents into JSON, YAML and
// flat tables.
//
// A document is parsed into a generic tree of [Node] values (scalars,
// ordered objects and arrays). XML is the default input; JSON and YAML are
// accepted too. The central entry points are [Convert], [Marshal] and [Write],
// which take a [Format] constant:
//
//	out, err := xmlconv.Marshal(xmlconv.CSV, data)
//	err = xmlconv.Convert(os.Stdout, xmlconv.JSON, os.Stdin)
//
// [ConvertToJSON], [ConvertToYAML] and [ConvertToTable] are shorthands for
// XML input.
//
// # JSON and YAML
//
// JSON output wraps the tree in an object keyed by the XML root element name:
//
//	<order><id>7</id></order>  →  {"order": {"id": "7"}}
//
// YAML output is the bare tree. Field order follows the document.
//
// # Tables
//
// Every other format renders a flattened table built in three steps:
//
//   - [ExtractRecords] finds the record list: the root itself when it is an
//     array, otherwise the first array of objects met by a depth-first search.
//   - [Flatten] turns each record into rows. Scalar fields are copied, plain
//     nested objects are dropped, and each array of objects is exploded into
//     one row per element with keys such as "items.sku". Arrays are exploded
//     independently, so arrays of m and n elements give m+n rows.
//   - [CollectHeaders] unions the row keys in first-seen order.
//
// [Tabulate] runs all three and returns [ErrNoData] when nothing is found.
//
// Tabular formats are CSV, TSV, Table, Markdown, HTML, JSONL, Parquet and
// [GoTemplate].
//
// # XML mapping
//
// Attributes and child elements both become fields. Repeated sibling elements
// become an array. Elements without attributes or children become string
// scalars; all XML values are strings.
//
// # Options
//
// Rendering is tuned with functional options such as [WithIndent],
// [WithDelimiter], [WithBorder], [WithTitle], [WithRowNumbers],
// [WithMaxWidth] and [WithFormulaEscape]. [WithInput] selects the source
// format.
//
// # Errors
//
// The package exports sentinel errors for programmatic handling:
//
//   - [ErrParse]: malformed input; wraps the parser's error
//   - [ErrNoData]: no record-like array, nothing to tabulate
//   - [ErrSerialization]: rendering failed
//   - [ErrUnsupportedFormat]: unknown format string
//   - [ErrUnsupportedInput]: unknown input format
//   - [ErrInvalidTemplate]: invalid go-template syntax
package xmlconv
