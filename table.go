package xmlconv

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"
)

type borderChars struct {
	topLeft, topRight, bottomLeft, bottomRight string
	horizontal, vertical                       string
	topTee, bottomTee, leftTee, rightTee       string
	cross                                      string
}

var borderSets = map[BorderStyle]borderChars{
	BorderRounded: {
		topLeft: "╭", topRight: "╮", bottomLeft: "╰", bottomRight: "╯",
		horizontal: "─", vertical: "│",
		topTee: "┬", bottomTee: "┴", leftTee: "├", rightTee: "┤",
		cross: "┼",
	},
	BorderASCII: {
		topLeft: "+", topRight: "+", bottomLeft: "+", bottomRight: "+",
		horizontal: "-", vertical: "|",
		topTee: "+", bottomTee: "+", leftTee: "+", rightTee: "+",
		cross: "+",
	},
	BorderHeavy: {
		topLeft: "┏", topRight: "┓", bottomLeft: "┗", bottomRight: "┛",
		horizontal: "━", vertical: "┃",
		topTee: "┳", bottomTee: "┻", leftTee: "┣", rightTee: "┫",
		cross: "╋",
	},
	BorderDouble: {
		topLeft: "╔", topRight: "╗", bottomLeft: "╚", bottomRight: "╝",
		horizontal: "═", vertical: "║",
		topTee: "╦", bottomTee: "╩", leftTee: "╠", rightTee: "╣",
		cross: "╬",
	},
}

// layout is a table ready for text rendering: header and body cells plus
// per-column alignment, with the optional row number column applied.
type layout struct {
	header []string
	rows   [][]string
	aligns []Alignment
}

var lineBreaks = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

// newLayout prepares t for a line-oriented renderer. Line breaks inside cells
// become spaces.
func newLayout(t *Tabular, o *options) layout {
	l := layout{
		header: make([]string, len(t.Header)),
		rows:   t.Records(),
		aligns: columnAligns(t),
	}
	for i, h := range t.Header {
		l.header[i] = lineBreaks.Replace(h)
	}
	for _, row := range l.rows {
		for i, cell := range row {
			row[i] = lineBreaks.Replace(cell)
		}
	}
	if o.numbered {
		l.header = append([]string{o.numberHeader}, l.header...)
		for i, row := range l.rows {
			l.rows[i] = append([]string{strconv.Itoa(i + 1)}, row...)
		}
		l.aligns = append([]Alignment{AlignRight}, l.aligns...)
	}
	return l
}

// columnAligns right-aligns columns whose present cells are all numbers.
func columnAligns(t *Tabular) []Alignment {
	aligns := make([]Alignment, len(t.Header))
	for i, h := range t.Header {
		numeric := false
		for _, row := range t.Rows {
			cell, ok := row.Get(h)
			if !ok || (cell.Kind() == KindScalar && cell.Scalar().Type == Null) {
				continue
			}
			if cell.Kind() != KindScalar || cell.Scalar().Type != Number {
				numeric = false
				break
			}
			numeric = true
		}
		if numeric {
			aligns[i] = AlignRight
		}
	}
	return aligns
}

func writeTable(w io.Writer, t *Tabular, o *options) error {
	l := newLayout(t, o)
	widths := computeWidths(len(l.header), l.header, l.rows)
	if o.maxWidth > 0 {
		for i := range widths {
			if widths[i] > o.maxWidth {
				widths[i] = o.maxWidth
			}
		}
	}
	if o.border == BorderNone {
		return renderPlainTable(w, l, widths)
	}
	bc, ok := borderSets[o.border]
	if !ok {
		bc = borderSets[BorderRounded]
	}
	return renderBorderedTable(w, o.title, l, widths, bc)
}

func computeWidths(numCols int, header []string, rows [][]string) []int {
	widths := make([]int, numCols)
	for i, h := range header {
		if w := runewidth.StringWidth(h); w > widths[i] {
			widths[i] = w
		}
	}
	for _, row := range rows {
		for i, cell := range row {
			if w := runewidth.StringWidth(cell); i < numCols && w > widths[i] {
				widths[i] = w
			}
		}
	}
	return widths
}

// --- Plain table (BorderNone) ---

func renderPlainTable(w io.Writer, l layout, widths []int) error {
	if err := writePlainRow(w, l.header, widths, l.aligns); err != nil {
		return err
	}
	sep := make([]string, len(widths))
	for i, width := range widths {
		sep[i] = strings.Repeat("-", width)
	}
	if _, err := fmt.Fprintln(w, strings.Join(sep, "  ")); err != nil {
		return err
	}
	for _, row := range l.rows {
		if err := writePlainRow(w, row, widths, l.aligns); err != nil {
			return err
		}
	}
	return nil
}

func writePlainRow(w io.Writer, cells []string, widths []int, aligns []Alignment) error {
	parts := make([]string, len(widths))
	for i, width := range widths {
		cell := ""
		if i < len(cells) {
			cell = cells[i]
		}
		parts[i] = formatTableCell(cell, width, aligns[i])
	}
	line := strings.TrimRight(strings.Join(parts, "  "), " ")
	_, err := fmt.Fprintln(w, line)
	return err
}

// --- Bordered table ---

func renderBorderedTable(w io.Writer, title string, l layout, widths []int, bc borderChars) error {
	// A table without columns has no room for a title row.
	if title != "" && len(widths) > 0 {
		// Full-width top border (no column separators).
		if err := drawHLine(w, widths, bc.topLeft, bc.horizontal, bc.horizontal, bc.topRight); err != nil {
			return err
		}
		inner := tableInnerWidth(widths) - 2 // subtract 1-space padding on each side
		tail := "..."
		if inner < len(tail) {
			tail = ""
		}
		padded := alignCell(runewidth.Truncate(title, inner, tail), inner, AlignCenter)
		if _, err := fmt.Fprintf(w, "%s %s %s\n", bc.vertical, padded, bc.vertical); err != nil {
			return err
		}
		if err := drawHLine(w, widths, bc.leftTee, bc.horizontal, bc.topTee, bc.rightTee); err != nil {
			return err
		}
	} else {
		if err := drawHLine(w, widths, bc.topLeft, bc.horizontal, bc.topTee, bc.topRight); err != nil {
			return err
		}
	}

	if err := drawBorderedRow(w, l.header, widths, l.aligns, bc.vertical); err != nil {
		return err
	}
	if err := drawHLine(w, widths, bc.leftTee, bc.horizontal, bc.cross, bc.rightTee); err != nil {
		return err
	}
	for _, row := range l.rows {
		if err := drawBorderedRow(w, row, widths, l.aligns, bc.vertical); err != nil {
			return err
		}
	}
	return drawHLine(w, widths, bc.bottomLeft, bc.horizontal, bc.bottomTee, bc.bottomRight)
}

// tableInnerWidth returns the total character width between the outer vertical
// borders of a bordered table. Each cell contributes its width plus 2 (one
// space of padding on each side), and cells are separated by a single vertical
// border character.
func tableInnerWidth(widths []int) int {
	n := 0
	for _, w := range widths {
		n += w + 2
	}
	if len(widths) > 1 {
		n += len(widths) - 1
	}
	return n
}

func drawHLine(w io.Writer, widths []int, left, fill, mid, right string) error {
	var sb strings.Builder
	sb.WriteString(left)
	for i, width := range widths {
		sb.WriteString(strings.Repeat(fill, width+2))
		if i < len(widths)-1 {
			sb.WriteString(mid)
		}
	}
	sb.WriteString(right)
	_, err := fmt.Fprintln(w, sb.String())
	return err
}

func drawBorderedRow(w io.Writer, cells []string, widths []int, aligns []Alignment, vert string) error {
	var sb strings.Builder
	sb.WriteString(vert)
	for i, width := range widths {
		cell := ""
		if i < len(cells) {
			cell = cells[i]
		}
		sb.WriteString(" ")
		sb.WriteString(formatTableCell(cell, width, aligns[i]))
		sb.WriteString(" ")
		if i < len(widths)-1 {
			sb.WriteString(vert)
		}
	}
	sb.WriteString(vert)
	_, err := fmt.Fprintln(w, sb.String())
	return err
}

func formatTableCell(s string, width int, align Alignment) string {
	if width > 0 && runewidth.StringWidth(s) > width {
		if width <= 3 {
			s = runewidth.Truncate(s, width, "")
		} else {
			s = runewidth.Truncate(s, width, "...")
		}
	}
	return alignCell(s, width, align)
}

func alignCell(s string, width int, align Alignment) string {
	pad := width - runewidth.StringWidth(s)
	if pad <= 0 {
		return s
	}
	switch align {
	case AlignRight:
		return strings.Repeat(" ", pad) + s
	case AlignCenter:
		left := pad / 2
		right := pad - left
		return strings.Repeat(" ", left) + s + strings.Repeat(" ", right)
	default:
		return s + strings.Repeat(" ", pad)
	}
}
