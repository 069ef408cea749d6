package xmlconv

import (
	"fmt"
	"io"
	"strings"
)

var markdownEscaper = strings.NewReplacer("|", `\|`)

func writeMarkdown(w io.Writer, t *Tabular, o *options) error {
	l := newLayout(t, o)
	escape := func(cells []string) {
		for i, c := range cells {
			cells[i] = markdownEscaper.Replace(c)
		}
	}
	escape(l.header)
	for _, row := range l.rows {
		escape(row)
	}

	// Calculate column widths (minimum 3 for alignment markers).
	widths := computeWidths(len(l.header), l.header, l.rows)
	for i := range widths {
		if widths[i] < 3 {
			widths[i] = 3
		}
	}

	if err := writeMarkdownRow(w, l.header, widths, l.aligns); err != nil {
		return err
	}

	sep := make([]string, len(widths))
	for i, width := range widths {
		switch l.aligns[i] {
		case AlignRight:
			sep[i] = strings.Repeat("-", width-1) + ":"
		case AlignCenter:
			sep[i] = ":" + strings.Repeat("-", width-2) + ":"
		default:
			sep[i] = strings.Repeat("-", width)
		}
	}
	if _, err := fmt.Fprintf(w, "| %s |\n", strings.Join(sep, " | ")); err != nil {
		return err
	}

	for _, row := range l.rows {
		if err := writeMarkdownRow(w, row, widths, l.aligns); err != nil {
			return err
		}
	}
	return nil
}

func writeMarkdownRow(w io.Writer, cells []string, widths []int, aligns []Alignment) error {
	padded := make([]string, len(widths))
	for i, width := range widths {
		cell := ""
		if i < len(cells) {
			cell = cells[i]
		}
		padded[i] = alignCell(cell, width, aligns[i])
	}
	_, err := fmt.Fprintf(w, "| %s |\n", strings.Join(padded, " | "))
	return err
}

