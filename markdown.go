package tabconv

import (
	"bytes"
	"fmt"
	"strings"
)

// encodeMarkdown renders each table as a pipe table. With more than one
// table, each gets a heading so the sections stay distinguishable.
func encodeMarkdown(ts *TableSet) ([]byte, []Warning, error) {
	var buf bytes.Buffer
	for i, t := range ts.Tables {
		if i > 0 {
			buf.WriteByte('\n')
		}
		if len(ts.Tables) > 1 {
			fmt.Fprintf(&buf, "## %s\n\n", sheetLabel(t, i))
		}
		writeMarkdownTable(&buf, t)
	}
	return buf.Bytes(), nil, nil
}

func writeMarkdownTable(buf *bytes.Buffer, t *Table) {
	header := t.Header()
	if len(header) == 0 {
		return
	}
	cells := renderCells(t, header)
	widths := columnWidths(header, cells)
	// Minimum 3 so the separator row stays well-formed.
	for i := range widths {
		if widths[i] < 3 {
			widths[i] = 3
		}
	}

	writeMarkdownRow(buf, header, widths)
	sep := make([]string, len(widths))
	for i, width := range widths {
		sep[i] = strings.Repeat("-", width)
	}
	fmt.Fprintf(buf, "| %s |\n", strings.Join(sep, " | "))
	for _, rec := range cells {
		writeMarkdownRow(buf, rec, widths)
	}
}

func writeMarkdownRow(buf *bytes.Buffer, cells []string, widths []int) {
	padded := make([]string, len(widths))
	for i, width := range widths {
		cell := ""
		if i < len(cells) {
			cell = cells[i]
		}
		padded[i] = padCell(cell, width)
	}
	fmt.Fprintf(buf, "| %s |\n", strings.Join(padded, " | "))
}
