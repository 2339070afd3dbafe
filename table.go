package tabconv

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"
)

// encodeTable renders a plain-text preview: each table's name followed by
// a width-aligned grid with a separator under the header.
func encodeTable(ts *TableSet) ([]byte, []Warning, error) {
	var buf bytes.Buffer
	for ti, t := range ts.Tables {
		if ti > 0 {
			buf.WriteByte('\n')
		}
		fmt.Fprintln(&buf, sheetLabel(t, ti))

		header := t.Header()
		if len(header) == 0 {
			fmt.Fprintln(&buf, "(empty)")
			continue
		}
		cells := renderCells(t, header)
		widths := columnWidths(header, cells)
		writeAlignedRow(&buf, header, widths)
		writeRuleRow(&buf, widths)
		for _, rec := range cells {
			writeAlignedRow(&buf, rec, widths)
		}
	}
	return buf.Bytes(), nil, nil
}

func renderCells(t *Table, header []string) [][]string {
	cells := make([][]string, len(t.Rows))
	for ri, row := range t.Rows {
		rec := make([]string, len(header))
		for i, col := range header {
			v, _ := row.Get(col)
			rec[i] = renderValue(v)
		}
		cells[ri] = rec
	}
	return cells
}

func columnWidths(header []string, cells [][]string) []int {
	widths := make([]int, len(header))
	for i, col := range header {
		widths[i] = runewidth.StringWidth(col)
	}
	for _, rec := range cells {
		for i, cell := range rec {
			if w := runewidth.StringWidth(cell); i < len(widths) && w > widths[i] {
				widths[i] = w
			}
		}
	}
	return widths
}

func writeAlignedRow(buf *bytes.Buffer, cells []string, widths []int) {
	parts := make([]string, len(widths))
	for i, width := range widths {
		cell := ""
		if i < len(cells) {
			cell = cells[i]
		}
		parts[i] = padCell(cell, width)
	}
	fmt.Fprintln(buf, strings.TrimRight(strings.Join(parts, "  "), " "))
}

func writeRuleRow(buf *bytes.Buffer, widths []int) {
	parts := make([]string, len(widths))
	for i, width := range widths {
		parts[i] = strings.Repeat("-", width)
	}
	fmt.Fprintln(buf, strings.Join(parts, "  "))
}

// padCell left-aligns s within width display columns.
func padCell(s string, width int) string {
	pad := width - runewidth.StringWidth(s)
	if pad <= 0 {
		return s
	}
	return s + strings.Repeat(" ", pad)
}
