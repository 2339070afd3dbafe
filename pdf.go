package tabconv

import (
	"fmt"
	"strconv"

	"golang.org/x/text/encoding/charmap"
)

// Extraction bounds for page-layout documents. These are hard caps on
// scanned content, not timeouts.
const (
	maxGridPages = 5
	maxTextPages = 3
	snippetLimit = 2000
)

// ExtractedPage is one page's worth of content from an extraction engine.
type ExtractedPage struct {
	// Grids holds detected table grids as rows of cells. A nil cell is
	// an empty or undetected cell.
	Grids [][][]any

	// Text is the page's plain text, empty when extraction found none.
	Text string
}

// Extractor is the external page-layout extraction engine. The decoder
// works without one, degrading to a raw-text snippet, so registering an
// engine is optional.
type Extractor interface {
	// ExtractPages returns content for at most maxPages leading pages.
	ExtractPages(data []byte, maxPages int) ([]ExtractedPage, error)
}

var pageExtractor Extractor

// RegisterExtractor installs the engine used by the page-layout decoder.
// Passing nil reverts to snippet-only behavior.
func RegisterExtractor(e Extractor) { pageExtractor = e }

// decodePDF pulls table grids out of a page-layout document, best effort:
// one table per detected grid, falling back to per-page text dumps, then
// to a bounded raw snippet. It never fails outright; degradations are
// reported as Warnings.
func decodePDF(data []byte) (*TableSet, []Warning, error) {
	if pageExtractor == nil {
		w := []Warning{"no page extraction engine registered; returning raw text snippet"}
		return newTableSet(textTable("text", permissiveSnippet(data, snippetLimit))), w, nil
	}
	pages, err := pageExtractor.ExtractPages(data, maxGridPages)
	if err != nil {
		w := []Warning{Warning(fmt.Sprintf("page extraction failed: %v; returning raw text snippet", err))}
		return newTableSet(textTable("text", permissiveSnippet(data, snippetLimit))), w, nil
	}

	var tables []*Table
	for _, page := range pages {
		for _, grid := range page.Grids {
			if len(grid) == 0 {
				continue
			}
			tables = append(tables, gridTable(grid))
		}
	}
	if len(tables) == 0 {
		for i, page := range pages {
			if i >= maxTextPages {
				break
			}
			tables = append(tables, textTable("text", page.Text))
		}
	}
	if len(tables) == 0 {
		return newTableSet(textTable("text", permissiveSnippet(data, snippetLimit))), nil, nil
	}
	return newTableSet(tables...), nil, nil
}

// gridTable turns an extracted grid into a table. A uniformly textual
// first row is taken as the header; otherwise columns get ordinal names
// and every grid row is data.
func gridTable(grid [][]any) *Table {
	header := ordinalColumns(widestRow(grid))
	body := grid
	if textualRow(grid[0]) {
		cells := make([]string, len(grid[0]))
		for i, c := range grid[0] {
			cells[i] = c.(string)
		}
		header = uniqueColumns(cells)
		body = grid[1:]
	}
	t := &Table{Columns: header}
	for _, rec := range body {
		row := NewRow()
		for i, col := range header {
			var v any
			if i < len(rec) {
				v = rec[i]
			}
			row.Set(col, v)
		}
		for i := len(header); i < len(rec); i++ {
			row.Set(strconv.Itoa(i), rec[i])
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

func textualRow(cells []any) bool {
	if len(cells) == 0 {
		return false
	}
	for _, c := range cells {
		if _, ok := c.(string); !ok {
			return false
		}
	}
	return true
}

func ordinalColumns(n int) []string {
	cols := make([]string, n)
	for i := range cols {
		cols[i] = strconv.Itoa(i)
	}
	return cols
}

func widestRow(grid [][]any) int {
	widest := 0
	for _, rec := range grid {
		if len(rec) > widest {
			widest = len(rec)
		}
	}
	return widest
}

// permissiveSnippet decodes up to limit bytes as Latin-1, which maps
// every byte to a rune, so arbitrary binary always yields valid text.
func permissiveSnippet(data []byte, limit int) string {
	if len(data) > limit {
		data = data[:limit]
	}
	out, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
	if err != nil {
		return string(data)
	}
	return string(out)
}
