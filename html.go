package tabconv

import (
	"bytes"
	"fmt"
	"html"
	"strconv"
	"strings"

	xhtml "golang.org/x/net/html"
)

// decodeHTML extracts one table per <table> element, in document order.
// A <thead> or a leading row of <th> cells becomes the header; otherwise
// columns get ordinal names. Pages without tables degrade to a dump of
// the visible text.
func decodeHTML(data []byte) (*TableSet, []Warning, error) {
	doc, err := xhtml.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	var tables []*Table
	collectTables(doc, &tables)
	if len(tables) == 0 {
		return newTableSet(textTable("text", htmlText(doc))), nil, nil
	}
	return newTableSet(tables...), nil, nil
}

func collectTables(n *xhtml.Node, tables *[]*Table) {
	if n.Type == xhtml.ElementNode && n.Data == "table" {
		if t := htmlTable(n); len(t.Rows) > 0 || len(t.Columns) > 0 {
			*tables = append(*tables, t)
		}
		// Nested tables fold into their parent's cell text.
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectTables(c, tables)
	}
}

// htmlTable flattens a table element into rows of trimmed cell text.
func htmlTable(tableNode *xhtml.Node) *Table {
	var grid [][]string
	caption := ""
	firstIsHeader := false

	var scanRows func(n *xhtml.Node, inHead bool)
	scanRows = func(n *xhtml.Node, inHead bool) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != xhtml.ElementNode {
				continue
			}
			switch c.Data {
			case "caption":
				caption = htmlText(c)
			case "thead":
				scanRows(c, true)
			case "tbody", "tfoot":
				scanRows(c, false)
			case "tr":
				var cells []string
				th := false
				for cc := c.FirstChild; cc != nil; cc = cc.NextSibling {
					if cc.Type == xhtml.ElementNode && (cc.Data == "td" || cc.Data == "th") {
						if cc.Data == "th" {
							th = true
						}
						cells = append(cells, htmlText(cc))
					}
				}
				if len(cells) == 0 {
					continue
				}
				if len(grid) == 0 && (inHead || th) {
					firstIsHeader = true
				}
				grid = append(grid, cells)
			}
		}
	}
	scanRows(tableNode, false)

	t := &Table{Name: caption}
	if len(grid) == 0 {
		return t
	}
	body := grid
	if firstIsHeader {
		t.Columns = uniqueColumns(grid[0])
		body = grid[1:]
	} else {
		t.Columns = ordinalColumns(len(grid[0]))
	}
	for _, rec := range body {
		row := NewRow()
		for i, cell := range rec {
			if i < len(t.Columns) {
				row.Set(t.Columns[i], cell)
			} else {
				row.Set(strconv.Itoa(i), cell)
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// htmlText returns the visible text beneath n with whitespace collapsed.
func htmlText(n *xhtml.Node) string {
	var b strings.Builder
	var visit func(*xhtml.Node)
	visit = func(n *xhtml.Node) {
		if n.Type == xhtml.TextNode {
			b.WriteString(n.Data)
			b.WriteByte(' ')
			return
		}
		if n.Type == xhtml.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "template":
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}
	visit(n)
	return strings.Join(strings.Fields(b.String()), " ")
}

// encodeHTML renders each table as an escaped <table> block with the
// table's name as caption.
func encodeHTML(ts *TableSet) ([]byte, []Warning, error) {
	var buf bytes.Buffer
	for i, t := range ts.Tables {
		if i > 0 {
			buf.WriteByte('\n')
		}
		header := t.Header()
		fmt.Fprintln(&buf, "<table>")
		fmt.Fprintf(&buf, "  <caption>%s</caption>\n", html.EscapeString(sheetLabel(t, i)))
		if len(header) > 0 {
			fmt.Fprintln(&buf, "  <thead>")
			fmt.Fprintln(&buf, "    <tr>")
			for _, col := range header {
				fmt.Fprintf(&buf, "      <th>%s</th>\n", html.EscapeString(col))
			}
			fmt.Fprintln(&buf, "    </tr>")
			fmt.Fprintln(&buf, "  </thead>")
		}
		fmt.Fprintln(&buf, "  <tbody>")
		for _, row := range t.Rows {
			fmt.Fprintln(&buf, "    <tr>")
			for _, col := range header {
				v, _ := row.Get(col)
				fmt.Fprintf(&buf, "      <td>%s</td>\n", html.EscapeString(renderValue(v)))
			}
			fmt.Fprintln(&buf, "    </tr>")
		}
		fmt.Fprintln(&buf, "  </tbody>")
		fmt.Fprintln(&buf, "</table>")
	}
	return buf.Bytes(), nil, nil
}
