package tabconv

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// element is a minimal parsed markup node.
type element struct {
	tag      string
	attrs    []xml.Attr
	text     string
	children []*element
}

// decodeXML infers a single table from markup. The readings are tried in
// a fixed order that callers rely on: regular repeated records under the
// root, then a leaf-parent walk anywhere in the tree, then a flat
// per-element dump.
func decodeXML(data []byte) (*TableSet, []Warning, error) {
	root, err := parseMarkup(data)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	if t, ok := regularTable(root); ok {
		return newTableSet(t), nil, nil
	}
	if t, ok := leafParentTable(root); ok {
		return newTableSet(t), nil, nil
	}
	return newTableSet(elementDump(root)), nil, nil
}

// parseMarkup builds an element tree, tolerating sloppy markup.
func parseMarkup(data []byte) (*element, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Strict = false
	var root *element
	var stack []*element
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			el := &element{tag: t.Name.Local}
			el.attrs = append(el.attrs, t.Attr...)
			if len(stack) > 0 {
				parent := stack[len(stack)-1]
				parent.children = append(parent.children, el)
			} else if root == nil {
				root = el
			}
			stack = append(stack, el)
		case xml.EndElement:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		case xml.CharData:
			if len(stack) > 0 {
				cur := stack[len(stack)-1]
				cur.text += string(t)
			}
		}
	}
	if root == nil {
		return nil, fmt.Errorf("no elements found")
	}
	return root, nil
}

// walk visits el and every descendant in document order.
func walk(el *element, visit func(*element)) {
	visit(el)
	for _, c := range el.children {
		walk(c, visit)
	}
}

// leafParent reports whether el has children and all of them are
// childless, the shape used as the unit of row inference.
func leafParent(el *element) bool {
	if len(el.children) == 0 {
		return false
	}
	for _, c := range el.children {
		if len(c.children) != 0 {
			return false
		}
	}
	return true
}

// regularTable reads a document whose root repeats one attribute-bearing
// record element. Records made purely of child elements are left for the
// leaf-parent walk, which owns that shape.
func regularTable(root *element) (*Table, bool) {
	if len(root.children) < 2 {
		return nil, false
	}
	tag := root.children[0].tag
	for _, c := range root.children {
		if c.tag != tag || len(c.attrs) == 0 {
			return nil, false
		}
		for _, gc := range c.children {
			if len(gc.children) != 0 {
				return nil, false
			}
		}
	}
	t := &Table{}
	for _, c := range root.children {
		row := NewRow()
		for _, a := range c.attrs {
			row.Set(a.Name.Local, a.Value)
		}
		for _, gc := range c.children {
			row.Set(gc.tag, strings.TrimSpace(gc.text))
		}
		t.Rows = append(t.Rows, row)
	}
	return t, true
}

// leafParentTable collects every element whose children are all childless
// into one row each. The column set is the sorted union of child tag
// names, for determinism.
func leafParentTable(root *element) (*Table, bool) {
	var rows []*Row
	cols := make(map[string]bool)
	walk(root, func(el *element) {
		if !leafParent(el) {
			return
		}
		row := NewRow()
		for _, c := range el.children {
			row.Set(c.tag, strings.TrimSpace(c.text))
		}
		rows = append(rows, row)
		for _, c := range row.Columns() {
			cols[c] = true
		}
	})
	if len(rows) == 0 {
		return nil, false
	}
	names := make([]string, 0, len(cols))
	for c := range cols {
		names = append(names, c)
	}
	sort.Strings(names)
	return &Table{Columns: names, Rows: rows}, true
}

// elementDump is the last-resort reading: one row per element in document
// order with tag, text, and attributes spread as columns.
func elementDump(root *element) *Table {
	t := &Table{}
	walk(root, func(el *element) {
		row := NewRow()
		row.Set("tag", el.tag)
		row.Set("text", strings.TrimSpace(el.text))
		for _, a := range el.attrs {
			row.Set(a.Name.Local, a.Value)
		}
		t.Rows = append(t.Rows, row)
	})
	return t
}

// tokenWriter funnels tokens into an encoder, keeping the first error.
type tokenWriter struct {
	enc *xml.Encoder
	err error
}

func (tw *tokenWriter) token(t xml.Token) {
	if tw.err == nil {
		tw.err = tw.enc.EncodeToken(t)
	}
}

// encodeXML wraps each table in a sheet element under a dataset root: one
// row element per row, one child element per column, nil rendered as
// empty text.
func encodeXML(ts *TableSet) ([]byte, []Warning, error) {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	tw := &tokenWriter{enc: xml.NewEncoder(&buf)}

	root := xml.StartElement{Name: xml.Name{Local: "dataset"}}
	tw.token(root)
	for i, t := range ts.Tables {
		sheet := xml.StartElement{
			Name: xml.Name{Local: "sheet"},
			Attr: []xml.Attr{{Name: xml.Name{Local: "name"}, Value: fmt.Sprintf("Sheet%d", i+1)}},
		}
		tw.token(sheet)
		for _, row := range t.Rows {
			rowEl := xml.StartElement{Name: xml.Name{Local: "row"}}
			tw.token(rowEl)
			for _, col := range row.Columns() {
				v, _ := row.Get(col)
				cell := xml.StartElement{Name: xml.Name{Local: tagName(col)}}
				tw.token(cell)
				tw.token(xml.CharData(renderValue(v)))
				tw.token(cell.End())
			}
			tw.token(rowEl.End())
		}
		tw.token(sheet.End())
	}
	tw.token(root.End())
	if tw.err == nil {
		tw.err = tw.enc.Flush()
	}
	if tw.err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrEncode, tw.err)
	}
	return buf.Bytes(), nil, nil
}

// tagName makes a column name usable as an XML element name. Anonymous
// keys become the placeholder; characters a name cannot carry become
// underscores.
func tagName(s string) string {
	if s == "" {
		return placeholderColumn
	}
	var b strings.Builder
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case r == '_' || r == '-' || r == '.':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	out := b.String()
	first, _ := utf8.DecodeRuneInString(out)
	if !unicode.IsLetter(first) && first != '_' {
		out = "_" + out
	}
	return out
}
