package tabconv

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// OOXML spreadsheet structures, trimmed to what tabular extraction needs.

type workbookXML struct {
	Sheets struct {
		Sheet []struct {
			Name string `xml:"name,attr"`
			RID  string `xml:"id,attr"` // r:id relationship attribute
		} `xml:"sheet"`
	} `xml:"sheets"`
}

type relationshipsXML struct {
	Relationship []struct {
		ID     string `xml:"Id,attr"`
		Target string `xml:"Target,attr"`
	} `xml:"Relationship"`
}

type worksheetXML struct {
	SheetData struct {
		Rows []struct {
			Cells []cellXML `xml:"c"`
		} `xml:"row"`
	} `xml:"sheetData"`
}

type cellXML struct {
	R  string `xml:"r,attr"` // cell reference, e.g. "B3"
	T  string `xml:"t,attr"` // s=shared string, b=bool, str=formula string, inlineStr, e=error
	V  string `xml:"v"`
	Is *struct {
		T string `xml:"t"`
	} `xml:"is"`
}

type sharedStringsXML struct {
	SI []struct {
		T string `xml:"t"`
		R []struct {
			T string `xml:"t"`
		} `xml:"r"`
	} `xml:"si"`
}

// decodeXLSX reads an OOXML workbook: one table per sheet, named after the
// sheet, with the first row as header. Legacy .xls input routes here too
// and fails zip validation with a ParseError.
func decodeXLSX(data []byte) (*TableSet, []Warning, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, nil, fmt.Errorf("%w: not an OOXML workbook: %v", ErrParse, err)
	}
	wb := &workbookReader{zr: zr, rels: make(map[string]string)}
	tables, err := wb.tables()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	return newTableSet(tables...), nil, nil
}

type workbookReader struct {
	zr     *zip.Reader
	rels   map[string]string
	shared []string
}

func (wb *workbookReader) tables() ([]*Table, error) {
	var workbook workbookXML
	if err := wb.unmarshalFile("xl/workbook.xml", &workbook); err != nil {
		return nil, fmt.Errorf("parsing workbook: %w", err)
	}
	wb.parseRelationships()
	wb.parseSharedStrings()

	var tables []*Table
	for i, ref := range workbook.Sheets.Sheet {
		target := wb.rels[ref.RID]
		if target == "" {
			target = fmt.Sprintf("worksheets/sheet%d.xml", i+1)
		}
		if !strings.HasPrefix(target, "xl/") {
			target = "xl/" + strings.TrimPrefix(target, "/")
		}
		var ws worksheetXML
		if err := wb.unmarshalFile(target, &ws); err != nil {
			continue // skip sheets we can't read
		}
		tables = append(tables, sheetTable(ref.Name, wb.sheetGrid(&ws)))
	}
	if len(tables) == 0 {
		return nil, fmt.Errorf("no worksheets found")
	}
	return tables, nil
}

func (wb *workbookReader) fileContent(name string) ([]byte, error) {
	for _, f := range wb.zr.File {
		if f.Name == name {
			rc, err := f.Open()
			if err != nil {
				return nil, err
			}
			defer rc.Close()
			return io.ReadAll(rc)
		}
	}
	return nil, fmt.Errorf("file not found: %s", name)
}

func (wb *workbookReader) unmarshalFile(name string, v any) error {
	data, err := wb.fileContent(name)
	if err != nil {
		return err
	}
	return xml.Unmarshal(data, v)
}

// parseRelationships maps relationship IDs to worksheet paths. Optional.
func (wb *workbookReader) parseRelationships() {
	var rels relationshipsXML
	if err := wb.unmarshalFile("xl/_rels/workbook.xml.rels", &rels); err != nil {
		return
	}
	for _, rel := range rels.Relationship {
		wb.rels[rel.ID] = rel.Target
	}
}

// parseSharedStrings loads the shared string table. Optional; rich text
// runs are concatenated.
func (wb *workbookReader) parseSharedStrings() {
	var sst sharedStringsXML
	if err := wb.unmarshalFile("xl/sharedStrings.xml", &sst); err != nil {
		return
	}
	wb.shared = make([]string, len(sst.SI))
	for i, si := range sst.SI {
		if si.T != "" {
			wb.shared[i] = si.T
			continue
		}
		var text strings.Builder
		for _, run := range si.R {
			text.WriteString(run.T)
		}
		wb.shared[i] = text.String()
	}
}

// sheetGrid lays a worksheet's cells out positionally, resolving typed
// values. Row order follows the file; column position follows cell refs.
func (wb *workbookReader) sheetGrid(ws *worksheetXML) [][]any {
	grid := make([][]any, 0, len(ws.SheetData.Rows))
	for _, row := range ws.SheetData.Rows {
		var rec []any
		for pos, cell := range row.Cells {
			col := pos
			if c, err := columnOfRef(cell.R); err == nil {
				col = c
			}
			for len(rec) <= col {
				rec = append(rec, nil)
			}
			rec[col] = wb.cellValue(cell)
		}
		grid = append(grid, rec)
	}
	return grid
}

func (wb *workbookReader) cellValue(c cellXML) any {
	switch c.T {
	case "s":
		idx, err := strconv.Atoi(c.V)
		if err == nil && idx >= 0 && idx < len(wb.shared) {
			return wb.shared[idx]
		}
		return ""
	case "b":
		return c.V == "1"
	case "inlineStr":
		if c.Is != nil {
			return c.Is.T
		}
		return ""
	case "str", "e":
		return c.V
	default: // numeric
		if c.V == "" {
			return nil
		}
		if f, err := strconv.ParseFloat(c.V, 64); err == nil {
			return f
		}
		return c.V
	}
}

// sheetTable turns a positional grid into a table, first row as header.
func sheetTable(name string, grid [][]any) *Table {
	t := &Table{Name: name}
	if len(grid) == 0 {
		return t
	}
	header := make([]string, len(grid[0]))
	for i, v := range grid[0] {
		header[i] = renderValue(v)
	}
	t.Columns = uniqueColumns(header)
	for _, rec := range grid[1:] {
		row := NewRow()
		for i, col := range t.Columns {
			var v any
			if i < len(rec) {
				v = rec[i]
			}
			row.Set(col, v)
		}
		for i := len(t.Columns); i < len(rec); i++ {
			row.Set(strconv.Itoa(i), rec[i])
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// columnOfRef extracts the 0-indexed column from a ref like "AB12".
func columnOfRef(ref string) (int, error) {
	i := 0
	for i < len(ref) && ref[i] >= 'A' && ref[i] <= 'Z' {
		i++
	}
	if i == 0 {
		return 0, fmt.Errorf("invalid cell reference: %q", ref)
	}
	col := 0
	for _, c := range ref[:i] {
		col = col*26 + int(c-'A') + 1
	}
	return col - 1, nil
}

// columnName converts a 0-indexed column into letters (0=A, 26=AA).
func columnName(index int) string {
	name := ""
	index++
	for index > 0 {
		index--
		name = string(rune('A'+index%26)) + name
		index /= 26
	}
	return name
}

// encodeXLSX writes a minimal OOXML workbook with one sheet per table,
// named Sheet{N}. Strings are stored inline so no shared string table is
// needed.
func encodeXLSX(ts *TableSet) ([]byte, []Warning, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	n := len(ts.Tables)
	parts := []struct{ name, body string }{
		{"[Content_Types].xml", contentTypesPart(n)},
		{"_rels/.rels", rootRelsPart},
		{"xl/workbook.xml", workbookPart(n)},
		{"xl/_rels/workbook.xml.rels", workbookRelsPart(n)},
	}
	for i, t := range ts.Tables {
		parts = append(parts, struct{ name, body string }{
			fmt.Sprintf("xl/worksheets/sheet%d.xml", i+1), worksheetPart(t),
		})
	}
	for _, part := range parts {
		w, err := zw.Create(part.name)
		if err == nil {
			_, err = w.Write([]byte(part.body))
		}
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", ErrEncode, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrEncode, err)
	}
	return buf.Bytes(), nil, nil
}

const (
	nsContentTypes  = "http://schemas.openxmlformats.org/package/2006/content-types"
	nsPackageRels   = "http://schemas.openxmlformats.org/package/2006/relationships"
	nsSpreadsheetML = "http://schemas.openxmlformats.org/spreadsheetml/2006/main"
	nsOfficeRels    = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"
)

const rootRelsPart = xml.Header +
	`<Relationships xmlns="` + nsPackageRels + `">` +
	`<Relationship Id="rId1" Type="` + nsOfficeRels + `/officeDocument" Target="xl/workbook.xml"/>` +
	`</Relationships>`

func contentTypesPart(sheets int) string {
	var b strings.Builder
	b.WriteString(xml.Header)
	b.WriteString(`<Types xmlns="` + nsContentTypes + `">`)
	b.WriteString(`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>`)
	b.WriteString(`<Default Extension="xml" ContentType="application/xml"/>`)
	b.WriteString(`<Override PartName="/xl/workbook.xml" ContentType="application/vnd.openxmlformats-officedocument.spreadsheetml.sheet.main+xml"/>`)
	for i := 1; i <= sheets; i++ {
		fmt.Fprintf(&b, `<Override PartName="/xl/worksheets/sheet%d.xml" ContentType="application/vnd.openxmlformats-officedocument.spreadsheetml.worksheet+xml"/>`, i)
	}
	b.WriteString(`</Types>`)
	return b.String()
}

func workbookPart(sheets int) string {
	var b strings.Builder
	b.WriteString(xml.Header)
	b.WriteString(`<workbook xmlns="` + nsSpreadsheetML + `" xmlns:r="` + nsOfficeRels + `"><sheets>`)
	for i := 1; i <= sheets; i++ {
		fmt.Fprintf(&b, `<sheet name="Sheet%d" sheetId="%d" r:id="rId%d"/>`, i, i, i)
	}
	b.WriteString(`</sheets></workbook>`)
	return b.String()
}

func workbookRelsPart(sheets int) string {
	var b strings.Builder
	b.WriteString(xml.Header)
	b.WriteString(`<Relationships xmlns="` + nsPackageRels + `">`)
	for i := 1; i <= sheets; i++ {
		fmt.Fprintf(&b, `<Relationship Id="rId%d" Type="%s/worksheet" Target="worksheets/sheet%d.xml"/>`, i, nsOfficeRels, i)
	}
	b.WriteString(`</Relationships>`)
	return b.String()
}

func worksheetPart(t *Table) string {
	header := t.Header()
	var b strings.Builder
	b.WriteString(xml.Header)
	b.WriteString(`<worksheet xmlns="` + nsSpreadsheetML + `"><sheetData>`)
	writeSheetRow(&b, 1, header, func(i int) any { return header[i] })
	for ri, row := range t.Rows {
		writeSheetRow(&b, ri+2, header, func(i int) any {
			v, _ := row.Get(header[i])
			return v
		})
	}
	b.WriteString(`</sheetData></worksheet>`)
	return b.String()
}

func writeSheetRow(b *strings.Builder, num int, header []string, value func(int) any) {
	fmt.Fprintf(b, `<row r="%d">`, num)
	for i := range header {
		ref := fmt.Sprintf("%s%d", columnName(i), num)
		switch v := value(i).(type) {
		case nil:
			// empty cells are omitted
		case float64:
			fmt.Fprintf(b, `<c r="%s"><v>%s</v></c>`, ref, renderValue(v))
		case bool:
			bit := "0"
			if v {
				bit = "1"
			}
			fmt.Fprintf(b, `<c r="%s" t="b"><v>%s</v></c>`, ref, bit)
		default:
			fmt.Fprintf(b, `<c r="%s" t="inlineStr"><is><t>%s</t></is></c>`, ref, xmlEscape(renderValue(v)))
		}
	}
	b.WriteString(`</row>`)
}

func xmlEscape(s string) string {
	var b bytes.Buffer
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}
