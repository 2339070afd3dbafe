package tabconv

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
)

// decodeCSV parses comma-delimited text with the first row as header.
// Values stay strings; no type inference happens here.
func decodeCSV(data []byte) (*TableSet, []Warning, error) {
	return decodeDelimited(data, ',')
}

func decodeDelimited(data []byte, comma rune) (*TableSet, []Warning, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = comma
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	if len(records) == 0 {
		return nil, nil, fmt.Errorf("%w: empty input", ErrParse)
	}

	header := uniqueColumns(records[0])
	t := &Table{Columns: header}
	for _, rec := range records[1:] {
		row := NewRow()
		for i, col := range header {
			if i < len(rec) {
				row.Set(col, rec[i])
			}
		}
		// Cells beyond the header get ordinal names.
		for i := len(header); i < len(rec); i++ {
			row.Set(strconv.Itoa(i), rec[i])
		}
		t.Rows = append(t.Rows, row)
	}
	return newTableSet(t), nil, nil
}

// encodeCSV writes the first table as comma-delimited text with a header
// row. Additional tables are not representable; their presence is surfaced
// as a Warning, not an error.
func encodeCSV(ts *TableSet) ([]byte, []Warning, error) {
	return encodeDelimited(ts, ',', CSV)
}

func encodeDelimited(ts *TableSet, comma rune, f Format) ([]byte, []Warning, error) {
	var warnings []Warning
	if len(ts.Tables) > 1 {
		warnings = append(warnings, Warning(fmt.Sprintf(
			"%s output carries only the first of %d tables", f, len(ts.Tables))))
	}

	t := ts.Tables[0]
	header := t.Header()
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Comma = comma
	if err := w.Write(header); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrEncode, err)
	}
	rec := make([]string, len(header))
	for _, row := range t.Rows {
		for i, col := range header {
			v, _ := row.Get(col)
			rec[i] = renderValue(v)
		}
		if err := w.Write(rec); err != nil {
			return nil, nil, fmt.Errorf("%w: %v", ErrEncode, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrEncode, err)
	}
	return buf.Bytes(), warnings, nil
}

// uniqueColumns replaces blank header names with the placeholder and
// de-dupes repeated names (a, a.1, a.2) so no row data is shadowed.
func uniqueColumns(names []string) []string {
	out := make([]string, len(names))
	seen := make(map[string]bool)
	counts := make(map[string]int)
	for i, name := range names {
		if name == "" {
			name = placeholderColumn
		}
		base := name
		for seen[name] {
			counts[base]++
			name = fmt.Sprintf("%s.%d", base, counts[base])
		}
		seen[name] = true
		out[i] = name
	}
	return out
}
