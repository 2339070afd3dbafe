package tabconv

import "fmt"

// tableFromDocument maps a parsed structured-text document onto a table,
// trying the readings in precedence order: a sequence of records becomes
// one row per record; a single record of equal-length sequences is read
// column-wise; any other record flattens to one row. Reports false when
// the document has no tabular reading (scalars, empty sequences).
func tableFromDocument(v any) (*Table, bool) {
	switch doc := v.(type) {
	case []any:
		if len(doc) == 0 {
			return nil, false
		}
		t := &Table{}
		for _, item := range doc {
			row := NewRow()
			if obj, ok := item.(*object); ok {
				flattenInto(row, "", obj)
			} else {
				flattenValue(row, "value", item)
			}
			t.Rows = append(t.Rows, row)
		}
		return t, true
	case *object:
		if len(doc.keys) == 0 {
			return nil, false
		}
		if t, ok := columnarTable(doc); ok {
			return t, true
		}
		row := NewRow()
		flattenInto(row, "", doc)
		return &Table{Rows: []*Row{row}}, true
	}
	return nil, false
}

// columnarTable reads a record whose fields are all sequences of one
// shared length as a column-oriented table ("table of arrays").
func columnarTable(doc *object) (*Table, bool) {
	length := -1
	for _, key := range doc.keys {
		arr, ok := doc.vals[key].([]any)
		if !ok {
			return nil, false
		}
		if length == -1 {
			length = len(arr)
		} else if len(arr) != length {
			return nil, false
		}
	}
	if length < 1 {
		return nil, false
	}
	t := &Table{}
	for i := 0; i < length; i++ {
		row := NewRow()
		for _, key := range doc.keys {
			arr := doc.vals[key].([]any)
			flattenValue(row, key, arr[i])
		}
		t.Rows = append(t.Rows, row)
	}
	return t, true
}

// flattenValue stores v under the given column path, expanding nested
// mappings to dotted paths and sequences to bracketed indices, so every
// row value ends up scalar or nil. Empty mappings and sequences
// contribute no columns.
func flattenValue(row *Row, path string, v any) {
	switch x := v.(type) {
	case *object:
		flattenInto(row, path, x)
	case []any:
		for i, item := range x {
			flattenValue(row, fmt.Sprintf("%s[%d]", path, i), item)
		}
	default:
		row.Set(path, x)
	}
}

func flattenInto(row *Row, prefix string, obj *object) {
	for _, key := range obj.keys {
		path := key
		if prefix != "" {
			path = prefix + "." + key
		}
		flattenValue(row, path, obj.vals[key])
	}
}
