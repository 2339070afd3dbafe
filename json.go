package tabconv

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// object is a parsed JSON/YAML mapping that remembers key order, so
// columns come out in source order.
type object struct {
	keys []string
	vals map[string]any
}

func newObject() *object {
	return &object{vals: make(map[string]any)}
}

func (o *object) set(key string, v any) {
	if _, ok := o.vals[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.vals[key] = v
}

// MarshalJSON writes keys in insertion order.
func (o *object) MarshalJSON() ([]byte, error) {
	return marshalOrdered(o.keys, o.vals)
}

// decodeJSON maps structured text onto a single table. The fallback order
// is a contract: whole document first, then one value per line, then a raw
// textual rendering. Lines dropped by the per-line path are counted in a
// Warning rather than failing the decode.
func decodeJSON(data []byte) (*TableSet, []Warning, error) {
	var warnings []Warning
	v, err := parseJSONDocument(data)
	if err != nil {
		vals, dropped := parseJSONLines(data)
		if dropped > 0 {
			warnings = append(warnings, Warning(fmt.Sprintf(
				"dropped %d unparseable lines", dropped)))
		}
		if len(vals) == 0 {
			return newTableSet(textTable("value", permissiveSnippet(data, snippetLimit))), warnings, nil
		}
		v = vals
	}
	if t, ok := tableFromDocument(v); ok {
		return newTableSet(t), warnings, nil
	}
	return newTableSet(textTable("value", documentString(v))), warnings, nil
}

// parseJSONDocument parses data as exactly one JSON value, preserving
// object key order.
func parseJSONDocument(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	v, err := parseJSONValue(dec)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("trailing data after document")
	}
	return v, nil
}

func parseJSONValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	delim, ok := tok.(json.Delim)
	if !ok {
		// string, float64, bool, or nil
		return tok, nil
	}
	switch delim {
	case '{':
		obj := newObject()
		for dec.More() {
			keyTok, err := dec.Token()
			if err != nil {
				return nil, err
			}
			key, _ := keyTok.(string)
			v, err := parseJSONValue(dec)
			if err != nil {
				return nil, err
			}
			obj.set(key, v)
		}
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		return obj, nil
	case '[':
		var arr []any
		for dec.More() {
			v, err := parseJSONValue(dec)
			if err != nil {
				return nil, err
			}
			arr = append(arr, v)
		}
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		return arr, nil
	}
	return nil, fmt.Errorf("unexpected token %v", tok)
}

// encodeJSON serializes rows as arrays of records with 2-space indentation.
// A single table is unwrapped for compactness; several tables nest one
// array per table. Rows marshal their columns in insertion order.
func encodeJSON(ts *TableSet) ([]byte, []Warning, error) {
	var doc any
	if len(ts.Tables) == 1 {
		doc = tableRecords(ts.Tables[0])
	} else {
		all := make([][]*Row, 0, len(ts.Tables))
		for _, t := range ts.Tables {
			all = append(all, tableRecords(t))
		}
		doc = all
	}
	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrEncode, err)
	}
	return append(b, '\n'), nil, nil
}

// tableRecords returns a table's rows as a non-nil slice so empty tables
// marshal as [] rather than null.
func tableRecords(t *Table) []*Row {
	rows := make([]*Row, 0, len(t.Rows))
	return append(rows, t.Rows...)
}

// MarshalJSON writes columns in insertion order.
func (r *Row) MarshalJSON() ([]byte, error) {
	return marshalOrdered(r.cols, r.values)
}

func marshalOrdered(keys []string, vals map[string]any) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		v, err := json.Marshal(vals[key])
		if err != nil {
			return nil, err
		}
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// documentString renders a parsed document for the textual fallback table.
func documentString(v any) string {
	switch v.(type) {
	case *object, []any:
		if b, err := json.Marshal(v); err == nil {
			return string(b)
		}
	}
	return renderValue(v)
}
