package tabconv

import (
	"bytes"
	"fmt"
	"math"
	"strconv"

	"gopkg.in/yaml.v3"
)

// decodeYAML runs the structured-text shaping over a YAML document.
// Mapping order is preserved by working on yaml.Node rather than maps.
// Documents with no tabular reading degrade to the textual fallback.
func decodeYAML(data []byte) (*TableSet, []Warning, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return newTableSet(textTable("value", permissiveSnippet(data, snippetLimit))), nil, nil
	}
	v := yamlValue(&node)
	if t, ok := tableFromDocument(v); ok {
		return newTableSet(t), nil, nil
	}
	return newTableSet(textTable("value", documentString(v))), nil, nil
}

// yamlValue converts a parsed node into the shaping pipeline's document
// form: *object for mappings, []any for sequences, scalars otherwise.
func yamlValue(n *yaml.Node) any {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil
		}
		return yamlValue(n.Content[0])
	case yaml.SequenceNode:
		arr := make([]any, 0, len(n.Content))
		for _, c := range n.Content {
			arr = append(arr, yamlValue(c))
		}
		return arr
	case yaml.MappingNode:
		obj := newObject()
		for i := 0; i+1 < len(n.Content); i += 2 {
			obj.set(n.Content[i].Value, yamlValue(n.Content[i+1]))
		}
		return obj
	case yaml.AliasNode:
		if n.Alias != nil {
			return yamlValue(n.Alias)
		}
		return nil
	case yaml.ScalarNode:
		return yamlScalar(n)
	}
	return nil
}

// yamlScalar resolves a scalar node to string, float64, bool, or nil.
// Numbers are widened to float64 to match the JSON decoder.
func yamlScalar(n *yaml.Node) any {
	switch n.Tag {
	case "!!null":
		return nil
	case "!!bool":
		if b, err := strconv.ParseBool(n.Value); err == nil {
			return b
		}
	case "!!int", "!!float":
		if f, err := strconv.ParseFloat(n.Value, 64); err == nil {
			return f
		}
	}
	return n.Value
}

// encodeYAML serializes rows as sequences of mappings with the same
// single-table unwrapping as the JSON encoder.
func encodeYAML(ts *TableSet) ([]byte, []Warning, error) {
	var root *yaml.Node
	if len(ts.Tables) == 1 {
		root = tableYAMLNode(ts.Tables[0])
	} else {
		root = &yaml.Node{Kind: yaml.SequenceNode}
		for _, t := range ts.Tables {
			root.Content = append(root.Content, tableYAMLNode(t))
		}
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(root); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrEncode, err)
	}
	if err := enc.Close(); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrEncode, err)
	}
	return buf.Bytes(), nil, nil
}

func tableYAMLNode(t *Table) *yaml.Node {
	seq := &yaml.Node{Kind: yaml.SequenceNode}
	if len(t.Rows) == 0 {
		seq.Style = yaml.FlowStyle
	}
	for _, row := range t.Rows {
		m := &yaml.Node{Kind: yaml.MappingNode}
		for _, col := range row.Columns() {
			v, _ := row.Get(col)
			key := &yaml.Node{}
			key.SetString(col)
			m.Content = append(m.Content, key, yamlValueNode(v))
		}
		seq.Content = append(seq.Content, m)
	}
	return seq
}

func yamlValueNode(v any) *yaml.Node {
	n := &yaml.Node{Kind: yaml.ScalarNode}
	switch x := v.(type) {
	case nil:
		n.Tag = "!!null"
		n.Value = "null"
	case bool:
		n.Tag = "!!bool"
		n.Value = strconv.FormatBool(x)
	case float64:
		n.Value = strconv.FormatFloat(x, 'f', -1, 64)
		if x == math.Trunc(x) && math.Abs(x) < 1e15 {
			n.Tag = "!!int"
		} else {
			n.Tag = "!!float"
		}
	case string:
		n.SetString(x)
	default:
		n.SetString(fmt.Sprintf("%v", x))
	}
	return n
}
