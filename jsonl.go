package tabconv

import "strings"

// parseJSONLines reads one JSON value per line, skipping lines that fail
// to parse. Blank lines are ignored; corrupt lines are counted so the
// caller can surface the loss as a Warning.
func parseJSONLines(data []byte) (vals []any, dropped int) {
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		v, err := parseJSONDocument([]byte(line))
		if err != nil {
			dropped++
			continue
		}
		vals = append(vals, v)
	}
	return vals, dropped
}
