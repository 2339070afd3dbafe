package tabconv

// decodeTSV parses tab-delimited text with the first row as header.
func decodeTSV(data []byte) (*TableSet, []Warning, error) {
	return decodeDelimited(data, '\t')
}

// encodeTSV writes the first table as tab-delimited text.
func encodeTSV(ts *TableSet) ([]byte, []Warning, error) {
	return encodeDelimited(ts, '\t', TSV)
}
