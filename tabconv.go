package tabconv

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Sentinel errors for programmatic error handling. All errors returned by
// this package wrap one of these.
var (
	ErrUnsupportedFormat = errors.New("unsupported format")
	ErrParse             = errors.New("parse failed")
	ErrEncode            = errors.New("encode failed")
)

// Format identifies a source or destination encoding.
type Format string

const (
	CSV      Format = "csv"
	TSV      Format = "tsv"
	XLSX     Format = "xlsx"
	XLS      Format = "xls"
	JSON     Format = "json"
	YAML     Format = "yaml"
	XML      Format = "xml"
	HTML     Format = "html"
	Markdown Format = "markdown"
	PDF      Format = "pdf"

	// Preview is the aligned plain-text rendering, named "table" on the
	// wire after its output shape.
	Preview Format = "table"
)

// Warning is a non-fatal condition surfaced by a decode or encode call,
// such as data that the destination format cannot fully represent.
type Warning string

type decodeFunc func(data []byte) (*TableSet, []Warning, error)

type encodeFunc func(ts *TableSet) ([]byte, []Warning, error)

type encoderEntry struct {
	fn          encodeFunc
	contentType string
	ext         string
}

// Format registries. Adding a format means registering an implementation
// here, not editing dispatch logic.
var decoders = map[Format]decodeFunc{
	CSV:  decodeCSV,
	TSV:  decodeTSV,
	XLSX: decodeXLSX,
	XLS:  decodeXLSX,
	JSON: decodeJSON,
	YAML: decodeYAML,
	XML:  decodeXML,
	HTML: decodeHTML,
	PDF:  decodePDF,
}

var encoders = map[Format]encoderEntry{
	CSV:      {encodeCSV, "text/csv; charset=utf-8", ".csv"},
	TSV:      {encodeTSV, "text/tab-separated-values; charset=utf-8", ".tsv"},
	XLSX:     {encodeXLSX, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", ".xlsx"},
	JSON:     {encodeJSON, "application/json", ".json"},
	YAML:     {encodeYAML, "application/yaml", ".yaml"},
	XML:      {encodeXML, "application/xml", ".xml"},
	HTML:     {encodeHTML, "text/html; charset=utf-8", ".html"},
	Markdown: {encodeMarkdown, "text/markdown; charset=utf-8", ".md"},
	Preview:  {encodeTable, "text/plain; charset=utf-8", ".txt"},
}

var (
	decodeFormats = []Format{CSV, TSV, XLSX, XLS, JSON, YAML, XML, HTML, PDF}
	encodeFormats = []Format{CSV, TSV, XLSX, JSON, YAML, XML, HTML, Markdown, Preview}
)

// String returns the format name.
func (f Format) String() string { return string(f) }

// ContentType returns the MIME type used when serving f as output, or the
// empty string for formats that are decode-only.
func (f Format) ContentType() string {
	return encoders[f].contentType
}

// Ext returns the conventional file extension for f, with leading dot, or
// the empty string for formats that are decode-only.
func (f Format) Ext() string {
	return encoders[f].ext
}

// DecodeFormats returns the source formats this package can decode.
func DecodeFormats() []Format {
	out := make([]Format, len(decodeFormats))
	copy(out, decodeFormats)
	return out
}

// EncodeFormats returns the destination formats this package can encode.
func EncodeFormats() []Format {
	out := make([]Format, len(encodeFormats))
	copy(out, encodeFormats)
	return out
}

// ParseFormat parses a destination format name.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := encoders[f]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
	}
	return f, nil
}

// FormatFromFilename maps a filename's extension, case-insensitively, to
// its source format.
func FormatFromFilename(name string) (Format, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv":
		return CSV, nil
	case ".tsv":
		return TSV, nil
	case ".xlsx":
		return XLSX, nil
	case ".xls":
		return XLS, nil
	case ".json", ".jsonl":
		return JSON, nil
	case ".yaml", ".yml":
		return YAML, nil
	case ".xml":
		return XML, nil
	case ".html", ".htm":
		return HTML, nil
	case ".pdf":
		return PDF, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, name)
}

// Decode parses data tagged with source format f into a TableSet. The
// result always holds at least one table; conditions worth telling the
// user about, like dropped lines, come back as Warnings.
func Decode(data []byte, f Format) (*TableSet, []Warning, error) {
	dec, ok := decoders[f]
	if !ok {
		return nil, nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, f)
	}
	return dec(data)
}

// Encode serializes ts in destination format f. Use [Format.ContentType]
// for the matching MIME type. On error no partial output is returned.
func Encode(ts *TableSet, f Format) ([]byte, []Warning, error) {
	enc, ok := encoders[f]
	if !ok {
		return nil, nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, f)
	}
	if ts == nil || len(ts.Tables) == 0 {
		return nil, nil, fmt.Errorf("%w: empty table set", ErrEncode)
	}
	return enc.fn(ts)
}

// Convert decodes data tagged as src and re-encodes it as dst, combining
// the warnings from both halves.
func Convert(data []byte, src, dst Format) ([]byte, []Warning, error) {
	ts, decWarns, err := Decode(data, src)
	if err != nil {
		return nil, decWarns, err
	}
	out, encWarns, err := Encode(ts, dst)
	return out, append(decWarns, encWarns...), err
}
