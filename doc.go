// Package tabconv converts tabular data between heterogeneous file
// encodings through one canonical in-memory form.
//
// Every decoder maps raw bytes onto a [TableSet]: an ordered collection of
// named [Table] values, each an ordered sequence of [Row] values keyed by
// column name. Every encoder serializes a TableSet back out. The central
// entry points are [Decode], [Encode], and [Convert], which accept a
// [Format] constant:
//
//	ts, warns, err := tabconv.Decode(data, tabconv.JSON)
//	out, more, err := tabconv.Encode(ts, tabconv.CSV)
//
// [FormatFromFilename] maps an uploaded filename onto its source format;
// [ParseFormat] parses a destination format name from a flag or form
// value.
//
// # Fallback Chains
//
// Decoders degrade rather than fail. Each one tries progressively looser
// readings of its input and only returns [ErrParse] once every reading is
// exhausted. The order is part of the package's contract:
//
//   - JSON: whole document (sequence of records, table of arrays, or a
//     single record), then one value per line with corrupt lines dropped,
//     then a single-cell textual rendering.
//   - XML: regular repeated records under the root, then a walk
//     collecting every leaf-parent element, then a flat per-element dump.
//   - HTML: one table per <table> element, then a dump of visible text.
//   - PDF: extracted table grids, then per-page text, then a bounded raw
//     snippet. Extraction itself is delegated to an [Extractor]
//     registered with [RegisterExtractor]; without one the decoder still
//     honors its contract via the snippet path.
//
// # Warnings
//
// Conditions worth passing on to users without failing the conversion
// come back as [Warning] values: a multi-table set exported to a
// single-table format, lines dropped by the per-line JSON fallback, or a
// page-layout decode that ran without an extraction engine.
//
// # Errors
//
// The package exports sentinel errors for programmatic handling:
//
//   - [ErrUnsupportedFormat] — unknown source or destination tag
//   - [ErrParse] — no reading of the input yielded tabular structure
//   - [ErrEncode] — the TableSet cannot be serialized in the requested
//     format
//
// All three are per-conversion: a failed file never poisons the decoding
// of its siblings, and no partial output accompanies an error.
package tabconv
