package tabconv_test

import (
	"strings"
	"testing"

	"github.com/bjaus/tabconv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeXMLAttributeRecords(t *testing.T) {
	t.Parallel()
	src := `<rows><row id="1" name="alice"/><row id="2" name="bob"/></rows>`
	ts, warns, err := tabconv.Decode([]byte(src), tabconv.XML)
	require.NoError(t, err)
	assert.Empty(t, warns)

	tbl := ts.Tables[0]
	require.Len(t, tbl.Rows, 2)
	// Attribute order is source order.
	assert.Equal(t, []string{"id", "name"}, tbl.Rows[0].Columns())

	v, _ := tbl.Rows[1].Get("name")
	assert.Equal(t, "bob", v)
}

func TestDecodeXMLAttributeRecordsWithChildren(t *testing.T) {
	t.Parallel()
	src := `<rows><row id="1"><note>a</note></row><row id="2"><note>b</note></row></rows>`
	ts, _, err := tabconv.Decode([]byte(src), tabconv.XML)
	require.NoError(t, err)

	tbl := ts.Tables[0]
	require.Len(t, tbl.Rows, 2)
	v, _ := tbl.Rows[0].Get("id")
	assert.Equal(t, "1", v)
	v, _ = tbl.Rows[0].Get("note")
	assert.Equal(t, "a", v)
}

func TestDecodeXMLLeafParentsSortedColumns(t *testing.T) {
	t.Parallel()
	src := `<people><person><zed>1</zed><alpha>x</alpha></person><person><alpha>y</alpha><zed>2</zed></person></people>`
	ts, _, err := tabconv.Decode([]byte(src), tabconv.XML)
	require.NoError(t, err)

	tbl := ts.Tables[0]
	require.Len(t, tbl.Rows, 2)
	// Column union is sorted, regardless of document order.
	assert.Equal(t, []string{"alpha", "zed"}, tbl.Header())

	v, _ := tbl.Rows[0].Get("zed")
	assert.Equal(t, "1", v)
}

func TestDecodeXMLDeepLeafParents(t *testing.T) {
	t.Parallel()
	src := `<root><wrap><item><a>1</a></item></wrap><wrap><item><a>2</a></item></wrap></root>`
	ts, _, err := tabconv.Decode([]byte(src), tabconv.XML)
	require.NoError(t, err)

	tbl := ts.Tables[0]
	require.Len(t, tbl.Rows, 2)
	assert.Equal(t, []string{"a"}, tbl.Header())
}

func TestDecodeXMLElementDumpFallback(t *testing.T) {
	t.Parallel()
	ts, _, err := tabconv.Decode([]byte(`<note lang="en">hello</note>`), tabconv.XML)
	require.NoError(t, err)

	tbl := ts.Tables[0]
	require.Len(t, tbl.Rows, 1)
	row := tbl.Rows[0]
	v, _ := row.Get("tag")
	assert.Equal(t, "note", v)
	v, _ = row.Get("text")
	assert.Equal(t, "hello", v)
	v, _ = row.Get("lang")
	assert.Equal(t, "en", v)
}

func TestDecodeXMLNoElements(t *testing.T) {
	t.Parallel()
	_, _, err := tabconv.Decode([]byte("just text"), tabconv.XML)
	require.ErrorIs(t, err, tabconv.ErrParse)
}

func TestEncodeXMLShape(t *testing.T) {
	t.Parallel()
	row := tabconv.NewRow()
	row.Set("name", "alice")
	row.Set("", "anon")
	row.Set("odd col!", nil)
	ts := &tabconv.TableSet{Tables: []*tabconv.Table{{Rows: []*tabconv.Row{row}}}}

	out, warns, err := tabconv.Encode(ts, tabconv.XML)
	require.NoError(t, err)
	assert.Empty(t, warns)

	text := string(out)
	assert.True(t, strings.HasPrefix(text, "<?xml"))
	assert.Contains(t, text, `<dataset><sheet name="Sheet1"><row>`)
	assert.Contains(t, text, "<name>alice</name>")
	// Anonymous column uses the placeholder element name.
	assert.Contains(t, text, "<field>anon</field>")
	// Names get sanitized; nil renders as empty text.
	assert.Contains(t, text, "<odd_col_></odd_col_>")
	assert.True(t, strings.HasSuffix(text, "</sheet></dataset>"))
}

func TestEncodeXMLMultipleSheets(t *testing.T) {
	t.Parallel()
	r1 := tabconv.NewRow()
	r1.Set("x", "1")
	r2 := tabconv.NewRow()
	r2.Set("y", "2")
	ts := &tabconv.TableSet{Tables: []*tabconv.Table{
		{Name: "A", Rows: []*tabconv.Row{r1}},
		{Name: "B", Rows: []*tabconv.Row{r2}},
	}}

	out, _, err := tabconv.Encode(ts, tabconv.XML)
	require.NoError(t, err)
	assert.Contains(t, string(out), `<sheet name="Sheet1">`)
	assert.Contains(t, string(out), `<sheet name="Sheet2">`)
}

func TestEncodeXMLEscapesText(t *testing.T) {
	t.Parallel()
	row := tabconv.NewRow()
	row.Set("a", "<b> & c")
	ts := &tabconv.TableSet{Tables: []*tabconv.Table{{Rows: []*tabconv.Row{row}}}}

	out, _, err := tabconv.Encode(ts, tabconv.XML)
	require.NoError(t, err)
	assert.Contains(t, string(out), "&lt;b&gt; &amp; c")
}
