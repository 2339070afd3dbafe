package web

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bjaus/tabconv"
	"github.com/bjaus/tabconv/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	cfg, err := config.Load()
	require.NoError(t, err)
	cfg.Convert.PreviewRows = 2

	return NewServer(cfg)
}

func multipartUpload(t *testing.T, filename, content string, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)

	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())

	return &buf, mw.FormDataContentType()
}

func TestHandleFormats(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/formats", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp formatsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.Sources, "csv")
	assert.Contains(t, resp.Sources, "pdf")
	assert.Contains(t, resp.Destinations, "json")
	assert.NotContains(t, resp.Destinations, "pdf")
}

func TestHandleConvert_CSVToJSON(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)

	body, contentType := multipartUpload(t, "people.csv", "name,age\nalice,30\nbob,25\n", map[string]string{"to": "json"})
	req := httptest.NewRequest(http.MethodPost, "/api/convert", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="people.json"`, rec.Header().Get("Content-Disposition"))
	assert.NotEmpty(t, rec.Header().Get("X-Conversion-Id"))

	var records []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &records))
	require.Len(t, records, 2)
	assert.Equal(t, "alice", records[0]["name"])
}

func TestHandleConvert_UnknownDestination(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)

	body, contentType := multipartUpload(t, "people.csv", "a,b\n1,2\n", map[string]string{"to": "parquet"})
	req := httptest.NewRequest(http.MethodPost, "/api/convert", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "unsupported_format", resp.Code)
}

func TestHandleConvert_UnknownSourceExtension(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)

	body, contentType := multipartUpload(t, "data.bin", "whatever", map[string]string{"to": "csv"})
	req := httptest.NewRequest(http.MethodPost, "/api/convert", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleConvert_UnparseableInput(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)

	body, contentType := multipartUpload(t, "book.xlsx", "this is not a workbook", map[string]string{"to": "csv"})
	req := httptest.NewRequest(http.MethodPost, "/api/convert", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "parse_failed", resp.Code)
}

func TestHandleConvert_FromOverride(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)

	// Extension says .txt but the form field forces CSV decoding.
	body, contentType := multipartUpload(t, "export.txt", "x,y\n1,2\n", map[string]string{"to": "json", "from": "csv"})
	req := httptest.NewRequest(http.MethodPost, "/api/convert", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
}

func TestHandleConvert_MultiTableCSVWarning(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)

	rowA := tabconv.NewRow()
	rowA.Set("x", "1")
	rowB := tabconv.NewRow()
	rowB.Set("x", "2")
	ts := &tabconv.TableSet{Tables: []*tabconv.Table{
		{Name: "A", Rows: []*tabconv.Row{rowA}},
		{Name: "B", Rows: []*tabconv.Row{rowB}},
	}}
	book, _, err := tabconv.Encode(ts, tabconv.XLSX)
	require.NoError(t, err)

	body, contentType := multipartUpload(t, "book.xlsx", string(book), map[string]string{"to": "csv"})
	req := httptest.NewRequest(http.MethodPost, "/api/convert", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Values("X-Conversion-Warning"))
}

func TestHandlePreview_TruncatesRows(t *testing.T) {
	t.Parallel()

	s := newTestServer(t) // PreviewRows = 2

	body, contentType := multipartUpload(t, "people.csv", "name\none\ntwo\nthree\nfour\n", nil)
	req := httptest.NewRequest(http.MethodPost, "/api/preview", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	out := rec.Body.String()
	assert.Contains(t, out, "one")
	assert.Contains(t, out, "two")
	assert.NotContains(t, out, "three")
}

func TestHandleConvert_MissingFile(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("to", "csv"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/convert", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleIndex(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "multipart/form-data"))
}
