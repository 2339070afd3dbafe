package web

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/bjaus/tabconv"
	"github.com/bjaus/tabconv/internal/logging"
	"github.com/google/uuid"
)

// handleIndex serves a minimal upload form for browser use.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, indexPage)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// formatsResponse lists what the service can read and write.
type formatsResponse struct {
	Sources      []string `json:"sources"`
	Destinations []string `json:"destinations"`
}

func (s *Server) handleFormats(w http.ResponseWriter, r *http.Request) {
	resp := formatsResponse{}
	for _, f := range tabconv.DecodeFormats() {
		resp.Sources = append(resp.Sources, f.String())
	}
	for _, f := range tabconv.EncodeFormats() {
		resp.Destinations = append(resp.Destinations, f.String())
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleConvert accepts a multipart upload and streams back the
// converted file. The source format comes from the uploaded filename
// unless an explicit "from" field overrides it; "to" names the
// destination.
func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	data, filename, src, ok := s.readUpload(w, r)
	if !ok {
		return
	}

	dst, err := tabconv.ParseFormat(r.FormValue("to"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	convID := uuid.NewString()
	logger := logging.WithFields(r.Context(),
		"conversion_id", convID,
		"filename", filename,
		"from", src.String(),
		"to", dst.String(),
	)

	out, warns, err := tabconv.Convert(data, src, dst)
	if err != nil {
		logger.Error("conversion failed", "error", err)
		s.respondError(w, r, err)
		return
	}

	logger.Info("conversion complete", "bytes_in", len(data), "bytes_out", len(out), "warnings", len(warns))

	w.Header().Set("X-Conversion-Id", convID)
	for _, warn := range warns {
		w.Header().Add("X-Conversion-Warning", string(warn))
	}
	w.Header().Set("Content-Type", dst.ContentType())
	w.Header().Set("Content-Disposition", contentDisposition(filename, dst))
	w.WriteHeader(http.StatusOK)
	w.Write(out)
}

// handlePreview decodes an upload and renders a row-capped plain-text
// preview of each table.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	data, filename, src, ok := s.readUpload(w, r)
	if !ok {
		return
	}

	ts, warns, err := tabconv.Decode(data, src)
	if err != nil {
		logging.FromContext(r.Context()).Error("preview decode failed", "filename", filename, "error", err)
		s.respondError(w, r, err)
		return
	}

	truncated := truncate(ts, s.cfg.Convert.PreviewRows)

	out, encWarns, err := tabconv.Encode(truncated, tabconv.Preview)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	for _, warn := range append(warns, encWarns...) {
		w.Header().Add("X-Conversion-Warning", string(warn))
	}
	w.Header().Set("Content-Type", tabconv.Preview.ContentType())
	w.WriteHeader(http.StatusOK)
	w.Write(out)
}

// readUpload parses the multipart form, enforces the size limit, and
// resolves the source format. On failure it writes the error response
// and returns ok=false.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (data []byte, filename string, src tabconv.Format, ok bool) {
	maxSize := s.cfg.Convert.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize)

	if err := r.ParseMultipartForm(maxSize); err != nil {
		s.respondStatus(w, r, http.StatusBadRequest, "file too large or invalid form", err)
		return nil, "", "", false
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		s.respondStatus(w, r, http.StatusBadRequest, "no file provided", err)
		return nil, "", "", false
	}
	defer file.Close()

	data, err = io.ReadAll(file)
	if err != nil {
		s.respondStatus(w, r, http.StatusBadRequest, "failed to read file", err)
		return nil, "", "", false
	}

	if from := r.FormValue("from"); from != "" {
		src = tabconv.Format(strings.ToLower(strings.TrimSpace(from)))
	} else {
		src, err = tabconv.FormatFromFilename(header.Filename)
		if err != nil {
			s.respondError(w, r, err)
			return nil, "", "", false
		}
	}

	return data, header.Filename, src, true
}

// contentDisposition builds an attachment header reusing the upload's
// base name with the destination extension.
func contentDisposition(filename string, dst tabconv.Format) string {
	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	if base == "" || base == "." {
		base = "converted"
	}
	return fmt.Sprintf("attachment; filename=%q", base+dst.Ext())
}

// truncate returns a copy of ts with each table capped at limit rows.
// The original set is never mutated.
func truncate(ts *tabconv.TableSet, limit int) *tabconv.TableSet {
	out := &tabconv.TableSet{}
	for _, t := range ts.Tables {
		rows := t.Rows
		if len(rows) > limit {
			rows = rows[:limit]
		}
		out.Tables = append(out.Tables, &tabconv.Table{
			Name:    t.Name,
			Columns: t.Columns,
			Rows:    rows,
		})
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

const indexPage = `<!DOCTYPE html>
<html>
<head><title>tabconv</title></head>
<body>
<h1>tabconv</h1>
<p>Upload a tabular file and pick a destination format.</p>
<form action="/api/convert" method="post" enctype="multipart/form-data">
  <input type="file" name="file" required>
  <select name="to">
    <option value="csv">CSV</option>
    <option value="xlsx">XLSX</option>
    <option value="json">JSON</option>
    <option value="yaml">YAML</option>
    <option value="xml">XML</option>
    <option value="html">HTML</option>
    <option value="markdown">Markdown</option>
  </select>
  <button type="submit">Convert</button>
</form>
</body>
</html>
`
