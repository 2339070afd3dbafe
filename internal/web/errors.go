package web

import (
	"errors"
	"net/http"

	"github.com/bjaus/tabconv"
	"github.com/bjaus/tabconv/internal/logging"
)

// ErrorResponse is the JSON body returned for failed API requests.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// respondError maps a conversion error onto an HTTP status and writes a
// JSON error body. The technical error is logged with the request ID;
// the client sees the sanitized message.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := statusFor(err)
	s.respondStatusCode(w, r, status, code, err.Error(), err)
}

// respondStatus writes an error response with an explicit status and a
// fixed client-facing message.
func (s *Server) respondStatus(w http.ResponseWriter, r *http.Request, status int, message string, err error) {
	s.respondStatusCode(w, r, status, codeFor(status), message, err)
}

func (s *Server) respondStatusCode(w http.ResponseWriter, r *http.Request, status int, code, message string, err error) {
	logging.FromContext(r.Context()).Error("request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err.Error(),
	)

	writeJSON(w, status, ErrorResponse{Error: message, Code: code})
}

// statusFor maps the conversion package's sentinel errors onto HTTP
// statuses: an unknown format is a bad request, an unparseable file is
// an unprocessable entity, anything else is a server error.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, tabconv.ErrUnsupportedFormat):
		return http.StatusBadRequest, "unsupported_format"
	case errors.Is(err, tabconv.ErrParse):
		return http.StatusUnprocessableEntity, "parse_failed"
	case errors.Is(err, tabconv.ErrEncode):
		return http.StatusInternalServerError, "encode_failed"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

func codeFor(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusRequestEntityTooLarge:
		return "file_too_large"
	default:
		return "internal_error"
	}
}
