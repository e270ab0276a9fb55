// Package httputil provides shared HTTP utilities for consistent JSON responses.
//
// Every writer in this package sets Content-Type: application/json, which is
// the only content type the stub server ever answers with.
package httputil

import (
	"bytes"
	"encoding/json"
	"net/http"
)

// ContentTypeJSON is the Content-Type attached to every response.
const ContentTypeJSON = "application/json"

// NotFoundBody is the exact body returned for missing fixtures and unknown routes.
const NotFoundBody = `{"error":"not found"}`

// WriteJSON encodes data as JSON and writes it with the given status code.
// HTML characters are not escaped so payloads round-trip unchanged.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	var buf bytes.Buffer
	if data != nil {
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		if err := enc.Encode(data); err != nil {
			WriteRawJSON(w, http.StatusInternalServerError,
				[]byte(`{"error":"internal_error","message":"failed to encode response"}`))
			return
		}
	}
	WriteRawJSON(w, status, bytes.TrimSuffix(buf.Bytes(), []byte("\n")))
}

// WriteRawJSON writes an already serialised JSON body with the given status code.
func WriteRawJSON(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", ContentTypeJSON)
	w.WriteHeader(status)
	if len(body) > 0 {
		_, _ = w.Write(body)
	}
}

// WriteError writes a JSON error response with the given status code.
// The error response includes an error code and a human-readable message.
func WriteError(w http.ResponseWriter, status int, errCode, message string) {
	WriteJSON(w, status, map[string]string{
		"error":   errCode,
		"message": message,
	})
}

// WriteOK writes a 200 OK response with data.
func WriteOK(w http.ResponseWriter, data any) {
	WriteJSON(w, http.StatusOK, data)
}

// WriteNotFound writes the fixed {"error":"not found"} body with a 404.
func WriteNotFound(w http.ResponseWriter) {
	WriteRawJSON(w, http.StatusNotFound, []byte(NotFoundBody))
}

// WriteMethodNotAllowed writes a 405 response and advertises the allowed methods.
func WriteMethodNotAllowed(w http.ResponseWriter, allowed []string, message string) {
	for _, m := range allowed {
		w.Header().Add("Allow", m)
	}
	WriteError(w, http.StatusMethodNotAllowed, "method_not_allowed", message)
}

// WriteInternalError writes a 500 Internal Server Error response.
func WriteInternalError(w http.ResponseWriter, errCode, message string) {
	WriteError(w, http.StatusInternalServerError, errCode, message)
}
