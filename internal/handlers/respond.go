package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/mod-troubleshooter/loadorder/internal/loaderr"
)

// Response is the envelope every handler writes: exactly one of Data
// or Error is populated.
type Response struct {
	Data  any    `json:"data,omitempty"`
	Error string `json:"error,omitempty"`
}

// WriteJSON writes data under the envelope's Data field with status.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(Response{Data: data})
}

// WriteError writes message under the envelope's Error field with status.
func WriteError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(Response{Error: message})
}

// WriteSuccess writes a bare acknowledgement message with 200 OK.
func WriteSuccess(w http.ResponseWriter, message string) {
	WriteJSON(w, http.StatusOK, map[string]string{"message": message})
}

// WriteLoadOrderError inspects err's loaderr.Code and picks the HTTP
// status that best matches it, falling back to 500 for anything this
// package doesn't produce.
func WriteLoadOrderError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch loaderr.ToCode(err) {
	case loaderr.InvalidArgs:
		status = http.StatusBadRequest
	case loaderr.FileNotFound:
		status = http.StatusNotFound
	case loaderr.PermissionDenied:
		status = http.StatusForbidden
	case loaderr.FileNotUTF8, loaderr.TextDecodeFailed, loaderr.TextEncodeFailed, loaderr.FileParseFailed:
		status = http.StatusUnprocessableEntity
	}
	WriteError(w, status, err.Error())
}
