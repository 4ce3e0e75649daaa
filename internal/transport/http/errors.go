package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/hoyechan/k-cse-diy-server/internal/domain"
)

const (
	codeInvalidRequestBody = "invalid_request_body"
	codeInvalidDate        = "invalid_date"
	codeInvalidTime        = "invalid_time"
	codeInvalidQuery       = "invalid_query"
	codeInternalError      = "internal_error"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	payload, err := json.Marshal(errorResponse{
		Error: msg,
		Code:  code,
	})
	if err != nil {
		_, _ = w.Write([]byte(`{"error":"internal error","code":"internal_error"}`))
		return
	}
	_, _ = w.Write(payload)
}

// respondError maps a business error onto the wire. The error kind becomes
// the machine-readable code, so handlers never enumerate individual kinds.
func respondError(w http.ResponseWriter, err error) {
	var derr *domain.Error
	if !errors.As(err, &derr) {
		writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
		return
	}

	status := http.StatusBadRequest
	switch derr.Class() {
	case domain.ClassUnauthorized:
		status = http.StatusUnauthorized
	case domain.ClassNotFound:
		status = http.StatusNotFound
	case domain.ClassConflict:
		status = http.StatusConflict
	}
	writeError(w, status, string(derr.Kind), derr.Message)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
