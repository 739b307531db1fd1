package httpjson

import (
	"encoding/json"
	"net/http"
)

const maxBodyBytes = 1 << 20

// Error codes shared with the front-end (Firebase HttpsError names).
const (
	CodeUnauthenticated    = "unauthenticated"
	CodeInvalidArgument    = "invalid-argument"
	CodePermissionDenied   = "permission-denied"
	CodeNotFound           = "not-found"
	CodeFailedPrecondition = "failed-precondition"
	CodeInternal           = "internal"
)

// APIError is the body of every error response.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func Write(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Read decodes a JSON body of at most 1 MiB, rejecting unknown fields.
func Read(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// Error writes an APIError whose code follows from status.
func Error(w http.ResponseWriter, status int, msg string) {
	Write(w, status, APIError{Code: CodeFor(status), Message: msg})
}

// CodeFor maps an HTTP status to its error code.
func CodeFor(status int) string {
	switch status {
	case http.StatusBadRequest, http.StatusRequestEntityTooLarge:
		return CodeInvalidArgument
	case http.StatusUnauthorized:
		return CodeUnauthenticated
	case http.StatusForbidden:
		return CodePermissionDenied
	case http.StatusNotFound:
		return CodeNotFound
	case http.StatusConflict, http.StatusPreconditionFailed:
		return CodeFailedPrecondition
	}
	return CodeInternal
}
