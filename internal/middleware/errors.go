package middleware

import (
	"net/http"

	"sos-expat/backend/internal/httpjson"
)

func writeError(w http.ResponseWriter, status int, msg string) {
	httpjson.Error(w, status, msg)
}
