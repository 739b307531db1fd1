package http

import (
	"net/http"

	"sos-expat/backend/internal/httpjson"
)

func WriteJSON(w http.ResponseWriter, status int, v any) {
	httpjson.Write(w, status, v)
}

func Fail(w http.ResponseWriter, status int, msg string) {
	httpjson.Error(w, status, msg)
}
