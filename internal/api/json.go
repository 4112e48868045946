package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// writeJSON writes v with the given status. Card payloads are small, so an
// encode failure here means the client went away mid-response; it is logged
// and otherwise ignored.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode failed", slog.String("error", err.Error()))
	}
}

type errResponse struct {
	Error string `json:"error"`
}

func errorBody(msg string) errResponse {
	return errResponse{Error: msg}
}
