package server

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/velafocus/vela/internal/apperr"
	"github.com/velafocus/vela/protocol"
)

// maxMessageBytes bounds the size of a request body.
const maxMessageBytes = 64 << 10

// writeJSON sends a JSON response with the given status code and data.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("write JSON response", "error", err)
	}
}

// writeError sends a failed protocol response.
func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, protocol.Response{Error: err.Error()})
}

type errorHandler func(w http.ResponseWriter, r *http.Request) error

func (h errorHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	err := h(w, r)
	if err != nil {
		slog.Warn("request failed", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusBadRequest, err)
	}
}

var errInvalidRange = &apperr.Error{
	Message: "the end of the reporting period cannot be before its start",
}
