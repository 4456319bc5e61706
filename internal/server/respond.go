package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/avetrov/chorus/internal/shared"
	"github.com/charmbracelet/log"
)

// errorResponse is the JSON envelope for failed requests.
type errorResponse struct {
	Error string `json:"error"`
}

// writeJSON encodes data as the response body with the given status.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Headers are already flushed at this point; nothing left to do.
		return
	}
}

// writeError maps sentinel errors to HTTP status codes and writes the JSON
// error envelope. Unrecognized errors become opaque 500s.
func writeError(w http.ResponseWriter, logger *log.Logger, err error) {
	status := http.StatusInternalServerError
	message := "internal error"

	switch {
	case errors.Is(err, shared.ErrInvalidInput),
		errors.Is(err, shared.ErrInvalidParameter),
		errors.Is(err, shared.ErrInvalidRequestKind),
		errors.Is(err, shared.ErrMissingArgument),
		errors.Is(err, shared.ErrMalformedRecord):
		status = http.StatusBadRequest
		message = err.Error()
	case errors.Is(err, shared.ErrNotFound):
		status = http.StatusNotFound
		message = err.Error()
	case errors.Is(err, shared.ErrAlreadyExists):
		status = http.StatusConflict
		message = err.Error()
	case errors.Is(err, shared.ErrUpstream):
		status = http.StatusBadGateway
		message = "music service unavailable"
	}

	if status == http.StatusInternalServerError {
		logger.Error("request failed", "error", err)
	}

	writeJSON(w, status, errorResponse{Error: message})
}

// decodeJSON reads the request body into dst.
func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: invalid JSON body", shared.ErrInvalidInput)
	}
	return nil
}
