// filepath: internal/api/handlers/responses.go
package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"backuphub/internal/logging"
	"backuphub/internal/shared"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

// ErrorResponse is a standard format for API error messages.
type ErrorResponse struct {
	Error string `json:"error"`
}

// MessageResponse is a standard format for simple API messages.
type MessageResponse struct {
	Message string `json:"message"`
}

// respondWithError sends a JSON error response.
func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, ErrorResponse{Error: message})
}

// respondWithJSON sends a JSON response.
func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		http.Error(w, `{"error":"Failed to marshal JSON response"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

// respondWithServiceError maps a service error onto its HTTP status.
// Toolset diagnostics are logged but not returned to the client.
func respondWithServiceError(w http.ResponseWriter, err error, action string) {
	switch {
	case errors.Is(err, shared.ErrInvalidInput):
		respondWithError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, shared.ErrNotFound):
		respondWithError(w, http.StatusNotFound, "Not found.")
	case errors.Is(err, shared.ErrConflict):
		respondWithError(w, http.StatusConflict, err.Error())
	case errors.Is(err, shared.ErrAlreadyRunning):
		respondWithError(w, http.StatusConflict, "A scan is already running, try again later.")
	case errors.Is(err, shared.ErrUnauthorized):
		respondWithError(w, http.StatusUnauthorized, "Unauthorized")
	case errors.Is(err, shared.ErrForbidden):
		respondWithError(w, http.StatusForbidden, "Forbidden")
	case errors.Is(err, shared.ErrExternalProcess):
		logging.Log.Errorf("Failed to %s: %v", action, err)
		respondWithError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to %s: toolset command failed.", action))
	default:
		logging.Log.Errorf("Failed to %s: %v", action, err)
		respondWithError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to %s.", action))
	}
}

// decodeJSONBody strictly decodes a single JSON object from the request body.
func decodeJSONBody(r *http.Request, v any) error {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err != nil {
		return shared.Invalid("failed to read request body")
	}
	if len(data) > maxBodyBytes {
		return shared.Invalid("request body too large")
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return shared.Invalid("invalid request payload: %v", err)
	}
	if dec.More() {
		return shared.Invalid("invalid request payload: trailing data")
	}
	return nil
}
