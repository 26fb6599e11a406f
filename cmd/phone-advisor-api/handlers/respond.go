// Package handlers provides HTTP handlers for the phone advisor API.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/spherical-ai/spherical/libs/phone-advisor/internal/observability"
)

func writeJSON(w http.ResponseWriter, logger *observability.Logger, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error().Err(err).Msg("Failed to encode response")
	}
}

func writeError(w http.ResponseWriter, logger *observability.Logger, status int, message, detail string) {
	resp := map[string]string{
		"error":   message,
		"message": message,
	}
	if detail != "" {
		resp["detail"] = detail
	}
	writeJSON(w, logger, status, resp)
}
