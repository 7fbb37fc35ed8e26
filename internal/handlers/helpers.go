package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"medimind/internal/services"
	"medimind/internal/store"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}

func respondJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

func respondError(w http.ResponseWriter, statusCode int, message string) {
	respondJSON(w, statusCode, ErrorResponse{Error: message})
}

// respondStoreError maps core errors onto HTTP statuses. Persistence
// failures are surfaced explicitly so the client knows the optimistic
// change was reverted.
func respondStoreError(w http.ResponseWriter, err error) {
	var validation *store.ValidationError
	switch {
	case errors.As(err, &validation):
		respondError(w, http.StatusBadRequest, validation.Error())
	case errors.Is(err, store.ErrNotFound):
		respondError(w, http.StatusNotFound, "Medicine not found")
	case errors.Is(err, store.ErrNotPermitted):
		respondError(w, http.StatusUnauthorized, "No active identity")
	case errors.Is(err, services.ErrAlreadyLogged):
		respondError(w, http.StatusConflict, "Intake already logged for this medicine today")
	case errors.Is(err, store.ErrPersistence):
		respondError(w, http.StatusBadGateway, "Failed to save changes; your update was reverted")
	default:
		respondError(w, http.StatusInternalServerError, "An error occurred")
	}
}
