package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"medimind/internal/models"
	"medimind/internal/services"
)

// IntakeRequest represents the request body for recording an intake
// decision
type IntakeRequest struct {
	Status string `json:"status"` // taken, skipped, or missed
}

// HandleRecordIntake records a taken/skipped/missed decision for a
// medicine, adjusting stock atomically for taken doses
func HandleRecordIntake(sessions *services.SessionManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := requireSession(w, r, sessions)
		if !ok {
			return
		}

		id := chi.URLParam(r, "id")

		var req IntakeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		status := models.LogStatus(req.Status)
		if !status.Valid() {
			respondError(w, http.StatusBadRequest, "Status must be taken, skipped, or missed")
			return
		}

		logEntry, err := session.Intake.RecordIntake(id, status)
		if err != nil {
			respondStoreError(w, err)
			return
		}

		respondJSON(w, http.StatusCreated, logEntry)
	}
}

// HandleListLogs returns the intake history, optionally filtered to a
// single date (?date=YYYY-MM-DD)
func HandleListLogs(sessions *services.SessionManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := requireSession(w, r, sessions)
		if !ok {
			return
		}

		logs := session.Store.ListLogs()

		if date := r.URL.Query().Get("date"); date != "" {
			filtered := make([]models.IntakeLog, 0, len(logs))
			for _, l := range logs {
				if l.DateStr == date {
					filtered = append(filtered, l)
				}
			}
			logs = filtered
		}

		if logs == nil {
			logs = []models.IntakeLog{}
		}
		respondJSON(w, http.StatusOK, logs)
	}
}
