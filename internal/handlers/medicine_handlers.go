package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"medimind/internal/database"
	"medimind/internal/middleware"
	"medimind/internal/models"
	"medimind/internal/repository"
	"medimind/internal/services"
)

// MedicineRequest represents the request body for creating or updating a
// medicine
type MedicineRequest struct {
	Name              string `json:"name"`
	Dosage            string `json:"dosage"`
	Time              string `json:"time"` // HH:mm format
	Frequency         string `json:"frequency"`
	Notes             string `json:"notes,omitempty"`
	Color             string `json:"color,omitempty"`
	CurrentStock      *int   `json:"currentStock,omitempty"`
	LowStockThreshold *int   `json:"lowStockThreshold,omitempty"`
}

// StockRequest represents the request body for setting stock directly
type StockRequest struct {
	CurrentStock int `json:"currentStock"`
}

// HandleListMedicines returns the session's medicine catalog
func HandleListMedicines(sessions *services.SessionManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := requireSession(w, r, sessions)
		if !ok {
			return
		}

		medicines := session.Store.ListMedicines()
		if medicines == nil {
			medicines = []models.Medicine{}
		}
		respondJSON(w, http.StatusOK, medicines)
	}
}

// HandleCreateMedicine adds a medicine to the catalog
func HandleCreateMedicine(sessions *services.SessionManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := requireSession(w, r, sessions)
		if !ok {
			return
		}

		var req MedicineRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		if req.Frequency == "" {
			req.Frequency = models.FrequencyDaily
		}

		medicine := models.Medicine{
			ID:                uuid.NewString(),
			UserID:            session.UserID,
			Name:              req.Name,
			Dosage:            req.Dosage,
			Time:              req.Time,
			Frequency:         req.Frequency,
			Notes:             req.Notes,
			Color:             req.Color,
			CurrentStock:      req.CurrentStock,
			LowStockThreshold: req.LowStockThreshold,
		}

		if err := session.Store.UpsertMedicine(medicine); err != nil {
			respondStoreError(w, err)
			return
		}

		respondJSON(w, http.StatusCreated, medicine)
	}
}

// HandleUpdateMedicine replaces an existing medicine's attributes
func HandleUpdateMedicine(sessions *services.SessionManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := requireSession(w, r, sessions)
		if !ok {
			return
		}

		id := chi.URLParam(r, "id")
		existing, found := session.Store.GetMedicine(id)
		if !found {
			respondError(w, http.StatusNotFound, "Medicine not found")
			return
		}

		var req MedicineRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		if req.Frequency == "" {
			req.Frequency = existing.Frequency
		}

		medicine := models.Medicine{
			ID:                existing.ID,
			UserID:            existing.UserID,
			Name:              req.Name,
			Dosage:            req.Dosage,
			Time:              req.Time,
			Frequency:         req.Frequency,
			Notes:             req.Notes,
			Color:             req.Color,
			CurrentStock:      req.CurrentStock,
			LowStockThreshold: req.LowStockThreshold,
			CreatedAt:         existing.CreatedAt,
		}

		if err := session.Store.UpsertMedicine(medicine); err != nil {
			respondStoreError(w, err)
			return
		}

		respondJSON(w, http.StatusOK, medicine)
	}
}

// HandleDeleteMedicine removes a medicine. Its historical intake logs
// are kept.
func HandleDeleteMedicine(sessions *services.SessionManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := requireSession(w, r, sessions)
		if !ok {
			return
		}

		id := chi.URLParam(r, "id")
		if err := session.Store.DeleteMedicine(id); err != nil {
			respondStoreError(w, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

// HandleUpdateStock sets a medicine's current stock directly (refill or
// manual correction)
func HandleUpdateStock(sessions *services.SessionManager, db *database.DB) http.HandlerFunc {
	stockChanges := repository.NewStockChangeRepository(db)

	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := requireSession(w, r, sessions)
		if !ok {
			return
		}

		id := chi.URLParam(r, "id")
		medicine, found := session.Store.GetMedicine(id)
		if !found {
			respondError(w, http.StatusNotFound, "Medicine not found")
			return
		}

		var req StockRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		before := 0
		if medicine.StockTracked() {
			before = *medicine.CurrentStock
		}

		if err := session.Store.UpdateMedicineStock(id, req.CurrentStock); err != nil {
			respondStoreError(w, err)
			return
		}

		_ = stockChanges.Create(&models.StockChange{
			UserID:       session.UserID,
			MedicineID:   id,
			ChangeAmount: req.CurrentStock - before,
			StockBefore:  before,
			StockAfter:   req.CurrentStock,
			Reason:       "manual_adjustment",
		})

		updated, _ := session.Store.GetMedicine(id)
		respondJSON(w, http.StatusOK, updated)
	}
}

// HandleGetStockHistory returns the stock change audit for a medicine
func HandleGetStockHistory(db *database.DB) http.HandlerFunc {
	stockChanges := repository.NewStockChangeRepository(db)

	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.GetUserID(r.Context())
		if userID == 0 {
			respondError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		id := chi.URLParam(r, "id")
		changes, err := stockChanges.ListByMedicine(userID, id, 100)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "Failed to retrieve stock history")
			return
		}

		type stockChangeResponse struct {
			ChangeAmount int    `json:"changeAmount"`
			StockBefore  int    `json:"stockBefore"`
			StockAfter   int    `json:"stockAfter"`
			Reason       string `json:"reason"`
			Timestamp    string `json:"timestamp"`
		}

		out := make([]stockChangeResponse, 0, len(changes))
		for _, c := range changes {
			out = append(out, stockChangeResponse{
				ChangeAmount: c.ChangeAmount,
				StockBefore:  c.StockBefore,
				StockAfter:   c.StockAfter,
				Reason:       c.Reason,
				Timestamp:    c.Timestamp.Format("2006-01-02 15:04"),
			})
		}
		respondJSON(w, http.StatusOK, out)
	}
}

// requireSession resolves the authenticated user's session, starting one
// if needed (e.g. after a server restart with a still-valid token)
func requireSession(w http.ResponseWriter, r *http.Request, sessions *services.SessionManager) (*services.Session, bool) {
	userID := middleware.GetUserID(r.Context())
	if userID == 0 {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return nil, false
	}

	session, err := sessions.Start(userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to load session")
		return nil, false
	}
	return session, true
}
