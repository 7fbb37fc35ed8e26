package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"medimind/internal/database"
	"medimind/internal/middleware"
	"medimind/internal/models"
	"medimind/internal/repository"
)

// HandleGetProfile returns the user's medical profile. A user who has
// never saved one gets an empty profile, not a 404.
func HandleGetProfile(db *database.DB) http.HandlerFunc {
	profiles := repository.NewProfileRepository(db)

	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.GetUserID(r.Context())
		if userID == 0 {
			respondError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		profile, err := profiles.Get(userID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				respondJSON(w, http.StatusOK, &models.MedicalProfile{UserID: userID})
				return
			}
			respondError(w, http.StatusInternalServerError, "Failed to retrieve profile")
			return
		}

		respondJSON(w, http.StatusOK, profile)
	}
}

// HandleUpdateProfile creates or replaces the user's medical profile
func HandleUpdateProfile(db *database.DB) http.HandlerFunc {
	profiles := repository.NewProfileRepository(db)

	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.GetUserID(r.Context())
		if userID == 0 {
			respondError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		var profile models.MedicalProfile
		if err := json.NewDecoder(r.Body).Decode(&profile); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		if err := profiles.Upsert(userID, &profile); err != nil {
			respondError(w, http.StatusInternalServerError, "Failed to save profile")
			return
		}

		profile.UserID = userID
		respondJSON(w, http.StatusOK, &profile)
	}
}
