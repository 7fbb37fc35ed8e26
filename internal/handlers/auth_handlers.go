package handlers

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"medimind/internal/auth"
	"medimind/internal/database"
	"medimind/internal/middleware"
	"medimind/internal/models"
	"medimind/internal/repository"
	"medimind/internal/services"
)

const (
	MaxFailedAttempts   = 5
	LockoutDurationMins = 15
)

// LoginRequest represents the login request payload
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// RegisterRequest represents the registration request payload
type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email,omitempty"`
}

// AuthResponse represents the authentication response
type AuthResponse struct {
	Success bool          `json:"success"`
	Message string        `json:"message,omitempty"`
	User    *UserResponse `json:"user,omitempty"`
	Token   string        `json:"token,omitempty"`
}

// UserResponse represents user data in responses
type UserResponse struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email,omitempty"`
	CreatedAt string `json:"created_at"`
}

// HandleRegister creates a new user account
func HandleRegister(db *database.DB) http.HandlerFunc {
	userRepo := repository.NewUserRepository(db)

	return func(w http.ResponseWriter, r *http.Request) {
		var req RegisterRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		req.Username = strings.TrimSpace(req.Username)
		if req.Username == "" || req.Password == "" {
			respondError(w, http.StatusBadRequest, "Username and password are required")
			return
		}

		if _, err := userRepo.GetByUsername(req.Username); err == nil {
			respondError(w, http.StatusConflict, "Username already taken")
			return
		} else if err != repository.ErrNotFound {
			respondError(w, http.StatusInternalServerError, "An error occurred")
			return
		}

		hash, err := auth.HashPassword(req.Password)
		if err != nil {
			if err == auth.ErrWeakPassword {
				respondError(w, http.StatusBadRequest, "Password must be at least 8 characters")
				return
			}
			respondError(w, http.StatusInternalServerError, "Failed to hash password")
			return
		}

		user := &models.User{
			Username:     req.Username,
			PasswordHash: hash,
			Email:        sql.NullString{String: req.Email, Valid: req.Email != ""},
			IsActive:     true,
		}
		if err := userRepo.Create(user); err != nil {
			respondError(w, http.StatusInternalServerError, "Failed to create user")
			return
		}

		respondJSON(w, http.StatusCreated, AuthResponse{
			Success: true,
			User: &UserResponse{
				ID:       user.ID,
				Username: user.Username,
				Email:    req.Email,
			},
		})
	}
}

// HandleLogin authenticates a user, starts their session (store +
// reminder scheduler) and issues a session token
func HandleLogin(db *database.DB, jwtManager *auth.JWTManager, sessions *services.SessionManager) http.HandlerFunc {
	userRepo := repository.NewUserRepository(db)
	notificationSvc := services.NewNotificationService(db)

	return func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		if req.Username == "" || req.Password == "" {
			respondError(w, http.StatusBadRequest, "Username and password are required")
			return
		}

		user, err := userRepo.GetByUsername(req.Username)
		if err == repository.ErrNotFound {
			// Same error as invalid password, don't reveal which
			respondError(w, http.StatusUnauthorized, "Invalid username or password")
			return
		}
		if err != nil {
			respondError(w, http.StatusInternalServerError, "An error occurred")
			return
		}

		if !user.IsActive {
			respondError(w, http.StatusForbidden, "Account is inactive")
			return
		}

		isLocked, err := userRepo.IsAccountLocked(user.ID)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "An error occurred")
			return
		}
		if isLocked {
			respondError(w, http.StatusForbidden, fmt.Sprintf("Account is locked due to too many failed login attempts. Please try again in %d minutes.", LockoutDurationMins))
			return
		}

		if err := auth.VerifyPassword(user.PasswordHash, req.Password); err != nil {
			if err := userRepo.IncrementFailedLogins(user.ID); err != nil {
				log.Printf("Error incrementing failed logins: %v", err)
			}

			user.FailedLoginAttempts++
			if user.FailedLoginAttempts >= MaxFailedAttempts {
				lockUntil := time.Now().Add(LockoutDurationMins * time.Minute)
				if err := userRepo.LockAccount(user.ID, lockUntil); err != nil {
					log.Printf("Error locking account: %v", err)
				}
				respondError(w, http.StatusForbidden, fmt.Sprintf("Account locked due to too many failed login attempts. Please try again in %d minutes.", LockoutDurationMins))
				return
			}

			respondError(w, http.StatusUnauthorized, "Invalid username or password")
			return
		}

		if err := userRepo.ResetFailedLogins(user.ID); err != nil {
			log.Printf("Error resetting failed logins: %v", err)
		}
		if err := userRepo.UpdateLastLogin(user.ID); err != nil {
			log.Printf("Error updating last login: %v", err)
		}

		if _, err := sessions.Start(user.ID); err != nil {
			respondError(w, http.StatusInternalServerError, "Failed to start session")
			return
		}

		// Sweep for stock that is already low at login
		if err := notificationSvc.CheckLowStock(user.ID); err != nil {
			log.Printf("Low stock sweep failed for user %d: %v", user.ID, err)
		}

		token, err := jwtManager.GenerateToken(user.ID, user.Username)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "Failed to generate authentication token")
			return
		}

		http.SetCookie(w, &http.Cookie{
			Name:     "auth_token",
			Value:    token,
			Path:     "/",
			HttpOnly: true,
			Secure:   r.TLS != nil,
			SameSite: http.SameSiteStrictMode,
			MaxAge:   int(jwtManager.SessionDuration().Seconds()),
		})

		respondJSON(w, http.StatusOK, AuthResponse{
			Success: true,
			Token:   token,
			User: &UserResponse{
				ID:        user.ID,
				Username:  user.Username,
				Email:     user.Email.String,
				CreatedAt: user.CreatedAt.Format(time.RFC3339),
			},
		})
	}
}

// HandleLogout tears down the user's session. The reminder scheduler is
// cancelled before the response is written; nothing fires afterwards.
func HandleLogout(sessions *services.SessionManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.GetUserID(r.Context())
		if userID != 0 {
			sessions.End(userID)
		}

		http.SetCookie(w, &http.Cookie{
			Name:     "auth_token",
			Value:    "",
			Path:     "/",
			HttpOnly: true,
			MaxAge:   -1,
		})

		respondJSON(w, http.StatusOK, AuthResponse{Success: true})
	}
}

// HandleGetCurrentUser returns the authenticated user
func HandleGetCurrentUser(db *database.DB) http.HandlerFunc {
	userRepo := repository.NewUserRepository(db)

	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.GetUserID(r.Context())
		if userID == 0 {
			respondError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		user, err := userRepo.GetByID(userID)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "Failed to retrieve user")
			return
		}

		respondJSON(w, http.StatusOK, UserResponse{
			ID:        user.ID,
			Username:  user.Username,
			Email:     user.Email.String,
			CreatedAt: user.CreatedAt.Format(time.RFC3339),
		})
	}
}
