package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"medimind/internal/database"
	"medimind/internal/middleware"
	"medimind/internal/models"
	"medimind/internal/repository"
)

// NotificationListResponse pairs the notification page with the unread
// count so clients can badge without a second request
type NotificationListResponse struct {
	Notifications []*models.Notification `json:"notifications"`
	UnreadCount   int64                  `json:"unreadCount"`
}

// HandleListNotifications returns recent notifications for the user.
// Pass ?unread=true to exclude already-read entries.
func HandleListNotifications(db *database.DB) http.HandlerFunc {
	notifications := repository.NewNotificationRepository(db)

	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.GetUserID(r.Context())
		if userID == 0 {
			respondError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		includeRead := r.URL.Query().Get("unread") != "true"

		limit := 50
		if v := r.URL.Query().Get("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 200 {
				limit = n
			}
		}
		offset := 0
		if v := r.URL.Query().Get("offset"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n >= 0 {
				offset = n
			}
		}

		list, err := notifications.ListByUser(userID, includeRead, limit, offset)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "Failed to retrieve notifications")
			return
		}
		if list == nil {
			list = []*models.Notification{}
		}

		unread, err := notifications.CountUnread(userID)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "Failed to retrieve notifications")
			return
		}

		respondJSON(w, http.StatusOK, NotificationListResponse{
			Notifications: list,
			UnreadCount:   unread,
		})
	}
}

// HandleMarkNotificationRead marks a single notification as read
func HandleMarkNotificationRead(db *database.DB) http.HandlerFunc {
	notifications := repository.NewNotificationRepository(db)

	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.GetUserID(r.Context())
		if userID == 0 {
			respondError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid notification ID")
			return
		}

		if err := notifications.MarkAsRead(id, userID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				respondError(w, http.StatusNotFound, "Notification not found")
				return
			}
			respondError(w, http.StatusInternalServerError, "Failed to update notification")
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

// HandleMarkAllNotificationsRead marks every unread notification as read
func HandleMarkAllNotificationsRead(db *database.DB) http.HandlerFunc {
	notifications := repository.NewNotificationRepository(db)

	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.GetUserID(r.Context())
		if userID == 0 {
			respondError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		if err := notifications.MarkAllAsRead(userID); err != nil {
			respondError(w, http.StatusInternalServerError, "Failed to update notifications")
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}
