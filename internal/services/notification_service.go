package services

import (
	"fmt"
	"log"
	"strings"
	"time"

	"medimind/internal/database"
	"medimind/internal/models"
	"medimind/internal/repository"
)

// NotificationService sweeps a user's medicine catalog for low stock and
// persists the resulting notifications. The intake path emits low-stock
// alerts inline; this sweep catches stock that was edited directly or
// was already low at login.
type NotificationService struct {
	medicineRepo     *repository.MedicineRepository
	notificationRepo *repository.NotificationRepository
}

func NewNotificationService(db *database.DB) *NotificationService {
	return &NotificationService{
		medicineRepo:     repository.NewMedicineRepository(db),
		notificationRepo: repository.NewNotificationRepository(db),
	}
}

// CheckLowStock creates a low-stock notification for every tracked
// medicine at or below its threshold. Duplicates within 24 hours are
// suppressed.
func (s *NotificationService) CheckLowStock(userID int64) error {
	medicines, err := s.medicineRepo.List(userID)
	if err != nil {
		return fmt.Errorf("failed to list medicines: %w", err)
	}

	created := 0
	for i := range medicines {
		m := &medicines[i]
		if !m.StockTracked() || *m.CurrentStock > m.Threshold() {
			continue
		}

		exists, err := s.recentLowStockExists(userID, m.Name)
		if err != nil {
			log.Printf("notifications: failed to check for existing alert: %v", err)
			continue
		}
		if exists {
			continue
		}

		err = s.notificationRepo.Create(&models.Notification{
			UserID:  userID,
			Type:    models.NotificationLowStock,
			Title:   "Refill Warning",
			Message: fmt.Sprintf("Low stock for %s. Only %d doses left!", m.Name, *m.CurrentStock),
		})
		if err != nil {
			log.Printf("notifications: failed to create low stock alert for %s: %v", m.Name, err)
			continue
		}
		created++
	}

	if created > 0 {
		log.Printf("notifications: created %d low stock alerts for user %d", created, userID)
	}
	return nil
}

// CleanupOldNotifications removes read notifications older than the
// given number of days
func (s *NotificationService) CleanupOldNotifications(daysOld int) error {
	if err := s.notificationRepo.DeleteOldRead(daysOld); err != nil {
		return fmt.Errorf("failed to delete old notifications: %w", err)
	}
	return nil
}

// recentLowStockExists checks for a low-stock alert mentioning the
// medicine created within the last 24 hours
func (s *NotificationService) recentLowStockExists(userID int64, medicineName string) (bool, error) {
	notifications, err := s.notificationRepo.ListByUser(userID, true, 50, 0)
	if err != nil {
		return false, err
	}

	for _, n := range notifications {
		if n.Type != models.NotificationLowStock {
			continue
		}
		if time.Since(n.CreatedAt) < 24*time.Hour && strings.Contains(n.Message, medicineName) {
			return true, nil
		}
	}
	return false, nil
}
