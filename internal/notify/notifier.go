package notify

import (
	"log"

	"medimind/internal/models"
	"medimind/internal/repository"
)

// Notifier delivers a user-facing notification. Implementations are
// fire-and-forget; callers decide when and with what content to notify,
// delivery concerns (platform permissions, retries) live behind this
// boundary.
type Notifier interface {
	Notify(title, body string)
}

// Func adapts a function to the Notifier interface
type Func func(title, body string)

func (f Func) Notify(title, body string) { f(title, body) }

// LogNotifier writes notifications to the process log
type LogNotifier struct{}

func (LogNotifier) Notify(title, body string) {
	log.Printf("notify: %s: %s", title, body)
}

// StoreNotifier persists notifications of a fixed type for one user so
// the client can surface them in its notification center
type StoreNotifier struct {
	repo   *repository.NotificationRepository
	userID int64
	kind   string
}

func NewStoreNotifier(repo *repository.NotificationRepository, userID int64, kind string) *StoreNotifier {
	return &StoreNotifier{repo: repo, userID: userID, kind: kind}
}

func (n *StoreNotifier) Notify(title, body string) {
	err := n.repo.Create(&models.Notification{
		UserID:  n.userID,
		Type:    n.kind,
		Title:   title,
		Message: body,
	})
	if err != nil {
		// fire-and-forget: a lost notification must not fail the caller
		log.Printf("notify: failed to persist notification for user %d: %v", n.userID, err)
	}
}

// Multi fans a notification out to several notifiers
func Multi(notifiers ...Notifier) Notifier {
	return Func(func(title, body string) {
		for _, n := range notifiers {
			n.Notify(title, body)
		}
	})
}
