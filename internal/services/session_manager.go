package services

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"medimind/internal/auth"
	"medimind/internal/database"
	"medimind/internal/models"
	"medimind/internal/notify"
	"medimind/internal/repository"
	"medimind/internal/scheduler"
	"medimind/internal/store"
)

// Session bundles the per-login state: the entity store primed from the
// database, the intake service bound to it, and the running reminder
// scheduler.
type Session struct {
	UserID int64
	Store  *store.Store
	Intake *IntakeService

	cancel context.CancelFunc
}

// SessionManager owns the store and reminder scheduler of every active
// session. Logout cancels the session's scheduler before the session is
// dropped, so no reminder fires after teardown.
type SessionManager struct {
	db     *database.DB
	tick   time.Duration
	events *auth.SessionEvents

	mu       sync.Mutex
	sessions map[int64]*Session
}

func NewSessionManager(db *database.DB, tick time.Duration, events *auth.SessionEvents) *SessionManager {
	return &SessionManager{
		db:       db,
		tick:     tick,
		events:   events,
		sessions: make(map[int64]*Session),
	}
}

// Start builds (or returns) the session for a user and starts its
// reminder scheduler
func (m *SessionManager) Start(userID int64) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions[userID]; ok {
		return s, nil
	}

	st, err := store.Load(userID, repository.NewPersistence(m.db))
	if err != nil {
		return nil, fmt.Errorf("failed to load session store: %w", err)
	}

	notificationRepo := repository.NewNotificationRepository(m.db)
	reminders := notify.Multi(
		notify.LogNotifier{},
		notify.NewStoreNotifier(notificationRepo, userID, models.NotificationReminder),
	)
	lowStock := notify.Multi(
		notify.LogNotifier{},
		notify.NewStoreNotifier(notificationRepo, userID, models.NotificationLowStock),
	)

	sched := scheduler.New(st, reminders, m.tick)
	ctx, cancel := context.WithCancel(context.Background())
	go sched.Run(ctx)

	s := &Session{
		UserID: userID,
		Store:  st,
		Intake: NewIntakeService(st, repository.NewStockChangeRepository(m.db), lowStock),
		cancel: cancel,
	}
	m.sessions[userID] = s

	m.events.Publish(auth.SessionEvent{UserID: userID, LoggedIn: true})
	return s, nil
}

// Get returns the active session for a user, if any
func (m *SessionManager) Get(userID int64) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[userID]
	return s, ok
}

// End cancels a user's reminder scheduler and drops the session
func (m *SessionManager) End(userID int64) {
	m.mu.Lock()
	s, ok := m.sessions[userID]
	if ok {
		delete(m.sessions, userID)
	}
	m.mu.Unlock()

	if !ok {
		return
	}

	s.cancel()
	m.events.Publish(auth.SessionEvent{UserID: userID, LoggedIn: false})
	log.Printf("session: ended for user %d", userID)
}

// Shutdown tears down every active session
func (m *SessionManager) Shutdown() {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.sessions = make(map[int64]*Session)
	m.mu.Unlock()

	for _, s := range sessions {
		s.cancel()
	}
}
