package repository

import (
	"path/filepath"
	"testing"

	"medimind/internal/database"
	"medimind/internal/models"
)

func setupNotificationTestDB(t *testing.T) *database.DB {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	db, err := database.Open(dbPath)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	schema := `
		CREATE TABLE users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			username TEXT UNIQUE NOT NULL,
			password_hash TEXT NOT NULL
		);

		INSERT INTO users (id, username, password_hash) VALUES (1, 'alice', 'x');
		INSERT INTO users (id, username, password_hash) VALUES (2, 'bob', 'x');

		CREATE TABLE notifications (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL REFERENCES users(id),
			type TEXT NOT NULL,
			title TEXT NOT NULL,
			message TEXT NOT NULL,
			is_read BOOLEAN NOT NULL DEFAULT 0,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
	`
	if _, err := db.Exec(schema); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	return db
}

func createTestNotification(t *testing.T, repo *NotificationRepository, userID int64, title string) *models.Notification {
	t.Helper()
	n := &models.Notification{
		UserID:  userID,
		Type:    "reminder",
		Title:   title,
		Message: "It's 08:00. Please take 10mg.",
	}
	if err := repo.Create(n); err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	return n
}

func TestNotificationRepository_CreateAndList(t *testing.T) {
	db := setupNotificationTestDB(t)
	repo := NewNotificationRepository(db)

	n := createTestNotification(t, repo, 1, "Time for Aspirin")
	if n.ID == 0 {
		t.Error("Create() did not populate the notification ID")
	}

	list, err := repo.ListByUser(1, true, 10, 0)
	if err != nil {
		t.Fatalf("ListByUser() error: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("ListByUser() len = %d, want 1", len(list))
	}
	if list[0].Title != "Time for Aspirin" || list[0].Type != "reminder" {
		t.Errorf("notification = %+v, want created values", list[0])
	}
	if list[0].IsRead {
		t.Error("new notification is marked read")
	}
}

func TestNotificationRepository_UnreadFilter(t *testing.T) {
	db := setupNotificationTestDB(t)
	repo := NewNotificationRepository(db)

	first := createTestNotification(t, repo, 1, "First")
	createTestNotification(t, repo, 1, "Second")

	if err := repo.MarkAsRead(first.ID, 1); err != nil {
		t.Fatalf("MarkAsRead() error: %v", err)
	}

	unread, err := repo.ListByUser(1, false, 10, 0)
	if err != nil {
		t.Fatalf("ListByUser() error: %v", err)
	}
	if len(unread) != 1 || unread[0].Title != "Second" {
		t.Errorf("unread list = %+v, want only Second", unread)
	}

	count, err := repo.CountUnread(1)
	if err != nil {
		t.Fatalf("CountUnread() error: %v", err)
	}
	if count != 1 {
		t.Errorf("CountUnread() = %d, want 1", count)
	}
}

func TestNotificationRepository_MarkAsReadScoped(t *testing.T) {
	db := setupNotificationTestDB(t)
	repo := NewNotificationRepository(db)

	n := createTestNotification(t, repo, 1, "Mine")

	if err := repo.MarkAsRead(n.ID, 2); err != ErrNotFound {
		t.Errorf("MarkAsRead() as other user error = %v, want ErrNotFound", err)
	}

	count, err := repo.CountUnread(1)
	if err != nil {
		t.Fatalf("CountUnread() error: %v", err)
	}
	if count != 1 {
		t.Errorf("CountUnread() = %d, want untouched 1", count)
	}
}

func TestNotificationRepository_MarkAllAsRead(t *testing.T) {
	db := setupNotificationTestDB(t)
	repo := NewNotificationRepository(db)

	createTestNotification(t, repo, 1, "First")
	createTestNotification(t, repo, 1, "Second")
	createTestNotification(t, repo, 2, "Other user")

	if err := repo.MarkAllAsRead(1); err != nil {
		t.Fatalf("MarkAllAsRead() error: %v", err)
	}

	count, err := repo.CountUnread(1)
	if err != nil {
		t.Fatalf("CountUnread() error: %v", err)
	}
	if count != 0 {
		t.Errorf("CountUnread() = %d, want 0 after MarkAllAsRead", count)
	}

	otherCount, err := repo.CountUnread(2)
	if err != nil {
		t.Fatalf("CountUnread() error: %v", err)
	}
	if otherCount != 1 {
		t.Errorf("other user CountUnread() = %d, want 1", otherCount)
	}
}

func TestNotificationRepository_Pagination(t *testing.T) {
	db := setupNotificationTestDB(t)
	repo := NewNotificationRepository(db)

	for i := 0; i < 5; i++ {
		createTestNotification(t, repo, 1, "Reminder")
	}

	page, err := repo.ListByUser(1, true, 2, 0)
	if err != nil {
		t.Fatalf("ListByUser() error: %v", err)
	}
	if len(page) != 2 {
		t.Errorf("first page len = %d, want 2", len(page))
	}

	rest, err := repo.ListByUser(1, true, 10, 4)
	if err != nil {
		t.Fatalf("ListByUser() error: %v", err)
	}
	if len(rest) != 1 {
		t.Errorf("offset page len = %d, want 1", len(rest))
	}
}
