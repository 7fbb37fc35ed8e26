package repository

import (
	"path/filepath"
	"testing"

	"medimind/internal/database"
	"medimind/internal/models"
)

func setupIntakeLogTestDB(t *testing.T) *database.DB {
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

		CREATE TABLE intake_logs (
			id TEXT PRIMARY KEY,
			user_id INTEGER NOT NULL REFERENCES users(id),
			medicine_id TEXT NOT NULL,
			timestamp INTEGER NOT NULL,
			status TEXT NOT NULL CHECK(status IN ('taken', 'skipped', 'missed')),
			date_str TEXT NOT NULL
		);
	`
	if _, err := db.Exec(schema); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	return db
}

func sampleLog(id string, timestamp int64, status models.LogStatus, dateStr string) *models.IntakeLog {
	return &models.IntakeLog{
		ID:         id,
		MedicineID: "med-1",
		Timestamp:  timestamp,
		Status:     status,
		DateStr:    dateStr,
	}
}

func TestIntakeLogRepository_AppendAndList(t *testing.T) {
	db := setupIntakeLogTestDB(t)
	repo := NewIntakeLogRepository(db)

	if err := repo.Append(1, sampleLog("log-1", 1710000000000, models.StatusTaken, "2024-03-09")); err != nil {
		t.Fatalf("Append() error: %v", err)
	}
	if err := repo.Append(1, sampleLog("log-2", 1710003600000, models.StatusSkipped, "2024-03-09")); err != nil {
		t.Fatalf("Append() error: %v", err)
	}

	logs, err := repo.List(1)
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(logs) != 2 {
		t.Fatalf("List() len = %d, want 2", len(logs))
	}
	if logs[0].ID != "log-1" || logs[1].ID != "log-2" {
		t.Errorf("List() order = [%s, %s], want oldest first", logs[0].ID, logs[1].ID)
	}
	if logs[0].Status != models.StatusTaken || logs[1].Status != models.StatusSkipped {
		t.Errorf("statuses = [%s, %s], want [taken, skipped]", logs[0].Status, logs[1].Status)
	}
}

func TestIntakeLogRepository_AppendIsIdempotent(t *testing.T) {
	db := setupIntakeLogTestDB(t)
	repo := NewIntakeLogRepository(db)

	l := sampleLog("log-1", 1710000000000, models.StatusTaken, "2024-03-09")
	if err := repo.Append(1, l); err != nil {
		t.Fatalf("first Append() error: %v", err)
	}
	if err := repo.Append(1, l); err != nil {
		t.Fatalf("retry Append() error: %v", err)
	}

	count, err := repo.Count(1)
	if err != nil {
		t.Fatalf("Count() error: %v", err)
	}
	if count != 1 {
		t.Errorf("Count() = %d, want 1 after retried append", count)
	}
}

func TestIntakeLogRepository_ListByDate(t *testing.T) {
	db := setupIntakeLogTestDB(t)
	repo := NewIntakeLogRepository(db)

	if err := repo.Append(1, sampleLog("log-1", 1710000000000, models.StatusTaken, "2024-03-09")); err != nil {
		t.Fatalf("Append() error: %v", err)
	}
	if err := repo.Append(1, sampleLog("log-2", 1710086400000, models.StatusTaken, "2024-03-10")); err != nil {
		t.Fatalf("Append() error: %v", err)
	}

	logs, err := repo.ListByDate(1, "2024-03-09")
	if err != nil {
		t.Fatalf("ListByDate() error: %v", err)
	}
	if len(logs) != 1 || logs[0].ID != "log-1" {
		t.Errorf("ListByDate() = %+v, want only log-1", logs)
	}
}

func TestIntakeLogRepository_ListSince(t *testing.T) {
	db := setupIntakeLogTestDB(t)
	repo := NewIntakeLogRepository(db)

	if err := repo.Append(1, sampleLog("log-1", 1000, models.StatusTaken, "2024-03-09")); err != nil {
		t.Fatalf("Append() error: %v", err)
	}
	if err := repo.Append(1, sampleLog("log-2", 2000, models.StatusTaken, "2024-03-09")); err != nil {
		t.Fatalf("Append() error: %v", err)
	}

	logs, err := repo.ListSince(1, 2000)
	if err != nil {
		t.Fatalf("ListSince() error: %v", err)
	}
	if len(logs) != 1 || logs[0].ID != "log-2" {
		t.Errorf("ListSince() = %+v, want only log-2", logs)
	}
}

func TestIntakeLogRepository_UserScoping(t *testing.T) {
	db := setupIntakeLogTestDB(t)
	repo := NewIntakeLogRepository(db)

	if err := repo.Append(1, sampleLog("log-1", 1710000000000, models.StatusTaken, "2024-03-09")); err != nil {
		t.Fatalf("Append() error: %v", err)
	}

	logs, err := repo.List(2)
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(logs) != 0 {
		t.Errorf("List() for other user len = %d, want 0", len(logs))
	}
}

func TestIntakeLogRepository_SurvivesMedicineDeletion(t *testing.T) {
	db := setupIntakeLogTestDB(t)
	repo := NewIntakeLogRepository(db)

	// medicine_id carries no foreign key, so a log can reference a
	// medicine that no longer exists
	if err := repo.Append(1, sampleLog("log-1", 1710000000000, models.StatusTaken, "2024-03-09")); err != nil {
		t.Fatalf("Append() error: %v", err)
	}

	logs, err := repo.List(1)
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(logs) != 1 || logs[0].MedicineID != "med-1" {
		t.Errorf("List() = %+v, want the orphaned log preserved", logs)
	}
}
