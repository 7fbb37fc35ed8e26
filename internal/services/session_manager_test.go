package services

import (
	"path/filepath"
	"sync"
	"testing"
	"time"

	"medimind/internal/auth"
	"medimind/internal/database"
	"medimind/internal/models"
	"medimind/internal/repository"
)

func setupSessionTestDB(t *testing.T) *database.DB {
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

		CREATE TABLE medicines (
			id TEXT PRIMARY KEY,
			user_id INTEGER NOT NULL REFERENCES users(id),
			name TEXT NOT NULL,
			dosage TEXT NOT NULL,
			scheduled_time TEXT NOT NULL,
			frequency TEXT NOT NULL DEFAULT 'Daily',
			notes TEXT,
			color TEXT,
			current_stock INTEGER,
			low_stock_threshold INTEGER,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE intake_logs (
			id TEXT PRIMARY KEY,
			user_id INTEGER NOT NULL REFERENCES users(id),
			medicine_id TEXT NOT NULL,
			timestamp INTEGER NOT NULL,
			status TEXT NOT NULL CHECK(status IN ('taken', 'skipped', 'missed')),
			date_str TEXT NOT NULL
		);

		CREATE TABLE notifications (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL REFERENCES users(id),
			type TEXT NOT NULL,
			title TEXT NOT NULL,
			message TEXT NOT NULL,
			is_read BOOLEAN NOT NULL DEFAULT 0,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE stock_changes (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL REFERENCES users(id),
			medicine_id TEXT NOT NULL,
			change_amount INTEGER NOT NULL,
			stock_before INTEGER NOT NULL,
			stock_after INTEGER NOT NULL,
			reason TEXT NOT NULL,
			timestamp TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
	`
	if _, err := db.Exec(schema); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	return db
}

func TestSessionManagerStartIsIdempotent(t *testing.T) {
	db := setupSessionTestDB(t)
	events := auth.NewSessionEvents()
	defer events.Close()

	m := NewSessionManager(db, 10*time.Second, events)
	defer m.Shutdown()

	first, err := m.Start(1)
	if err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	second, err := m.Start(1)
	if err != nil {
		t.Fatalf("second Start() error: %v", err)
	}

	if first != second {
		t.Error("Start() built a second session for the same user")
	}
}

func TestSessionManagerPrimesStoreFromDatabase(t *testing.T) {
	db := setupSessionTestDB(t)

	medicines := repository.NewMedicineRepository(db)
	if err := medicines.Save(1, &models.Medicine{
		ID:        "med-1",
		Name:      "Aspirin",
		Dosage:    "10mg",
		Time:      "08:00",
		Frequency: models.FrequencyDaily,
	}); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	events := auth.NewSessionEvents()
	defer events.Close()
	m := NewSessionManager(db, 10*time.Second, events)
	defer m.Shutdown()

	session, err := m.Start(1)
	if err != nil {
		t.Fatalf("Start() error: %v", err)
	}

	if len(session.Store.ListMedicines()) != 1 {
		t.Errorf("store primed with %d medicines, want 1", len(session.Store.ListMedicines()))
	}
}

func TestSessionManagerEndDropsSession(t *testing.T) {
	db := setupSessionTestDB(t)
	events := auth.NewSessionEvents()
	defer events.Close()

	m := NewSessionManager(db, 10*time.Second, events)
	defer m.Shutdown()

	if _, err := m.Start(1); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	if _, ok := m.Get(1); !ok {
		t.Fatal("Get() missing session after Start")
	}

	m.End(1)
	if _, ok := m.Get(1); ok {
		t.Error("Get() still finds the session after End")
	}

	// Ending twice is harmless
	m.End(1)
}

func TestSessionManagerPublishesEvents(t *testing.T) {
	db := setupSessionTestDB(t)
	events := auth.NewSessionEvents()
	defer events.Close()

	var mu sync.Mutex
	var got []auth.SessionEvent
	unsubscribe := events.Subscribe(func(ev auth.SessionEvent) {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, ev)
	})
	defer unsubscribe()

	m := NewSessionManager(db, 10*time.Second, events)
	defer m.Shutdown()

	if _, err := m.Start(1); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	m.End(1)

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 2 {
		t.Fatalf("event count = %d, want login and logout", len(got))
	}
	if !got[0].LoggedIn || got[0].UserID != 1 {
		t.Errorf("first event = %+v, want login for user 1", got[0])
	}
	if got[1].LoggedIn || got[1].UserID != 1 {
		t.Errorf("second event = %+v, want logout for user 1", got[1])
	}
}

func TestSessionManagerIntakeRoundTrip(t *testing.T) {
	db := setupSessionTestDB(t)
	events := auth.NewSessionEvents()
	defer events.Close()

	m := NewSessionManager(db, 10*time.Second, events)
	defer m.Shutdown()

	session, err := m.Start(1)
	if err != nil {
		t.Fatalf("Start() error: %v", err)
	}

	stock := 10
	if err := session.Store.UpsertMedicine(models.Medicine{
		ID:           "med-1",
		UserID:       1,
		Name:         "Aspirin",
		Dosage:       "10mg",
		Time:         "08:00",
		Frequency:    models.FrequencyDaily,
		CurrentStock: &stock,
	}); err != nil {
		t.Fatalf("UpsertMedicine() error: %v", err)
	}

	if _, err := session.Intake.RecordIntake("med-1", models.StatusTaken); err != nil {
		t.Fatalf("RecordIntake() error: %v", err)
	}

	// A fresh session sees the durable state
	m.End(1)
	reloaded, err := m.Start(1)
	if err != nil {
		t.Fatalf("restart Start() error: %v", err)
	}

	med, ok := reloaded.Store.GetMedicine("med-1")
	if !ok {
		t.Fatal("medicine missing after session restart")
	}
	if *med.CurrentStock != 9 {
		t.Errorf("CurrentStock = %d, want 9 after durable decrement", *med.CurrentStock)
	}
	if len(reloaded.Store.ListLogs()) != 1 {
		t.Errorf("ledger len = %d, want 1 after restart", len(reloaded.Store.ListLogs()))
	}

	changes, err := repository.NewStockChangeRepository(db).ListByMedicine(1, "med-1", 10)
	if err != nil {
		t.Fatalf("ListByMedicine() error: %v", err)
	}
	if len(changes) != 1 || changes[0].Reason != "intake_taken" {
		t.Errorf("stock changes = %+v, want one intake_taken entry", changes)
	}
}
