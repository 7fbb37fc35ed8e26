package repository

import (
	"path/filepath"
	"testing"

	"medimind/internal/database"
	"medimind/internal/models"
)

func setupMedicineTestDB(t *testing.T) *database.DB {
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
	`
	if _, err := db.Exec(schema); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	return db
}

func sampleMedicine(id string) *models.Medicine {
	return &models.Medicine{
		ID:        id,
		Name:      "Aspirin",
		Dosage:    "100mg",
		Time:      "08:00",
		Frequency: models.FrequencyDaily,
	}
}

func TestMedicineRepository_SaveAndGet(t *testing.T) {
	db := setupMedicineTestDB(t)
	repo := NewMedicineRepository(db)

	stock := 30
	threshold := 10
	m := sampleMedicine("med-1")
	m.Notes = "with breakfast"
	m.Color = "#ff0000"
	m.CurrentStock = &stock
	m.LowStockThreshold = &threshold

	if err := repo.Save(1, m); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	got, err := repo.GetByID(1, "med-1")
	if err != nil {
		t.Fatalf("GetByID() error: %v", err)
	}

	if got.Name != "Aspirin" || got.Dosage != "100mg" || got.Time != "08:00" {
		t.Errorf("GetByID() = %+v, want saved values", got)
	}
	if got.Notes != "with breakfast" || got.Color != "#ff0000" {
		t.Errorf("optional fields = (%q, %q), want saved values", got.Notes, got.Color)
	}
	if got.CurrentStock == nil || *got.CurrentStock != 30 {
		t.Errorf("CurrentStock = %v, want 30", got.CurrentStock)
	}
	if got.LowStockThreshold == nil || *got.LowStockThreshold != 10 {
		t.Errorf("LowStockThreshold = %v, want 10", got.LowStockThreshold)
	}
}

func TestMedicineRepository_SaveIsUpsert(t *testing.T) {
	db := setupMedicineTestDB(t)
	repo := NewMedicineRepository(db)

	m := sampleMedicine("med-1")
	if err := repo.Save(1, m); err != nil {
		t.Fatalf("first Save() error: %v", err)
	}

	m.Name = "Aspirin 500"
	m.Time = "20:00"
	if err := repo.Save(1, m); err != nil {
		t.Fatalf("second Save() error: %v", err)
	}

	list, err := repo.List(1)
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("List() len = %d, want 1 after re-save", len(list))
	}
	if list[0].Name != "Aspirin 500" || list[0].Time != "20:00" {
		t.Errorf("medicine = %+v, want updated values", list[0])
	}
}

func TestMedicineRepository_NullOptionalFields(t *testing.T) {
	db := setupMedicineTestDB(t)
	repo := NewMedicineRepository(db)

	if err := repo.Save(1, sampleMedicine("med-1")); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	got, err := repo.GetByID(1, "med-1")
	if err != nil {
		t.Fatalf("GetByID() error: %v", err)
	}
	if got.Notes != "" || got.Color != "" {
		t.Errorf("optional strings = (%q, %q), want empty", got.Notes, got.Color)
	}
	if got.CurrentStock != nil {
		t.Errorf("CurrentStock = %v, want nil when tracking disabled", got.CurrentStock)
	}
}

func TestMedicineRepository_ListOrderedByTime(t *testing.T) {
	db := setupMedicineTestDB(t)
	repo := NewMedicineRepository(db)

	evening := sampleMedicine("med-1")
	evening.Name = "Melatonin"
	evening.Time = "22:00"
	morning := sampleMedicine("med-2")
	morning.Time = "07:30"

	if err := repo.Save(1, evening); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	if err := repo.Save(1, morning); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	list, err := repo.List(1)
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("List() len = %d, want 2", len(list))
	}
	if list[0].Time != "07:30" || list[1].Time != "22:00" {
		t.Errorf("List() order = [%s, %s], want earliest first", list[0].Time, list[1].Time)
	}
}

func TestMedicineRepository_UserScoping(t *testing.T) {
	db := setupMedicineTestDB(t)
	repo := NewMedicineRepository(db)

	if err := repo.Save(1, sampleMedicine("med-1")); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	if _, err := repo.GetByID(2, "med-1"); err != ErrNotFound {
		t.Errorf("GetByID() with other user error = %v, want ErrNotFound", err)
	}

	list, err := repo.List(2)
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("List() for other user len = %d, want 0", len(list))
	}
}

func TestMedicineRepository_Delete(t *testing.T) {
	db := setupMedicineTestDB(t)
	repo := NewMedicineRepository(db)

	if err := repo.Save(1, sampleMedicine("med-1")); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	if err := repo.Delete(1, "med-1"); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	if _, err := repo.GetByID(1, "med-1"); err != ErrNotFound {
		t.Errorf("GetByID() after delete error = %v, want ErrNotFound", err)
	}
}

func TestMedicineRepository_UpdateStock(t *testing.T) {
	db := setupMedicineTestDB(t)
	repo := NewMedicineRepository(db)

	if err := repo.Save(1, sampleMedicine("med-1")); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	if err := repo.UpdateStock(1, "med-1", 25); err != nil {
		t.Fatalf("UpdateStock() error: %v", err)
	}
	got, err := repo.GetByID(1, "med-1")
	if err != nil {
		t.Fatalf("GetByID() error: %v", err)
	}
	if got.CurrentStock == nil || *got.CurrentStock != 25 {
		t.Errorf("CurrentStock = %v, want 25", got.CurrentStock)
	}

	if err := repo.UpdateStock(1, "nope", 5); err != ErrNotFound {
		t.Errorf("UpdateStock() unknown id error = %v, want ErrNotFound", err)
	}
	if err := repo.UpdateStock(2, "med-1", 5); err != ErrNotFound {
		t.Errorf("UpdateStock() other user error = %v, want ErrNotFound", err)
	}
}
