package repository

import (
	"database/sql"
	"fmt"

	"medimind/internal/database"
	"medimind/internal/models"
)

type MedicineRepository struct {
	db *database.DB
}

func NewMedicineRepository(db *database.DB) *MedicineRepository {
	return &MedicineRepository{db: db}
}

// Save creates or updates a medicine keyed by its ID. Retrying with an
// identical payload is a no-op beyond refreshing updated_at.
func (r *MedicineRepository) Save(userID int64, m *models.Medicine) error {
	query := `
		INSERT INTO medicines (id, user_id, name, dosage, scheduled_time, frequency, notes, color, current_stock, low_stock_threshold, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			dosage = excluded.dosage,
			scheduled_time = excluded.scheduled_time,
			frequency = excluded.frequency,
			notes = excluded.notes,
			color = excluded.color,
			current_stock = excluded.current_stock,
			low_stock_threshold = excluded.low_stock_threshold,
			updated_at = CURRENT_TIMESTAMP
		WHERE medicines.user_id = excluded.user_id
	`
	_, err := r.db.Exec(query,
		m.ID,
		userID,
		m.Name,
		m.Dosage,
		m.Time,
		m.Frequency,
		nullIfEmpty(m.Notes),
		nullIfEmpty(m.Color),
		nullIntPtr(m.CurrentStock),
		nullIntPtr(m.LowStockThreshold),
	)
	if err != nil {
		return fmt.Errorf("failed to save medicine: %w", err)
	}
	return nil
}

// GetByID retrieves a medicine by ID scoped to a user
func (r *MedicineRepository) GetByID(userID int64, id string) (*models.Medicine, error) {
	query := `
		SELECT id, user_id, name, dosage, scheduled_time, frequency, notes, color, current_stock, low_stock_threshold, created_at, updated_at
		FROM medicines
		WHERE id = ? AND user_id = ?
	`
	row := r.db.QueryRow(query, id, userID)
	m, err := scanMedicine(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get medicine: %w", err)
	}
	return m, nil
}

// List retrieves all medicines for a user ordered by scheduled time
func (r *MedicineRepository) List(userID int64) ([]models.Medicine, error) {
	query := `
		SELECT id, user_id, name, dosage, scheduled_time, frequency, notes, color, current_stock, low_stock_threshold, created_at, updated_at
		FROM medicines
		WHERE user_id = ?
		ORDER BY scheduled_time, name
	`
	rows, err := r.db.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list medicines: %w", err)
	}
	defer rows.Close()

	var medicines []models.Medicine
	for rows.Next() {
		m, err := scanMedicine(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan medicine: %w", err)
		}
		medicines = append(medicines, *m)
	}

	return medicines, rows.Err()
}

// Delete permanently removes a medicine. Intake logs reference medicines
// weakly and are left untouched.
func (r *MedicineRepository) Delete(userID int64, id string) error {
	query := `DELETE FROM medicines WHERE id = ? AND user_id = ?`
	_, err := r.db.Exec(query, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete medicine: %w", err)
	}
	return nil
}

// UpdateStock sets the current stock of a medicine
func (r *MedicineRepository) UpdateStock(userID int64, id string, newStock int) error {
	query := `
		UPDATE medicines
		SET current_stock = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND user_id = ?
	`
	result, err := r.db.Exec(query, newStock, id, userID)
	if err != nil {
		return fmt.Errorf("failed to update stock: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanMedicine(row rowScanner) (*models.Medicine, error) {
	var m models.Medicine
	var notes, color sql.NullString
	var stock, threshold sql.NullInt64
	err := row.Scan(
		&m.ID,
		&m.UserID,
		&m.Name,
		&m.Dosage,
		&m.Time,
		&m.Frequency,
		&notes,
		&color,
		&stock,
		&threshold,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	m.Notes = notes.String
	m.Color = color.String
	if stock.Valid {
		v := int(stock.Int64)
		m.CurrentStock = &v
	}
	if threshold.Valid {
		v := int(threshold.Int64)
		m.LowStockThreshold = &v
	}
	return &m, nil
}

func nullIfEmpty(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullIntPtr(p *int) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*p), Valid: true}
}
