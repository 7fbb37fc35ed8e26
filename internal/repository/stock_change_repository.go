package repository

import (
	"fmt"

	"medimind/internal/database"
	"medimind/internal/models"
)

type StockChangeRepository struct {
	db *database.DB
}

func NewStockChangeRepository(db *database.DB) *StockChangeRepository {
	return &StockChangeRepository{db: db}
}

// Create records a stock mutation
func (r *StockChangeRepository) Create(c *models.StockChange) error {
	query := `
		INSERT INTO stock_changes (user_id, medicine_id, change_amount, stock_before, stock_after, reason, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
	`
	result, err := r.db.Exec(query,
		c.UserID,
		c.MedicineID,
		c.ChangeAmount,
		c.StockBefore,
		c.StockAfter,
		c.Reason,
	)
	if err != nil {
		return fmt.Errorf("failed to create stock change: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	c.ID = id
	return nil
}

// ListByMedicine retrieves stock changes for a medicine, newest first
func (r *StockChangeRepository) ListByMedicine(userID int64, medicineID string, limit int) ([]*models.StockChange, error) {
	query := `
		SELECT id, user_id, medicine_id, change_amount, stock_before, stock_after, reason, timestamp
		FROM stock_changes
		WHERE user_id = ? AND medicine_id = ?
		ORDER BY timestamp DESC
		LIMIT ?
	`
	rows, err := r.db.Query(query, userID, medicineID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list stock changes: %w", err)
	}
	defer rows.Close()

	var changes []*models.StockChange
	for rows.Next() {
		var c models.StockChange
		err := rows.Scan(
			&c.ID,
			&c.UserID,
			&c.MedicineID,
			&c.ChangeAmount,
			&c.StockBefore,
			&c.StockAfter,
			&c.Reason,
			&c.Timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan stock change: %w", err)
		}
		changes = append(changes, &c)
	}

	return changes, rows.Err()
}
