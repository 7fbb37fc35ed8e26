package repository

import (
	"fmt"

	"medimind/internal/database"
	"medimind/internal/models"
)

type IntakeLogRepository struct {
	db *database.DB
}

func NewIntakeLogRepository(db *database.DB) *IntakeLogRepository {
	return &IntakeLogRepository{db: db}
}

// Append writes a new intake log entry. Logs are immutable; a retry with
// the same ID is ignored, making the append idempotent.
func (r *IntakeLogRepository) Append(userID int64, l *models.IntakeLog) error {
	query := `
		INSERT INTO intake_logs (id, user_id, medicine_id, timestamp, status, date_str)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`
	_, err := r.db.Exec(query,
		l.ID,
		userID,
		l.MedicineID,
		l.Timestamp,
		string(l.Status),
		l.DateStr,
	)
	if err != nil {
		return fmt.Errorf("failed to append intake log: %w", err)
	}
	return nil
}

// List retrieves all intake logs for a user ordered by timestamp
func (r *IntakeLogRepository) List(userID int64) ([]models.IntakeLog, error) {
	query := `
		SELECT id, user_id, medicine_id, timestamp, status, date_str
		FROM intake_logs
		WHERE user_id = ?
		ORDER BY timestamp
	`
	return r.queryLogs(query, userID)
}

// ListByDate retrieves a user's intake logs for a single calendar date
func (r *IntakeLogRepository) ListByDate(userID int64, dateStr string) ([]models.IntakeLog, error) {
	query := `
		SELECT id, user_id, medicine_id, timestamp, status, date_str
		FROM intake_logs
		WHERE user_id = ? AND date_str = ?
		ORDER BY timestamp
	`
	return r.queryLogs(query, userID, dateStr)
}

// ListSince retrieves a user's intake logs with timestamp >= sinceMillis
func (r *IntakeLogRepository) ListSince(userID int64, sinceMillis int64) ([]models.IntakeLog, error) {
	query := `
		SELECT id, user_id, medicine_id, timestamp, status, date_str
		FROM intake_logs
		WHERE user_id = ? AND timestamp >= ?
		ORDER BY timestamp
	`
	return r.queryLogs(query, userID, sinceMillis)
}

// Count returns the total number of intake logs for a user
func (r *IntakeLogRepository) Count(userID int64) (int64, error) {
	query := `SELECT COUNT(*) FROM intake_logs WHERE user_id = ?`
	var count int64
	err := r.db.QueryRow(query, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count intake logs: %w", err)
	}
	return count, nil
}

func (r *IntakeLogRepository) queryLogs(query string, args ...interface{}) ([]models.IntakeLog, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query intake logs: %w", err)
	}
	defer rows.Close()

	var logs []models.IntakeLog
	for rows.Next() {
		var l models.IntakeLog
		var status string
		err := rows.Scan(
			&l.ID,
			&l.UserID,
			&l.MedicineID,
			&l.Timestamp,
			&status,
			&l.DateStr,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan intake log: %w", err)
		}
		l.Status = models.LogStatus(status)
		logs = append(logs, l)
	}

	return logs, rows.Err()
}
