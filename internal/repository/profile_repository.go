package repository

import (
	"database/sql"
	"fmt"

	"medimind/internal/database"
	"medimind/internal/models"
)

type ProfileRepository struct {
	db *database.DB
}

func NewProfileRepository(db *database.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// Get retrieves the medical profile for a user
func (r *ProfileRepository) Get(userID int64) (*models.MedicalProfile, error) {
	query := `
		SELECT user_id, blood_type, allergies, conditions, emergency_contact_name, emergency_contact_phone, updated_at
		FROM medical_profiles
		WHERE user_id = ?
	`
	var p models.MedicalProfile
	err := r.db.QueryRow(query, userID).Scan(
		&p.UserID,
		&p.BloodType,
		&p.Allergies,
		&p.Conditions,
		&p.EmergencyContactName,
		&p.EmergencyContactPhone,
		&p.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get medical profile: %w", err)
	}

	return &p, nil
}

// Upsert creates or replaces the medical profile for a user
func (r *ProfileRepository) Upsert(userID int64, p *models.MedicalProfile) error {
	query := `
		INSERT INTO medical_profiles (user_id, blood_type, allergies, conditions, emergency_contact_name, emergency_contact_phone, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(user_id) DO UPDATE SET
			blood_type = excluded.blood_type,
			allergies = excluded.allergies,
			conditions = excluded.conditions,
			emergency_contact_name = excluded.emergency_contact_name,
			emergency_contact_phone = excluded.emergency_contact_phone,
			updated_at = CURRENT_TIMESTAMP
	`
	_, err := r.db.Exec(query,
		userID,
		p.BloodType,
		p.Allergies,
		p.Conditions,
		p.EmergencyContactName,
		p.EmergencyContactPhone,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert medical profile: %w", err)
	}
	return nil
}
