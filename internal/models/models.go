package models

import (
	"database/sql"
	"time"
)

// Medicine frequency values
const (
	FrequencyDaily    = "Daily"
	FrequencyWeekly   = "Weekly"
	FrequencyAsNeeded = "As Needed"
)

// DefaultLowStockThreshold applies when stock tracking is enabled but no
// explicit threshold was set.
const DefaultLowStockThreshold = 5

// Medicine represents a recurring medicine intake schedule
type Medicine struct {
	ID                string    `json:"id"`
	UserID            int64     `json:"-"`
	Name              string    `json:"name"`
	Dosage            string    `json:"dosage"`
	Time              string    `json:"time"` // HH:mm format, 24-hour local clock
	Frequency         string    `json:"frequency"`
	Notes             string    `json:"notes,omitempty"`
	Color             string    `json:"color,omitempty"`
	CurrentStock      *int      `json:"currentStock,omitempty"`
	LowStockThreshold *int      `json:"lowStockThreshold,omitempty"`
	CreatedAt         time.Time `json:"-"`
	UpdatedAt         time.Time `json:"-"`
}

// StockTracked reports whether inventory tracking is enabled for this medicine
func (m *Medicine) StockTracked() bool {
	return m.CurrentStock != nil
}

// Threshold returns the low-stock threshold, falling back to the default
// when stock tracking is enabled without an explicit threshold
func (m *Medicine) Threshold() int {
	if m.LowStockThreshold != nil {
		return *m.LowStockThreshold
	}
	return DefaultLowStockThreshold
}

// ValidFrequency reports whether f is a known frequency value
func ValidFrequency(f string) bool {
	return f == FrequencyDaily || f == FrequencyWeekly || f == FrequencyAsNeeded
}

// ValidTime reports whether s is a well-formed HH:mm time string
func ValidTime(s string) bool {
	if len(s) != 5 {
		return false
	}
	_, err := time.Parse("15:04", s)
	return err == nil
}

// LogStatus is the recorded outcome of an intake decision
type LogStatus string

const (
	StatusTaken   LogStatus = "taken"
	StatusSkipped LogStatus = "skipped"
	StatusMissed  LogStatus = "missed"
)

// Valid reports whether s is a known log status
func (s LogStatus) Valid() bool {
	return s == StatusTaken || s == StatusSkipped || s == StatusMissed
}

// IntakeLog represents a single immutable intake decision. MedicineID is a
// weak reference: logs outlive their medicine after deletion.
type IntakeLog struct {
	ID         string    `json:"id"`
	UserID     int64     `json:"-"`
	MedicineID string    `json:"medicineId"`
	Timestamp  int64     `json:"timestamp"` // epoch milliseconds
	Status     LogStatus `json:"status"`
	DateStr    string    `json:"dateStr"` // YYYY-MM-DD local calendar date
}

// Time returns the log's timestamp as a local time.Time
func (l *IntakeLog) Time() time.Time {
	return time.UnixMilli(l.Timestamp)
}

// DateOf formats a time as a YYYY-MM-DD calendar date string
func DateOf(t time.Time) string {
	return t.Format("2006-01-02")
}

// MinuteOf formats a time as an HH:mm clock string
func MinuteOf(t time.Time) string {
	return t.Format("15:04")
}

// MedicalProfile is a single per-user medical record, persisted but not
// computed over
type MedicalProfile struct {
	UserID                int64     `json:"-"`
	BloodType             string    `json:"bloodType"`
	Allergies             string    `json:"allergies"`
	Conditions            string    `json:"conditions"`
	EmergencyContactName  string    `json:"emergencyContactName"`
	EmergencyContactPhone string    `json:"emergencyContactPhone"`
	UpdatedAt             time.Time `json:"-"`
}

// User represents a system user
type User struct {
	ID                  int64
	Username            string
	PasswordHash        string
	Email               sql.NullString
	IsActive            bool
	FailedLoginAttempts int
	LockedUntil         sql.NullTime
	CreatedAt           time.Time
	LastLogin           sql.NullTime
}

// Notification types
const (
	NotificationReminder = "reminder"
	NotificationLowStock = "low_stock"
)

// Notification represents a persisted user notification
type Notification struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"-"`
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	IsRead    bool      `json:"isRead"`
	CreatedAt time.Time `json:"createdAt"`
}

// StockChange records a single stock mutation for a medicine
type StockChange struct {
	ID           int64
	UserID       int64
	MedicineID   string
	ChangeAmount int
	StockBefore  int
	StockAfter   int
	Reason       string
	Timestamp    time.Time
}
