// Package store holds the per-session medicine catalog and intake ledger.
// The in-memory snapshot is authoritative for reads (read-your-writes
// within a session); every mutation is mirrored to the durable
// Persistence collaborator and rolled back when the durable write fails,
// so the snapshot and the caller's observation never diverge silently.
package store

import (
	"sync"

	"medimind/internal/models"
)

// Persistence is the durable backing collaborator. SaveMedicine and
// AppendLog must be idempotent on retry, keyed by entity ID.
type Persistence interface {
	LoadMedicines(userID int64) ([]models.Medicine, error)
	LoadLogs(userID int64) ([]models.IntakeLog, error)
	SaveMedicine(userID int64, m models.Medicine) error
	DeleteMedicine(userID int64, id string) error
	AppendLog(userID int64, l models.IntakeLog) error
}

// Store owns the medicine and intake-log collections for one session.
// There is exactly one mutator thread of control; the lock exists so the
// reminder scheduler can read snapshots from its own goroutine.
type Store struct {
	userID  int64
	persist Persistence

	mu        sync.RWMutex
	medicines []models.Medicine
	logs      []models.IntakeLog
}

// Load builds a session store for a user, priming the snapshot from the
// durable collaborator
func Load(userID int64, p Persistence) (*Store, error) {
	s := &Store{userID: userID, persist: p}
	if userID == 0 {
		return s, nil
	}

	medicines, err := p.LoadMedicines(userID)
	if err != nil {
		return nil, persistenceErr(err)
	}
	logs, err := p.LoadLogs(userID)
	if err != nil {
		return nil, persistenceErr(err)
	}

	s.medicines = medicines
	s.logs = logs
	return s, nil
}

// ListMedicines returns a copy of the current medicine snapshot. Empty
// when no identity is bound.
func (s *Store) ListMedicines() []models.Medicine {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Medicine, len(s.medicines))
	copy(out, s.medicines)
	return out
}

// ListLogs returns a copy of the current ledger snapshot
func (s *Store) ListLogs() []models.IntakeLog {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.IntakeLog, len(s.logs))
	copy(out, s.logs)
	return out
}

// GetMedicine looks up a medicine by ID in the snapshot
func (s *Store) GetMedicine(id string) (models.Medicine, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := range s.medicines {
		if s.medicines[i].ID == id {
			return s.medicines[i], true
		}
	}
	return models.Medicine{}, false
}

// UpsertMedicine validates m, applies it to the snapshot, and mirrors it
// durably. On a failed durable write the snapshot change is rolled back
// and the error wraps ErrPersistence.
func (s *Store) UpsertMedicine(m models.Medicine) error {
	if s.userID == 0 {
		return ErrNotPermitted
	}
	if err := validateMedicine(&m); err != nil {
		return err
	}

	s.mu.Lock()
	idx := -1
	var previous models.Medicine
	for i := range s.medicines {
		if s.medicines[i].ID == m.ID {
			idx = i
			previous = s.medicines[i]
			break
		}
	}
	if idx >= 0 {
		s.medicines[idx] = m
	} else {
		s.medicines = append(s.medicines, m)
	}
	s.mu.Unlock()

	if err := s.persist.SaveMedicine(s.userID, m); err != nil {
		s.mu.Lock()
		if idx >= 0 {
			s.medicines[idx] = previous
		} else {
			s.medicines = s.medicines[:len(s.medicines)-1]
		}
		s.mu.Unlock()
		return persistenceErr(err)
	}
	return nil
}

// DeleteMedicine removes a medicine from the catalog. Historical logs are
// never cascade-deleted; the ledger is left untouched.
func (s *Store) DeleteMedicine(id string) error {
	if s.userID == 0 {
		return ErrNotPermitted
	}

	s.mu.Lock()
	idx := -1
	for i := range s.medicines {
		if s.medicines[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return ErrNotFound
	}
	removed := s.medicines[idx]
	s.medicines = append(s.medicines[:idx], s.medicines[idx+1:]...)
	s.mu.Unlock()

	if err := s.persist.DeleteMedicine(s.userID, id); err != nil {
		s.mu.Lock()
		s.medicines = append(s.medicines, removed)
		s.mu.Unlock()
		return persistenceErr(err)
	}
	return nil
}

// AppendLog appends an immutable intake log to the ledger
func (s *Store) AppendLog(l models.IntakeLog) error {
	if s.userID == 0 {
		return ErrNotPermitted
	}
	if !l.Status.Valid() {
		return &ValidationError{Field: "status", Reason: "unknown log status"}
	}

	s.mu.Lock()
	s.logs = append(s.logs, l)
	s.mu.Unlock()

	if err := s.persist.AppendLog(s.userID, l); err != nil {
		s.mu.Lock()
		s.logs = s.logs[:len(s.logs)-1]
		s.mu.Unlock()
		return persistenceErr(err)
	}
	return nil
}

// UpdateMedicineStock sets the current stock of a medicine and mirrors
// the full medicine record durably
func (s *Store) UpdateMedicineStock(id string, newStock int) error {
	if s.userID == 0 {
		return ErrNotPermitted
	}
	if newStock < 0 {
		return &ValidationError{Field: "currentStock", Reason: "must be non-negative"}
	}

	s.mu.Lock()
	idx := -1
	for i := range s.medicines {
		if s.medicines[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return ErrNotFound
	}
	previous := s.medicines[idx].CurrentStock
	stock := newStock
	s.medicines[idx].CurrentStock = &stock
	updated := s.medicines[idx]
	s.mu.Unlock()

	if err := s.persist.SaveMedicine(s.userID, updated); err != nil {
		s.mu.Lock()
		s.medicines[idx].CurrentStock = previous
		s.mu.Unlock()
		return persistenceErr(err)
	}
	return nil
}

func validateMedicine(m *models.Medicine) error {
	if m.ID == "" {
		return &ValidationError{Field: "id", Reason: "required"}
	}
	if m.Name == "" {
		return &ValidationError{Field: "name", Reason: "required"}
	}
	if m.Dosage == "" {
		return &ValidationError{Field: "dosage", Reason: "required"}
	}
	if !models.ValidTime(m.Time) {
		return &ValidationError{Field: "time", Reason: "must be HH:mm (24-hour)"}
	}
	if !models.ValidFrequency(m.Frequency) {
		return &ValidationError{Field: "frequency", Reason: "unknown frequency"}
	}
	if m.CurrentStock != nil && *m.CurrentStock < 0 {
		return &ValidationError{Field: "currentStock", Reason: "must be non-negative"}
	}
	if m.LowStockThreshold != nil && *m.LowStockThreshold < 0 {
		return &ValidationError{Field: "lowStockThreshold", Reason: "must be non-negative"}
	}
	return nil
}
