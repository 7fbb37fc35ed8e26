package repository

import (
	"medimind/internal/database"
	"medimind/internal/models"
)

// Persistence bundles the medicine and intake-log repositories behind the
// store's durable-collaborator contract
type Persistence struct {
	medicines *MedicineRepository
	logs      *IntakeLogRepository
}

func NewPersistence(db *database.DB) *Persistence {
	return &Persistence{
		medicines: NewMedicineRepository(db),
		logs:      NewIntakeLogRepository(db),
	}
}

func (p *Persistence) LoadMedicines(userID int64) ([]models.Medicine, error) {
	return p.medicines.List(userID)
}

func (p *Persistence) LoadLogs(userID int64) ([]models.IntakeLog, error) {
	return p.logs.List(userID)
}

func (p *Persistence) SaveMedicine(userID int64, m models.Medicine) error {
	return p.medicines.Save(userID, &m)
}

func (p *Persistence) DeleteMedicine(userID int64, id string) error {
	return p.medicines.Delete(userID, id)
}

func (p *Persistence) AppendLog(userID int64, l models.IntakeLog) error {
	return p.logs.Append(userID, &l)
}
