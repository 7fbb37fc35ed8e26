package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"medimind/internal/models"
	"medimind/internal/notify"
	"medimind/internal/repository"
	"medimind/internal/store"
)

var (
	// ErrAlreadyLogged rejects a second taken/skipped decision for the
	// same medicine on the same calendar date
	ErrAlreadyLogged = errors.New("intake already logged for this medicine today")
)

// IntakeService applies intake decisions atomically from the caller's
// perspective: the optimistic in-memory effects build a compensation
// list that is unwound in reverse order when the durable log append
// fails, so stock and ledger never diverge durably.
type IntakeService struct {
	store        *store.Store
	stockChanges *repository.StockChangeRepository
	notifier     notify.Notifier

	now   func() time.Time
	newID func() string
}

func NewIntakeService(st *store.Store, stockChanges *repository.StockChangeRepository, notifier notify.Notifier) *IntakeService {
	return &IntakeService{
		store:        st,
		stockChanges: stockChanges,
		notifier:     notifier,
		now:          time.Now,
		newID:        uuid.NewString,
	}
}

// RecordIntake logs an intake decision for a medicine. On a taken
// decision with stock tracking enabled the stock is decremented by one,
// and a low-stock notification is emitted when the remaining count
// reaches the threshold.
func (s *IntakeService) RecordIntake(medicineID string, status models.LogStatus) (*models.IntakeLog, error) {
	if !status.Valid() {
		return nil, &store.ValidationError{Field: "status", Reason: "unknown log status"}
	}

	med, ok := s.store.GetMedicine(medicineID)
	if !ok {
		return nil, store.ErrNotFound
	}

	now := s.now()
	today := models.DateOf(now)

	if status != models.StatusMissed && s.alreadyDecided(medicineID, today) {
		return nil, ErrAlreadyLogged
	}

	entry := models.IntakeLog{
		ID:         s.newID(),
		MedicineID: medicineID,
		Timestamp:  now.UnixMilli(),
		Status:     status,
		DateStr:    today,
	}

	var compensations []func()
	revert := func() {
		for i := len(compensations) - 1; i >= 0; i-- {
			compensations[i]()
		}
	}

	// The stock decrement commits before the log append; if the append
	// fails it is compensated with an explicit revert write.
	decremented := false
	var stockAfter int
	if status == models.StatusTaken && med.StockTracked() && *med.CurrentStock > 0 {
		before := *med.CurrentStock
		stockAfter = before - 1
		if err := s.store.UpdateMedicineStock(medicineID, stockAfter); err != nil {
			return nil, err
		}
		decremented = true
		compensations = append(compensations, func() {
			if err := s.store.UpdateMedicineStock(medicineID, before); err != nil {
				log.Printf("intake: failed to revert stock for medicine %s: %v", medicineID, err)
			}
		})
	}

	if err := s.store.AppendLog(entry); err != nil {
		revert()
		return nil, err
	}

	if decremented {
		if s.stockChanges != nil {
			err := s.stockChanges.Create(&models.StockChange{
				UserID:       med.UserID,
				MedicineID:   medicineID,
				ChangeAmount: -1,
				StockBefore:  stockAfter + 1,
				StockAfter:   stockAfter,
				Reason:       "intake_taken",
			})
			if err != nil {
				log.Printf("intake: failed to record stock change for medicine %s: %v", medicineID, err)
			}
		}

		if stockAfter <= med.Threshold() {
			s.notifier.Notify(
				"Refill Warning",
				fmt.Sprintf("Low stock for %s. Only %d doses left!", med.Name, stockAfter),
			)
		}
	}

	return &entry, nil
}

// alreadyDecided reports whether a taken or skipped log exists for the
// medicine on the given date. Missed marks do not block a decision.
func (s *IntakeService) alreadyDecided(medicineID, dateStr string) bool {
	for _, l := range s.store.ListLogs() {
		if l.MedicineID == medicineID && l.DateStr == dateStr &&
			(l.Status == models.StatusTaken || l.Status == models.StatusSkipped) {
			return true
		}
	}
	return false
}
