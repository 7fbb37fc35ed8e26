// Package scheduler runs the recurring reminder evaluation loop. At a
// fixed cadence it compares the current minute against each medicine's
// scheduled time and the day's ledger state, and emits at most one
// due-reminder per medicine per matching minute.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"medimind/internal/models"
	"medimind/internal/notify"
)

// State classifies a medicine for one calendar date
type State int

const (
	// Pending: the scheduled minute has not arrived, or it has but no
	// reminder went out yet
	Pending State = iota
	// Notified: reminder emitted, no taken log recorded yet
	Notified
	// Resolved: a taken log exists for the medicine today
	Resolved
)

// Snapshot provides read-only access to the session's current state
type Snapshot interface {
	ListMedicines() []models.Medicine
	ListLogs() []models.IntakeLog
}

// Scheduler polls a session snapshot and emits due reminders. The
// already-notified guard is per-instance state, so independent instances
// (one per session, or several under test) never interfere.
type Scheduler struct {
	snapshot Snapshot
	notifier notify.Notifier
	interval time.Duration
	now      func() time.Time

	lastChecked string            // "2006-01-02 15:04" stamp of the last evaluated minute
	notified    map[string]string // medicine ID -> minute stamp of the emitted reminder
}

func New(snapshot Snapshot, notifier notify.Notifier, interval time.Duration) *Scheduler {
	return &Scheduler{
		snapshot: snapshot,
		notifier: notifier,
		interval: interval,
		now:      time.Now,
		notified: make(map[string]string),
	}
}

// Run polls until ctx is cancelled. Cancellation stops the loop
// immediately; no reminder fires afterwards. Each tick is O(medicines)
// comparison work and never blocks on I/O.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Tick()
		}
	}
}

// Tick evaluates one polling pass. Multiple timer firings landing in the
// same minute window collapse to a single evaluation.
func (s *Scheduler) Tick() {
	now := s.now()
	stamp := now.Format("2006-01-02 15:04")
	if stamp == s.lastChecked {
		return
	}
	s.lastChecked = stamp

	medicines := s.snapshot.ListMedicines()
	if len(medicines) == 0 {
		return
	}

	minute := models.MinuteOf(now)
	today := models.DateOf(now)
	logs := s.snapshot.ListLogs()

	for i := range medicines {
		med := &medicines[i]
		if med.Frequency == models.FrequencyAsNeeded {
			continue
		}
		if !models.ValidTime(med.Time) {
			// a malformed time must not crash the loop; skip this
			// medicine for the tick
			log.Printf("scheduler: medicine %s has malformed time %q, skipping", med.ID, med.Time)
			continue
		}
		if med.Time != minute {
			continue
		}
		if s.stateFor(med.ID, logs, today, stamp) != Pending {
			continue
		}

		s.notified[med.ID] = stamp
		s.notifier.Notify(
			fmt.Sprintf("Time for %s", med.Name),
			fmt.Sprintf("It's %s. Please take %s.", med.Time, med.Dosage),
		)
	}
}

// stateFor classifies a medicine for today: Resolved when a taken log
// exists for today's date, Notified when this instance already emitted a
// reminder for the current minute, Pending otherwise.
func (s *Scheduler) stateFor(medicineID string, logs []models.IntakeLog, today, stamp string) State {
	for i := range logs {
		if logs[i].MedicineID == medicineID &&
			logs[i].DateStr == today &&
			logs[i].Status == models.StatusTaken {
			return Resolved
		}
	}
	if s.notified[medicineID] == stamp {
		return Notified
	}
	return Pending
}
