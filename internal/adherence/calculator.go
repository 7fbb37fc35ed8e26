// Package adherence derives statistics from a ledger snapshot. All
// functions are pure: they never mutate their inputs and hold no state.
package adherence

import (
	"sort"
	"time"

	"medimind/internal/models"
)

const dayMillis = 24 * 60 * 60 * 1000

// Streak holds the consecutive-day taken streaks derived from a ledger
type Streak struct {
	Current int `json:"current"`
	Longest int `json:"longest"`
}

// DayCount tallies taken and skipped logs for one calendar date
type DayCount struct {
	Date    string `json:"date"`
	Taken   int    `json:"taken"`
	Skipped int    `json:"skipped"`
}

// Progress reports today's taken count against the scheduled total
type Progress struct {
	Taken     int `json:"taken"`
	Scheduled int `json:"scheduled"`
}

// Rate computes the adherence rate over a trailing window of whole days:
// taken / (taken + skipped) among logs with timestamp >= now - windowDays.
// Returns 0 when the window holds no taken or skipped logs. Missed logs
// are excluded from the denominator.
func Rate(logs []models.IntakeLog, windowDays int, now time.Time) float64 {
	cutoff := now.UnixMilli() - int64(windowDays)*dayMillis

	var taken, skipped int
	for i := range logs {
		if logs[i].Timestamp < cutoff {
			continue
		}
		switch logs[i].Status {
		case models.StatusTaken:
			taken++
		case models.StatusSkipped:
			skipped++
		}
	}

	if taken+skipped == 0 {
		return 0
	}
	return float64(taken) / float64(taken+skipped)
}

// Streaks derives the current and longest consecutive-day taken streaks.
// A day counts when at least one taken log exists for its date. The
// current streak is alive only while the most recent taken date is today
// or yesterday.
func Streaks(logs []models.IntakeLog, today string) Streak {
	dates := takenDates(logs)
	if len(dates) == 0 {
		return Streak{}
	}

	todayT, err := time.Parse("2006-01-02", today)
	if err != nil {
		return Streak{}
	}

	longest, run := 1, 1
	for i := 1; i < len(dates); i++ {
		if dates[i].Sub(dates[i-1]) == 24*time.Hour {
			run++
		} else {
			run = 1
		}
		if run > longest {
			longest = run
		}
	}

	current := 0
	last := dates[len(dates)-1]
	if gap := todayT.Sub(last); gap == 0 || gap == 24*time.Hour {
		current = run
	}

	return Streak{Current: current, Longest: longest}
}

// LowStock reports whether a medicine's remaining stock has reached its
// low-stock threshold
func LowStock(m *models.Medicine) bool {
	return m.StockTracked() && *m.CurrentStock <= m.Threshold()
}

// DailyProgress tallies today's taken logs against the number of
// medicines on the schedule
func DailyProgress(medicines []models.Medicine, logs []models.IntakeLog, today string) Progress {
	taken := 0
	for i := range logs {
		if logs[i].DateStr == today && logs[i].Status == models.StatusTaken {
			taken++
		}
	}
	return Progress{Taken: taken, Scheduled: len(medicines)}
}

// LastNDays tallies taken and skipped logs per day for the n days ending
// today, oldest first
func LastNDays(logs []models.IntakeLog, n int, today time.Time) []DayCount {
	byDate := make(map[string]*DayCount, n)
	days := make([]DayCount, n)
	for i := 0; i < n; i++ {
		d := models.DateOf(today.AddDate(0, 0, i-n+1))
		days[i] = DayCount{Date: d}
		byDate[d] = &days[i]
	}

	for i := range logs {
		dc, ok := byDate[logs[i].DateStr]
		if !ok {
			continue
		}
		switch logs[i].Status {
		case models.StatusTaken:
			dc.Taken++
		case models.StatusSkipped:
			dc.Skipped++
		}
	}

	return days
}

// takenDates returns the distinct calendar dates carrying at least one
// taken log, parsed and sorted ascending. Malformed dates are skipped.
func takenDates(logs []models.IntakeLog) []time.Time {
	seen := make(map[string]bool)
	var dates []time.Time
	for i := range logs {
		if logs[i].Status != models.StatusTaken || seen[logs[i].DateStr] {
			continue
		}
		seen[logs[i].DateStr] = true
		d, err := time.Parse("2006-01-02", logs[i].DateStr)
		if err != nil {
			continue
		}
		dates = append(dates, d)
	}

	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates
}
