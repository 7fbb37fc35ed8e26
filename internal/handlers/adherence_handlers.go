package handlers

import (
	"net/http"
	"sort"
	"strconv"
	"time"

	"medimind/internal/adherence"
	"medimind/internal/models"
	"medimind/internal/services"
)

// AdherenceResponse aggregates the adherence statistics for the
// dashboard view
type AdherenceResponse struct {
	Rate       float64              `json:"rate"`
	WindowDays int                  `json:"windowDays"`
	Streak     adherence.Streak     `json:"streak"`
	Today      adherence.Progress   `json:"today"`
	History    []adherence.DayCount `json:"history"`
	LowStock   []models.Medicine    `json:"lowStock"`
}

// ScheduleEntry is one medicine's slot in today's schedule
type ScheduleEntry struct {
	Medicine models.Medicine `json:"medicine"`
	Status   string          `json:"status"` // pending, taken, or skipped
}

// HandleGetAdherence returns the adherence rate, streaks, today's
// progress and recent per-day history
func HandleGetAdherence(sessions *services.SessionManager, windowDays int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := requireSession(w, r, sessions)
		if !ok {
			return
		}

		window := windowDays
		if v := r.URL.Query().Get("window"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 365 {
				window = n
			}
		}

		now := time.Now()
		today := models.DateOf(now)
		medicines := session.Store.ListMedicines()
		logs := session.Store.ListLogs()

		lowStock := make([]models.Medicine, 0)
		for i := range medicines {
			if adherence.LowStock(&medicines[i]) {
				lowStock = append(lowStock, medicines[i])
			}
		}

		respondJSON(w, http.StatusOK, AdherenceResponse{
			Rate:       adherence.Rate(logs, window, now),
			WindowDays: window,
			Streak:     adherence.Streaks(logs, today),
			Today:      adherence.DailyProgress(medicines, logs, today),
			History:    adherence.LastNDays(logs, window, now),
			LowStock:   lowStock,
		})
	}
}

// HandleGetTodaySchedule returns today's scheduled doses, ordered by
// time, each annotated with its resolution status
func HandleGetTodaySchedule(sessions *services.SessionManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := requireSession(w, r, sessions)
		if !ok {
			return
		}

		today := models.DateOf(time.Now())
		logs := session.Store.ListLogs()

		// Latest decision wins when a medicine has several logs today
		decided := make(map[string]models.IntakeLog)
		for _, l := range logs {
			if l.DateStr != today {
				continue
			}
			if prev, ok := decided[l.MedicineID]; !ok || l.Timestamp > prev.Timestamp {
				decided[l.MedicineID] = l
			}
		}

		entries := make([]ScheduleEntry, 0)
		for _, m := range session.Store.ListMedicines() {
			if m.Frequency == models.FrequencyAsNeeded {
				continue
			}
			status := "pending"
			if l, ok := decided[m.ID]; ok {
				status = string(l.Status)
			}
			entries = append(entries, ScheduleEntry{Medicine: m, Status: status})
		}

		sort.Slice(entries, func(i, j int) bool {
			return entries[i].Medicine.Time < entries[j].Medicine.Time
		})

		respondJSON(w, http.StatusOK, entries)
	}
}
