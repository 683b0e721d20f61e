// Package tasks derives the ordered dose checklist for a day from the medication catalog.
package tasks

import (
	"fmt"
	"math"
	"sort"

	"git.0xdad.com/tblyler/ocutrack/clock"
	"git.0xdad.com/tblyler/ocutrack/db"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var taskNamespace = uuid.MustParse("6f1c7d2e-3b1a-4c55-9a43-0d6e2f8b9c11")

// Engine derives daily tasks
type Engine struct {
	log zerolog.Logger
}

// NewEngine for deriving tasks
func NewEngine(logger zerolog.Logger) *Engine {
	return &Engine{
		log: logger.With().Str("component", "tasks").Logger(),
	}
}

// Derive the checklist for date: one task per time of every medication active on
// date, ordered by time of day. Ties keep catalog order then time-list order.
// Times that fail to parse sort after every valid time.
func (e *Engine) Derive(medications []db.Medication, date string) []db.DailyTask {
	var out []db.DailyTask
	var minutes []int

	for _, medication := range medications {
		if !medication.ActiveOn(date) {
			continue
		}

		seen := make(map[string]int, len(medication.Times))
		for _, t := range medication.Times {
			n := seen[t]
			seen[t]++

			m, err := clock.TimeToMinutes(t)
			if err != nil {
				e.log.Warn().Err(err).Str("medication_id", medication.ID).Str("date", date).Msg("sorting malformed dose time last")
				m = math.MaxInt32
			}

			out = append(out, db.DailyTask{
				ID:           TaskID(medication.ID, date, t, n),
				MedicationID: medication.ID,
				Name:         medication.Name,
				Kind:         medication.Kind,
				Dosage:       medication.Dosage,
				Time:         t,
				Eye:          medication.Eye,
			})
			minutes = append(minutes, m)
		}
	}

	if len(out) == 0 {
		return []db.DailyTask{}
	}

	sort.Stable(byMinutes{tasks: out, minutes: minutes})

	return out
}

// TaskID is stable for the same medication, date, time and repeat number
func TaskID(medicationID, date, time string, n int) string {
	return uuid.NewSHA1(taskNamespace, []byte(fmt.Sprintf("%s|%s|%s|%d", medicationID, date, time, n))).String()
}

// SortByTime orders tasks by time of day without changing the order of ties
func SortByTime(tasks []db.DailyTask) {
	minutes := make([]int, len(tasks))
	for i := range tasks {
		m, err := clock.TimeToMinutes(tasks[i].Time)
		if err != nil {
			m = math.MaxInt32
		}
		minutes[i] = m
	}

	sort.Stable(byMinutes{tasks: tasks, minutes: minutes})
}

type byMinutes struct {
	tasks   []db.DailyTask
	minutes []int
}

func (b byMinutes) Len() int           { return len(b.tasks) }
func (b byMinutes) Less(i, j int) bool { return b.minutes[i] < b.minutes[j] }
func (b byMinutes) Swap(i, j int) {
	b.tasks[i], b.tasks[j] = b.tasks[j], b.tasks[i]
	b.minutes[i], b.minutes[j] = b.minutes[j], b.minutes[i]
}
