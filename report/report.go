// Package report renders a day's checklist for export and for speech.
package report

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"git.0xdad.com/tblyler/ocutrack/db"
)

const (
	// StatusCompleted for a taken dose
	StatusCompleted = "COMPLETED"
	// StatusPending for a dose still to take
	StatusPending = "PENDING"

	// AllDoneSentence spoken once nothing is left for the day
	AllDoneSentence = "You have finished all your medicines for today. Well done!"

	generatedAtLayout = "2006-01-02T15:04:05.000Z07:00"
)

// Metadata about an export
type Metadata struct {
	GeneratedAt           string `json:"generatedAt"`
	ReferenceDate         string `json:"referenceDate"`
	ActiveMedicationCount int    `json:"activeMedicationCount"`
	TotalDosesToday       int    `json:"totalDosesToday"`
}

// Entry for one dose in an export
type Entry struct {
	ID       string  `json:"id"`
	Medicine string  `json:"medicine"`
	Time     string  `json:"time"`
	Type     db.Kind `json:"type"`
	Target   string  `json:"target"`
	Status   string  `json:"status"`
}

// Document exported for a date
type Document struct {
	Metadata Metadata `json:"metadata"`
	Schedule []Entry  `json:"schedule"`
}

// Build the export document. Entry IDs are medication IDs.
func Build(now time.Time, date string, active []db.Medication, checklist []db.DailyTask) Document {
	doc := Document{
		Metadata: Metadata{
			GeneratedAt:           now.UTC().Format(generatedAtLayout),
			ReferenceDate:         date,
			ActiveMedicationCount: len(active),
			TotalDosesToday:       len(checklist),
		},
		Schedule: make([]Entry, 0, len(checklist)),
	}

	for _, task := range checklist {
		target := string(task.Eye)
		if target == "" {
			target = "N/A"
		}

		status := StatusPending
		if task.Completed {
			status = StatusCompleted
		}

		doc.Schedule = append(doc.Schedule, Entry{
			ID:       task.MedicationID,
			Medicine: task.Name,
			Time:     task.Time,
			Type:     task.Kind,
			Target:   target,
			Status:   status,
		})
	}

	return doc
}

// Export the document as JSON indented by two spaces
func Export(now time.Time, date string, active []db.Medication, checklist []db.DailyTask) ([]byte, error) {
	out, err := json.MarshalIndent(Build(now, date, active, checklist), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal export for %s: %w", date, err)
	}

	return out, nil
}

// Summary of a day's progress
type Summary struct {
	Completed int
	Total     int
	Percent   int
}

// Progress over checklist. An empty checklist is 0%.
func Progress(checklist []db.DailyTask) Summary {
	summary := Summary{Total: len(checklist)}
	for _, task := range checklist {
		if task.Completed {
			summary.Completed++
		}
	}

	if summary.Total > 0 {
		summary.Percent = int(math.Round(float64(summary.Completed) / float64(summary.Total) * 100))
	}

	return summary
}

// Remaining tasks in checklist order
func Remaining(checklist []db.DailyTask) []db.DailyTask {
	remaining := []db.DailyTask{}
	for _, task := range checklist {
		if !task.Completed {
			remaining = append(remaining, task)
		}
	}

	return remaining
}

// SpokenSummary of what is left today
func SpokenSummary(checklist []db.DailyTask) string {
	remaining := Remaining(checklist)
	if len(remaining) == 0 {
		return AllDoneSentence
	}

	next := remaining[0]
	if next.Eye == "" {
		return fmt.Sprintf("You have %d doses left. The next one is %s at %s.", len(remaining), next.Name, next.Time)
	}

	return fmt.Sprintf("You have %d doses left. The next one is %s for your %s eye at %s.", len(remaining), next.Name, next.Eye, next.Time)
}
