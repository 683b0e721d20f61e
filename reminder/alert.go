package reminder

import (
	"context"
	"fmt"

	"git.0xdad.com/tblyler/ocutrack/db"
)

// AlertKind groups alerts for delivery priority
type AlertKind string

const (
	AlertDose      AlertKind = "dose"
	AlertCourseEnd AlertKind = "course_end"
	AlertSystem    AlertKind = "system"
)

// Alert shown to the user
type Alert struct {
	Kind         AlertKind
	Title        string
	Body         string
	MedicationID string
}

// Notifier delivers alerts
type Notifier interface {
	Notify(ctx context.Context, alert Alert) error
}

// DoseAlert for a due task
func DoseAlert(task db.DailyTask) Alert {
	target := "Tablet"
	if task.Eye != "" {
		target = string(task.Eye) + " Eye"
	}

	return Alert{
		Kind:         AlertDose,
		Title:        "Time for " + task.Name,
		Body:         fmt.Sprintf("Please take your %s (%s).", task.Dosage, target),
		MedicationID: task.MedicationID,
	}
}

// CourseEndAlert for a medication whose last day is tomorrow
func CourseEndAlert(medication db.Medication) Alert {
	return Alert{
		Kind:         AlertCourseEnd,
		Title:        "OcuTrack Reminder",
		Body:         fmt.Sprintf("%s course ends tomorrow (%s). Please check your prescription.", medication.Name, medication.EndDate),
		MedicationID: medication.ID,
	}
}

// EnabledAlert confirms alerts were switched on
func EnabledAlert() Alert {
	return Alert{
		Kind:  AlertSystem,
		Title: "OcuTrack Notifications Enabled",
		Body:  "You will now receive alerts for your medication.",
	}
}

// DoseKey identifies a dose alert for de-duplication
func DoseKey(medicationID, time, date string) string {
	return medicationID + "|" + time + "|" + date
}

// CourseEndKey identifies a course ending notice for de-duplication
func CourseEndKey(medicationID, endDate string) string {
	return "course-end:" + medicationID + ":" + endDate
}
