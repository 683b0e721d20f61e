package db

import (
	"time"
)

// Kind of medication
type Kind string

const (
	// KindDrops for eye drops
	KindDrops Kind = "DROPS"
	// KindTablet for tablets and capsules
	KindTablet Kind = "TABLET"
)

// Eye a drop is administered to
type Eye string

const (
	EyeLeft  Eye = "Left"
	EyeRight Eye = "Right"
	EyeBoth  Eye = "Both"
)

// Medication course information
type Medication struct {
	ID        string    `json:"id" validate:"required"`
	Name      string    `json:"name" validate:"required"`
	Kind      Kind      `json:"kind" validate:"required,oneof=DROPS TABLET"`
	Dosage    string    `json:"dosage"`
	Frequency int       `json:"frequency" validate:"gte=0"`
	Times     []string  `json:"times" validate:"dive,clocktime"`
	StartDate string    `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate   string    `json:"end_date" validate:"required,datetime=2006-01-02"`
	Eye       Eye       `json:"eye,omitempty" validate:"omitempty,oneof=Left Right Both"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ActiveOn reports whether the course covers the given date, both ends inclusive
func (m *Medication) ActiveOn(date string) bool {
	return m.StartDate <= date && date <= m.EndDate
}

const medicationsKey = "medications"
