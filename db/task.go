package db

// DailyTask is one scheduled dose of a medication on one day
type DailyTask struct {
	ID           string `json:"id"`
	MedicationID string `json:"medication_id"`
	Name         string `json:"name"`
	Kind         Kind   `json:"kind"`
	Dosage       string `json:"dosage"`
	Time         string `json:"time"`
	Eye          Eye    `json:"eye,omitempty"`
	Completed    bool   `json:"completed"`
}

// Day checklist stored for one calendar date
type Day struct {
	Date  string      `json:"date"`
	Tasks []DailyTask `json:"tasks"`
}

func (d *Day) badgerKey() []byte {
	return badgerKeyForDate(d.Date)
}

func badgerKeyForDate(date string) []byte {
	return append([]byte(adherencePrefix), []byte(date)...)
}

const adherencePrefix = "adherence:"
