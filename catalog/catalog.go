// Package catalog holds the list of prescribed medication courses.
package catalog

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"git.0xdad.com/tblyler/ocutrack/clock"
	"git.0xdad.com/tblyler/ocutrack/db"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var (
	// ErrValidation occurs when a medication is missing mandatory fields or has invalid values
	ErrValidation = errors.New("invalid medication")
	// ErrDuplicateID occurs when a medication id is already in the catalog
	ErrDuplicateID = errors.New("medication id already exists")
)

// Status of a course relative to a date
type Status string

const (
	StatusActive    Status = "ACTIVE"
	StatusCompleted Status = "COMPLETED"
	StatusUpcoming  Status = "UPCOMING"
)

// ValidationError lists every problem found with a medication
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", ErrValidation, strings.Join(e.Problems, "; "))
}

// Unwrap to ErrValidation
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// Store persists the medication snapshot
type Store interface {
	LoadMedications() ([]db.Medication, error)
	SaveMedications([]db.Medication) error
}

// Catalog of medications in insertion order
type Catalog struct {
	mu          sync.RWMutex
	medications []db.Medication
	store       Store
	validate    *validator.Validate
	log         zerolog.Logger
	now         func() time.Time
}

// New catalog backed by the given store. Call Load before use.
func New(store Store, logger zerolog.Logger) *Catalog {
	return &Catalog{
		store:    store,
		validate: newValidator(),
		log:      logger.With().Str("component", "catalog").Logger(),
		now:      time.Now,
	}
}

// NewID for a medication created by hand
func NewID() string {
	return uuid.New().String()
}

// Load the snapshot from the store. An absent or malformed snapshot leaves the
// catalog empty, or seeded with SeedCatalog when seed is true.
func (c *Catalog) Load(seed bool) error {
	medications, err := c.store.LoadMedications()
	if errors.Is(err, db.ErrMalformedSnapshot) {
		c.log.Warn().Err(err).Msg("ignoring malformed medication snapshot")
		medications, err = nil, nil
	}

	if err != nil {
		return fmt.Errorf("failed to load medications: %w", err)
	}

	if len(medications) == 0 && seed {
		medications = SeedCatalog()
		if err := c.store.SaveMedications(medications); err != nil {
			return fmt.Errorf("failed to save seed medications: %w", err)
		}

		c.log.Info().Int("count", len(medications)).Msg("seeded medication catalog")
	}

	c.mu.Lock()
	c.medications = medications
	c.mu.Unlock()

	return nil
}

// List every medication in insertion order
func (c *Catalog) List() []db.Medication {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.filter(func(*db.Medication) bool { return true })
}

// Get a medication by id
func (c *Catalog) Get(id string) (db.Medication, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for i := range c.medications {
		if c.medications[i].ID == id {
			return cloneMedication(c.medications[i]), true
		}
	}

	return db.Medication{}, false
}

// Add a medication to the end of the catalog. Times are stored in the
// "H:MM AM|PM" form the scheduler matches against. Nothing changes when
// validation or persistence fails.
func (c *Catalog) Add(medication db.Medication) error {
	medication = cloneMedication(medication)
	normalizeTimes(&medication)

	if err := c.check(&medication); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.medications {
		if c.medications[i].ID == medication.ID {
			return fmt.Errorf("failed to add medication %s: %w", medication.ID, ErrDuplicateID)
		}
	}

	if medication.CreatedAt.IsZero() {
		medication.CreatedAt = c.now()
	}

	next := append(c.filter(func(*db.Medication) bool { return true }), cloneMedication(medication))
	if err := c.store.SaveMedications(next); err != nil {
		return fmt.Errorf("failed to save medication %s: %w", medication.ID, err)
	}

	c.medications = next

	c.log.Info().Str("id", medication.ID).Str("name", medication.Name).Msg("added medication")

	return nil
}

// ActiveOn returns the medications whose course covers date
func (c *Catalog) ActiveOn(date string) []db.Medication {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.filter(func(m *db.Medication) bool { return m.ActiveOn(date) })
}

// CompletedBefore returns the medications whose course ended before date
func (c *Catalog) CompletedBefore(date string) []db.Medication {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.filter(func(m *db.Medication) bool { return m.EndDate < date })
}

// UpcomingAfter returns the medications whose course starts after date
func (c *Catalog) UpcomingAfter(date string) []db.Medication {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.filter(func(m *db.Medication) bool { return m.StartDate > date })
}

// StatusOn for a single medication
func StatusOn(medication db.Medication, date string) Status {
	switch {
	case medication.EndDate < date:
		return StatusCompleted
	case medication.StartDate > date:
		return StatusUpcoming
	default:
		return StatusActive
	}
}

// DefaultTimes suggested for a daily frequency when none are given
func DefaultTimes(frequency int) []string {
	switch frequency {
	case 1:
		return []string{"9:00 AM"}
	case 2:
		return []string{"9:00 AM", "9:00 PM"}
	case 3:
		return []string{"9:00 AM", "3:00 PM", "9:00 PM"}
	case 4:
		return []string{"8:00 AM", "12:00 PM", "4:00 PM", "8:00 PM"}
	default:
		return nil
	}
}

// caller must hold c.mu
func (c *Catalog) filter(keep func(*db.Medication) bool) []db.Medication {
	out := make([]db.Medication, 0, len(c.medications))
	for i := range c.medications {
		if keep(&c.medications[i]) {
			out = append(out, cloneMedication(c.medications[i]))
		}
	}

	return out
}

func (c *Catalog) check(medication *db.Medication) error {
	var problems []string

	err := c.validate.Struct(medication)
	if err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return fmt.Errorf("failed to validate medication: %w", err)
		}

		for _, fe := range fieldErrs {
			problems = append(problems, describe(fe))
		}
	}

	if medication.Frequency > 0 && len(medication.Times) == 0 {
		problems = append(problems, "times: at least one time is required when frequency is set")
	}

	if clock.ValidDate(medication.StartDate) && clock.ValidDate(medication.EndDate) && medication.EndDate < medication.StartDate {
		problems = append(problems, "end_date: must not be before start_date")
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}

	return nil
}

// unparsable times are left alone for the clocktime rule to report
func normalizeTimes(medication *db.Medication) {
	for i, t := range medication.Times {
		if normalized, err := clock.Normalize(t); err == nil {
			medication.Times[i] = normalized
		}
	}
}

func describe(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + ": required"
	case "datetime":
		return fmt.Sprintf("%s: %q is not a YYYY-MM-DD date", field, fe.Value())
	case "oneof":
		return fmt.Sprintf("%s: %q must be one of %s", field, fe.Value(), fe.Param())
	case "clocktime":
		return fmt.Sprintf("%s: %q is not an H:MM AM|PM time", field, fe.Value())
	default:
		return fmt.Sprintf("%s: failed %s", field, fe.Tag())
	}
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// registration only fails for an empty tag or nil func
	_ = v.RegisterValidation("clocktime", func(fl validator.FieldLevel) bool {
		_, err := clock.TimeToMinutes(fl.Field().String())
		return err == nil
	})

	return v
}

func cloneMedication(m db.Medication) db.Medication {
	m.Times = append([]string(nil), m.Times...)
	return m
}
