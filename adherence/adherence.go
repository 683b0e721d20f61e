// Package adherence tracks which doses were taken, one checklist per calendar date.
package adherence

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"git.0xdad.com/tblyler/ocutrack/db"
	"git.0xdad.com/tblyler/ocutrack/tasks"
	"github.com/rs/zerolog"
)

var (
	// ErrTaskNotFound occurs when a toggle references no task of the date
	ErrTaskNotFound = errors.New("task not found")
	// ErrUnknownPolicy occurs when a reconciliation policy name is not recognised
	ErrUnknownPolicy = errors.New("unknown reconciliation policy")
)

// Policy for dates whose checklist already exists when the catalog changes
type Policy string

const (
	// PolicyFreeze keeps a date's checklist exactly as first generated
	PolicyFreeze Policy = "freeze"
	// PolicyMerge re-derives the checklist and carries completion over by task id
	PolicyMerge Policy = "merge"
)

// ParsePolicy from configuration, empty means PolicyFreeze
func ParsePolicy(s string) (Policy, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(s))) {
	case "", PolicyFreeze:
		return PolicyFreeze, nil
	case PolicyMerge:
		return PolicyMerge, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownPolicy, s)
	}
}

// Store persists checklists by date
type Store interface {
	LoadAdherence() (map[string][]db.DailyTask, []string, error)
	SaveDay(date string, tasks []db.DailyTask) error
}

// State maps dates to their ordered checklist
type State struct {
	mu     sync.Mutex
	days   map[string][]db.DailyTask
	store  Store
	engine *tasks.Engine
	policy Policy
	log    zerolog.Logger
}

// New empty state. Call Load to restore the persisted checklists.
func New(store Store, engine *tasks.Engine, policy Policy, logger zerolog.Logger) *State {
	if policy == "" {
		policy = PolicyFreeze
	}

	return &State{
		days:   make(map[string][]db.DailyTask),
		store:  store,
		engine: engine,
		policy: policy,
		log:    logger.With().Str("component", "adherence").Logger(),
	}
}

// Load every persisted checklist, replacing the in-memory state
func (s *State) Load() error {
	days, skipped, err := s.store.LoadAdherence()
	if err != nil {
		return fmt.Errorf("failed to load adherence: %w", err)
	}

	for _, key := range skipped {
		s.log.Warn().Str("key", key).Msg("ignoring malformed checklist")
	}

	s.Restore(days)

	return nil
}

// Get the checklist for date, empty when none exists
func (s *State) Get(date string) []db.DailyTask {
	s.mu.Lock()
	defer s.mu.Unlock()

	return cloneTasks(s.days[date])
}

// Dates with a stored checklist, ascending
func (s *State) Dates() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	dates := make([]string, 0, len(s.days))
	for date := range s.days {
		dates = append(dates, date)
	}
	sort.Strings(dates)

	return dates
}

// SetIfAbsent installs tasks for date unless a non-empty checklist already exists.
// It reports whether the tasks were installed.
func (s *State) SetIfAbsent(date string, checklist []db.DailyTask) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.setIfAbsent(date, checklist)
}

// Ensure the checklist for date exists, deriving it from medications when absent.
// An existing checklist is left alone under PolicyFreeze and reconciled under
// PolicyMerge.
func (s *State) Ensure(date string, medications []db.Medication) error {
	derived := s.engine.Derive(medications, date)

	s.mu.Lock()
	defer s.mu.Unlock()

	installed, err := s.setIfAbsent(date, derived)
	if err != nil || installed || s.policy != PolicyMerge {
		return err
	}

	current := s.days[date]
	merged := merge(current, derived)
	if sameTasks(current, merged) {
		return nil
	}

	if err := s.save(date, merged); err != nil {
		return err
	}

	s.log.Info().Str("date", date).Int("before", len(current)).Int("after", len(merged)).Msg("reconciled checklist with catalog")

	return nil
}

// Toggle the completion of the task at index within the full checklist for date
func (s *State) Toggle(date string, index int) (db.DailyTask, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.days[date]
	if index < 0 || index >= len(current) {
		return db.DailyTask{}, fmt.Errorf("failed to toggle index %d on %s: %w", index, date, ErrTaskNotFound)
	}

	return s.toggle(date, index)
}

// ToggleByID flips the completion of the task with the given id
func (s *State) ToggleByID(date, id string) (db.DailyTask, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, task := range s.days[date] {
		if task.ID == id {
			return s.toggle(date, i)
		}
	}

	return db.DailyTask{}, fmt.Errorf("failed to toggle task %s on %s: %w", id, date, ErrTaskNotFound)
}

// Snapshot of every checklist
func (s *State) Snapshot() map[string][]db.DailyTask {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string][]db.DailyTask, len(s.days))
	for date, checklist := range s.days {
		out[date] = cloneTasks(checklist)
	}

	return out
}

// Restore replaces every checklist with data
func (s *State) Restore(data map[string][]db.DailyTask) {
	days := make(map[string][]db.DailyTask, len(data))
	for date, checklist := range data {
		days[date] = cloneTasks(checklist)
	}

	s.mu.Lock()
	s.days = days
	s.mu.Unlock()
}

// caller must hold s.mu
func (s *State) setIfAbsent(date string, checklist []db.DailyTask) (bool, error) {
	if len(s.days[date]) > 0 {
		return false, nil
	}

	if err := s.save(date, cloneTasks(checklist)); err != nil {
		return false, err
	}

	s.log.Debug().Str("date", date).Int("tasks", len(checklist)).Msg("generated checklist")

	return true, nil
}

// caller must hold s.mu
func (s *State) toggle(date string, index int) (db.DailyTask, error) {
	next := cloneTasks(s.days[date])
	next[index].Completed = !next[index].Completed

	if err := s.save(date, next); err != nil {
		return db.DailyTask{}, err
	}

	return next[index], nil
}

// save persists first so a failed write leaves memory untouched. caller must hold s.mu
func (s *State) save(date string, checklist []db.DailyTask) error {
	if err := s.store.SaveDay(date, checklist); err != nil {
		return fmt.Errorf("failed to save checklist for %s: %w", date, err)
	}

	s.days[date] = checklist

	return nil
}

func merge(current, derived []db.DailyTask) []db.DailyTask {
	byID := make(map[string]db.DailyTask, len(current))
	for _, task := range current {
		byID[task.ID] = task
	}

	merged := make([]db.DailyTask, 0, len(derived))
	for _, task := range derived {
		if existing, ok := byID[task.ID]; ok {
			task.Completed = existing.Completed
			delete(byID, task.ID)
		}
		merged = append(merged, task)
	}

	// keep tasks the catalog no longer produces so recorded doses are not lost
	for _, task := range current {
		if _, ok := byID[task.ID]; ok {
			merged = append(merged, task)
		}
	}

	tasks.SortByTime(merged)

	return merged
}

func sameTasks(a, b []db.DailyTask) bool {
	if len(a) != len(b) {
		return false
	}

	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}

	return true
}

func cloneTasks(in []db.DailyTask) []db.DailyTask {
	out := make([]db.DailyTask, len(in))
	copy(out, in)
	return out
}
