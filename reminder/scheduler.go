// Package reminder polls the clock and raises dose and course ending alerts.
package reminder

import (
	"context"
	"fmt"
	"sync"
	"time"

	"git.0xdad.com/tblyler/ocutrack/clock"
	"git.0xdad.com/tblyler/ocutrack/db"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

const (
	// DefaultTickInterval between clock polls
	DefaultTickInterval = time.Second
	// NoticeTTL keeps course ending notices long enough to cover the last two days of a course
	NoticeTTL = 48 * time.Hour
)

// Catalog of medications the scheduler reads
type Catalog interface {
	List() []db.Medication
	ActiveOn(date string) []db.Medication
}

// Checklist of daily tasks the scheduler reads and extends on day rollover
type Checklist interface {
	Get(date string) []db.DailyTask
	Ensure(date string, medications []db.Medication) error
}

// NoticeLog remembers course ending notices across restarts
type NoticeLog interface {
	NoticeSeen(key string) (bool, error)
	MarkNotice(key string, ttl time.Duration) error
}

// Options for a Scheduler
type Options struct {
	TickInterval  time.Duration
	LookaheadSpec string
	Location      *time.Location
}

// Scheduler fires each due dose at most once per process and day
type Scheduler struct {
	catalog   Catalog
	checklist Checklist
	notifier  Notifier
	notices   NoticeLog
	log       zerolog.Logger

	now           func() time.Time
	interval      time.Duration
	lookaheadSpec string
	cron          *cron.Cron

	mu         sync.Mutex
	permission Permission
	notified   map[string]string
	lastDate   string

	lookaheadMu sync.Mutex
}

// New scheduler. notices may be nil to keep course ending notices in memory only.
func New(catalog Catalog, checklist Checklist, notifier Notifier, notices NoticeLog, opts Options, logger zerolog.Logger) *Scheduler {
	location := opts.Location
	if location == nil {
		location = time.Local
	}

	interval := opts.TickInterval
	if interval <= 0 {
		interval = DefaultTickInterval
	}

	return &Scheduler{
		catalog:       catalog,
		checklist:     checklist,
		notifier:      notifier,
		notices:       notices,
		log:           logger.With().Str("component", "reminder").Logger(),
		now:           func() time.Time { return time.Now().In(location) },
		interval:      interval,
		lookaheadSpec: opts.LookaheadSpec,
		cron:          cron.New(cron.WithLocation(location)),
		permission:    PermissionDefault,
		notified:      make(map[string]string),
	}
}

// SetPermission for alerts
func (s *Scheduler) SetPermission(permission Permission) {
	s.mu.Lock()
	s.permission = permission
	s.mu.Unlock()
}

// Permission currently in effect
func (s *Scheduler) Permission() Permission {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.permission
}

// Run polls until ctx is done
func (s *Scheduler) Run(ctx context.Context) error {
	if s.lookaheadSpec != "" {
		if _, err := s.cron.AddFunc(s.lookaheadSpec, func() { s.CheckEndingSoon(ctx) }); err != nil {
			return fmt.Errorf("failed to schedule lookahead %q: %w", s.lookaheadSpec, err)
		}

		s.cron.Start()
		defer func() {
			<-s.cron.Stop().Done()
		}()
	}

	s.log.Info().Dur("interval", s.interval).Str("lookahead", s.lookaheadSpec).Msg("scheduler started")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.Tick(ctx)

	for {
		select {
		case <-ctx.Done():
			s.log.Info().Msg("scheduler stopped")
			return nil

		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Tick runs one complete scan: day rollover, then every due dose alert
func (s *Scheduler) Tick(ctx context.Context) {
	now := s.now()
	today := clock.Today(now)

	if s.rollover(today) {
		s.CheckEndingSoon(ctx)
	}

	if s.Permission() != PermissionGranted {
		return
	}

	at := clock.FormatClock(now)
	for _, task := range s.checklist.Get(today) {
		if task.Completed || task.Time != at {
			continue
		}

		key := DoseKey(task.MedicationID, task.Time, today)
		if s.wasNotified(key) {
			continue
		}

		if err := s.notifier.Notify(ctx, DoseAlert(task)); err != nil {
			s.log.Error().Err(err).Str("medication_id", task.MedicationID).Str("time", task.Time).Msg("failed to send dose alert")
			continue
		}

		s.markNotified(key, today)

		s.log.Info().Str("medication_id", task.MedicationID).Str("time", task.Time).Str("date", today).Msg("sent dose alert")
	}
}

// CheckEndingSoon notifies once for every active course whose last day is tomorrow
func (s *Scheduler) CheckEndingSoon(ctx context.Context) {
	s.lookaheadMu.Lock()
	defer s.lookaheadMu.Unlock()

	if s.Permission() != PermissionGranted {
		return
	}

	now := s.now()
	today := clock.Today(now)
	tomorrow := clock.Tomorrow(now)

	for _, medication := range s.catalog.ActiveOn(today) {
		if medication.EndDate != tomorrow {
			continue
		}

		key := CourseEndKey(medication.ID, medication.EndDate)
		if s.noticeSeen(key) {
			continue
		}

		if err := s.notifier.Notify(ctx, CourseEndAlert(medication)); err != nil {
			s.log.Error().Err(err).Str("medication_id", medication.ID).Msg("failed to send course ending alert")
			continue
		}

		s.markNotice(key, today)

		s.log.Info().Str("medication_id", medication.ID).Str("end_date", medication.EndDate).Msg("sent course ending alert")
	}
}

// rollover prepares the checklist when the date changes and reports whether it did
func (s *Scheduler) rollover(today string) bool {
	s.mu.Lock()
	same := s.lastDate == today
	s.mu.Unlock()

	if same {
		return false
	}

	if err := s.checklist.Ensure(today, s.catalog.List()); err != nil {
		s.log.Error().Err(err).Str("date", today).Msg("failed to prepare checklist")
		return false
	}

	s.mu.Lock()
	s.lastDate = today
	for key, date := range s.notified {
		if date != today {
			delete(s.notified, key)
		}
	}
	s.mu.Unlock()

	s.log.Info().Str("date", today).Msg("prepared checklist")

	return true
}

func (s *Scheduler) wasNotified(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.notified[key]
	return ok
}

func (s *Scheduler) markNotified(key, date string) {
	s.mu.Lock()
	s.notified[key] = date
	s.mu.Unlock()
}

func (s *Scheduler) noticeSeen(key string) bool {
	if s.notices != nil {
		seen, err := s.notices.NoticeSeen(key)
		if err == nil {
			return seen || s.wasNotified(key)
		}

		s.log.Warn().Err(err).Str("key", key).Msg("notice log unavailable, using process memory")
	}

	return s.wasNotified(key)
}

func (s *Scheduler) markNotice(key, today string) {
	s.markNotified(key, today)

	if s.notices == nil {
		return
	}

	if err := s.notices.MarkNotice(key, NoticeTTL); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("failed to record notice")
	}
}
