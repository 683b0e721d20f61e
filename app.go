package main

import (
	"context"
	"fmt"
	"time"

	"git.0xdad.com/tblyler/ocutrack/adherence"
	"git.0xdad.com/tblyler/ocutrack/ai"
	"git.0xdad.com/tblyler/ocutrack/catalog"
	"git.0xdad.com/tblyler/ocutrack/clock"
	"git.0xdad.com/tblyler/ocutrack/db"
	"git.0xdad.com/tblyler/ocutrack/notify"
	"git.0xdad.com/tblyler/ocutrack/reminder"
	"git.0xdad.com/tblyler/ocutrack/tasks"
)

// app is the loaded state shared by every command
type app struct {
	badger   *db.Badger
	catalog  *catalog.Catalog
	state    *adherence.State
	engine   *tasks.Engine
	location *time.Location
}

func (c *cli) open() (*app, error) {
	badgerPath, err := c.cfg.BadgerPath()
	if err != nil {
		return nil, err
	}

	location, err := c.cfg.Location()
	if err != nil {
		return nil, err
	}

	policy, err := adherence.ParsePolicy(c.cfg.ReconcilePolicy())
	if err != nil {
		return nil, err
	}

	b, err := db.NewBadger(badgerPath)
	if err != nil {
		return nil, err
	}

	meds := catalog.New(b, c.log)
	if err := meds.Load(c.cfg.SeedCatalog()); err != nil {
		b.Close()
		return nil, err
	}

	engine := tasks.NewEngine(c.log)
	state := adherence.New(b, engine, policy, c.log)
	if err := state.Load(); err != nil {
		b.Close()
		return nil, err
	}

	return &app{
		badger:   b,
		catalog:  meds,
		state:    state,
		engine:   engine,
		location: location,
	}, nil
}

func (a *app) Close() error {
	return a.badger.Close()
}

func (c *cli) today(a *app) string {
	return clock.Today(c.now().In(a.location))
}

// date resolves a --date flag, defaulting to today
func (c *cli) date(a *app, flag string) (string, error) {
	if flag == "" {
		return c.today(a), nil
	}

	if !clock.ValidDate(flag) {
		return "", fmt.Errorf("invalid date %q, want YYYY-MM-DD", flag)
	}

	return flag, nil
}

// checklist for date. Today's list is derived and saved on first use. Future
// dates without a recorded list get an unsaved preview so courses added later
// still show up; past dates only show what was recorded.
func (c *cli) checklist(a *app, date string) ([]db.DailyTask, error) {
	today := c.today(a)
	switch {
	case date == today:
		if err := a.state.Ensure(date, a.catalog.List()); err != nil {
			return nil, err
		}
	case date > today:
		if recorded := a.state.Get(date); len(recorded) > 0 {
			return recorded, nil
		}

		return a.engine.Derive(a.catalog.List(), date), nil
	}

	return a.state.Get(date), nil
}

// notifier uses pushover when it is configured and the log otherwise
func (c *cli) notifier() reminder.Notifier {
	token, err := c.cfg.PushoverAPIToken()
	if err != nil {
		c.log.Warn().Err(err).Msg("pushover disabled, alerts are logged only")
		return notify.NewLog(c.log)
	}

	userKey, err := c.cfg.PushoverUserKey()
	if err != nil {
		c.log.Warn().Err(err).Msg("pushover disabled, alerts are logged only")
		return notify.NewLog(c.log)
	}

	p, err := notify.NewPushover(token, userKey, c.cfg.PushoverDevice(), c.log)
	if err != nil {
		c.log.Warn().Err(err).Msg("pushover disabled, alerts are logged only")
		return notify.NewLog(c.log)
	}

	return p
}

func (c *cli) gateway(ctx context.Context) (*ai.Gemini, error) {
	apiKey, err := c.cfg.GeminiAPIKey()
	if err != nil {
		return nil, err
	}

	timeout, err := c.cfg.AITimeout()
	if err != nil {
		return nil, err
	}

	return ai.NewGemini(ctx, apiKey, c.cfg.GeminiBaseURL(), timeout, c.log)
}
