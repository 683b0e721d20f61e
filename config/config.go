package config

import "time"

// Config for application setup
type Config interface {
	BadgerPath() (string, error)
	PushoverAPIToken() (string, error)
	PushoverUserKey() (string, error)
	PushoverDevice() string
	GeminiAPIKey() (string, error)
	GeminiBaseURL() string
	AITimeout() (time.Duration, error)
	TickInterval() (time.Duration, error)
	LookaheadCron() string
	ReconcilePolicy() string
	SeedCatalog() bool
	Location() (*time.Location, error)
	AudioDir() string
	LogLevel() string
	LogFormat() string
}
