package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	// BadgerPathEnv name
	BadgerPathEnv = "BADGER_PATH"
	// PushoverAPITokenEnv name
	PushoverAPITokenEnv = "PUSHOVER_API_TOKEN"
	// PushoverUserKeyEnv name
	PushoverUserKeyEnv = "PUSHOVER_USER_KEY"
	// PushoverDeviceEnv name
	PushoverDeviceEnv = "PUSHOVER_DEVICE"
	// GeminiAPIKeyEnv name
	GeminiAPIKeyEnv = "GEMINI_API_KEY"
	// GeminiBaseURLEnv name
	GeminiBaseURLEnv = "GEMINI_BASE_URL"
	// AITimeoutEnv name
	AITimeoutEnv = "AI_TIMEOUT"
	// TickIntervalEnv name
	TickIntervalEnv = "TICK_INTERVAL"
	// LookaheadCronEnv name
	LookaheadCronEnv = "LOOKAHEAD_CRON"
	// ReconcilePolicyEnv name
	ReconcilePolicyEnv = "RECONCILE_POLICY"
	// SeedCatalogEnv name
	SeedCatalogEnv = "SEED_CATALOG"
	// TimezoneEnv name
	TimezoneEnv = "TIMEZONE"
	// AudioDirEnv name
	AudioDirEnv = "AUDIO_DIR"
	// LogLevelEnv name
	LogLevelEnv = "LOG_LEVEL"
	// LogFormatEnv name
	LogFormatEnv = "LOG_FORMAT"

	// DefaultConfigFile read when present
	DefaultConfigFile = ".env"
)

var (
	// ErrEnvVariableNotSet occurs when an environment variable is not set
	ErrEnvVariableNotSet = errors.New("environment variable is not set")
)

// Env variable Config implementation. Values may also come from a .env file;
// the environment wins.
type Env struct {
	v *viper.Viper
}

// NewEnv reads DefaultConfigFile if it exists
func NewEnv() *Env {
	return NewEnvFile(DefaultConfigFile)
}

// NewEnvFile reads configFile if it exists. An empty path reads the environment only.
func NewEnvFile(configFile string) *Env {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault(AITimeoutEnv, "30s")
	v.SetDefault(TickIntervalEnv, "1s")
	v.SetDefault(LookaheadCronEnv, "0 9 * * *")
	v.SetDefault(ReconcilePolicyEnv, "freeze")
	v.SetDefault(SeedCatalogEnv, false)
	v.SetDefault(AudioDirEnv, "./audio")
	v.SetDefault(LogLevelEnv, "info")
	v.SetDefault(LogFormatEnv, "console")

	if configFile != "" {
		v.SetConfigFile(configFile)
		v.SetConfigType("env")

		// a missing file is fine
		_ = v.ReadInConfig()
	}

	return &Env{v: v}
}

func (e *Env) required(key, what string) (string, error) {
	val := strings.TrimSpace(e.v.GetString(key))
	if val == "" {
		return "", fmt.Errorf(
			"unable to get %s from env variable %s: %w",
			what,
			key,
			ErrEnvVariableNotSet,
		)
	}

	return val, nil
}

func (e *Env) duration(key string) (time.Duration, error) {
	raw := e.v.GetString(key)

	val, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q in env variable %s: %w", raw, key, err)
	}

	if val <= 0 {
		return 0, fmt.Errorf("env variable %s must be positive, got %s", key, val)
	}

	return val, nil
}

// BadgerPath for the database directory
func (e *Env) BadgerPath() (string, error) {
	return e.required(BadgerPathEnv, "badger path")
}

// PushoverAPIToken getter
func (e *Env) PushoverAPIToken() (string, error) {
	return e.required(PushoverAPITokenEnv, "pushover API token")
}

// PushoverUserKey getter
func (e *Env) PushoverUserKey() (string, error) {
	return e.required(PushoverUserKeyEnv, "pushover user key")
}

// PushoverDevice getter, empty for all devices
func (e *Env) PushoverDevice() string {
	return e.v.GetString(PushoverDeviceEnv)
}

// GeminiAPIKey getter
func (e *Env) GeminiAPIKey() (string, error) {
	return e.required(GeminiAPIKeyEnv, "gemini API key")
}

// GeminiBaseURL getter, empty for the public endpoint
func (e *Env) GeminiBaseURL() string {
	return e.v.GetString(GeminiBaseURLEnv)
}

// AITimeout per model call
func (e *Env) AITimeout() (time.Duration, error) {
	return e.duration(AITimeoutEnv)
}

// TickInterval of the reminder loop
func (e *Env) TickInterval() (time.Duration, error) {
	return e.duration(TickIntervalEnv)
}

// LookaheadCron schedule for course ending notices
func (e *Env) LookaheadCron() string {
	return e.v.GetString(LookaheadCronEnv)
}

// ReconcilePolicy for checklists of already generated dates
func (e *Env) ReconcilePolicy() string {
	return e.v.GetString(ReconcilePolicyEnv)
}

// SeedCatalog installs the built-in catalog into an empty store
func (e *Env) SeedCatalog() bool {
	return e.v.GetBool(SeedCatalogEnv)
}

// Location dates and alert times are computed in
func (e *Env) Location() (*time.Location, error) {
	name := e.v.GetString(TimezoneEnv)
	if name == "" {
		return time.Local, nil
	}

	location, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone in env variable %s: %w", TimezoneEnv, err)
	}

	return location, nil
}

// AudioDir for synthesized speech
func (e *Env) AudioDir() string {
	return e.v.GetString(AudioDirEnv)
}

// LogLevel name
func (e *Env) LogLevel() string {
	return e.v.GetString(LogLevelEnv)
}

// LogFormat is console or json
func (e *Env) LogFormat() string {
	return e.v.GetString(LogFormatEnv)
}
