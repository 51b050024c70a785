package state

import (
	"strings"
	"time"

	"github.com/beego/beego/v2/core/logs"
	"github.com/nicesoft-labs/ticc-dash/models"
)

// Source is the part of the app config Load reads; web.AppConfig satisfies it.
type Source interface {
	DefaultString(key string, def string) string
	DefaultInt(key string, def int) int
}

// Settings is the typed view of app.conf.
type Settings struct {
	ChronycPath    string
	ChronycArgs    []string
	CommandTimeout time.Duration
	PollInterval   time.Duration
	BackoffMax     time.Duration

	HistoryDSN       string
	HistoryInterval  time.Duration
	HistoryRetention time.Duration
	HistoryLimit     int

	RefreshInterval time.Duration
	RefreshBurst    int

	LogLevel string
	LogFile  string
}

func Defaults() Settings {
	return Settings{
		ChronycPath:      "chronyc",
		ChronycArgs:      []string{"clients"},
		CommandTimeout:   5 * time.Second,
		PollInterval:     1 * time.Second,
		BackoffMax:       30 * time.Second,
		HistoryDSN:       models.DefaultHistoryDSN,
		HistoryInterval:  1 * time.Minute,
		HistoryRetention: 24 * time.Hour,
		HistoryLimit:     60,
		RefreshInterval:  2 * time.Second,
		RefreshBurst:     3,
		LogLevel:         "info",
	}
}

// Load reads every setting from src, keeping the default for a key that is
// missing or unparseable.
func Load(src Source) Settings {
	d := Defaults()
	s := Settings{
		ChronycPath:      src.DefaultString("ChronycPath", d.ChronycPath),
		ChronycArgs:      strings.Fields(src.DefaultString("ChronycArgs", strings.Join(d.ChronycArgs, " "))),
		CommandTimeout:   parseDuration(src, "CommandTimeout", d.CommandTimeout),
		PollInterval:     parseDuration(src, "PollInterval", d.PollInterval),
		BackoffMax:       parseDuration(src, "BackoffMax", d.BackoffMax),
		HistoryDSN:       src.DefaultString("HistoryDSN", d.HistoryDSN),
		HistoryInterval:  parseDuration(src, "HistoryInterval", d.HistoryInterval),
		HistoryRetention: parseDuration(src, "HistoryRetention", d.HistoryRetention),
		HistoryLimit:     positiveInt(src, "HistoryLimit", d.HistoryLimit),
		RefreshInterval:  parseDuration(src, "RefreshInterval", d.RefreshInterval),
		RefreshBurst:     positiveInt(src, "RefreshBurst", d.RefreshBurst),
		LogLevel:         strings.ToLower(src.DefaultString("LogLevel", d.LogLevel)),
		LogFile:          src.DefaultString("LogFile", d.LogFile),
	}
	if s.ChronycPath == "" {
		s.ChronycPath = d.ChronycPath
	}
	if len(s.ChronycArgs) == 0 {
		s.ChronycArgs = d.ChronycArgs
	}
	if s.HistoryDSN == "" {
		s.HistoryDSN = d.HistoryDSN
	}
	return s
}

// Command is the status command line as it will be run.
func (s Settings) Command() string {
	return strings.Join(append([]string{s.ChronycPath}, s.ChronycArgs...), " ")
}

// BeegoLogLevel maps the configured level name to a beego logs level.
func (s Settings) BeegoLogLevel() int {
	switch s.LogLevel {
	case "debug":
		return logs.LevelDebug
	case "warn", "warning":
		return logs.LevelWarn
	case "error":
		return logs.LevelError
	default:
		return logs.LevelInfo
	}
}

func parseDuration(src Source, key string, def time.Duration) time.Duration {
	raw := src.DefaultString(key, def.String())
	if raw == "" {
		return def
	}
	val, err := time.ParseDuration(raw)
	if err != nil || val <= 0 {
		logs.Warn("invalid %s %q, using default %s", key, raw, def)
		return def
	}
	return val
}

func positiveInt(src Source, key string, def int) int {
	if v := src.DefaultInt(key, def); v > 0 {
		return v
	}
	logs.Warn("invalid %s, using default %d", key, def)
	return def
}
