package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env"
	"github.com/pkg/errors"
)

const (
	MatchAll   = "all"
	MatchFirst = "first"

	EscalateFallback = "fallback"
	EscalateAlways   = "always"
	EscalateNever    = "never"

	MinNice = -20
	MaxNice = 19
)

// Config is built once at startup and handed to the enforcer by value.
type Config struct {
	TargetName       string        `env:"PRIOFIX_TARGET" envDefault:"klippy.py"`
	NiceValue        int           `env:"PRIOFIX_NICE" envDefault:"-20"`
	RealtimePriority int           `env:"PRIOFIX_RT_PRIORITY" envDefault:"1"`
	Interval         time.Duration `env:"PRIOFIX_INTERVAL" envDefault:"5s"`
	MatchPolicy      string        `env:"PRIOFIX_MATCH" envDefault:"all"`
	Escalation       string        `env:"PRIOFIX_ESCALATION" envDefault:"fallback"`
	EscalateCommand  string        `env:"PRIOFIX_ESCALATE_COMMAND" envDefault:"sudo"`
	CommandTimeout   time.Duration `env:"PRIOFIX_COMMAND_TIMEOUT" envDefault:"0s"`
	LogLevel         string        `env:"PRIOFIX_LOG_LEVEL" envDefault:"info"`
}

// Load reads the configuration from the environment. The result is not
// validated so that callers can apply overrides first.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return cfg, errors.Wrap(err, "parse environment")
	}
	cfg.Normalize()
	return cfg, nil
}

// Normalize trims and lowercases the keyword fields so that environment
// values and flags accept the same spellings.
func (c *Config) Normalize() {
	c.MatchPolicy = strings.ToLower(strings.TrimSpace(c.MatchPolicy))
	c.Escalation = strings.ToLower(strings.TrimSpace(c.Escalation))
}

func (c Config) Validate() error {
	if c.TargetName == "" {
		return errors.New("target name must not be empty")
	}
	if c.NiceValue < MinNice || c.NiceValue > MaxNice {
		return fmt.Errorf("nice value %d out of range [%d, %d]", c.NiceValue, MinNice, MaxNice)
	}
	if c.RealtimePriority < 1 || c.RealtimePriority > 99 {
		return fmt.Errorf("realtime priority %d out of range [1, 99]", c.RealtimePriority)
	}
	if c.Interval <= 0 {
		return fmt.Errorf("interval must be positive, got %s", c.Interval)
	}
	switch c.MatchPolicy {
	case MatchAll, MatchFirst:
	default:
		return fmt.Errorf("unknown match policy %q", c.MatchPolicy)
	}
	switch c.Escalation {
	case EscalateFallback, EscalateAlways, EscalateNever:
	default:
		return fmt.Errorf("unknown escalation mode %q", c.Escalation)
	}
	if c.Escalation != EscalateNever && len(c.EscalatePrefix()) == 0 {
		return errors.New("escalate command must not be empty")
	}
	if c.CommandTimeout < 0 {
		return fmt.Errorf("command timeout must not be negative, got %s", c.CommandTimeout)
	}
	return nil
}

// EscalatePrefix splits EscalateCommand into argv form, e.g. "sudo -n".
func (c Config) EscalatePrefix() []string {
	return strings.Fields(c.EscalateCommand)
}

func (c Config) String() string {
	return fmt.Sprintf("target: %s\nnice: %d\nrealtime priority: %d\ninterval: %s\nmatch: %s\nescalation: %s (%s)\ncommand timeout: %s",
		c.TargetName, c.NiceValue, c.RealtimePriority, c.Interval, c.MatchPolicy, c.Escalation, c.EscalateCommand, c.CommandTimeout)
}
