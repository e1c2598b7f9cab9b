// Package config loads the cashflowcast configuration file and its
// environment overrides.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/language"
)

const appName = "cashflowcast"

// Config holds all cashflowcast configuration.
type Config struct {
	General GeneralConfig `toml:"general"`
	Display DisplayConfig `toml:"display"`
	Daemon  DaemonConfig  `toml:"daemon"`
}

// GeneralConfig holds general preferences.
type GeneralConfig struct {
	DefaultProject string `toml:"default_project,omitempty"`
	DBPath         string `toml:"db_path,omitempty"`
	// HorizonMonths overrides every project's horizon when positive.
	HorizonMonths int    `toml:"horizon_months,omitempty"`
	LogLevel      string `toml:"log_level"`
}

// DisplayConfig holds presentation settings.
type DisplayConfig struct {
	Currency string `toml:"currency"`
	// Locale is a BCP 47 tag for currency symbols and digit grouping.
	Locale string `toml:"locale"`
	Theme  string `toml:"theme"`
}

// DaemonConfig holds settings for the background forecast service.
type DaemonConfig struct {
	Addr         string `toml:"addr"`
	Interval     string `toml:"interval"`
	EventsBuffer int    `toml:"events_buffer"`
	RolloverCron string `toml:"rollover_cron"`
	AMQPURL      string `toml:"amqp_url,omitempty"`
	AMQPExchange string `toml:"amqp_exchange,omitempty"`
	AMQPQueue    string `toml:"amqp_queue,omitempty"`
}

// PollInterval parses Interval, falling back to one minute.
func (d DaemonConfig) PollInterval() time.Duration {
	v, err := time.ParseDuration(d.Interval)
	if err != nil || v <= 0 {
		return time.Minute
	}
	return v
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		General: GeneralConfig{
			LogLevel: "info",
		},
		Display: DisplayConfig{
			Currency: "USD",
			Locale:   "en-US",
			Theme:    "flexoki-dark",
		},
		Daemon: DaemonConfig{
			Addr:         "127.0.0.1:8787",
			Interval:     "1m",
			EventsBuffer: 200,
			RolloverCron: "@midnight",
			AMQPExchange: appName,
			AMQPQueue:    "forecast_events",
		},
	}
}

// Dir returns the XDG-compliant config directory.
func Dir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, appName)
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", appName)
}

// Path returns the full path to the config file.
func Path() string {
	return filepath.Join(Dir(), "config.toml")
}

// DataDir returns the XDG-compliant data directory.
func DataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, appName)
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", appName)
}

// DBPath returns the configured database path or the default under DataDir.
func (c Config) DBPath() string {
	if c.General.DBPath != "" {
		return c.General.DBPath
	}
	return filepath.Join(DataDir(), appName+".db")
}

// LoadEnv loads a .env file from the working directory if one exists.
// Variables already set in the environment win.
func LoadEnv() {
	_ = godotenv.Load()
}

// Load reads the config file and applies environment overrides.
func Load() (Config, error) {
	cfg, err := LoadFile()
	if err != nil {
		return cfg, err
	}
	cfg.ApplyEnv()
	return cfg, nil
}

// LoadFile reads the config file, returning defaults if it doesn't exist.
// Environment overrides are not applied, so the result is safe to Save.
func LoadFile() (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(Path())
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// Save writes the config to disk.
func Save(cfg Config) error {
	if err := os.MkdirAll(Dir(), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(Path(), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer func() { _ = f.Close() }()

	return toml.NewEncoder(f).Encode(cfg)
}

// Exists returns true if a config file exists on disk.
func Exists() bool {
	_, err := os.Stat(Path())
	return err == nil
}

// ApplyEnv overrides fields from CASHFLOWCAST_* variables. LOG_LEVEL is
// honoured when CASHFLOWCAST_LOG_LEVEL is unset.
func (c *Config) ApplyEnv() {
	setString(&c.General.DefaultProject, "CASHFLOWCAST_PROJECT")
	setString(&c.General.DBPath, "CASHFLOWCAST_DB")
	setString(&c.General.LogLevel, "LOG_LEVEL")
	setString(&c.General.LogLevel, "CASHFLOWCAST_LOG_LEVEL")
	setString(&c.Display.Currency, "CASHFLOWCAST_CURRENCY")
	setString(&c.Display.Locale, "CASHFLOWCAST_LOCALE")
	setString(&c.Display.Theme, "CASHFLOWCAST_THEME")
	setString(&c.Daemon.Addr, "CASHFLOWCAST_DAEMON_ADDR")
	setString(&c.Daemon.Interval, "CASHFLOWCAST_DAEMON_INTERVAL")
	setString(&c.Daemon.RolloverCron, "CASHFLOWCAST_ROLLOVER_CRON")
	setString(&c.Daemon.AMQPURL, "CASHFLOWCAST_AMQP_URL")
	setString(&c.Daemon.AMQPExchange, "CASHFLOWCAST_AMQP_EXCHANGE")
	setString(&c.Daemon.AMQPQueue, "CASHFLOWCAST_AMQP_QUEUE")

	if v := os.Getenv("CASHFLOWCAST_HORIZON"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.General.HorizonMonths = n
		}
	}
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// Validate reports every invalid setting in one error.
func (c Config) Validate() error {
	var problems []string

	if c.General.HorizonMonths < 0 || c.General.HorizonMonths > 600 {
		problems = append(problems, fmt.Sprintf("general.horizon_months %d: must be between 0 and 600", c.General.HorizonMonths))
	}
	if _, err := logrus.ParseLevel(c.General.LogLevel); err != nil {
		problems = append(problems, fmt.Sprintf("general.log_level %q: %v", c.General.LogLevel, err))
	}

	if code := strings.TrimSpace(c.Display.Currency); len(code) != 3 {
		problems = append(problems, fmt.Sprintf("display.currency %q: must be a three-letter ISO code", c.Display.Currency))
	}
	if c.Display.Locale != "" {
		if _, err := language.Parse(c.Display.Locale); err != nil {
			problems = append(problems, fmt.Sprintf("display.locale %q: %v", c.Display.Locale, err))
		}
	}

	if c.Daemon.Addr == "" {
		problems = append(problems, "daemon.addr cannot be empty")
	}
	if v, err := time.ParseDuration(c.Daemon.Interval); err != nil {
		problems = append(problems, fmt.Sprintf("daemon.interval %q: %v", c.Daemon.Interval, err))
	} else if v < time.Second || v > 24*time.Hour {
		problems = append(problems, fmt.Sprintf("daemon.interval %v: must be between 1s and 24h", v))
	}
	if c.Daemon.EventsBuffer < 1 {
		problems = append(problems, fmt.Sprintf("daemon.events_buffer %d: must be at least 1", c.Daemon.EventsBuffer))
	}
	if _, err := cron.ParseStandard(c.Daemon.RolloverCron); err != nil {
		problems = append(problems, fmt.Sprintf("daemon.rollover_cron %q: %v", c.Daemon.RolloverCron, err))
	}

	if c.Daemon.AMQPURL != "" {
		if u, err := url.Parse(c.Daemon.AMQPURL); err != nil {
			problems = append(problems, fmt.Sprintf("daemon.amqp_url: %v", err))
		} else if u.Scheme != "amqp" && u.Scheme != "amqps" {
			problems = append(problems, fmt.Sprintf("daemon.amqp_url scheme %q: must be amqp or amqps", u.Scheme))
		}
		if c.Daemon.AMQPExchange == "" {
			problems = append(problems, "daemon.amqp_exchange cannot be empty when amqp_url is set")
		}
		if c.Daemon.AMQPQueue == "" {
			problems = append(problems, "daemon.amqp_queue cannot be empty when amqp_url is set")
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration:\n- %s", strings.Join(problems, "\n- "))
	}
	return nil
}
