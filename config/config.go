/*
Package config loads server settings.

PRECEDENCE (later wins):
  1. Defaults
  2. .env file (LEAVE_ENV_FILE, default ".env"; missing file is fine)
  3. Environment variables
  4. Command-line flags

VARIABLES:
  LEAVE_ADDR               listen address            (:8080)
  LEAVE_DB_PATH            SQLite path or ":memory:" (leave.db)
  LEAVE_LOG_LEVEL          debug|info|warn|error     (info)
  LEAVE_LOG_FORMAT         text|json                 (text)
  LEAVE_CORS_ORIGINS       comma-separated origins   (*)
  LEAVE_POLICY_FILE        accrual policy JSON       (none: defaults)
  LEAVE_SCHEDULER_ENABLED  seed next year's days     (true)
  LEAVE_SEED_SCHEDULE      cron expression for seeding (0 3 1 12 *)

SEE ALSO:
  - cmd/server/main.go: Consumer
  - factory/policy.go: Policy file format
*/
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

type Config struct {
	Addr             string
	DBPath           string
	LogLevel         string
	LogFormat        string
	CORSOrigins      []string
	PolicyFile       string
	SchedulerEnabled bool
	SeedSchedule     string
}

// Default returns the settings used when nothing is configured.
func Default() Config {
	return Config{
		Addr:             ":8080",
		DBPath:           "leave.db",
		LogLevel:         "info",
		LogFormat:        "text",
		CORSOrigins:      []string{"*"},
		SchedulerEnabled: true,
		// 03:00 on December 1st, a month ahead of the new year.
		SeedSchedule: "0 3 1 12 *",
	}
}

// Load resolves the configuration from all sources. args excludes the
// program name.
func Load(args []string) (Config, error) {
	cfg := Default()

	envFile := os.Getenv("LEAVE_ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	// godotenv never overrides variables that are already set.
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to load %s: %w", envFile, err)
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.applyFlags(args); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v, ok := os.LookupEnv("LEAVE_ADDR"); ok {
		c.Addr = v
	}
	if v, ok := os.LookupEnv("LEAVE_DB_PATH"); ok {
		c.DBPath = v
	}
	if v, ok := os.LookupEnv("LEAVE_LOG_LEVEL"); ok {
		c.LogLevel = v
	}
	if v, ok := os.LookupEnv("LEAVE_LOG_FORMAT"); ok {
		c.LogFormat = v
	}
	if v, ok := os.LookupEnv("LEAVE_CORS_ORIGINS"); ok {
		c.CORSOrigins = splitList(v)
	}
	if v, ok := os.LookupEnv("LEAVE_POLICY_FILE"); ok {
		c.PolicyFile = v
	}
	if v, ok := os.LookupEnv("LEAVE_SCHEDULER_ENABLED"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("LEAVE_SCHEDULER_ENABLED: %w", err)
		}
		c.SchedulerEnabled = b
	}
	if v, ok := os.LookupEnv("LEAVE_SEED_SCHEDULE"); ok {
		c.SeedSchedule = v
	}
	return nil
}

func (c *Config) applyFlags(args []string) error {
	fset := flag.NewFlagSet("server", flag.ContinueOnError)
	fset.SetOutput(io.Discard)

	fset.StringVar(&c.Addr, "addr", c.Addr, "HTTP listen address")
	fset.StringVar(&c.DBPath, "db", c.DBPath, `SQLite database path (":memory:" for in-memory)`)
	fset.StringVar(&c.LogLevel, "log-level", c.LogLevel, "debug, info, warn or error")
	fset.StringVar(&c.LogFormat, "log-format", c.LogFormat, "text or json")
	fset.StringVar(&c.PolicyFile, "policy", c.PolicyFile, "accrual policy JSON file")
	fset.BoolVar(&c.SchedulerEnabled, "scheduler", c.SchedulerEnabled, "seed next year's agreed days on schedule")
	fset.StringVar(&c.SeedSchedule, "seed-schedule", c.SeedSchedule, "cron expression for agreed-day seeding")
	origins := fset.String("cors", strings.Join(c.CORSOrigins, ","), "comma-separated allowed origins")

	if err := fset.Parse(args); err != nil {
		return err
	}
	c.CORSOrigins = splitList(*origins)
	return nil
}

func (c Config) Validate() error {
	if c.Addr == "" {
		return errors.New("addr is required")
	}
	if c.DBPath == "" {
		return errors.New("db path is required")
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log format %q", c.LogFormat)
	}
	if c.SchedulerEnabled {
		if _, err := cron.ParseStandard(c.SeedSchedule); err != nil {
			return fmt.Errorf("invalid seed schedule %q: %w", c.SeedSchedule, err)
		}
	}
	return nil
}

// NewLogger builds the slog logger described by the config.
func (c Config) NewLogger(w io.Writer) *slog.Logger {
	level, _ := parseLevel(c.LogLevel)
	opts := &slog.HandlerOptions{Level: level}
	if c.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("unknown log level %q", s)
	}
	return level, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
