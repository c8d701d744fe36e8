// Package config resolves the run configuration from .env, CULT_*
// environment variables and command-line flags, in increasing priority.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"cult-booker/booking"
)

// Config is everything one invocation needs.
type Config struct {
	Center string
	Time   string

	Headless bool
	Login    bool
	// Install downloads the playwright browser before launching.
	Install bool

	ProfileDir     string
	DiagnosticsDir string
	LandmarksFile  string
	ProxiesFile    string
	UserAgentsFile string
	ReportFile     string

	// At is an optional HH:MM[:SS] wall-clock wake time.
	At        string
	Preflight bool
	Force     bool

	SlowMo        time.Duration
	ActionTimeout time.Duration
	LoginWait     time.Duration
	HoldOpen      time.Duration

	LogLevel string
}

// ErrInvalidTime is returned for a class time not shaped like "07:00 AM".
var ErrInvalidTime = errors.New("class time must look like HH:MM AM or HH:MM PM")

var timePattern = regexp.MustCompile(`^(0[1-9]|1[0-2]):[0-5][0-9] (AM|PM)$`)

// Defaults returns the configuration used when nothing is set.
func Defaults() Config {
	wd, err := os.Getwd()
	if err != nil {
		wd = "."
	}
	return Config{
		Center:         "Cult Whitefield",
		Time:           "07:00 AM",
		ProfileDir:     filepath.Join(wd, "user_data"),
		DiagnosticsDir: filepath.Join(wd, "diagnostics"),
		ReportFile:     "booking_runs.jsonl",
		SlowMo:         time.Second,
		ActionTimeout:  30 * time.Second,
		LoginWait:      5 * time.Minute,
		HoldOpen:       10 * time.Second,
		LogLevel:       "info",
	}
}

// Load reads envFile (a missing file is fine), applies CULT_* variables
// and then parses args. Errors from flag parsing are returned as is, so
// flag.ErrHelp can be told apart.
func Load(args []string, envFile string, stderr io.Writer) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	cfg := Defaults()
	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}

	fs := flag.NewFlagSet("cult-booker", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&cfg.Center, "center", cfg.Center, "center name to book")
	fs.StringVar(&cfg.Time, "time", cfg.Time, "class time to book, e.g. '07:00 AM'")
	fs.BoolVar(&cfg.Headless, "headless", cfg.Headless, "run the browser headless")
	fs.BoolVar(&cfg.Login, "login", cfg.Login, "open a headed browser to log in by hand and save the session")
	fs.BoolVar(&cfg.Install, "install", cfg.Install, "install the playwright browser first")
	fs.StringVar(&cfg.ProfileDir, "profile", cfg.ProfileDir, "persistent browser profile directory")
	fs.StringVar(&cfg.DiagnosticsDir, "diagnostics", cfg.DiagnosticsDir, "directory for screenshots and HTML snapshots")
	fs.StringVar(&cfg.LandmarksFile, "landmarks", cfg.LandmarksFile, "YAML file overriding site landmarks and timings")
	fs.StringVar(&cfg.ProxiesFile, "proxies", cfg.ProxiesFile, "proxy list, one URL per line")
	fs.StringVar(&cfg.UserAgentsFile, "user-agents", cfg.UserAgentsFile, "user agent list, one per line")
	fs.StringVar(&cfg.ReportFile, "report", cfg.ReportFile, "JSON-lines run log; empty disables it")
	fs.StringVar(&cfg.At, "at", cfg.At, "wait until this wall-clock time (HH:MM[:SS]) before booking")
	fs.BoolVar(&cfg.Preflight, "preflight", cfg.Preflight, "probe the booking page over HTTP before launching the browser")
	fs.BoolVar(&cfg.Force, "force", cfg.Force, "continue even if the preflight saw a ban signal")
	fs.DurationVar(&cfg.SlowMo, "slow-mo", cfg.SlowMo, "delay between browser actions")
	fs.DurationVar(&cfg.ActionTimeout, "action-timeout", cfg.ActionTimeout, "default timeout of a single browser action")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "debug, info, warn or error")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the fields that would only fail deep inside a run.
func (c *Config) Validate() error {
	c.Center = strings.TrimSpace(c.Center)
	c.Time = strings.ToUpper(strings.TrimSpace(c.Time))
	if c.Center == "" && !c.Login {
		return errors.New("center must not be empty")
	}
	if !c.Login && !timePattern.MatchString(c.Time) {
		return fmt.Errorf("%w: got %q", ErrInvalidTime, c.Time)
	}
	if c.ProfileDir == "" {
		return errors.New("profile directory must not be empty")
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.LogLevel)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	str := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok {
			*dst = v
		}
	}
	boolean := func(key string, dst *bool) error {
		v, ok := os.LookupEnv(key)
		if !ok {
			return nil
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = b
		return nil
	}
	duration := func(key string, dst *time.Duration) error {
		v, ok := os.LookupEnv(key)
		if !ok {
			return nil
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = d
		return nil
	}

	str("CULT_CENTER", &cfg.Center)
	str("CULT_TIME", &cfg.Time)
	str("CULT_PROFILE_DIR", &cfg.ProfileDir)
	str("CULT_DIAGNOSTICS_DIR", &cfg.DiagnosticsDir)
	str("CULT_LANDMARKS", &cfg.LandmarksFile)
	str("CULT_PROXIES", &cfg.ProxiesFile)
	str("CULT_USER_AGENTS", &cfg.UserAgentsFile)
	str("CULT_REPORT", &cfg.ReportFile)
	str("CULT_AT", &cfg.At)
	str("CULT_LOG_LEVEL", &cfg.LogLevel)

	return errors.Join(
		boolean("CULT_HEADLESS", &cfg.Headless),
		boolean("CULT_PREFLIGHT", &cfg.Preflight),
		duration("CULT_SLOW_MO", &cfg.SlowMo),
		duration("CULT_ACTION_TIMEOUT", &cfg.ActionTimeout),
		duration("CULT_LOGIN_WAIT", &cfg.LoginWait),
		duration("CULT_HOLD_OPEN", &cfg.HoldOpen),
	)
}

// Overrides is the shape of the landmarks file.
type Overrides struct {
	Landmarks booking.Landmarks `yaml:"landmarks"`
	Timings   booking.Timings   `yaml:"timings"`
}

// LoadOverrides reads a YAML landmarks file. An empty path yields empty
// overrides. Unknown keys are rejected so a typo does not silently keep
// a stale default.
func LoadOverrides(path string) (*Overrides, error) {
	o := &Overrides{}
	if path == "" {
		return o, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open landmarks file: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(o); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse landmarks file %s: %w", path, err)
	}
	if err := booking.DefaultLandmarks().Merge(o.Landmarks).Validate(); err != nil {
		return nil, fmt.Errorf("landmarks file %s: %w", path, err)
	}
	return o, nil
}
