package cfg

import (
	"cmp"
	"fmt"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Storage
	DBPath string `long:"db-path" env:"DB_PATH" default:"./data/feedsink.db" description:"Path to the SQLite database file"`

	// Application configuration
	SourcesDir        string  `long:"sources-dir" env:"SOURCES_DIR" default:"./sources" description:"Directory containing feed source files"`
	Port              string  `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	BaseUrl           string  `long:"base-url" env:"BASE_URL" description:"Public base URL used for page links (e.g., https://news.example.com)"`
	SchedulerInterval int     `long:"scheduler-interval" env:"SCHEDULER_INTERVAL" default:"1800" description:"Ingestion interval in seconds"`
	FetchTimeout      int     `long:"fetch-timeout" env:"FETCH_TIMEOUT" default:"15" description:"Per-source fetch timeout in seconds"`
	FetchWindow       int     `long:"fetch-window" env:"FETCH_WINDOW" default:"10" description:"Maximum number of entries taken from each feed per run"`
	RetentionDays     int     `long:"retention-days" env:"RETENTION_DAYS" default:"365" description:"Items published earlier than this many days ago are removed"`
	StrictTLS         bool    `long:"strict-tls" env:"STRICT_TLS" description:"Verify TLS certificates when fetching feeds (verification is skipped by default)"`
	RateLimit         float64 `long:"rate-limit" env:"RATE_LIMIT" default:"5" description:"Allowed API requests per second per client"`
	RateBurst         int     `long:"rate-burst" env:"RATE_BURST" default:"10" description:"API request burst per client"`

	// Diagnostics log
	LogDir   string `long:"log-dir" env:"LOG_DIR" default:"./logs" description:"Directory for the diagnostics log"`
	LogForce bool   `long:"log-force" env:"LOG_FORCE" description:"Write the diagnostics log even when debug is off"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"Feedsink/1.0" description:"User agent string for HTTP requests"`
	Timezone  string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, America/New_York)"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

func Load() (*Cfg, error) {
	return LoadArgs(nil)
}

// LoadArgs parses the given arguments instead of os.Args when args is non-nil.
func LoadArgs(args []string) (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	var err error
	if args == nil {
		_, err = parser.Parse()
	} else {
		_, err = parser.ParseArgs(args)
	}
	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		DBPath:            raw.DBPath,
		SourcesDir:        raw.SourcesDir,
		Port:              raw.Port,
		BaseUrl:           raw.BaseUrl,
		SchedulerInterval: raw.SchedulerInterval,
		FetchTimeout:      raw.FetchTimeout,
		FetchWindow:       raw.FetchWindow,
		RetentionDays:     raw.RetentionDays,
		InsecureTLS:       !raw.StrictTLS,
		RateLimit:         raw.RateLimit,
		RateBurst:         raw.RateBurst,
		LogDir:            raw.LogDir,
		LogForce:          raw.LogForce,
		UserAgent:         raw.UserAgent,
		Timezone:          raw.Timezone,
		Debug:             raw.Debug,
		Version:           GetVersion(),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	return cfg, nil
}

func (c *Cfg) validate() error {
	positiveFields := map[string]int{
		"scheduler interval": c.SchedulerInterval,
		"fetch timeout":      c.FetchTimeout,
		"fetch window":       c.FetchWindow,
		"retention days":     c.RetentionDays,
	}

	for fieldName, fieldValue := range positiveFields {
		if fieldValue <= 0 {
			return fmt.Errorf("%s must be positive", fieldName)
		}
	}

	if c.DBPath == "" {
		return fmt.Errorf("database path is required")
	}

	return nil
}

func (c *Cfg) SchedulerEvery() time.Duration {
	return time.Duration(c.SchedulerInterval) * time.Second
}

func (c *Cfg) FetchTimeoutDuration() time.Duration {
	return time.Duration(c.FetchTimeout) * time.Second
}

func (c *Cfg) Retention() time.Duration {
	return time.Duration(c.RetentionDays) * 24 * time.Hour
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
		}
	}
	return nil
}
