// Package config provides configuration management for the museum events
// pipeline. A YAML file is overlaid on the built-in defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/pfrederiksen/museum-events/internal/aggregate"
	"github.com/pfrederiksen/museum-events/internal/event"
	"github.com/pfrederiksen/museum-events/internal/extract"
	"github.com/pfrederiksen/museum-events/internal/logger"
	"github.com/pfrederiksen/museum-events/internal/monitor"
	"github.com/pfrederiksen/museum-events/internal/publish"
	"github.com/pfrederiksen/museum-events/internal/source"
	"github.com/pfrederiksen/museum-events/internal/venue"
)

// Configuration validation errors.
var (
	ErrNoVenues               = errors.New("at least one venue is required")
	ErrVenueMissingID         = errors.New("venue id is required")
	ErrDuplicateVenue         = errors.New("venue ids must be unique")
	ErrInvalidStrategyType    = errors.New("strategy type must be one of: csv, html, json")
	ErrStrategyMissingURL     = errors.New("html and json strategies require a url")
	ErrMissingFeedPath        = errors.New("output.feed_path is required")
	ErrInvalidDatePolicy      = errors.New("policy.date_policy must be 'drop' or 'placeholder'")
	ErrInvalidPlaceholderDate = errors.New("policy.placeholder_date must be YYYY-MM-DD")
	ErrInvalidIDScheme        = errors.New("policy.id_scheme must be 'sequence' or 'hash'")
	ErrInvalidTimePolicy      = errors.New("policy.time_policy must be 'placeholder' or 'by_type'")
	ErrInvalidCutoff          = errors.New("policy.cutoff must be month, today, none or YYYY-MM-DD")
	ErrInvalidDescriptionMax  = errors.New("policy.description_max must be at least 4")
	ErrInvalidTimeout         = errors.New("fetch timeouts must be non-negative")
	ErrInvalidVenueTimeout    = errors.New("fetch.venue_timeout must be positive")
	ErrInvalidMaxRetries      = errors.New("fetch.max_retries must be non-negative")
	ErrInvalidThreshold       = errors.New("monitor thresholds must be at least 1")
	ErrMissingBucket          = errors.New("publish.s3.bucket is required when publishing is enabled")
	ErrInvalidLogLevel        = errors.New("logging.level must be one of: debug, info, warn, error")
)

// Strategy types.
const (
	StrategyCSV  = "csv"
	StrategyHTML = "html"
	StrategyJSON = "json"
)

// Config represents the complete pipeline configuration.
type Config struct {
	Output  OutputConfig  `yaml:"output"`
	Policy  PolicyConfig  `yaml:"policy"`
	Fetch   FetchConfig   `yaml:"fetch"`
	Venues  []VenueConfig `yaml:"venues"`
	Monitor MonitorConfig `yaml:"monitor"`
	Publish PublishConfig `yaml:"publish"`
	Logging LoggingConfig `yaml:"logging"`
}

// OutputConfig defines where results are written.
type OutputConfig struct {
	DataDir     string `yaml:"data_dir"`
	FeedPath    string `yaml:"feed_path"`
	ICSPath     string `yaml:"ics_path"`
	MetricsPath string `yaml:"metrics_path"`
	AlertFile   string `yaml:"alert_file"`
	CSVDir      string `yaml:"csv_dir"`
}

// PolicyConfig holds the normalization policies.
type PolicyConfig struct {
	DatePolicy      string `yaml:"date_policy"`
	PlaceholderDate string `yaml:"placeholder_date"`
	IDScheme        string `yaml:"id_scheme"`
	TimePolicy      string `yaml:"time_policy"`
	Cutoff          string `yaml:"cutoff"`
	DescriptionMax  int    `yaml:"description_max"`
	WordBoundary    bool   `yaml:"word_boundary"`
}

// FetchConfig defines HTTP behavior for remote strategies.
type FetchConfig struct {
	Timeout        time.Duration `yaml:"timeout"`
	UserAgent      string        `yaml:"user_agent"`
	MaxRetries     int           `yaml:"max_retries"`
	InitialBackoff time.Duration `yaml:"initial_backoff"`
	VenueTimeout   time.Duration `yaml:"venue_timeout"`
}

// VenueConfig is a venue profile plus its ordered strategies.
type VenueConfig struct {
	venue.Profile `yaml:",inline"`
	Disabled      bool             `yaml:"disabled"`
	Strategies    []StrategyConfig `yaml:"strategies"`
}

// StrategyConfig describes one source adapter in a venue's chain.
type StrategyConfig struct {
	Type      string           `yaml:"type"`
	URL       string           `yaml:"url"`
	Paths     []string         `yaml:"paths"`
	Selectors source.Selectors `yaml:"selectors"`
}

// MonitorConfig defines alert thresholds.
type MonitorConfig struct {
	FailureThreshold   int `yaml:"failure_threshold"`
	MinEventsThreshold int `yaml:"min_events_threshold"`
}

// PublishConfig defines optional uploads.
type PublishConfig struct {
	S3 S3Config `yaml:"s3"`
}

// S3Config holds the S3 publishing target.
type S3Config struct {
	Enabled       bool   `yaml:"enabled"`
	Bucket        string `yaml:"bucket"`
	Key           string `yaml:"key"`
	Region        string `yaml:"region"`
	Profile       string `yaml:"profile"`
	PublicBaseURL string `yaml:"public_base_url"`
}

// LoggingConfig defines logging behavior.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Default returns the built-in configuration: every default venue reads the
// CSV exports discovered in output.csv_dir.
func Default() *Config {
	profiles := venue.Defaults()
	venues := make([]VenueConfig, 0, len(profiles))
	for _, p := range profiles {
		venues = append(venues, VenueConfig{
			Profile:    p,
			Strategies: []StrategyConfig{{Type: StrategyCSV}},
		})
	}

	return &Config{
		Output: OutputConfig{
			DataDir:  "~/.local/share/museum-events",
			FeedPath: "events.json",
			CSVDir:   "data",
		},
		Policy: PolicyConfig{
			DatePolicy:      string(extract.DatePolicyPlaceholder),
			PlaceholderDate: "2099-12-31",
			IDScheme:        string(event.IDSchemeSequence),
			TimePolicy:      string(event.TimePolicyPlaceholder),
			Cutoff:          aggregate.CutoffMonth,
			DescriptionMax:  extract.DefaultDescriptionMax,
		},
		Fetch: FetchConfig{
			Timeout:        source.DefaultTimeout,
			UserAgent:      source.DefaultUserAgent,
			MaxRetries:     source.DefaultMaxRetries,
			InitialBackoff: source.DefaultInitialBackoff,
			VenueTimeout:   source.DefaultChainTimeout,
		},
		Venues: venues,
		Monitor: MonitorConfig{
			FailureThreshold:   monitor.DefaultFailureThreshold,
			MinEventsThreshold: monitor.DefaultMinEventsThreshold,
		},
		Publish: PublishConfig{
			S3: S3Config{Key: publish.DefaultKey},
		},
		Logging: LoggingConfig{Level: "info"},
	}
}

// Load reads a YAML file and overlays it on the defaults. An empty path
// returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, cfg.Validate()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing YAML: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if err := c.validateVenues(); err != nil {
		return err
	}

	if strings.TrimSpace(c.Output.FeedPath) == "" {
		return ErrMissingFeedPath
	}

	if err := c.validatePolicy(); err != nil {
		return err
	}

	if c.Fetch.Timeout < 0 || c.Fetch.InitialBackoff < 0 {
		return ErrInvalidTimeout
	}
	if c.Fetch.VenueTimeout <= 0 {
		return ErrInvalidVenueTimeout
	}
	if c.Fetch.MaxRetries < 0 {
		return ErrInvalidMaxRetries
	}

	if c.Monitor.FailureThreshold < 1 || c.Monitor.MinEventsThreshold < 1 {
		return ErrInvalidThreshold
	}

	if c.Publish.S3.Enabled && c.Publish.S3.Bucket == "" {
		return ErrMissingBucket
	}

	if c.Logging.Level != "" {
		if _, err := logger.ParseLevel(c.Logging.Level); err != nil {
			return ErrInvalidLogLevel
		}
	}

	return nil
}

func (c *Config) validateVenues() error {
	enabled := c.EnabledVenues()
	if len(enabled) == 0 {
		return ErrNoVenues
	}

	seen := make(map[string]bool, len(c.Venues))
	for i, v := range c.Venues {
		id := strings.TrimSpace(v.ID)
		if id == "" {
			return fmt.Errorf("venue %d: %w", i, ErrVenueMissingID)
		}
		if seen[id] {
			return fmt.Errorf("venue %s: %w", id, ErrDuplicateVenue)
		}
		seen[id] = true

		for j, s := range v.Strategies {
			switch s.Type {
			case StrategyCSV:
			case StrategyHTML, StrategyJSON:
				if s.URL == "" {
					return fmt.Errorf("venue %s strategy %d: %w", id, j, ErrStrategyMissingURL)
				}
			default:
				return fmt.Errorf("venue %s strategy %d (%q): %w", id, j, s.Type, ErrInvalidStrategyType)
			}
		}
	}
	return nil
}

func (c *Config) validatePolicy() error {
	p := c.Policy

	switch extract.DatePolicy(p.DatePolicy) {
	case extract.DatePolicyDrop:
	case extract.DatePolicyPlaceholder:
		if _, err := time.Parse(event.DateLayout, p.PlaceholderDate); err != nil {
			return ErrInvalidPlaceholderDate
		}
	default:
		return ErrInvalidDatePolicy
	}

	switch event.IDScheme(p.IDScheme) {
	case event.IDSchemeSequence, event.IDSchemeHash:
	default:
		return ErrInvalidIDScheme
	}

	switch event.TimePolicy(p.TimePolicy) {
	case event.TimePolicyPlaceholder, event.TimePolicyByType:
	default:
		return ErrInvalidTimePolicy
	}

	if _, err := aggregate.ResolveCutoff(p.Cutoff, time.Now()); err != nil {
		return ErrInvalidCutoff
	}

	if p.DescriptionMax < 4 {
		return ErrInvalidDescriptionMax
	}
	return nil
}

// EnabledVenues returns the venues that are not disabled, in configuration
// order.
func (c *Config) EnabledVenues() []VenueConfig {
	out := make([]VenueConfig, 0, len(c.Venues))
	for _, v := range c.Venues {
		if !v.Disabled {
			out = append(out, v)
		}
	}
	return out
}

// Registry builds the venue registry from the enabled venues.
func (c *Config) Registry() (*venue.Registry, error) {
	enabled := c.EnabledVenues()
	profiles := make([]venue.Profile, 0, len(enabled))
	for _, v := range enabled {
		profiles = append(profiles, v.Profile)
	}
	return venue.NewRegistry(profiles)
}

// ExtractOptions returns the extractor options for the configured policy.
func (c *Config) ExtractOptions() extract.Options {
	return extract.Options{
		DatePolicy:      extract.DatePolicy(c.Policy.DatePolicy),
		PlaceholderDate: c.Policy.PlaceholderDate,
		DescriptionMax:  c.Policy.DescriptionMax,
		WordBoundary:    c.Policy.WordBoundary,
	}
}

// BuildOptions returns the event builder options.
func (c *Config) BuildOptions() event.BuildOptions {
	return event.BuildOptions{
		IDScheme:   event.IDScheme(c.Policy.IDScheme),
		TimePolicy: event.TimePolicy(c.Policy.TimePolicy),
	}
}

// FetchOptions returns the HTTP fetcher options.
func (c *Config) FetchOptions() source.FetchOptions {
	return source.FetchOptions{
		Timeout:        c.Fetch.Timeout,
		UserAgent:      c.Fetch.UserAgent,
		MaxRetries:     c.Fetch.MaxRetries,
		InitialBackoff: c.Fetch.InitialBackoff,
	}
}

// Thresholds returns the monitor alert thresholds.
func (c *Config) Thresholds() monitor.Thresholds {
	return monitor.Thresholds{
		FailureThreshold:   c.Monitor.FailureThreshold,
		MinEventsThreshold: c.Monitor.MinEventsThreshold,
	}
}

// PublishOptions returns the S3 publisher options.
func (c *Config) PublishOptions() publish.Options {
	s := c.Publish.S3
	return publish.Options{
		Bucket:        s.Bucket,
		Key:           s.Key,
		Region:        s.Region,
		Profile:       s.Profile,
		PublicBaseURL: s.PublicBaseURL,
	}
}
