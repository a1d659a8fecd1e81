// Package config loads runtime settings from a YAML file and SPENDMAP_*
// environment variables.
package config

import (
	"errors"
	"fmt"

	"cloud.google.com/go/civil"

	"github.com/dvloznov/finance-clusters/internal/som"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("config: invalid configuration")

// Source kinds.
const (
	SourceStatic   = "static"
	SourceCSV      = "csv"
	SourceGCS      = "gcs"
	SourceBigQuery = "bigquery"
)

// Config is the full runtime configuration.
type Config struct {
	Log    LogConfig    `mapstructure:"log"`
	SOM    SOMConfig    `mapstructure:"som"`
	Source SourceConfig `mapstructure:"source"`
	API    APIConfig    `mapstructure:"api"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
}

// SOMConfig holds map training settings. GridSize 0 selects the size from
// the number of entities.
type SOMConfig struct {
	GridSize          int      `mapstructure:"grid_size"`
	Iterations        int      `mapstructure:"iterations"`
	LearningRate      float64  `mapstructure:"learning_rate"`
	Radius            float64  `mapstructure:"radius"`
	MinRadius         *float64 `mapstructure:"min_radius"`
	LearningRateDecay string   `mapstructure:"learning_rate_decay"`
	RadiusDecay       string   `mapstructure:"radius_decay"`
	Mode              string   `mapstructure:"mode"`
	Workers           int      `mapstructure:"workers"`
	Seed              *int64   `mapstructure:"seed"`
	// AllowedCategories restricts clustering to these category codes.
	AllowedCategories []string `mapstructure:"allowed_categories"`
}

// SourceConfig selects where transaction records come from.
//
// Paths and GCSURIs add further inputs to Path and GCSURI; records from every
// input are read in order and clustered together.
type SourceConfig struct {
	Kind      string         `mapstructure:"kind"`
	Path      string         `mapstructure:"path"`
	Paths     []string       `mapstructure:"paths"`
	GCSURI    string         `mapstructure:"gcs_uri"`
	GCSURIs   []string       `mapstructure:"gcs_uris"`
	Delimiter string         `mapstructure:"delimiter"`
	BigQuery  BigQueryConfig `mapstructure:"bigquery"`
}

// Files returns Path followed by Paths, skipping empty entries.
func (s SourceConfig) Files() []string {
	return nonEmpty(s.Path, s.Paths)
}

// Objects returns GCSURI followed by GCSURIs, skipping empty entries.
func (s SourceConfig) Objects() []string {
	return nonEmpty(s.GCSURI, s.GCSURIs)
}

func nonEmpty(first string, rest []string) []string {
	var out []string
	for _, v := range append([]string{first}, rest...) {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

// BigQueryConfig holds the spending query parameters. Dates are YYYY-MM-DD.
type BigQueryConfig struct {
	ProjectID    string `mapstructure:"project_id"`
	Dataset      string `mapstructure:"dataset"`
	StartDate    string `mapstructure:"start_date"`
	EndDate      string `mapstructure:"end_date"`
	OutflowsOnly bool   `mapstructure:"outflows_only"`
}

// APIConfig holds HTTP server and job queue settings.
type APIConfig struct {
	Port      int `mapstructure:"port"`
	QueueSize int `mapstructure:"queue_size"`
	Workers   int `mapstructure:"workers"`
}

// ToSOM converts the settings into a validated som.Config.
func (c SOMConfig) ToSOM() (som.Config, error) {
	cfg := som.Config{
		Iterations:          c.Iterations,
		InitialLearningRate: c.LearningRate,
		InitialRadius:       c.Radius,
		MinRadius:           som.DefaultMinRadius,
		LearningRateDecay:   som.DecayKind(c.LearningRateDecay),
		RadiusDecay:         som.DecayKind(c.RadiusDecay),
		Mode:                som.Mode(c.Mode),
		Workers:             c.Workers,
	}
	if c.MinRadius != nil {
		cfg.MinRadius = *c.MinRadius
	}
	if c.GridSize != 0 {
		cfg = cfg.WithGridSize(c.GridSize)
	}
	if c.Seed != nil {
		cfg = cfg.WithSeed(*c.Seed)
	}
	if err := cfg.Validate(); err != nil {
		return som.Config{}, fmt.Errorf("ToSOM: %w", err)
	}
	return cfg, nil
}

// DateRange parses the configured dates.
func (c BigQueryConfig) DateRange() (civil.Date, civil.Date, error) {
	start, err := civil.ParseDate(c.StartDate)
	if err != nil {
		return civil.Date{}, civil.Date{}, fmt.Errorf("bigquery.start_date %q: %w", c.StartDate, ErrInvalid)
	}
	end, err := civil.ParseDate(c.EndDate)
	if err != nil {
		return civil.Date{}, civil.Date{}, fmt.Errorf("bigquery.end_date %q: %w", c.EndDate, ErrInvalid)
	}
	if end.Before(start) {
		return civil.Date{}, civil.Date{}, fmt.Errorf("bigquery date range %s..%s is reversed: %w", start, end, ErrInvalid)
	}
	return start, end, nil
}

// Validate performs semantic validation of the fully-populated Config.
// It returns the first error encountered.
func (c *Config) Validate() error {
	if c.SOM.GridSize < 0 {
		return fmt.Errorf("som.grid_size must not be negative, got %d: %w", c.SOM.GridSize, ErrInvalid)
	}
	if _, err := c.SOM.ToSOM(); err != nil {
		return fmt.Errorf("som: %w: %w", err, ErrInvalid)
	}

	switch c.Source.Kind {
	case SourceStatic:
	case SourceCSV:
		if len(c.Source.Files()) == 0 {
			return fmt.Errorf("source.path or source.paths is required for csv sources: %w", ErrInvalid)
		}
	case SourceGCS:
		if len(c.Source.Objects()) == 0 {
			return fmt.Errorf("source.gcs_uri or source.gcs_uris is required for gcs sources: %w", ErrInvalid)
		}
	case SourceBigQuery:
		if c.Source.BigQuery.ProjectID == "" {
			return fmt.Errorf("source.bigquery.project_id is required: %w", ErrInvalid)
		}
		if _, _, err := c.Source.BigQuery.DateRange(); err != nil {
			return err
		}
	default:
		return fmt.Errorf("source.kind %q is invalid; expected static|csv|gcs|bigquery: %w", c.Source.Kind, ErrInvalid)
	}
	if len([]rune(c.Source.Delimiter)) > 1 {
		return fmt.Errorf("source.delimiter must be a single character, got %q: %w", c.Source.Delimiter, ErrInvalid)
	}

	if c.API.Port < 1 || c.API.Port > 65535 {
		return fmt.Errorf("api.port %d is out of range [1, 65535]: %w", c.API.Port, ErrInvalid)
	}
	if c.API.QueueSize < 1 {
		return fmt.Errorf("api.queue_size must be ≥ 1, got %d: %w", c.API.QueueSize, ErrInvalid)
	}
	if c.API.Workers < 1 {
		return fmt.Errorf("api.workers must be ≥ 1, got %d: %w", c.API.Workers, ErrInvalid)
	}
	return nil
}
