package config

import "github.com/dvloznov/finance-clusters/internal/som"

const (
	DefaultLogLevel   = "info"
	DefaultSourceKind = SourceStatic
	DefaultDelimiter  = ","

	DefaultAPIPort      = 8080
	DefaultAPIQueueSize = 100
	DefaultAPIWorkers   = 2
)

// defaults is every key with its default value. It doubles as the list of
// keys bound to environment variables, so fields without a default (seed,
// the extra source paths)
// appear with a nil value.
func defaults() map[string]interface{} {
	d := som.DefaultConfig()
	return map[string]interface{}{
		"log.level": DefaultLogLevel,
		"log.json":  false,

		"som.grid_size":           0,
		"som.iterations":          d.Iterations,
		"som.learning_rate":       d.InitialLearningRate,
		"som.radius":              d.InitialRadius,
		"som.min_radius":          d.MinRadius,
		"som.learning_rate_decay": string(d.LearningRateDecay),
		"som.radius_decay":        string(d.RadiusDecay),
		"som.mode":                string(d.Mode),
		"som.workers":             d.Workers,
		"som.seed":                nil,
		"som.allowed_categories":  nil,

		"source.kind":                   DefaultSourceKind,
		"source.path":                   "",
		"source.paths":                  nil,
		"source.gcs_uri":                "",
		"source.gcs_uris":               nil,
		"source.delimiter":              DefaultDelimiter,
		"source.bigquery.project_id":    "",
		"source.bigquery.dataset":       "finance",
		"source.bigquery.start_date":    "",
		"source.bigquery.end_date":      "",
		"source.bigquery.outflows_only": false,

		"api.port":       DefaultAPIPort,
		"api.queue_size": DefaultAPIQueueSize,
		"api.workers":    DefaultAPIWorkers,
	}
}

// ApplyDefaults fills every zero-value field in cfg with its default.
// Fields that have already been set are left unchanged. It is meant for
// configs built in code; Load and LoadFromEnv apply defaults through viper.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}
	d := som.DefaultConfig()

	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}

	if cfg.SOM.Iterations == 0 {
		cfg.SOM.Iterations = d.Iterations
	}
	if cfg.SOM.LearningRate == 0 {
		cfg.SOM.LearningRate = d.InitialLearningRate
	}
	if cfg.SOM.Radius == 0 {
		cfg.SOM.Radius = d.InitialRadius
	}
	if cfg.SOM.MinRadius == nil {
		v := d.MinRadius
		cfg.SOM.MinRadius = &v
	}
	if cfg.SOM.LearningRateDecay == "" {
		cfg.SOM.LearningRateDecay = string(d.LearningRateDecay)
	}
	if cfg.SOM.RadiusDecay == "" {
		cfg.SOM.RadiusDecay = string(d.RadiusDecay)
	}
	if cfg.SOM.Mode == "" {
		cfg.SOM.Mode = string(d.Mode)
	}
	if cfg.SOM.Workers == 0 {
		cfg.SOM.Workers = d.Workers
	}

	if cfg.Source.Kind == "" {
		cfg.Source.Kind = DefaultSourceKind
	}
	if cfg.Source.Delimiter == "" {
		cfg.Source.Delimiter = DefaultDelimiter
	}
	if cfg.Source.BigQuery.Dataset == "" {
		cfg.Source.BigQuery.Dataset = "finance"
	}

	if cfg.API.Port == 0 {
		cfg.API.Port = DefaultAPIPort
	}
	if cfg.API.QueueSize == 0 {
		cfg.API.QueueSize = DefaultAPIQueueSize
	}
	if cfg.API.Workers == 0 {
		cfg.API.Workers = DefaultAPIWorkers
	}
}

// Default returns a Config with every default applied.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}
