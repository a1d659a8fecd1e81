package config

import (
	"os"
	"path/filepath"
	"testing"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvloznov/finance-clusters/internal/som"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "spendmap.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
log:
  level: debug
  json: true
som:
  grid_size: 3
  iterations: 250
  min_radius: 0
  mode: batch
  workers: 8
  seed: 42
  allowed_categories: ["4210", "4300"]
source:
  kind: csv
  path: ./spend.csv
  delimiter: ";"
api:
  port: 9090
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.Log.JSON)
	assert.Equal(t, 3, cfg.SOM.GridSize)
	assert.Equal(t, 250, cfg.SOM.Iterations)
	require.NotNil(t, cfg.SOM.MinRadius)
	assert.Zero(t, *cfg.SOM.MinRadius, "an explicit 0 must not be replaced by the default")
	assert.Equal(t, "batch", cfg.SOM.Mode)
	require.NotNil(t, cfg.SOM.Seed)
	assert.Equal(t, int64(42), *cfg.SOM.Seed)
	assert.Equal(t, []string{"4210", "4300"}, cfg.SOM.AllowedCategories)
	assert.Equal(t, SourceCSV, cfg.Source.Kind)
	assert.Equal(t, ";", cfg.Source.Delimiter)
	assert.Equal(t, 9090, cfg.API.Port)

	// Unset values come from defaults.
	assert.Equal(t, som.DefaultInitialLearningRate, cfg.SOM.LearningRate)
	assert.Equal(t, "linear", cfg.SOM.LearningRateDecay)
	assert.Equal(t, DefaultAPIQueueSize, cfg.API.QueueSize)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
som:
  iterations: 250
`)
	t.Setenv("SPENDMAP_SOM_ITERATIONS", "500")
	t.Setenv("SPENDMAP_SOM_SEED", "7")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 500, cfg.SOM.Iterations)
	require.NotNil(t, cfg.SOM.Seed)
	assert.Equal(t, int64(7), *cfg.SOM.Seed)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("SPENDMAP_SOURCE_KIND", "bigquery")
	t.Setenv("SPENDMAP_SOURCE_BIGQUERY_PROJECT_ID", "proj")
	t.Setenv("SPENDMAP_SOURCE_BIGQUERY_START_DATE", "2024-01-01")
	t.Setenv("SPENDMAP_SOURCE_BIGQUERY_END_DATE", "2024-03-31")
	t.Setenv("SPENDMAP_SOURCE_BIGQUERY_OUTFLOWS_ONLY", "true")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, SourceBigQuery, cfg.Source.Kind)
	assert.Equal(t, "proj", cfg.Source.BigQuery.ProjectID)
	assert.Equal(t, "finance", cfg.Source.BigQuery.Dataset)
	assert.True(t, cfg.Source.BigQuery.OutflowsOnly)

	start, end, err := cfg.Source.BigQuery.DateRange()
	require.NoError(t, err)
	assert.Equal(t, civil.Date{Year: 2024, Month: 1, Day: 1}, start)
	assert.Equal(t, civil.Date{Year: 2024, Month: 3, Day: 31}, end)
}

func TestLoadFromEnv_Defaults(t *testing.T) {
	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, SourceStatic, cfg.Source.Kind)
	assert.Equal(t, DefaultAPIPort, cfg.API.Port)
	assert.Nil(t, cfg.SOM.Seed)

	sc, err := cfg.SOM.ToSOM()
	require.NoError(t, err)
	assert.Equal(t, som.DefaultConfig(), sc)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"negative grid size", func(c *Config) { c.SOM.GridSize = -1 }},
		{"negative learning rate", func(c *Config) { c.SOM.LearningRate = -0.5 }},
		{"unknown decay", func(c *Config) { c.SOM.RadiusDecay = "cosine" }},
		{"unknown mode", func(c *Config) { c.SOM.Mode = "stochastic" }},
		{"unknown source", func(c *Config) { c.Source.Kind = "excel" }},
		{"csv without path", func(c *Config) { c.Source.Kind = SourceCSV }},
		{"gcs without uri", func(c *Config) { c.Source.Kind = SourceGCS }},
		{"bigquery without project", func(c *Config) {
			c.Source.Kind = SourceBigQuery
			c.Source.BigQuery.StartDate = "2024-01-01"
			c.Source.BigQuery.EndDate = "2024-02-01"
		}},
		{"bigquery reversed dates", func(c *Config) {
			c.Source.Kind = SourceBigQuery
			c.Source.BigQuery.ProjectID = "proj"
			c.Source.BigQuery.StartDate = "2024-02-01"
			c.Source.BigQuery.EndDate = "2024-01-01"
		}},
		{"bigquery bad date", func(c *Config) {
			c.Source.Kind = SourceBigQuery
			c.Source.BigQuery.ProjectID = "proj"
			c.Source.BigQuery.StartDate = "01/02/2024"
			c.Source.BigQuery.EndDate = "2024-01-01"
		}},
		{"long delimiter", func(c *Config) { c.Source.Delimiter = ";;" }},
		{"port out of range", func(c *Config) { c.API.Port = 70000 }},
		{"no workers", func(c *Config) { c.API.Workers = -1 }},
	}

	require.NoError(t, Default().Validate())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalid)
		})
	}
}

func TestSourceConfig_SeveralInputs(t *testing.T) {
	cfg := Default()
	cfg.Source.Kind = SourceCSV
	cfg.Source.Paths = []string{"", "b.csv"}
	require.NoError(t, cfg.Validate())
	assert.Equal(t, []string{"b.csv"}, cfg.Source.Files())

	cfg.Source.Path = "a.csv"
	assert.Equal(t, []string{"a.csv", "b.csv"}, cfg.Source.Files())

	cfg.Source.Kind = SourceGCS
	assert.ErrorIs(t, cfg.Validate(), ErrInvalid)
	cfg.Source.GCSURIs = []string{"gs://b/one.csv", "gs://b/two.csv"}
	require.NoError(t, cfg.Validate())
	assert.Equal(t, []string{"gs://b/one.csv", "gs://b/two.csv"}, cfg.Source.Objects())
}

func TestLoadFromEnv_SeveralPaths(t *testing.T) {
	t.Setenv("SPENDMAP_SOURCE_KIND", "csv")
	t.Setenv("SPENDMAP_SOURCE_PATHS", "jan.csv,feb.csv")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, []string{"jan.csv", "feb.csv"}, cfg.Source.Files())
}

func TestRead_SkipsValidation(t *testing.T) {
	path := writeConfig(t, `
source:
  kind: csv
`)
	_, err := Load(path)
	assert.ErrorIs(t, err, ErrInvalid)

	cfg, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, SourceCSV, cfg.Source.Kind)
	assert.Equal(t, DefaultAPIPort, cfg.API.Port)

	cfg.Source.Path = "spend.csv"
	assert.NoError(t, cfg.Validate())

	_, err = Read(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestSOMConfig_ToSOM(t *testing.T) {
	seed := int64(9)
	minRadius := 0.5
	sc, err := SOMConfig{
		GridSize:          4,
		Iterations:        10,
		LearningRate:      0.3,
		Radius:            2,
		MinRadius:         &minRadius,
		LearningRateDecay: "exponential",
		RadiusDecay:       "linear",
		Mode:              "online",
		Seed:              &seed,
	}.ToSOM()
	require.NoError(t, err)

	require.NotNil(t, sc.GridSize)
	assert.Equal(t, 4, *sc.GridSize)
	require.NotNil(t, sc.Seed)
	assert.Equal(t, int64(9), *sc.Seed)
	assert.Equal(t, 0.5, sc.MinRadius)
	assert.Equal(t, som.DecayExponential, sc.LearningRateDecay)

	_, err = SOMConfig{}.ToSOM()
	assert.ErrorIs(t, err, som.ErrInvalidConfig)
}
