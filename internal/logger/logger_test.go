package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	log := New()
	assert.Equal(t, zerolog.InfoLevel, log.GetLevel())
}

func TestNewWithWriter(t *testing.T) {
	buf := &bytes.Buffer{}
	log := NewWithWriter(buf)

	log.Info().Msg("test message")

	assert.Contains(t, buf.String(), "test message")
}

func TestNewWithOptions(t *testing.T) {
	tests := []struct {
		name      string
		opts      Options
		wantLevel zerolog.Level
		wantErr   bool
	}{
		{name: "default level", opts: Options{}, wantLevel: zerolog.InfoLevel},
		{name: "debug", opts: Options{Level: "DEBUG"}, wantLevel: zerolog.DebugLevel},
		{name: "warn with spaces", opts: Options{Level: " warn "}, wantLevel: zerolog.WarnLevel},
		{name: "unknown level", opts: Options{Level: "chatty"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.opts.Writer = &bytes.Buffer{}
			log, err := NewWithOptions(tt.opts)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantLevel, log.GetLevel())
		})
	}
}

func TestNewWithOptions_JSON(t *testing.T) {
	buf := &bytes.Buffer{}
	log, err := NewWithOptions(Options{Level: "info", JSON: true, Writer: buf})
	require.NoError(t, err)

	log.Debug().Msg("hidden")
	log.Info().Str("run_id", "r1").Msg("visible")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "visible", entry["message"])
	assert.Equal(t, "r1", entry["run_id"])
	assert.NotContains(t, buf.String(), "hidden")
}

func TestFromContext(t *testing.T) {
	buf := &bytes.Buffer{}
	ctx := WithContext(context.Background(), NewWithWriter(buf))
	require.NotNil(t, ctx.Value(LoggerKey))

	retrievedLog := FromContext(ctx)
	retrievedLog.Info().Msg("test")

	assert.NotZero(t, buf.Len(), "expected log output from retrieved logger")
}

func TestFromContext_DefaultLogger(t *testing.T) {
	log := FromContext(context.Background())
	assert.NotEqual(t, zerolog.Disabled, log.GetLevel())
}

func TestWithFields(t *testing.T) {
	buf := &bytes.Buffer{}
	log := WithFields(NewWithWriter(buf), map[string]interface{}{
		"entity_id": "Konto_A",
		"step":      "normalize",
	})

	log.Info().Msg("test message")

	output := buf.String()
	assert.Contains(t, output, `"entity_id":"Konto_A"`)
	assert.Contains(t, output, `"step":"normalize"`)
}
