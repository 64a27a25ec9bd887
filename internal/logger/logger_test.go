package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"", zerolog.InfoLevel},
		{"debug", zerolog.DebugLevel},
		{"WARN", zerolog.WarnLevel},
		{"-1", zerolog.TraceLevel},
		{"3", zerolog.ErrorLevel},
		{"chatty", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ParseLevel(tt.in))
		})
	}
}

func TestGetLogLevelPrefersEnv(t *testing.T) {
	t.Setenv(LevelEnv, "error")
	assert.Equal(t, zerolog.ErrorLevel, GetLogLevel("debug"))

	t.Setenv(LevelEnv, "")
	assert.Equal(t, zerolog.DebugLevel, GetLogLevel("debug"))
}

func TestNewWritesStructuredEntries(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, zerolog.InfoLevel)

	log.Debug().Msg("hidden")
	require.Zero(t, buf.Len(), "debug is below the level")

	log.Error().Stack().Err(errors.New("boom")).Str("node", "llm-1").Msg("node run failed")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "error", entry["level"])
	assert.Equal(t, "node run failed", entry["message"])
	assert.Equal(t, "llm-1", entry["node"])
	assert.Equal(t, "boom", entry["error"])
	assert.Contains(t, entry, "time")
	assert.Contains(t, entry, "stack", "pkg/errors stacks are marshalled")
}
