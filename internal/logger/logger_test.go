package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_WritesJSON(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, slog.LevelInfo)

	log.Info("service account created", "email", "connector@proj.iam.gserviceaccount.com")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "service account created", record["msg"])
	assert.Equal(t, "connector@proj.iam.gserviceaccount.com", record["email"])
	assert.Equal(t, "INFO", record["level"])
}

func TestNew_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, slog.LevelWarn)

	log.Info("suppressed")
	assert.Empty(t, buf.String())

	log.Warn("reported")
	assert.Contains(t, buf.String(), "reported")
}

func TestInitialize_SetsDefault(t *testing.T) {
	log := Initialize(slog.LevelDebug)
	require.NotNil(t, log)
	assert.Equal(t, log, slog.Default())
	assert.True(t, log.Enabled(t.Context(), slog.LevelDebug))
}
