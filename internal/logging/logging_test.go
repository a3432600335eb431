package logging_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/dexroute/internal/config"
	"github.com/katalvlaran/dexroute/internal/logging"
)

func TestNewWithWriter_JSON(t *testing.T) {
	var buf bytes.Buffer
	log := logging.NewWithWriter(config.Logging{Level: "warn"}, &buf)

	log.Info().Msg("dropped")
	assert.Zero(t, buf.Len())

	log.Warn().Str("pool", "ab").Msg("kept")
	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "warn", line["level"])
	assert.Equal(t, "ab", line["pool"])
	assert.Equal(t, "kept", line["message"])
	assert.IsType(t, float64(0), line["time"], "unix milliseconds")
}

func TestNewWithWriter_LevelFallback(t *testing.T) {
	for _, level := range []string{"", "loud"} {
		log := logging.NewWithWriter(config.Logging{Level: level}, &bytes.Buffer{})
		assert.Equal(t, zerolog.InfoLevel, log.GetLevel(), "level %q", level)
	}
}

func TestNewWithWriter_Pretty(t *testing.T) {
	var buf bytes.Buffer
	log := logging.NewWithWriter(config.Logging{Level: "debug", Pretty: true}, &buf)
	log.Debug().Msg("hello")

	assert.Contains(t, buf.String(), "hello")
	assert.False(t, json.Valid(bytes.TrimSpace(buf.Bytes())), "console output is not JSON")
}
