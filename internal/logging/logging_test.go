package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitWriter_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(&buf, true, FormatJSON)
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.InfoLevel) })

	log.Debug().Str("task_id", "t-1").Msg("toggled")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "debug", entry["level"])
	assert.Equal(t, "t-1", entry["task_id"])
	assert.Equal(t, "toggled", entry["message"])
	assert.True(t, DebugEnabled())
}

func TestInitWriter_ConsoleDropsDebugByDefault(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(&buf, false, "console")

	log.Debug().Msg("hidden")
	assert.Empty(t, buf.String())

	log.Info().Msg("shown")
	assert.Contains(t, buf.String(), "shown")
	assert.False(t, DebugEnabled())
}
