package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitTo_JSONWithComponent(t *testing.T) {
	var buf bytes.Buffer
	InitTo(&buf, "production", "debug")
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.InfoLevel) })

	Component("catalog").Debug().Str("query", "catan").Msg("cache miss")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "catalog", entry["component"])
	assert.Equal(t, "gameshelf-backend", entry["service"])
	assert.Equal(t, "catan", entry["query"])
	assert.Equal(t, "debug", entry["level"])
}

func TestInitTo_InvalidLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	InitTo(&buf, "production", "loud")

	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
	Component("x").Debug().Msg("hidden")
	assert.Zero(t, buf.Len())
}
