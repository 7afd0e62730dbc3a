package slog

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func TestNew(t *testing.T) {
	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		logger, err := New(&buf, DebugLevel, JSON_FORMAT)
		require.NoError(t, err)

		logger = ChildLoggerForSource(logger, "compiler")
		logger.Debug().Int("ops", 3).Msg("compiled")

		entry := gjson.ParseBytes(buf.Bytes())
		assert.Equal(t, "compiled", entry.Get("msg").String())
		assert.Equal(t, "debug", entry.Get("lvl").String())
		assert.Equal(t, "compiler", entry.Get("src").String())
		assert.Equal(t, int64(3), entry.Get("ops").Int())
		assert.True(t, entry.Get("tm").Exists())
	})

	t.Run("level filtering", func(t *testing.T) {
		var buf bytes.Buffer
		logger, err := New(&buf, WarnLevel, JSON_FORMAT)
		require.NoError(t, err)

		logger.Info().Msg("hidden")
		assert.Zero(t, buf.Len())
	})

	t.Run("console", func(t *testing.T) {
		var buf bytes.Buffer
		logger, err := New(&buf, InfoLevel, CONSOLE_FORMAT)
		require.NoError(t, err)

		child := ChildLoggerForSource(logger, "cli")
		child.Info().Msg("hello")
		assert.Contains(t, buf.String(), "hello")
		assert.Contains(t, buf.String(), "cli")
	})

	t.Run("unknown format", func(t *testing.T) {
		_, err := New(&bytes.Buffer{}, InfoLevel, "xml")
		assert.Error(t, err)
	})
}

func TestParseLevel(t *testing.T) {
	level, err := ParseLevel("")
	require.NoError(t, err)
	assert.Equal(t, zerolog.InfoLevel, level)

	level, err = ParseLevel("debug")
	require.NoError(t, err)
	assert.Equal(t, zerolog.DebugLevel, level)

	_, err = ParseLevel("loud")
	assert.Error(t, err)
}
