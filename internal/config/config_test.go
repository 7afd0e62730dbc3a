package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func env(vars map[string]string) func(string) (string, bool) {
	return func(name string) (string, bool) {
		v, ok := vars[name]
		return v, ok
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), CONFIG_FILE_NAME)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, DEFAULT_LOG_LEVEL, cfg.LogLevel)
	assert.NotEmpty(t, cfg.CacheDir)
	assert.Equal(t, "", cfg.IndentString())
}

func TestLoadFile(t *testing.T) {

	t.Run("all keys", func(t *testing.T) {
		path := writeConfig(t, "log-level: debug\nlog-format: json\nworkers: 3\ncache-dir: /tmp/conder\nno-cache: true\nindent: 2\n")

		cfg, err := LoadFile(path)
		require.NoError(t, err)
		assert.Equal(t, Config{
			LogLevel:  "debug",
			LogFormat: "json",
			Workers:   3,
			CacheDir:  "/tmp/conder",
			NoCache:   true,
			Indent:    2,
		}, cfg)
		assert.Equal(t, "  ", cfg.IndentString())
	})

	t.Run("absent keys keep their default value", func(t *testing.T) {
		cfg, err := LoadFile(writeConfig(t, "workers: 2\n"))
		require.NoError(t, err)
		assert.Equal(t, 2, cfg.Workers)
		assert.Equal(t, DEFAULT_LOG_LEVEL, cfg.LogLevel)
		assert.Equal(t, DEFAULT_LOG_FORMAT, cfg.LogFormat)
	})

	t.Run("unknown key", func(t *testing.T) {
		_, err := LoadFile(writeConfig(t, "colors: true\n"))
		assert.ErrorIs(t, err, ErrInvalidConfig)
	})

	t.Run("invalid value", func(t *testing.T) {
		_, err := LoadFile(writeConfig(t, "log-level: loud\n"))
		assert.ErrorIs(t, err, ErrInvalidConfig)

		_, err = LoadFile(writeConfig(t, "indent: 20\n"))
		assert.ErrorIs(t, err, ErrInvalidConfig)

		_, err = LoadFile(writeConfig(t, "workers: -1\n"))
		assert.ErrorIs(t, err, ErrInvalidConfig)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
		assert.ErrorIs(t, err, os.ErrNotExist)
	})
}

func TestApplyEnv(t *testing.T) {

	t.Run("overrides", func(t *testing.T) {
		cfg := Default()
		err := cfg.ApplyEnv(env(map[string]string{
			LOG_LEVEL_ENV_VAR:  "error",
			LOG_FORMAT_ENV_VAR: "json",
			WORKERS_ENV_VAR:    "4",
			CACHE_DIR_ENV_VAR:  "/var/cache/conder",
			NO_CACHE_ENV_VAR:   "1",
			INDENT_ENV_VAR:     "4",
		}))
		require.NoError(t, err)

		assert.Equal(t, "error", cfg.LogLevel)
		assert.Equal(t, "json", cfg.LogFormat)
		assert.Equal(t, 4, cfg.Workers)
		assert.Equal(t, "/var/cache/conder", cfg.CacheDir)
		assert.True(t, cfg.NoCache)
		assert.Equal(t, 4, cfg.Indent)
	})

	t.Run("no variables", func(t *testing.T) {
		cfg := Default()
		require.NoError(t, cfg.ApplyEnv(env(nil)))
		assert.Equal(t, Default(), cfg)
	})

	t.Run("falsy no-cache", func(t *testing.T) {
		cfg := Default()
		cfg.NoCache = true
		require.NoError(t, cfg.ApplyEnv(env(map[string]string{NO_CACHE_ENV_VAR: "false"})))
		assert.False(t, cfg.NoCache)
	})

	t.Run("invalid integers", func(t *testing.T) {
		cfg := Default()
		assert.ErrorIs(t, cfg.ApplyEnv(env(map[string]string{WORKERS_ENV_VAR: "many"})), ErrInvalidConfig)

		cfg = Default()
		assert.ErrorIs(t, cfg.ApplyEnv(env(map[string]string{INDENT_ENV_VAR: "-"})), ErrInvalidConfig)
	})

	t.Run("invalid format", func(t *testing.T) {
		cfg := Default()
		assert.ErrorIs(t, cfg.ApplyEnv(env(map[string]string{LOG_FORMAT_ENV_VAR: "xml"})), ErrInvalidConfig)
	})
}

func TestShouldColorize(t *testing.T) {
	assert.False(t, ShouldColorize(env(nil)))
	assert.True(t, ShouldColorize(env(map[string]string{"TERM": "xterm-256color"})))
	assert.True(t, ShouldColorize(env(map[string]string{"COLORTERM": "truecolor"})))
	assert.True(t, ShouldColorize(env(map[string]string{"FORCE_COLOR": "1"})))
	assert.False(t, ShouldColorize(env(map[string]string{"FORCE_COLOR": "0"})))
	assert.False(t, ShouldColorize(env(map[string]string{"FORCE_COLOR": "1", "NO_COLOR": "1"})))
}

func TestShouldColorizeFile(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "out")
	require.NoError(t, err)
	defer f.Close()

	assert.False(t, ShouldColorizeFile(env(map[string]string{"TERM": "xterm-256color"}), f))
	assert.True(t, ShouldColorizeFile(env(map[string]string{"FORCE_COLOR": "1"}), f))
	assert.False(t, ShouldColorizeFile(env(map[string]string{"FORCE_COLOR": "1", "NO_COLOR": "1"}), f))
}
