package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/adrg/xdg"
	"github.com/goccy/go-yaml"

	"github.com/mattpair/conder-sub001/internal/buildcache"
	"github.com/mattpair/conder-sub001/internal/slog"
)

const (
	CONDER_APP_NAME = "conder"

	CONFIG_FILE_NAME    = "config.yaml"
	CONFIG_FILE_RELPATH = CONDER_APP_NAME + "/" + CONFIG_FILE_NAME

	LOG_LEVEL_ENV_VAR  = "CONDER_LOG_LEVEL"
	LOG_FORMAT_ENV_VAR = "CONDER_LOG_FORMAT"
	WORKERS_ENV_VAR    = "CONDER_WORKERS"
	CACHE_DIR_ENV_VAR  = "CONDER_CACHE_DIR"
	NO_CACHE_ENV_VAR   = "CONDER_NO_CACHE"
	INDENT_ENV_VAR     = "CONDER_INDENT"

	DEFAULT_LOG_LEVEL  = "warn"
	DEFAULT_LOG_FORMAT = slog.CONSOLE_FORMAT
	MAX_INDENT         = 8
)

var (
	ErrInvalidConfig = errors.New("invalid configuration")
)

// Config is the configuration of the CLI. Values come from the configuration file, then from
// CONDER_* environment variables, then from flags.
type Config struct {
	LogLevel  string `yaml:"log-level"`
	LogFormat string `yaml:"log-format"`

	// Workers is the maximum number of functions compiled in parallel, 0 means the number of CPUs.
	Workers int `yaml:"workers"`

	CacheDir string `yaml:"cache-dir"`
	NoCache  bool   `yaml:"no-cache"`

	// Indent is the number of spaces used to indent the output document, 0 means compact output.
	Indent int `yaml:"indent"`

	// Colorize and HighlightOutput are not read from the file, see ShouldColorizeFile.
	Colorize        bool `yaml:"-"` // stderr
	HighlightOutput bool `yaml:"-"` // stdout
}

func Default() Config {
	return Config{
		LogLevel:  DEFAULT_LOG_LEVEL,
		LogFormat: DEFAULT_LOG_FORMAT,
		CacheDir:  buildcache.DefaultDir(),
	}
}

// Load searches for the configuration file in the XDG config directories, the default configuration
// is returned if there is none. Environment variables are applied in both cases.
func Load() (Config, error) {
	cfg := Default()

	path, err := xdg.SearchConfigFile(CONFIG_FILE_RELPATH)
	if err == nil {
		cfg, err = LoadFile(path)
		if err != nil {
			return Config{}, err
		}
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	cfg.Colorize = ShouldColorizeFile(os.LookupEnv, os.Stderr)
	cfg.HighlightOutput = ShouldColorizeFile(os.LookupEnv, os.Stdout)
	return cfg, nil
}

// LoadFile reads a configuration file, absent keys keep their default values.
func LoadFile(path string) (Config, error) {
	cfg := Default()

	content, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	if err := yaml.UnmarshalWithOptions(content, &cfg, yaml.DisallowUnknownField()); err != nil {
		return Config{}, fmt.Errorf("%w: %s: %w", ErrInvalidConfig, path, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv overrides the configuration with the CONDER_* variables, lookup is usually os.LookupEnv.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if s, ok := lookup(LOG_LEVEL_ENV_VAR); ok {
		c.LogLevel = s
	}
	if s, ok := lookup(LOG_FORMAT_ENV_VAR); ok {
		c.LogFormat = s
	}
	if s, ok := lookup(CACHE_DIR_ENV_VAR); ok && s != "" {
		c.CacheDir = s
	}

	if s, ok := lookup(WORKERS_ENV_VAR); ok {
		workers, err := strconv.Atoi(s)
		if err != nil {
			return fmt.Errorf("%w: %s should be an integer", ErrInvalidConfig, WORKERS_ENV_VAR)
		}
		c.Workers = workers
	}

	if s, ok := lookup(INDENT_ENV_VAR); ok {
		indent, err := strconv.Atoi(s)
		if err != nil {
			return fmt.Errorf("%w: %s should be an integer", ErrInvalidConfig, INDENT_ENV_VAR)
		}
		c.Indent = indent
	}

	if s, ok := lookup(NO_CACHE_ENV_VAR); ok {
		c.NoCache = isTruthy(s)
	}

	return c.Validate()
}

func (c Config) Validate() error {
	if _, err := slog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	switch c.LogFormat {
	case slog.JSON_FORMAT, slog.CONSOLE_FORMAT:
	default:
		return fmt.Errorf("%w: log format should be %s or %s", ErrInvalidConfig, slog.JSON_FORMAT, slog.CONSOLE_FORMAT)
	}

	if c.Workers < 0 {
		return fmt.Errorf("%w: the number of workers should be positive", ErrInvalidConfig)
	}
	if c.Indent < 0 || c.Indent > MAX_INDENT {
		return fmt.Errorf("%w: indentation should be between 0 and %d", ErrInvalidConfig, MAX_INDENT)
	}
	return nil
}

// IndentString returns the indentation unit of the output document, "" for compact output.
func (c Config) IndentString() string {
	return strings.Repeat(" ", c.Indent)
}

func isTruthy(s string) bool {
	return len(s) != 0 && s != "false" && s != "0"
}
