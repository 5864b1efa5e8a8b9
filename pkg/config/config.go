// Package config loads arithgraph settings from a TOML file and the environment.
//
// Settings are resolved in increasing priority:
//
//  1. Built-in defaults ([Default]).
//  2. The config file, by default $XDG_CONFIG_HOME/arithgraph/config.toml.
//  3. ARITHGRAPH_* environment variables ([Config.ApplyEnv]).
//  4. Command-line flags, applied by the CLI.
//
// A config file looks like:
//
//	[search]
//	min_weight = 1
//	max_weight = 30
//	executor = "local"
//	workers = 8
//
//	[http]
//	listen = ":8080"
//	workers = ["http://10.0.0.5:8080", "http://10.0.0.6:8080"]
//
//	[redis]
//	addr = "localhost:6379"
//	queue = "arithgraph:tasks"
package config

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"

	"github.com/matzehuels/arithgraph/pkg/dispatch"
	"github.com/matzehuels/arithgraph/pkg/enum"
	apperrors "github.com/matzehuels/arithgraph/pkg/errors"
	"github.com/matzehuels/arithgraph/pkg/search"
)

const (
	appName  = "arithgraph"
	fileName = "config.toml"
	envPref  = "ARITHGRAPH_"
)

// Executor names accepted in [search] executor.
const (
	ExecutorInline = "inline"
	ExecutorLocal  = dispatch.ExecutorLocal
	ExecutorHTTP   = dispatch.ExecutorHTTP
	ExecutorRedis  = dispatch.ExecutorRedis
)

// Executors lists the accepted executor names.
var Executors = []string{ExecutorInline, ExecutorLocal, ExecutorHTTP, ExecutorRedis}

// Config is the complete configuration.
type Config struct {
	Search SearchConfig `toml:"search"`
	HTTP   HTTPConfig   `toml:"http"`
	Redis  RedisConfig  `toml:"redis"`
}

// SearchConfig controls how searches run.
type SearchConfig struct {
	MinWeight  uint64        `toml:"min_weight"`
	MaxWeight  uint64        `toml:"max_weight"`
	PrefixLen  int           `toml:"prefix_len"`
	Executor   string        `toml:"executor"`
	Workers    int           `toml:"workers"`
	Retries    int           `toml:"retries"`
	CheckEvery int           `toml:"check_every"`
	Timeout    time.Duration `toml:"timeout"`
}

// HTTPConfig covers both the worker server and the coordinator's HTTP executor.
type HTTPConfig struct {
	Listen      string        `toml:"listen"`      // worker listen address
	Concurrency int           `toml:"concurrency"` // tasks a worker runs at once; 0 = NumCPU
	Workers     []string      `toml:"workers"`     // worker URLs used by the coordinator
	Timeout     time.Duration `toml:"timeout"`     // per task
}

// RedisConfig configures the Redis work queue.
type RedisConfig struct {
	Addr        string        `toml:"addr"`
	Password    string        `toml:"password"`
	DB          int           `toml:"db"`
	Queue       string        `toml:"queue"`
	ResultTTL   time.Duration `toml:"result_ttl"`
	PollTimeout time.Duration `toml:"poll_timeout"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Search: SearchConfig{
			MinWeight:  1,
			MaxWeight:  10,
			PrefixLen:  search.DefaultPrefixLen,
			Executor:   ExecutorLocal,
			CheckEvery: search.DefaultCheckEvery,
		},
		HTTP: HTTPConfig{
			Listen:  ":8080",
			Timeout: dispatch.DefaultHTTPTimeout,
		},
		Redis: RedisConfig{
			Addr:        dispatch.DefaultRedisAddr,
			Queue:       dispatch.DefaultRedisQueue,
			ResultTTL:   dispatch.DefaultResultTTL,
			PollTimeout: dispatch.DefaultPollTimeout,
		},
	}
}

// DefaultPath returns the config file location using the XDG convention
// (~/.config/arithgraph/config.toml).
func DefaultPath() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, appName, fileName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, fileName), nil
}

// Load resolves the configuration. An empty path means [DefaultPath], which
// may be absent; an explicit path must exist.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrCodeInvalidConfig, err, "locate config file")
		}
		path = p
	}

	if err := cfg.decodeFile(path); err != nil && (explicit || !errors.Is(err, fs.ErrNotExist)) {
		return nil, err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) decodeFile(path string) error {
	meta, err := toml.DecodeFile(path, c)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return apperrors.Wrap(apperrors.ErrCodeFileNotFound, err, "config file %s", path)
		}
		return apperrors.Wrap(apperrors.ErrCodeInvalidConfig, err, "parse %s", path)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return apperrors.New(apperrors.ErrCodeInvalidConfig, "%s: unknown keys %s", path, strings.Join(keys, ", "))
	}
	return nil
}

// Write encodes c as TOML.
func (c *Config) Write(w io.Writer) error {
	return toml.NewEncoder(w).Encode(c)
}

// =============================================================================
// Environment
// =============================================================================

// ApplyEnv overrides fields from ARITHGRAPH_* variables, for example
// ARITHGRAPH_MAX_WEIGHT=30 or ARITHGRAPH_HTTP_WORKERS=http://a:8080,http://b:8080.
func (c *Config) ApplyEnv() error {
	e := envReader{}
	e.uintVar("MIN_WEIGHT", &c.Search.MinWeight)
	e.uintVar("MAX_WEIGHT", &c.Search.MaxWeight)
	e.intVar("PREFIX_LEN", &c.Search.PrefixLen)
	e.strVar("EXECUTOR", &c.Search.Executor)
	e.intVar("WORKERS", &c.Search.Workers)
	e.intVar("RETRIES", &c.Search.Retries)
	e.intVar("CHECK_EVERY", &c.Search.CheckEvery)
	e.durationVar("TIMEOUT", &c.Search.Timeout)

	e.strVar("HTTP_LISTEN", &c.HTTP.Listen)
	e.intVar("HTTP_CONCURRENCY", &c.HTTP.Concurrency)
	e.listVar("HTTP_WORKERS", &c.HTTP.Workers)
	e.durationVar("HTTP_TIMEOUT", &c.HTTP.Timeout)

	e.strVar("REDIS_ADDR", &c.Redis.Addr)
	e.strVar("REDIS_PASSWORD", &c.Redis.Password)
	e.intVar("REDIS_DB", &c.Redis.DB)
	e.strVar("REDIS_QUEUE", &c.Redis.Queue)
	e.durationVar("REDIS_RESULT_TTL", &c.Redis.ResultTTL)
	e.durationVar("REDIS_POLL_TIMEOUT", &c.Redis.PollTimeout)
	return e.err
}

// envReader parses variables until the first error.
type envReader struct{ err error }

func (e *envReader) lookup(key string) (string, bool) {
	if e.err != nil {
		return "", false
	}
	v, ok := os.LookupEnv(envPref + key)
	return strings.TrimSpace(v), ok && strings.TrimSpace(v) != ""
}

func (e *envReader) fail(key string, err error) {
	e.err = apperrors.Wrap(apperrors.ErrCodeInvalidConfig, err, "%s%s", envPref, key)
}

func (e *envReader) strVar(key string, dst *string) {
	if v, ok := e.lookup(key); ok {
		*dst = v
	}
}

func (e *envReader) listVar(key string, dst *[]string) {
	if v, ok := e.lookup(key); ok {
		var out []string
		for _, s := range strings.Split(v, ",") {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
		*dst = out
	}
}

func (e *envReader) intVar(key string, dst *int) {
	if v, ok := e.lookup(key); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			e.fail(key, err)
			return
		}
		*dst = n
	}
}

func (e *envReader) uintVar(key string, dst *uint64) {
	if v, ok := e.lookup(key); ok {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			e.fail(key, err)
			return
		}
		*dst = n
	}
}

func (e *envReader) durationVar(key string, dst *time.Duration) {
	if v, ok := e.lookup(key); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			e.fail(key, err)
			return
		}
		*dst = d
	}
}

// =============================================================================
// Validation and Conversion
// =============================================================================

// Validate checks the configuration for values no component would accept.
func (c *Config) Validate() error {
	s := c.Search
	if err := c.Range().Validate(); err != nil {
		return apperrors.Wrap(apperrors.ErrCodeInvalidConfig, err, "[search] weights")
	}
	if !slices.Contains(Executors, s.Executor) {
		return apperrors.New(apperrors.ErrCodeInvalidConfig, "[search] executor %q: want one of %s", s.Executor, strings.Join(Executors, ", "))
	}
	for name, v := range map[string]int{
		"[search] prefix_len":  s.PrefixLen,
		"[search] workers":     s.Workers,
		"[search] retries":     s.Retries,
		"[search] check_every": s.CheckEvery,
		"[http] concurrency":   c.HTTP.Concurrency,
		"[redis] db":           c.Redis.DB,
	} {
		if v < 0 {
			return apperrors.New(apperrors.ErrCodeInvalidConfig, "%s must not be negative, got %d", name, v)
		}
	}
	if s.Timeout < 0 || c.HTTP.Timeout < 0 || c.Redis.ResultTTL < 0 || c.Redis.PollTimeout < 0 {
		return apperrors.New(apperrors.ErrCodeInvalidConfig, "durations must not be negative")
	}
	for _, u := range c.HTTP.Workers {
		if err := apperrors.ValidateURL(u); err != nil {
			return apperrors.Wrap(apperrors.ErrCodeInvalidConfig, err, "[http] workers")
		}
	}
	if s.Executor == ExecutorHTTP && len(c.HTTP.Workers) == 0 {
		return apperrors.New(apperrors.ErrCodeInvalidConfig, "executor %q needs [http] workers", ExecutorHTTP)
	}
	return nil
}

// Range returns the configured weight range.
func (c *Config) Range() enum.Range {
	return enum.Range{Min: c.Search.MinWeight, Max: c.Search.MaxWeight}
}

// SearchOptions returns the search driver options.
func (c *Config) SearchOptions(logger *log.Logger) search.Options {
	return search.Options{
		PrefixLen:  c.Search.PrefixLen,
		CheckEvery: c.Search.CheckEvery,
		Logger:     logger,
	}
}

// RedisOptions returns the options for the Redis executor and worker.
func (c *Config) RedisOptions(logger *log.Logger) dispatch.RedisOptions {
	return dispatch.RedisOptions{
		Addr:        c.Redis.Addr,
		Password:    c.Redis.Password,
		DB:          c.Redis.DB,
		Queue:       c.Redis.Queue,
		ResultTTL:   c.Redis.ResultTTL,
		PollTimeout: c.Redis.PollTimeout,
		Logger:      logger,
	}
}

// HTTPOptions returns the options for the HTTP executor.
func (c *Config) HTTPOptions(logger *log.Logger) dispatch.HTTPOptions {
	return dispatch.HTTPOptions{
		Workers: c.HTTP.Workers,
		Timeout: c.HTTP.Timeout,
		Logger:  logger,
	}
}
