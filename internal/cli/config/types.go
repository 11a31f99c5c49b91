// Package config provides configuration management for the polyscan CLI.
//
// Values are layered with koanf: built-in defaults, then polyscan.yaml,
// then POLYSCAN_* environment variables, then explicitly set flags.
package config

import (
	"time"

	"github.com/leapstack-labs/polyscan/internal/engine"
	"github.com/leapstack-labs/polyscan/pkg/expression"
)

// ServerConfig holds configuration for the HTTP server.
type ServerConfig struct {
	Addr string `koanf:"addr"`
	Port int    `koanf:"port"`
}

// Config holds all CLI configuration options.
type Config struct {
	Expression   string        `koanf:"expression"`
	Variables    []string      `koanf:"variables"`
	NStart       int64         `koanf:"n_start"`
	NEnd         int64         `koanf:"n_end"`
	Radius       int64         `koanf:"radius"`
	Tolerance    float64       `koanf:"tolerance"`
	Evaluator    string        `koanf:"evaluator"`
	Workers      int           `koanf:"workers"`
	EventBuffer  int           `koanf:"event_buffer"`
	Timeout      time.Duration `koanf:"timeout"`
	StatePath    string        `koanf:"state_path"`
	Persist      bool          `koanf:"persist"`
	Verbose      bool          `koanf:"verbose"`
	OutputFormat string        `koanf:"output"`
	LogLevel     string        `koanf:"log_level"`
	LogFormat    string        `koanf:"log_format"`
	Server       ServerConfig  `koanf:"server"`
}

// Default configuration values. The search defaults match the classic
// sum-of-three-cubes setup.
const (
	DefaultExpression  = "x**3 + y**3 + z**3"
	DefaultVariables   = "x,y,z"
	DefaultNStart      = 1
	DefaultNEnd        = 10
	DefaultRadius      = 10
	DefaultStateFile   = ".polyscan/state.db"
	DefaultOutput      = "auto" // Auto-detect: TTY=text, non-TTY=markdown
	DefaultLogLevel    = "warn"
	DefaultLogFormat   = "text"
	DefaultServerAddr  = "127.0.0.1"
	DefaultServerPort  = 8765
	DefaultWorkerCount = 1
)

// Params converts the search portion of the config into engine parameters.
func (c *Config) Params() engine.Params {
	return engine.Params{
		Expression: c.Expression,
		Variables:  append([]string(nil), c.Variables...),
		NStart:     c.NStart,
		NEnd:       c.NEnd,
		Radius:     c.Radius,
	}
}

// EngineConfig builds an engine configuration from the loaded values.
// The store and logger are supplied by the caller.
func (c *Config) EngineConfig() engine.Config {
	backend, _ := expression.ParseBackend(c.Evaluator)
	return engine.Config{
		Evaluator:   backend,
		Tolerance:   c.Tolerance,
		Workers:     c.Workers,
		EventBuffer: c.EventBuffer,
	}
}
