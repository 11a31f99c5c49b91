package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/leapstack-labs/polyscan/internal/engine"
	"github.com/leapstack-labs/polyscan/pkg/expression"
)

// loggerKey is used to store logger in context.
type loggerKey struct{}

// envPrefix is the prefix for environment overrides, e.g. POLYSCAN_N_END.
const envPrefix = "POLYSCAN_"

// Package-level koanf instance and config file tracking
var (
	k              = koanf.New(".")
	configFileUsed string
	currentConfig  *Config
)

// flagKeys maps flag names whose config key differs from the snake_case
// form of the flag.
var flagKeys = map[string]string{
	"state": "state_path",
	"port":  "server.port",
	"addr":  "server.addr",
}

// findConfigFile finds the config file to use.
// Priority: explicit path > polyscan.yaml > polyscan.yml
func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	for _, name := range []string{"polyscan.yaml", "polyscan.yml"} {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}

// Defaults returns the built-in value of every configuration key.
func Defaults() map[string]interface{} {
	return map[string]interface{}{
		"expression":   DefaultExpression,
		"variables":    DefaultVariables,
		"n_start":      DefaultNStart,
		"n_end":        DefaultNEnd,
		"radius":       DefaultRadius,
		"tolerance":    expression.Tolerance,
		"evaluator":    string(expression.BackendNative),
		"workers":      DefaultWorkerCount,
		"event_buffer": engine.DefaultEventBuffer,
		"timeout":      "0s",
		"state_path":   DefaultStateFile,
		"persist":      true,
		"verbose":      false,
		"output":       DefaultOutput,
		"log_level":    DefaultLogLevel,
		"log_format":   DefaultLogFormat,
		"server.addr":  DefaultServerAddr,
		"server.port":  DefaultServerPort,
	}
}

// ResetConfig resets the koanf instance. Used for testing.
func ResetConfig() {
	k = koanf.New(".")
	configFileUsed = ""
	currentConfig = nil
}

// LoadConfig loads configuration from file, environment variables, and flags.
// Precedence (highest to lowest): flags > env vars > config file > defaults
func LoadConfig(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	// Reset koanf for fresh load
	k = koanf.New(".")

	// 1. Load defaults
	if err := k.Load(confmap.Provider(Defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Load config file
	configFileUsed = findConfigFile(cfgFile)
	if configFileUsed != "" {
		if err := k.Load(file.Provider(configFileUsed), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", configFileUsed, err)
		}
	}

	// 3. Load environment variables
	// Transform: POLYSCAN_N_END -> n_end, POLYSCAN_SERVER__PORT -> server.port
	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, envPrefix))
		return strings.ReplaceAll(key, "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Load flags (highest priority)
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			// Only load flags that were explicitly set
			if !f.Changed {
				return "", nil
			}
			if f.Name == "no-persist" {
				off, _ := flags.GetBool("no-persist")
				return "persist", !off
			}
			key := strings.ReplaceAll(f.Name, "-", "_")
			if mapped, ok := flagKeys[f.Name]; ok {
				key = mapped
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	// 5. Unmarshal into Config struct
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				mapstructure.StringToSliceHookFunc(","),
			),
			Result:           &cfg,
			WeaklyTypedInput: true,
			TagName:          "koanf",
		},
	}); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	cfg.Variables = trimVariables(cfg.Variables)
	cfg.Evaluator = strings.ToLower(strings.TrimSpace(cfg.Evaluator))
	cfg.OutputFormat = strings.ToLower(strings.TrimSpace(cfg.OutputFormat))
	cfg.LogFormat = strings.ToLower(strings.TrimSpace(cfg.LogFormat))

	// State paths from the config file are relative to the file.
	stateFromFlag := flags != nil && flags.Changed("state")
	if configFileUsed != "" && !stateFromFlag && cfg.StatePath != DefaultStateFile {
		cfg.StatePath = resolvePathRelativeTo(cfg.StatePath, filepath.Dir(configFileUsed))
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// Store config for access by commands
	currentConfig = &cfg

	return &cfg, nil
}

// trimVariables trims whitespace left by comma splitting. Blank entries are
// kept so validation can reject them.
func trimVariables(vars []string) []string {
	out := make([]string, 0, len(vars))
	for _, v := range vars {
		out = append(out, strings.TrimSpace(v))
	}
	return out
}

// resolvePathRelativeTo resolves a path relative to baseDir if it's not absolute.
func resolvePathRelativeTo(path, baseDir string) string {
	if path == "" || path == ":memory:" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}

// GetConfigFileUsed returns the path to the config file being used, if any.
func GetConfigFileUsed() string {
	return configFileUsed
}

// GetCurrentConfig returns the most recently loaded configuration.
func GetCurrentConfig() *Config {
	return currentConfig
}

// LoggerKey returns the context key used for storing the logger.
func LoggerKey() interface{} {
	return loggerKey{}
}

// WithLogger returns a copy of ctx carrying logger.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// GetLogger retrieves the logger from the command context.
func GetLogger(ctx context.Context) *slog.Logger {
	if ctx == nil {
		return slog.New(slog.DiscardHandler)
	}
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	// Return discard logger as safe fallback
	return slog.New(slog.DiscardHandler)
}
