package config

import (
	"fmt"
	"slices"
	"strings"

	"github.com/leapstack-labs/polyscan/pkg/core"
	"github.com/leapstack-labs/polyscan/pkg/expression"
)

// OutputModes lists the accepted values for the output key.
var OutputModes = []string{"auto", "text", "markdown", "json", "csv", "yaml", "table"}

// Validate checks if the configuration is valid. Search parameters are
// checked by the engine when a run starts; only settings that would
// break every command are rejected here.
func (c *Config) Validate() error {
	if _, err := expression.ParseBackend(c.Evaluator); err != nil {
		return fmt.Errorf("invalid evaluator: %w", err)
	}
	if !slices.Contains(OutputModes, c.OutputFormat) {
		return fmt.Errorf("unknown output format %q (want one of %s)", c.OutputFormat, strings.Join(OutputModes, ", "))
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	if c.Tolerance < 0 {
		return fmt.Errorf("tolerance must not be negative, got %g", c.Tolerance)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative, got %s", c.Timeout)
	}
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		return err
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("unknown log format %q (want text or json)", c.LogFormat)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server port out of range: %d", c.Server.Port)
	}
	return nil
}

// ValidateSearch checks the variable list before a search is started so
// the CLI can report it without waiting for the engine.
func (c *Config) ValidateSearch() error {
	if strings.TrimSpace(c.Expression) == "" {
		return fmt.Errorf("expression is required\nHint: pass --expression or set expression in polyscan.yaml")
	}
	if err := core.ValidateVariables(c.Variables); err != nil {
		return fmt.Errorf("invalid variables: %w", err)
	}
	return nil
}
