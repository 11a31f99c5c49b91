package core

import (
	"errors"
	"fmt"
	"strings"
)

// Variable list errors.
var (
	ErrNoVariables       = errors.New("at least one variable is required")
	ErrBlankVariable     = errors.New("blank variable name")
	ErrDuplicateVariable = errors.New("duplicate variable")
	ErrReservedVariable  = errors.New("variable name is reserved for the target")
	ErrInvalidVariable   = errors.New("invalid variable name")
)

// ParseVariables splits a comma-separated variable list such as "x, y, z".
// Entries are trimmed; blank entries are rejected.
func ParseVariables(s string) ([]string, error) {
	if strings.TrimSpace(s) == "" {
		return nil, ErrNoVariables
	}
	parts := strings.Split(s, ",")
	vars := make([]string, 0, len(parts))
	for i, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			return nil, fmt.Errorf("position %d: %w", i+1, ErrBlankVariable)
		}
		vars = append(vars, p)
	}
	return vars, ValidateVariables(vars)
}

// ValidateVariables checks that vars is a non-empty list of distinct
// identifiers, none of which is the target symbol.
func ValidateVariables(vars []string) error {
	if len(vars) == 0 {
		return ErrNoVariables
	}
	seen := make(map[string]struct{}, len(vars))
	for _, v := range vars {
		switch {
		case strings.TrimSpace(v) == "":
			return ErrBlankVariable
		case !IsIdentifier(v):
			return fmt.Errorf("%q: %w", v, ErrInvalidVariable)
		case v == TargetSymbol:
			return fmt.Errorf("%q: %w", v, ErrReservedVariable)
		}
		if _, dup := seen[v]; dup {
			return fmt.Errorf("%q: %w", v, ErrDuplicateVariable)
		}
		seen[v] = struct{}{}
	}
	return nil
}

// IsIdentifier reports whether s is an ASCII identifier: a letter or
// underscore followed by letters, digits or underscores.
func IsIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '_', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case i > 0 && c >= '0' && c <= '9':
		default:
			return false
		}
	}
	return true
}
