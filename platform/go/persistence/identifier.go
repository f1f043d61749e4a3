package persistence

import (
	"fmt"
	"regexp"
	"strings"
)

// ErrInvalidSchemaName is wrapped by every schema name rejection.
var ErrInvalidSchemaName = fmt.Errorf("invalid schema name")

var identifierPattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// reservedSchemas are never valid tenant schema names.
var reservedSchemas = map[string]struct{}{
	"public":             {},
	"internal_admin":     {},
	"information_schema": {},
}

// NormalizeSchemaName trims and lowercases a tenant schema identifier and
// rejects anything that is not a safe, unquoted Postgres identifier. The
// result is the only form ever interpolated into DDL or cross-schema SQL.
func NormalizeSchemaName(input string) (string, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return "", fmt.Errorf("%w: schema name is required", ErrInvalidSchemaName)
	}

	normalized := strings.ToLower(trimmed)
	if len(normalized) > 63 {
		return "", fmt.Errorf("%w %q: exceeds 63 characters", ErrInvalidSchemaName, input)
	}
	if !identifierPattern.MatchString(normalized) {
		return "", fmt.Errorf("%w %q: must match ^[a-z][a-z0-9_]*$", ErrInvalidSchemaName, input)
	}
	if strings.HasPrefix(normalized, "pg_") {
		return "", fmt.Errorf("%w %q: pg_ prefix is reserved", ErrInvalidSchemaName, input)
	}
	if _, reserved := reservedSchemas[normalized]; reserved {
		return "", fmt.Errorf("%w %q: reserved", ErrInvalidSchemaName, input)
	}

	return normalized, nil
}
