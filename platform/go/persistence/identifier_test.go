package persistence

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeSchemaName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		input       string
		expect      string
		expectError bool
	}{
		{name: "already normalized", input: "acme_foods", expect: "acme_foods"},
		{name: "trims and lowercases", input: "  Acme_Foods ", expect: "acme_foods"},
		{name: "digits allowed after first", input: "tenant42", expect: "tenant42"},
		{name: "empty", input: "   ", expectError: true},
		{name: "leading digit", input: "42tenant", expectError: true},
		{name: "hyphen", input: "acme-foods", expectError: true},
		{name: "quote injection", input: `acme"; DROP SCHEMA public; --`, expectError: true},
		{name: "pg_ prefix", input: "pg_temp_7", expectError: true},
		{name: "reserved public", input: "public", expectError: true},
		{name: "reserved internal_admin", input: "Internal_Admin", expectError: true},
		{name: "too long", input: strings.Repeat("a", 64), expectError: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := NormalizeSchemaName(tt.input)
			if tt.expectError {
				require.ErrorIs(t, err, ErrInvalidSchemaName)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.expect, got)
		})
	}
}
