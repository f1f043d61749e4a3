package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestManagerRejectsUnconfiguredMode(t *testing.T) {
	t.Parallel()

	m := NewManager(map[Mode]PoolConfig{
		ModePrimary: {ConnString: "postgres://admin@localhost:5432/admin"},
	})

	_, err := m.Pool(context.Background(), ModeLegacy)
	require.Error(t, err)
	require.Contains(t, err.Error(), "legacy")
}

func TestManagerAppliesAcquireTimeout(t *testing.T) {
	t.Parallel()

	// 192.0.2.0/24 is TEST-NET; connection attempts hang until the deadline.
	m := NewManager(map[Mode]PoolConfig{
		ModePrimary: {
			ConnString:     "postgres://admin@192.0.2.1:5432/admin",
			AcquireTimeout: 100 * time.Millisecond,
		},
	})

	start := time.Now()
	_, err := m.Pool(context.Background(), ModePrimary)
	require.ErrorIs(t, err, ErrUnavailable)
	require.Less(t, time.Since(start), 5*time.Second)
}

func TestManagerRequiresAtLeastOneMode(t *testing.T) {
	t.Parallel()

	require.Panics(t, func() { NewManager(nil) })
}
