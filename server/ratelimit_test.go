package server_test

import (
	"testing"

	"github.com/guireq/libreria-java-books/server"
	"github.com/stretchr/testify/require"
)

func TestRateLimiter_PerClient(t *testing.T) {
	rl := server.NewRateLimiter(1, 2)
	t.Cleanup(rl.Stop)

	require.True(t, rl.Allow("10.0.0.1"))
	require.True(t, rl.Allow("10.0.0.1"))
	require.False(t, rl.Allow("10.0.0.1"))

	require.True(t, rl.Allow("10.0.0.2"), "buckets are per client")
}

func TestRateLimiter_Disabled(t *testing.T) {
	rl := server.NewRateLimiter(0, 0)
	t.Cleanup(rl.Stop)

	for range 100 {
		require.True(t, rl.Allow("10.0.0.1"))
	}
}

func TestRateLimiter_StopTwice(t *testing.T) {
	rl := server.NewRateLimiter(5, 10)
	rl.Stop()
	rl.Stop()
}
