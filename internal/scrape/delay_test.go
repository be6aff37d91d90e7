package scrape

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPauser_NextStaysWithinWindow(t *testing.T) {
	t.Parallel()

	p := newPauser(time.Millisecond, 5*time.Millisecond, 42)
	for i := 0; i < 200; i++ {
		d := p.next()
		require.GreaterOrEqual(t, d, time.Millisecond)
		require.LessOrEqual(t, d, 5*time.Millisecond)
	}
}

func TestPauser_ZeroWindowDoesNotBlock(t *testing.T) {
	t.Parallel()

	p := newPauser(0, 0, 1)
	require.NoError(t, p.Pause(context.Background()))
}

func TestPauser_PauseHonorsCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := newPauser(time.Hour, time.Hour, 1)
	start := time.Now()
	err := p.Pause(ctx)
	require.ErrorIs(t, err, context.Canceled)
	require.Less(t, time.Since(start), time.Second)
}
