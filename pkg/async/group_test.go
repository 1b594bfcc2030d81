package async_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/newsletter/pkg/async"
)

func TestGroup_ShutdownWaitsForTasks(t *testing.T) {
	t.Parallel()

	g := async.NewGroup()
	var done atomic.Int32
	for range 5 {
		require.NoError(t, g.Go(func(context.Context) {
			time.Sleep(20 * time.Millisecond)
			done.Add(1)
		}))
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	require.NoError(t, g.Shutdown(ctx))
	assert.Equal(t, int32(5), done.Load())
}

func TestGroup_RejectsAfterShutdown(t *testing.T) {
	t.Parallel()

	g := async.NewGroup()
	require.NoError(t, g.Shutdown(context.Background()))
	require.ErrorIs(t, g.Go(func(context.Context) {}), async.ErrGroupClosed)
}

func TestGroup_ShutdownTimeoutCancelsTasks(t *testing.T) {
	t.Parallel()

	g := async.NewGroup()
	started := make(chan struct{})
	var cancelled atomic.Bool
	require.NoError(t, g.Go(func(ctx context.Context) {
		close(started)
		<-ctx.Done()
		cancelled.Store(true)
	}))
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := g.Shutdown(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.True(t, cancelled.Load())
}

func TestGroup_Wait(t *testing.T) {
	t.Parallel()

	g := async.NewGroup()
	var n atomic.Int32
	require.NoError(t, g.Go(func(context.Context) { n.Add(1) }))
	require.NoError(t, g.Go(func(context.Context) { n.Add(1) }))
	g.Wait()
	assert.Equal(t, int32(2), n.Load())
}
