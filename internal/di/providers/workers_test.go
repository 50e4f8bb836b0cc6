package providers

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestPeriodicJob_RunsAndStops(t *testing.T) {
	defer goleak.VerifyNone(t)

	var runs atomic.Int32
	job := startPeriodicJob("test", 5*time.Millisecond, slog.New(slog.DiscardHandler), func(context.Context) (int, error) {
		runs.Add(1)
		return 1, nil
	})

	assert.Eventually(t, func() bool { return runs.Load() >= 3 }, time.Second, time.Millisecond)
	require.NoError(t, job.Shutdown())

	after := runs.Load()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, after, runs.Load())
}

func TestPeriodicJob_ShutdownWaitsForTask(t *testing.T) {
	defer goleak.VerifyNone(t)

	started := make(chan struct{})
	var finished atomic.Bool
	job := startPeriodicJob("slow", time.Hour, slog.New(slog.DiscardHandler), func(ctx context.Context) (int, error) {
		close(started)
		<-ctx.Done()
		finished.Store(true)
		return 0, errors.New("canceled")
	})

	<-started
	require.NoError(t, job.Shutdown())
	assert.True(t, finished.Load())
}
