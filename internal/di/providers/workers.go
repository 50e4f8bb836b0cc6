package providers

import (
	"context"
	"log/slog"
	"time"

	"github.com/samber/do/v2"

	"github.com/gameshelf/gameshelf-server/internal/service"
)

const (
	sessionCleanupInterval = time.Hour
	metaGCInterval         = 10 * time.Minute
)

// PeriodicJob runs a task once at start and then on every tick until shut
// down.
type PeriodicJob struct {
	name   string
	cancel context.CancelFunc
	done   chan struct{}
}

// startPeriodicJob launches task. The task reports how many items it
// handled; zero-count runs are not logged.
func startPeriodicJob(name string, every time.Duration, log *slog.Logger, task func(context.Context) (int, error)) *PeriodicJob {
	ctx, cancel := context.WithCancel(context.Background())
	job := &PeriodicJob{name: name, cancel: cancel, done: make(chan struct{})}
	log = log.With("job", name)

	run := func() {
		n, err := task(ctx)
		switch {
		case err != nil && ctx.Err() == nil:
			log.Warn("periodic job failed", "error", err)
		case n > 0:
			log.Info("periodic job completed", "count", n)
		}
	}

	go func() {
		defer close(job.done)
		ticker := time.NewTicker(every)
		defer ticker.Stop()

		run()
		for {
			select {
			case <-ticker.C:
				run()
			case <-ctx.Done():
				return
			}
		}
	}()

	log.Info("periodic job started", "interval", every)
	return job
}

// Shutdown implements do.Shutdowner and waits for a running task to return.
func (j *PeriodicJob) Shutdown() error {
	j.cancel()
	<-j.done
	return nil
}

// SessionCleanupJob purges expired sessions.
type SessionCleanupJob struct{ *PeriodicJob }

// ProvideSessionCleanupJob provides the periodic session cleanup job.
func ProvideSessionCleanupJob(i do.Injector) (*SessionCleanupJob, error) {
	sessions := do.MustInvoke[*service.SessionService](i)
	log := do.MustInvoke[*slog.Logger](i)

	return &SessionCleanupJob{startPeriodicJob("session_cleanup", sessionCleanupInterval, log, sessions.DeleteExpiredSessions)}, nil
}

// MetaGCJob reclaims space in the flag store's value log.
type MetaGCJob struct{ *PeriodicJob }

// ProvideMetaGCJob provides the periodic Badger value log GC job.
func ProvideMetaGCJob(i do.Injector) (*MetaGCJob, error) {
	meta := do.MustInvoke[*MetaHandle](i)
	log := do.MustInvoke[*slog.Logger](i)

	return &MetaGCJob{startPeriodicJob("meta_gc", metaGCInterval, log, meta.CollectGarbage)}, nil
}
