package snapshot

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/use-agent/skisnap/models"
)

// Notifier is told about every snapshot that was written successfully.
// Implementations must not block.
type Notifier interface {
	SnapshotWritten(snap models.Snapshot, path string)
}

// Runner builds and writes a snapshot. Runs never overlap.
type Runner struct {
	builder  *Builder
	registry []models.ResortConfig
	path     string
	notifier Notifier

	runMu sync.Mutex

	mu     sync.RWMutex
	status models.RunStatus
}

// NewRunner creates a Runner writing to path. notifier may be nil.
func NewRunner(builder *Builder, registry []models.ResortConfig, path string, notifier Notifier) *Runner {
	return &Runner{
		builder:  builder,
		registry: registry,
		path:     path,
		notifier: notifier,
	}
}

// Path is where snapshots are written.
func (r *Runner) Path() string { return r.path }

// Registry returns the resorts processed by every run.
func (r *Runner) Registry() []models.ResortConfig { return r.registry }

// Run builds one snapshot and writes it, waiting for any run in progress
// to finish first. A write failure is returned, as is ctx's error when the
// run was cancelled; a cancelled run leaves the previous file in place.
func (r *Runner) Run(ctx context.Context) (models.Snapshot, error) {
	r.runMu.Lock()
	defer r.runMu.Unlock()
	return r.run(ctx)
}

// Trigger starts a run in the background and reports false when one is
// already in progress.
func (r *Runner) Trigger(ctx context.Context) bool {
	if !r.runMu.TryLock() {
		return false
	}
	go func() {
		defer r.runMu.Unlock()
		_, _ = r.run(ctx)
	}()
	return true
}

func (r *Runner) run(ctx context.Context) (models.Snapshot, error) {
	started := time.Now()
	r.mu.Lock()
	r.status.Running = true
	r.mu.Unlock()

	snap := r.builder.Build(ctx, r.registry)
	var err error
	cancelled := ctx.Err() != nil
	if cancelled {
		err = fmt.Errorf("snapshot run cancelled, keeping %s: %w", r.path, ctx.Err())
	} else {
		err = Write(r.path, snap)
	}

	r.mu.Lock()
	r.status.Running = false
	r.status.Runs++
	r.status.LastRun = started
	if err != nil {
		r.status.LastError = err.Error()
	} else {
		r.status.LastError = ""
		r.status.LastWritten = time.Now()
	}
	r.mu.Unlock()

	if cancelled {
		slog.Warn("snapshot run cancelled; previous snapshot kept", "path", r.path, "error", err)
		return snap, err
	}
	if err != nil {
		slog.Error("snapshot write failed", "path", r.path, "code", models.CodeOf(err), "error", err)
		return snap, err
	}

	slog.Info("snapshot written", "path", r.path, "last_updated", snap.LastUpdated.Format(models.TimestampLayout))
	if r.notifier != nil {
		r.notifier.SnapshotWritten(snap, r.path)
	}
	return snap, nil
}

// Status returns a copy of the current run status.
func (r *Runner) Status() models.RunStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.status
}
