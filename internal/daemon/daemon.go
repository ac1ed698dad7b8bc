// Package daemon hosts the long-running gaelog process: it enforces
// single-instance execution, owns the session store and manager, and
// answers the control queries the IPC layer exposes.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/gofrs/flock"

	"gaelog/internal/config"
	"gaelog/internal/deps"
	"gaelog/internal/logging"
	"gaelog/internal/session"
	"gaelog/internal/store"
)

// Daemon coordinates tail sessions and enforces single-instance execution.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *store.Store
	sessions *session.Manager
	logPath  string

	lockPath string
	lock     *flock.Flock

	running      atomic.Bool
	shutdownOnce sync.Once
	shutdownCh   chan struct{}
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	PID          int
	Session      session.Snapshot
	SessionStats map[store.Status]int
	StoreDBPath  string
	LockFilePath string
	LogDir       string
	OutputDir    string
	Dependencies []deps.Status
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, st *store.Store, logger *slog.Logger, sessions *session.Manager) (*Daemon, error) {
	if cfg == nil || st == nil || sessions == nil {
		return nil, errors.New("daemon requires config, store, and session manager")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	lockPath := filepath.Join(cfg.Paths.LogDir, "gaelogd.lock")
	return &Daemon{
		cfg:      cfg,
		logger:   logger,
		store:    st,
		sessions: sessions,
		logPath:  filepath.Join(cfg.Paths.LogDir, "gaelog.log"),
		lockPath: lockPath,
		lock:     flock.New(lockPath),

		shutdownCh: make(chan struct{}),
	}, nil
}

// RequestShutdown asks the daemon process to exit. Idempotent; the
// process owner watches ShutdownRequested.
func (d *Daemon) RequestShutdown() {
	d.shutdownOnce.Do(func() { close(d.shutdownCh) })
}

// ShutdownRequested is closed once a shutdown has been requested over IPC.
func (d *Daemon) ShutdownRequested() <-chan struct{} {
	return d.shutdownCh
}

// Start acquires the single-instance lock and reconciles sessions left
// running by a previous daemon process.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another gaelog daemon instance is already running")
	}

	interrupted, err := d.store.MarkInterrupted(ctx)
	if err != nil {
		_ = d.lock.Unlock()
		return fmt.Errorf("reconcile sessions: %w", err)
	}
	if interrupted > 0 {
		d.logger.Warn("marked sessions from a previous run as failed",
			logging.Int64("count", interrupted))
	}

	d.running.Store(true)
	d.logger.Info("gaelog daemon started", logging.String("lock", d.lockPath))
	return nil
}

// Stop halts any running session and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if err := d.sessions.Close(context.Background()); err != nil {
		d.logger.Warn("failed to stop session during shutdown", logging.Error(err))
	}
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("gaelog daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// StartSession begins tailing the project's logs.
func (d *Daemon) StartSession(ctx context.Context, projectID string) (session.Snapshot, error) {
	return d.sessions.Start(ctx, projectID)
}

// StopSession ends the running tail session.
func (d *Daemon) StopSession(ctx context.Context) (session.Snapshot, error) {
	return d.sessions.Stop(ctx)
}

// SessionSnapshot reports the current session state without blocking.
func (d *Daemon) SessionSnapshot() session.Snapshot {
	return d.sessions.Snapshot()
}

// ListSessions returns session history, newest first.
func (d *Daemon) ListSessions(ctx context.Context, limit int) ([]*store.Session, error) {
	return d.store.List(ctx, limit)
}

// GetSession returns a single session by id.
func (d *Daemon) GetSession(ctx context.Context, id string) (*store.Session, error) {
	return d.store.Get(ctx, id)
}

// ClearSessions removes all session history.
func (d *Daemon) ClearSessions(ctx context.Context) (int64, error) {
	return d.store.Clear(ctx)
}

// LogPath returns the path to the daemon's own diagnostic log file.
func (d *Daemon) LogPath() string {
	return d.logPath
}

// OutputLogPath returns the tailed output file to read for `gaelog tail`:
// the active session's file, or the last session's final file when idle.
func (d *Daemon) OutputLogPath(ctx context.Context) string {
	if snap := d.sessions.Snapshot(); snap.Active {
		return snap.CurrentFile
	}
	sessions, err := d.store.List(ctx, 1)
	if err != nil || len(sessions) == 0 {
		return ""
	}
	return sessions[0].LastFile
}

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) Status {
	stats, err := d.store.Stats(ctx)
	if err != nil {
		d.logger.Warn("collect session stats", logging.Error(err))
	}
	return Status{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		Session:      d.sessions.Snapshot(),
		SessionStats: stats,
		StoreDBPath:  d.store.Path(),
		LockFilePath: d.lockPath,
		LogDir:       d.cfg.Paths.LogDir,
		OutputDir:    d.cfg.OutputDir(),
		Dependencies: deps.CheckBinaries(deps.Defaults(d.cfg.GCloudBinary())),
	}
}
