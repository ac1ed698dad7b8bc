// Package session runs tail sessions: one gcloud log source feeding one
// rotating writer, with progress persisted to the session store.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"gaelog/internal/config"
	"gaelog/internal/gcloud"
	"gaelog/internal/logging"
	"gaelog/internal/preflight"
	"gaelog/internal/rotate"
	"gaelog/internal/store"
)

var (
	// ErrSessionActive indicates a session is already running.
	ErrSessionActive = errors.New("a session is already running")
	// ErrNoSession indicates no session is currently running.
	ErrNoSession = errors.New("no session is running")
)

// progressFlushLines is how often counters are written back to the store.
const progressFlushLines = 25

// Snapshot is a point-in-time view of the manager's state.
type Snapshot struct {
	Active      bool
	ID          string
	ProjectID   string
	Mode        string
	StartedAt   time.Time
	Lines       int64
	Bytes       int64
	CurrentFile string
	CurrentSize int64
}

// Manager owns at most one running tail session.
type Manager struct {
	cfg    *config.Config
	store  *store.Store
	logger *slog.Logger

	mu      sync.Mutex
	current *running
}

type running struct {
	id        string
	projectID string
	mode      string
	startedAt time.Time
	source    *gcloud.Source
	writer    *rotate.Writer
	done      chan struct{}

	statMu sync.Mutex
	lines  int64
	bytes  int64
	err    error
}

// NewManager builds a manager over the given configuration and store.
func NewManager(cfg *config.Config, st *store.Store, logger *slog.Logger) *Manager {
	return &Manager{
		cfg:    cfg,
		store:  st,
		logger: logging.NewComponentLogger(logger, "session"),
	}
}

// Start launches a new tail session for the project. An empty projectID
// falls back to the configured default. The gcloud version banner is
// written into the output file before streaming begins.
func (m *Manager) Start(ctx context.Context, projectID string) (Snapshot, error) {
	projectID = strings.TrimSpace(projectID)
	if projectID == "" {
		projectID = strings.TrimSpace(m.cfg.GCloud.Project)
	}
	if projectID == "" {
		return Snapshot{}, errors.New("project id is required (set gcloud.project or pass --project)")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current != nil {
		return Snapshot{}, fmt.Errorf("%w (id %s)", ErrSessionActive, m.current.id)
	}

	if err := m.preflight(); err != nil {
		return Snapshot{}, err
	}

	version, err := gcloud.Version(ctx, m.cfg.GCloudBinary())
	if err != nil {
		return Snapshot{}, err
	}

	writer, err := rotate.NewWriter(rotate.Options{
		Mode:          rotate.Mode(m.cfg.Rotation.Mode),
		BaseDir:       m.cfg.OutputDir(),
		SizeThreshold: m.cfg.Rotation.MaxLogSize,
		MaxFiles:      m.cfg.Rotation.BackupCount,
		FilePrefix:    m.cfg.Rotation.FilePrefix,
	})
	if err != nil {
		return Snapshot{}, err
	}

	r := &running{
		id:        uuid.New().String(),
		projectID: projectID,
		mode:      m.cfg.Rotation.Mode,
		startedAt: time.Now().UTC(),
		writer:    writer,
		done:      make(chan struct{}),
	}

	if err := r.writeBanner(version); err != nil {
		_ = writer.Close()
		return Snapshot{}, err
	}

	if err := m.store.Create(ctx, &store.Session{
		ID:        r.id,
		ProjectID: projectID,
		Mode:      r.mode,
		StartedAt: r.startedAt,
		LastFile:  writer.CurrentPath(),
	}); err != nil {
		_ = writer.Close()
		return Snapshot{}, err
	}

	r.source = gcloud.NewSource(m.cfg.GCloudBinary(), m.logger)
	if err := r.source.Start(ctx, projectID); err != nil {
		_ = writer.Close()
		_ = m.store.Finish(context.Background(), r.id, store.StatusFailed, err.Error(),
			r.lineCount(), r.byteCount(), writer.CurrentPath())
		return Snapshot{}, err
	}

	m.current = r
	m.logger.Info("session started",
		logging.String("id", r.id),
		logging.String("project", projectID),
		logging.String("mode", r.mode),
		logging.String("file", writer.CurrentPath()))

	go m.run(r)
	return m.snapshotLocked(), nil
}

// Stop terminates the running session and waits for its final state to
// be persisted.
func (m *Manager) Stop(ctx context.Context) (Snapshot, error) {
	m.mu.Lock()
	r := m.current
	m.mu.Unlock()
	if r == nil {
		return Snapshot{}, ErrNoSession
	}

	r.source.Stop()
	select {
	case <-r.done:
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	}
	return r.snapshot(), nil
}

// Snapshot reports the current session state, or Active=false when idle.
func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

// Close stops any running session. Used during daemon shutdown.
func (m *Manager) Close(ctx context.Context) error {
	_, err := m.Stop(ctx)
	if errors.Is(err, ErrNoSession) {
		return nil
	}
	return err
}

func (m *Manager) snapshotLocked() Snapshot {
	if m.current == nil {
		return Snapshot{}
	}
	r := m.current
	return Snapshot{
		Active:      true,
		ID:          r.id,
		ProjectID:   r.projectID,
		Mode:        r.mode,
		StartedAt:   r.startedAt,
		Lines:       r.lineCount(),
		Bytes:       r.byteCount(),
		CurrentFile: r.writer.CurrentPath(),
		CurrentSize: r.writer.CurrentSize(),
	}
}

func (m *Manager) preflight() error {
	if err := m.cfg.EnsureDirectories(); err != nil {
		return err
	}
	if err := os.MkdirAll(m.cfg.OutputDir(), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	checks := []preflight.Result{
		preflight.CheckDirectoryAccess("log directory", m.cfg.Paths.LogDir),
		preflight.CheckFreeSpace("free space", m.cfg.Paths.LogDir, m.cfg.Limits.MinFreeMB),
	}
	for _, check := range checks {
		if !check.Passed {
			return fmt.Errorf("preflight %s: %s", check.Name, check.Detail)
		}
	}
	return nil
}

// run copies source lines into the writer until the stream closes. It is
// the only goroutine touching the writer while the session lives.
func (m *Manager) run(r *running) {
	defer close(r.done)

	var writeErr error
	for line := range r.source.Lines() {
		if err := r.writer.WriteLine(line); err != nil {
			writeErr = err
			m.logger.Error("stopping session after write failure",
				logging.String("id", r.id), logging.Error(err))
			r.source.Stop()
			break
		}
		lines, bytes := r.record(line)
		if lines%progressFlushLines == 0 {
			m.flushProgress(r, lines, bytes)
		}
	}
	srcErr := r.source.Err()
	if closeErr := r.writer.Close(); writeErr == nil && closeErr != nil {
		writeErr = closeErr
	}

	status := store.StatusStopped
	detail := ""
	switch {
	case writeErr != nil:
		status = store.StatusFailed
		detail = writeErr.Error()
	case srcErr != nil:
		status = store.StatusEnded
		detail = srcErr.Error()
	}
	r.setErr(writeErr)

	if err := m.store.Finish(context.Background(), r.id, status, detail,
		r.lineCount(), r.byteCount(), r.writer.CurrentPath()); err != nil {
		m.logger.Error("persist final session state", logging.String("id", r.id), logging.Error(err))
	}
	m.logger.Info("session finished",
		logging.String("id", r.id),
		logging.String("status", string(status)),
		logging.Int64("lines", r.lineCount()),
		logging.Int64("bytes", r.byteCount()))

	m.mu.Lock()
	if m.current == r {
		m.current = nil
	}
	m.mu.Unlock()
}

func (m *Manager) flushProgress(r *running, lines, bytes int64) {
	if err := m.store.UpdateProgress(context.Background(), r.id, lines, bytes, r.writer.CurrentPath()); err != nil {
		m.logger.Warn("persist session progress", logging.String("id", r.id), logging.Error(err))
	}
}

func (r *running) writeBanner(version string) error {
	for _, line := range strings.Split(version, "\n") {
		if err := r.writer.WriteLine(line); err != nil {
			return err
		}
	}
	if err := r.writer.WriteLine(strings.Repeat("-", 40)); err != nil {
		return err
	}
	r.statMu.Lock()
	r.bytes = r.writer.CurrentSize()
	r.statMu.Unlock()
	return nil
}

func (r *running) record(line string) (int64, int64) {
	r.statMu.Lock()
	defer r.statMu.Unlock()
	r.lines++
	r.bytes += int64(len(line)) + 1
	return r.lines, r.bytes
}

func (r *running) lineCount() int64 {
	r.statMu.Lock()
	defer r.statMu.Unlock()
	return r.lines
}

func (r *running) byteCount() int64 {
	r.statMu.Lock()
	defer r.statMu.Unlock()
	return r.bytes
}

func (r *running) setErr(err error) {
	r.statMu.Lock()
	defer r.statMu.Unlock()
	r.err = err
}

func (r *running) snapshot() Snapshot {
	return Snapshot{
		ID:          r.id,
		ProjectID:   r.projectID,
		Mode:        r.mode,
		StartedAt:   r.startedAt,
		Lines:       r.lineCount(),
		Bytes:       r.byteCount(),
		CurrentFile: r.writer.CurrentPath(),
		CurrentSize: r.writer.CurrentSize(),
	}
}
