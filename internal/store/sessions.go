package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Status describes the lifecycle state of a tail session.
type Status string

const (
	// StatusRunning marks the session currently tailing.
	StatusRunning Status = "running"
	// StatusStopped marks a session the operator stopped deliberately.
	StatusStopped Status = "stopped"
	// StatusEnded marks a session whose gcloud process exited on its own.
	StatusEnded Status = "ended"
	// StatusFailed marks a session terminated by a write failure or
	// another internal error.
	StatusFailed Status = "failed"
)

// ParseStatus maps a string onto a known Status.
func ParseStatus(value string) (Status, bool) {
	switch Status(value) {
	case StatusRunning, StatusStopped, StatusEnded, StatusFailed:
		return Status(value), true
	default:
		return "", false
	}
}

// Session is one tailing run: from start until stop or terminal failure.
type Session struct {
	ID        string
	ProjectID string
	Mode      string
	StartedAt time.Time
	StoppedAt *time.Time
	Lines     int64
	Bytes     int64
	LastFile  string
	Status    Status
	Error     string
}

// ErrNotFound indicates the requested session does not exist.
var ErrNotFound = errors.New("session not found")

const sessionColumns = "id, project_id, mode, started_at, stopped_at, lines, bytes, last_file, status, error"

// Create inserts a new running session row.
func (s *Store) Create(ctx context.Context, session *Session) error {
	if session == nil {
		return errors.New("session is required")
	}
	if session.Status == "" {
		session.Status = StatusRunning
	}
	if session.StartedAt.IsZero() {
		session.StartedAt = time.Now().UTC()
	}
	_, err := s.execWithRetry(ensureContext(ctx),
		`INSERT INTO sessions (`+sessionColumns+`) VALUES (?, ?, ?, ?, NULL, ?, ?, ?, ?, ?)`,
		session.ID, session.ProjectID, session.Mode,
		session.StartedAt.UTC().Format(time.RFC3339Nano),
		session.Lines, session.Bytes, session.LastFile,
		string(session.Status), session.Error,
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// UpdateProgress records counters for a running session.
func (s *Store) UpdateProgress(ctx context.Context, id string, lines, bytes int64, lastFile string) error {
	res, err := s.execWithRetry(ensureContext(ctx),
		`UPDATE sessions SET lines = ?, bytes = ?, last_file = ? WHERE id = ?`,
		lines, bytes, lastFile, id,
	)
	if err != nil {
		return fmt.Errorf("update session progress: %w", err)
	}
	return requireRow(res)
}

// Finish closes a session with its terminal status and final counters.
func (s *Store) Finish(ctx context.Context, id string, status Status, errMsg string, lines, bytes int64, lastFile string) error {
	res, err := s.execWithRetry(ensureContext(ctx),
		`UPDATE sessions SET status = ?, error = ?, stopped_at = ?, lines = ?, bytes = ?, last_file = ? WHERE id = ?`,
		string(status), errMsg, time.Now().UTC().Format(time.RFC3339Nano),
		lines, bytes, lastFile, id,
	)
	if err != nil {
		return fmt.Errorf("finish session: %w", err)
	}
	return requireRow(res)
}

// Get returns a single session by id.
func (s *Store) Get(ctx context.Context, id string) (*Session, error) {
	row := s.db.QueryRowContext(ensureContext(ctx),
		`SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, id)
	session, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query session: %w", err)
	}
	return session, nil
}

// List returns sessions newest first, optionally limited.
func (s *Store) List(ctx context.Context, limit int) ([]*Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions ORDER BY started_at DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ensureContext(ctx), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return sessions, nil
}

// Clear removes all session rows and reports how many were deleted.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(ensureContext(ctx), `DELETE FROM sessions`)
	if err != nil {
		return 0, fmt.Errorf("clear sessions: %w", err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("count removed sessions: %w", err)
	}
	return removed, nil
}

// MarkInterrupted flags sessions still marked running from a previous
// daemon process as failed. Called once at daemon startup.
func (s *Store) MarkInterrupted(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(ensureContext(ctx),
		`UPDATE sessions SET status = ?, error = ?, stopped_at = ? WHERE status = ?`,
		string(StatusFailed), "interrupted by daemon shutdown",
		time.Now().UTC().Format(time.RFC3339Nano), string(StatusRunning),
	)
	if err != nil {
		return 0, fmt.Errorf("mark interrupted sessions: %w", err)
	}
	updated, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("count interrupted sessions: %w", err)
	}
	return updated, nil
}

// Stats returns session counts per status.
func (s *Store) Stats(ctx context.Context) (map[Status]int, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx),
		`SELECT status, COUNT(1) FROM sessions GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("session stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[Status]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scan stats: %w", err)
		}
		if parsed, ok := ParseStatus(status); ok {
			stats[parsed] = count
		}
	}
	return stats, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*Session, error) {
	var (
		session    Session
		startedAt  string
		stoppedAt  sql.NullString
		statusText string
	)
	err := row.Scan(
		&session.ID, &session.ProjectID, &session.Mode,
		&startedAt, &stoppedAt,
		&session.Lines, &session.Bytes, &session.LastFile,
		&statusText, &session.Error,
	)
	if err != nil {
		return nil, err
	}

	session.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt)
	if err != nil {
		return nil, fmt.Errorf("parse started_at %q: %w", startedAt, err)
	}
	if stoppedAt.Valid && stoppedAt.String != "" {
		parsed, err := time.Parse(time.RFC3339Nano, stoppedAt.String)
		if err != nil {
			return nil, fmt.Errorf("parse stopped_at %q: %w", stoppedAt.String, err)
		}
		session.StoppedAt = &parsed
	}
	if parsed, ok := ParseStatus(statusText); ok {
		session.Status = parsed
	} else {
		session.Status = StatusFailed
	}
	return &session, nil
}

func requireRow(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("count affected rows: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
