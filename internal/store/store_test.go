package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"gaelog/internal/config"
	"gaelog/internal/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	cfg := config.Default()
	cfg.Paths.LogDir = t.TempDir()

	s, err := store.Open(&cfg)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestCreateAndGet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	session := &store.Session{
		ID:        "s-1",
		ProjectID: "demo-project",
		Mode:      config.ModeSize,
	}
	if err := s.Create(ctx, session); err != nil {
		t.Fatalf("create: %v", err)
	}
	if session.Status != store.StatusRunning {
		t.Fatalf("expected default running status, got %q", session.Status)
	}
	if session.StartedAt.IsZero() {
		t.Fatal("expected started_at to be populated")
	}

	got, err := s.Get(ctx, "s-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ProjectID != "demo-project" || got.Mode != config.ModeSize {
		t.Fatalf("unexpected session: %+v", got)
	}
	if got.StoppedAt != nil {
		t.Fatalf("expected nil stopped_at, got %v", got.StoppedAt)
	}
}

func TestGetMissing(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Get(context.Background(), "nope")
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateProgressAndFinish(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	session := &store.Session{ID: "s-2", ProjectID: "demo", Mode: config.ModeDaily}
	if err := s.Create(ctx, session); err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := s.UpdateProgress(ctx, "s-2", 10, 420, "2026-08/2026-08-25.log"); err != nil {
		t.Fatalf("update progress: %v", err)
	}
	if err := s.Finish(ctx, "s-2", store.StatusStopped, "", 12, 500, "2026-08/2026-08-25.log"); err != nil {
		t.Fatalf("finish: %v", err)
	}

	got, err := s.Get(ctx, "s-2")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != store.StatusStopped {
		t.Fatalf("expected stopped status, got %q", got.Status)
	}
	if got.Lines != 12 || got.Bytes != 500 {
		t.Fatalf("unexpected counters: %+v", got)
	}
	if got.StoppedAt == nil {
		t.Fatal("expected stopped_at to be set")
	}

	if err := s.UpdateProgress(ctx, "absent", 1, 1, ""); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing session, got %v", err)
	}
}

func TestListOrdersNewestFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 25, 9, 0, 0, 0, time.UTC)
	for i, id := range []string{"old", "mid", "new"} {
		session := &store.Session{
			ID:        id,
			ProjectID: "demo",
			Mode:      config.ModeSize,
			StartedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := s.Create(ctx, session); err != nil {
			t.Fatalf("create %s: %v", id, err)
		}
	}

	sessions, err := s.List(ctx, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(sessions) != 3 {
		t.Fatalf("expected 3 sessions, got %d", len(sessions))
	}
	if sessions[0].ID != "new" || sessions[2].ID != "old" {
		t.Fatalf("unexpected order: %s, %s, %s", sessions[0].ID, sessions[1].ID, sessions[2].ID)
	}

	limited, err := s.List(ctx, 2)
	if err != nil {
		t.Fatalf("list limited: %v", err)
	}
	if len(limited) != 2 || limited[0].ID != "new" {
		t.Fatalf("unexpected limited result: %+v", limited)
	}
}

func TestClear(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, id := range []string{"a", "b"} {
		if err := s.Create(ctx, &store.Session{ID: id, ProjectID: "demo", Mode: config.ModeSize}); err != nil {
			t.Fatalf("create %s: %v", id, err)
		}
	}

	removed, err := s.Clear(ctx)
	if err != nil {
		t.Fatalf("clear: %v", err)
	}
	if removed != 2 {
		t.Fatalf("expected 2 removed, got %d", removed)
	}

	sessions, err := s.List(ctx, 0)
	if err != nil {
		t.Fatalf("list after clear: %v", err)
	}
	if len(sessions) != 0 {
		t.Fatalf("expected empty list, got %d", len(sessions))
	}
}

func TestMarkInterrupted(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.Create(ctx, &store.Session{ID: "run", ProjectID: "demo", Mode: config.ModeSize}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := s.Create(ctx, &store.Session{ID: "done", ProjectID: "demo", Mode: config.ModeSize}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := s.Finish(ctx, "done", store.StatusEnded, "", 0, 0, ""); err != nil {
		t.Fatalf("finish: %v", err)
	}

	updated, err := s.MarkInterrupted(ctx)
	if err != nil {
		t.Fatalf("mark interrupted: %v", err)
	}
	if updated != 1 {
		t.Fatalf("expected 1 interrupted session, got %d", updated)
	}

	got, err := s.Get(ctx, "run")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != store.StatusFailed || got.StoppedAt == nil {
		t.Fatalf("expected failed with stop time: %+v", got)
	}
}

func TestReopenKeepsData(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = t.TempDir()

	s, err := store.Open(&cfg)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := s.Create(context.Background(), &store.Session{ID: "keep", ProjectID: "demo", Mode: config.ModeSize}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := store.Open(&cfg)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	got, err := reopened.Get(context.Background(), "keep")
	if err != nil {
		t.Fatalf("get after reopen: %v", err)
	}
	if got.ID != "keep" {
		t.Fatalf("unexpected session: %+v", got)
	}
}
