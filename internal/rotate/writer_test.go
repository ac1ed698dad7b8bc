package rotate_test

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	"gaelog/internal/rotate"
)

func mustWriter(t *testing.T, opts rotate.Options) *rotate.Writer {
	t.Helper()
	w, err := rotate.NewWriter(opts)
	if err != nil {
		t.Fatalf("NewWriter failed: %v", err)
	}
	t.Cleanup(func() { _ = w.Close() })
	return w
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	trimmed := strings.TrimSuffix(string(data), "\n")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "\n")
}

func TestSizeModeRotatesAfterThreshold(t *testing.T) {
	dir := t.TempDir()
	w := mustWriter(t, rotate.Options{
		Mode:          rotate.ModeSize,
		BaseDir:       dir,
		SizeThreshold: 100,
		FilePrefix:    "gcloud",
	})

	line := strings.Repeat("x", 29) // 30 bytes on disk with the terminator
	for i := 0; i < 5; i++ {
		if err := w.WriteLine(line); err != nil {
			t.Fatalf("WriteLine %d: %v", i, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	first := readLines(t, filepath.Join(dir, "gcloud.0001.log"))
	second := readLines(t, filepath.Join(dir, "gcloud.0002.log"))
	if len(first) != 4 {
		t.Fatalf("expected 4 lines in first file, got %d", len(first))
	}
	if len(second) != 1 {
		t.Fatalf("expected 1 line in second file, got %d", len(second))
	}

	info, err := os.Stat(filepath.Join(dir, "gcloud.0001.log"))
	if err != nil {
		t.Fatalf("stat first file: %v", err)
	}
	if info.Size() != 120 {
		t.Fatalf("expected first file to hold 120 bytes, got %d", info.Size())
	}
}

func TestSizeModeOversizedLineGetsOwnFile(t *testing.T) {
	dir := t.TempDir()
	w := mustWriter(t, rotate.Options{
		Mode:          rotate.ModeSize,
		BaseDir:       dir,
		SizeThreshold: 50,
	})

	big := strings.Repeat("y", 200)
	if err := w.WriteLine(big); err != nil {
		t.Fatalf("WriteLine oversized: %v", err)
	}
	if err := w.WriteLine("after"); err != nil {
		t.Fatalf("WriteLine after: %v", err)
	}

	first := readLines(t, filepath.Join(dir, "gcloud.0001.log"))
	second := readLines(t, filepath.Join(dir, "gcloud.0002.log"))
	if len(first) != 1 || first[0] != big {
		t.Fatalf("expected oversized line alone in first file, got %d lines", len(first))
	}
	if len(second) != 1 || second[0] != "after" {
		t.Fatalf("expected follow-up line in second file, got %v", second)
	}
}

func TestSizeModeContinuesSequenceAfterRestart(t *testing.T) {
	dir := t.TempDir()
	opts := rotate.Options{Mode: rotate.ModeSize, BaseDir: dir, SizeThreshold: 40}

	w := mustWriter(t, opts)
	for i := 0; i < 4; i++ {
		if err := w.WriteLine(strings.Repeat("a", 19)); err != nil {
			t.Fatalf("WriteLine: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	// A fresh writer appends to the latest file, never truncates.
	w2 := mustWriter(t, opts)
	if got := w2.CurrentPath(); got != filepath.Join(dir, "gcloud.0002.log") {
		t.Fatalf("expected writer to resume at 0002, got %q", got)
	}
	before := w2.CurrentSize()
	if err := w2.WriteLine("resumed"); err != nil {
		t.Fatalf("WriteLine after restart: %v", err)
	}
	if w2.CurrentSize() <= before {
		t.Fatal("expected size to grow after resumed write")
	}
	lines := readLines(t, filepath.Join(dir, "gcloud.0002.log"))
	if lines[len(lines)-1] != "resumed" {
		t.Fatalf("expected resumed line appended, got %v", lines)
	}
}

func TestSizeModeRoundTripPreservesOrder(t *testing.T) {
	dir := t.TempDir()
	w := mustWriter(t, rotate.Options{Mode: rotate.ModeSize, BaseDir: dir, SizeThreshold: 64})

	var want []string
	for i := 0; i < 40; i++ {
		line := fmt.Sprintf("entry %03d", i)
		want = append(want, line)
		if err := w.WriteLine(line); err != nil {
			t.Fatalf("WriteLine: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	matches, err := filepath.Glob(filepath.Join(dir, "gcloud.*.log"))
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	if len(matches) < 2 {
		t.Fatalf("expected multiple rotated files, got %d", len(matches))
	}
	sort.Strings(matches) // zero-padded suffixes sort in rotation order

	var got []string
	for _, match := range matches {
		got = append(got, readLines(t, match)...)
	}
	if len(got) != len(want) {
		t.Fatalf("line count mismatch: got %d want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order broken at %d: got %q want %q", i, got[i], want[i])
		}
	}
}

func TestDailyModeRotatesOnDateChange(t *testing.T) {
	dir := t.TempDir()
	current := time.Date(2024, 1, 1, 23, 50, 0, 0, time.UTC)
	w := mustWriter(t, rotate.Options{
		Mode:    rotate.ModeDaily,
		BaseDir: dir,
		Now:     func() time.Time { return current },
	})

	if err := w.WriteLine("new year's eve"); err != nil {
		t.Fatalf("WriteLine: %v", err)
	}
	current = time.Date(2024, 1, 2, 0, 5, 0, 0, time.UTC)
	if err := w.WriteLine("next day"); err != nil {
		t.Fatalf("WriteLine: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	day1 := readLines(t, filepath.Join(dir, "2024-01", "2024-01-01.log"))
	day2 := readLines(t, filepath.Join(dir, "2024-01", "2024-01-02.log"))
	if len(day1) != 1 || day1[0] != "new year's eve" {
		t.Fatalf("unexpected day-one content: %v", day1)
	}
	if len(day2) != 1 || day2[0] != "next day" {
		t.Fatalf("unexpected day-two content: %v", day2)
	}
}

func TestDailyModeCrossesMonthBoundary(t *testing.T) {
	dir := t.TempDir()
	current := time.Date(2024, 1, 31, 12, 0, 0, 0, time.UTC)
	w := mustWriter(t, rotate.Options{
		Mode:    rotate.ModeDaily,
		BaseDir: dir,
		Now:     func() time.Time { return current },
	})

	if err := w.WriteLine("january"); err != nil {
		t.Fatalf("WriteLine: %v", err)
	}
	current = time.Date(2024, 2, 1, 0, 0, 1, 0, time.UTC)
	if err := w.WriteLine("february"); err != nil {
		t.Fatalf("WriteLine: %v", err)
	}

	if got := w.CurrentPath(); got != filepath.Join(dir, "2024-02", "2024-02-01.log") {
		t.Fatalf("expected february file open, got %q", got)
	}
	if _, err := os.Stat(filepath.Join(dir, "2024-01", "2024-01-31.log")); err != nil {
		t.Fatalf("january file missing: %v", err)
	}
}

func TestDailyModeAppendsToExistingFile(t *testing.T) {
	dir := t.TempDir()
	now := func() time.Time { return time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC) }

	w := mustWriter(t, rotate.Options{Mode: rotate.ModeDaily, BaseDir: dir, Now: now})
	if err := w.WriteLine("first run"); err != nil {
		t.Fatalf("WriteLine: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	w2 := mustWriter(t, rotate.Options{Mode: rotate.ModeDaily, BaseDir: dir, Now: now})
	if err := w2.WriteLine("second run"); err != nil {
		t.Fatalf("WriteLine: %v", err)
	}
	if err := w2.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	lines := readLines(t, filepath.Join(dir, "2024-03", "2024-03-15.log"))
	if len(lines) != 2 || lines[0] != "first run" || lines[1] != "second run" {
		t.Fatalf("expected both runs appended, got %v", lines)
	}
}

func TestSizeModeRetention(t *testing.T) {
	dir := t.TempDir()
	w := mustWriter(t, rotate.Options{
		Mode:          rotate.ModeSize,
		BaseDir:       dir,
		SizeThreshold: 10,
		MaxFiles:      2,
	})

	for i := 0; i < 12; i++ {
		if err := w.WriteLine(fmt.Sprintf("line %02d xxxxx", i)); err != nil {
			t.Fatalf("WriteLine: %v", err)
		}
	}

	matches, err := filepath.Glob(filepath.Join(dir, "gcloud.*.log"))
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	// Two rotated backups plus the open file.
	if len(matches) != 3 {
		t.Fatalf("expected 3 files after pruning, got %d: %v", len(matches), matches)
	}
	sort.Strings(matches)
	if filepath.Base(matches[len(matches)-1]) != filepath.Base(w.CurrentPath()) {
		t.Fatalf("current file should be the newest: %v vs %s", matches, w.CurrentPath())
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	w := mustWriter(t, rotate.Options{Mode: rotate.ModeSize, BaseDir: t.TempDir(), SizeThreshold: 100})
	if err := w.WriteLine("one"); err != nil {
		t.Fatalf("WriteLine: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if err := w.WriteLine("late"); err == nil {
		t.Fatal("expected write after close to fail")
	}
}

func TestNewWriterRejectsBadOptions(t *testing.T) {
	if _, err := rotate.NewWriter(rotate.Options{Mode: rotate.ModeSize, BaseDir: t.TempDir()}); err == nil {
		t.Fatal("expected error for missing threshold")
	}
	if _, err := rotate.NewWriter(rotate.Options{Mode: "hourly", BaseDir: t.TempDir()}); err == nil {
		t.Fatal("expected error for unknown mode")
	}
	if _, err := rotate.NewWriter(rotate.Options{Mode: rotate.ModeDaily}); err == nil {
		t.Fatal("expected error for missing base dir")
	}
}
