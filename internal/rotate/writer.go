package rotate

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Mode selects the rotation policy.
type Mode string

const (
	// ModeSize rotates to a new numbered file once the open file has
	// reached the configured threshold.
	ModeSize Mode = "size"
	// ModeDaily writes one file per calendar day under YYYY-MM directories.
	ModeDaily Mode = "daily"
)

// ErrWriteFailure marks filesystem failures while persisting lines.
// It is terminal for the session; the writer never retries.
var ErrWriteFailure = errors.New("write failure")

// Options configures a Writer.
type Options struct {
	Mode          Mode
	BaseDir       string
	SizeThreshold int64  // size mode only; must be positive
	MaxFiles      int    // rotated files to keep besides the open one; 0 keeps all
	FilePrefix    string // size-mode file name prefix
	Now           func() time.Time
}

// Writer appends log lines to rotating files. It is owned by a single
// session goroutine; the mutex only guards the snapshot accessors used
// by status reporting.
type Writer struct {
	mode      Mode
	baseDir   string
	threshold int64
	maxFiles  int
	prefix    string
	now       func() time.Time

	mu       sync.Mutex
	file     *os.File
	path     string
	size     int64
	seq      int    // size mode: index of the open file
	openDate string // daily mode: date baked into the open file's name
	closed   bool
}

// NewWriter validates the options, creates the base directory, and opens
// the initial output file. In size mode the writer continues after the
// highest existing numbered file so restarts append instead of renaming
// or truncating; in daily mode today's file is opened for append.
func NewWriter(opts Options) (*Writer, error) {
	switch opts.Mode {
	case ModeSize:
		if opts.SizeThreshold <= 0 {
			return nil, fmt.Errorf("size threshold must be positive, got %d", opts.SizeThreshold)
		}
	case ModeDaily:
	default:
		return nil, fmt.Errorf("unsupported rotation mode %q", opts.Mode)
	}
	if strings.TrimSpace(opts.BaseDir) == "" {
		return nil, errors.New("base directory is required")
	}

	w := &Writer{
		mode:      opts.Mode,
		baseDir:   opts.BaseDir,
		threshold: opts.SizeThreshold,
		maxFiles:  opts.MaxFiles,
		prefix:    opts.FilePrefix,
		now:       opts.Now,
	}
	if w.now == nil {
		w.now = time.Now
	}
	if w.prefix == "" {
		w.prefix = "gcloud"
	}

	if err := os.MkdirAll(w.baseDir, 0o755); err != nil {
		return nil, writeFailure("create base directory", err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.mode == ModeSize {
		return w, w.openSequenceLocked()
	}
	return w, w.openDailyLocked()
}

// WriteLine appends the line plus a terminator to the current file,
// rotating first when the policy calls for it. Lines are written in call
// order; a line never lands in an earlier file than its predecessor.
func (w *Writer) WriteLine(line string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return writeFailure("write line", errors.New("writer is closed"))
	}

	switch w.mode {
	case ModeSize:
		if w.size >= w.threshold {
			if err := w.rotateSequenceLocked(); err != nil {
				return err
			}
		}
	case ModeDaily:
		if today := w.now().Format("2006-01-02"); today != w.openDate {
			if err := w.rotateDailyLocked(); err != nil {
				return err
			}
		}
	}

	n, err := w.file.WriteString(line + "\n")
	w.size += int64(n)
	if err != nil {
		return writeFailure("append line", err)
	}
	return nil
}

// Close closes the current file. Idempotent; os.File writes are
// unbuffered, so every completed WriteLine is already on disk.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true
	if w.file == nil {
		return nil
	}
	err := w.file.Close()
	w.file = nil
	if err != nil {
		return writeFailure("close output file", err)
	}
	return nil
}

// CurrentPath reports the file currently open for writing.
func (w *Writer) CurrentPath() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.path
}

// CurrentSize reports the byte size of the file currently open for writing.
func (w *Writer) CurrentSize() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.size
}

func (w *Writer) sequencePath(seq int) string {
	return filepath.Join(w.baseDir, fmt.Sprintf("%s.%04d.log", w.prefix, seq))
}

// openSequenceLocked finds the highest existing numbered file and appends
// to it, or starts the sequence at 1.
func (w *Writer) openSequenceLocked() error {
	highest := 0
	for _, seq := range w.sequenceIndexesLocked() {
		if seq > highest {
			highest = seq
		}
	}
	if highest == 0 {
		highest = 1
	}
	return w.openFileLocked(w.sequencePath(highest), highest, "")
}

func (w *Writer) rotateSequenceLocked() error {
	if err := w.closeCurrentLocked(); err != nil {
		return err
	}
	next := w.seq + 1
	if err := w.openFileLocked(w.sequencePath(next), next, ""); err != nil {
		return err
	}
	w.pruneSequenceLocked()
	return nil
}

func (w *Writer) openDailyLocked() error {
	now := w.now()
	date := now.Format("2006-01-02")
	dir := filepath.Join(w.baseDir, now.Format("2006-01"))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return writeFailure("create month directory", err)
	}
	return w.openFileLocked(filepath.Join(dir, date+".log"), 0, date)
}

func (w *Writer) rotateDailyLocked() error {
	if err := w.closeCurrentLocked(); err != nil {
		return err
	}
	if err := w.openDailyLocked(); err != nil {
		return err
	}
	w.pruneDailyLocked()
	return nil
}

// openFileLocked opens path for append, creating it when absent. An
// existing file is never truncated; re-opening the same daily file after
// a restart keeps its content.
func (w *Writer) openFileLocked(path string, seq int, date string) error {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return writeFailure("open output file", err)
	}
	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return writeFailure("stat output file", err)
	}
	w.file = file
	w.path = path
	w.size = info.Size()
	w.seq = seq
	w.openDate = date
	return nil
}

func (w *Writer) closeCurrentLocked() error {
	if w.file == nil {
		return nil
	}
	err := w.file.Close()
	w.file = nil
	if err != nil {
		return writeFailure("close output file", err)
	}
	return nil
}

func (w *Writer) sequenceIndexesLocked() []int {
	entries, err := os.ReadDir(w.baseDir)
	if err != nil {
		return nil
	}
	var indexes []int
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasPrefix(name, w.prefix+".") || !strings.HasSuffix(name, ".log") {
			continue
		}
		middle := strings.TrimSuffix(strings.TrimPrefix(name, w.prefix+"."), ".log")
		seq, err := strconv.Atoi(middle)
		if err != nil || seq <= 0 {
			continue
		}
		indexes = append(indexes, seq)
	}
	sort.Ints(indexes)
	return indexes
}

// pruneSequenceLocked removes the oldest numbered files once more than
// maxFiles rotated files sit beside the open one. Best effort: pruning
// failures never fail a write.
func (w *Writer) pruneSequenceLocked() {
	if w.maxFiles <= 0 {
		return
	}
	indexes := w.sequenceIndexesLocked()
	var rotated []int
	for _, seq := range indexes {
		if seq != w.seq {
			rotated = append(rotated, seq)
		}
	}
	for len(rotated) > w.maxFiles {
		_ = os.Remove(w.sequencePath(rotated[0]))
		rotated = rotated[1:]
	}
}

// pruneDailyLocked removes the oldest day files beyond maxFiles, then
// drops month directories left empty.
func (w *Writer) pruneDailyLocked() {
	if w.maxFiles <= 0 {
		return
	}
	matches, err := filepath.Glob(filepath.Join(w.baseDir, "*", "*.log"))
	if err != nil {
		return
	}
	var rotated []string
	for _, match := range matches {
		if match != w.path {
			rotated = append(rotated, match)
		}
	}
	// Date-stamped names sort chronologically.
	sort.Strings(rotated)
	for len(rotated) > w.maxFiles {
		victim := rotated[0]
		rotated = rotated[1:]
		if err := os.Remove(victim); err != nil {
			continue
		}
		_ = os.Remove(filepath.Dir(victim)) // fails while non-empty, which is fine
	}
}

func writeFailure(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrWriteFailure, op, err)
}
