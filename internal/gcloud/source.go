package gcloud

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"sync"
	"sync/atomic"

	"gaelog/internal/logging"
)

var (
	// ErrSourceUnavailable indicates the gcloud process could not be
	// launched, typically a missing SDK installation or binary.
	ErrSourceUnavailable = errors.New("log source unavailable")

	// ErrEndOfStream indicates the gcloud process exited on its own.
	// The caller decides whether to start a new session.
	ErrEndOfStream = errors.New("log source ended")
)

const lineBufferSize = 1024 * 1024

// Source streams log lines from one `gcloud app logs tail` process.
// One Source owns exactly one process for the duration of a session.
type Source struct {
	binary string
	logger *slog.Logger

	mu      sync.Mutex
	cmd     *exec.Cmd
	lines   chan string
	done    chan struct{}
	err     error
	started bool

	stopped  atomic.Bool
	stopOnce sync.Once
}

// NewSource prepares a source using the given gcloud binary name.
func NewSource(binary string, logger *slog.Logger) *Source {
	if strings.TrimSpace(binary) == "" {
		binary = "gcloud"
	}
	return &Source{
		binary: binary,
		logger: logging.NewComponentLogger(logger, "gcloud"),
	}
}

// Start launches the tail process for the project and begins streaming
// its merged stdout/stderr into Lines. It returns ErrSourceUnavailable
// when the process cannot be launched.
func (s *Source) Start(ctx context.Context, projectID string) error {
	projectID = strings.TrimSpace(projectID)
	if projectID == "" {
		return errors.New("project id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return errors.New("source already started")
	}

	if _, err := exec.LookPath(s.binary); err != nil {
		return fmt.Errorf("%w: %s not found on PATH (install the Google Cloud SDK)", ErrSourceUnavailable, s.binary)
	}

	cmd := command(ctx, s.binary, "app", "logs", "tail", "--project="+projectID)
	reader, writer, err := os.Pipe()
	if err != nil {
		return fmt.Errorf("%w: create pipe: %w", ErrSourceUnavailable, err)
	}
	// gcloud reports auth and transport problems on stderr; merge the
	// streams so those lines reach the log files too.
	cmd.Stdout = writer
	cmd.Stderr = writer

	if err := cmd.Start(); err != nil {
		_ = reader.Close()
		_ = writer.Close()
		return fmt.Errorf("%w: launch %s: %w", ErrSourceUnavailable, s.binary, err)
	}
	_ = writer.Close() // child holds the write end now

	s.cmd = cmd
	s.lines = make(chan string)
	s.done = make(chan struct{})
	s.started = true
	s.logger.Info("log tail started", logging.String("project", projectID), logging.Int("pid", cmd.Process.Pid))

	go s.pump(reader)
	return nil
}

func (s *Source) pump(reader *os.File) {
	defer close(s.done)
	defer close(s.lines)
	defer reader.Close()

	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, 64*1024), lineBufferSize)
	for scanner.Scan() {
		if s.stopped.Load() {
			break
		}
		s.lines <- scanner.Text()
	}
	scanErr := scanner.Err()

	waitErr := s.cmd.Wait()
	if s.stopped.Load() {
		s.logger.Info("log tail stopped")
		return
	}

	err := fmt.Errorf("%w: process exited", ErrEndOfStream)
	switch {
	case waitErr != nil:
		err = fmt.Errorf("%w: %w", ErrEndOfStream, waitErr)
	case scanErr != nil:
		err = fmt.Errorf("%w: read output: %w", ErrEndOfStream, scanErr)
	}

	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
	s.logger.Warn("log tail ended unexpectedly", logging.Error(err))
}

// Lines returns the stream of log lines. The channel closes when the
// process exits or Stop is called; consult Err afterwards.
func (s *Source) Lines() <-chan string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lines
}

// Err reports the terminal state after Lines has closed: nil for a
// deliberate Stop, an ErrEndOfStream-wrapped error otherwise.
func (s *Source) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Stop terminates the tail process. Idempotent and safe before Start.
func (s *Source) Stop() {
	s.stopOnce.Do(func() {
		s.stopped.Store(true)

		s.mu.Lock()
		cmd := s.cmd
		done := s.done
		s.mu.Unlock()

		if cmd == nil {
			return
		}
		if cmd.Process != nil {
			_ = cmd.Process.Kill()
		}
		// Drain so the pump goroutine is never stuck on a send.
		for {
			select {
			case _, ok := <-s.lines:
				if !ok {
					return
				}
			case <-done:
				return
			}
		}
	})
}

// Version runs `gcloud --version` and returns its trimmed output. The
// original application emits this banner into the log before tailing.
func Version(ctx context.Context, binary string) (string, error) {
	if strings.TrimSpace(binary) == "" {
		binary = "gcloud"
	}
	if _, err := exec.LookPath(binary); err != nil {
		return "", fmt.Errorf("%w: %s not found on PATH", ErrSourceUnavailable, binary)
	}
	out, err := command(ctx, binary, "--version").CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("%w: run %s --version: %w", ErrSourceUnavailable, binary, err)
	}
	return strings.TrimSpace(string(out)), nil
}

// AuthLogin runs `gcloud auth login` interactively with inherited stdio.
func AuthLogin(ctx context.Context, binary string) error {
	if strings.TrimSpace(binary) == "" {
		binary = "gcloud"
	}
	cmd := command(ctx, binary, "auth", "login")
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("gcloud auth login: %w", err)
	}
	return nil
}
