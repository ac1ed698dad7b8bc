// Package export copies or archives the tailed output files for sharing.
package export

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DefaultArchiveName returns the default zip name for a batch export,
// stamped with the current date.
func DefaultArchiveName(now time.Time) string {
	return fmt.Sprintf("gcloud_logs_%s.zip", now.Format("2006-01-02"))
}

// File copies a single log file to dest, creating parent directories.
func File(source, dest string) error {
	if strings.TrimSpace(source) == "" {
		return errors.New("source path is required")
	}
	if strings.TrimSpace(dest) == "" {
		return errors.New("destination path is required")
	}

	in, err := os.Open(source)
	if err != nil {
		return fmt.Errorf("open source log: %w", err)
	}
	defer in.Close()

	if dir := filepath.Dir(dest); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create destination directory: %w", err)
		}
	}
	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("create destination: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("copy log file: %w", err)
	}
	return out.Close()
}

// Archive zips every file under logDir into dest, keeping paths relative
// to logDir. The added callback, when non-nil, receives each archived
// relative path.
func Archive(logDir, dest string, added func(rel string)) error {
	info, err := os.Stat(logDir)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("no logs directory at %s", logDir)
	}
	if strings.TrimSpace(dest) == "" {
		return errors.New("destination path is required")
	}

	destAbs, err := filepath.Abs(dest)
	if err != nil {
		return fmt.Errorf("resolve destination: %w", err)
	}
	out, err := os.Create(destAbs)
	if err != nil {
		return fmt.Errorf("create archive: %w", err)
	}
	defer out.Close()

	zw := zip.NewWriter(out)
	walkErr := filepath.WalkDir(logDir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			return nil
		}
		abs, err := filepath.Abs(path)
		if err != nil {
			return err
		}
		if abs == destAbs {
			// The archive may be written into the tree it captures.
			return nil
		}
		rel, err := filepath.Rel(logDir, path)
		if err != nil {
			return err
		}
		writer, err := zw.Create(filepath.ToSlash(rel))
		if err != nil {
			return err
		}
		file, err := os.Open(path)
		if err != nil {
			return err
		}
		_, copyErr := io.Copy(writer, file)
		_ = file.Close()
		if copyErr != nil {
			return copyErr
		}
		if added != nil {
			added(rel)
		}
		return nil
	})
	if walkErr != nil {
		_ = zw.Close()
		return fmt.Errorf("archive logs: %w", walkErr)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("finalize archive: %w", err)
	}
	return out.Close()
}
