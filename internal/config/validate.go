package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable. The project id is
// deliberately not required here: it can be supplied per session on the
// command line, and session start rejects an empty one.
func (c *Config) Validate() error {
	if err := c.validateRotation(); err != nil {
		return err
	}
	if err := c.validateLimits(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateRotation() error {
	switch c.Rotation.Mode {
	case ModeSize:
		if c.Rotation.MaxLogSize <= 0 {
			return errors.New("rotation.max_log_size must be positive in size mode")
		}
	case ModeDaily:
	default:
		return fmt.Errorf("rotation.mode must be %q or %q, got %q", ModeSize, ModeDaily, c.Rotation.Mode)
	}
	if c.Rotation.BackupCount < 0 {
		return errors.New("rotation.backup_count must not be negative")
	}
	return nil
}

func (c *Config) validateLimits() error {
	if c.Limits.MinFreeMB < 0 {
		return errors.New("limits.min_free_mb must not be negative")
	}
	return nil
}
