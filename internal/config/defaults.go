package config

import "os"

const (
	defaultLogDir      = "~/.local/share/gaelog/logs"
	defaultMode        = ModeSize
	defaultMaxLogSize  = 5 * 1024 * 1024
	defaultBackupCount = 3
	defaultFilePrefix  = "gcloud"
	defaultLogFormat   = "console"
	defaultLogLevel    = "info"
	defaultMinFreeMB   = 64
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		GCloud: GCloud{
			Project: os.Getenv("GCLOUD_PROJECT"),
			Binary:  "gcloud",
		},
		Paths: Paths{
			LogDir: defaultLogDir,
		},
		Rotation: Rotation{
			Mode:        defaultMode,
			MaxLogSize:  defaultMaxLogSize,
			BackupCount: defaultBackupCount,
			FilePrefix:  defaultFilePrefix,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		Limits: Limits{
			MinFreeMB: defaultMinFreeMB,
		},
	}
}
