package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/yndnr/webstore-go/internal/storage"
	"github.com/yndnr/webstore-go/internal/storage/snapshot"
	"github.com/yndnr/webstore-go/internal/storage/sqlite"
)

// Default configuration values.
const (
	DefaultKind         = KindLocal
	DefaultSQLiteFile   = "webstore.db"
	DefaultBackupDir    = "backups"
	DefaultPrefix       = "ngStorage-"
	DefaultSyncInterval = 100 * time.Millisecond

	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"
)

// DefaultDataDir returns the per-user data directory, falling back to the
// working directory when no home directory is known.
func DefaultDataDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "webstore")
	}
	return ".webstore"
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Storage: StorageSection{
			Kind:         DefaultKind,
			DataDir:      DefaultDataDir(),
			GCInterval:   storage.DefaultBadgerConfig("").GCInterval,
			PollInterval: sqlite.DefaultPollInterval,
		},
		Sync: SyncSection{
			Prefix:   DefaultPrefix,
			Interval: DefaultSyncInterval,
		},
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
		Backup: BackupSection{
			RetentionCount: snapshot.DefaultRetentionCount,
			RetentionDays:  snapshot.DefaultRetentionDays,
		},
	}
}
