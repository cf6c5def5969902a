package config

import (
	"path/filepath"
	"time"
)

// Config is the root configuration for the webstore CLI.
type Config struct {
	Storage StorageSection `koanf:"storage"`
	Sync    SyncSection    `koanf:"sync"`
	Log     LogSection     `koanf:"log"`
	Metrics MetricsSection `koanf:"metrics"`
	Backup  BackupSection  `koanf:"backup"`
}

// Store kinds.
const (
	// KindLocal is the durable Badger store, shared within one process.
	KindLocal = "local"
	// KindSQLite is the durable SQLite store, shared across processes.
	KindSQLite = "sqlite"
	// KindSession is the in-memory store that lives as long as the process.
	KindSession = "session"
)

// StorageSection selects and configures the backing store.
type StorageSection struct {
	Kind string `koanf:"kind"`

	// DataDir is the Badger directory used by the local store.
	DataDir string `koanf:"data_dir"`

	// SQLitePath is the database file used by the sqlite store.
	// Default: <data_dir>/webstore.db
	SQLitePath string `koanf:"sqlite_path"`

	// GCInterval is the Badger value-log GC period.
	GCInterval time.Duration `koanf:"gc_interval"`

	// PollInterval is how often the sqlite store checks for commits made
	// by other processes.
	PollInterval time.Duration `koanf:"poll_interval"`
}

// SyncSection configures the mirror.
type SyncSection struct {
	Prefix   string        `koanf:"prefix"`
	Interval time.Duration `koanf:"interval"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// MetricsSection configures the Prometheus endpoint served by watch.
type MetricsSection struct {
	// Addr is the listen address. Empty disables the endpoint.
	Addr string `koanf:"addr"`
}

// BackupSection configures the snapshots written by backup create.
type BackupSection struct {
	// Dir holds snapshot files. Default: <data_dir>/backups
	Dir string `koanf:"dir"`

	RetentionCount int `koanf:"retention_count"`
	RetentionDays  int `koanf:"retention_days"`
}

// BackupDir returns the snapshot directory, defaulting to a directory
// inside the data directory.
func (c *Config) BackupDir() string {
	if c.Backup.Dir != "" {
		return c.Backup.Dir
	}
	return filepath.Join(c.Storage.DataDir, DefaultBackupDir)
}

// SQLiteFile returns the sqlite database path, defaulting to a file in
// the data directory.
func (s StorageSection) SQLiteFile() string {
	if s.SQLitePath != "" {
		return s.SQLitePath
	}
	return filepath.Join(s.DataDir, DefaultSQLiteFile)
}
