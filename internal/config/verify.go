package config

import (
	"errors"
	"fmt"
	"net"

	"github.com/yndnr/webstore-go/internal/telemetry/logger"
)

// Verify validates the configuration.
func Verify(cfg *Config) error {
	if err := verifyStorage(&cfg.Storage); err != nil {
		return err
	}
	if err := verifySync(&cfg.Sync); err != nil {
		return err
	}
	if err := verifyLog(&cfg.Log); err != nil {
		return err
	}
	if cfg.Backup.RetentionCount < 0 || cfg.Backup.RetentionDays < 0 {
		return errors.New("backup retention must not be negative")
	}
	if cfg.Metrics.Addr != "" {
		if _, _, err := net.SplitHostPort(cfg.Metrics.Addr); err != nil {
			return fmt.Errorf("metrics.addr: %w", err)
		}
	}
	return nil
}

func verifyStorage(cfg *StorageSection) error {
	switch cfg.Kind {
	case KindSession:
		return nil
	case KindLocal, KindSQLite:
	default:
		return fmt.Errorf("storage.kind %q is not one of %s, %s, %s",
			cfg.Kind, KindLocal, KindSQLite, KindSession)
	}

	if cfg.Kind == KindLocal || cfg.SQLitePath == "" {
		if cfg.DataDir == "" {
			return errors.New("storage.data_dir is required")
		}
	}
	if cfg.GCInterval < 0 {
		return errors.New("storage.gc_interval must not be negative")
	}
	if cfg.PollInterval < 0 {
		return errors.New("storage.poll_interval must not be negative")
	}
	return nil
}

func verifySync(cfg *SyncSection) error {
	if cfg.Interval <= 0 {
		return errors.New("sync.interval must be positive")
	}
	return nil
}

func verifyLog(cfg *LogSection) error {
	if !logger.ValidLevel(cfg.Level) {
		return fmt.Errorf("log.level %q is not valid", cfg.Level)
	}
	switch cfg.Format {
	case "json", "text":
		return nil
	default:
		return fmt.Errorf("log.format %q is not one of json, text", cfg.Format)
	}
}
