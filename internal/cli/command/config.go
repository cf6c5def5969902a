package command

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/webstore-go/internal/config"
)

// ConfigCommand returns the config subcommand group.
func ConfigCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Configuration management",
		Subcommands: []*cli.Command{
			{
				Name:   "show",
				Usage:  "Show the effective configuration",
				Action: configShow,
			},
			{
				Name:   "validate",
				Usage:  "Validate the effective configuration",
				Action: configValidate,
			},
		},
	}
}

func configShow(c *cli.Context) error {
	rt := getRuntime(c)
	if rt == nil {
		return fmt.Errorf("command not initialized")
	}
	return rt.print(c.App.Writer, configMap(rt.cfg))
}

func configValidate(c *cli.Context) error {
	rt := getRuntime(c)
	if rt == nil {
		return fmt.Errorf("command not initialized")
	}
	if err := config.Verify(rt.cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	fmt.Fprintln(c.App.Writer, "configuration is valid")
	return nil
}

// configMap flattens cfg to its dotted configuration keys.
func configMap(cfg *config.Config) map[string]any {
	m := map[string]any{
		"storage.kind":           cfg.Storage.Kind,
		"storage.data_dir":       cfg.Storage.DataDir,
		"storage.gc_interval":    cfg.Storage.GCInterval.String(),
		"storage.poll_interval":  cfg.Storage.PollInterval.String(),
		"sync.prefix":            cfg.Sync.Prefix,
		"sync.interval":          cfg.Sync.Interval.String(),
		"log.level":              cfg.Log.Level,
		"log.format":             cfg.Log.Format,
		"metrics.addr":           cfg.Metrics.Addr,
		"backup.dir":             cfg.BackupDir(),
		"backup.retention_count": cfg.Backup.RetentionCount,
		"backup.retention_days":  cfg.Backup.RetentionDays,
	}
	if cfg.Storage.Kind == config.KindSQLite {
		m["storage.sqlite_path"] = cfg.Storage.SQLiteFile()
	}
	return m
}
