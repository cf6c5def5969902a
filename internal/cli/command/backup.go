package command

import (
	"fmt"
	"strconv"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/webstore-go/internal/cli/output"
	"github.com/yndnr/webstore-go/internal/mirror"
	"github.com/yndnr/webstore-go/internal/storage"
	"github.com/yndnr/webstore-go/internal/storage/snapshot"
)

// BackupCommand returns the backup command.
func BackupCommand() *cli.Command {
	return &cli.Command{
		Name:  "backup",
		Usage: "Snapshot and restore the namespace",
		Subcommands: []*cli.Command{
			{
				Name:   "create",
				Usage:  "Write a snapshot of every stored name",
				Action: withSession(backupCreate, false),
			},
			{
				Name:    "ls",
				Aliases: []string{"list"},
				Usage:   "List snapshots, oldest first",
				Action:  backupList,
			},
			{
				Name:      "restore",
				Usage:     "Restore a snapshot (the latest valid one by default)",
				ArgsUsage: "[ID]",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "merge",
						Usage: "Keep names that are not in the snapshot",
					},
				},
				Action: withSession(backupRestore, true),
			},
		},
	}
}

func newSnapshotManager(rt *runtime) (*snapshot.Manager, error) {
	return snapshot.NewManager(snapshot.Config{
		Dir:            rt.cfg.BackupDir(),
		RetentionCount: rt.cfg.Backup.RetentionCount,
		RetentionDays:  rt.cfg.Backup.RetentionDays,
	})
}

func backupCreate(c *cli.Context, rt *runtime, s *session) error {
	mgr, err := newSnapshotManager(rt)
	if err != nil {
		return err
	}

	// Raw store values are kept as written, including ones this mirror
	// could not decode.
	prefix := s.mirror.Prefix()
	entries := make(map[string]string)
	err = storage.ScanStore(s.store, prefix, func(key, value string) bool {
		name := key[len(prefix):]
		if name != "" && !mirror.IsReserved(name) {
			entries[name] = value
		}
		return true
	})
	if err != nil {
		return fmt.Errorf("scan store: %w", err)
	}

	info, err := mgr.Create(rt.cfg.Storage.Kind, prefix, entries)
	if err != nil {
		return err
	}
	if err := mgr.Prune(); err != nil {
		rt.logger.Warn("prune snapshots failed", "error", err)
	}
	rt.logger.Info("snapshot created", "id", info.ID, "entries", info.EntryCount)
	return rt.print(c.App.Writer, info)
}

func backupList(c *cli.Context) error {
	rt := getRuntime(c)
	if rt == nil {
		return fmt.Errorf("command not initialized")
	}
	mgr, err := newSnapshotManager(rt)
	if err != nil {
		return err
	}
	infos, err := mgr.List()
	if err != nil {
		return err
	}

	// List only reads file names; headers come from loading each file.
	detailed := make([]*snapshot.Info, 0, len(infos))
	for _, info := range infos {
		snap, err := mgr.Load(info.ID)
		if err != nil {
			rt.logger.Warn("unreadable snapshot", "id", info.ID, "error", err)
			detailed = append(detailed, info)
			continue
		}
		detailed = append(detailed, &snap.Info)
	}

	if rt.format != output.FormatTable {
		return rt.print(c.App.Writer, detailed)
	}
	t := &output.Table{Headers: []string{"ID", "STORE", "PREFIX", "ENTRIES", "CREATED", "SIZE"}}
	for _, info := range detailed {
		created := "-"
		if info.CreatedAt > 0 {
			created = time.UnixMilli(info.CreatedAt).Format(time.RFC3339)
		}
		t.AddRow(info.ID, info.Store, info.Prefix, strconv.Itoa(info.EntryCount), created,
			strconv.FormatInt(info.Size, 10))
	}
	return rt.print(c.App.Writer, t)
}

func backupRestore(c *cli.Context, rt *runtime, s *session) error {
	if c.NArg() > 1 {
		return fmt.Errorf("expected at most one ID")
	}
	mgr, err := newSnapshotManager(rt)
	if err != nil {
		return err
	}
	snap, err := mgr.Load(c.Args().First())
	if err != nil {
		return err
	}

	var codec mirror.JSONCodec
	values := make(map[string]any, len(snap.Entries))
	for name, raw := range snap.Entries {
		v, err := codec.Unmarshal(raw)
		if err != nil {
			rt.logger.Warn("skipping undecodable entry", "name", name, "error", err)
			continue
		}
		values[name] = v
	}

	if c.Bool("merge") {
		err = s.mirror.Update(func(data map[string]any) {
			for name, v := range values {
				data[name] = v
			}
		})
	} else {
		err = s.mirror.Reset(values)
	}
	if err != nil {
		return err
	}
	rt.logger.Info("snapshot restored", "id", snap.ID, "entries", len(values))
	return nil
}
