package command

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/webstore-go/internal/cli/output"
	"github.com/yndnr/webstore-go/internal/config"
	"github.com/yndnr/webstore-go/internal/infra/buildinfo"
	"github.com/yndnr/webstore-go/internal/infra/confloader"
	"github.com/yndnr/webstore-go/internal/telemetry/logger"
)

const runtimeKey = "runtime"

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:    "webstore",
		Usage:   "Inspect and edit a namespaced key/value store through a synchronized mirror",
		Version: buildinfo.String(),
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			GetCommand(),
			SetCommand(),
			RemoveCommand(),
			ListCommand(),
			DefaultCommand(),
			ResetCommand(),
			WatchCommand(),
			BackupCommand(),
			ConfigCommand(),
			VersionCommand(),
		},
		Before:   setup,
		Metadata: map[string]any{},
	}
}

// globalFlags returns the global CLI flags.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Configuration file (YAML)",
			EnvVars: []string{"WEBSTORE_CONFIG"},
		},
		&cli.StringFlag{
			Name:    "store",
			Aliases: []string{"s"},
			Usage:   "Store kind: local, sqlite, session",
		},
		&cli.StringFlag{
			Name:  "data-dir",
			Usage: "Data directory of the local and sqlite stores",
		},
		&cli.StringFlag{
			Name:  "prefix",
			Usage: "Namespace prefix of store keys",
		},
		&cli.StringFlag{
			Name:  "log-level",
			Usage: "Log level: debug, info, warn, error",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output format: table, json, yaml",
			Value:   "table",
		},
		&cli.BoolFlag{
			Name:    "wide",
			Aliases: []string{"w"},
			Usage:   "Do not truncate long values",
		},
	}
}

// flagOverrides maps the global flags that were set to configuration keys.
var flagOverrides = map[string]string{
	"store":     "storage.kind",
	"data-dir":  "storage.data_dir",
	"prefix":    "sync.prefix",
	"log-level": "log.level",
}

// runtime is the state shared by every command of one invocation.
type runtime struct {
	cfg        *config.Config
	configPath string
	logger     *slog.Logger
	format     output.Format
	wide       bool
}

func setup(c *cli.Context) error {
	format, err := output.ParseFormat(c.String("output"))
	if err != nil {
		return err
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	logCfg := logger.DefaultConfig()
	logCfg.Level = cfg.Log.Level
	logCfg.Format = cfg.Log.Format
	logCfg.Output = c.App.ErrWriter
	log, err := logger.New(logCfg)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	logger.SetDefault(log)

	if c.App.Metadata == nil {
		c.App.Metadata = map[string]any{}
	}
	c.App.Metadata[runtimeKey] = &runtime{
		cfg:        cfg,
		configPath: c.String("config"),
		logger:     log,
		format:     format,
		wide:       c.Bool("wide"),
	}
	return nil
}

// loadConfig merges defaults, the config file, WEBSTORE_* variables and
// the global flags, in increasing priority.
func loadConfig(c *cli.Context) (*config.Config, error) {
	overrides := make(map[string]any)
	for flag, key := range flagOverrides {
		if c.IsSet(flag) {
			overrides[key] = c.String(flag)
		}
	}

	cfg := config.Default()
	loader := confloader.NewLoader(
		confloader.WithConfigFile(c.String("config")),
		confloader.WithOverrides(overrides),
	)
	if err := loader.Load(cfg); err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	return cfg, nil
}

func getRuntime(c *cli.Context) *runtime {
	if rt, ok := c.App.Metadata[runtimeKey].(*runtime); ok {
		return rt
	}
	return nil
}

// print renders data in the selected output format.
func (rt *runtime) print(w io.Writer, data any) error {
	return output.NewFormatter(rt.format, rt.wide).Format(w, data)
}

// PrintError prints an error message to stderr.
func PrintError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
}
