package command

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/webstore-go/internal/config"
	"github.com/yndnr/webstore-go/internal/infra/confloader"
	"github.com/yndnr/webstore-go/internal/infra/shutdown"
	"github.com/yndnr/webstore-go/internal/mirror"
	"github.com/yndnr/webstore-go/internal/storage"
	"github.com/yndnr/webstore-go/internal/telemetry/logger"
	"github.com/yndnr/webstore-go/internal/telemetry/metric"
)

// shutdownTimeout bounds the final flush and the metrics server shutdown.
const shutdownTimeout = 10 * time.Second

// WatchCommand returns the watch command.
func WatchCommand() *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "Keep the mirror in sync; with the sqlite store, also log changes made by other processes",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "metrics-addr",
				Usage: "Serve Prometheus metrics on this address (overrides metrics.addr)",
			},
		},
		Action: runWatch,
	}
}

func runWatch(c *cli.Context) error {
	rt := getRuntime(c)
	if rt == nil {
		return fmt.Errorf("command not initialized")
	}
	if c.IsSet("metrics-addr") {
		rt.cfg.Metrics.Addr = c.String("metrics-addr")
	}
	log := rt.logger

	reg := metric.NewRegistry()
	s, err := openSession(rt, sessionOptions{
		registerer: reg.Registerer(),
		mirrorOpts: []mirror.Option{mirror.OnChange(func(ch mirror.Change) {
			if ch.Deleted {
				log.Info("entry removed", "name", ch.Name)
				return
			}
			log.Info("entry changed", "name", ch.Name, "new_value", fmt.Sprint(ch.Value))
		})},
	})
	if err != nil {
		return err
	}

	if _, ok := s.store.(storage.Notifier); !ok {
		log.Warn("store does not publish changes from other processes, only local writes are synced",
			"store", rt.cfg.Storage.Kind)
	}

	h := shutdown.NewHandler(shutdownTimeout)

	ctx, cancel := context.WithCancel(context.Background())
	runErr := make(chan error, 1)
	go func() { runErr <- s.mirror.Run(ctx) }()

	// Registered first so it runs last: the final flush happens after the
	// other components have stopped.
	h.OnShutdown(finalFlush(cancel, runErr, s.closer))

	if addr := rt.cfg.Metrics.Addr; addr != "" {
		ln, err := net.Listen("tcp", addr)
		if err != nil {
			h.Shutdown()
			return fmt.Errorf("listen metrics: %w", err)
		}
		srv := &http.Server{Handler: metricsHandler(reg), ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("metrics server failed", "error", err)
			}
		}()
		h.OnShutdown(srv.Shutdown)
		log.Info("serving metrics", "addr", ln.Addr().String())
	}

	if rt.configPath != "" {
		w, err := confloader.NewWatcher(confloader.WithWatcherLogger(log))
		if err != nil {
			h.Shutdown()
			return fmt.Errorf("watch configuration: %w", err)
		}
		if err := w.Watch(rt.configPath); err != nil {
			w.Stop()
			h.Shutdown()
			return fmt.Errorf("watch configuration: %w", err)
		}
		w.OnChange(func(string) { reloadLogLevel(c, rt) })
		w.StartAsync()
		h.OnShutdown(func(context.Context) error { return w.Stop() })
	}

	log.Info("watching store",
		"store", rt.cfg.Storage.Kind,
		"prefix", s.mirror.Prefix(),
		"keys", s.mirror.Len())

	return h.Wait(c.Context)
}

// finalFlush stops the Run loop, waits for its final sync and closes the
// store. The store is closed even when the wait times out.
func finalFlush(cancel context.CancelFunc, runErr <-chan error, closer func() error) func(context.Context) error {
	return func(ctx context.Context) error {
		cancel()
		select {
		case err := <-runErr:
			return errors.Join(err, closer())
		case <-ctx.Done():
			return errors.Join(fmt.Errorf("final sync: %w", ctx.Err()), closer())
		}
	}
}

// metricsHandler serves the registry on /metrics.
func metricsHandler(reg *metric.Registry) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", reg.Handler())
	return mux
}

// reloadLogLevel re-reads the configuration and applies its log level.
// Other settings take effect on the next start.
func reloadLogLevel(c *cli.Context, rt *runtime) {
	cfg, err := loadConfig(c)
	if err == nil {
		err = config.Verify(cfg)
	}
	if err != nil {
		rt.logger.Warn("configuration reload failed", "error", err)
		return
	}
	if cfg.Log.Level == logger.GetLevel() {
		return
	}
	logger.SetLevel(cfg.Log.Level)
	rt.logger.Info("log level reloaded", "level", cfg.Log.Level)
}
