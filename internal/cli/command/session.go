package command

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/yndnr/webstore-go/internal/config"
	"github.com/yndnr/webstore-go/internal/mirror"
	"github.com/yndnr/webstore-go/internal/storage"
	"github.com/yndnr/webstore-go/internal/storage/memory"
	"github.com/yndnr/webstore-go/internal/storage/sqlite"
	"github.com/yndnr/webstore-go/internal/telemetry/metric"
)

// session is an open store with its mirror.
type session struct {
	mirror *mirror.Mirror
	store  storage.Store
	closer func() error
}

// sessionOptions carry the extras only watch needs.
type sessionOptions struct {
	registerer prometheus.Registerer
	mirrorOpts []mirror.Option
}

// openSession verifies the configuration, opens the configured store and
// loads a mirror over it.
func openSession(rt *runtime, so sessionOptions) (*session, error) {
	if err := config.Verify(rt.cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	store, closer, err := openStore(rt, so.registerer)
	if err != nil {
		return nil, err
	}

	kind := rt.cfg.Storage.Kind
	opts := []mirror.Option{
		mirror.WithPrefix(rt.cfg.Sync.Prefix),
		mirror.WithInterval(rt.cfg.Sync.Interval),
		mirror.WithLogger(rt.logger),
		mirror.WithName(kind),
	}
	if so.registerer != nil {
		opts = append(opts, mirror.WithMetrics(metric.NewSyncMetrics(so.registerer, kind)))
	}
	opts = append(opts, so.mirrorOpts...)

	m := mirror.New(store, opts...)
	if !m.Supported() {
		m.Close()
		closer()
		return nil, fmt.Errorf("%s store is not usable", kind)
	}
	return &session{mirror: m, store: store, closer: closer}, nil
}

func openStore(rt *runtime, reg prometheus.Registerer) (storage.Store, func() error, error) {
	sc := rt.cfg.Storage
	switch sc.Kind {
	case config.KindSession:
		store := memory.New()
		if reg != nil {
			store.RegisterMetrics(reg)
		}
		return store, func() error { return nil }, nil

	case config.KindLocal:
		if err := os.MkdirAll(sc.DataDir, 0o750); err != nil {
			return nil, nil, fmt.Errorf("create data directory: %w", err)
		}
		bc := storage.DefaultBadgerConfig(filepath.Join(sc.DataDir, "badger"))
		if sc.GCInterval > 0 {
			bc.GCInterval = sc.GCInterval
		}
		db, err := storage.OpenBadger(bc, rt.logger)
		if err != nil {
			return nil, nil, err
		}
		if reg != nil {
			db.RegisterMetrics(reg)
		}
		return db, db.Close, nil

	case config.KindSQLite:
		path := sc.SQLiteFile()
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return nil, nil, fmt.Errorf("create data directory: %w", err)
		}
		db, err := sqlite.Open(path,
			sqlite.WithLogger(rt.logger),
			sqlite.WithPollInterval(sc.PollInterval))
		if err != nil {
			return nil, nil, err
		}
		return db, db.Close, nil
	}
	return nil, nil, fmt.Errorf("unknown store kind %q", sc.Kind)
}

// commit runs the final sync cycle and closes the session.
func (s *session) commit() error {
	err := s.mirror.Sync()
	return errors.Join(err, s.close())
}

func (s *session) close() error {
	s.mirror.Close()
	return s.closer()
}
