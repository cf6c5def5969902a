package storage

import (
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func newTestBadger(t *testing.T) *BadgerStore {
	t.Helper()

	cfg := DefaultBadgerConfig(t.TempDir())
	cfg.GCInterval = time.Hour // keep the GC loop out of the way

	s, err := OpenBadger(cfg, slog.Default())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestBadgerStore_BasicOperations(t *testing.T) {
	s := newTestBadger(t)

	t.Run("Set and Get", func(t *testing.T) {
		if err := s.Set("ngStorage-theme", `"dark"`); err != nil {
			t.Fatal(err)
		}
		got, ok, err := s.Get("ngStorage-theme")
		if err != nil {
			t.Fatal(err)
		}
		if !ok || got != `"dark"` {
			t.Errorf("Get = (%q, %v), want (%q, true)", got, ok, `"dark"`)
		}
	})

	t.Run("Get non-existent key", func(t *testing.T) {
		_, ok, err := s.Get("non-existent")
		if err != nil {
			t.Fatal(err)
		}
		if ok {
			t.Error("expected absent key")
		}
	})

	t.Run("Remove", func(t *testing.T) {
		if err := s.Set("delete-me", "1"); err != nil {
			t.Fatal(err)
		}
		if err := s.Remove("delete-me"); err != nil {
			t.Fatal(err)
		}
		if _, ok, _ := s.Get("delete-me"); ok {
			t.Error("expected key to be removed")
		}
		if err := s.Remove("never-existed"); err != nil {
			t.Errorf("Remove of absent key: %v", err)
		}
	})
}

func TestBadgerStore_Enumeration(t *testing.T) {
	s := newTestBadger(t)

	for _, k := range []string{"c", "a", "b"} {
		if err := s.Set(k, k); err != nil {
			t.Fatal(err)
		}
	}

	n, err := s.Len()
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Fatalf("Len() = %d, want 3", n)
	}

	want := []string{"a", "b", "c"}
	for i, w := range want {
		key, ok, err := s.Key(i)
		if err != nil {
			t.Fatal(err)
		}
		if !ok || key != w {
			t.Errorf("Key(%d) = (%q, %v), want (%q, true)", i, key, ok, w)
		}
	}

	if _, ok, _ := s.Key(3); ok {
		t.Error("Key(3) should be out of range")
	}
	if _, ok, _ := s.Key(-1); ok {
		t.Error("Key(-1) should be out of range")
	}
}

func TestBadgerStore_Scan(t *testing.T) {
	s := newTestBadger(t)

	testData := map[string]string{
		"ngStorage-a": "1",
		"ngStorage-b": "2",
		"ngStorage-c": "3",
		"other":       "x",
	}
	for k, v := range testData {
		if err := s.Set(k, v); err != nil {
			t.Fatal(err)
		}
	}

	t.Run("Scan with prefix", func(t *testing.T) {
		got := map[string]string{}
		err := s.Scan("ngStorage-", func(key, value string) bool {
			got[key] = value
			return true
		})
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 3 {
			t.Errorf("expected 3 results, got %d", len(got))
		}
		if _, ok := got["other"]; ok {
			t.Error("scan leaked a key outside the prefix")
		}
	})

	t.Run("Scan with early stop", func(t *testing.T) {
		count := 0
		err := s.Scan("ngStorage-", func(string, string) bool {
			count++
			return count < 2
		})
		if err != nil {
			t.Fatal(err)
		}
		if count != 2 {
			t.Errorf("expected 2 iterations, got %d", count)
		}
	})
}

func TestBadgerStore_Persistence(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultBadgerConfig(dir)
	cfg.GCInterval = time.Hour

	s, err := OpenBadger(cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Set("ngStorage-count", "42"); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	s2, err := OpenBadger(cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer s2.Close()

	got, ok, err := s2.Get("ngStorage-count")
	if err != nil {
		t.Fatal(err)
	}
	if !ok || got != "42" {
		t.Errorf("after reopen Get = (%q, %v), want (\"42\", true)", got, ok)
	}
}

func TestBadgerStore_Closed(t *testing.T) {
	s, err := OpenBadger(BadgerConfig{InMemory: true, GCInterval: time.Hour}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("second Close() = %v, want nil", err)
	}

	if err := s.Set("k", "v"); err != ErrClosed {
		t.Errorf("Set after Close = %v, want ErrClosed", err)
	}
	if _, _, err := s.Get("k"); err != ErrClosed {
		t.Errorf("Get after Close = %v, want ErrClosed", err)
	}
}

func TestBadgerStore_GCAndMetrics(t *testing.T) {
	s := newTestBadger(t)
	reg := prometheus.NewRegistry()
	s.RegisterMetrics(reg)

	if _, err := s.GC(); err != nil {
		t.Fatalf("GC() error = %v", err)
	}
	if s.LastGC().IsZero() {
		t.Error("LastGC() should be set after GC")
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatal(err)
	}
	names := map[string]bool{}
	for _, f := range families {
		names[f.GetName()] = true
		if f.GetName() == "webstore_badger_last_gc_timestamp_seconds" {
			if v := f.GetMetric()[0].GetGauge().GetValue(); v <= 0 {
				t.Errorf("last GC gauge = %v, want a timestamp", v)
			}
		}
	}
	for _, want := range []string{
		"webstore_badger_lsm_size_bytes",
		"webstore_badger_value_log_size_bytes",
		"webstore_badger_gc_runs_total",
		"webstore_badger_last_gc_timestamp_seconds",
	} {
		if !names[want] {
			t.Errorf("metric %s not registered", want)
		}
	}
}

func TestOpenBadger_RequiresDir(t *testing.T) {
	if _, err := OpenBadger(BadgerConfig{}, nil); err == nil {
		t.Error("expected error for empty dir")
	}
}
