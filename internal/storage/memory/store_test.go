package memory

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/yndnr/webstore-go/internal/storage"
)

var (
	_ storage.Store   = (*Store)(nil)
	_ storage.Scanner = (*Store)(nil)
)

func TestStore_SetGetRemove(t *testing.T) {
	s := New()

	if err := s.Set("ngStorage-a", `"x"`); err != nil {
		t.Fatal(err)
	}
	v, ok, err := s.Get("ngStorage-a")
	if err != nil || !ok || v != `"x"` {
		t.Errorf("Get = (%q, %v, %v), want (%q, true, nil)", v, ok, err, `"x"`)
	}

	if err := s.Remove("ngStorage-a"); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := s.Get("ngStorage-a"); ok {
		t.Error("key should be gone after Remove")
	}
	if err := s.Remove("ngStorage-a"); err != nil {
		t.Errorf("Remove of absent key = %v", err)
	}
}

func TestStore_KeyOrder(t *testing.T) {
	s := New()
	for _, k := range []string{"b", "c", "a"} {
		if err := s.Set(k, ""); err != nil {
			t.Fatal(err)
		}
	}

	n, _ := s.Len()
	if n != 3 {
		t.Fatalf("Len() = %d, want 3", n)
	}

	tests := []struct {
		index  int
		want   string
		wantOK bool
	}{
		{0, "a", true},
		{1, "b", true},
		{2, "c", true},
		{3, "", false},
		{-1, "", false},
	}
	for _, tt := range tests {
		key, ok, err := s.Key(tt.index)
		if err != nil {
			t.Fatal(err)
		}
		if key != tt.want || ok != tt.wantOK {
			t.Errorf("Key(%d) = (%q, %v), want (%q, %v)", tt.index, key, ok, tt.want, tt.wantOK)
		}
	}
}

func TestStore_Scan(t *testing.T) {
	s := New()
	s.Set("ngStorage-a", "1")
	s.Set("ngStorage-b", "2")
	s.Set("other", "3")

	var keys []string
	if err := s.Scan("ngStorage-", func(key, _ string) bool {
		keys = append(keys, key)
		return true
	}); err != nil {
		t.Fatal(err)
	}
	if len(keys) != 2 || keys[0] != "ngStorage-a" || keys[1] != "ngStorage-b" {
		t.Errorf("Scan keys = %v", keys)
	}
}

func TestStore_Quota(t *testing.T) {
	s := New(WithQuota(10))

	if err := s.Set("k", "123456789"); err != nil {
		t.Fatalf("write within quota: %v", err)
	}
	if err := s.Set("x", "1"); !errors.Is(err, ErrQuotaExceeded) {
		t.Errorf("write past quota = %v, want ErrQuotaExceeded", err)
	}
	if err := s.Set("k", "12345678"); err != nil {
		t.Errorf("shrinking overwrite should succeed: %v", err)
	}
	if s.Size() != 9 {
		t.Errorf("Size() = %d, want 9", s.Size())
	}

	s.Remove("k")
	if s.Size() != 0 {
		t.Errorf("Size() after Remove = %d, want 0", s.Size())
	}
}

func TestStore_NegativeQuotaRejectsAll(t *testing.T) {
	s := New(WithQuota(-1))
	if err := s.Set("k", ""); !errors.Is(err, ErrQuotaExceeded) {
		t.Errorf("Set = %v, want ErrQuotaExceeded", err)
	}
}

func TestStore_RegisterMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	s := New().RegisterMetrics(reg)
	s.Set("ab", "cd")

	families, err := reg.Gather()
	if err != nil {
		t.Fatal(err)
	}
	if len(families) != 1 || families[0].GetName() != "webstore_session_size_bytes" {
		t.Fatalf("unexpected metric families: %v", families)
	}
	if got := families[0].GetMetric()[0].GetGauge().GetValue(); got != 4 {
		t.Errorf("size gauge = %v, want 4", got)
	}
}
