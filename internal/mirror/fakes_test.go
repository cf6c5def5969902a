package mirror

import (
	"errors"
	"io"
	"log/slog"
	"sort"
	"sync"
)

var errStoreDown = errors.New("store down")

// recordingStore is a Store that counts calls and can be told to fail.
type recordingStore struct {
	mu      sync.Mutex
	data    map[string]string
	sets    int
	removes int
	reads   int

	failSet    error
	failRemove error
}

func newRecordingStore() *recordingStore {
	return &recordingStore{data: make(map[string]string)}
}

func (s *recordingStore) Get(key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reads++
	v, ok := s.data[key]
	return v, ok, nil
}

func (s *recordingStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sets++
	if s.failSet != nil {
		return s.failSet
	}
	s.data[key] = value
	return nil
}

func (s *recordingStore) Remove(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removes++
	if s.failRemove != nil {
		return s.failRemove
	}
	delete(s.data, key)
	return nil
}

func (s *recordingStore) Len() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reads++
	return len(s.data), nil
}

func (s *recordingStore) Key(i int) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reads++
	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if i < 0 || i >= len(keys) {
		return "", false, nil
	}
	return keys[i], true, nil
}

func (s *recordingStore) value(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[key]
	return v, ok
}

func (s *recordingStore) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sets + s.removes + s.reads
}

func (s *recordingStore) writes() (sets, removes int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sets, s.removes
}

func (s *recordingStore) setFailures(set, remove error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failSet = set
	s.failRemove = remove
}

// panicStore panics on every call, like a storage object that exists but
// whose access is denied.
type panicStore struct{}

func (panicStore) Get(string) (string, bool, error) { panic("access denied") }
func (panicStore) Set(string, string) error         { panic("access denied") }
func (panicStore) Remove(string) error              { panic("access denied") }
func (panicStore) Len() (int, error)                { panic("access denied") }
func (panicStore) Key(int) (string, bool, error)    { panic("access denied") }

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
