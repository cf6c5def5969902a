package snapshot

import (
	"bufio"
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Magic bytes identify snapshot files.
var magicBytes = []byte("WEBSSNAP")

const (
	filePrefix    = "snapshot-"
	fileExtension = ".snap"
	checksumSize  = 32
	headerVersion = 1

	DefaultRetentionCount = 5
	DefaultRetentionDays  = 7
)

var (
	ErrInvalidMagic     = errors.New("snapshot: invalid magic bytes")
	ErrChecksumMismatch = errors.New("snapshot: checksum mismatch")
	ErrNotFound         = errors.New("snapshot: not found")
	ErrNoSnapshots      = errors.New("snapshot: no snapshots available")
)

type snapshotHeader struct {
	Version    int    `json:"version"`
	CreatedAt  int64  `json:"created_at"`
	Store      string `json:"store,omitempty"`
	Prefix     string `json:"prefix"`
	EntryCount int    `json:"entry_count"`
}

// Config configures the snapshot manager.
type Config struct {
	Dir string

	RetentionCount int
	RetentionDays  int
}

// DefaultConfig returns the default configuration for snapshots in dir.
func DefaultConfig(dir string) Config {
	return Config{
		Dir:            dir,
		RetentionCount: DefaultRetentionCount,
		RetentionDays:  DefaultRetentionDays,
	}
}

// Manager creates, lists, loads and prunes snapshot files in one directory.
type Manager struct {
	cfg Config
}

// NewManager creates the snapshot directory if needed.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.Dir == "" {
		return nil, fmt.Errorf("snapshot: dir is required")
	}
	if err := os.MkdirAll(cfg.Dir, 0750); err != nil {
		return nil, fmt.Errorf("snapshot: create dir: %w", err)
	}
	if cfg.RetentionCount == 0 {
		cfg.RetentionCount = DefaultRetentionCount
	}
	if cfg.RetentionDays == 0 {
		cfg.RetentionDays = DefaultRetentionDays
	}
	return &Manager{cfg: cfg}, nil
}

// Info contains metadata about a snapshot. List fills only ID, Path and
// Size.
type Info struct {
	ID         string `json:"id" yaml:"id"`
	Store      string `json:"store,omitempty" yaml:"store,omitempty"`
	Prefix     string `json:"prefix" yaml:"prefix"`
	EntryCount int    `json:"entry_count" yaml:"entry_count"`
	CreatedAt  int64  `json:"created_at" yaml:"created_at"`
	Size       int64  `json:"size" yaml:"size"`
	Path       string `json:"path" yaml:"path"`
	Checksum   string `json:"checksum" yaml:"checksum"`
}

// Snapshot is a loaded snapshot.
type Snapshot struct {
	Info
	// Entries maps names (without prefix) to their stored values.
	Entries map[string]string
}

// Create writes a snapshot of entries taken from the named store under
// prefix.
func (m *Manager) Create(store, prefix string, entries map[string]string) (*Info, error) {
	now := time.Now()
	id := m.generateID(now)

	tempPath := filepath.Join(m.cfg.Dir, id+".tmp")
	file, err := os.Create(tempPath)
	if err != nil {
		return nil, fmt.Errorf("snapshot: create temp file: %w", err)
	}
	defer os.Remove(tempPath)

	hash := sha256.New()
	writer := io.MultiWriter(file, hash)

	hdr := snapshotHeader{
		Version:    headerVersion,
		CreatedAt:  now.UnixMilli(),
		Store:      store,
		Prefix:     prefix,
		EntryCount: len(entries),
	}
	hdrJSON, err := json.Marshal(hdr)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("snapshot: marshal header: %w", err)
	}
	if entries == nil {
		entries = map[string]string{}
	}
	data, err := json.Marshal(entries)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("snapshot: marshal entries: %w", err)
	}

	if _, err := writer.Write(magicBytes); err != nil {
		file.Close()
		return nil, fmt.Errorf("snapshot: write magic: %w", err)
	}
	if err := writeBlock(writer, hdrJSON); err != nil {
		file.Close()
		return nil, fmt.Errorf("snapshot: write header: %w", err)
	}
	if err := writeBlock(writer, data); err != nil {
		file.Close()
		return nil, fmt.Errorf("snapshot: write entries: %w", err)
	}

	// Checksum trailer is not part of the hash.
	sum := hash.Sum(nil)
	if _, err := file.Write(sum); err != nil {
		file.Close()
		return nil, fmt.Errorf("snapshot: write checksum: %w", err)
	}
	if err := file.Sync(); err != nil {
		file.Close()
		return nil, fmt.Errorf("snapshot: sync: %w", err)
	}
	if err := file.Close(); err != nil {
		return nil, fmt.Errorf("snapshot: close: %w", err)
	}

	stat, err := os.Stat(tempPath)
	if err != nil {
		return nil, err
	}
	finalPath := filepath.Join(m.cfg.Dir, id+fileExtension)
	if err := os.Rename(tempPath, finalPath); err != nil {
		return nil, fmt.Errorf("snapshot: rename: %w", err)
	}

	return &Info{
		ID:         id,
		Store:      store,
		Prefix:     prefix,
		EntryCount: len(entries),
		CreatedAt:  hdr.CreatedAt,
		Size:       stat.Size(),
		Path:       finalPath,
		Checksum:   hex.EncodeToString(sum),
	}, nil
}

// Load reads the snapshot with the given ID. An empty ID loads the latest
// valid snapshot, skipping corrupted ones.
func (m *Manager) Load(id string) (*Snapshot, error) {
	if id != "" {
		path := filepath.Join(m.cfg.Dir, id+fileExtension)
		if filepath.Base(path) != id+fileExtension {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		snap, err := m.loadFile(path)
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return snap, err
	}

	infos, err := m.List()
	if err != nil {
		return nil, err
	}
	for i := len(infos) - 1; i >= 0; i-- {
		snap, err := m.loadFile(infos[i].Path)
		if err == nil {
			return snap, nil
		}
		if errors.Is(err, ErrChecksumMismatch) || errors.Is(err, ErrInvalidMagic) {
			continue
		}
		return nil, err
	}
	return nil, ErrNoSnapshots
}

func (m *Manager) loadFile(path string) (*Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if stat.Size() < int64(len(magicBytes))+checksumSize {
		return nil, ErrChecksumMismatch
	}

	bodyLen := stat.Size() - checksumSize
	expected := make([]byte, checksumSize)
	if _, err := io.ReadFull(io.NewSectionReader(f, bodyLen, checksumSize), expected); err != nil {
		return nil, err
	}
	h := sha256.New()
	if _, err := io.CopyN(h, io.NewSectionReader(f, 0, bodyLen), bodyLen); err != nil {
		return nil, err
	}
	if !bytes.Equal(h.Sum(nil), expected) {
		return nil, ErrChecksumMismatch
	}

	br := bufio.NewReader(io.NewSectionReader(f, 0, bodyLen))
	magic := make([]byte, len(magicBytes))
	if _, err := io.ReadFull(br, magic); err != nil {
		return nil, err
	}
	if !bytes.Equal(magic, magicBytes) {
		return nil, ErrInvalidMagic
	}

	hdrJSON, err := readBlock(br)
	if err != nil {
		return nil, fmt.Errorf("snapshot: read header: %w", err)
	}
	var hdr snapshotHeader
	if err := json.Unmarshal(hdrJSON, &hdr); err != nil {
		return nil, fmt.Errorf("snapshot: unmarshal header: %w", err)
	}
	if hdr.Version != headerVersion {
		return nil, fmt.Errorf("snapshot: unsupported version %d", hdr.Version)
	}

	data, err := readBlock(br)
	if err != nil {
		return nil, fmt.Errorf("snapshot: read entries: %w", err)
	}
	var entries map[string]string
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("snapshot: unmarshal entries: %w", err)
	}

	return &Snapshot{
		Info: Info{
			ID:         strings.TrimSuffix(filepath.Base(path), fileExtension),
			Store:      hdr.Store,
			Prefix:     hdr.Prefix,
			EntryCount: hdr.EntryCount,
			CreatedAt:  hdr.CreatedAt,
			Size:       stat.Size(),
			Path:       path,
			Checksum:   hex.EncodeToString(expected),
		},
		Entries: entries,
	}, nil
}

// List lists snapshot files, oldest first (metadata only).
func (m *Manager) List() ([]*Info, error) {
	dirEntries, err := os.ReadDir(m.cfg.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var paths []string
	for _, e := range dirEntries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasPrefix(name, filePrefix) && strings.HasSuffix(name, fileExtension) {
			paths = append(paths, filepath.Join(m.cfg.Dir, name))
		}
	}
	sort.Strings(paths)

	var infos []*Info
	for _, p := range paths {
		stat, err := os.Stat(p)
		if err != nil {
			continue
		}
		infos = append(infos, &Info{
			ID:   strings.TrimSuffix(filepath.Base(p), fileExtension),
			Path: p,
			Size: stat.Size(),
		})
	}
	return infos, nil
}

// Prune applies the retention policy and deletes old snapshots. The newest
// snapshot is always kept.
func (m *Manager) Prune() error {
	infos, err := m.List()
	if err != nil {
		return err
	}
	if len(infos) <= 1 {
		return nil
	}

	keep := make(map[string]struct{}, len(infos))

	if m.cfg.RetentionCount > 0 {
		start := len(infos) - m.cfg.RetentionCount
		if start < 0 {
			start = 0
		}
		for _, info := range infos[start:] {
			keep[info.Path] = struct{}{}
		}
	}

	if m.cfg.RetentionDays > 0 {
		cutoff := time.Now().Add(-time.Duration(m.cfg.RetentionDays) * 24 * time.Hour)
		for _, info := range infos {
			st, err := os.Stat(info.Path)
			if err != nil {
				continue
			}
			if st.ModTime().After(cutoff) {
				keep[info.Path] = struct{}{}
			}
		}
	}

	keep[infos[len(infos)-1].Path] = struct{}{}

	for _, info := range infos {
		if _, ok := keep[info.Path]; ok {
			continue
		}
		_ = os.Remove(info.Path)
	}
	return nil
}

func (m *Manager) generateID(t time.Time) string {
	ts := t.Format("20060102150405")
	seq := 1

	entries, _ := os.ReadDir(m.cfg.Dir)
	for _, e := range entries {
		name := e.Name()
		if strings.HasPrefix(name, filePrefix+ts+"-") && strings.HasSuffix(name, fileExtension) {
			seq++
		}
	}
	return fmt.Sprintf("%s%s-%04d", filePrefix, ts, seq)
}

func writeBlock(w io.Writer, b []byte) error {
	var n [4]byte
	binary.BigEndian.PutUint32(n[:], uint32(len(b)))
	if _, err := w.Write(n[:]); err != nil {
		return err
	}
	_, err := w.Write(b)
	return err
}

func readBlock(r io.Reader) ([]byte, error) {
	var n [4]byte
	if _, err := io.ReadFull(r, n[:]); err != nil {
		return nil, err
	}
	b := make([]byte, binary.BigEndian.Uint32(n[:]))
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, err
	}
	return b, nil
}
