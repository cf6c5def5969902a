package command

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yndnr/webstore-go/internal/mirror"
	"github.com/yndnr/webstore-go/internal/storage/sqlite"
	"github.com/yndnr/webstore-go/internal/telemetry/metric"
)

// syncBuffer is a bytes.Buffer safe for concurrent writers and readers.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// run executes the CLI with args and returns stdout, stderr and the error.
func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	return runContext(context.Background(), args...)
}

func runContext(ctx context.Context, args ...string) (string, string, error) {
	var stdout, stderr syncBuffer
	err := runWith(ctx, &stdout, &stderr, args...)
	return stdout.String(), stderr.String(), err
}

func runWith(ctx context.Context, stdout, stderr *syncBuffer, args ...string) error {
	app := App()
	app.Writer = stdout
	app.ErrWriter = stderr
	return app.RunContext(ctx, append([]string{"webstore"}, args...))
}

// local returns global flags selecting a fresh store of kind in a temp dir.
func local(t *testing.T, kind string) []string {
	t.Helper()
	return []string{"--store", kind, "--data-dir", t.TempDir(), "--log-level", "warn"}
}

func TestApp(t *testing.T) {
	app := App()
	assert.Equal(t, "webstore", app.Name)

	names := make(map[string]bool)
	for _, cmd := range app.Commands {
		names[cmd.Name] = true
	}
	for _, want := range []string{"get", "set", "rm", "ls", "default", "reset", "watch", "backup", "config", "version"} {
		assert.True(t, names[want], "missing command %s", want)
	}

	flags := make(map[string]bool)
	for _, f := range app.Flags {
		flags[f.Names()[0]] = true
	}
	for _, want := range []string{"config", "store", "data-dir", "prefix", "log-level", "output", "wide"} {
		assert.True(t, flags[want], "missing flag %s", want)
	}
}

func TestSetGet(t *testing.T) {
	for _, kind := range []string{"local", "sqlite"} {
		t.Run(kind, func(t *testing.T) {
			g := local(t, kind)

			_, _, err := run(t, append(g, "set", "counter", "1")...)
			require.NoError(t, err)
			_, _, err = run(t, append(g, "set", "user", `{"name":"ada","tags":["x"]}`)...)
			require.NoError(t, err)

			out, _, err := run(t, append(g, "get", "counter")...)
			require.NoError(t, err)
			assert.Equal(t, "1\n", out)

			out, _, err = run(t, append(g, "-o", "json", "get", "user")...)
			require.NoError(t, err)
			var user map[string]any
			require.NoError(t, json.Unmarshal([]byte(out), &user))
			assert.Equal(t, map[string]any{"name": "ada", "tags": []any{"x"}}, user)
		})
	}
}

func TestSet_String(t *testing.T) {
	g := local(t, "local")

	_, _, err := run(t, append(g, "set", "theme", "dark")...)
	require.Error(t, err, "bare words are not JSON")

	_, _, err = run(t, append(g, "set", "--string", "theme", "dark")...)
	require.NoError(t, err)

	out, _, err := run(t, append(g, "get", "theme")...)
	require.NoError(t, err)
	assert.Equal(t, "\"dark\"\n", out)
}

func TestSet_ReservedName(t *testing.T) {
	_, _, err := run(t, append(local(t, "local"), "set", "$reset", "1")...)
	assert.ErrorIs(t, err, mirror.ErrReservedName)
}

func TestSet_Args(t *testing.T) {
	_, _, err := run(t, append(local(t, "local"), "set", "only-name")...)
	assert.Error(t, err)
}

func TestGet_NotFound(t *testing.T) {
	_, _, err := run(t, append(local(t, "local"), "get", "missing")...)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRemove(t *testing.T) {
	g := local(t, "local")
	_, _, err := run(t, append(g, "set", "a", "1")...)
	require.NoError(t, err)
	_, _, err = run(t, append(g, "set", "b", "2")...)
	require.NoError(t, err)

	_, _, err = run(t, append(g, "rm", "a", "b")...)
	require.NoError(t, err)

	_, _, err = run(t, append(g, "get", "a")...)
	assert.ErrorIs(t, err, ErrNotFound)

	_, _, err = run(t, append(g, "rm")...)
	assert.Error(t, err)
}

func TestList(t *testing.T) {
	g := local(t, "local")
	_, _, err := run(t, append(g, "set", "b", `{"x":true}`)...)
	require.NoError(t, err)
	_, _, err = run(t, append(g, "set", "a", "1")...)
	require.NoError(t, err)

	out, _, err := run(t, append(g, "ls")...)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "NAME"))
	assert.True(t, strings.HasPrefix(lines[1], "a"))
	assert.True(t, strings.HasSuffix(lines[2], `{"x":true}`))

	out, _, err = run(t, append(g, "-o", "yaml", "ls")...)
	require.NoError(t, err)
	assert.Equal(t, "a: 1\nb:\n  x: true\n", out)
}

func TestPrefix(t *testing.T) {
	g := local(t, "local")
	_, _, err := run(t, append(g, "--prefix", "app-", "set", "a", "1")...)
	require.NoError(t, err)

	out, _, err := run(t, append(g, "-o", "json", "ls")...)
	require.NoError(t, err)
	assert.JSONEq(t, "{}", out)

	out, _, err = run(t, append(g, "--prefix", "app-", "-o", "json", "ls")...)
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1}`, out)
}

func TestPrefix_FromEnv(t *testing.T) {
	g := local(t, "local")
	t.Setenv("WEBSTORE_SYNC_PREFIX", "env-")

	_, _, err := run(t, append(g, "set", "a", "1")...)
	require.NoError(t, err)

	out, _, err := run(t, append(g, "--prefix", "env-", "-o", "json", "ls")...)
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1}`, out)
}

func TestDefaultAndReset(t *testing.T) {
	g := local(t, "local")
	_, _, err := run(t, append(g, "set", "a", "1")...)
	require.NoError(t, err)

	out, _, err := run(t, append(g, "-o", "json", "default", `{"a":10,"b":20}`)...)
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1,"b":20}`, out)

	_, _, err = run(t, append(g, "reset", `{"c":3}`)...)
	require.NoError(t, err)
	out, _, err = run(t, append(g, "-o", "json", "ls")...)
	require.NoError(t, err)
	assert.JSONEq(t, `{"c":3}`, out)

	_, _, err = run(t, append(g, "reset")...)
	require.NoError(t, err)
	out, _, err = run(t, append(g, "-o", "json", "ls")...)
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, out)

	_, _, err = run(t, append(g, "default", `[1,2]`)...)
	assert.Error(t, err)
}

func TestSessionStore_IsNotPersisted(t *testing.T) {
	g := local(t, "session")
	_, _, err := run(t, append(g, "set", "a", "1")...)
	require.NoError(t, err)

	_, _, err = run(t, append(g, "get", "a")...)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestInvalidOutputFormat(t *testing.T) {
	_, _, err := run(t, append(local(t, "session"), "-o", "xml", "ls")...)
	assert.Error(t, err)
}

func TestConfigShow(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "webstore.yaml")
	content := "storage:\n  kind: sqlite\n  sqlite_path: " + filepath.Join(dir, "x.db") + "\nsync:\n  interval: 250ms\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	out, _, err := run(t, "--config", path, "-o", "json", "config", "show")
	require.NoError(t, err)

	var cfg map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &cfg))
	assert.Equal(t, "sqlite", cfg["storage.kind"])
	assert.Equal(t, filepath.Join(dir, "x.db"), cfg["storage.sqlite_path"])
	assert.Equal(t, "250ms", cfg["sync.interval"])
	assert.Equal(t, "ngStorage-", cfg["sync.prefix"])
}

func TestBackup_CreateRestore(t *testing.T) {
	g := local(t, "local")

	_, _, err := run(t, append(g, "set", "counter", "1")...)
	require.NoError(t, err)
	_, _, err = run(t, append(g, "set", "user", `{"name":"ada"}`)...)
	require.NoError(t, err)

	out, _, err := run(t, append(g, "-o", "json", "backup", "create")...)
	require.NoError(t, err)
	var info map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.EqualValues(t, 2, info["entry_count"])
	assert.Equal(t, "ngStorage-", info["prefix"])

	_, _, err = run(t, append(g, "set", "counter", "5")...)
	require.NoError(t, err)
	_, _, err = run(t, append(g, "set", "extra", "true")...)
	require.NoError(t, err)

	_, _, err = run(t, append(g, "backup", "restore")...)
	require.NoError(t, err)

	out, _, err = run(t, append(g, "-o", "json", "ls")...)
	require.NoError(t, err)
	var data map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &data))
	assert.Equal(t, map[string]any{
		"counter": float64(1),
		"user":    map[string]any{"name": "ada"},
	}, data)
}

func TestBackup_RestoreMerge(t *testing.T) {
	g := local(t, "sqlite")

	_, _, err := run(t, append(g, "set", "counter", "1")...)
	require.NoError(t, err)
	_, _, err = run(t, append(g, "backup", "create")...)
	require.NoError(t, err)

	_, _, err = run(t, append(g, "set", "counter", "2")...)
	require.NoError(t, err)
	_, _, err = run(t, append(g, "set", "extra", "true")...)
	require.NoError(t, err)

	_, _, err = run(t, append(g, "backup", "restore", "--merge")...)
	require.NoError(t, err)

	out, _, err := run(t, append(g, "-o", "json", "ls")...)
	require.NoError(t, err)
	var data map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &data))
	assert.Equal(t, map[string]any{"counter": float64(1), "extra": true}, data)
}

func TestBackup_List(t *testing.T) {
	g := local(t, "local")

	_, _, err := run(t, append(g, "set", "a", "1")...)
	require.NoError(t, err)
	for i := 0; i < 2; i++ {
		_, _, err = run(t, append(g, "backup", "create")...)
		require.NoError(t, err)
	}

	out, _, err := run(t, append(g, "-o", "json", "backup", "ls")...)
	require.NoError(t, err)
	var infos []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &infos))
	require.Len(t, infos, 2)
	assert.Less(t, infos[0]["id"], infos[1]["id"])
	assert.EqualValues(t, 1, infos[1]["entry_count"])

	out, _, err = run(t, append(g, "backup", "ls")...)
	require.NoError(t, err)
	assert.Contains(t, out, "ENTRIES")
	assert.Contains(t, out, "snapshot-")
}

func TestBackup_RestoreWithoutSnapshots(t *testing.T) {
	_, _, err := run(t, append(local(t, "local"), "backup", "restore")...)
	assert.Error(t, err)
}

func TestConfigValidate(t *testing.T) {
	out, _, err := run(t, append(local(t, "session"), "config", "validate")...)
	require.NoError(t, err)
	assert.Contains(t, out, "configuration is valid")

	_, _, err = run(t, "--store", "cookie", "config", "validate")
	assert.Error(t, err)

	_, _, err = run(t, "--store", "cookie", "ls")
	assert.Error(t, err, "data commands verify the configuration")
}

func TestVersion(t *testing.T) {
	out, _, err := run(t, "-o", "json", "version")
	require.NoError(t, err)

	var info map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.NotEmpty(t, info["version"])
	assert.NotEmpty(t, info["go_version"])
}

func TestWatch_LogsForeignChanges(t *testing.T) {
	dir := t.TempDir()
	g := []string{"--store", "sqlite", "--data-dir", dir, "--log-level", "info"}
	t.Setenv("WEBSTORE_STORAGE_POLL_INTERVAL", "20ms")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var stdout, stderr syncBuffer
	done := make(chan error, 1)
	go func() { done <- runWith(ctx, &stdout, &stderr, append(g, "watch")...) }()

	require.Eventually(t, func() bool {
		return strings.Contains(stderr.String(), "watching store")
	}, 10*time.Second, 20*time.Millisecond)

	other, err := sqlite.Open(filepath.Join(dir, "webstore.db"))
	require.NoError(t, err)
	defer other.Close()
	require.NoError(t, other.Set("ngStorage-theme", `"dark"`))

	require.Eventually(t, func() bool {
		return strings.Contains(stderr.String(), "entry changed")
	}, 10*time.Second, 20*time.Millisecond)
	assert.Contains(t, stderr.String(), "name=theme")

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("watch did not stop")
	}
}

func TestMetricsHandler(t *testing.T) {
	reg := metric.NewRegistry()
	metric.NewSyncMetrics(reg.Registerer(), "local").Cycle(1, 0, 0, 1)

	srv := httptest.NewServer(metricsHandler(reg))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body bytes.Buffer
	_, err = body.ReadFrom(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, body.String(), `webstore_sync_store_writes_total{store="local"} 1`)
}

func TestWatch_WarnsWithoutNotifier(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var stdout, stderr syncBuffer
	done := make(chan error, 1)
	go func() { done <- runWith(ctx, &stdout, &stderr, append(local(t, "session"), "watch")...) }()

	require.Eventually(t, func() bool {
		return strings.Contains(stderr.String(), "store does not publish changes")
	}, 10*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("watch did not stop")
	}
}

func TestFinalFlush(t *testing.T) {
	t.Run("waits for the run loop", func(t *testing.T) {
		runErr := make(chan error, 1)
		closed := 0
		cancelled := false
		hook := finalFlush(func() { cancelled = true; runErr <- nil }, runErr, func() error {
			closed++
			return nil
		})

		require.NoError(t, hook(context.Background()))
		assert.True(t, cancelled)
		assert.Equal(t, 1, closed)
	})

	t.Run("closes the store on timeout", func(t *testing.T) {
		runErr := make(chan error)
		closed := 0
		hook := finalFlush(func() {}, runErr, func() error {
			closed++
			return nil
		})

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := hook(ctx)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, closed)
	})
}
