package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	internalApp "github.com/haierkeys/fast-note-local/internal/app"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// run executes the root command with args against the config at cfgPath
func run(t *testing.T, cfgPath string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(append(args, "-c", cfgPath))
	err := rootCmd.Execute()
	return out.String(), err
}

func writeConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	cfg := []byte("database:\n  path: " + filepath.Join(dir, "db", "notes.sqlite3") + "\nstore:\n  keep-warm: 10ms\n")
	require.NoError(t, os.WriteFile(path, cfg, 0644))
	return path
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, "", "version")
	require.NoError(t, err)
	assert.Contains(t, out, internalApp.Name)
	assert.Contains(t, out, internalApp.Version)
}

func TestConfigInitCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", "config.yaml")

	out, err := run(t, "", "config", "init", path)
	require.NoError(t, err)
	assert.Contains(t, out, "config.yaml")

	cfg, _, err := internalApp.LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "guest", cfg.Store.DefaultAuthor)

	_, err = run(t, "", "config", "init", path)
	require.Error(t, err)
}

func TestNoteCommands(t *testing.T) {
	cfgPath := writeConfig(t)

	_, err := run(t, cfgPath, "login", "x!")
	require.Error(t, err)

	_, err = run(t, cfgPath, "login", "alice")
	require.NoError(t, err)

	out, err := run(t, cfgPath, "whoami")
	require.NoError(t, err)
	assert.Equal(t, "alice\n", out)

	_, err = run(t, cfgPath, "add", "-t", "Hello", "-b", "first body")
	require.NoError(t, err)

	out, err = run(t, cfgPath, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Hello")
	assert.Contains(t, out, "alice")

	_, err = run(t, cfgPath, "prefs", "set", "sort_by", "title")
	require.NoError(t, err)
	out, err = run(t, cfgPath, "prefs")
	require.NoError(t, err)
	assert.Contains(t, out, "sort_by=TITLE")

	_, err = run(t, cfgPath, "prefs", "set", "sort_by", "sideways")
	require.Error(t, err)

	_, err = run(t, cfgPath, "show", "missing-id")
	require.Error(t, err)

	_, err = run(t, cfgPath, "logout")
	require.NoError(t, err)
	out, err = run(t, cfgPath, "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "not logged in")
}

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

func TestWatchHome(t *testing.T) {
	cfg := internalApp.DefaultConfig()
	cfg.Database.Path = "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	a, err := internalApp.OpenApp(cfg, zap.NewNop())
	require.NoError(t, err)
	defer a.Shutdown(context.Background())

	ctx, cancel := context.WithCancel(context.Background())
	out := &syncBuffer{}
	done := make(chan error, 1)
	go func() { done <- watchHome(ctx, a, out, false) }()

	require.Eventually(t, func() bool { return strings.Contains(out.String(), "0 note(s)") }, 2*time.Second, 10*time.Millisecond)

	require.True(t, a.NotesService.AddNote(ctx, "Watched", "", "", false))
	require.NoError(t, a.PreferenceService.SetDarkMode(ctx, true))

	require.Eventually(t, func() bool {
		s := out.String()
		return strings.Contains(s, "Watched") && strings.Contains(s, "dark_mode=true")
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watch did not stop")
	}
}
