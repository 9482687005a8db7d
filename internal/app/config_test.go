package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	c := DefaultConfig()
	assert.Equal(t, "warn", c.Log.Level)
	assert.Equal(t, "", c.Log.File)
	assert.False(t, c.Log.Production)
	assert.Equal(t, "sqlite", c.Database.Type)
	assert.Equal(t, "storage/database/notes.sqlite3", c.Database.Path)
	assert.Equal(t, "guest", c.Store.DefaultAuthor)
	assert.Equal(t, 5*time.Second, c.GetKeepWarm())

	wq := c.GetWriteQueueConfig()
	assert.Equal(t, 100, wq.QueueCapacity)
	assert.Equal(t, 30*time.Second, wq.WriteTimeout)
	assert.Equal(t, 10*time.Minute, wq.IdleTimeout)
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
log:
  level: debug
database:
  path: ""
  table-prefix: fn_
store:
  keep-warm: 2s
  write-queue-capacity: 7
  write-idle-time: 1d
  default-author: anon
`), 0644))

	c, real, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, path, real)
	assert.Equal(t, "debug", c.Log.Level)
	assert.Equal(t, "storage/database/notes.sqlite3", c.Database.Path, "empty value falls back to default")
	assert.Equal(t, "fn_", c.GetDatabaseConfig().TablePrefix)
	assert.Equal(t, 2*time.Second, c.GetKeepWarm())
	assert.Equal(t, "anon", c.GetServiceConfig().DefaultAuthor)

	wq := c.GetWriteQueueConfig()
	assert.Equal(t, 7, wq.QueueCapacity)
	assert.Equal(t, 24*time.Hour, wq.IdleTimeout)
}

func TestLoadConfig_Errors(t *testing.T) {
	_, _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("log: [unclosed"), 0644))
	_, _, err = LoadConfig(bad)
	require.Error(t, err)
}

func TestSaveThenLoad(t *testing.T) {
	c := DefaultConfig()
	c.File = filepath.Join(t.TempDir(), "nested", "config.yaml")
	c.Store.DefaultAuthor = "zoe"
	require.NoError(t, c.Save())

	loaded, _, err := LoadConfig(c.File)
	require.NoError(t, err)
	assert.Equal(t, "zoe", loaded.Store.DefaultAuthor)
	assert.Equal(t, c.Database, loaded.Database)
}

func TestInvalidDurationFallsBack(t *testing.T) {
	c := DefaultConfig()
	c.Store.KeepWarm = "soon"
	c.Store.WriteTimeout = "whenever"
	assert.Equal(t, 5*time.Second, c.GetKeepWarm())
	assert.Equal(t, 30*time.Second, c.GetWriteQueueConfig().WriteTimeout)
}
