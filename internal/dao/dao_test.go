package dao

import (
	"context"
	"testing"
	"time"

	"github.com/haierkeys/fast-note-local/pkg/writequeue"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const waitFor = 2 * time.Second

// newTestDao opens a private in-memory database behind a write queue
func newTestDao(t *testing.T) *Dao {
	t.Helper()
	return newTestDaoWithQueue(t, writequeue.DefaultConfig())
}

func newTestDaoWithQueue(t *testing.T, cfg writequeue.Config) *Dao {
	t.Helper()
	db, err := NewDBEngineWithConfig(DatabaseConfig{
		Type: "sqlite",
		Path: "file:" + uuid.NewString() + "?mode=memory&cache=shared",
	}, zap.NewNop())
	require.NoError(t, err)

	wq := writequeue.New(&cfg, zap.NewNop())

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = wq.Shutdown(ctx)
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return New(db, WithWriteQueueManager(wq))
}

func testContext(t *testing.T) context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return ctx
}

func recv[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v, ok := <-ch:
		require.True(t, ok, "stream closed")
		return v
	case <-time.After(waitFor):
		t.Fatal("timeout waiting for value")
	}
	var zero T
	return zero
}

func recvUntil[T any](t *testing.T, ch <-chan T, match func(T) bool) T {
	t.Helper()
	deadline := time.After(waitFor)
	for {
		select {
		case v, ok := <-ch:
			require.True(t, ok, "stream closed")
			if match(v) {
				return v
			}
		case <-deadline:
			t.Fatal("timeout waiting for matching value")
		}
	}
}

func TestUseDialector(t *testing.T) {
	_, err := useDialector(DatabaseConfig{Type: "oracle"})
	require.Error(t, err)

	_, err = useDialector(DatabaseConfig{Type: "sqlite"})
	require.Error(t, err)

	d, err := useDialector(DatabaseConfig{Type: "postgres", Host: "db:6543", Name: "notes"})
	require.NoError(t, err)
	require.Equal(t, "postgres", d.Name())

	d, err = useDialector(DatabaseConfig{Type: "mysql", Host: "db:3306", Name: "notes"})
	require.NoError(t, err)
	require.Equal(t, "mysql", d.Name())
}

func TestNewDBEngine_SQLiteFileCreatesDirectory(t *testing.T) {
	path := t.TempDir() + "/nested/notes.sqlite3"
	db, err := NewDBEngineWithConfig(DatabaseConfig{Type: "sqlite", Path: path}, nil)
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Ping())
	require.NoError(t, sqlDB.Close())
	require.FileExists(t, path)
}

func TestUseWithOnceFunc_RunsOnce(t *testing.T) {
	d := newTestDao(t)
	calls := 0
	for i := 0; i < 3; i++ {
		_, err := d.UseWithOnceFunc("#x", func(_ *gorm.DB) error {
			calls++
			return nil
		})
		require.NoError(t, err)
	}
	require.Equal(t, 1, calls)
}
