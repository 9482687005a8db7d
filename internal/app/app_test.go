package app

import (
	"context"
	"testing"
	"time"

	"github.com/haierkeys/fast-note-local/internal/dao"
	"github.com/haierkeys/fast-note-local/internal/domain"
	"github.com/haierkeys/fast-note-local/pkg/writequeue"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestApp(t *testing.T) *App {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Database.Path = "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	cfg.Store.KeepWarm = "50ms"

	a, err := OpenApp(cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Shutdown(context.Background()) })
	return a
}

func TestNewApp_RequiresDependencies(t *testing.T) {
	_, err := NewApp(nil, zap.NewNop(), nil)
	require.Error(t, err)
	_, err = NewApp(DefaultConfig(), nil, nil)
	require.Error(t, err)
	_, err = NewApp(DefaultConfig(), zap.NewNop(), nil)
	require.Error(t, err)
}

func TestOpenApp_UnsupportedDatabase(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Database.Type = "oracle"
	_, err := OpenApp(cfg, zap.NewNop())
	require.Error(t, err)
}

func TestNewApp_FailedInitStopsWriteQueue(t *testing.T) {
	var created *writequeue.Manager
	orig := newWriteQueue
	newWriteQueue = func(cfg *writequeue.Config, lg *zap.Logger) *writequeue.Manager {
		created = orig(cfg, lg)
		return created
	}
	t.Cleanup(func() { newWriteQueue = orig })

	cfg := DefaultConfig()
	cfg.Database.Path = "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := dao.NewDBEngineWithConfig(cfg.GetDatabaseConfig(), zap.NewNop())
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	_, err = NewApp(cfg, zap.NewNop(), db)
	require.Error(t, err)
	require.NotNil(t, created)
	assert.True(t, created.IsClosed())
}

func TestApp_WiresServices(t *testing.T) {
	a := newTestApp(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.SessionService.SetDraft("alice")
	require.True(t, a.SessionService.Commit(ctx))
	require.True(t, a.NotesService.AddNoteAsCurrentUser(ctx, "Hello", "", false))

	select {
	case notes := <-a.NotesService.Notes(ctx):
		require.Len(t, notes, 1)
		assert.Equal(t, "alice", notes[0].Author)
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for notes")
	}

	families, err := a.Registry().Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "notes_mutations_total")
}

func TestApp_ShutdownIsIdempotent(t *testing.T) {
	a := newTestApp(t)
	ctx := context.Background()

	require.NoError(t, a.Shutdown(ctx))
	require.NoError(t, a.Shutdown(ctx))
	assert.True(t, a.WriteQueueManager().IsClosed())
	assert.False(t, a.NotesService.AddNote(ctx, "late", "", domain.DefaultAuthor, false))
}
