package service

import (
	"context"
	"testing"
	"time"

	"github.com/haierkeys/fast-note-local/internal/dao"
	"github.com/haierkeys/fast-note-local/internal/domain"
	"github.com/haierkeys/fast-note-local/pkg/timex"
	"github.com/haierkeys/fast-note-local/pkg/writequeue"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const waitFor = 2 * time.Second

type testStack struct {
	notes    domain.NoteRepository
	prefRepo domain.PreferenceRepository
	prefs    PreferenceService
	clock    *timex.ManualClock
}

// newTestStack wires repositories over a private in-memory database
func newTestStack(t *testing.T) *testStack {
	t.Helper()
	db, err := dao.NewDBEngineWithConfig(dao.DatabaseConfig{
		Type: "sqlite",
		Path: "file:" + uuid.NewString() + "?mode=memory&cache=shared",
	}, nil)
	require.NoError(t, err)

	cfg := writequeue.DefaultConfig()
	wq := writequeue.New(&cfg, zap.NewNop())
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = wq.Shutdown(ctx)
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	d := dao.New(db, dao.WithWriteQueueManager(wq))
	noteDao, err := dao.NewNoteDao(d)
	require.NoError(t, err)

	clock := timex.NewManualClock(1_000)
	prefRepo, err := dao.NewPreferenceRepository(d, clock)
	require.NoError(t, err)

	return &testStack{
		notes:    dao.NewNoteRepository(noteDao, dao.WithClock(clock)),
		prefRepo: prefRepo,
		prefs:    NewPreferenceService(prefRepo, nil),
		clock:    clock,
	}
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
