package dao

import (
	"context"
	"testing"
	"time"

	"github.com/haierkeys/fast-note-local/internal/domain"
	"github.com/haierkeys/fast-note-local/pkg/timex"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T, opts ...RepositoryOption) domain.NoteRepository {
	t.Helper()
	return NewNoteRepository(newTestNoteDao(t), opts...)
}

func TestNoteRepository_EndToEnd(t *testing.T) {
	ctx := testContext(t)
	clock := timex.NewManualClock(1_000)
	repo := newTestRepo(t, WithClock(clock))
	all := repo.ObserveAll(ctx)
	assert.Empty(t, recv(t, all))

	added, err := repo.AddNote(ctx, "Hello", "", domain.DefaultAuthor, false)
	require.NoError(t, err)

	notes := recvUntil(t, all, func(n []domain.Note) bool { return len(n) == 1 })
	n := notes[0]
	assert.Equal(t, added.ID, n.ID)
	assert.Equal(t, "", n.Body)
	assert.Equal(t, "guest", n.Author)
	assert.False(t, n.IsFavorite)
	assert.Equal(t, n.CreatedAt, n.UpdatedAt)

	require.NoError(t, repo.ToggleFavorite(ctx, n.ID))
	notes = recvUntil(t, all, func(n []domain.Note) bool { return len(n) == 1 && n[0].IsFavorite })
	assert.Equal(t, int64(1_000), notes[0].UpdatedAt)

	clock.Advance(5 * time.Second)
	require.NoError(t, repo.UpdateNote(ctx, n.ID, "Hi", ""))
	notes = recvUntil(t, all, func(n []domain.Note) bool { return len(n) == 1 && n[0].Title == "Hi" })
	assert.Equal(t, int64(6_000), notes[0].UpdatedAt)
	assert.True(t, notes[0].IsFavorite)

	require.NoError(t, repo.DeleteNote(ctx, n.ID))
	recvUntil(t, all, func(n []domain.Note) bool { return len(n) == 0 })

	require.NoError(t, repo.ToggleFavorite(ctx, n.ID))
	_, err = repo.GetByID(ctx, n.ID)
	require.ErrorIs(t, err, domain.ErrNoteNotFound)
}

func TestNoteRepository_UpdateNeverMovesUpdatedAtBackwards(t *testing.T) {
	ctx := testContext(t)
	clock := timex.NewManualClock(10_000)
	repo := newTestRepo(t, WithClock(clock))

	n, err := repo.AddNote(ctx, "a", "b", "guest", false)
	require.NoError(t, err)

	clock.Set(5_000)
	require.NoError(t, repo.UpdateNote(ctx, n.ID, "a2", "b2"))

	got, err := repo.GetByID(ctx, n.ID)
	require.NoError(t, err)
	assert.Equal(t, "a2", got.Title)
	assert.Equal(t, int64(10_000), got.UpdatedAt)
	assert.GreaterOrEqual(t, got.UpdatedAt, got.CreatedAt)
}

func TestNoteRepository_MissingIDLeavesOthersAlone(t *testing.T) {
	ctx := testContext(t)
	repo := newTestRepo(t)

	n, err := repo.AddNote(ctx, "keep", "me", "guest", true)
	require.NoError(t, err)

	require.NoError(t, repo.UpdateNote(ctx, "ghost", "x", "y"))
	require.NoError(t, repo.ToggleFavorite(ctx, "ghost"))
	require.NoError(t, repo.DeleteNote(ctx, "ghost"))

	got, err := repo.GetByID(ctx, n.ID)
	require.NoError(t, err)
	assert.Equal(t, *n, *got)
}

func TestNoteRepository_DuplicateIDIsRejected(t *testing.T) {
	ctx := testContext(t)
	repo := newTestRepo(t, WithIDGenerator(func() string { return "fixed" }))

	first, err := repo.AddNote(ctx, "first", "", "guest", false)
	require.NoError(t, err)

	_, err = repo.AddNote(ctx, "second", "", "guest", true)
	require.ErrorIs(t, err, domain.ErrDuplicateID)

	got, err := repo.GetByID(ctx, "fixed")
	require.NoError(t, err)
	assert.Equal(t, *first, *got)
}

func TestNoteRepository_FavoritesFilter(t *testing.T) {
	ctx := testContext(t)
	repo := newTestRepo(t)

	_, err := repo.AddNote(ctx, "C", "", "guest", true)
	require.NoError(t, err)
	_, err = repo.AddNote(ctx, "A", "", "guest", false)
	require.NoError(t, err)
	_, err = repo.AddNote(ctx, "B", "", "guest", true)
	require.NoError(t, err)

	favs := recvUntil(t, repo.ObserveFavorites(ctx), func(n []domain.Note) bool { return len(n) == 2 })
	titles := []string{favs[0].Title, favs[1].Title}
	assert.ElementsMatch(t, []string{"B", "C"}, titles)
}

func TestNoteRepository_ObserveByID(t *testing.T) {
	ctx := testContext(t)
	repo := newTestRepo(t)

	n, err := repo.AddNote(ctx, "x", "body", "guest", false)
	require.NoError(t, err)

	ch := repo.ObserveByID(ctx, n.ID)
	got := recv(t, ch)
	require.NotNil(t, got)
	assert.Equal(t, "body", got.Body)

	require.NoError(t, repo.DeleteNote(ctx, n.ID))
	recvUntil(t, ch, func(n *domain.Note) bool { return n == nil })
}

func TestNoteRepository_Properties(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 25
	properties := gopter.NewProperties(parameters)

	properties.Property("toggling n times leaves favorite == n odd and updatedAt unchanged", prop.ForAll(
		func(n int) bool {
			note, err := repo.AddNote(ctx, "p", "", "guest", false)
			if err != nil {
				return false
			}
			for i := 0; i < n; i++ {
				if err := repo.ToggleFavorite(ctx, note.ID); err != nil {
					return false
				}
			}
			got, err := repo.GetByID(ctx, note.ID)
			if err != nil {
				return false
			}
			return got.IsFavorite == (n%2 == 1) && got.UpdatedAt == note.UpdatedAt
		},
		gen.IntRange(0, 6),
	))

	properties.Property("ids are pairwise distinct", prop.ForAll(
		func(n int) bool {
			seen := make(map[string]struct{}, n)
			for i := 0; i < n; i++ {
				note, err := repo.AddNote(ctx, "u", "", "guest", false)
				if err != nil {
					return false
				}
				if _, dup := seen[note.ID]; dup {
					return false
				}
				seen[note.ID] = struct{}{}
			}
			return true
		},
		gen.IntRange(1, 20),
	))

	properties.Property("update keeps favorite and never lowers updatedAt", prop.ForAll(
		func(title, body string, fav bool) bool {
			note, err := repo.AddNote(ctx, "v", "", "guest", fav)
			if err != nil {
				return false
			}
			if err := repo.UpdateNote(ctx, note.ID, title, body); err != nil {
				return false
			}
			got, err := repo.GetByID(ctx, note.ID)
			if err != nil {
				return false
			}
			return got.Title == title &&
				got.IsFavorite == fav &&
				got.UpdatedAt >= note.UpdatedAt &&
				got.UpdatedAt >= got.CreatedAt
		},
		gen.AlphaString(),
		gen.AnyString(),
		gen.Bool(),
	))

	properties.TestingRun(t)
}
