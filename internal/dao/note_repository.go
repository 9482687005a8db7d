package dao

import (
	"context"

	"github.com/haierkeys/fast-note-local/internal/domain"
	"github.com/haierkeys/fast-note-local/pkg/logger"
	"github.com/haierkeys/fast-note-local/pkg/stream"
	"github.com/haierkeys/fast-note-local/pkg/timex"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// noteRepository 实现 domain.NoteRepository 接口
type noteRepository struct {
	notes  *NoteDao
	clock  timex.Clock
	newID  func() string
	logger *zap.Logger
}

// RepositoryOption noteRepository 配置选项
type RepositoryOption func(*noteRepository)

// WithClock 设置时钟
func WithClock(c timex.Clock) RepositoryOption {
	return func(r *noteRepository) {
		if c != nil {
			r.clock = c
		}
	}
}

// WithIDGenerator replaces the UUID generator, tests use it to force collisions
// WithIDGenerator 替换 ID 生成器
func WithIDGenerator(fn func() string) RepositoryOption {
	return func(r *noteRepository) {
		if fn != nil {
			r.newID = fn
		}
	}
}

// NewNoteRepository 创建 NoteRepository 实例
func NewNoteRepository(notes *NoteDao, opts ...RepositoryOption) domain.NoteRepository {
	r := &noteRepository{
		notes:  notes,
		clock:  timex.NewMonotonicClock(),
		newID:  uuid.NewString,
		logger: notes.dao.logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *noteRepository) ObserveAll(ctx context.Context) <-chan []domain.Note {
	return stream.Map(ctx, r.notes.GetAll(ctx), ToDomainList)
}

func (r *noteRepository) ObserveFavorites(ctx context.Context) <-chan []domain.Note {
	return stream.Map(ctx, r.notes.GetFavorites(ctx), ToDomainList)
}

func (r *noteRepository) ObserveByID(ctx context.Context, id string) <-chan *domain.Note {
	return stream.Map(ctx, r.notes.GetByID(ctx, id), ToDomain)
}

func (r *noteRepository) GetByID(ctx context.Context, id string) (*domain.Note, error) {
	row, err := r.notes.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, domain.ErrNoteNotFound
	}
	return ToDomain(row), nil
}

// AddNote stamps a fresh id and createdAt == updatedAt == now
// AddNote 新建笔记
func (r *noteRepository) AddNote(ctx context.Context, title, body, author string, isFavorite bool) (*domain.Note, error) {
	now := r.clock.NowMilli()
	n := &domain.Note{
		ID:         r.newID(),
		Title:      title,
		Body:       body,
		Author:     author,
		CreatedAt:  now,
		UpdatedAt:  now,
		IsFavorite: isFavorite,
	}
	row := ToEntity(n)
	if err := r.notes.Insert(ctx, row); err != nil {
		return nil, err
	}
	return ToDomain(row), nil
}

// UpdateNote replaces title and body; a missing id is a no-op
// UpdateNote 更新标题和正文，ID 不存在时不做任何操作
func (r *noteRepository) UpdateNote(ctx context.Context, id, title, body string) error {
	existing, err := r.notes.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if existing == nil {
		r.skipped("update", id)
		return nil
	}

	n := ToDomain(existing)
	n.Title = title
	n.Body = body
	n.UpdatedAt = max(r.clock.NowMilli(), existing.UpdatedAt)

	ok, err := r.notes.Update(ctx, ToEntity(n))
	if err != nil {
		return err
	}
	if !ok {
		r.skipped("update", id)
	}
	return nil
}

func (r *noteRepository) ToggleFavorite(ctx context.Context, id string) error {
	ok, err := r.notes.ToggleFavorite(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		r.skipped("toggleFavorite", id)
	}
	return nil
}

func (r *noteRepository) DeleteNote(ctx context.Context, id string) error {
	ok, err := r.notes.DeleteByID(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		r.skipped("delete", id)
	}
	return nil
}

func (r *noteRepository) skipped(action, id string) {
	r.logger.Debug("note not found, nothing to do",
		zap.String(logger.FieldAction, action),
		zap.String(logger.FieldNoteID, id))
}

// 确保 noteRepository 实现了 domain.NoteRepository 接口
var _ domain.NoteRepository = (*noteRepository)(nil)
