package service

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	"github.com/haierkeys/fast-note-local/internal/domain"
	"github.com/haierkeys/fast-note-local/internal/view"
	"github.com/haierkeys/fast-note-local/pkg/logger"
	"github.com/haierkeys/fast-note-local/pkg/metrics"
	"github.com/haierkeys/fast-note-local/pkg/stream"

	"go.uber.org/zap"
)

// NotesService 笔记编排服务接口
// NotesService is what the UI talks to. Mutations never return an error: every failure
// is logged and reported as false.
type NotesService interface {
	// Notes warm, de-duplicated stream of all notes, newest first
	Notes(ctx context.Context) <-chan []domain.Note

	// ObserveNote 单条笔记，删除后为 nil
	ObserveNote(ctx context.Context, id string) <-chan *domain.Note

	// ObserveHome notes filtered and ordered by the sort_by preference
	ObserveHome(ctx context.Context, favoritesOnly bool) <-chan []domain.Note

	// AddNote 新建笔记；author 为空时使用默认作者
	AddNote(ctx context.Context, title, body, author string, isFavorite bool) bool

	// AddNoteAsCurrentUser uses the stored user name as author
	AddNoteAsCurrentUser(ctx context.Context, title, body string, isFavorite bool) bool

	// UpdateNote 更新标题和正文，ID 不存在时视为成功
	UpdateNote(ctx context.Context, id, title, body string) bool

	// ToggleFavorite 切换收藏，ID 不存在时视为成功
	ToggleFavorite(ctx context.Context, id string) bool

	// DeleteNote 删除笔记，ID 不存在时视为成功
	DeleteNote(ctx context.Context, id string) bool

	// Close stops the warm stream; later mutations report false
	Close()
}

type notesService struct {
	repo    domain.NoteRepository
	prefs   PreferenceService
	notes   *stream.Shared[[]domain.Note]
	config  *ServiceConfig
	logger  *zap.Logger
	metrics *metrics.Metrics
	closed  atomic.Bool
}

// NewNotesService 创建 NotesService 实例
func NewNotesService(repo domain.NoteRepository, prefs PreferenceService, cfg *ServiceConfig, lg *zap.Logger, m *metrics.Metrics) NotesService {
	if lg == nil {
		lg = zap.NewNop()
	}
	if cfg == nil {
		cfg = &ServiceConfig{KeepWarm: 5 * time.Second}
	}
	s := &notesService{
		repo:    repo,
		prefs:   prefs,
		config:  cfg,
		logger:  lg,
		metrics: m,
	}
	s.notes = stream.NewShared("notes.warm",
		func(ctx context.Context) <-chan []domain.Note { return repo.ObserveAll(ctx) },
		domain.EqualNotes,
		cfg.KeepWarm,
		stream.SharedLogger[[]domain.Note](lg),
		stream.SharedObserverHook[[]domain.Note](m.SetObservers))
	return s
}

func (s *notesService) Notes(ctx context.Context) <-chan []domain.Note {
	return s.notes.Observe(ctx)
}

func (s *notesService) ObserveNote(ctx context.Context, id string) <-chan *domain.Note {
	return s.repo.ObserveByID(ctx, id)
}

func (s *notesService) ObserveHome(ctx context.Context, favoritesOnly bool) <-chan []domain.Note {
	return stream.CombineLatest(ctx, s.Notes(ctx), s.prefs.SortBy(ctx),
		func(notes []domain.Note, sortBy domain.SortBy) []domain.Note {
			return view.Project(notes, favoritesOnly, sortBy)
		})
}

func (s *notesService) AddNote(ctx context.Context, title, body, author string, isFavorite bool) bool {
	if strings.TrimSpace(author) == "" {
		author = s.config.defaultAuthor()
	}
	return s.mutate("add", "", func() error {
		_, err := s.repo.AddNote(ctx, title, body, author, isFavorite)
		return err
	})
}

func (s *notesService) AddNoteAsCurrentUser(ctx context.Context, title, body string, isFavorite bool) bool {
	var author string
	if p, err := s.prefs.Snapshot(ctx); err != nil {
		s.logger.Warn("read user name failed, using default author", zap.Error(err))
	} else {
		author = strings.TrimSpace(p.UserName)
	}
	return s.AddNote(ctx, title, body, author, isFavorite)
}

func (s *notesService) UpdateNote(ctx context.Context, id, title, body string) bool {
	return s.mutate("update", id, func() error {
		return s.repo.UpdateNote(ctx, id, title, body)
	})
}

func (s *notesService) ToggleFavorite(ctx context.Context, id string) bool {
	return s.mutate("toggleFavorite", id, func() error {
		return s.repo.ToggleFavorite(ctx, id)
	})
}

func (s *notesService) DeleteNote(ctx context.Context, id string) bool {
	return s.mutate("delete", id, func() error {
		return s.repo.DeleteNote(ctx, id)
	})
}

func (s *notesService) Close() {
	if s.closed.Swap(true) {
		return
	}
	s.notes.Close()
	s.logger.Info("notes service closed")
}

// mutate runs fn and turns its error into false
func (s *notesService) mutate(op, id string, fn func() error) bool {
	start := time.Now()
	var err error
	if s.closed.Load() {
		err = domain.ErrStoreClosed
	} else {
		err = fn()
	}
	s.metrics.Mutation(op, err)

	fields := []zap.Field{
		zap.String(logger.FieldAction, op),
		zap.Duration(logger.FieldDuration, time.Since(start)),
	}
	if id != "" {
		fields = append(fields, zap.String(logger.FieldNoteID, id))
	}
	if err != nil {
		s.logger.Warn("note mutation failed", append(fields, zap.Error(err))...)
		return false
	}
	s.logger.Debug("note mutation done", fields...)
	return true
}
