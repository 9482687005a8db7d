package service

import (
	"context"
	"strconv"

	"github.com/haierkeys/fast-note-local/internal/domain"
	"github.com/haierkeys/fast-note-local/pkg/logger"
	"github.com/haierkeys/fast-note-local/pkg/stream"

	"go.uber.org/zap"
)

// PreferenceService 偏好设置服务接口
// PreferenceService exposes one typed stream and one setter per preference key.
// Streams fall back to the default when a key is absent or unparsable.
type PreferenceService interface {
	// UserName 用户名，默认为空
	UserName(ctx context.Context) <-chan string
	// DarkMode 深色模式，默认 false
	DarkMode(ctx context.Context) <-chan bool
	// WelcomeShown 欢迎页是否已展示，默认 false
	WelcomeShown(ctx context.Context) <-chan bool
	// SortBy 排序方式，默认按日期
	SortBy(ctx context.Context) <-chan domain.SortBy

	// Snapshot 一次性读取全部偏好
	Snapshot(ctx context.Context) (domain.Preferences, error)

	SetUserName(ctx context.Context, name string) error
	SetDarkMode(ctx context.Context, on bool) error
	SetWelcomeShown(ctx context.Context, shown bool) error
	SetSortBy(ctx context.Context, sortBy domain.SortBy) error
}

type preferenceService struct {
	repo   domain.PreferenceRepository
	logger *zap.Logger
}

// NewPreferenceService 创建 PreferenceService 实例
func NewPreferenceService(repo domain.PreferenceRepository, lg *zap.Logger) PreferenceService {
	if lg == nil {
		lg = zap.NewNop()
	}
	return &preferenceService{repo: repo, logger: lg}
}

func (s *preferenceService) UserName(ctx context.Context) <-chan string {
	return typed(ctx, s, domain.PrefUserName, s.parseString)
}

func (s *preferenceService) DarkMode(ctx context.Context) <-chan bool {
	return typed(ctx, s, domain.PrefDarkMode, s.parseBool(domain.PrefDarkMode))
}

func (s *preferenceService) WelcomeShown(ctx context.Context) <-chan bool {
	return typed(ctx, s, domain.PrefWelcomeShown, s.parseBool(domain.PrefWelcomeShown))
}

func (s *preferenceService) SortBy(ctx context.Context) <-chan domain.SortBy {
	return typed(ctx, s, domain.PrefSortBy, s.parseSortBy)
}

// typed maps raw values and drops repeats produced by parse fallbacks
func typed[T comparable](ctx context.Context, s *preferenceService, key domain.PreferenceKey, parse func(domain.PreferenceValue) T) <-chan T {
	return stream.Distinct(ctx,
		stream.Map(ctx, s.repo.Observe(ctx, key), parse),
		func(a, b T) bool { return a == b })
}

func (s *preferenceService) Snapshot(ctx context.Context) (domain.Preferences, error) {
	var p domain.Preferences
	name, err := s.repo.Get(ctx, domain.PrefUserName)
	if err != nil {
		return p, err
	}
	dark, err := s.repo.Get(ctx, domain.PrefDarkMode)
	if err != nil {
		return p, err
	}
	welcome, err := s.repo.Get(ctx, domain.PrefWelcomeShown)
	if err != nil {
		return p, err
	}
	sortBy, err := s.repo.Get(ctx, domain.PrefSortBy)
	if err != nil {
		return p, err
	}
	p.UserName = s.parseString(name)
	p.DarkMode = s.parseBool(domain.PrefDarkMode)(dark)
	p.WelcomeShown = s.parseBool(domain.PrefWelcomeShown)(welcome)
	p.SortBy = s.parseSortBy(sortBy)
	return p, nil
}

func (s *preferenceService) SetUserName(ctx context.Context, name string) error {
	return s.repo.Set(ctx, domain.PrefUserName, name)
}

func (s *preferenceService) SetDarkMode(ctx context.Context, on bool) error {
	return s.repo.Set(ctx, domain.PrefDarkMode, strconv.FormatBool(on))
}

func (s *preferenceService) SetWelcomeShown(ctx context.Context, shown bool) error {
	return s.repo.Set(ctx, domain.PrefWelcomeShown, strconv.FormatBool(shown))
}

func (s *preferenceService) SetSortBy(ctx context.Context, sortBy domain.SortBy) error {
	return s.repo.Set(ctx, domain.PrefSortBy, sortBy.String())
}

func (s *preferenceService) parseString(v domain.PreferenceValue) string {
	return v.Raw
}

func (s *preferenceService) parseBool(key domain.PreferenceKey) func(domain.PreferenceValue) bool {
	return func(v domain.PreferenceValue) bool {
		if !v.Present {
			return false
		}
		b, err := strconv.ParseBool(v.Raw)
		if err != nil {
			s.logger.Warn("preference value unparsable, using default",
				zap.String(logger.FieldKey, string(key)),
				zap.String("raw", v.Raw))
			return false
		}
		return b
	}
}

func (s *preferenceService) parseSortBy(v domain.PreferenceValue) domain.SortBy {
	if !v.Present {
		return domain.SortByDate
	}
	sortBy, ok := domain.ParseSortBy(v.Raw)
	if !ok {
		s.logger.Warn("preference value unparsable, using default",
			zap.String(logger.FieldKey, string(domain.PrefSortBy)),
			zap.String("raw", v.Raw))
	}
	return sortBy
}
