package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/haierkeys/fast-note-local/internal/domain"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// Display name bounds, counted in runes after trimming
const (
	UserNameMinLength = 3
	UserNameMaxLength = 30
)

var (
	userNamePattern     = regexp.MustCompile(`^[\p{L}\p{N}_\- ]+$`)
	userNameLengthRule  = fmt.Sprintf("required,min=%d,max=%d", UserNameMinLength, UserNameMaxLength)
	userNameCharsetRule = "username"
	userNameValidator   = newUserNameValidator()
)

func newUserNameValidator() *validator.Validate {
	v := validator.New()
	if err := v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return userNamePattern.MatchString(fl.Field().String())
	}); err != nil {
		panic("register username validation: " + err.Error())
	}
	return v
}

// UserNameValidation 用户名校验结果
type UserNameValidation struct {
	Trimmed   string
	Length    int
	LengthOK  bool
	CharsetOK bool
}

// Valid reports whether both checks passed
func (v UserNameValidation) Valid() bool {
	return v.LengthOK && v.CharsetOK
}

// ValidateUserName checks a display name: 3..30 letters, digits, spaces, '_' or '-'
// ValidateUserName 校验用户名
func ValidateUserName(raw string) UserNameValidation {
	trimmed := strings.TrimSpace(raw)
	return UserNameValidation{
		Trimmed:   trimmed,
		Length:    utf8.RuneCountInString(trimmed),
		LengthOK:  userNameValidator.Var(trimmed, userNameLengthRule) == nil,
		CharsetOK: userNameValidator.Var(trimmed, userNameCharsetRule) == nil,
	}
}

// SessionService 登录会话服务接口
// SessionService holds the display name being typed. Nothing is persisted until Commit.
type SessionService interface {
	// SetDraft 更新正在输入的用户名（不持久化）
	SetDraft(name string)
	// Draft 当前草稿
	Draft() string
	// Commit validates the draft and persists it as user_name
	Commit(ctx context.Context) bool
	// Logout clears the draft and the stored user_name
	Logout(ctx context.Context) bool
}

type sessionService struct {
	prefs  PreferenceService
	logger *zap.Logger

	mu    sync.Mutex
	draft string
}

// NewSessionService 创建 SessionService 实例
func NewSessionService(prefs PreferenceService, lg *zap.Logger) SessionService {
	if lg == nil {
		lg = zap.NewNop()
	}
	return &sessionService{prefs: prefs, logger: lg}
}

func (s *sessionService) SetDraft(name string) {
	s.mu.Lock()
	s.draft = name
	s.mu.Unlock()
}

func (s *sessionService) Draft() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft
}

func (s *sessionService) Commit(ctx context.Context) bool {
	v := ValidateUserName(s.Draft())
	if !v.Valid() {
		s.logger.Warn("display name rejected", zap.Error(domain.ErrInvalidUserName),
			zap.Int("length", v.Length), zap.Bool("lengthOK", v.LengthOK), zap.Bool("charsetOK", v.CharsetOK))
		return false
	}
	if err := s.prefs.SetUserName(ctx, v.Trimmed); err != nil {
		s.logger.Warn("save display name failed", zap.Error(err))
		return false
	}
	return true
}

func (s *sessionService) Logout(ctx context.Context) bool {
	s.SetDraft("")
	if err := s.prefs.SetUserName(ctx, ""); err != nil {
		s.logger.Warn("clear display name failed", zap.Error(err))
		return false
	}
	return true
}
