package userdata

import (
	"fmt"
	"strings"

	"github.com/fitlog/internal/storage"
	"go.uber.org/zap"
)

// Session 保存进程级的当前登录身份，对应全局键 userEmail / isLoggedIn。
// 定时任务在每次轮询时读取它来决定命名空间。
type Session struct {
	store  storage.Store
	logger *zap.Logger
}

// NewSession 构造 Session
func NewSession(store storage.Store, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{store: store, logger: logger}
}

// Identity 返回当前身份，未登录或读取失败时返回空字符串。
func (s *Session) Identity() string {
	value, found, err := s.store.Get(KeyUserEmail)
	if err != nil {
		s.logger.Warn("read session identity failed", zap.Error(err))
		return ""
	}
	if !found {
		return ""
	}
	return strings.TrimSpace(value)
}

// Scope 返回当前身份对应的命名空间。
func (s *Session) Scope() Scope {
	return NewScope(s.store, s.Identity(), s.logger)
}

// Login 记录当前身份
func (s *Session) Login(identity string) error {
	identity = strings.TrimSpace(identity)
	if identity == "" {
		return fmt.Errorf("identity is required")
	}
	if err := s.store.Set(KeyLoggedIn, "true"); err != nil {
		return fmt.Errorf("set session flag: %w", err)
	}
	if err := s.store.Set(KeyUserEmail, identity); err != nil {
		return fmt.Errorf("set session identity: %w", err)
	}
	return nil
}

// Logout 清除当前身份
func (s *Session) Logout() error {
	if err := s.store.Remove(KeyLoggedIn); err != nil {
		return fmt.Errorf("clear session flag: %w", err)
	}
	if err := s.store.Remove(KeyUserEmail); err != nil {
		return fmt.Errorf("clear session identity: %w", err)
	}
	return nil
}
