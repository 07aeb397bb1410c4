package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fitlog/internal/db"
	"github.com/fitlog/internal/storage"
	"github.com/fitlog/internal/userdata"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const minPasswordLength = 6

var (
	// ErrInvalidCredentials 在邮箱或密码不匹配时返回
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrEmailTaken 在注册已存在的邮箱时返回
	ErrEmailTaken = errors.New("email already registered")
	// ErrInvalidEmail 在邮箱格式不合法时返回
	ErrInvalidEmail = errors.New("invalid email")
	// ErrInvalidPassword 在密码过短时返回
	ErrInvalidPassword = errors.New("password too short")
)

// AccountService 处理注册、登录与登出。
// 身份建立后立即执行一次旧数据迁移，之后才允许其他读取。
type AccountService struct {
	db      *gorm.DB
	store   storage.Store
	session *userdata.Session
	now     func() time.Time
	logger  *zap.Logger
}

// NewAccountService 构造 AccountService
func NewAccountService(gdb *gorm.DB, store storage.Store, session *userdata.Session, logger *zap.Logger) *AccountService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AccountService{db: gdb, store: store, session: session, now: time.Now, logger: logger}
}

// WithClock 替换时间来源，主要面向测试场景。
func (s *AccountService) WithClock(now func() time.Time) *AccountService {
	if now != nil {
		s.now = now
	}
	return s
}

// Signup 创建账号并建立身份
func (s *AccountService) Signup(email, password string) (*db.User, error) {
	email = db.NormalizeEmail(email)
	if !strings.Contains(email, "@") || strings.HasPrefix(email, "@") || strings.HasSuffix(email, "@") {
		return nil, ErrInvalidEmail
	}
	if len(strings.TrimSpace(password)) < minPasswordLength {
		return nil, ErrInvalidPassword
	}

	var existing db.User
	err := s.db.Where("email = ?", email).First(&existing).Error
	switch {
	case err == nil:
		return nil, ErrEmailTaken
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, fmt.Errorf("find user: %w", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(strings.TrimSpace(password)), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := db.User{Email: email, Password: string(hashed)}
	if err := s.db.Create(&user).Error; err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	if err := s.establish(email); err != nil {
		return nil, err
	}
	return &user, nil
}

// Login 校验密码并建立身份
func (s *AccountService) Login(email, password string) (*db.User, error) {
	email = db.NormalizeEmail(email)

	var user db.User
	if err := s.db.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(strings.TrimSpace(password))); err != nil {
		return nil, ErrInvalidCredentials
	}

	if err := s.establish(email); err != nil {
		return nil, err
	}
	return &user, nil
}

// Logout 清除进程级身份
func (s *AccountService) Logout() error {
	return s.session.Logout()
}

func (s *AccountService) establish(email string) error {
	if err := s.session.Login(email); err != nil {
		return fmt.Errorf("establish session: %w", err)
	}
	if _, err := userdata.MigrateLegacyData(s.store, email, s.now(), s.logger); err != nil {
		return fmt.Errorf("migrate legacy data: %w", err)
	}
	return nil
}
