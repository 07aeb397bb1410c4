package db

import (
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// User 定义了用户模型，Email 同时作为数据命名空间
type User struct {
	gorm.Model
	Email    string `gorm:"unique;not null"`
	Password string `gorm:"not null"`
}

// NormalizeEmail 统一邮箱大小写与空白，保证同一账号只对应一个命名空间。
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// EnsureUser 存在性检查：若提供的邮箱与密码均非空且不存在对应账号，则创建一个 bcrypt 哈希的用户。
func EnsureUser(gdb *gorm.DB, email, password string) error {
	trimmedEmail := NormalizeEmail(email)
	trimmedPassword := strings.TrimSpace(password)
	if trimmedEmail == "" || trimmedPassword == "" {
		return nil
	}

	if gdb == nil {
		return errors.New("database not initialized")
	}

	var existing User
	if err := gdb.Where("email = ?", trimmedEmail).First(&existing).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		hashed, err := bcrypt.GenerateFromPassword([]byte(trimmedPassword), bcrypt.DefaultCost)
		if err != nil {
			return err
		}

		return gdb.Create(&User{Email: trimmedEmail, Password: string(hashed)}).Error
	}

	return nil
}
