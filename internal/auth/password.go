package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// 密码长度范围。bcrypt 会忽略第 72 字节之后的内容。
const (
	MinPasswordLength = 6
	MaxPasswordLength = 72
)

// ErrPasswordLength 表示密码长度超出允许范围。
var ErrPasswordLength = errors.New("password must be between 6 and 72 bytes")

// ValidatePassword 校验注册时要求的密码长度。
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength || len(password) > MaxPasswordLength {
		return ErrPasswordLength
	}
	return nil
}

// HashPassword 使用 bcrypt 生成密码哈希。
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(bytes), nil
}

// CheckPasswordHash 校验密码是否匹配哈希。
func CheckPasswordHash(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
