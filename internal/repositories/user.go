package repositories

import (
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt" // パスワードのハッシュ化用
)

// HashPassword は与えられたパスワードをbcryptでハッシュ化します。
func HashPassword(password string) (string, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashedPassword), nil
}

// VerifyPassword はハッシュ化されたパスワードと平文のパスワードを比較します。
func VerifyPassword(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}

// NormalizeEmail は保存と検索に使うメールアドレスの正規形を返します。
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
