// Package services はTrackItのビジネスロジックを扱います。
package services

import "errors"

var (
	// ErrValidation は入力値が不正な場合のエラーです。
	ErrValidation = errors.New("validation failed")
	// ErrInvalidCredentials はメールアドレスかパスワードが一致しない場合のエラーです。
	ErrInvalidCredentials = errors.New("invalid credentials")
)
