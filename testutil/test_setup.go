// Package testutil はHTTPハンドラーのテスト用ヘルパーです。
package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"trackit/internal/models"
	"trackit/internal/repositories"
	"trackit/internal/repositories/memstore"
	"trackit/internal/routes"
)

// TestJWTSecret はテスト用ルーターの署名鍵です。
const TestJWTSecret = "test-secret"

// Default test user
const (
	TestUserName     = "normal_user"
	TestUserEmail    = "normal_user@example.com"
	TestUserPassword = "password123"
)

// SetupTestRouter はメモリストアを使うテスト用のGinルーターを作成し、テストユーザーを登録します。
func SetupTestRouter(t *testing.T) (*gin.Engine, *repositories.Store) {
	t.Helper()
	return SetupTestRouterWithOptions(t, routes.Options{})
}

// SetupTestRouterWithOptions はOptionsを指定してテスト用ルーターを作成します。
// JWTSecretとJWTExpiryが空ならテスト用の値を使います。
func SetupTestRouterWithOptions(t *testing.T, opts routes.Options) (*gin.Engine, *repositories.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log.SetOutput(io.Discard)

	if opts.JWTSecret == "" {
		opts.JWTSecret = TestJWTSecret
	}
	if opts.JWTExpiry == 0 {
		opts.JWTExpiry = time.Hour
	}

	store := memstore.New()
	r := routes.SetupRouter(store, opts)
	CreateTestUser(t, store.Users, TestUserName, TestUserEmail, TestUserPassword)
	return r, store
}

// CreateTestUser はストアに直接ユーザーを作成します。
func CreateTestUser(t *testing.T, userRepo repositories.UserRepository, name, email, password string) *models.User {
	t.Helper()
	hashedPassword, err := repositories.HashPassword(password)
	require.NoError(t, err)

	createdUser, err := userRepo.Create(context.Background(), &models.User{
		Name:         name,
		Email:        email,
		PasswordHash: hashedPassword,
	})
	require.NoError(t, err)
	require.NotEmpty(t, createdUser.ID)
	return createdUser
}

// DoJSON はJSONボディ付きのリクエストをルーターに送ります。tokenが空ならAuthorizationを付けません。
func DoJSON(t *testing.T, router http.Handler, method, path, token string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewBuffer(b)
	}

	req, err := http.NewRequest(method, path, body)
	require.NoError(t, err)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// CreateTestTask はAPI経由でタスクを作成します。
func CreateTestTask(t *testing.T, router http.Handler, token, title string) *models.Task {
	t.Helper()
	resp := DoJSON(t, router, http.MethodPost, "/api/tasks", token, map[string]string{"title": title})
	require.Equal(t, http.StatusCreated, resp.Code, "タスク作成に失敗しました: %s", resp.Body.String())

	var created models.Task
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &created))
	return &created
}

// LoginAndGetToken はログインしてトークンを返します。
func LoginAndGetToken(t *testing.T, router http.Handler, email, password string) (string, error) {
	t.Helper()
	resp := DoJSON(t, router, http.MethodPost, "/api/users/login", "", map[string]string{
		"email":    email,
		"password": password,
	})
	if resp.Code != http.StatusOK {
		return "", fmt.Errorf("login failed with status %d: %s", resp.Code, resp.Body.String())
	}

	var loginRes models.AuthResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &loginRes); err != nil {
		return "", fmt.Errorf("failed to unmarshal login response: %w", err)
	}
	if loginRes.Token == "" {
		return "", errors.New("token not found in login response")
	}
	return loginRes.Token, nil
}
