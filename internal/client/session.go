package client

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// ErrNoSession はセッションファイルが存在しない場合のエラーです。
var ErrNoSession = errors.New("no saved session")

// SessionUser はログイン中のユーザーです。
type SessionUser struct {
	ID    string `toml:"id"`
	Name  string `toml:"name"`
	Email string `toml:"email"`
}

// Session はサーバーURLとトークンの組です。
type Session struct {
	ServerURL string      `toml:"server_url"`
	Token     string      `toml:"token"`
	User      SessionUser `toml:"user"`
}

// LoggedIn はトークンを持っているかを返します。
func (s Session) LoggedIn() bool { return s.Token != "" }

// SessionStore はセッションをTOMLファイルに保存します。
type SessionStore struct {
	Path string
}

// DefaultSessionPath は ~/.trackit/session.toml を返します。
func DefaultSessionPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".trackit", "session.toml"), nil
}

// NewSessionStore はpathが空なら既定のパスを使うSessionStoreを作成します。
func NewSessionStore(path string) (*SessionStore, error) {
	if path == "" {
		p, err := DefaultSessionPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	return &SessionStore{Path: path}, nil
}

// Load は保存されたセッションを読み込みます。
func (s *SessionStore) Load() (Session, error) {
	var sess Session
	if _, err := toml.DecodeFile(s.Path, &sess); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Session{}, ErrNoSession
		}
		return Session{}, fmt.Errorf("read session %s: %w", s.Path, err)
	}
	return sess, nil
}

// Save はセッションを所有者のみ読み書きできるファイルに書き込みます。
func (s *SessionStore) Save(sess Session) error {
	if err := os.MkdirAll(filepath.Dir(s.Path), 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(sess); err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := os.WriteFile(s.Path, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("write session %s: %w", s.Path, err)
	}
	return os.Chmod(s.Path, 0o600)
}

// Clear はセッションファイルを削除します。存在しなくてもエラーにしません。
func (s *SessionStore) Clear() error {
	if err := os.Remove(s.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove session %s: %w", s.Path, err)
	}
	return nil
}

// Resolve は保存されたセッションを読み、tokenが指定されていればそれで上書きします。
// 上書きしたトークンは設定された接続先に送ります。
func (s *SessionStore) Resolve(token string) (Session, error) {
	sess, err := s.Load()
	if err != nil && !errors.Is(err, ErrNoSession) {
		return Session{}, err
	}
	if token != "" {
		sess.Token = token
		sess.ServerURL = ""
	}
	if !sess.LoggedIn() {
		return Session{}, ErrNoSession
	}
	return sess, nil
}
