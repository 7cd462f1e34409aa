package client_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trackit/internal/client"
	"trackit/internal/models"
	"trackit/testutil"
)

func newServer(t *testing.T) *client.Client {
	t.Helper()
	r, _ := testutil.SetupTestRouter(t)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return client.New(srv.URL, 5*time.Second)
}

func TestClient_RegisterAndMe(t *testing.T) {
	ctx := context.Background()
	c := newServer(t)

	sess, err := c.Register(ctx, "A", "a@x.com", "secret1")
	require.NoError(t, err)
	assert.True(t, sess.LoggedIn())
	assert.Equal(t, c.BaseURL(), sess.ServerURL)
	assert.Equal(t, "a@x.com", sess.User.Email)

	me, err := c.Me(ctx, sess)
	require.NoError(t, err)
	assert.Equal(t, sess.User.ID, me.ID)

	_, err = c.Register(ctx, "A", "a@x.com", "secret1")
	assert.True(t, client.IsStatus(err, http.StatusConflict), "got %v", err)
}

func TestClient_LoginFailure(t *testing.T) {
	c := newServer(t)

	_, err := c.Login(context.Background(), testutil.TestUserEmail, "wrong")
	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, "Invalid credentials", apiErr.Message)
}

func TestClient_TaskCRUD(t *testing.T) {
	ctx := context.Background()
	c := newServer(t)
	sess, err := c.Login(ctx, testutil.TestUserEmail, testutil.TestUserPassword)
	require.NoError(t, err)

	created, err := c.CreateTask(ctx, sess, models.TaskCreateRequest{Title: "Write report"})
	require.NoError(t, err)
	assert.Equal(t, models.StatusToDo, created.Status)

	desc := "details"
	updated, err := c.UpdateTask(ctx, sess, created.ID, models.TaskPatch{Description: &desc})
	require.NoError(t, err)
	assert.Equal(t, "details", updated.Description)

	moved, err := c.MoveTask(ctx, sess, created.ID, models.StatusInProgress)
	require.NoError(t, err)
	assert.Equal(t, models.StatusInProgress, moved.Status)

	got, err := c.GetTask(ctx, sess, created.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusInProgress, got.Status)

	require.NoError(t, c.DeleteTask(ctx, sess, created.ID))
	require.NoError(t, c.DeleteTask(ctx, sess, created.ID))

	tasks, err := c.ListTasks(ctx, sess)
	require.NoError(t, err)
	assert.Empty(t, tasks)

	_, err = c.GetTask(ctx, sess, created.ID)
	assert.True(t, client.IsStatus(err, http.StatusNotFound))
}

func TestClient_UsesSessionServer(t *testing.T) {
	ctx := context.Background()
	c := newServer(t)
	sess, err := c.Login(ctx, testutil.TestUserEmail, testutil.TestUserPassword)
	require.NoError(t, err)

	// 接続先の設定が変わってもトークンは発行元のサーバーに送る
	other := client.New("http://127.0.0.1:1", 5*time.Second)
	assert.Equal(t, c.BaseURL(), other.ServerFor(sess))
	me, err := other.Me(ctx, sess)
	require.NoError(t, err)
	assert.Equal(t, testutil.TestUserEmail, me.Email)

	sess.ServerURL = ""
	assert.Equal(t, "http://127.0.0.1:1", other.ServerFor(sess))
	_, err = other.Me(ctx, sess)
	assert.Error(t, err)
}

func TestClient_RequiresSession(t *testing.T) {
	c := newServer(t)

	_, err := c.ListTasks(context.Background(), client.Session{})
	assert.ErrorIs(t, err, client.ErrNotLoggedIn)

	_, err = c.ListTasks(context.Background(), client.Session{Token: "bogus"})
	assert.True(t, client.IsStatus(err, http.StatusUnauthorized))
}

func TestClient_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	t.Cleanup(srv.Close)

	c := client.New(srv.URL, 50*time.Millisecond)
	_, err := c.ListTasks(context.Background(), client.Session{Token: "t"})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSessionStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.toml")
	store, err := client.NewSessionStore(path)
	require.NoError(t, err)

	_, err = store.Load()
	assert.ErrorIs(t, err, client.ErrNoSession)

	sess := client.Session{
		ServerURL: "http://localhost:5000",
		Token:     "abc",
		User:      client.SessionUser{ID: "1", Name: "A", Email: "a@x.com"},
	}
	require.NoError(t, store.Save(sess))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, sess, loaded)

	overridden, err := store.Resolve("from-env")
	require.NoError(t, err)
	assert.Equal(t, "from-env", overridden.Token)
	assert.Empty(t, overridden.ServerURL)
	assert.Equal(t, "a@x.com", overridden.User.Email)

	require.NoError(t, store.Clear())
	require.NoError(t, store.Clear())
	_, err = store.Resolve("")
	assert.ErrorIs(t, err, client.ErrNoSession)
}
