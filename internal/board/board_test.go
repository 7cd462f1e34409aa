package board_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trackit/internal/board"
	"trackit/internal/models"
)

var errServer = errors.New("server unavailable")

// fakeAPI はメモリ上のAPIです。failを設定すると次の呼び出しから失敗します。
type fakeAPI struct {
	mu    sync.Mutex
	tasks []*models.Task
	seq   int
	fail  error
	calls []string
}

func (f *fakeAPI) record(call string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
	return f.fail
}

func (f *fakeAPI) ListTasks(context.Context) ([]*models.Task, error) {
	if err := f.record("list"); err != nil {
		return nil, err
	}
	out := make([]*models.Task, len(f.tasks))
	for i, t := range f.tasks {
		out[i] = t.Clone()
	}
	return out, nil
}

func (f *fakeAPI) CreateTask(_ context.Context, req models.TaskCreateRequest) (*models.Task, error) {
	if err := f.record("create"); err != nil {
		return nil, err
	}
	f.seq++
	status := req.Status
	if status == "" {
		status = models.StatusToDo
	}
	t := &models.Task{ID: fmt.Sprintf("srv-%d", f.seq), Title: req.Title, Status: status, CreatedBy: "u"}
	f.tasks = append(f.tasks, t)
	return t.Clone(), nil
}

func (f *fakeAPI) UpdateTask(_ context.Context, id string, patch models.TaskPatch) (*models.Task, error) {
	if err := f.record("update " + id); err != nil {
		return nil, err
	}
	for _, t := range f.tasks {
		if t.ID == id {
			if patch.Title != nil {
				t.Title = *patch.Title
			}
			t.AssignedTo = "server-side"
			return t.Clone(), nil
		}
	}
	return nil, errors.New("not found")
}

func (f *fakeAPI) MoveTask(_ context.Context, id string, status models.TaskStatus) (*models.Task, error) {
	if err := f.record("move " + id + " " + string(status)); err != nil {
		return nil, err
	}
	return &models.Task{ID: id, Status: status}, nil
}

func (f *fakeAPI) DeleteTask(_ context.Context, id string) error {
	return f.record("delete " + id)
}

func seeded() *fakeAPI {
	return &fakeAPI{tasks: []*models.Task{
		{ID: "1", Title: "a", Status: models.StatusToDo},
		{ID: "2", Title: "b", Status: models.StatusInProgress},
		{ID: "3", Title: "c", Status: models.StatusDone},
	}}
}

func loadedBoard(t *testing.T, api *fakeAPI) *board.Board {
	t.Helper()
	b := board.New(api)
	require.NoError(t, b.Load(context.Background()))
	assertPartition(t, b)
	return b
}

// assertPartition は列が互いに素で、和が有効なステータスのタスク全体になることを確認します。
func assertPartition(t *testing.T, b *board.Board) {
	t.Helper()
	tasks := b.Tasks()
	cols := b.Columns()

	seen := map[string]models.TaskStatus{}
	for _, s := range models.Statuses {
		for _, task := range cols.Column(s) {
			prev, dup := seen[task.ID]
			require.False(t, dup, "task %s in both %s and %s", task.ID, prev, s)
			assert.Equal(t, s, task.Status)
			seen[task.ID] = s
		}
	}
	valid := 0
	for _, task := range tasks {
		if task.Status.Valid() {
			valid++
			assert.Contains(t, seen, task.ID)
		}
	}
	assert.Len(t, seen, valid)
	assert.Len(t, cols.Orphans, len(tasks)-valid)
}

func TestLoad(t *testing.T) {
	api := seeded()
	b := board.New(api)
	state, _ := b.State()
	assert.Equal(t, board.StateLoading, state)

	require.NoError(t, b.Load(context.Background()))
	state, _ = b.State()
	assert.Equal(t, board.StateLoaded, state)
	assert.Len(t, b.Tasks(), 3)
	assertPartition(t, b)
}

func TestLoad_Failure(t *testing.T) {
	api := seeded()
	api.fail = errServer
	b := board.New(api)

	err := b.Load(context.Background())
	assert.ErrorIs(t, err, errServer)
	state, _ := b.State()
	assert.Equal(t, board.StateError, state)

	_, err = b.BeginMove("1", models.StatusDone)
	assert.ErrorIs(t, err, board.ErrNotLoaded)
}

func TestLoad_ReloadFailureKeepsTasks(t *testing.T) {
	api := seeded()
	b := loadedBoard(t, api)

	api.fail = errServer
	assert.ErrorIs(t, b.Load(context.Background()), errServer)
	state, _ := b.State()
	assert.Equal(t, board.StateLoaded, state)
	assert.Len(t, b.Tasks(), 3)
	assert.Error(t, b.Err())

	b.Dismiss()
	assert.NoError(t, b.Err())
}

func TestAdd_ReconcilesWithServerTask(t *testing.T) {
	api := seeded()
	b := loadedBoard(t, api)

	op, err := b.BeginAdd(models.TaskCreateRequest{Title: "new"})
	require.NoError(t, err)
	state, action := b.State()
	assert.Equal(t, board.StatePending, state)
	assert.Equal(t, board.ActionAdd, action)

	todo := b.Columns().Column(models.StatusToDo)
	require.Len(t, todo, 2)
	assert.Equal(t, "new", todo[1].Title)
	assertPartition(t, b)

	op.Send(context.Background())
	require.NoError(t, op.Settle())

	tasks := b.Tasks()
	require.Len(t, tasks, 4)
	assert.Equal(t, "srv-1", tasks[3].ID)
	assert.Equal(t, "u", tasks[3].CreatedBy)
	assertPartition(t, b)
}

func TestAdd_EmptyTitle(t *testing.T) {
	api := seeded()
	b := loadedBoard(t, api)

	assert.ErrorIs(t, b.Add(context.Background(), models.TaskCreateRequest{Title: " "}), board.ErrEmptyTitle)
	assert.Equal(t, []string{"list"}, api.calls)
}

func TestEdit_ReplacesWithServerTask(t *testing.T) {
	api := seeded()
	b := loadedBoard(t, api)

	title := "renamed"
	require.NoError(t, b.Edit(context.Background(), "2", models.TaskPatch{Title: &title}))

	task, ok := b.Task("2")
	require.True(t, ok)
	assert.Equal(t, "renamed", task.Title)
	assert.Equal(t, "server-side", task.AssignedTo)
}

func TestFailedMutationsRestoreSnapshot(t *testing.T) {
	title := "renamed"
	cases := map[string]func(b *board.Board) error{
		"add":    func(b *board.Board) error { return b.Add(context.Background(), models.TaskCreateRequest{Title: "x"}) },
		"edit":   func(b *board.Board) error { return b.Edit(context.Background(), "1", models.TaskPatch{Title: &title}) },
		"delete": func(b *board.Board) error { return b.Delete(context.Background(), "2") },
		"move":   func(b *board.Board) error { return b.Move(context.Background(), "3", models.StatusToDo) },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			api := seeded()
			b := loadedBoard(t, api)
			before := b.Tasks()

			api.fail = errServer
			err := mutate(b)
			assert.ErrorIs(t, err, errServer)
			assert.Equal(t, before, b.Tasks())
			assert.ErrorIs(t, b.Err(), errServer)
			state, _ := b.State()
			assert.Equal(t, board.StateLoaded, state)
			assertPartition(t, b)
		})
	}
}

func TestDelete(t *testing.T) {
	api := seeded()
	b := loadedBoard(t, api)

	require.NoError(t, b.Delete(context.Background(), "2"))
	_, ok := b.Task("2")
	assert.False(t, ok)
	assert.Empty(t, b.Columns().Column(models.StatusInProgress))

	assert.ErrorIs(t, b.Delete(context.Background(), "2"), board.ErrUnknownTask)
}

func TestMove_KeepsLocalValue(t *testing.T) {
	api := seeded()
	b := loadedBoard(t, api)

	require.NoError(t, b.Move(context.Background(), "1", models.StatusDone))
	task, ok := b.Task("1")
	require.True(t, ok)
	assert.Equal(t, "a", task.Title)
	assert.Equal(t, models.StatusDone, task.Status)
	assert.Len(t, b.Columns().Column(models.StatusDone), 2)
	assertPartition(t, b)
}

func TestMove_UnknownStatusIsOrphan(t *testing.T) {
	api := seeded()
	b := loadedBoard(t, api)

	require.NoError(t, b.Move(context.Background(), "1", "Archived"))
	cols := b.Columns()
	require.Len(t, cols.Orphans, 1)
	assert.Equal(t, "1", cols.Orphans[0].ID)
	assertPartition(t, b)
}

func TestBusyWhilePending(t *testing.T) {
	api := seeded()
	b := loadedBoard(t, api)

	op, err := b.BeginMove("1", models.StatusDone)
	require.NoError(t, err)

	_, err = b.BeginDelete("2")
	assert.ErrorIs(t, err, board.ErrBusy)
	_, err = b.BeginLoad()
	assert.ErrorIs(t, err, board.ErrBusy)

	op.Send(context.Background())
	require.NoError(t, op.Settle())
	_, err = b.BeginDelete("2")
	assert.NoError(t, err)
}
