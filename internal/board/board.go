// Package board はクライアント側のカンバンボードの状態を管理します。
//
// ボードはタスク一覧のローカルコピーを持ち、操作のたびにまずローカルを書き換えてから
// APIを呼びます。失敗した場合は操作前のスナップショットに戻し、エラーバナーを設定します。
package board

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"trackit/internal/models"
)

// API はボードが使うタスクAPIです。
type API interface {
	ListTasks(ctx context.Context) ([]*models.Task, error)
	CreateTask(ctx context.Context, req models.TaskCreateRequest) (*models.Task, error)
	UpdateTask(ctx context.Context, id string, patch models.TaskPatch) (*models.Task, error)
	MoveTask(ctx context.Context, id string, status models.TaskStatus) (*models.Task, error)
	DeleteTask(ctx context.Context, id string) error
}

// State はボードの状態です。
type State int

const (
	StateLoading State = iota
	StateLoaded
	StateError
	StatePending
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateLoaded:
		return "loaded"
	case StateError:
		return "error"
	case StatePending:
		return "pending"
	}
	return "unknown"
}

// Action は送信待ちの操作の種類です。
type Action string

const (
	ActionAdd    Action = "add"
	ActionEdit   Action = "edit"
	ActionDelete Action = "delete"
	ActionMove   Action = "move"
)

var (
	// ErrBusy は別の操作が送信待ちのときに返します。
	ErrBusy = errors.New("another change is still being saved")
	// ErrNotLoaded はタスク一覧を読み込む前に操作した場合のエラーです。
	ErrNotLoaded = errors.New("board is not loaded")
	// ErrUnknownTask はボードに無いタスクを操作した場合のエラーです。
	ErrUnknownTask = errors.New("task is not on the board")
	// ErrEmptyTitle はタイトルが空の場合のエラーです。
	ErrEmptyTitle = errors.New("title is required")
)

const localIDPrefix = "local-"

// Board はタスク一覧とその状態です。
type Board struct {
	api API

	mu      sync.Mutex
	state   State
	pending Action
	tasks   []*models.Task
	err     error
	seq     int
}

// New は読み込み前のボードを作成します。
func New(api API) *Board {
	return &Board{api: api, state: StateLoading}
}

// State は現在の状態と、送信待ちの操作を返します。
func (b *Board) State() (State, Action) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state, b.pending
}

// Tasks はタスク一覧のコピーを返します。
func (b *Board) Tasks() []*models.Task {
	b.mu.Lock()
	defer b.mu.Unlock()
	return cloneTasks(b.tasks)
}

// Task はIDでタスクを探します。
func (b *Board) Task(id string) (*models.Task, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if i := indexOf(b.tasks, id); i >= 0 {
		return b.tasks[i].Clone(), true
	}
	return nil, false
}

// Columns は現在のタスクを列に振り分けます。
func (b *Board) Columns() Columns {
	b.mu.Lock()
	defer b.mu.Unlock()
	return Partition(b.tasks)
}

// Err はエラーバナーの内容を返します。
func (b *Board) Err() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.err
}

// Dismiss はエラーバナーを閉じます。
func (b *Board) Dismiss() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.err = nil
}

// Load はタスク一覧を取得します。読み込み済みなら取り直し、失敗しても一覧は残します。
func (b *Board) Load(ctx context.Context) error {
	op, err := b.BeginLoad()
	if err != nil {
		return err
	}
	op.Send(ctx)
	return op.Settle()
}

// BeginLoad は読み込みを開始し、送信前のLoadOpを返します。
func (b *Board) BeginLoad() (*LoadOp, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == StatePending {
		return nil, ErrBusy
	}
	op := &LoadOp{b: b, reload: b.state == StateLoaded}
	b.state = StateLoading
	return op, nil
}

// LoadOp は送信待ちの一覧取得です。
type LoadOp struct {
	b      *Board
	reload bool
	tasks  []*models.Task
	err    error
}

// Send は一覧を取得します。ボードのロックは取りません。
func (op *LoadOp) Send(ctx context.Context) {
	op.tasks, op.err = op.b.api.ListTasks(ctx)
}

// Settle は取得結果をボードに反映します。
func (op *LoadOp) Settle() error {
	b := op.b
	b.mu.Lock()
	defer b.mu.Unlock()

	if op.err != nil {
		b.err = fmt.Errorf("failed to load tasks: %w", op.err)
		if op.reload {
			b.state = StateLoaded
		} else {
			b.state = StateError
		}
		return b.err
	}
	b.tasks = cloneTasks(op.tasks)
	b.state = StateLoaded
	b.err = nil
	return nil
}

// Add はタスクを追加します。
func (b *Board) Add(ctx context.Context, req models.TaskCreateRequest) error {
	op, err := b.BeginAdd(req)
	return b.run(ctx, op, err)
}

// Edit はタスクを編集します。
func (b *Board) Edit(ctx context.Context, id string, patch models.TaskPatch) error {
	op, err := b.BeginEdit(id, patch)
	return b.run(ctx, op, err)
}

// Delete はタスクを削除します。
func (b *Board) Delete(ctx context.Context, id string) error {
	op, err := b.BeginDelete(id)
	return b.run(ctx, op, err)
}

// Move はタスクを別の列に移動します。
func (b *Board) Move(ctx context.Context, id string, status models.TaskStatus) error {
	op, err := b.BeginMove(id, status)
	return b.run(ctx, op, err)
}

func (b *Board) run(ctx context.Context, op *Op, err error) error {
	if err != nil {
		return err
	}
	op.Send(ctx)
	return op.Settle()
}

// BeginAdd は仮IDのタスクをToDo列に追加し、作成リクエストを用意します。
func (b *Board) BeginAdd(req models.TaskCreateRequest) (*Op, error) {
	if strings.TrimSpace(req.Title) == "" {
		return nil, ErrEmptyTitle
	}
	var localID string
	return b.begin(mutation{
		action: ActionAdd,
		apply: func(tasks []*models.Task) ([]*models.Task, error) {
			b.seq++
			localID = localIDPrefix + strconv.Itoa(b.seq)
			status := req.Status
			if status == "" {
				status = models.StatusToDo
			}
			return append(tasks, &models.Task{
				ID:          localID,
				Title:       req.Title,
				Description: req.Description,
				AssignedTo:  req.AssignedTo,
				Status:      status,
			}), nil
		},
		send: func(ctx context.Context) (*models.Task, error) {
			return b.api.CreateTask(ctx, req)
		},
		reconcile: func(tasks []*models.Task, server *models.Task) []*models.Task {
			return replace(tasks, localID, server)
		},
	})
}

// BeginEdit はパッチをローカルに適用し、更新リクエストを用意します。
func (b *Board) BeginEdit(id string, patch models.TaskPatch) (*Op, error) {
	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		return nil, ErrEmptyTitle
	}
	return b.begin(mutation{
		action: ActionEdit,
		apply: func(tasks []*models.Task) ([]*models.Task, error) {
			i := indexOf(tasks, id)
			if i < 0 {
				return nil, ErrUnknownTask
			}
			applyPatch(tasks[i], patch)
			return tasks, nil
		},
		send: func(ctx context.Context) (*models.Task, error) {
			return b.api.UpdateTask(ctx, id, patch)
		},
		reconcile: func(tasks []*models.Task, server *models.Task) []*models.Task {
			return replace(tasks, id, server)
		},
	})
}

// BeginDelete はタスクをローカルから取り除き、削除リクエストを用意します。
func (b *Board) BeginDelete(id string) (*Op, error) {
	return b.begin(mutation{
		action: ActionDelete,
		apply: func(tasks []*models.Task) ([]*models.Task, error) {
			i := indexOf(tasks, id)
			if i < 0 {
				return nil, ErrUnknownTask
			}
			return append(tasks[:i], tasks[i+1:]...), nil
		},
		send: func(ctx context.Context) (*models.Task, error) {
			return nil, b.api.DeleteTask(ctx, id)
		},
	})
}

// BeginMove はステータスをローカルで変更し、移動リクエストを用意します。
// 成功時もローカルの値をそのまま使います。
func (b *Board) BeginMove(id string, status models.TaskStatus) (*Op, error) {
	return b.begin(mutation{
		action: ActionMove,
		apply: func(tasks []*models.Task) ([]*models.Task, error) {
			i := indexOf(tasks, id)
			if i < 0 {
				return nil, ErrUnknownTask
			}
			tasks[i].Status = status
			return tasks, nil
		},
		send: func(ctx context.Context) (*models.Task, error) {
			return b.api.MoveTask(ctx, id, status)
		},
	})
}

func applyPatch(t *models.Task, p models.TaskPatch) {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.AssignedTo != nil {
		t.AssignedTo = *p.AssignedTo
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
}

func indexOf(tasks []*models.Task, id string) int {
	for i, t := range tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func replace(tasks []*models.Task, id string, server *models.Task) []*models.Task {
	if i := indexOf(tasks, id); i >= 0 {
		tasks[i] = server.Clone()
	}
	return tasks
}

func cloneTasks(tasks []*models.Task) []*models.Task {
	out := make([]*models.Task, len(tasks))
	for i, t := range tasks {
		out[i] = t.Clone()
	}
	return out
}
