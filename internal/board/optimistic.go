package board

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"trackit/internal/models"
)

// mutation はローカル適用、送信、成功時の反映の組です。
type mutation struct {
	action    Action
	apply     func(tasks []*models.Task) ([]*models.Task, error)
	send      func(ctx context.Context) (*models.Task, error)
	reconcile func(tasks []*models.Task, server *models.Task) []*models.Task
}

// Op はローカルに適用済みで、サーバーへの送信を待っている操作です。
// Sendはボードのロックを取らないので、別のgoroutineから呼べます。
type Op struct {
	b        *Board
	m        mutation
	snapshot []*models.Task

	server *models.Task
	err    error
	sent   bool
}

// Action は操作の種類を返します。
func (op *Op) Action() Action { return op.m.action }

// Send はAPIを呼びます。
func (op *Op) Send(ctx context.Context) {
	op.server, op.err = op.m.send(ctx)
	op.sent = true
}

// Settle は送信結果をボードに反映します。失敗ならスナップショットに戻します。
func (op *Op) Settle() error {
	return op.b.settle(op)
}

// begin はスナップショットを取り、ローカルの一覧に変更を適用します。
func (b *Board) begin(m mutation) (*Op, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateLoaded:
	case StatePending:
		return nil, ErrBusy
	default:
		return nil, ErrNotLoaded
	}

	snapshot := cloneTasks(b.tasks)
	next, err := m.apply(cloneTasks(b.tasks))
	if err != nil {
		return nil, err
	}
	b.tasks = next
	b.state = StatePending
	b.pending = m.action
	return &Op{b: b, m: m, snapshot: snapshot}, nil
}

func (b *Board) settle(op *Op) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.state = StateLoaded
	b.pending = ""

	err := op.err
	if !op.sent {
		err = fmt.Errorf("%s was never sent", op.m.action)
	}
	if err != nil {
		b.tasks = op.snapshot
		b.err = fmt.Errorf("failed to %s task: %w", op.m.action, err)
		log.Debug("reverted optimistic change", "action", op.m.action, "err", err)
		return b.err
	}
	if op.m.reconcile != nil && op.server != nil {
		b.tasks = op.m.reconcile(b.tasks, op.server)
	}
	return nil
}
