package board

import (
	"context"
	"errors"

	"trackit/internal/models"
)

// ErrNotDragging はドラッグ中でないのにDropした場合のエラーです。
var ErrNotDragging = errors.New("no task is being dragged")

// Mover はドラッグ結果の移動先です。Boardが実装します。
type Mover interface {
	Task(id string) (*models.Task, bool)
	Move(ctx context.Context, id string, status models.TaskStatus) error
}

// DragController は列間のドラッグ＆ドロップを移動操作に変換します。列IDはステータス文字列です。
type DragController struct {
	mover  Mover
	taskID string
	source models.TaskStatus
	active bool
}

// NewDragController は新しいDragControllerを作成します。
func NewDragController(mover Mover) *DragController {
	return &DragController{mover: mover}
}

// Pick はタスクを持ち上げ、元の列を記録します。
func (d *DragController) Pick(taskID string) error {
	t, ok := d.mover.Task(taskID)
	if !ok {
		return ErrUnknownTask
	}
	d.taskID = taskID
	d.source = t.Status
	d.active = true
	return nil
}

// Dragging はドラッグ中のタスクIDと元の列を返します。
func (d *DragController) Dragging() (string, models.TaskStatus, bool) {
	return d.taskID, d.source, d.active
}

// Cancel はドラッグを中止します。
func (d *DragController) Cancel() {
	d.taskID = ""
	d.source = ""
	d.active = false
}

// Release はドラッグを終了し、移動が必要ならタスクIDを返します。
// 元の列と同じ列に落とした場合は移動しません。
func (d *DragController) Release(target models.TaskStatus) (string, bool, error) {
	if !d.active {
		return "", false, ErrNotDragging
	}
	id, source := d.taskID, d.source
	d.Cancel()
	if target == source {
		return id, false, nil
	}
	return id, true, nil
}

// Drop はtargetの列に落とし、元の列と異なる場合だけ一度Moveを呼びます。
func (d *DragController) Drop(ctx context.Context, target models.TaskStatus) (bool, error) {
	id, move, err := d.Release(target)
	if err != nil || !move {
		return false, err
	}
	return true, d.mover.Move(ctx, id, target)
}
