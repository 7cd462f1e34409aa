// Package models はTrackItのドメインモデルを定義します。
package models

import (
	"strings"
	"time"
)

// TaskStatus はタスクのステータス（ボードの列）です。
type TaskStatus string

const (
	StatusToDo       TaskStatus = "ToDo"
	StatusInProgress TaskStatus = "InProgress"
	StatusDone       TaskStatus = "Done"
)

// Statuses はボードに表示する列の順序です。
var Statuses = []TaskStatus{StatusToDo, StatusInProgress, StatusDone}

// Valid はステータスが3つの列のいずれかであるかを返します。
func (s TaskStatus) Valid() bool {
	switch s {
	case StatusToDo, StatusInProgress, StatusDone:
		return true
	}
	return false
}

// Label は画面表示用の名前を返します。
func (s TaskStatus) Label() string {
	switch s {
	case StatusToDo:
		return "To Do"
	case StatusInProgress:
		return "In Progress"
	case StatusDone:
		return "Done"
	}
	return string(s)
}

// ParseStatus は "todo" や "In Progress" のような表記をステータスに変換します。
func ParseStatus(s string) (TaskStatus, bool) {
	key := strings.ToLower(strings.Join(strings.Fields(s), ""))
	for _, st := range Statuses {
		if key == strings.ToLower(string(st)) {
			return st, true
		}
	}
	return TaskStatus(strings.TrimSpace(s)), false
}

// Task はカンバンボード上のタスクです。
type Task struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	AssignedTo  string     `json:"assignedTo"`
	Status      TaskStatus `json:"status"`
	CreatedBy   string     `json:"createdBy"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// Clone はタスクのコピーを返します。
func (t *Task) Clone() *Task {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

// TaskCreateRequest はタスク作成リクエストの構造体です。
// statusは省略可能で、省略時はToDoになります。
type TaskCreateRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	AssignedTo  string     `json:"assignedTo"`
	Status      TaskStatus `json:"status,omitempty"`
}

// TaskPatch は部分更新の内容です。nilのフィールドは既存の値を保持します。
type TaskPatch struct {
	Title       *string     `json:"title,omitempty"`
	Description *string     `json:"description,omitempty"`
	AssignedTo  *string     `json:"assignedTo,omitempty"`
	Status      *TaskStatus `json:"status,omitempty"`
}

// Empty は更新対象のフィールドが一つもないかを返します。
func (p TaskPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.AssignedTo == nil && p.Status == nil
}

// TaskMoveRequest はステータス移動リクエストの構造体です。
type TaskMoveRequest struct {
	Status TaskStatus `json:"status" binding:"required"`
}
