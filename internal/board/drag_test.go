package board_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trackit/internal/board"
	"trackit/internal/models"
)

func moveCalls(api *fakeAPI) []string {
	var out []string
	for _, c := range api.calls {
		if len(c) > 4 && c[:4] == "move" {
			out = append(out, c)
		}
	}
	return out
}

func TestDrag_ToDoToDoneMovesOnce(t *testing.T) {
	api := seeded()
	b := loadedBoard(t, api)
	drag := board.NewDragController(b)

	require.NoError(t, drag.Pick("1"))
	id, source, active := drag.Dragging()
	assert.Equal(t, "1", id)
	assert.Equal(t, models.StatusToDo, source)
	assert.True(t, active)

	moved, err := drag.Drop(context.Background(), models.StatusDone)
	require.NoError(t, err)
	assert.True(t, moved)
	assert.Equal(t, []string{"move 1 Done"}, moveCalls(api))

	task, _ := b.Task("1")
	assert.Equal(t, models.StatusDone, task.Status)
	_, _, active = drag.Dragging()
	assert.False(t, active)
}

func TestDrag_ServerFailureReturnsTaskToSource(t *testing.T) {
	api := seeded()
	b := loadedBoard(t, api)
	drag := board.NewDragController(b)

	require.NoError(t, drag.Pick("1"))
	api.fail = errServer
	moved, err := drag.Drop(context.Background(), models.StatusDone)
	assert.True(t, moved)
	assert.ErrorIs(t, err, errServer)
	assert.Equal(t, []string{"move 1 Done"}, moveCalls(api))

	task, _ := b.Task("1")
	assert.Equal(t, models.StatusToDo, task.Status)
	assertPartition(t, b)
}

func TestDrag_SameColumnDoesNothing(t *testing.T) {
	api := seeded()
	b := loadedBoard(t, api)
	drag := board.NewDragController(b)

	require.NoError(t, drag.Pick("2"))
	moved, err := drag.Drop(context.Background(), models.StatusInProgress)
	require.NoError(t, err)
	assert.False(t, moved)
	assert.Empty(t, moveCalls(api))
}

func TestDrag_CancelAndErrors(t *testing.T) {
	api := seeded()
	b := loadedBoard(t, api)
	drag := board.NewDragController(b)

	assert.ErrorIs(t, drag.Pick("missing"), board.ErrUnknownTask)

	_, err := drag.Drop(context.Background(), models.StatusDone)
	assert.ErrorIs(t, err, board.ErrNotDragging)

	require.NoError(t, drag.Pick("1"))
	drag.Cancel()
	_, err = drag.Drop(context.Background(), models.StatusDone)
	assert.ErrorIs(t, err, board.ErrNotDragging)
	assert.Empty(t, moveCalls(api))
}
