package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseStatus(t *testing.T) {
	cases := map[string]TaskStatus{
		"todo":        StatusToDo,
		"To Do":       StatusToDo,
		"InProgress":  StatusInProgress,
		"in progress": StatusInProgress,
		" DONE ":      StatusDone,
	}
	for in, want := range cases {
		got, ok := ParseStatus(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}

	got, ok := ParseStatus(" Archived ")
	assert.False(t, ok)
	assert.Equal(t, TaskStatus("Archived"), got)
}

func TestTaskPatchEmpty(t *testing.T) {
	assert.True(t, TaskPatch{}.Empty())
	title := "x"
	assert.False(t, TaskPatch{Title: &title}.Empty())
}

func TestStatusLabel(t *testing.T) {
	assert.Equal(t, "In Progress", StatusInProgress.Label())
	assert.Equal(t, "Archived", TaskStatus("Archived").Label())
	assert.False(t, TaskStatus("Archived").Valid())
}
