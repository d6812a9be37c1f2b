package view

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gtaskall/gtaskall/internal/model"
)

func TestWindowSevenDaysFromFixedDate(t *testing.T) {
	start := time.Date(2024, 3, 20, 8, 15, 0, 0, time.UTC)

	tasks := []model.Task{
		task("today", day(0), model.StateTodo),
		task("mid", day(3), model.StateTodo),
		task("last", day(6), model.StateTodo),
		task("past-window", day(7), model.StateTodo),
		task("overdue", day(-2), model.StateTodo),
		task("overdue-done", day(-2), model.StateCompleted),
		task("dateless", time.Time{}, model.StateTodo),
	}

	window := Window(tasks, start, 7)
	require.Len(t, window, 7)

	// Buckets run 2024-03-20 through 2024-03-26 inclusive, in order.
	for i, bucket := range window {
		expected := time.Date(2024, 3, 20+i, 0, 0, 0, 0, time.UTC)
		assert.True(t, bucket.Date.Equal(expected), "bucket %d date %v", i, bucket.Date)
	}

	// First bucket: overdue-and-incomplete tasks prepended before today's.
	require.Len(t, window[0].Tasks, 2)
	assert.Equal(t, "overdue", window[0].Tasks[0].ID)
	assert.Equal(t, "today", window[0].Tasks[1].ID)

	assert.Len(t, window[3].Tasks, 1)
	assert.Equal(t, "mid", window[3].Tasks[0].ID)
	assert.Equal(t, "last", window[6].Tasks[0].ID)

	// Outside the window or without a due date: nowhere in the board.
	for _, bucket := range window {
		for _, tk := range bucket.Tasks {
			assert.NotEqual(t, "past-window", tk.ID)
			assert.NotEqual(t, "dateless", tk.ID)
			assert.NotEqual(t, "overdue-done", tk.ID, "completed overdue tasks stay off the board")
		}
	}
}

func TestWindowDefaultsDays(t *testing.T) {
	window := Window(nil, now, 0)
	assert.Len(t, window, DefaultWindowDays)
}

func TestWindowSingleDay(t *testing.T) {
	window := Window([]model.Task{task("a", day(0), model.StateTodo)}, now, 1)
	require.Len(t, window, 1)
	require.Len(t, window[0].Tasks, 1)
	assert.Equal(t, "a", window[0].Tasks[0].ID)
}
