package view

import (
	"time"

	"github.com/gtaskall/gtaskall/internal/model"
)

// DefaultWindowDays is the window width used by the kanban, gantt and
// upcoming views.
const DefaultWindowDays = 7

// DayBucket is one day column of a window.
type DayBucket struct {
	Date  time.Time
	Tasks []model.Task
}

// Window produces exactly days consecutive day buckets starting at the
// calendar day of start. Each bucket holds the tasks due on that day; the
// first bucket is additionally prefixed with every overdue-and-incomplete
// task, so nothing actionable drops out of the board.
func Window(tasks []model.Task, start time.Time, days int) []DayBucket {
	if days <= 0 {
		days = DefaultWindowDays
	}
	first := Midnight(start)

	buckets := make([]DayBucket, days)
	for i := range buckets {
		buckets[i].Date = first.AddDate(0, 0, i)
	}

	var overdue []model.Task
	for _, t := range tasks {
		if t.Due.IsZero() {
			continue
		}
		if Midnight(t.Due.In(start.Location())).Before(first) {
			if t.State != model.StateCompleted {
				overdue = append(overdue, t)
			}
			continue
		}
		for i := range buckets {
			if t.DueOn(buckets[i].Date) {
				buckets[i].Tasks = append(buckets[i].Tasks, t)
				break
			}
		}
	}

	for i := range buckets {
		sortTasks(buckets[i].Tasks)
	}
	if len(overdue) > 0 {
		sortTasks(overdue)
		buckets[0].Tasks = append(overdue, buckets[0].Tasks...)
	}

	return buckets
}
