package model

import (
	"fmt"
	"time"
)

// State is the local tri-state of a task. It is derived from the two
// remote-visible fields (status and the in-progress notes marker) and is
// never stored remotely as-is.
type State int

const (
	StateTodo State = iota
	StateInProgress
	StateCompleted
)

// String returns the stable textual form used for storage and logging.
func (s State) String() string {
	switch s {
	case StateInProgress:
		return "in-progress"
	case StateCompleted:
		return "completed"
	default:
		return "todo"
	}
}

// ParseState converts the stored textual form back to a State.
func ParseState(s string) (State, error) {
	switch s {
	case "todo":
		return StateTodo, nil
	case "in-progress":
		return StateInProgress, nil
	case "completed":
		return StateCompleted, nil
	}
	return StateTodo, fmt.Errorf("unknown task state %q", s)
}

// TaskList represents a remote task list, tagged with its owning account.
type TaskList struct {
	ID           string
	Title        string
	AccountEmail string
}

// Task is the local representation of a remote task. Metadata that the
// remote store keeps as marker substrings in the free-text notes field
// (start date, color, in-progress flag, recurring flag) is carried here as
// explicit typed fields; translation happens only at the remote client
// boundary.
type Task struct {
	ID     string
	ListID string

	// Owning account identity, denormalized for display and grouping.
	AccountEmail   string
	AccountName    string
	AccountPicture string

	Title string
	Notes string // free text, without metadata markers

	Due       time.Time // zero when the task has no due date
	Completed time.Time // zero unless State is StateCompleted

	State State

	// Notes-side-channel metadata, decoded into real fields.
	Start     time.Time // stashed due date while a task sits in the in-progress column
	Color     string    // "#RRGGBB" or empty
	Recurring bool
}

// Key identifies a task within the merged multi-account collection.
// Remote task IDs are only unique per list.
func (t Task) Key() string {
	return t.ListID + "/" + t.ID
}

// DueOn reports whether the task's due date falls on the calendar day of
// day (compared in day's location).
func (t Task) DueOn(day time.Time) bool {
	if t.Due.IsZero() {
		return false
	}
	due := t.Due.In(day.Location())
	return due.Year() == day.Year() && due.Month() == day.Month() && due.Day() == day.Day()
}
