package gtasks

import (
	"time"

	tasks "google.golang.org/api/tasks/v1"

	"github.com/gtaskall/gtaskall/internal/model"
)

// Remote status values of the Google Tasks API.
const (
	statusNeedsAction = "needsAction"
	statusCompleted   = "completed"
)

// toTaskList converts an API task list to the local type.
func toTaskList(tl *tasks.TaskList) model.TaskList {
	if tl == nil {
		return model.TaskList{}
	}
	return model.TaskList{
		ID:    tl.Id,
		Title: tl.Title,
	}
}

// toTask converts an API task to the local type, decoding the notes
// side-channel and deriving the tri-state from the two remote fields.
func toTask(t *tasks.Task, listID string) model.Task {
	if t == nil {
		return model.Task{}
	}

	notes, meta := decodeNotes(t.Notes)

	result := model.Task{
		ID:        t.Id,
		ListID:    listID,
		Title:     t.Title,
		Notes:     notes,
		Start:     meta.Start,
		Color:     meta.Color,
		Recurring: meta.Recurring,
	}

	if t.Due != "" {
		if due, err := time.Parse(time.RFC3339, t.Due); err == nil {
			result.Due = due
		}
	}
	if t.Completed != nil && *t.Completed != "" {
		if completed, err := time.Parse(time.RFC3339, *t.Completed); err == nil {
			result.Completed = completed
		}
	}

	switch {
	case t.Status == statusCompleted || !result.Completed.IsZero():
		result.State = model.StateCompleted
	case meta.InProgress:
		result.State = model.StateInProgress
	default:
		result.State = model.StateTodo
	}

	return result
}

// toAPITask converts a local task into the remote wire form: tri-state
// folded back into status plus notes marker, metadata re-encoded into the
// notes field.
func toAPITask(t model.Task) *tasks.Task {
	api := &tasks.Task{
		Id:    t.ID,
		Title: t.Title,
		Notes: encodeNotes(t.Notes, metaFor(t)),
	}

	if t.State == model.StateCompleted {
		api.Status = statusCompleted
		completed := t.Completed
		if completed.IsZero() {
			completed = time.Now()
		}
		s := completed.Format(time.RFC3339)
		api.Completed = &s
	} else {
		api.Status = statusNeedsAction
		// Clearing completion requires an explicit null on the wire.
		api.Completed = nil
		api.NullFields = append(api.NullFields, "Completed")
	}

	if !t.Due.IsZero() {
		api.Due = t.Due.Format(time.RFC3339)
	} else {
		api.NullFields = append(api.NullFields, "Due")
	}

	return api
}
