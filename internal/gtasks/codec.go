package gtasks

import (
	"fmt"
	"strings"
	"time"

	"github.com/gtaskall/gtaskall/internal/model"
)

// The remote store has no fields for start date, color, in-progress or
// recurring flags, so they ride along as marker lines appended to the
// free-text notes. The markers never leave this file: everything above the
// client works with the typed fields on model.Task.
const (
	markerPrefix     = "[gtaskall:"
	markerSuffix     = "]"
	markerStart      = "start"
	markerColor      = "color"
	markerInProgress = "in-progress"
	markerRecurring  = "recurring"

	startDateLayout = "2006-01-02"
)

// noteMeta is the structured metadata carried inside the notes field.
type noteMeta struct {
	Start      time.Time
	Color      string
	InProgress bool
	Recurring  bool
}

// decodeNotes splits the raw remote notes into the visible note body and
// the decoded metadata. Marker lines are removed wherever they appear;
// unknown gtaskall markers are dropped rather than kept as text.
func decodeNotes(raw string) (string, noteMeta) {
	var meta noteMeta
	if raw == "" {
		return "", meta
	}

	var kept []string
	for _, line := range strings.Split(raw, "\n") {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, markerPrefix) || !strings.HasSuffix(trimmed, markerSuffix) {
			kept = append(kept, line)
			continue
		}

		body := strings.TrimSuffix(strings.TrimPrefix(trimmed, markerPrefix), markerSuffix)
		key, value, _ := strings.Cut(body, "=")
		switch key {
		case markerStart:
			if t, err := time.Parse(startDateLayout, value); err == nil {
				meta.Start = t
			}
		case markerColor:
			meta.Color = value
		case markerInProgress:
			meta.InProgress = true
		case markerRecurring:
			meta.Recurring = true
		}
	}

	return strings.TrimRight(strings.Join(kept, "\n"), "\n"), meta
}

// encodeNotes renders the note body plus metadata back into the remote
// wire form, one marker per line at the end of the notes.
func encodeNotes(notes string, meta noteMeta) string {
	var markers []string
	if !meta.Start.IsZero() {
		markers = append(markers, marker(markerStart, meta.Start.Format(startDateLayout)))
	}
	if meta.Color != "" {
		markers = append(markers, marker(markerColor, meta.Color))
	}
	if meta.InProgress {
		markers = append(markers, markerPrefix+markerInProgress+markerSuffix)
	}
	if meta.Recurring {
		markers = append(markers, markerPrefix+markerRecurring+markerSuffix)
	}

	if len(markers) == 0 {
		return notes
	}
	if notes == "" {
		return strings.Join(markers, "\n")
	}
	return notes + "\n" + strings.Join(markers, "\n")
}

func marker(key, value string) string {
	return fmt.Sprintf("%s%s=%s%s", markerPrefix, key, value, markerSuffix)
}

// metaFor extracts the wire metadata from a local task.
func metaFor(t model.Task) noteMeta {
	return noteMeta{
		Start:      t.Start,
		Color:      t.Color,
		InProgress: t.State == model.StateInProgress,
		Recurring:  t.Recurring,
	}
}
