package view

import (
	"sort"
	"strings"
	"time"

	"github.com/gtaskall/gtaskall/internal/model"
)

// BucketKey names a date bucket relative to "today".
type BucketKey string

const (
	BucketOverdue  BucketKey = "overdue"
	BucketToday    BucketKey = "today"
	BucketTomorrow BucketKey = "tomorrow"
	BucketThisWeek BucketKey = "this-week"
	BucketNextWeek BucketKey = "next-week"
	BucketFuture   BucketKey = "future"
	BucketNoDate   BucketKey = "no-date"
)

// BucketOrder is the display order of the date buckets.
var BucketOrder = []BucketKey{
	BucketOverdue,
	BucketToday,
	BucketTomorrow,
	BucketThisWeek,
	BucketNextWeek,
	BucketFuture,
	BucketNoDate,
}

// GroupBy selects the grouping key for Aggregate.
type GroupBy string

const (
	GroupByDate    GroupBy = "date"
	GroupByAccount GroupBy = "account"
	GroupByList    GroupBy = "list"
	// GroupByColor groups by the color tag, which doubles as the task's
	// priority marker.
	GroupByColor GroupBy = "color"
)

// Options controls a single aggregation pass. The zero value means: group
// by date, no filter, no window.
type Options struct {
	GroupBy GroupBy
	Filter  string

	// WindowDays > 0 additionally produces a day window of that many
	// consecutive day buckets, starting at today.
	WindowDays int
}

// Group is one ordered bucket of the aggregated result.
type Group struct {
	Key   string
	Tasks []model.Task
}

// Result is the output of Aggregate: ordered groups, plus the day window
// when one was requested.
type Result struct {
	Groups []Group
	Window []DayBucket
}

// Aggregate is a pure transform of the merged task set into the shapes
// the views render from. Identical input and options yield bit-identical
// output: group order is fixed and task order within a group is fully
// determined (due, then title, then key).
func Aggregate(tasks []model.Task, opts Options, now time.Time) Result {
	tasks = Filter(tasks, opts.Filter)

	var result Result
	switch opts.GroupBy {
	case GroupByAccount, GroupByList, GroupByColor:
		result.Groups = groupByKey(tasks, opts.GroupBy)
	default:
		result.Groups = groupByDate(tasks, now)
	}

	if opts.WindowDays > 0 {
		result.Window = Window(tasks, now, opts.WindowDays)
	}
	return result
}

// Midnight returns local midnight of the given instant, the "today"
// reference shared by all bucketing rules.
func Midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// DateBucket assigns a task to exactly one date bucket. The rules apply
// in priority order, so the assignment is a partition of any task set:
//
//   - overdue: due before today and not completed
//   - today, tomorrow: due on that calendar day
//   - this-week: due on today+2 through today+6, both ends inclusive
//   - next-week: due on today+7 through today+13
//   - no-date: no due date
//   - future: everything else with a due date, including completed tasks
//     whose due date already passed (they are excluded from overdue)
func DateBucket(t model.Task, now time.Time) BucketKey {
	if t.Due.IsZero() {
		return BucketNoDate
	}

	today := Midnight(now)
	due := Midnight(t.Due.In(now.Location()))

	switch days := dayDistance(today, due); {
	case days < 0 && t.State != model.StateCompleted:
		return BucketOverdue
	case days == 0:
		return BucketToday
	case days == 1:
		return BucketTomorrow
	case days >= 2 && days <= 6:
		return BucketThisWeek
	case days >= 7 && days <= 13:
		return BucketNextWeek
	default:
		return BucketFuture
	}
}

// dayDistance counts calendar days from a to b. Both are re-anchored to
// UTC midnights before subtracting, so the count stays exact on days
// where the local UTC offset changes and the elapsed time between local
// midnights is not 24h.
func dayDistance(a, b time.Time) int {
	au := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	bu := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(bu.Sub(au) / (24 * time.Hour))
}

// Filter returns the tasks whose title or notes contain the query,
// case-insensitively. An empty query returns the input unchanged.
func Filter(tasks []model.Task, query string) []model.Task {
	if query == "" {
		return tasks
	}
	q := strings.ToLower(query)

	var matched []model.Task
	for _, t := range tasks {
		if strings.Contains(strings.ToLower(t.Title), q) ||
			strings.Contains(strings.ToLower(t.Notes), q) {
			matched = append(matched, t)
		}
	}
	return matched
}

func groupByDate(tasks []model.Task, now time.Time) []Group {
	buckets := make(map[BucketKey][]model.Task)
	for _, t := range tasks {
		key := DateBucket(t, now)
		buckets[key] = append(buckets[key], t)
	}

	var groups []Group
	for _, key := range BucketOrder {
		bucket, ok := buckets[key]
		if !ok {
			continue
		}
		sortTasks(bucket)
		groups = append(groups, Group{Key: string(key), Tasks: bucket})
	}
	return groups
}

func groupByKey(tasks []model.Task, by GroupBy) []Group {
	buckets := make(map[string][]model.Task)
	for _, t := range tasks {
		var key string
		switch by {
		case GroupByAccount:
			key = t.AccountEmail
		case GroupByList:
			key = t.ListID
		case GroupByColor:
			key = t.Color
		}
		buckets[key] = append(buckets[key], t)
	}

	keys := make([]string, 0, len(buckets))
	for key := range buckets {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	groups := make([]Group, 0, len(keys))
	for _, key := range keys {
		bucket := buckets[key]
		sortTasks(bucket)
		groups = append(groups, Group{Key: key, Tasks: bucket})
	}
	return groups
}

// sortTasks orders a bucket deterministically: due date first (zero due
// dates last), then title, then key, so that repeated aggregation of the
// same input never reorders.
func sortTasks(tasks []model.Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		a, b := tasks[i], tasks[j]
		switch {
		case a.Due.IsZero() != b.Due.IsZero():
			return !a.Due.IsZero()
		case !a.Due.Equal(b.Due):
			return a.Due.Before(b.Due)
		case a.Title != b.Title:
			return a.Title < b.Title
		default:
			return a.Key() < b.Key()
		}
	})
}
