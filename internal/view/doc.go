// Package view turns the merged multi-account task set into the shapes
// the individual views render from: date buckets for the agenda, day
// windows for the board and gantt views, and free-text filtered groups.
//
// Everything here is a pure function of (tasks, options, now). No state is
// held; callers recompute whenever the task set or the options change.
// Output ordering is fully deterministic so that identical input yields
// bit-identical results.
package view
