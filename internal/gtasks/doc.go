// Package gtasks provides the client for the remote Google Tasks store.
//
// This package wraps the Google Tasks API (tasks/v1) and provides:
//   - Listing task lists and tasks, transparently following pagination
//     tokens until every page has been fetched
//   - Patching and inserting tasks
//   - Mapping 401 responses to ErrUnauthorized so the sync engine can
//     flip the owning account to expired without retrying
//
// # Notes side-channel
//
// The remote store has no structured fields for the start date, color,
// in-progress flag or recurring flag, so they are encoded as marker lines
// inside the free-text notes field:
//
//	[gtaskall:start=2024-03-20]
//	[gtaskall:color=#FF8800]
//	[gtaskall:in-progress]
//	[gtaskall:recurring]
//
// The encode/decode pair in codec.go is the only place that parses or
// emits these markers; the rest of the system sees typed fields on
// model.Task. Likewise the local tri-state (todo, in-progress, completed)
// is folded into the two remote-visible fields (status plus the
// in-progress marker) only here.
//
// The client is stateless: every call takes the access token to use, and
// the caller owns token lifecycle and retry policy.
package gtasks
