// Package mutate applies task changes optimistically.
//
// Every mutation follows the same shape: capture the task's pre-image
// from the local snapshot, apply the change locally so the UI reflects
// it immediately, then perform the remote write. A successful write
// reconciles the snapshot with the server's authoritative copy and
// requests a debounced follow-up sync; a failed write restores the
// pre-image exactly and surfaces the error to the caller.
//
// An expired account token fails the remote write; the next sync cycle
// observes the same rejection and flips the account to expired.
package mutate
