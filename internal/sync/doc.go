// Package sync fetches tasks from every connected account and maintains
// the aggregated snapshot the views read from.
//
// The Engine fans out one fetch per active account, merges results only
// after every account has finished, and publishes the merged snapshot
// atomically. Failures are isolated per account: an account whose fetch
// fails keeps its previously published tasks, and a rejected token flips
// that account to expired without disturbing its siblings. The snapshot
// is written to the durable store on a short debounce so a restart can
// show the last known good state before the first cycle completes.
// Every cycle starts by reloading the account set from the store, so
// accounts added or removed by another process take effect within one
// tick and removed accounts' tasks are pruned from the snapshot.
//
// The Scheduler owns all timing: a periodic tick whose interval depends
// on UI visibility, immediate triggers, and a debounced trigger used
// after mutations. A cycle that would overlap a running one is dropped.
package sync
