// Package cache provides a time-expiring memoization cache for keyed
// outcomes. Repeated requests for the same key within the validity window
// return the stored outcome without recomputing; simultaneous requests for an
// uncached key collapse onto a single in-flight computation whose result all
// requesters share. Synchronization is per key, so unrelated keys never block
// each other.
//
// Entries expire logically by timestamp comparison; no background sweeper
// runs. Owners who care about memory call Sweep on their own cadence. The
// cache is in-memory only and never persisted.
package cache
