// Package gate provides a counting concurrency gate with a capacity fixed at
// construction. Goroutines suspend at Acquire until a slot frees; Run scopes
// an acquisition around a function with a guaranteed release on every exit
// path, including panics. The gate is safe for concurrent use and may be
// shared by several orchestrators to enforce a process-wide budget.
package gate
