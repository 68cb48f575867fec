// Package pool implements the bounded worker pool that executes render row
// tasks.
//
// A fixed set of worker goroutines drains two priority tiers, always
// preferring the high tier. Admission is bounded: at most QueueCapacity
// tasks wait for a worker at any time, and Submit blocks (never drops work)
// while that many are pending. The wait ends when a worker frees a slot, when
// the caller's context is cancelled, or when the optional admission timeout
// expires.
//
// Tasks are never retried. A panicking task is recovered and its PanicError
// is handed to the task's completion callback like any other failure.
package pool
