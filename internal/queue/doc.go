// Package queue implements the FIFO task queue that robots pull work from.
//
// Pop waits on a condition variable tied to the queue lock and re-checks its
// predicate on every wake, so spurious wakeups and signals that arrive between
// the check and the wait are harmless.
package queue
