package queue

import (
	"errors"
	"sync"

	"yqhp/robot-fleet/internal/syncx"
	"yqhp/robot-fleet/pkg/types"
)

// ErrClosed is returned by Push once the queue has been closed.
var ErrClosed = errors.New("task queue closed")

// TaskQueue is a blocking FIFO queue of tasks. Every pushed task is handed to
// exactly one successful Pop or TryPop.
type TaskQueue struct {
	mu        syncx.Mutex
	available *sync.Cond

	tasks  []types.Task
	head   int
	closed bool
}

// New creates an empty, open queue.
func New() *TaskQueue {
	q := &TaskQueue{}
	q.available = q.mu.NewCond()
	return q
}

// Push appends task to the tail. It never blocks.
func (q *TaskQueue) Push(task types.Task) error {
	q.mu.Lock()
	defer q.mu.Release()

	if q.closed {
		return ErrClosed
	}
	q.tasks = append(q.tasks, task)
	q.available.Signal()
	return nil
}

// Pop removes and returns the head task, waiting while the queue is empty and
// open. ok is false once the queue is closed and fully drained.
func (q *TaskQueue) Pop() (task types.Task, ok bool) {
	q.mu.Lock()
	defer q.mu.Release()

	for {
		if task, ok = q.take(); ok {
			return task, true
		}
		if q.closed {
			return types.Task{}, false
		}
		q.available.Wait()
	}
}

// TryPop removes and returns the head task without waiting.
func (q *TaskQueue) TryPop() (types.Task, bool) {
	q.mu.Lock()
	defer q.mu.Release()

	return q.take()
}

// Close marks the queue closed and wakes every waiting Pop. Tasks already
// queued are still delivered. Closing twice is a no-op.
func (q *TaskQueue) Close() {
	q.mu.Lock()
	defer q.mu.Release()

	if q.closed {
		return
	}
	q.closed = true
	q.available.Broadcast()
}

// Closed reports whether Close has been called.
func (q *TaskQueue) Closed() bool {
	var closed bool
	q.locked(func() { closed = q.closed })
	return closed
}

// Len returns the number of queued tasks.
func (q *TaskQueue) Len() int {
	var n int
	q.locked(func() { n = len(q.tasks) - q.head })
	return n
}

func (q *TaskQueue) locked(fn func()) {
	q.mu.Lock()
	defer q.mu.Release()
	fn()
}

// take pops the head under the lock. The backing slice is compacted once the
// consumed prefix dominates it.
func (q *TaskQueue) take() (types.Task, bool) {
	if q.head >= len(q.tasks) {
		return types.Task{}, false
	}
	task := q.tasks[q.head]
	q.tasks[q.head] = types.Task{}
	q.head++

	if q.head == len(q.tasks) {
		q.tasks = q.tasks[:0]
		q.head = 0
	} else if q.head > 64 && q.head*2 > len(q.tasks) {
		n := copy(q.tasks, q.tasks[q.head:])
		clear(q.tasks[n:])
		q.tasks = q.tasks[:n]
		q.head = 0
	}
	return task, true
}
