// Package syncx provides a mutex that is poisoned when a goroutine panics while
// holding it, so later callers fail instead of reading half-updated state.
package syncx

import (
	"errors"
	"sync"
	"sync/atomic"
)

// ErrPoisoned is the panic value raised by Lock once a previous holder panicked.
var ErrPoisoned = errors.New("syncx: lock poisoned by a panicking holder")

// Mutex is a sync.Mutex with poisoning. Guard critical sections with
//
//	m.Lock()
//	defer m.Release()
//
// Release must be the deferred call itself so it can observe the panic.
type Mutex struct {
	mu       sync.Mutex
	poisoned atomic.Bool
	conds    []*sync.Cond
}

// NewCond returns a condition variable bound to m. Waiters on it are woken
// when m becomes poisoned.
func (m *Mutex) NewCond() *sync.Cond {
	c := sync.NewCond(m)
	m.mu.Lock()
	m.conds = append(m.conds, c)
	m.mu.Unlock()
	return c
}

// Lock acquires m. It panics with ErrPoisoned, without holding the lock, if m
// has been poisoned.
func (m *Mutex) Lock() {
	m.mu.Lock()
	if m.poisoned.Load() {
		m.mu.Unlock()
		panic(ErrPoisoned)
	}
}

// Unlock releases m.
func (m *Mutex) Unlock() {
	m.mu.Unlock()
}

// Release unlocks m. If the deferring goroutine is panicking, m is poisoned,
// its condition waiters are woken and the panic continues.
func (m *Mutex) Release() {
	r := recover()
	if r == nil {
		m.mu.Unlock()
		return
	}
	if err, ok := r.(error); ok && errors.Is(err, ErrPoisoned) {
		// Lock already dropped the mutex before panicking.
		panic(r)
	}
	m.poisoned.Store(true)
	for _, c := range m.conds {
		c.Broadcast()
	}
	m.mu.Unlock()
	panic(r)
}

// Poisoned reports whether a holder of m has panicked.
func (m *Mutex) Poisoned() bool {
	return m.poisoned.Load()
}
