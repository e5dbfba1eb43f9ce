package syncx

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func panicWhileHolding(m *Mutex) (recovered any) {
	defer func() { recovered = recover() }()
	m.Lock()
	defer m.Release()
	panic("boom")
}

func TestMutex_ReleaseWithoutPanic(t *testing.T) {
	var m Mutex
	m.Lock()
	func() {
		defer m.Release()
	}()
	assert.False(t, m.Poisoned())

	// Lock must be available again.
	m.Lock()
	m.Unlock()
}

func TestMutex_PanicPoisons(t *testing.T) {
	var m Mutex

	assert.Equal(t, "boom", panicWhileHolding(&m))
	assert.True(t, m.Poisoned())

	assert.PanicsWithError(t, ErrPoisoned.Error(), func() {
		m.Lock()
	})
	// Still poisoned, still failing.
	assert.PanicsWithError(t, ErrPoisoned.Error(), func() {
		m.Lock()
	})
}

func TestMutex_PoisonWakesCondWaiters(t *testing.T) {
	var m Mutex
	cond := m.NewCond()
	ready := make(chan struct{})
	done := make(chan any, 1)

	go func() {
		defer func() { done <- recover() }()
		m.Lock()
		defer m.Release()
		close(ready)
		for {
			cond.Wait()
		}
	}()

	<-ready
	// The waiter has parked inside Wait once we can take the lock.
	require.Eventually(t, func() bool {
		if !m.mu.TryLock() {
			return false
		}
		m.mu.Unlock()
		return true
	}, time.Second, time.Millisecond)

	assert.Equal(t, "boom", panicWhileHolding(&m))

	select {
	case r := <-done:
		err, ok := r.(error)
		require.True(t, ok)
		assert.ErrorIs(t, err, ErrPoisoned)
	case <-time.After(time.Second):
		t.Fatal("waiter was not woken by poisoning")
	}
}
