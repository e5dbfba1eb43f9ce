// Package health tracks robot heartbeats and derives the set of robots whose
// heartbeat has gone stale.
package health

import (
	"time"

	"github.com/duke-git/lancet/v2/maputil"
	"github.com/duke-git/lancet/v2/slice"
	"k8s.io/utils/clock"

	"yqhp/robot-fleet/internal/syncx"
	"yqhp/robot-fleet/pkg/types"
)

// Monitor records the last heartbeat of every robot. The offline set is a
// snapshot recomputed by DetectOffline; heartbeats never edit it directly, so
// a robot that resumes heartbeating leaves the set at the next detection.
type Monitor struct {
	clock clock.PassiveClock

	mu       syncx.Mutex
	lastSeen map[types.RobotID]time.Time
	offline  map[types.RobotID]struct{}
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithClock sets the time source, mainly for tests.
func WithClock(clk clock.PassiveClock) Option {
	return func(m *Monitor) {
		m.clock = clk
	}
}

// NewMonitor creates a monitor with no known robots.
func NewMonitor(opts ...Option) *Monitor {
	m := &Monitor{
		lastSeen: make(map[types.RobotID]time.Time),
		offline:  make(map[types.RobotID]struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.clock == nil {
		m.clock = clock.RealClock{}
	}
	return m
}

// Heartbeat records now as the last-seen time of robot.
func (m *Monitor) Heartbeat(robot types.RobotID) {
	m.mu.Lock()
	defer m.mu.Release()
	m.lastSeen[robot] = m.clock.Now()
}

// DetectOffline returns, in ascending order, the robots whose last heartbeat
// is older than timeout. The result replaces the previous offline set. Robots
// that never sent a heartbeat are not known and never reported.
func (m *Monitor) DetectOffline(timeout time.Duration) []types.RobotID {
	m.mu.Lock()
	defer m.mu.Release()

	now := m.clock.Now()
	offline := make(map[types.RobotID]struct{})
	for robot, last := range m.lastSeen {
		if now.Sub(last) > timeout {
			offline[robot] = struct{}{}
		}
	}
	m.offline = offline
	return sortedRobots(offline)
}

// Offline returns the offline set computed by the last DetectOffline.
func (m *Monitor) Offline() []types.RobotID {
	m.mu.Lock()
	defer m.mu.Release()
	return sortedRobots(m.offline)
}

// IsOffline reports whether robot was in the last computed offline set.
func (m *Monitor) IsOffline(robot types.RobotID) bool {
	m.mu.Lock()
	defer m.mu.Release()
	_, ok := m.offline[robot]
	return ok
}

// LastSeen returns the last heartbeat time of robot.
func (m *Monitor) LastSeen(robot types.RobotID) (time.Time, bool) {
	m.mu.Lock()
	defer m.mu.Release()
	t, ok := m.lastSeen[robot]
	return t, ok
}

// Known returns the number of robots that have sent at least one heartbeat.
func (m *Monitor) Known() int {
	m.mu.Lock()
	defer m.mu.Release()
	return len(m.lastSeen)
}

func sortedRobots(set map[types.RobotID]struct{}) []types.RobotID {
	robots := maputil.Keys(set)
	slice.Sort(robots)
	return robots
}
