package fleet

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"k8s.io/utils/clock"

	"yqhp/robot-fleet/internal/health"
	"yqhp/robot-fleet/internal/metrics"
	"yqhp/robot-fleet/pkg/types"
)

// LivenessMonitor periodically recomputes the offline set of a health monitor
// and logs robots entering or leaving it.
type LivenessMonitor struct {
	health   *health.Monitor
	metrics  *metrics.Collector
	clock    clock.WithTicker
	log      *zap.Logger
	timeout  time.Duration
	interval time.Duration

	mu   sync.Mutex
	last map[types.RobotID]struct{}
}

// NewLivenessMonitor creates a monitor scanning h every interval.
func NewLivenessMonitor(h *health.Monitor, timeout, interval time.Duration, clk clock.WithTicker, m *metrics.Collector, log *zap.Logger) *LivenessMonitor {
	if clk == nil {
		clk = clock.RealClock{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &LivenessMonitor{
		health:   h,
		metrics:  m,
		clock:    clk,
		log:      log.Named("liveness"),
		timeout:  timeout,
		interval: interval,
		last:     make(map[types.RobotID]struct{}),
	}
}

// Run scans on every tick until ctx is done. A panic from the health monitor
// is returned as an error.
func (l *LivenessMonitor) Run(ctx context.Context) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("liveness monitor: %w", panicError(rec))
			l.log.Error("liveness monitor terminated abnormally", zap.Any("panic", rec), zap.Stack("stack"))
		}
	}()

	ticker := l.clock.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C():
			l.Scan()
		}
	}
}

// Scan runs one offline detection and returns the offline set.
func (l *LivenessMonitor) Scan() []types.RobotID {
	offline := l.health.DetectOffline(l.timeout)
	if l.metrics != nil {
		l.metrics.HealthScanned(len(offline))
	}
	lastSeen := make(map[types.RobotID]time.Time, len(offline))
	for _, robot := range offline {
		lastSeen[robot], _ = l.health.LastSeen(robot)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	for robot, seen := range lastSeen {
		if _, was := l.last[robot]; !was {
			l.log.Info("robot offline",
				zap.Uint64("robot", uint64(robot)),
				zap.Duration("silent_for", l.clock.Since(seen)),
				zap.Duration("timeout", l.timeout))
		}
	}
	for robot := range l.last {
		if _, still := lastSeen[robot]; !still {
			l.log.Info("robot back online", zap.Uint64("robot", uint64(robot)))
		}
	}
	l.last = make(map[types.RobotID]struct{}, len(offline))
	for _, robot := range offline {
		l.last[robot] = struct{}{}
	}
	return offline
}

// WaitForOffline scans every poll until some robot is offline or maxWait
// elapses, and returns the last offline set.
func (l *LivenessMonitor) WaitForOffline(ctx context.Context, maxWait, poll time.Duration) []types.RobotID {
	deadline := l.clock.Now().Add(maxWait)
	for {
		offline := l.Scan()
		if len(offline) > 0 || !l.clock.Now().Before(deadline) {
			return offline
		}
		wait := poll
		if left := deadline.Sub(l.clock.Now()); left < wait {
			wait = left
		}
		select {
		case <-ctx.Done():
			return offline
		case <-l.clock.After(wait):
		}
	}
}
