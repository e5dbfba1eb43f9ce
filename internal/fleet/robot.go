package fleet

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
	"go.uber.org/zap"

	"yqhp/robot-fleet/internal/zone"
	"yqhp/robot-fleet/pkg/types"
)

// RobotState is the position of a robot in its work loop.
type RobotState int32

const (
	StateIdle RobotState = iota
	StateAwaitingTask
	StateAwaitingZone
	StateWorking
	StateStopped
)

func (s RobotState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingTask:
		return "awaiting_task"
	case StateAwaitingZone:
		return "awaiting_zone"
	case StateWorking:
		return "working"
	case StateStopped:
		return "stopped"
	default:
		return fmt.Sprintf("RobotState(%d)", int32(s))
	}
}

// zone waits are recorded in microseconds up to one minute
const (
	waitHistogramMax     = int64(time.Minute / time.Microsecond)
	waitHistogramSigFigs = 3
)

type robot struct {
	id      types.RobotID
	state   atomic.Int32
	log     *zap.Logger
	silence int // heartbeats stop after this many tasks, -1 never

	completed int
	waitTotal time.Duration
	waits     *hdrhistogram.Histogram
}

func newRobot(id types.RobotID, cfg Config, log *zap.Logger) *robot {
	r := &robot{
		id:      id,
		log:     log.With(zap.Uint64("robot", uint64(id))),
		silence: -1,
		waits:   hdrhistogram.New(1, waitHistogramMax, waitHistogramSigFigs),
	}
	if cfg.silences(id) {
		r.silence = cfg.SilenceAfter
	}
	r.state.Store(int32(StateIdle))
	return r
}

func (r *robot) setState(s RobotState) {
	prev := RobotState(r.state.Swap(int32(s)))
	if prev != s && r.log.Core().Enabled(zap.DebugLevel) {
		r.log.Debug("robot state", zap.Stringer("from", prev), zap.Stringer("to", s))
	}
}

func (r *robot) State() RobotState {
	return RobotState(r.state.Load())
}

func (r *robot) recordWait(d time.Duration) {
	r.waitTotal += d
	us := d.Microseconds()
	if us > waitHistogramMax {
		us = waitHistogramMax
	}
	_ = r.waits.RecordValue(us)
}

// heartbeating reports whether the robot still emits heartbeats after its
// current number of completed tasks.
func (r *robot) heartbeating() bool {
	return r.silence < 0 || r.completed <= r.silence
}

// runRobot is the robot loop: pop a task, hold its zone while working,
// heartbeat. It returns nil once the queue is closed and drained. Panics from
// the components (poisoned locks, invalid releases) end this robot only and
// are returned as its error; a zone held at that point is released first.
func (c *Coordinator) runRobot(r *robot) (err error) {
	var (
		held    zone.Handle
		holding bool
	)
	defer func() {
		if rec := recover(); rec != nil {
			if holding {
				c.abandonZone(r, held)
			}
			r.setState(StateStopped)
			err = fmt.Errorf("robot %d: %w", r.id, panicError(rec))
			c.metrics.RobotFailed()
			r.log.Error("robot terminated abnormally", zap.Any("panic", rec), zap.Stack("stack"))
		}
	}()

	for {
		r.setState(StateAwaitingTask)
		task, ok := c.queue.Pop()
		if !ok {
			r.setState(StateStopped)
			r.log.Debug("queue closed, robot stopping", zap.Int("completed", r.completed))
			return nil
		}
		if !c.ledger.record(task.ID) {
			c.metrics.DuplicateTask()
			r.log.Error("task delivered twice", zap.Uint64("task", uint64(task.ID)))
		}
		r.log.Debug("fetched task", zap.Uint64("task", uint64(task.ID)), zap.Uint64("zone", uint64(task.Zone)))

		r.setState(StateAwaitingZone)
		waitStart := time.Now()
		h, err := c.zones.Acquire(task.Zone, r.id)
		held, holding = h, err == nil
		if err != nil {
			r.setState(StateStopped)
			return fmt.Errorf("robot %d: acquire zone for task %d: %w", r.id, task.ID, err)
		}
		wait := time.Since(waitStart)
		r.recordWait(wait)
		c.metrics.ZoneAcquired(task.Zone, wait)

		r.setState(StateWorking)
		c.occupancy.enter(task.Zone)
		if task.Work > 0 {
			time.Sleep(task.Work)
		}
		c.occupancy.leave(task.Zone)
		holding = false
		c.zones.Release(h)

		r.completed++
		c.metrics.TaskConsumed()
		if r.heartbeating() {
			c.health.Heartbeat(r.id)
			c.metrics.Heartbeat()
		} else if r.completed == r.silence+1 {
			r.log.Info("robot stops heartbeating", zap.Int("completed", r.completed))
		}
		r.setState(StateIdle)
	}
}

// abandonZone releases the hold of a failing robot so robots waiting on the
// zone are not blocked forever.
func (c *Coordinator) abandonZone(r *robot, h zone.Handle) {
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error("release of abandoned zone failed", zap.Uint64("zone", uint64(h.Zone)), zap.Any("panic", rec))
		}
	}()
	c.zones.Release(h)
	r.log.Warn("released zone held by failed robot", zap.Uint64("zone", uint64(h.Zone)))
}

func panicError(rec any) error {
	if err, ok := rec.(error); ok {
		return err
	}
	return fmt.Errorf("panic: %v", rec)
}
