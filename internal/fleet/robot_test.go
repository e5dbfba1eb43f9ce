package fleet

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestRobotStateString(t *testing.T) {
	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "awaiting_task", StateAwaitingTask.String())
	assert.Equal(t, "awaiting_zone", StateAwaitingZone.String())
	assert.Equal(t, "working", StateWorking.String())
	assert.Equal(t, "stopped", StateStopped.String())
	assert.Equal(t, "RobotState(42)", RobotState(42).String())
}

func TestRobotHeartbeating(t *testing.T) {
	cfg := DemoConfig()
	log := zaptest.NewLogger(t)

	silenced := newRobot(1, cfg, log)
	for range 2 {
		silenced.completed++
		assert.True(t, silenced.heartbeating())
	}
	silenced.completed++
	assert.False(t, silenced.heartbeating())

	other := newRobot(2, cfg, log)
	other.completed = 100
	assert.True(t, other.heartbeating())
}

func TestRobotRecordWait(t *testing.T) {
	r := newRobot(0, BenchConfig(), zaptest.NewLogger(t))
	r.recordWait(250 * time.Microsecond)
	r.recordWait(750 * time.Microsecond)
	r.recordWait(2 * time.Minute)

	assert.Equal(t, int64(3), r.waits.TotalCount())
	assert.InDelta(t, float64(waitHistogramMax), float64(r.waits.Max()), float64(waitHistogramMax)*0.001)
	assert.Equal(t, 2*time.Minute+time.Millisecond, r.waitTotal)
}

func TestRunRobotRecoversPanic(t *testing.T) {
	cfg := BenchConfig()
	cfg.Robots = 1
	c, err := New(cfg, WithLogger(zaptest.NewLogger(t)))
	require.NoError(t, err)
	c.queue = nil

	r := c.robots[0]
	err = c.runRobot(r)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "robot 0:")
	assert.Equal(t, StateStopped, r.State())
}
