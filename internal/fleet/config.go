package fleet

import (
	"fmt"
	"time"

	"yqhp/robot-fleet/pkg/types"
)

// Config holds the parameters of one fleet run.
type Config struct {
	// Robots is the number of robot goroutines.
	Robots int
	// TasksPerRobot sizes the workload: Robots*TasksPerRobot tasks are queued.
	TasksPerRobot int
	// Zones is the number of exclusive zones, numbered from 1.
	Zones int
	// WorkDuration is how long a robot holds a zone per task.
	WorkDuration time.Duration
	// TaskPrefix names tasks as "<prefix>-<id>".
	TaskPrefix string

	// HeartbeatTimeout is the staleness threshold for offline detection.
	HeartbeatTimeout time.Duration
	// ScanInterval is the liveness monitor's scan period.
	ScanInterval time.Duration
	// OfflinePoll is the scan period while waiting for offline detection
	// after the robots finished.
	OfflinePoll time.Duration
	// GraceWindow bounds that wait.
	GraceWindow time.Duration

	// SimulateOffline silences SilencedRobot after it completes SilenceAfter
	// tasks. Ignored for single-robot fleets.
	SimulateOffline bool
	SilencedRobot   types.RobotID
	SilenceAfter    int

	// CheckViolations asks callers to surface duplicate and exclusivity
	// violations.
	CheckViolations bool
}

// DemoConfig is the small interactive scenario: robot 1 stops heartbeating
// after its second task and is reported offline.
func DemoConfig() Config {
	return Config{
		Robots:           3,
		TasksPerRobot:    3,
		Zones:            2,
		WorkDuration:     80 * time.Millisecond,
		TaskPrefix:       "deliver",
		HeartbeatTimeout: 200 * time.Millisecond,
		ScanInterval:     50 * time.Millisecond,
		OfflinePoll:      50 * time.Millisecond,
		GraceWindow:      600 * time.Millisecond,
		SimulateOffline:  true,
		SilencedRobot:    1,
		SilenceAfter:     2,
	}
}

// BenchConfig is the default benchmark workload.
func BenchConfig() Config {
	return Config{
		Robots:           4,
		TasksPerRobot:    25,
		Zones:            2,
		WorkDuration:     5 * time.Millisecond,
		TaskPrefix:       "bench",
		HeartbeatTimeout: 500 * time.Millisecond,
		ScanInterval:     100 * time.Millisecond,
		OfflinePoll:      50 * time.Millisecond,
		GraceWindow:      time.Second,
		SimulateOffline:  false,
		SilencedRobot:    0,
		SilenceAfter:     1,
	}
}

// TotalTasks returns the number of tasks the run queues.
func (c Config) TotalTasks() int {
	return c.Robots * c.TasksPerRobot
}

// silences reports whether robot stops heartbeating during the run.
func (c Config) silences(robot types.RobotID) bool {
	return c.SimulateOffline && c.Robots > 1 && robot == c.SilencedRobot
}

// Validate checks the configuration.
func (c Config) Validate() error {
	switch {
	case c.Robots <= 0:
		return fmt.Errorf("robots must be > 0, got %d", c.Robots)
	case c.TasksPerRobot <= 0:
		return fmt.Errorf("tasks per robot must be > 0, got %d", c.TasksPerRobot)
	case c.Zones <= 0:
		return fmt.Errorf("zones must be > 0, got %d", c.Zones)
	case c.WorkDuration < 0:
		return fmt.Errorf("work duration must not be negative, got %s", c.WorkDuration)
	case c.HeartbeatTimeout <= 0:
		return fmt.Errorf("heartbeat timeout must be > 0, got %s", c.HeartbeatTimeout)
	case c.ScanInterval <= 0:
		return fmt.Errorf("scan interval must be > 0, got %s", c.ScanInterval)
	case c.OfflinePoll <= 0:
		return fmt.Errorf("offline poll must be > 0, got %s", c.OfflinePoll)
	case c.GraceWindow < 0:
		return fmt.Errorf("grace window must not be negative, got %s", c.GraceWindow)
	case c.SimulateOffline && c.Robots > 1 && int(c.SilencedRobot) >= c.Robots:
		return fmt.Errorf("silenced robot %d out of range [0,%d)", c.SilencedRobot, c.Robots)
	case c.SimulateOffline && c.Robots > 1 && c.SilenceAfter < 1:
		// a robot that never heartbeats is never known, so never offline
		return fmt.Errorf("silence after must be at least 1 when simulating offline, got %d", c.SilenceAfter)
	}
	return nil
}
