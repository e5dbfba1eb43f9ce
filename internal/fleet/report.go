package fleet

import (
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"

	"yqhp/robot-fleet/internal/sysstat"
	"yqhp/robot-fleet/pkg/types"
)

// ZoneOccupancy is the highest number of robots observed inside one zone.
type ZoneOccupancy struct {
	Zone types.ZoneID
	Max  int
}

// Report is the outcome of a fleet run.
type Report struct {
	RunID         string
	Robots        int
	TasksPerRobot int
	Zones         int

	// TotalTasks is the number of tasks queued.
	TotalTasks int
	// Processed counts tasks completed by robots.
	Processed int
	// Leftover counts tasks still queued after the robots stopped.
	Leftover int
	// PerRobotTasks holds completions indexed by robot id.
	PerRobotTasks []int

	Elapsed    time.Duration
	Throughput float64 // tasks per second

	AvgZoneWait time.Duration
	P99ZoneWait time.Duration
	MaxZoneWait time.Duration

	// CPU is nil when process CPU times could not be sampled.
	CPU *sysstat.CPUTimes

	MaxOccupancy   int
	ZoneOccupancy  []ZoneOccupancy
	ZoneViolation  bool
	DuplicateTasks int
	OfflineRobots  []types.RobotID
	// KnownRobots counts robots that sent at least one heartbeat.
	KnownRobots int
}

func (c *Coordinator) report(elapsed time.Duration, cpu *sysstat.CPUTimes, leftover int, offline []types.RobotID) *Report {
	r := &Report{
		RunID:         c.runID,
		Robots:        c.cfg.Robots,
		TasksPerRobot: c.cfg.TasksPerRobot,
		Zones:         c.cfg.Zones,
		TotalTasks:    c.cfg.TotalTasks(),
		Leftover:      leftover,
		PerRobotTasks: make([]int, len(c.robots)),
		Elapsed:       elapsed,
		CPU:           cpu,
		MaxOccupancy:  c.occupancy.maxOccupancy(),
		ZoneOccupancy: c.occupancy.zoneMax(),
		ZoneViolation: c.occupancy.violated(),
		OfflineRobots: offline,
	}
	if r.OfflineRobots == nil {
		r.OfflineRobots = []types.RobotID{}
	}
	_, r.DuplicateTasks = c.ledger.counts()

	waits := hdrhistogram.New(1, waitHistogramMax, waitHistogramSigFigs)
	var waitTotal time.Duration
	for i, rb := range c.robots {
		r.PerRobotTasks[i] = rb.completed
		r.Processed += rb.completed
		waitTotal += rb.waitTotal
		waits.Merge(rb.waits)
	}

	if elapsed > 0 {
		r.Throughput = float64(r.Processed) / elapsed.Seconds()
	}
	if n := waits.TotalCount(); n > 0 {
		r.AvgZoneWait = waitTotal / time.Duration(n)
		r.P99ZoneWait = time.Duration(waits.ValueAtQuantile(99)) * time.Microsecond
		r.MaxZoneWait = time.Duration(waits.Max()) * time.Microsecond
	}
	return r
}

// OfflineCount returns the number of robots in the final offline set.
func (r *Report) OfflineCount() int {
	return len(r.OfflineRobots)
}

// TasksDone returns the number of tasks robots completed and whether every
// robot completed the same number.
func (r *Report) TasksDone() (total int, even bool) {
	even = true
	for i, n := range r.PerRobotTasks {
		total += n
		if i > 0 && n != r.PerRobotTasks[0] {
			even = false
		}
	}
	return total, even
}
