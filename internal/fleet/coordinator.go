package fleet

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"k8s.io/utils/clock"

	"yqhp/robot-fleet/internal/health"
	"yqhp/robot-fleet/internal/metrics"
	"yqhp/robot-fleet/internal/queue"
	"yqhp/robot-fleet/internal/sysstat"
	"yqhp/robot-fleet/internal/zone"
	"yqhp/robot-fleet/pkg/types"
)

// ErrAlreadyRun is returned by Run on a coordinator that already ran.
var ErrAlreadyRun = errors.New("fleet: coordinator already ran")

// Coordinator owns the components of one fleet run and drives the robots and
// the liveness monitor over them.
type Coordinator struct {
	cfg     Config
	runID   string
	log     *zap.Logger
	clock   clock.WithTicker
	metrics *metrics.Collector

	queue     *queue.TaskQueue
	zones     *zone.Access
	health    *health.Monitor
	liveness  *LivenessMonitor
	occupancy *occupancy
	ledger    *ledger
	robots    []*robot

	ran atomic.Bool
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(log *zap.Logger) Option {
	return func(c *Coordinator) {
		c.log = log
	}
}

// WithClock sets the clock used for heartbeats and liveness scans.
func WithClock(clk clock.WithTicker) Option {
	return func(c *Coordinator) {
		c.clock = clk
	}
}

// WithMetrics sets the metrics collector. Defaults to a fresh collector.
func WithMetrics(m *metrics.Collector) Option {
	return func(c *Coordinator) {
		c.metrics = m
	}
}

// New validates cfg and builds the components of a run.
func New(cfg Config, opts ...Option) (*Coordinator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid fleet config: %w", err)
	}

	c := &Coordinator{
		cfg:   cfg,
		runID: uuid.NewString(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.log == nil {
		c.log = zap.NewNop()
	}
	if c.clock == nil {
		c.clock = clock.RealClock{}
	}
	if c.metrics == nil {
		c.metrics = metrics.NewCollector()
	}
	c.log = c.log.With(zap.String("run_id", c.runID))

	c.queue = queue.New()
	c.zones = zone.New(types.ZoneRange(cfg.Zones))
	c.health = health.NewMonitor(health.WithClock(c.clock))
	c.liveness = NewLivenessMonitor(c.health, cfg.HeartbeatTimeout, cfg.ScanInterval, c.clock, c.metrics, c.log)
	c.occupancy = newOccupancy(cfg.Zones)
	c.ledger = newLedger(cfg.TotalTasks())
	c.robots = make([]*robot, cfg.Robots)
	for i := range c.robots {
		c.robots[i] = newRobot(types.RobotID(i), cfg, c.log)
	}
	return c, nil
}

// Run queues the workload, runs every robot to completion and reports the
// outcome. The report is returned even when some robot failed; the error then
// combines the failures.
func (c *Coordinator) Run(ctx context.Context) (*Report, error) {
	if !c.ran.CompareAndSwap(false, true) {
		return nil, ErrAlreadyRun
	}

	if err := c.populate(); err != nil {
		return nil, err
	}
	c.queue.Close()

	c.log.Info("fleet run started",
		zap.Int("robots", c.cfg.Robots),
		zap.Int("tasks", c.cfg.TotalTasks()),
		zap.Int("zones", c.cfg.Zones))

	monCtx, stopMonitor := context.WithCancel(ctx)
	defer stopMonitor()
	var monitor errgroup.Group
	monitor.Go(func() error {
		return c.liveness.Run(monCtx)
	})

	cpuStart, cpuErr := sysstat.SampleCPU()
	start := time.Now()

	errs := make([]error, len(c.robots))
	var robots errgroup.Group
	for i, r := range c.robots {
		robots.Go(func() error {
			errs[i] = c.runRobot(r)
			return nil
		})
	}
	_ = robots.Wait()
	elapsed := time.Since(start)

	var cpu *sysstat.CPUTimes
	if cpuErr == nil {
		if cpuEnd, err := sysstat.SampleCPU(); err == nil {
			used := cpuEnd.Sub(cpuStart)
			cpu = &used
		} else {
			cpuErr = err
		}
	}
	if cpuErr != nil {
		c.log.Warn("cpu times unavailable", zap.Error(cpuErr))
	}

	var (
		offline []types.RobotID
		known   int
	)
	errs = append(errs, c.guard("offline scan", func() {
		if c.simulatesOffline() {
			offline = c.liveness.WaitForOffline(ctx, c.cfg.GraceWindow, c.cfg.OfflinePoll)
		} else {
			offline = c.liveness.Scan()
		}
		known = c.health.Known()
	}))
	stopMonitor()
	errs = append(errs, monitor.Wait())

	var leftover int
	errs = append(errs, c.guard("drain queue", func() {
		leftover = c.drain()
	}))
	if leftover > 0 {
		c.log.Warn("tasks left in queue", zap.Int("leftover", leftover))
	}

	report := c.report(elapsed, cpu, leftover, offline)
	report.KnownRobots = known
	c.log.Info("fleet run finished",
		zap.Int("processed", report.Processed),
		zap.Duration("elapsed", elapsed),
		zap.Bool("zone_violation", report.ZoneViolation),
		zap.Int("duplicate_tasks", report.DuplicateTasks),
		zap.Any("offline_robots", offline))

	return report, multierr.Combine(errs...)
}

func (c *Coordinator) populate() error {
	for i := 0; i < c.cfg.TotalTasks(); i++ {
		id := types.TaskID(i)
		task := types.NewTask(id, types.ZoneFor(id, c.cfg.Zones), fmt.Sprintf("%s-%d", c.cfg.TaskPrefix, id), c.cfg.WorkDuration)
		if err := c.queue.Push(task); err != nil {
			return fmt.Errorf("queue task %d: %w", id, err)
		}
		c.metrics.TaskEnqueued()
	}
	return nil
}

// guard runs a driver step after the robots joined and returns a panic from
// it, typically a poisoned component lock, as an error.
func (c *Coordinator) guard(step string, fn func()) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%s: %w", step, panicError(rec))
			c.log.Error("driver step failed", zap.String("step", step), zap.Any("panic", rec))
		}
	}()
	fn()
	return nil
}

func (c *Coordinator) simulatesOffline() bool {
	return c.cfg.silences(c.cfg.SilencedRobot)
}

// drain empties the queue after the robots stopped and returns how many
// tasks were still in it.
func (c *Coordinator) drain() int {
	n := 0
	for {
		if _, ok := c.queue.TryPop(); !ok {
			return n
		}
		n++
	}
}

// RunID identifies the run in logs and reports.
func (c *Coordinator) RunID() string { return c.runID }

// Config returns the run configuration.
func (c *Coordinator) Config() Config { return c.cfg }

// Queue returns the task queue.
func (c *Coordinator) Queue() *queue.TaskQueue { return c.queue }

// Zones returns the zone access control.
func (c *Coordinator) Zones() *zone.Access { return c.zones }

// Health returns the health monitor.
func (c *Coordinator) Health() *health.Monitor { return c.health }

// Metrics returns the metrics collector.
func (c *Coordinator) Metrics() *metrics.Collector { return c.metrics }

// RobotStates returns the current state of every robot, indexed by robot id.
func (c *Coordinator) RobotStates() []RobotState {
	states := make([]RobotState, len(c.robots))
	for i, r := range c.robots {
		states[i] = r.State()
	}
	return states
}
