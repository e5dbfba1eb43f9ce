// Package metrics exposes Prometheus collectors for a fleet run. Each run owns
// its own registry so concurrent runs and tests never share series.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"yqhp/robot-fleet/pkg/types"
)

const namespace = "fleet"

// ZoneWaitBuckets spans 10us to ~5s of zone contention.
var ZoneWaitBuckets = prometheus.ExponentialBuckets(0.00001, 4, 10)

// Collector groups the per-run collectors.
type Collector struct {
	registry *prometheus.Registry

	tasksEnqueued    prometheus.Counter
	tasksConsumed    prometheus.Counter
	duplicateTasks   prometheus.Counter
	zoneAcquisitions *prometheus.CounterVec
	zoneWait         prometheus.Histogram
	heartbeats       prometheus.Counter
	offlineRobots    prometheus.Gauge
	healthScans      prometheus.Counter
	robotFailures    prometheus.Counter
}

// NewCollector creates and registers the fleet collectors on a fresh registry.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		tasksEnqueued: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tasks_enqueued_total",
			Help:      "Tasks pushed onto the task queue.",
		}),
		tasksConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tasks_consumed_total",
			Help:      "Tasks popped and completed by robots.",
		}),
		duplicateTasks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "duplicate_tasks_total",
			Help:      "Tasks observed more than once by the consumption ledger.",
		}),
		zoneAcquisitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "zone_acquisitions_total",
			Help:      "Successful zone acquisitions broken out by zone.",
		}, []string{"zone"}),
		zoneWait: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "zone_wait_seconds",
			Help:      "Time robots spent waiting for a zone.",
			Buckets:   ZoneWaitBuckets,
		}),
		heartbeats: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "heartbeats_total",
			Help:      "Heartbeats emitted by robots.",
		}),
		offlineRobots: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "offline_robots",
			Help:      "Robots in the offline set computed by the last health scan.",
		}),
		healthScans: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "health_scans_total",
			Help:      "Offline detection scans run by the liveness monitor.",
		}),
		robotFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "robot_failures_total",
			Help:      "Robot or monitor goroutines that terminated abnormally.",
		}),
	}

	c.registry.MustRegister(
		c.tasksEnqueued,
		c.tasksConsumed,
		c.duplicateTasks,
		c.zoneAcquisitions,
		c.zoneWait,
		c.heartbeats,
		c.offlineRobots,
		c.healthScans,
		c.robotFailures,
	)
	return c
}

// Registry returns the registry holding the run's collectors.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// TaskEnqueued counts a pushed task.
func (c *Collector) TaskEnqueued() { c.tasksEnqueued.Inc() }

// TaskConsumed counts a completed task.
func (c *Collector) TaskConsumed() { c.tasksConsumed.Inc() }

// DuplicateTask counts a task delivered twice.
func (c *Collector) DuplicateTask() { c.duplicateTasks.Inc() }

// ZoneAcquired records a zone acquisition and how long it waited.
func (c *Collector) ZoneAcquired(zone types.ZoneID, wait time.Duration) {
	c.zoneAcquisitions.WithLabelValues(strconv.FormatUint(uint64(zone), 10)).Inc()
	c.zoneWait.Observe(wait.Seconds())
}

// Heartbeat counts an emitted heartbeat.
func (c *Collector) Heartbeat() { c.heartbeats.Inc() }

// HealthScanned records a scan and the resulting offline set size.
func (c *Collector) HealthScanned(offline int) {
	c.healthScans.Inc()
	c.offlineRobots.Set(float64(offline))
}

// RobotFailed counts an abnormal goroutine exit.
func (c *Collector) RobotFailed() { c.robotFailures.Inc() }

// WriteTextfile writes the current metrics in the text exposition format.
func (c *Collector) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, c.registry)
}
