package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectorCounters(t *testing.T) {
	c := NewCollector()

	c.TaskEnqueued()
	c.TaskEnqueued()
	c.TaskConsumed()
	c.DuplicateTask()
	c.Heartbeat()
	c.RobotFailed()

	assert.Equal(t, 2.0, testutil.ToFloat64(c.tasksEnqueued))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.tasksConsumed))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.duplicateTasks))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.heartbeats))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.robotFailures))
}

func TestZoneAcquired(t *testing.T) {
	c := NewCollector()

	c.ZoneAcquired(1, 2*time.Millisecond)
	c.ZoneAcquired(1, time.Millisecond)
	c.ZoneAcquired(2, 0)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.zoneAcquisitions.WithLabelValues("1")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.zoneAcquisitions.WithLabelValues("2")))
	assert.Equal(t, 1, testutil.CollectAndCount(c.zoneWait))
}

func TestHealthScanned(t *testing.T) {
	c := NewCollector()

	c.HealthScanned(2)
	c.HealthScanned(1)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.healthScans))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.offlineRobots))
}

func TestRegistryIsolation(t *testing.T) {
	a := NewCollector()
	b := NewCollector()

	a.TaskConsumed()
	assert.Equal(t, 0.0, testutil.ToFloat64(b.tasksConsumed))
}

func TestWriteTextfile(t *testing.T) {
	c := NewCollector()
	c.TaskEnqueued()
	c.HealthScanned(1)

	path := filepath.Join(t.TempDir(), "fleet.prom")
	require.NoError(t, c.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.True(t, strings.Contains(text, "fleet_tasks_enqueued_total 1"), text)
	assert.True(t, strings.Contains(text, "fleet_offline_robots 1"), text)
}
