package report

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yqhp/robot-fleet/internal/fleet"
	"yqhp/robot-fleet/internal/sysstat"
	"yqhp/robot-fleet/pkg/types"
)

func sampleReport() *fleet.Report {
	return &fleet.Report{
		RunID:         "run-1",
		Robots:        4,
		TasksPerRobot: 25,
		Zones:         2,
		TotalTasks:    100,
		Processed:     100,
		PerRobotTasks: []int{25, 26, 24, 25},
		Elapsed:       1234567 * time.Microsecond,
		Throughput:    81.0001,
		AvgZoneWait:   1500 * time.Nanosecond,
		P99ZoneWait:   9 * time.Millisecond,
		MaxZoneWait:   12 * time.Millisecond,
		CPU:           &sysstat.CPUTimes{User: 0.123456, System: 0.05},
		MaxOccupancy:  2,
		ZoneOccupancy: []fleet.ZoneOccupancy{{Zone: 1, Max: 1}, {Zone: 2, Max: 1}},
		OfflineRobots: []types.RobotID{1},
		KnownRobots:   4,
	}
}

func TestHeaderMatchesColumns(t *testing.T) {
	assert.Equal(t,
		"robots,tasks_per_robot,zones,total_tasks,elapsed_ms,throughput_tasks_per_s,avg_zone_wait_us,cpu_user_s,cpu_sys_s,max_occupancy,zone_violation,duplicate_tasks,offline_robots",
		strings.Join(Header, ","))
	assert.Len(t, Row(sampleReport()), len(Header))
}

func TestRowFormatting(t *testing.T) {
	assert.Equal(t,
		[]string{"4", "25", "2", "100", "1234.57", "81.00", "1.50", "0.1235", "0.0500", "2", "false", "0", "1"},
		Row(sampleReport()))
}

func TestRowWithoutCPU(t *testing.T) {
	r := sampleReport()
	r.CPU = nil
	row := Row(r)
	assert.Equal(t, "NA", row[7])
	assert.Equal(t, "NA", row[8])
}

func TestCSVWriterWritesHeaderOnce(t *testing.T) {
	var buf bytes.Buffer
	w := NewCSVWriter(&buf)

	require.NoError(t, w.WriteHeader())
	require.NoError(t, w.Write(sampleReport()))
	require.NoError(t, w.Write(sampleReport()))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, Header, records[0])
	assert.Equal(t, records[1], records[2])
}

func TestCSVWriterHeaderBeforeFirstRow(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewCSVWriter(&buf).Write(sampleReport()))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "robots,"))
	assert.True(t, strings.HasPrefix(lines[1], "4,25,2,100,"))
}

func TestWriteDiagnostics(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*fleet.Report)
		validate bool
		want     string
	}{
		{"clean", func(*fleet.Report) {}, true, ""},
		{"leftover always reported", func(r *fleet.Report) { r.Leftover = 3 }, false, "# warning,leftover_tasks,3\n"},
		{"violations hidden", func(r *fleet.Report) { r.ZoneViolation = true; r.DuplicateTasks = 1 }, false, ""},
		{"violations shown", func(r *fleet.Report) { r.ZoneViolation = true; r.DuplicateTasks = 2 }, true,
			"# violation,zone_exclusivity\n# violation,duplicate_tasks\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := sampleReport()
			tt.mutate(r)
			var buf bytes.Buffer
			require.NoError(t, WriteDiagnostics(&buf, r, tt.validate))
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, sampleReport()))
	assert.True(t, strings.HasSuffix(buf.String(), "}\n"))

	var doc map[string]any
	require.NoError(t, sonic.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, "run-1", doc["run_id"])
	assert.InDelta(t, 1234.567, doc["elapsed_ms"], 1e-9)
	assert.InDelta(t, 9000.0, doc["p99_zone_wait_us"], 1e-9)
	assert.InDelta(t, 0.123456, doc["cpu_user_s"], 1e-9)
	assert.Equal(t, []any{float64(1)}, doc["offline_robots"])
	assert.Equal(t, float64(4), doc["known_robots"])
	assert.Len(t, doc["zone_occupancy"], 2)
}

func TestNewDocumentWithoutCPU(t *testing.T) {
	r := sampleReport()
	r.CPU = nil
	r.OfflineRobots = nil

	d := NewDocument(r)
	assert.Nil(t, d.CPUUserS)
	assert.Nil(t, d.CPUSysS)
	assert.NotNil(t, d.OfflineRobots)

	data, err := sonic.Marshal(d)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"cpu_user_s":null`)
	assert.Contains(t, string(data), `"offline_robots":[]`)
}

func TestWriteDemoSummary(t *testing.T) {
	r := sampleReport()
	r.Robots, r.TotalTasks = 3, 9
	r.PerRobotTasks = []int{3, 3, 3}

	var buf bytes.Buffer
	require.NoError(t, WriteDemoSummary(&buf, r))
	assert.Equal(t, "DEMO SUMMARY\n"+
		"robots=3 tasks_total=9\n"+
		"tasks_per_robot_done=[3 3 3]\n"+
		"max_zone_occupancy_observed=2\n"+
		"zone_violation=false\n"+
		"offline_robots=[1]\n", buf.String())
}
