package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"yqhp/robot-fleet/internal/config"
	"yqhp/robot-fleet/internal/report"
)

func execute(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	var out, errOut bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(append([]string{"--quiet"}, args...))
	err = root.Execute()
	return out.String(), errOut.String(), err
}

func lines(s string) []string {
	return strings.Split(strings.TrimRight(s, "\n"), "\n")
}

func TestRootHasSubcommands(t *testing.T) {
	root := NewRootCmd()
	for _, name := range []string{"demo", "bench", "stress", "config"} {
		sub, _, err := root.Find([]string{name})
		require.NoError(t, err)
		assert.Equal(t, name, sub.Name())
	}
}

func TestDemo(t *testing.T) {
	stdout, _, err := execute(t, "demo")
	require.NoError(t, err)

	out := lines(stdout)
	require.Len(t, out, 6)
	assert.Equal(t, "DEMO SUMMARY", out[0])
	assert.Equal(t, "robots=3 tasks_total=9", out[1])
	assert.Equal(t, "zone_violation=false", out[4])
	assert.True(t, strings.HasPrefix(out[5], "offline_robots=["))
}

func TestBenchCSV(t *testing.T) {
	stdout, stderr, err := execute(t, "bench", "--robots", "2", "--tasks", "5", "--zones", "1", "--work-ms", "1", "--validate")
	require.NoError(t, err)

	out := lines(stdout)
	require.Len(t, out, 2)
	assert.Equal(t, strings.Join(report.Header, ","), out[0])

	row := strings.Split(out[1], ",")
	require.Len(t, row, len(report.Header))
	assert.Equal(t, []string{"2", "5", "1", "10"}, row[:4])
	assert.Equal(t, "1", row[9], "max occupancy")
	assert.Equal(t, "false", row[10])
	assert.Equal(t, "0", row[11])
	assert.Equal(t, "0", row[12])
	assert.NotContains(t, stderr, "# violation")
	assert.NotContains(t, stderr, "# warning")
}

func TestBenchJSONAndMetrics(t *testing.T) {
	metricsPath := filepath.Join(t.TempDir(), "fleet.prom")
	stdout, _, err := execute(t, "bench", "--robots", "3", "--tasks", "4", "--work-ms", "0",
		"--format", "json", "--metrics-out", metricsPath)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, sonic.UnmarshalString(stdout, &doc))
	assert.Equal(t, float64(12), doc["processed"])
	assert.Equal(t, float64(12), doc["total_tasks"])
	assert.Equal(t, false, doc["zone_violation"])

	data, err := os.ReadFile(metricsPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "fleet_tasks_consumed_total 12")
	assert.Contains(t, string(data), "fleet_tasks_enqueued_total 12")
}

func TestBenchErrors(t *testing.T) {
	_, _, err := execute(t, "bench", "--format", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown format")

	_, _, err = execute(t, "bench", "--robots", "0")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "robots must be > 0")
}

func TestBenchConfigOverride(t *testing.T) {
	stdout, _, err := execute(t, "--set", "fleet.bench.robots=3", "--set", "fleet.bench.tasks_per_robot=2",
		"--set", "fleet.bench.work_duration=0s", "bench")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(lines(stdout)[1], "3,2,2,6,"))
}

func TestConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fleet.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
fleet:
  bench:
    robots: 1
    tasks_per_robot: 3
    zones: 3
    work_duration: 0s
`), 0644))

	stdout, _, err := execute(t, "--config", path, "bench")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(lines(stdout)[1], "1,3,3,3,"))
}

func TestInvalidConfigRejected(t *testing.T) {
	_, _, err := execute(t, "--set", "logging.level=loud", "bench")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "logging.level")

	_, _, err = execute(t, "--set", "fleet.demo.silence_after=0", "demo")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fleet.demo.silence_after")

	_, _, err = execute(t, "--set", "fleet.nothing=1", "bench")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "加载配置失败")
}

func TestStressSweep(t *testing.T) {
	stdout, stderr, err := execute(t, "stress", "--robots", "1,2", "--tasks", "3", "--zones", "0,1,2", "--work-ms", "0")
	require.NoError(t, err)

	out := lines(stdout)
	require.Len(t, out, 5)
	assert.Equal(t, strings.Join(report.Header, ","), out[0])
	assert.True(t, strings.HasPrefix(out[1], "1,3,1,3,"))
	assert.True(t, strings.HasPrefix(out[2], "1,3,2,3,"))
	assert.True(t, strings.HasPrefix(out[3], "2,3,1,6,"))
	assert.True(t, strings.HasPrefix(out[4], "2,3,2,6,"))
	assert.Contains(t, stderr, "stress warning: ignored 1 zone set(s) <= 0")
}

func TestStressErrors(t *testing.T) {
	tests := map[string][]string{
		"zero robots":    {"stress", "--robots", "0,2"},
		"zero tasks":     {"stress", "--tasks", "0"},
		"no valid zones": {"stress", "--zones", "0,-1"},
	}
	for name, args := range tests {
		t.Run(name, func(t *testing.T) {
			stdout, _, err := execute(t, args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "stress error")
			assert.Empty(t, stdout)
		})
	}
}

func TestConfigPrintsEffectiveConfig(t *testing.T) {
	t.Setenv("RF_BENCH_ZONES", "4")
	stdout, _, err := execute(t, "--set", "fleet.bench.robots=9", "config")
	require.NoError(t, err)

	var cfg config.Config
	require.NoError(t, yaml.Unmarshal([]byte(stdout), &cfg))
	assert.Equal(t, 9, cfg.Fleet.Bench.Robots)
	assert.Equal(t, 4, cfg.Fleet.Bench.Zones)
	assert.Equal(t, config.DefaultConfig().Fleet.Demo, cfg.Fleet.Demo)
}

func TestConfigRejectsInvalidOverride(t *testing.T) {
	stdout, _, err := execute(t, "--set", "fleet.bench.zones=0", "config")
	require.Error(t, err)
	assert.Empty(t, stdout)
}
