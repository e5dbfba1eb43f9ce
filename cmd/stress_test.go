package cmd

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"yqhp/robot-fleet/internal/fleet"
)

func TestExpandOrder(t *testing.T) {
	base := fleet.BenchConfig()
	runs := expand(base, []int{1, 4}, []int{10}, []int{1, 2})

	var got [][3]int
	for _, r := range runs {
		got = append(got, [3]int{r.Robots, r.TasksPerRobot, r.Zones})
		assert.Equal(t, 5*time.Millisecond, r.WorkDuration)
	}
	assert.Equal(t, [][3]int{{1, 10, 1}, {1, 10, 2}, {4, 10, 1}, {4, 10, 2}}, got)
}

func TestExpandClampsSilencedRobot(t *testing.T) {
	base := fleet.BenchConfig()
	base.SimulateOffline = true
	base.SilencedRobot = 3

	runs := expand(base, []int{2, 8}, []int{1}, []int{1})
	assert.Equal(t, 0, int(runs[0].SilencedRobot))
	assert.Equal(t, 3, int(runs[1].SilencedRobot))
	for _, r := range runs {
		assert.NoError(t, r.Validate())
	}
}

func TestCheckSets(t *testing.T) {
	assert.NoError(t, checkSets([]int{1}, []int{1}))
	assert.Error(t, checkSets(nil, []int{1}))
	assert.Error(t, checkSets([]int{1, 0}, []int{1}))
	assert.Error(t, checkSets([]int{1}, nil))
	assert.Error(t, checkSets([]int{1}, []int{-3}))
}
