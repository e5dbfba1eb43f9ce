package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestZoneFor(t *testing.T) {
	assert.Equal(t, ZoneID(1), ZoneFor(0, 2))
	assert.Equal(t, ZoneID(2), ZoneFor(1, 2))
	assert.Equal(t, ZoneID(1), ZoneFor(2, 2))
	assert.Equal(t, ZoneID(1), ZoneFor(7, 1))
	assert.Equal(t, ZoneID(0), ZoneFor(3, 0))
}

func TestZoneRange(t *testing.T) {
	assert.Equal(t, []ZoneID{1, 2, 3}, ZoneRange(3))
	assert.Empty(t, ZoneRange(0))
}

func TestNewTask(t *testing.T) {
	task := NewTask(4, 2, "deliver-4", 5*time.Millisecond)
	assert.Equal(t, TaskID(4), task.ID)
	assert.Equal(t, ZoneID(2), task.Zone)
	assert.Equal(t, "deliver-4", task.Description)
	assert.Equal(t, 5*time.Millisecond, task.Work)
	assert.Equal(t, "task-4(zone=2)", task.String())
}
