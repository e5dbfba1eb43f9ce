// Package types holds the identifiers and the task model shared by the fleet packages.
package types

import (
	"fmt"
	"time"
)

// TaskID identifies a task. IDs are assigned monotonically by the driver.
type TaskID uint64

// RobotID identifies a robot worker.
type RobotID uint64

// ZoneID identifies an exclusive-use zone. Valid zones are fixed at startup.
type ZoneID uint64

// Task is a unit of work for a robot. It is immutable once created.
type Task struct {
	ID          TaskID        `json:"id" yaml:"id"`
	Zone        ZoneID        `json:"zone" yaml:"zone"`
	Description string        `json:"description" yaml:"description"`
	Work        time.Duration `json:"work" yaml:"work"`
}

// NewTask creates a task targeting zone and taking work to complete.
func NewTask(id TaskID, zone ZoneID, description string, work time.Duration) Task {
	return Task{
		ID:          id,
		Zone:        zone,
		Description: description,
		Work:        work,
	}
}

// ZoneFor maps a task id onto the 1-based zone range [1, zones].
func ZoneFor(id TaskID, zones int) ZoneID {
	if zones <= 0 {
		return 0
	}
	return ZoneID(uint64(id)%uint64(zones)) + 1
}

// ZoneRange returns the zone ids 1..zones.
func ZoneRange(zones int) []ZoneID {
	ids := make([]ZoneID, 0, zones)
	for i := 1; i <= zones; i++ {
		ids = append(ids, ZoneID(i))
	}
	return ids
}

func (t Task) String() string {
	return fmt.Sprintf("task-%d(zone=%d)", t.ID, t.Zone)
}
