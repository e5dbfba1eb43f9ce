package report

import (
	"fmt"
	"io"
	"time"

	"github.com/bytedance/sonic"

	"yqhp/robot-fleet/internal/fleet"
)

// Document is the JSON form of a run report.
type Document struct {
	RunID               string          `json:"run_id"`
	Robots              int             `json:"robots"`
	TasksPerRobot       int             `json:"tasks_per_robot"`
	Zones               int             `json:"zones"`
	TotalTasks          int             `json:"total_tasks"`
	Processed           int             `json:"processed"`
	Leftover            int             `json:"leftover_tasks"`
	PerRobotTasks       []int           `json:"per_robot_tasks"`
	ElapsedMS           float64         `json:"elapsed_ms"`
	ThroughputTasksPerS float64         `json:"throughput_tasks_per_s"`
	AvgZoneWaitUS       float64         `json:"avg_zone_wait_us"`
	P99ZoneWaitUS       float64         `json:"p99_zone_wait_us"`
	MaxZoneWaitUS       float64         `json:"max_zone_wait_us"`
	CPUUserS            *float64        `json:"cpu_user_s"`
	CPUSysS             *float64        `json:"cpu_sys_s"`
	MaxOccupancy        int             `json:"max_occupancy"`
	ZoneOccupancy       []ZoneOccupancy `json:"zone_occupancy"`
	ZoneViolation       bool            `json:"zone_violation"`
	DuplicateTasks      int             `json:"duplicate_tasks"`
	OfflineRobots       []uint64        `json:"offline_robots"`
	KnownRobots         int             `json:"known_robots"`
}

// ZoneOccupancy is the per-zone maximum occupancy.
type ZoneOccupancy struct {
	Zone uint64 `json:"zone"`
	Max  int    `json:"max"`
}

// NewDocument converts r. CPU fields are null when unavailable.
func NewDocument(r *fleet.Report) *Document {
	d := &Document{
		RunID:               r.RunID,
		Robots:              r.Robots,
		TasksPerRobot:       r.TasksPerRobot,
		Zones:               r.Zones,
		TotalTasks:          r.TotalTasks,
		Processed:           r.Processed,
		Leftover:            r.Leftover,
		PerRobotTasks:       r.PerRobotTasks,
		ElapsedMS:           millis(r.Elapsed),
		ThroughputTasksPerS: r.Throughput,
		AvgZoneWaitUS:       micros(r.AvgZoneWait),
		P99ZoneWaitUS:       micros(r.P99ZoneWait),
		MaxZoneWaitUS:       micros(r.MaxZoneWait),
		MaxOccupancy:        r.MaxOccupancy,
		ZoneOccupancy:       make([]ZoneOccupancy, 0, len(r.ZoneOccupancy)),
		ZoneViolation:       r.ZoneViolation,
		DuplicateTasks:      r.DuplicateTasks,
		OfflineRobots:       make([]uint64, 0, len(r.OfflineRobots)),
		KnownRobots:         r.KnownRobots,
	}
	if r.CPU != nil {
		user, sys := r.CPU.User, r.CPU.System
		d.CPUUserS, d.CPUSysS = &user, &sys
	}
	for _, z := range r.ZoneOccupancy {
		d.ZoneOccupancy = append(d.ZoneOccupancy, ZoneOccupancy{Zone: uint64(z.Zone), Max: z.Max})
	}
	for _, id := range r.OfflineRobots {
		d.OfflineRobots = append(d.OfflineRobots, uint64(id))
	}
	return d
}

// WriteJSON writes r as an indented JSON document followed by a newline.
func WriteJSON(w io.Writer, r *fleet.Report) error {
	data, err := sonic.MarshalIndent(NewDocument(r), "", "  ")
	if err != nil {
		return fmt.Errorf("序列化报告失败: %w", err)
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}

func millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

func micros(d time.Duration) float64 {
	return float64(d) / float64(time.Microsecond)
}
