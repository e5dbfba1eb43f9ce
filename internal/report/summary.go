package report

import (
	"fmt"
	"io"

	"yqhp/robot-fleet/internal/fleet"
)

// WriteDemoSummary writes the key=value block printed at the end of a demo.
func WriteDemoSummary(w io.Writer, r *fleet.Report) error {
	_, err := fmt.Fprintf(w,
		"DEMO SUMMARY\n"+
			"robots=%d tasks_total=%d\n"+
			"tasks_per_robot_done=%v\n"+
			"max_zone_occupancy_observed=%d\n"+
			"zone_violation=%t\n"+
			"offline_robots=%v\n",
		r.Robots, r.TotalTasks,
		r.PerRobotTasks,
		r.MaxOccupancy,
		r.ZoneViolation,
		r.OfflineRobots,
	)
	return err
}
