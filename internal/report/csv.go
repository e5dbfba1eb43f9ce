// Package report renders fleet run reports as CSV rows, JSON documents and
// the demo summary.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"sync"

	"yqhp/robot-fleet/internal/fleet"
)

// Header lists the CSV columns, one row per run.
var Header = []string{
	"robots",
	"tasks_per_robot",
	"zones",
	"total_tasks",
	"elapsed_ms",
	"throughput_tasks_per_s",
	"avg_zone_wait_us",
	"cpu_user_s",
	"cpu_sys_s",
	"max_occupancy",
	"zone_violation",
	"duplicate_tasks",
	"offline_robots",
}

// notAvailable stands in for CPU times that could not be sampled.
const notAvailable = "NA"

// CSVWriter writes one header followed by a row per report.
type CSVWriter struct {
	mu            sync.Mutex
	writer        *csv.Writer
	headerWritten bool
}

// NewCSVWriter creates a CSV writer on w.
func NewCSVWriter(w io.Writer) *CSVWriter {
	return &CSVWriter{writer: csv.NewWriter(w)}
}

// WriteHeader writes the header row if it has not been written yet.
func (c *CSVWriter) WriteHeader() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.writeHeaderLocked()
}

func (c *CSVWriter) writeHeaderLocked() error {
	if c.headerWritten {
		return nil
	}
	if err := c.writer.Write(Header); err != nil {
		return fmt.Errorf("写入头部失败: %w", err)
	}
	c.headerWritten = true
	c.writer.Flush()
	return c.writer.Error()
}

// Write appends the row of r, writing the header first when needed.
func (c *CSVWriter) Write(r *fleet.Report) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.writeHeaderLocked(); err != nil {
		return err
	}
	if err := c.writer.Write(Row(r)); err != nil {
		return fmt.Errorf("写入记录失败: %w", err)
	}
	c.writer.Flush()
	return c.writer.Error()
}

// Row formats r in Header order.
func Row(r *fleet.Report) []string {
	cpuUser, cpuSys := notAvailable, notAvailable
	if r.CPU != nil {
		cpuUser = strconv.FormatFloat(r.CPU.User, 'f', 4, 64)
		cpuSys = strconv.FormatFloat(r.CPU.System, 'f', 4, 64)
	}
	return []string{
		strconv.Itoa(r.Robots),
		strconv.Itoa(r.TasksPerRobot),
		strconv.Itoa(r.Zones),
		strconv.Itoa(r.TotalTasks),
		strconv.FormatFloat(millis(r.Elapsed), 'f', 2, 64),
		strconv.FormatFloat(r.Throughput, 'f', 2, 64),
		strconv.FormatFloat(micros(r.AvgZoneWait), 'f', 2, 64),
		cpuUser,
		cpuSys,
		strconv.Itoa(r.MaxOccupancy),
		strconv.FormatBool(r.ZoneViolation),
		strconv.Itoa(r.DuplicateTasks),
		strconv.Itoa(r.OfflineCount()),
	}
}

// WriteDiagnostics writes the stderr annotations of a run: leftover tasks
// always, violations only when validate is set.
func WriteDiagnostics(w io.Writer, r *fleet.Report, validate bool) error {
	if r.Leftover > 0 {
		if _, err := fmt.Fprintf(w, "# warning,leftover_tasks,%d\n", r.Leftover); err != nil {
			return err
		}
	}
	if !validate {
		return nil
	}
	if r.ZoneViolation {
		if _, err := fmt.Fprintln(w, "# violation,zone_exclusivity"); err != nil {
			return err
		}
	}
	if r.DuplicateTasks > 0 {
		if _, err := fmt.Fprintln(w, "# violation,duplicate_tasks"); err != nil {
			return err
		}
	}
	return nil
}
