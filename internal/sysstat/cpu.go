// Package sysstat samples process resource usage for benchmark reports.
package sysstat

import (
	"fmt"
	"os"

	"github.com/shirou/gopsutil/v3/process"
)

// CPUTimes is the user and system CPU time consumed by the process, in seconds.
type CPUTimes struct {
	User   float64
	System float64
}

// Sub returns the CPU time spent between start and c.
func (c CPUTimes) Sub(start CPUTimes) CPUTimes {
	return CPUTimes{
		User:   c.User - start.User,
		System: c.System - start.System,
	}
}

// SampleCPU returns the CPU times of the current process.
func SampleCPU() (CPUTimes, error) {
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return CPUTimes{}, fmt.Errorf("open process: %w", err)
	}
	times, err := p.Times()
	if err != nil {
		return CPUTimes{}, fmt.Errorf("read cpu times: %w", err)
	}
	return CPUTimes{User: times.User, System: times.System}, nil
}
