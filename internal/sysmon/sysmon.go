// Package sysmon samples system-wide and per-process resource usage for the
// dashboard and verbose summaries.
package sysmon

import (
	"os"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"
	"github.com/shirou/gopsutil/v4/process"
)

// Stats holds a single snapshot of resource usage.
type Stats struct {
	CPUPercent float64 // system-wide, 0.0 .. 100.0
	MemPercent float64 // system-wide, 0.0 .. 100.0
	RSS        uint64  // resident set size of this process in bytes
}

// Sampler reads Stats. The zero value is not usable; call NewSampler.
type Sampler struct {
	proc *process.Process
}

// NewSampler returns a sampler bound to the current process. Process
// metrics are omitted when the process handle cannot be opened.
func NewSampler() *Sampler {
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		p = nil
	}
	return &Sampler{proc: p}
}

// Sample collects one snapshot. CPU uses interval=0, which measures the
// delta since the previous call. Fields stay zero on error.
func (s *Sampler) Sample() Stats {
	var st Stats
	if pcts, err := cpu.Percent(0, false); err == nil && len(pcts) > 0 {
		st.CPUPercent = pcts[0]
	}
	if vmem, err := mem.VirtualMemory(); err == nil && vmem != nil {
		st.MemPercent = vmem.UsedPercent
	}
	if s.proc != nil {
		if mi, err := s.proc.MemoryInfo(); err == nil && mi != nil {
			st.RSS = mi.RSS
		}
	}
	return st
}

// Sample is a shorthand for a one-off snapshot.
func Sample() Stats {
	return NewSampler().Sample()
}
