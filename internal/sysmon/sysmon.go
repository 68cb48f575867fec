// Package sysmon samples host CPU and memory usage for the explorer's
// metrics panel.
package sysmon

import (
	"sync"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"
)

// Stats holds a single snapshot of system-wide resource usage.
type Stats struct {
	CPUPercent float64 // 0.0 .. 100.0
	MemPercent float64 // 0.0 .. 100.0
	MemUsed    uint64  // bytes
	MemTotal   uint64  // bytes
}

// Sample collects a single system-wide CPU and memory snapshot.
// CPU uses interval=0 (delta since last call). Fields are left at zero
// when the platform cannot report them.
func Sample() Stats {
	var s Stats
	if pcts, err := cpu.Percent(0, false); err == nil && len(pcts) > 0 {
		s.CPUPercent = clampPercent(pcts[0])
	}
	if vmem, err := mem.VirtualMemory(); err == nil && vmem != nil {
		s.MemPercent = clampPercent(vmem.UsedPercent)
		s.MemUsed = vmem.Used
		s.MemTotal = vmem.Total
	}
	return s
}

// Sampler rate-limits Sample. The explorer asks on every tick, but a CPU
// delta taken over a few milliseconds is mostly noise.
type Sampler struct {
	mu       sync.Mutex
	interval time.Duration
	sample   func() Stats
	last     Stats
	lastAt   time.Time
}

// NewSampler returns a Sampler that refreshes at most once per interval.
func NewSampler(interval time.Duration) *Sampler {
	return &Sampler{interval: interval, sample: Sample}
}

// Stats returns the cached snapshot, refreshing it when it is older than
// the interval.
func (s *Sampler) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastAt.IsZero() || time.Since(s.lastAt) >= s.interval {
		s.last = s.sample()
		s.lastAt = time.Now()
	}
	return s.last
}

func clampPercent(p float64) float64 {
	return min(max(p, 0), 100)
}
