package metrics

import (
	"runtime"
	"time"
)

// MemorySnapshot holds a point-in-time memory reading.
type MemorySnapshot struct {
	HeapAlloc    uint64 // bytes in use by application
	HeapSys      uint64 // bytes obtained from OS for heap
	Sys          uint64 // total bytes obtained from OS
	NumGC        uint32 // number of completed GC cycles
	PauseTotalNs uint64 // cumulative GC pause time
	HeapObjects  uint64 // number of allocated heap objects
	TotalAlloc   uint64 // cumulative bytes allocated
}

// MemoryDelta is the change between two snapshots taken around a render.
type MemoryDelta struct {
	Allocated uint64        // bytes allocated in between
	GCCycles  uint32        // collections that ran in between
	GCPause   time.Duration // pause time accumulated in between
	PeakHeap  uint64        // larger HeapAlloc of the two readings
}

// MemoryCollector reads runtime memory statistics.
type MemoryCollector struct{}

// NewMemoryCollector creates a new memory collector.
func NewMemoryCollector() *MemoryCollector {
	return &MemoryCollector{}
}

// Snapshot reads current memory statistics.
func (mc *MemoryCollector) Snapshot() MemorySnapshot {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return MemorySnapshot{
		HeapAlloc:    m.HeapAlloc,
		HeapSys:      m.HeapSys,
		Sys:          m.Sys,
		NumGC:        m.NumGC,
		PauseTotalNs: m.PauseTotalNs,
		HeapObjects:  m.HeapObjects,
		TotalAlloc:   m.TotalAlloc,
	}
}

// Since returns what changed between before and s.
func (s MemorySnapshot) Since(before MemorySnapshot) MemoryDelta {
	return MemoryDelta{
		Allocated: s.TotalAlloc - before.TotalAlloc,
		GCCycles:  s.NumGC - before.NumGC,
		GCPause:   time.Duration(s.PauseTotalNs - before.PauseTotalNs),
		PeakHeap:  max(s.HeapAlloc, before.HeapAlloc),
	}
}
