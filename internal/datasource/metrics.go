package datasource

import (
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/process"

	"sysdeck/internal/sysinfo"
)

// cpuSample is one observation of a process's cumulative CPU time.
type cpuSample struct {
	total float64 // user+system seconds
	at    time.Time
}

// CPUWatch computes per-process CPU percentages from consecutive samples of
// cumulative CPU time. It is owned by the orchestrator and updated from the
// single event loop, so it needs no locking. Entries for pids missing from
// the latest snapshot are evicted, keeping the sample map bounded by the
// live process count.
type CPUWatch struct {
	prev  map[int32]cpuSample
	cores int
	now   func() time.Time
}

func NewCPUWatch() *CPUWatch {
	return &CPUWatch{
		prev:  make(map[int32]cpuSample),
		cores: runtime.NumCPU(),
		now:   time.Now,
	}
}

// Apply samples CPU time and resident memory for every row, updating the
// rows in place. The first sighting of a pid yields no percentage; it seeds
// the baseline for the next pass.
func (w *CPUWatch) Apply(rows []*sysinfo.Process) {
	now := w.now()
	seen := make(map[int32]struct{}, len(rows))
	for _, r := range rows {
		seen[r.PID] = struct{}{}
		p, err := process.NewProcess(r.PID)
		if err != nil {
			continue
		}
		if t, err := p.Times(); err == nil {
			total := t.User + t.System
			if prev, ok := w.prev[r.PID]; ok {
				pct := cpuPercent(prev.total, total, now.Sub(prev.at).Seconds(), w.cores)
				r.CPU = pct
				if pct > 0 {
					r.LastCPU = pct
				}
			}
			w.prev[r.PID] = cpuSample{total: total, at: now}
		}
		if mi, err := p.MemoryInfo(); err == nil && mi != nil {
			mb := float64(mi.RSS) / (1 << 20)
			r.MemMB = mb
			if mb > 0 {
				r.LastMem = mb
			}
		}
	}
	for pid := range w.prev {
		if _, ok := seen[pid]; !ok {
			delete(w.prev, pid)
		}
	}
}

// Tracked returns how many pids currently have a baseline sample.
func (w *CPUWatch) Tracked() int { return len(w.prev) }

// cpuPercent converts a CPU-time delta over a wall-clock interval into a
// whole-machine percentage, clamped to [0, 100]. Negative deltas (pid reuse)
// and non-positive intervals yield 0.
func cpuPercent(prevTotal, total, elapsed float64, cores int) float64 {
	if elapsed <= 0 || cores <= 0 {
		return 0
	}
	pct := (total - prevTotal) / elapsed / float64(cores) * 100
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}
