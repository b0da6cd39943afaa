package datasource

import (
	"testing"
	"time"

	"sysdeck/internal/sysinfo"
)

func TestCPUPercent(t *testing.T) {
	tests := []struct {
		name        string
		prev, total float64
		elapsed     float64
		cores       int
		want        float64
	}{
		{"half a core of four", 10.0, 10.5, 1.0, 4, 12.5},
		{"idle", 10.0, 10.0, 1.0, 4, 0},
		{"clamped above 100", 0, 50, 1.0, 1, 100},
		{"pid reuse goes negative", 100, 2, 1.0, 4, 0},
		{"zero elapsed", 1, 2, 0, 4, 0},
		{"zero cores", 1, 2, 1.0, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := cpuPercent(tt.prev, tt.total, tt.elapsed, tt.cores)
			if diff := got - tt.want; diff > 1e-9 || diff < -1e-9 {
				t.Errorf("cpuPercent = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCPUWatchEvictsDeadPIDs(t *testing.T) {
	w := NewCPUWatch()
	w.now = func() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) }

	// Seed baselines for pids that no longer appear in the snapshot. The
	// pids in the snapshot itself do not need to exist; sampling them just
	// fails and is skipped.
	w.prev[999999991] = cpuSample{total: 1}
	w.prev[999999992] = cpuSample{total: 2}

	w.Apply([]*sysinfo.Process{{PID: 999999991, Name: "ghost"}})

	if _, ok := w.prev[999999992]; ok {
		t.Error("pid absent from the snapshot survived eviction")
	}
	if w.Tracked() > 1 {
		t.Errorf("tracked = %d, want at most 1", w.Tracked())
	}
}

func TestCPUWatchApplyOnEmptySnapshot(t *testing.T) {
	w := NewCPUWatch()
	w.prev[42] = cpuSample{total: 1}
	w.Apply(nil)
	if w.Tracked() != 0 {
		t.Errorf("tracked = %d after empty snapshot, want 0", w.Tracked())
	}
}
