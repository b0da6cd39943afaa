// Package datasource produces the OS snapshots behind each dashboard tab and
// carries out the actions taken on them: killing processes, toggling
// services, and locating open-handle holders.
package datasource

import (
	"fmt"

	"github.com/shirou/gopsutil/v3/process"

	"sysdeck/internal/sysinfo"
)

// Processes enumerates running processes. Rows carry identity only; the
// metrics pass fills in CPU and memory samples. Processes that vanish or
// deny access mid-enumeration are skipped.
func Processes() ([]*sysinfo.Process, error) {
	procs, err := process.Processes()
	if err != nil {
		return nil, &PlatformError{Op: "enumerate processes", Err: err}
	}
	out := make([]*sysinfo.Process, 0, len(procs))
	for _, p := range procs {
		name, err := p.Name()
		if err != nil || name == "" {
			continue
		}
		exe, _ := p.Exe() // often permission-denied for foreign uids
		out = append(out, &sysinfo.Process{PID: p.Pid, Name: name, Path: exe})
	}
	return out, nil
}

// KillProcess terminates the process with the given pid.
func KillProcess(pid int32) error {
	p, err := process.NewProcess(pid)
	if err != nil {
		return fmt.Errorf("pid %d: %w", pid, ErrNotFound)
	}
	if err := p.Kill(); err != nil {
		return &PlatformError{Op: fmt.Sprintf("kill pid %d", pid), Err: err}
	}
	return nil
}

// PIDNames builds a pid to process-name index from a process snapshot, used
// to resolve connection and lock-holder owners.
func PIDNames(rows []*sysinfo.Process) map[int32]string {
	m := make(map[int32]string, len(rows))
	for _, r := range rows {
		m[r.PID] = r.Name
	}
	return m
}
