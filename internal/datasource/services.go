package datasource

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"sysdeck/internal/sysinfo"
)

// listUnitsEntry is one element of `systemctl list-units -o json`.
type listUnitsEntry struct {
	Unit        string `json:"unit"`
	Load        string `json:"load"`
	Active      string `json:"active"`
	Sub         string `json:"sub"`
	Description string `json:"description"`
}

// listUnitFilesEntry is one element of `systemctl list-unit-files -o json`.
type listUnitFilesEntry struct {
	UnitFile string `json:"unit_file"`
	State    string `json:"state"`
}

// Services enumerates systemd service units: loaded units merged with the
// installed unit files (which contribute the enable state and units that are
// installed but not loaded), plus main pids resolved in one batched call.
func Services(ctx context.Context) ([]*sysinfo.Service, error) {
	unitsRaw, err := systemctlOutput(ctx, "list-units", "--type=service", "--all")
	if err != nil {
		return nil, err
	}
	filesRaw, err := systemctlOutput(ctx, "list-unit-files", "--type=service")
	if err != nil {
		return nil, err
	}

	services, err := parseServices(unitsRaw, filesRaw)
	if err != nil {
		return nil, err
	}

	// Batch-resolve main pids for units that are actually running.
	var running []string
	for _, s := range services {
		if s.Status == "running" {
			running = append(running, s.Name)
		}
	}
	if len(running) > 0 {
		if raw, err := systemctlOutput(ctx, append([]string{"show", "-p", "Id,MainPID"}, running...)...); err == nil {
			pids := parseShowPIDs(raw)
			for _, s := range services {
				if pid, ok := pids[s.Name]; ok {
					s.PID = pid
				}
			}
		}
	}
	return services, nil
}

// parseServices merges the unit listing with the unit-file listing into
// service rows. Units present in both take their state from the live unit;
// file-only units appear as stopped.
func parseServices(unitsRaw, filesRaw []byte) ([]*sysinfo.Service, error) {
	var units []listUnitsEntry
	if err := json.Unmarshal(unitsRaw, &units); err != nil {
		return nil, &PlatformError{Op: "decode list-units", Err: err}
	}
	var files []listUnitFilesEntry
	if err := json.Unmarshal(filesRaw, &files); err != nil {
		return nil, &PlatformError{Op: "decode list-unit-files", Err: err}
	}

	enableState := make(map[string]string, len(files))
	for _, f := range files {
		enableState[f.UnitFile] = f.State
	}

	byName := make(map[string]*sysinfo.Service, len(units))
	out := make([]*sysinfo.Service, 0, len(units)+len(files))
	for _, u := range units {
		if u.Load == "not-found" {
			continue
		}
		s := &sysinfo.Service{
			Name:        u.Unit,
			DisplayName: u.Description,
			Status:      serviceStatus(u.Active, u.Sub),
			Kind:        enableState[u.Unit],
		}
		byName[u.Unit] = s
		out = append(out, s)
	}
	for _, f := range files {
		if _, ok := byName[f.UnitFile]; ok {
			continue
		}
		if !strings.HasSuffix(f.UnitFile, ".service") || strings.Contains(f.UnitFile, "@") {
			continue // template units have no standalone state
		}
		out = append(out, &sysinfo.Service{
			Name:        f.UnitFile,
			DisplayName: strings.TrimSuffix(f.UnitFile, ".service"),
			Status:      "stopped",
			Kind:        f.State,
		})
	}
	return out, nil
}

// serviceStatus maps a systemd active/sub state pair onto the dashboard's
// service states.
func serviceStatus(active, sub string) string {
	switch active {
	case "activating", "reloading":
		return "start-pending"
	case "deactivating":
		return "stop-pending"
	case "active":
		if sub == "exited" {
			return "stopped"
		}
		return "running"
	case "inactive":
		return "stopped"
	default:
		return active // "failed" and anything future sorts after the known set
	}
}

// parseShowPIDs reads `systemctl show -p Id,MainPID unit...` output: blocks
// of Key=Value lines, one block per unit, separated by blank lines.
func parseShowPIDs(raw []byte) map[string]int32 {
	out := make(map[string]int32)
	var id string
	var pid int32
	flush := func() {
		if id != "" && pid > 0 {
			out[id] = pid
		}
		id, pid = "", 0
	}
	for _, line := range strings.Split(string(raw), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			flush()
			continue
		}
		k, v, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		switch k {
		case "Id":
			id = v
		case "MainPID":
			if n, err := strconv.Atoi(v); err == nil {
				pid = int32(n)
			}
		}
	}
	flush()
	return out
}

// ToggleService stops a running service or starts a stopped one, returning
// the verb performed. Transitional states are left alone and return "".
func ToggleService(ctx context.Context, svc *sysinfo.Service) (string, error) {
	var verb, done string
	switch svc.Status {
	case "running":
		verb, done = "stop", "stopped"
	case "stopped":
		verb, done = "start", "started"
	default:
		return "", nil
	}
	if _, err := systemctlOutput(ctx, verb, svc.Name); err != nil {
		return "", err
	}
	return done, nil
}

func systemctlOutput(ctx context.Context, args ...string) ([]byte, error) {
	base := []string{"--no-pager", "--plain", "-o", "json"}
	// show and start/stop do not speak JSON.
	if len(args) > 0 && (args[0] == "show" || args[0] == "start" || args[0] == "stop") {
		base = []string{"--no-pager"}
	}
	cmd := exec.CommandContext(ctx, "systemctl", append(base, args...)...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			err = fmt.Errorf("%w: %s", err, msg)
		}
		return nil, &PlatformError{Op: "systemctl " + args[0], Err: err}
	}
	return out, nil
}
