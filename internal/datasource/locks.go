package datasource

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/shirou/gopsutil/v3/process"

	"sysdeck/internal/sysinfo"
)

// LockReport is the outcome of a lock-holder search.
type LockReport struct {
	Holders      []*sysinfo.LockHolder
	IsDirectory  bool
	FilesScanned int
}

// FindLockHolders finds processes holding open handles on the given paths.
// raw is newline-separated path input; blank lines are ignored and empty
// input yields an empty report. When the input is a single directory its
// immediate files (non-recursive) are searched instead, and FilesScanned
// reports how many were considered.
func FindLockHolders(raw string) (*LockReport, error) {
	paths := splitPaths(raw)
	report := &LockReport{}
	if len(paths) == 0 {
		return report, nil
	}

	if len(paths) == 1 {
		fi, err := os.Stat(paths[0])
		if err != nil {
			return nil, &IOError{Path: paths[0], Err: err}
		}
		if fi.IsDir() {
			files, err := listDirFiles(paths[0])
			if err != nil {
				return nil, &IOError{Path: paths[0], Err: err}
			}
			report.IsDirectory = true
			report.FilesScanned = len(files)
			if len(files) == 0 {
				return report, nil
			}
			paths = files
		}
	}

	targets := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		c, err := canonicalPath(p)
		if err != nil {
			if report.IsDirectory {
				continue // file raced away between listing and resolving
			}
			return nil, &IOError{Path: p, Err: err}
		}
		targets[c] = struct{}{}
	}

	procs, err := process.Processes()
	if err != nil {
		return nil, &PlatformError{Op: "enumerate processes", Err: err}
	}
	for _, p := range procs {
		files, err := p.OpenFiles() // denied for foreign uids without root
		if err != nil {
			continue
		}
		for _, f := range files {
			if _, ok := targets[filepath.Clean(f.Path)]; !ok {
				continue
			}
			name, _ := p.Name()
			report.Holders = append(report.Holders, &sysinfo.LockHolder{
				PID:  p.Pid,
				Name: name,
				Path: f.Path,
			})
			break // one hit per process is enough
		}
	}

	sort.Slice(report.Holders, func(i, j int) bool {
		a, b := report.Holders[i], report.Holders[j]
		if a.Name != b.Name {
			return strings.ToLower(a.Name) < strings.ToLower(b.Name)
		}
		return a.PID < b.PID
	})
	return report, nil
}

// splitPaths turns raw multiline input into trimmed non-empty paths.
func splitPaths(raw string) []string {
	var out []string
	for _, line := range strings.Split(raw, "\n") {
		if p := strings.TrimSpace(line); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// listDirFiles returns the absolute paths of the regular files directly
// inside dir.
func listDirFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if e.Type().IsRegular() {
			out = append(out, filepath.Join(dir, e.Name()))
		}
	}
	return out, nil
}

// canonicalPath resolves p to the absolute symlink-free form that kernel
// open-file tables report.
func canonicalPath(p string) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", err
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", err
	}
	return filepath.Clean(resolved), nil
}
