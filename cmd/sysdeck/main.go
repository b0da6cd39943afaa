// sysdeck is an interactive terminal dashboard over processes, services, and
// network connections, with a finder for processes holding files open.
//
// Usage:
//
//	sysdeck                     # Launch the dashboard
//	sysdeck --refresh 5s        # Entity snapshot interval
//	sysdeck --metrics 2s        # CPU/memory sampling interval
//	sysdeck --debug             # Write a debug log to sysdeck.log
//	sysdeck --version           # Print version and exit
//
// Killing processes and starting/stopping services require root.
package main

import (
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"sysdeck/internal/schedule"
)

// Version is set via ldflags at build time (e.g. -X main.Version=v0.1.0).
var Version = "dev"

func main() {
	refreshDur := flag.Duration("refresh", schedule.DefaultDataInterval, "entity snapshot interval")
	metricsDur := flag.Duration("metrics", schedule.DefaultMetricsInterval, "cpu/memory sampling interval")
	debugFlag := flag.Bool("debug", false, "write a debug log to sysdeck.log")
	versionFlag := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *versionFlag {
		fmt.Printf("sysdeck %s\n", Version)
		os.Exit(0)
	}

	if *debugFlag {
		f, err := tea.LogToFile("sysdeck.log", "sysdeck")
		if err != nil {
			fmt.Fprintf(os.Stderr, "sysdeck: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
	}

	sched := schedule.New(*refreshDur, *metricsDur)
	m := newModel(osSources(), sched, os.Geteuid() == 0)
	m.refreshAll()
	m.lastRefresh = m.now()
	if !m.elevated {
		m.setStatus("running without root: kill and service control are disabled")
	}

	p := tea.NewProgram(m, tea.WithAltScreen())

	// Forward scheduler events into the update loop.
	go func() {
		for k := range sched.Events() {
			p.Send(schedMsg{kind: k})
		}
	}()

	if _, err := p.Run(); err != nil {
		sched.Stop()
		fmt.Fprintf(os.Stderr, "sysdeck: %v\n", err)
		os.Exit(1)
	}
	sched.Stop()
}
