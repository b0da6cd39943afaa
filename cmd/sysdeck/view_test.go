package main

import (
	"strings"
	"testing"
)

// plain strips ANSI escape sequences so tests can match on content.
func plain(s string) string {
	var b strings.Builder
	inEsc := false
	for _, r := range s {
		if r == '\x1b' {
			inEsc = true
			continue
		}
		if inEsc {
			if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
				inEsc = false
			}
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func TestTabIDString(t *testing.T) {
	tests := []struct {
		tab  tabID
		want string
	}{
		{tabProcesses, "Processes"},
		{tabServices, "Services"},
		{tabConnections, "Connections"},
		{tabID(99), "?"},
	}
	for _, tt := range tests {
		if got := tt.tab.String(); got != tt.want {
			t.Errorf("tabID(%d).String() = %q, want %q", int(tt.tab), got, tt.want)
		}
	}
}

func TestViewLoading(t *testing.T) {
	m, _ := newTestModel(t, testEnv())
	m.width = 0
	if out := m.View(); out != "Loading..." {
		t.Errorf("expected 'Loading...' when width=0, got %q", out)
	}
}

func TestViewProcessesTab(t *testing.T) {
	m, _ := newTestModel(t, testEnv())
	out := plain(m.View())

	for _, want := range []string{"Processes", "Services", "Connections", "nginx", "postgres", "sort: CPU ▼"} {
		if !strings.Contains(out, want) {
			t.Errorf("view missing %q", want)
		}
	}
	if !strings.Contains(out, "> ") {
		t.Error("view missing the selection cursor")
	}
}

func TestViewServicesTab(t *testing.T) {
	m, _ := newTestModel(t, testEnv())
	m = press(t, m, "tab")
	out := plain(m.View())

	for _, want := range []string{"ssh.service", "running", "backup.service", "stopped", "sort: Status ▲"} {
		if !strings.Contains(out, want) {
			t.Errorf("services view missing %q", want)
		}
	}
}

func TestViewConnectionsTab(t *testing.T) {
	m, _ := newTestModel(t, testEnv())
	m = press(t, m, "shift+tab")
	out := plain(m.View())

	for _, want := range []string{"127.0.0.1:80", "ESTABLISHED", "n/a", "nginx"} {
		if !strings.Contains(out, want) {
			t.Errorf("connections view missing %q", want)
		}
	}
}

func TestViewMetricFallback(t *testing.T) {
	env := testEnv()
	// nginx's live samples were reset by a refresh; the last-known values
	// must still be displayed.
	env.procs[1].CPU = 0
	env.procs[1].MemMB = 0
	env.procs[1].LastCPU = 42
	env.procs[1].LastMem = 256
	m, _ := newTestModel(t, env)
	out := plain(m.View())
	if !strings.Contains(out, "42.0%") {
		t.Error("cached CPU sample not rendered for a zero live sample")
	}
	if !strings.Contains(out, "256 MiB") {
		t.Error("cached memory sample not rendered for a zero live sample")
	}
}

func TestViewFilterIndicator(t *testing.T) {
	m, _ := newTestModel(t, testEnv())
	m.procs.SetFilter("ngi")
	out := plain(m.View())
	if !strings.Contains(out, `filter: "ngi"`) {
		t.Error("filter indicator missing")
	}
	if strings.Contains(out, "postgres") {
		t.Error("filtered-out row still rendered")
	}
}

func TestViewStatusMessage(t *testing.T) {
	m, _ := newTestModel(t, testEnv())
	m.setStatus("Process nginx (200) killed")
	out := plain(m.View())
	if !strings.Contains(out, "Process nginx (200) killed") {
		t.Error("status message not rendered")
	}
}

func TestViewKillModal(t *testing.T) {
	m, _ := newTestModel(t, testEnv())
	m = press(t, m, "K")
	out := plain(m.View())
	for _, want := range []string{"Kill process?", "nginx (pid 200)", "y: kill"} {
		if !strings.Contains(out, want) {
			t.Errorf("kill modal missing %q", want)
		}
	}
}

func TestViewLockSearchModal(t *testing.T) {
	m, _ := newTestModel(t, testEnv())
	m = press(t, m, "f")
	out := plain(m.View())
	for _, want := range []string{"Find lock holders", "enter: search"} {
		if !strings.Contains(out, want) {
			t.Errorf("lock search modal missing %q", want)
		}
	}

	// Results phase.
	m.modal.(*lockSearchModal).input.SetValue("/var/log/access.log")
	m2, cmd := pressCmd(t, m, "enter")
	nm, _ := m2.Update(cmd())
	m = nm.(uiModel)
	out = plain(m.View())
	for _, want := range []string{"nginx", "postgres", "/var/log/access.log"} {
		if !strings.Contains(out, want) {
			t.Errorf("lock results missing %q", want)
		}
	}
}

func TestViewSearchLine(t *testing.T) {
	m, _ := newTestModel(t, testEnv())
	m = press(t, m, "/", "n", "g")
	out := plain(m.View())
	if !strings.Contains(out, "ng") {
		t.Error("live search text not rendered")
	}
}

func TestViewTinyTerminal(t *testing.T) {
	m, _ := newTestModel(t, testEnv())
	m.width = 20
	m.height = 5
	out := m.View()
	if out == "" {
		t.Fatal("empty view")
	}
	for _, line := range strings.Split(plain(out), "\n") {
		if len([]rune(line)) > 20 {
			t.Fatalf("line wider than terminal: %q", line)
		}
	}
}

func TestTableWindow(t *testing.T) {
	tests := []struct {
		name               string
		total, cursor, h   int
		wantStart, wantEnd int
	}{
		{"fits", 5, 2, 10, 0, 5},
		{"cursor at top", 100, 0, 10, 0, 10},
		{"cursor centered", 100, 50, 10, 45, 55},
		{"cursor at bottom", 100, 99, 10, 90, 100},
		{"zero height", 3, 1, 0, 1, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := tableWindow(tt.total, tt.cursor, tt.h)
			if start != tt.wantStart || end != tt.wantEnd {
				t.Errorf("tableWindow(%d, %d, %d) = %d,%d want %d,%d",
					tt.total, tt.cursor, tt.h, start, end, tt.wantStart, tt.wantEnd)
			}
		})
	}
}

func TestClip(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"short", 10, "short"},
		{"exactly-ten", 11, "exactly-ten"},
		{"much-too-long-for-the-cell", 10, "much-to..."},
		{"abcdef", 3, "abc"},
	}
	for _, tt := range tests {
		if got := clip(tt.in, tt.n); got != tt.want {
			t.Errorf("clip(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}

func TestMemString(t *testing.T) {
	if got := memString(0); got != "-" {
		t.Errorf("memString(0) = %q, want -", got)
	}
	if got := memString(1); got != "1.0 MiB" {
		t.Errorf("memString(1) = %q, want 1.0 MiB", got)
	}
}

func TestAddrString(t *testing.T) {
	if got := addrString("", 0); got != "" {
		t.Errorf("addrString empty = %q", got)
	}
	if got := addrString("10.0.0.1", 443); got != "10.0.0.1:443" {
		t.Errorf("addrString = %q, want 10.0.0.1:443", got)
	}
}

func TestTruncateLines(t *testing.T) {
	in := "short\nthis line is far too wide for ten columns"
	out := truncateLines(in, 10)
	for _, line := range strings.Split(out, "\n") {
		if len([]rune(line)) > 10 {
			t.Errorf("line %q wider than 10", line)
		}
	}
	if truncateLines(in, 0) != in {
		t.Error("non-positive width must leave content alone")
	}
}
