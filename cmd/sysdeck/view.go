package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/dustin/go-humanize"

	"sysdeck/internal/sysinfo"
)

// --- Styles ---

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#89DCEB")).
			Background(lipgloss.Color("#1E1E2E")).
			Padding(0, 1)

	tabActiveStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#1E1E2E")).
			Background(lipgloss.Color("#89DCEB")).
			Padding(0, 1)

	tabInactiveStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#6C7086")).
				Background(lipgloss.Color("#313244")).
				Padding(0, 1)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#89B4FA"))

	runningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#A6E3A1"))

	stoppedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6C7086"))

	failedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F38BA8")).
			Bold(true)

	pendingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F9E2AF"))

	selectedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#CDD6F4"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6C7086"))

	statusBarStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#CDD6F4")).
			Background(lipgloss.Color("#1E1E2E"))

	statusMsgStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F9E2AF")).
			Bold(true)

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#89DCEB")).
			Padding(1, 2)

	errStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F38BA8"))
)

// --- Top-level view ---

func (m uiModel) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	var b strings.Builder
	b.WriteString(m.renderTitleBar())
	b.WriteRune('\n')
	b.WriteString(m.renderTabBar())
	b.WriteRune('\n')

	contentHeight := m.height - 4 // title + tabs + search/gap + status bar
	if m.showHelp {
		contentHeight -= 4
	}
	if contentHeight < 1 {
		contentHeight = 1
	}

	var content string
	if m.modal != nil {
		content = lipgloss.Place(m.width, contentHeight, lipgloss.Center, lipgloss.Center, m.renderModal())
	} else {
		content = m.renderTable(contentHeight)
	}
	b.WriteString(content)

	// Pad so the status bar sits on the bottom row.
	rendered := strings.Count(b.String(), "\n")
	for rendered < m.height-2 {
		b.WriteRune('\n')
		rendered++
	}

	if m.searchMode {
		b.WriteString(m.search.View())
	} else {
		b.WriteString(" ")
	}
	b.WriteRune('\n')

	if m.showHelp {
		b.WriteString(m.help.View(keys))
	} else {
		b.WriteString(m.renderStatusBar())
	}
	// Top bars and the status line can overflow on narrow terminals too.
	return truncateLines(b.String(), m.width)
}

func (m uiModel) renderTitleBar() string {
	title := titleStyle.Render("sysdeck")
	who := "user"
	if m.elevated {
		who = "root"
	}
	stats := dimStyle.Render(fmt.Sprintf(
		"%d processes | %d services | %d connections | %s",
		m.procs.Len(), m.svcs.Len(), m.conns.Len(), who,
	))
	gap := strings.Repeat(" ", max(0, m.width-lipgloss.Width(title)-lipgloss.Width(stats)-2))
	return title + gap + stats
}

func (m uiModel) renderTabBar() string {
	tabs := make([]string, 0, tabCount)
	for t := tabID(0); t < tabCount; t++ {
		if t == m.tab {
			tabs = append(tabs, tabActiveStyle.Render(t.String()))
		} else {
			tabs = append(tabs, tabInactiveStyle.Render(t.String()))
		}
	}
	bar := strings.Join(tabs, " ")

	// Sort and filter indicators for the active tab.
	cur := m.current()
	arrow := "▲"
	if cur.Descending() {
		arrow = "▼"
	}
	info := fmt.Sprintf("sort: %s %s", cur.SortName(), arrow)
	if f := cur.Filter(); f != "" {
		info += fmt.Sprintf(" | filter: %q", f)
	}
	if m.searchMode {
		info += fmt.Sprintf(" | searching: %q", m.search.Value())
	}
	return bar + "  " + dimStyle.Render(info)
}

func (m uiModel) renderStatusBar() string {
	var left string
	if m.status != "" {
		left = " " + statusMsgStyle.Render(m.status)
	} else {
		left = " " + contextHelp(m.tab, m.elevated)
	}
	right := ""
	if !m.lastRefresh.IsZero() {
		right = fmt.Sprintf("refreshed %s ago ", time.Since(m.lastRefresh).Truncate(time.Second))
	}
	gap := strings.Repeat(" ", max(0, m.width-lipgloss.Width(left)-lipgloss.Width(right)))
	return statusBarStyle.Render(left + gap + right)
}

// --- Tables ---

func (m uiModel) renderTable(height int) string {
	query := m.query(m.tab)
	var header string
	var lines []string
	switch m.tab {
	case tabServices:
		header, lines = m.renderServices(query, height-1)
	case tabConnections:
		header, lines = m.renderConnections(query, height-1)
	default:
		header, lines = m.renderProcesses(query, height-1)
	}
	var b strings.Builder
	b.WriteString(headerStyle.Render(header))
	b.WriteRune('\n')
	if len(lines) == 0 {
		if m.current().Loaded() {
			b.WriteString(dimStyle.Render("  (no matches)"))
		} else {
			b.WriteString(dimStyle.Render("  (loading)"))
		}
		b.WriteRune('\n')
	}
	for _, l := range lines {
		b.WriteString(l)
		b.WriteRune('\n')
	}
	return b.String()
}

// tableWindow picks the slice of visible positions to draw so the cursor
// stays on screen.
func tableWindow(total, cursor, height int) (start, end int) {
	if height <= 0 {
		height = 1
	}
	if total <= height {
		return 0, total
	}
	start = cursor - height/2
	if start < 0 {
		start = 0
	}
	if start > total-height {
		start = total - height
	}
	return start, start + height
}

func (m uiModel) renderProcesses(query string, height int) (string, []string) {
	header := fmt.Sprintf("  %7s  %-24s  %7s  %10s  %s", "PID", "Name", "CPU", "Mem", "Path")
	vis := m.procs.VisibleIndexes(query)
	cursor := m.procs.Cursor(query)
	items := m.procs.Items()

	start, end := tableWindow(len(vis), cursor, height)
	lines := make([]string, 0, end-start)
	for pos := start; pos < end; pos++ {
		p := items[vis[pos]]
		line := fmt.Sprintf("%7d  %-24s  %6.1f%%  %10s  %s",
			p.PID, clip(p.Name, 24), p.EffectiveCPU(), memString(p.EffectiveMem()), p.Path)
		lines = append(lines, cursorLine(line, pos == cursor))
	}
	return header, lines
}

func (m uiModel) renderServices(query string, height int) (string, []string) {
	header := fmt.Sprintf("  %-40s  %-14s  %-9s  %7s  %s", "Unit", "Status", "Enable", "PID", "Description")
	vis := m.svcs.VisibleIndexes(query)
	cursor := m.svcs.Cursor(query)
	items := m.svcs.Items()

	start, end := tableWindow(len(vis), cursor, height)
	lines := make([]string, 0, end-start)
	for pos := start; pos < end; pos++ {
		s := items[vis[pos]]
		pid := ""
		if s.PID > 0 {
			pid = fmt.Sprintf("%d", s.PID)
		}
		line := fmt.Sprintf("%-40s  %s  %-9s  %7s  %s",
			clip(s.Name, 40), serviceStatusCell(s.Status), clip(s.Kind, 9), pid, s.DisplayName)
		lines = append(lines, cursorLine(line, pos == cursor))
	}
	return header, lines
}

func (m uiModel) renderConnections(query string, height int) (string, []string) {
	// Column widths keep the process name inside an 80-column terminal.
	header := fmt.Sprintf("  %-5s  %-20s  %-20s  %-11s  %6s  %s", "Proto", "Local", "Remote", "State", "PID", "Process")
	vis := m.conns.VisibleIndexes(query)
	cursor := m.conns.Cursor(query)
	items := m.conns.Items()

	start, end := tableWindow(len(vis), cursor, height)
	lines := make([]string, 0, end-start)
	for pos := start; pos < end; pos++ {
		c := items[vis[pos]]
		line := fmt.Sprintf("%-5s  %-20s  %-20s  %s  %6d  %s",
			c.Protocol,
			clip(addrString(c.LocalAddr, c.LocalPort), 20),
			clip(addrString(c.RemoteAddr, c.RemotePort), 20),
			connStateCell(c.State),
			c.PID, c.ProcessName)
		lines = append(lines, cursorLine(line, pos == cursor))
	}
	return header, lines
}

func cursorLine(line string, selected bool) string {
	if selected {
		return selectedStyle.Render("> " + line)
	}
	return "  " + line
}

func serviceStatusCell(status string) string {
	cell := fmt.Sprintf("%-14s", status)
	switch {
	case status == "running":
		return runningStyle.Render(cell)
	case status == "stopped":
		return stoppedStyle.Render(cell)
	case strings.HasSuffix(status, "-pending"):
		return pendingStyle.Render(cell)
	default:
		return failedStyle.Render(cell)
	}
}

func connStateCell(state string) string {
	cell := fmt.Sprintf("%-11s", state)
	switch state {
	case "ESTABLISHED":
		return runningStyle.Render(cell)
	case "LISTEN":
		return pendingStyle.Render(cell)
	case "n/a":
		return dimStyle.Render(cell)
	default:
		return stoppedStyle.Render(cell)
	}
}

func addrString(ip string, port uint32) string {
	if ip == "" {
		return ""
	}
	return fmt.Sprintf("%s:%d", ip, port)
}

func memString(mb float64) string {
	if mb <= 0 {
		return "-"
	}
	return humanize.IBytes(uint64(mb * (1 << 20)))
}

// --- Modals ---

func (m uiModel) renderModal() string {
	switch mod := m.modal.(type) {
	case killModal:
		var b strings.Builder
		b.WriteString(headerStyle.Render("Kill process?"))
		b.WriteString("\n\n")
		b.WriteString(fmt.Sprintf("  %s (pid %d)\n\n", mod.name, mod.pid))
		b.WriteString(dimStyle.Render("y: kill    n: cancel"))
		return modalStyle.Render(b.String())

	case *lockSearchModal:
		return modalStyle.Render(m.renderLockSearch(mod))
	}
	return ""
}

func (m uiModel) renderLockSearch(ls *lockSearchModal) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Find lock holders"))
	b.WriteRune('\n')

	switch {
	case ls.loading:
		b.WriteString("\nSearching open file tables...\n\n")
		b.WriteString(dimStyle.Render("esc: close"))

	case ls.inputFocused:
		b.WriteRune('\n')
		b.WriteString(ls.input.View())
		b.WriteRune('\n')
		if ls.err != nil {
			b.WriteString(errStyle.Render(ls.err.Error()))
			b.WriteRune('\n')
		}
		b.WriteString(dimStyle.Render("enter: search    ctrl+j: newline    esc: close"))

	default:
		b.WriteRune('\n')
		if ls.report != nil && ls.report.IsDirectory {
			b.WriteString(dimStyle.Render(fmt.Sprintf("directory search, %d files scanned", ls.report.FilesScanned)))
			b.WriteRune('\n')
		}
		if ls.report == nil || len(ls.report.Holders) == 0 {
			b.WriteString(dimStyle.Render("  no processes hold these files"))
			b.WriteRune('\n')
		}
		for i, h := range holders(ls) {
			line := fmt.Sprintf("%-20s  %7d  %s", clip(h.Name, 20), h.PID, clip(h.Path, 48))
			b.WriteString(cursorLine(line, i == ls.cursor))
			b.WriteRune('\n')
		}
		b.WriteRune('\n')
		hint := "j/k: move    /: edit paths    esc: close"
		if m.elevated {
			hint = "K: kill    " + hint
		}
		b.WriteString(dimStyle.Render(hint))
	}
	return b.String()
}

func holders(ls *lockSearchModal) []*sysinfo.LockHolder {
	if ls.report == nil {
		return nil
	}
	return ls.report.Holders
}

// --- Helpers ---

// clip truncates s to at most n bytes with an ellipsis. Table cells only;
// ANSI-styled content goes through truncateLines instead.
func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}

// truncateLines truncates each line to the terminal width, ANSI-aware, so
// styled rows never wrap.
func truncateLines(content string, width int) string {
	if width <= 0 {
		return content
	}
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		if lipgloss.Width(line) > width {
			lines[i] = ansi.Truncate(line, width, "")
		}
	}
	return strings.Join(lines, "\n")
}
