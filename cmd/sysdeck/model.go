package main

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"sysdeck/internal/datasource"
	"sysdeck/internal/listview"
	"sysdeck/internal/schedule"
	"sysdeck/internal/sysinfo"
)

const (
	statusTTL      = 5 * time.Second
	serviceTimeout = 5 * time.Second
)

// --- Tabs ---

type tabID int

const (
	tabProcesses tabID = iota
	tabServices
	tabConnections
	tabCount
)

func (t tabID) String() string {
	switch t {
	case tabProcesses:
		return "Processes"
	case tabServices:
		return "Services"
	case tabConnections:
		return "Connections"
	}
	return "?"
}

// --- Messages ---

// schedMsg carries one scheduler event into the update loop.
type schedMsg struct {
	kind schedule.Kind
}

// lockReportMsg delivers an async lock-holder search result.
type lockReportMsg struct {
	report *datasource.LockReport
	err    error
}

// --- Modals ---

// modal is the open overlay; nil means none. While a modal is open all key
// input routes to it.
type modal interface {
	isModal()
}

// killModal asks for confirmation before terminating a process.
type killModal struct {
	pid  int32
	name string
}

func (killModal) isModal() {}

// lockSearchModal is the find-lock-holders overlay: a multiline path input
// plus, after a search, the list of holding processes.
type lockSearchModal struct {
	input        textarea.Model
	report       *datasource.LockReport
	cursor       int
	loading      bool
	err          error
	inputFocused bool
}

func (*lockSearchModal) isModal() {}

func newLockSearchModal(width int) *lockSearchModal {
	ta := textarea.New()
	ta.Placeholder = "/path/to/file\none path per line, or a single directory"
	ta.SetHeight(4)
	w := 64
	if width > 0 && width-12 < w {
		w = width - 12
	}
	if w < 20 {
		w = 20
	}
	ta.SetWidth(w)
	// Enter runs the search; newlines go in with ctrl+j.
	ta.KeyMap.InsertNewline = key.NewBinding(key.WithKeys("ctrl+j"), key.WithHelp("ctrl+j", "newline"))
	ta.Focus()
	return &lockSearchModal{input: ta, inputFocused: true}
}

// --- Data sources ---

// sources bundles the OS collaborators so tests can substitute fakes.
type sources struct {
	processes   func() ([]*sysinfo.Process, error)
	services    func(ctx context.Context) ([]*sysinfo.Service, error)
	connections func(pidNames map[int32]string) ([]*sysinfo.Connection, error)
	lockSearch  func(raw string) (*datasource.LockReport, error)
	kill        func(pid int32) error
	toggle      func(ctx context.Context, svc *sysinfo.Service) (string, error)
}

func osSources() sources {
	return sources{
		processes:   datasource.Processes,
		services:    datasource.Services,
		connections: datasource.Connections,
		lockSearch:  datasource.FindLockHolders,
		kill:        datasource.KillProcess,
		toggle:      datasource.ToggleService,
	}
}

// navigable is the part of a list state that does not depend on the row
// type, letting the active tab be driven without knowing which list it is.
type navigable interface {
	SelectNext(filter string)
	SelectPrev(filter string)
	SelectPageDown(filter string)
	SelectPageUp(filter string)
	SelectFirst(filter string)
	SelectLast(filter string)
	SetFilter(filter string)
	ClearFilter()
	CycleSortColumn()
	ToggleSortOrder()
	Filter() string
	SortName() string
	Descending() bool
	Cursor(filter string) int
	Len() int
	Loaded() bool
}

// --- Model ---

type uiModel struct {
	src   sources
	sched *schedule.Scheduler

	procs *listview.State[*sysinfo.Process]
	svcs  *listview.State[*sysinfo.Service]
	conns *listview.State[*sysinfo.Connection]
	cpu   *datasource.CPUWatch

	tab    tabID
	width  int
	height int

	searchMode bool
	search     textinput.Model

	pendingG bool
	modal    modal

	status   string
	statusAt time.Time

	elevated bool
	help     help.Model
	showHelp bool

	lastRefresh time.Time
	now         func() time.Time
}

func newModel(src sources, sched *schedule.Scheduler, elevated bool) uiModel {
	ti := textinput.New()
	ti.Prompt = "/"
	ti.Placeholder = "filter"
	return uiModel{
		src:      src,
		sched:    sched,
		procs:    listview.New(sysinfo.ProcessColumns(), sysinfo.DefaultProcessSort, true),
		svcs:     listview.New(sysinfo.ServiceColumns(), sysinfo.DefaultServiceSort, false),
		conns:    listview.New(sysinfo.ConnectionColumns(), sysinfo.DefaultConnectionSort, false),
		cpu:      datasource.NewCPUWatch(),
		search:   ti,
		elevated: elevated,
		help:     help.New(),
		now:      time.Now,
	}
}

func (m uiModel) Init() tea.Cmd { return nil }

// current returns the active tab's list state.
func (m uiModel) current() navigable {
	switch m.tab {
	case tabServices:
		return m.svcs
	case tabConnections:
		return m.conns
	default:
		return m.procs
	}
}

// query returns the filter the given tab's view is resolved through: the
// live search text while searching on that tab, or the persisted filter
// while the search box is still empty.
func (m uiModel) query(t tabID) string {
	if m.searchMode && t == m.tab {
		if v := m.search.Value(); v != "" {
			return v
		}
	}
	switch t {
	case tabServices:
		return m.svcs.Filter()
	case tabConnections:
		return m.conns.Filter()
	default:
		return m.procs.Filter()
	}
}

func (m *uiModel) setStatus(format string, args ...any) {
	m.status = fmt.Sprintf(format, args...)
	m.statusAt = m.now()
}

// --- Refresh ---

// refreshProcesses swaps in a fresh process snapshot, carrying the previous
// CPU/memory samples across by pid so sorting stays steady until the next
// metrics pass. Enumeration failures keep the old rows.
func (m uiModel) refreshProcesses() {
	rows, err := m.src.processes()
	if err != nil {
		return
	}
	prev := make(map[int32]*sysinfo.Process, m.procs.Len())
	for _, p := range m.procs.Items() {
		prev[p.PID] = p
	}
	for _, r := range rows {
		if old, ok := prev[r.PID]; ok {
			r.CPU, r.MemMB = old.CPU, old.MemMB
			r.LastCPU, r.LastMem = old.LastCPU, old.LastMem
		}
	}
	m.procs.Update(rows)
}

func (m uiModel) refreshServices() {
	ctx, cancel := context.WithTimeout(context.Background(), serviceTimeout)
	defer cancel()
	rows, err := m.src.services(ctx)
	if err != nil {
		return
	}
	m.svcs.Update(rows)
}

func (m uiModel) refreshConnections() {
	rows, err := m.src.connections(datasource.PIDNames(m.procs.Items()))
	if err != nil {
		return
	}
	m.conns.Update(rows)
}

func (m uiModel) refreshTab(t tabID) {
	switch t {
	case tabServices:
		m.refreshServices()
	case tabConnections:
		m.refreshConnections()
	default:
		m.refreshProcesses()
	}
}

func (m uiModel) refreshAll() {
	m.refreshProcesses()
	m.refreshServices()
	m.refreshConnections()
}

// --- Update ---

func (m uiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case schedMsg:
		return m.handleSched(msg.kind)

	case lockReportMsg:
		if ls, ok := m.modal.(*lockSearchModal); ok {
			ls.loading = false
			ls.report = msg.report
			ls.err = msg.err
			ls.cursor = 0
			if msg.err == nil {
				ls.inputFocused = false
				ls.input.Blur()
			}
		}
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.sched.Stop()
			return m, tea.Quit
		}
		if m.modal != nil {
			return m.handleModalKey(msg)
		}
		if m.searchMode {
			return m.handleSearchKey(msg)
		}
		return m.handlePlainKey(msg)
	}
	return m, nil
}

func (m uiModel) handleSched(k schedule.Kind) (tea.Model, tea.Cmd) {
	switch k {
	case schedule.Tick:
		if m.status != "" && m.now().Sub(m.statusAt) > statusTTL {
			m.status = ""
		}
	case schedule.PollData:
		// Resnapshot every domain, not just the visible one, so switching
		// tabs never lands on stale rows and pid lookups stay current.
		m.refreshAll()
		m.lastRefresh = m.now()
	case schedule.PollMetrics:
		m.cpu.Apply(m.procs.Items())
	}
	return m, nil
}

func (m uiModel) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	// Leaving search mode always commits the query as the persisted
	// filter, whichever key closes the box.
	case key.Matches(msg, keys.Esc), key.Matches(msg, keys.Enter):
		m.current().SetFilter(m.search.Value())
		m.searchMode = false
		m.search.Reset()
		m.search.Blur()

	default:
		var cmd tea.Cmd
		m.search, cmd = m.search.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m uiModel) handlePlainKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.pendingG {
		m.pendingG = false
		if msg.String() == "g" {
			m.current().SelectFirst(m.query(m.tab))
			return m, nil
		}
		// Any other key cancels the chord and is handled normally below.
	}

	switch {
	case key.Matches(msg, keys.Quit):
		m.sched.Stop()
		return m, tea.Quit

	case key.Matches(msg, keys.NextTab):
		m.tab = (m.tab + 1) % tabCount

	case key.Matches(msg, keys.PrevTab):
		m.tab = (m.tab + tabCount - 1) % tabCount

	case key.Matches(msg, keys.Down):
		m.current().SelectNext(m.query(m.tab))

	case key.Matches(msg, keys.Up):
		m.current().SelectPrev(m.query(m.tab))

	case key.Matches(msg, keys.PageDown):
		m.current().SelectPageDown(m.query(m.tab))

	case key.Matches(msg, keys.PageUp):
		m.current().SelectPageUp(m.query(m.tab))

	case key.Matches(msg, keys.Last):
		m.current().SelectLast(m.query(m.tab))

	case key.Matches(msg, keys.First):
		m.pendingG = true

	case key.Matches(msg, keys.Refresh):
		m.refreshTab(m.tab)
		m.lastRefresh = m.now()

	case key.Matches(msg, keys.Search):
		m.searchMode = true
		m.search.Reset()
		return m, m.search.Focus()

	case key.Matches(msg, keys.Esc):
		m.current().ClearFilter()

	case key.Matches(msg, keys.Sort):
		m.current().CycleSortColumn()

	case key.Matches(msg, keys.Order):
		m.current().ToggleSortOrder()

	case key.Matches(msg, keys.Kill):
		if m.tab != tabProcesses {
			break
		}
		if !m.elevated {
			m.setStatus("kill requires root")
			break
		}
		if p, ok := m.procs.Selected(m.query(tabProcesses)); ok {
			m.modal = killModal{pid: p.PID, name: p.Name}
		}

	case key.Matches(msg, keys.Toggle):
		if m.tab != tabServices {
			break
		}
		if !m.elevated {
			m.setStatus("service control requires root")
			break
		}
		if s, ok := m.svcs.Selected(m.query(tabServices)); ok {
			m.toggleService(s)
		}

	case key.Matches(msg, keys.LockSearch):
		m.modal = newLockSearchModal(m.width)
		return m, textarea.Blink

	case key.Matches(msg, keys.Help):
		m.showHelp = !m.showHelp
	}
	return m, nil
}

func (m *uiModel) toggleService(s *sysinfo.Service) {
	ctx, cancel := context.WithTimeout(context.Background(), serviceTimeout)
	defer cancel()
	done, err := m.src.toggle(ctx, s)
	switch {
	case err != nil:
		m.setStatus("%s: %v", s.Name, err)
	case done == "":
		m.setStatus("%s is %s, leaving it alone", s.Name, s.Status)
	default:
		m.setStatus("Service %s %s", s.Name, done)
		m.refreshServices()
		m.lastRefresh = m.now()
	}
}

func (m uiModel) handleModalKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch mod := m.modal.(type) {
	case killModal:
		switch {
		case key.Matches(msg, keys.Confirm):
			if err := m.src.kill(mod.pid); err != nil {
				m.setStatus("kill %s (%d): %v", mod.name, mod.pid, err)
			} else {
				m.setStatus("Process %s (%d) killed", mod.name, mod.pid)
				m.refreshProcesses()
				m.lastRefresh = m.now()
			}
			m.modal = nil
		case key.Matches(msg, keys.Cancel):
			m.modal = nil
		}
		return m, nil

	case *lockSearchModal:
		return m.handleLockSearchKey(mod, msg)
	}
	return m, nil
}

func (m uiModel) handleLockSearchKey(ls *lockSearchModal, msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if ls.loading {
		// The in-flight result is dropped on arrival if the modal is gone.
		if key.Matches(msg, keys.Esc) {
			m.modal = nil
		}
		return m, nil
	}

	if ls.inputFocused {
		switch {
		case key.Matches(msg, keys.Esc):
			m.modal = nil

		case key.Matches(msg, keys.Enter):
			raw := ls.input.Value()
			ls.loading = true
			ls.err = nil
			search := m.src.lockSearch
			return m, func() tea.Msg {
				report, err := search(raw)
				return lockReportMsg{report: report, err: err}
			}

		default:
			var cmd tea.Cmd
			ls.input, cmd = ls.input.Update(msg)
			return m, cmd
		}
		return m, nil
	}

	// Results list.
	if m.pendingG {
		m.pendingG = false
		if msg.String() == "g" {
			ls.cursor = 0
			return m, nil
		}
	}
	n := 0
	if ls.report != nil {
		n = len(ls.report.Holders)
	}
	switch {
	case key.Matches(msg, keys.Esc):
		m.modal = nil

	case key.Matches(msg, keys.Down):
		if ls.cursor+1 < n {
			ls.cursor++
		}

	case key.Matches(msg, keys.Up):
		if ls.cursor > 0 {
			ls.cursor--
		}

	case key.Matches(msg, keys.First):
		m.pendingG = true

	case key.Matches(msg, keys.Last):
		if n > 0 {
			ls.cursor = n - 1
		}

	case key.Matches(msg, keys.Search):
		ls.inputFocused = true
		return m, ls.input.Focus()

	case key.Matches(msg, keys.Kill):
		if !m.elevated {
			m.setStatus("kill requires root")
			break
		}
		if ls.cursor < n {
			h := ls.report.Holders[ls.cursor]
			m.modal = killModal{pid: h.PID, name: h.Name}
		}
	}
	return m, nil
}
