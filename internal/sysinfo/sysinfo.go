// Package sysinfo defines the entity types shown on the dashboard tabs and
// their list capabilities: identity keys, filter predicates, content
// fingerprints, and sort columns.
package sysinfo

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"sysdeck/internal/listview"
)

// Process is one row on the Processes tab. CPU and MemMB are volatile
// samples filled by the metrics pass; LastCPU and LastMem hold the most
// recent non-zero samples so sorting stays steady between passes.
type Process struct {
	PID   int32
	Name  string
	Path  string
	CPU   float64
	MemMB float64

	LastCPU float64
	LastMem float64
}

func (p *Process) Key() string { return strconv.Itoa(int(p.PID)) }

func (p *Process) Match(query string) bool {
	q := strings.ToLower(query)
	return strings.Contains(strings.ToLower(p.Name), q) ||
		strings.Contains(strings.ToLower(p.Path), q) ||
		strings.Contains(p.Key(), q)
}

func (p *Process) Fingerprint(w io.Writer) {
	io.WriteString(w, p.Key())
	io.WriteString(w, p.Name)
	io.WriteString(w, "\x00")
}

// EffectiveCPU prefers the live sample, falling back to the last non-zero
// one so a process between metrics passes never reads as idle. Sorting and
// rendering both go through it.
func (p *Process) EffectiveCPU() float64 {
	if p.CPU > 0 {
		return p.CPU
	}
	return p.LastCPU
}

// EffectiveMem is the memory counterpart of EffectiveCPU.
func (p *Process) EffectiveMem() float64 {
	if p.MemMB > 0 {
		return p.MemMB
	}
	return p.LastMem
}

// ProcessColumns returns the sort cycle for the Processes tab.
// DefaultProcessSort/descending is the CPU column.
func ProcessColumns() []listview.SortColumn[*Process] {
	return []listview.SortColumn[*Process]{
		{Name: "Name", Less: func(a, b *Process) bool {
			return strings.ToLower(a.Name) < strings.ToLower(b.Name)
		}},
		{Name: "PID", Less: func(a, b *Process) bool { return a.PID < b.PID }},
		{Name: "CPU", Less: func(a, b *Process) bool { return a.EffectiveCPU() < b.EffectiveCPU() }},
		{Name: "Mem", Less: func(a, b *Process) bool { return a.EffectiveMem() < b.EffectiveMem() }},
	}
}

// DefaultProcessSort is the index of the CPU column in ProcessColumns.
const DefaultProcessSort = 2

// Service is one row on the Services tab. Name is the unit name; Status is
// one of the states in statusPriority (or something else, which sorts last).
type Service struct {
	Name        string
	DisplayName string
	Status      string
	Kind        string
	PID         int32
}

func (s *Service) Key() string { return s.Name }

func (s *Service) Match(query string) bool {
	q := strings.ToLower(query)
	return strings.Contains(strings.ToLower(s.Name), q) ||
		strings.Contains(strings.ToLower(s.DisplayName), q)
}

func (s *Service) Fingerprint(w io.Writer) {
	io.WriteString(w, s.Name)
	io.WriteString(w, s.Status)
	io.WriteString(w, "\x00")
}

// statusPriority orders service states for the Status sort: active states
// first, transitional states in the middle, stopped last. Unknown states
// sort after everything known.
var statusPriority = map[string]int{
	"running":          0,
	"start-pending":    1,
	"stop-pending":     2,
	"paused":           3,
	"pause-pending":    4,
	"continue-pending": 5,
	"stopped":          6,
}

// StatusRank returns the sort rank of a service status.
func StatusRank(status string) int {
	if p, ok := statusPriority[status]; ok {
		return p
	}
	return len(statusPriority)
}

// ServiceColumns returns the sort cycle for the Services tab. The default is
// the Status column, ascending.
func ServiceColumns() []listview.SortColumn[*Service] {
	return []listview.SortColumn[*Service]{
		{Name: "Name", Less: func(a, b *Service) bool {
			return strings.ToLower(a.DisplayName) < strings.ToLower(b.DisplayName)
		}},
		{Name: "Status", Less: func(a, b *Service) bool {
			return StatusRank(a.Status) < StatusRank(b.Status)
		}},
		{Name: "Type", Less: func(a, b *Service) bool { return a.Kind < b.Kind }},
	}
}

// DefaultServiceSort is the index of the Status column in ServiceColumns.
const DefaultServiceSort = 1

// Connection is one row on the Connections tab. State is a TCP state name,
// or "n/a" for UDP sockets. ProcessName is resolved from the owning PID when
// a process snapshot is available.
type Connection struct {
	Protocol    string
	LocalAddr   string
	LocalPort   uint32
	RemoteAddr  string
	RemotePort  uint32
	State       string
	PID         int32
	ProcessName string
}

func (c *Connection) Key() string {
	return fmt.Sprintf("%s|%s:%d|%s:%d|%d",
		c.Protocol, c.LocalAddr, c.LocalPort, c.RemoteAddr, c.RemotePort, c.PID)
}

func (c *Connection) Match(query string) bool {
	q := strings.ToLower(query)
	return strings.Contains(strings.ToLower(c.ProcessName), q) ||
		strings.Contains(strings.ToLower(c.LocalAddr), q) ||
		strings.Contains(strings.ToLower(c.RemoteAddr), q) ||
		strings.Contains(strconv.Itoa(int(c.PID)), q) ||
		strings.Contains(strconv.Itoa(int(c.LocalPort)), q)
}

func (c *Connection) Fingerprint(w io.Writer) {
	io.WriteString(w, strconv.Itoa(int(c.PID)))
	io.WriteString(w, c.LocalAddr)
	io.WriteString(w, strconv.Itoa(int(c.LocalPort)))
	io.WriteString(w, "\x00")
}

// statePriority orders TCP states for the State sort: live traffic first,
// then handshakes and teardown, with stateless UDP last.
var statePriority = map[string]int{
	"ESTABLISHED": 0,
	"LISTEN":      1,
	"SYN_SENT":    2,
	"SYN_RECV":    3,
	"FIN_WAIT1":   4,
	"FIN_WAIT2":   5,
	"TIME_WAIT":   6,
	"CLOSE_WAIT":  7,
	"CLOSING":     8,
	"LAST_ACK":    9,
	"CLOSE":       10,
	"NONE":        11,
	"n/a":         12,
}

// StateRank returns the sort rank of a connection state.
func StateRank(state string) int {
	if p, ok := statePriority[state]; ok {
		return p
	}
	return len(statePriority)
}

// ConnectionColumns returns the sort cycle for the Connections tab. The
// default is the State column, ascending.
func ConnectionColumns() []listview.SortColumn[*Connection] {
	return []listview.SortColumn[*Connection]{
		{Name: "State", Less: func(a, b *Connection) bool {
			return StateRank(a.State) < StateRank(b.State)
		}},
		{Name: "PID", Less: func(a, b *Connection) bool { return a.PID < b.PID }},
		{Name: "Proto", Less: func(a, b *Connection) bool { return a.Protocol < b.Protocol }},
		{Name: "Process", Less: func(a, b *Connection) bool {
			return strings.ToLower(a.ProcessName) < strings.ToLower(b.ProcessName)
		}},
	}
}

// DefaultConnectionSort is the index of the State column in ConnectionColumns.
const DefaultConnectionSort = 0

// LockHolder is a process found holding an open handle on a searched path.
type LockHolder struct {
	PID  int32
	Name string
	Path string
}
