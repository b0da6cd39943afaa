// Package schedule drives the dashboard's refresh cadences. Three tickers
// feed one bounded channel so the consumer sees a single ordered event
// stream and a stalled consumer applies backpressure instead of growing a
// queue.
package schedule

import (
	"sync"
	"time"
)

// Kind tags a scheduler event.
type Kind int

const (
	// Tick is the UI heartbeat: redraw, expire status messages.
	Tick Kind = iota
	// PollData asks for a fresh snapshot of the active tab's entities.
	PollData
	// PollMetrics asks for a CPU/memory sampling pass.
	PollMetrics
)

func (k Kind) String() string {
	switch k {
	case Tick:
		return "tick"
	case PollData:
		return "poll-data"
	case PollMetrics:
		return "poll-metrics"
	}
	return "?"
}

const (
	TickInterval           = 100 * time.Millisecond
	DefaultDataInterval    = 2 * time.Second
	DefaultMetricsInterval = time.Second
)

const eventBuffer = 32

// Scheduler owns the ticker goroutines. Stop makes every producer exit even
// when it is blocked on a full channel.
type Scheduler struct {
	events chan Kind
	done   chan struct{}
	stop   sync.Once
}

// New starts a scheduler emitting Tick at TickInterval plus PollData and
// PollMetrics at the given intervals.
func New(data, metrics time.Duration) *Scheduler {
	if data <= 0 {
		data = DefaultDataInterval
	}
	if metrics <= 0 {
		metrics = DefaultMetricsInterval
	}
	s := &Scheduler{
		events: make(chan Kind, eventBuffer),
		done:   make(chan struct{}),
	}
	s.emit(TickInterval, Tick)
	s.emit(data, PollData)
	s.emit(metrics, PollMetrics)
	return s
}

func (s *Scheduler) emit(every time.Duration, k Kind) {
	go func() {
		t := time.NewTicker(every)
		defer t.Stop()
		for {
			select {
			case <-s.done:
				return
			case <-t.C:
			}
			select {
			case s.events <- k:
			case <-s.done:
				return
			}
		}
	}()
}

// Events is the merged event stream, in arrival order.
func (s *Scheduler) Events() <-chan Kind { return s.events }

// Stop shuts down all producers. Safe to call more than once.
func (s *Scheduler) Stop() {
	s.stop.Do(func() { close(s.done) })
}
