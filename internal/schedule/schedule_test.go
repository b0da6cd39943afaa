package schedule

import (
	"testing"
	"time"
)

func TestSchedulerEmitsAllKinds(t *testing.T) {
	s := New(5*time.Millisecond, 5*time.Millisecond)
	defer s.Stop()

	seen := make(map[Kind]bool)
	deadline := time.After(2 * time.Second)
	for len(seen) < 3 {
		select {
		case k := <-s.Events():
			seen[k] = true
		case <-deadline:
			t.Fatalf("timed out, saw %v", seen)
		}
	}
}

func TestSchedulerStopUnblocksProducers(t *testing.T) {
	// Never drain, so producers fill the buffer and block on send. Stop
	// must still return promptly and quiesce the stream.
	s := New(time.Millisecond, time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	s.Stop()
	s.Stop() // idempotent

	// Drain whatever was buffered before the stop landed.
	for {
		select {
		case <-s.Events():
			continue
		case <-time.After(50 * time.Millisecond):
		}
		break
	}

	select {
	case k := <-s.Events():
		t.Fatalf("event %v after Stop and drain", k)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestKindString(t *testing.T) {
	for k, want := range map[Kind]string{
		Tick:        "tick",
		PollData:    "poll-data",
		PollMetrics: "poll-metrics",
		Kind(99):    "?",
	} {
		if got := k.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", int(k), got, want)
		}
	}
}
