// Package activitytest provides an in-memory activity.Publisher for tests.
package activitytest

import (
	"context"
	"sync"

	"github.com/ummahconnect/community-backend/internal/activity"
)

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []activity.Event
	Err    error
}

func (r *Recorder) Publish(_ context.Context, ev activity.Event) error {
	if r.Err != nil {
		return r.Err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *Recorder) Close() error { return nil }

// Events returns a copy of everything recorded so far.
func (r *Recorder) Events() []activity.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]activity.Event, len(r.events))
	copy(out, r.events)
	return out
}

// Count returns how many recorded events have type t.
func (r *Recorder) Count(t activity.Type) int {
	n := 0
	for _, ev := range r.Events() {
		if ev.Type == t {
			n++
		}
	}
	return n
}
