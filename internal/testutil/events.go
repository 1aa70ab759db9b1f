package testutil

import "github.com/liganite/liganite/events"

// Recorder is an events.Sink that keeps everything it receives.
type Recorder struct {
	Events []events.Event
}

func (r *Recorder) Emit(ev events.Event) { r.Events = append(r.Events, ev) }

// Types returns the recorded event types in order.
func (r *Recorder) Types() []events.EventType {
	out := make([]events.EventType, len(r.Events))
	for i, ev := range r.Events {
		out[i] = ev.Type
	}
	return out
}

// Last returns the most recent event, or the zero Event if none.
func (r *Recorder) Last() events.Event {
	if len(r.Events) == 0 {
		return events.Event{}
	}
	return r.Events[len(r.Events)-1]
}

func (r *Recorder) Reset() { r.Events = nil }
