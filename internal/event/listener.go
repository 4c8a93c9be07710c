package event

import (
	"context"
	"io"
)

// Listener consumes events in grammar order.
type Listener interface {
	OnEvent(ctx context.Context, e Event) error
}

// ListenerFunc adapts a function to Listener.
type ListenerFunc func(ctx context.Context, e Event) error

// OnEvent implements Listener.
func (f ListenerFunc) OnEvent(ctx context.Context, e Event) error {
	return f(ctx, e)
}

// Recorder is a Listener that keeps every event it sees.
type Recorder struct {
	Events []Event
}

// OnEvent implements Listener.
func (r *Recorder) OnEvent(_ context.Context, e Event) error {
	r.Events = append(r.Events, e)
	return nil
}

// Source replays the recorded events.
func (r *Recorder) Source() *SliceSource {
	return NewSliceSource(r.Events...)
}

// Tee forwards every event to each listener in order, stopping at the first error.
func Tee(ls ...Listener) Listener {
	return ListenerFunc(func(ctx context.Context, e Event) error {
		for _, l := range ls {
			if err := l.OnEvent(ctx, e); err != nil {
				return err
			}
		}

		return nil
	})
}

// Source produces events in grammar order. Next returns io.EOF after the
// last event.
type Source interface {
	Next(ctx context.Context) (Event, error)
}

// SliceSource is a Source over an in-memory event slice.
type SliceSource struct {
	events []Event
	pos    int
}

// NewSliceSource creates a Source yielding events in order.
func NewSliceSource(events ...Event) *SliceSource {
	return &SliceSource{events: events}
}

// Next implements Source.
func (s *SliceSource) Next(ctx context.Context) (Event, error) {
	if err := ctx.Err(); err != nil {
		return Event{}, err
	}

	if s.pos >= len(s.events) {
		return Event{}, io.EOF
	}

	e := s.events[s.pos]
	s.pos++

	return e, nil
}

// Drain pulls every remaining event from src into l.
func Drain(ctx context.Context, src Source, l Listener) error {
	for {
		e, err := src.Next(ctx)
		if err == io.EOF {
			return nil
		}

		if err != nil {
			return err
		}

		if err := l.OnEvent(ctx, e); err != nil {
			return err
		}
	}
}
