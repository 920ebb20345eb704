package ecs

import "fmt"

// Event is a generic ECS event payload.
type Event struct {
	Type string
	Data any
}

// EventQueue is a simple FIFO queue. Events pushed during a frame stay
// readable until the next World.Update begins.
type EventQueue struct {
	items []Event
}

// Push adds an event.
func (q *EventQueue) Push(evt Event) {
	if q == nil {
		return
	}
	q.items = append(q.items, evt)
}

// Items returns the queued events without clearing them.
func (q *EventQueue) Items() []Event {
	if q == nil {
		return nil
	}
	return q.items
}

// Drain returns all events and clears the queue.
func (q *EventQueue) Drain() []Event {
	if q == nil || len(q.items) == 0 {
		return nil
	}
	out := q.items
	q.items = nil
	return out
}

func (q *EventQueue) flush() {
	if q == nil {
		return
	}
	q.items = nil
}

// Send pushes a typed event.
func Send[T any](w *World, data T) {
	w.Events().Push(Event{Type: fmt.Sprintf("%T", data), Data: data})
}

// Read returns the queued events of type T in push order.
func Read[T any](w *World) []T {
	var out []T
	for _, evt := range w.Events().Items() {
		if v, ok := evt.Data.(T); ok {
			out = append(out, v)
		}
	}
	return out
}
