package media

import (
	"context"
	"time"

	"github.com/go-gst/go-gst/gst"
)

// EventKind classifies a bus message into the categories the Unified
// Pipeline's bus listener actor reacts to (spec.md §5 "Bus listener").
type EventKind int

const (
	EventStateChanged EventKind = iota
	EventError
	EventWarning
	EventEOS
	EventBuffering
)

// Event is a translated bus message, decoupled from the underlying
// framework's message type so callers never import gst directly.
type Event struct {
	Kind     EventKind
	Element  string // name of the element that posted the message, if known
	Err      error  // populated for EventError
	Percent  int    // populated for EventBuffering
	OldState string
	NewState string
}

// BusWatcher is the bus listener actor (spec.md §5): a dedicated loop
// polling the pipeline bus and handing translated events to a
// caller-supplied handler. One BusWatcher per pipeline. The pipeline's
// state is changed both from these events and directly by the
// pipeline's Start and Stop methods.
type BusWatcher struct {
	bus     *gst.Bus
	handler func(Event)
	done    chan struct{}
}

// NewBusWatcher wraps a pipeline's bus. handler is invoked synchronously
// from the watcher's own goroutine; it must not block.
func NewBusWatcher(bus *gst.Bus, handler func(Event)) *BusWatcher {
	return &BusWatcher{bus: bus, handler: handler, done: make(chan struct{})}
}

// Run polls the bus until ctx is cancelled or Stop is called. It never
// blocks the caller's goroutine structure beyond its own poll loop, per
// spec.md §5 "it only posts work".
func (w *BusWatcher) Run(ctx context.Context) {
	const pollInterval = 100 * time.Millisecond
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		default:
		}

		msg := w.bus.TimedPop(gst.ClockTime(pollInterval))
		if msg == nil {
			continue
		}
		w.dispatch(msg)
	}
}

// Stop ends a running Run loop from another goroutine.
func (w *BusWatcher) Stop() {
	select {
	case <-w.done:
	default:
		close(w.done)
	}
}

func (w *BusWatcher) dispatch(msg *gst.Message) {
	switch msg.Type() {
	case gst.MessageError:
		gerr := msg.ParseError()
		ev := Event{Kind: EventError, Element: msg.Source()}
		if gerr != nil {
			ev.Err = gerr
		}
		w.handler(ev)
	case gst.MessageWarning:
		gwarn := msg.ParseWarning()
		ev := Event{Kind: EventWarning, Element: msg.Source()}
		if gwarn != nil {
			ev.Err = gwarn
		}
		w.handler(ev)
	case gst.MessageEOS:
		w.handler(Event{Kind: EventEOS, Element: msg.Source()})
	case gst.MessageStateChanged:
		oldState, newState := msg.ParseStateChanged()
		w.handler(Event{
			Kind:     EventStateChanged,
			Element:  msg.Source(),
			OldState: oldState.String(),
			NewState: newState.String(),
		})
	case gst.MessageBuffering:
		pct := msg.ParseBuffering()
		w.handler(Event{Kind: EventBuffering, Element: msg.Source(), Percent: pct})
	}
}
