package broker

import (
	"log/slog"
	"sync"

	"github.com/goccy/go-json"
)

// EventKind discriminates pushed broker events.
type EventKind string

const (
	EventMarketData     EventKind = "market_data"
	EventOrderUpdate    EventKind = "order_update"
	EventPositionUpdate EventKind = "position_update"
	EventError          EventKind = "error"
)

// rawHandler receives the data payload of a pushed event.
type rawHandler func(data json.RawMessage)

// dispatcher routes pushed events to registered handlers. Handlers run on
// the frame-decoding goroutine; a panicking handler is contained and logged
// so it cannot take down the read loop.
type dispatcher struct {
	logger *slog.Logger

	mu       sync.RWMutex
	handlers map[EventKind][]rawHandler
}

func newDispatcher(logger *slog.Logger) *dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &dispatcher{
		logger:   logger,
		handlers: make(map[EventKind][]rawHandler),
	}
}

// register appends a handler for kind.
func (d *dispatcher) register(kind EventKind, h rawHandler) {
	d.mu.Lock()
	d.handlers[kind] = append(d.handlers[kind], h)
	d.mu.Unlock()
}

// dispatch invokes every handler registered for kind.
func (d *dispatcher) dispatch(kind EventKind, data json.RawMessage) {
	d.mu.RLock()
	handlers := d.handlers[kind]
	d.mu.RUnlock()

	for _, h := range handlers {
		d.invoke(kind, h, data)
	}
}

// invoke runs one handler, containing panics.
func (d *dispatcher) invoke(kind EventKind, h rawHandler, data json.RawMessage) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("event handler panicked",
				"event", kind,
				"panic", r,
			)
		}
	}()
	h(data)
}
