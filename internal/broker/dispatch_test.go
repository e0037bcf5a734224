package broker

import (
	"testing"

	"github.com/goccy/go-json"
)

func TestDispatcher_RoutesByKind(t *testing.T) {
	d := newDispatcher(nil)

	var market, orders int
	d.register(EventMarketData, func(data json.RawMessage) { market++ })
	d.register(EventOrderUpdate, func(data json.RawMessage) { orders++ })

	d.dispatch(EventMarketData, json.RawMessage(`{"symbol":"MES"}`))
	d.dispatch(EventMarketData, json.RawMessage(`{"symbol":"MES"}`))

	if market != 2 {
		t.Errorf("market data handler invoked %d times, want 2", market)
	}
	if orders != 0 {
		t.Errorf("order update handler invoked %d times, want 0", orders)
	}
}

func TestDispatcher_MultipleHandlers(t *testing.T) {
	d := newDispatcher(nil)

	var first, second bool
	d.register(EventPositionUpdate, func(data json.RawMessage) { first = true })
	d.register(EventPositionUpdate, func(data json.RawMessage) { second = true })

	d.dispatch(EventPositionUpdate, nil)

	if !first || !second {
		t.Errorf("handlers invoked: first=%v second=%v, want both", first, second)
	}
}

func TestDispatcher_PanickingHandlerIsIsolated(t *testing.T) {
	d := newDispatcher(nil)

	var after bool
	d.register(EventMarketData, func(data json.RawMessage) { panic("handler bug") })
	d.register(EventMarketData, func(data json.RawMessage) { after = true })

	// Must not propagate the panic into the caller (the read loop).
	d.dispatch(EventMarketData, nil)

	if !after {
		t.Error("handler after the panicking one was not invoked")
	}
}

func TestDispatcher_NoHandlers(t *testing.T) {
	d := newDispatcher(nil)
	d.dispatch(EventOrderUpdate, json.RawMessage(`{}`)) // no-op, no panic
}
