package broker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/JalenTrades/mes-trading-assistant/internal/connection"
	"github.com/JalenTrades/mes-trading-assistant/internal/model"
)

// sessionFactory creates transport sessions. Swapped out in tests.
type sessionFactory func(cfg connection.Config, logger *slog.Logger) connection.Session

// Client is the resilient Ironbeam broker client.
//
// All methods are safe for concurrent use. Request methods block only their
// caller; the read loop and other callers proceed independently.
type Client struct {
	cfg        Config
	logger     *slog.Logger
	newSession sessionFactory

	pending *pendingTable
	subs    *subscriptionRegistry
	events  *dispatcher

	// Correlation id components: session epoch plus an atomic counter, so
	// ids cannot collide across process restarts.
	epoch int64
	seq   atomic.Int64

	mu                sync.Mutex
	state             State
	sess              connection.Session
	generation        int // invalidates read loops of replaced sessions
	reconnectAttempts int
	closed            bool
}

// New creates a broker client. The client does not connect until Connect is
// called.
func New(cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "broker")

	return &Client{
		cfg:        cfg,
		logger:     logger,
		newSession: connection.NewSession,
		pending:    newPendingTable(logger),
		subs:       newSubscriptionRegistry(),
		events:     newDispatcher(logger),
		epoch:      time.Now().UnixMilli(),
		state:      StateDisconnected,
	}
}

// -----------------------------------------------------------------------------
// Lifecycle
// -----------------------------------------------------------------------------

// Connect dials and authenticates, retrying with linear backoff up to the
// configured attempt budget. Idempotent: returns nil if already ready.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	switch c.state {
	case StateReady, StateConnecting, StateAuthenticating, StateReconnecting:
		// Connected or an attempt is already in flight.
		c.mu.Unlock()
		return nil
	}
	c.closed = false
	c.reconnectAttempts = 0
	c.state = StateConnecting
	c.mu.Unlock()

	return c.connectLoop(ctx)
}

// Disconnect shuts the client down: stops reconnect attempts, fails every
// pending request and closes the transport. Idempotent.
func (c *Client) Disconnect() error {
	c.mu.Lock()
	alreadyDown := c.closed && c.sess == nil
	c.closed = true
	c.generation++
	sess := c.sess
	c.sess = nil
	c.state = StateDisconnected
	c.mu.Unlock()

	if alreadyDown {
		return nil
	}

	c.pending.failAll(ErrShuttingDown)

	if sess != nil {
		c.logger.Info("disconnected")
		return sess.Close()
	}
	return nil
}

// connectLoop runs dial+authenticate attempts under the backoff policy.
// It is used both for explicit connects and for recovery after loss.
func (c *Client) connectLoop(ctx context.Context) error {
	policy := newLinearBackOff(c.cfg.ReconnectBaseDelay, c.cfg.ReconnectMaxDelay, c.cfg.MaxReconnectAttempts)

	for {
		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			return ErrShuttingDown
		}
		c.reconnectAttempts++
		attempt := c.reconnectAttempts
		c.mu.Unlock()

		err := c.establish(ctx)
		if err == nil {
			c.logger.Info("session ready", "attempt", attempt)
			return nil
		}
		if errors.Is(err, ErrShuttingDown) {
			return err
		}

		wait := policy.NextBackOff()
		if wait == backoff.Stop || attempt >= c.cfg.MaxReconnectAttempts {
			c.setState(StateFailed)
			c.logger.Error("reconnect budget exhausted",
				"attempts", attempt,
				"error", err,
			)
			return fmt.Errorf("%w after %d attempts: %v", ErrRetryBudget, attempt, err)
		}

		c.logger.Warn("connect attempt failed, retrying",
			"attempt", attempt,
			"wait", wait,
			"error", err,
		)

		select {
		case <-ctx.Done():
			c.setState(StateDisconnected)
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

// establish performs one dial + authenticate cycle. On success the client is
// Ready and registry subscriptions have been replayed.
func (c *Client) establish(ctx context.Context) error {
	c.setState(StateConnecting)

	sess := c.newSession(connection.Config{
		URL:              c.cfg.Endpoint,
		HandshakeTimeout: 10 * time.Second,
		PingTimeout:      c.cfg.PingTimeout,
		WriteTimeout:     c.cfg.WriteTimeout,
		BufferSize:       c.cfg.BufferSize,
	}, c.logger)

	if err := sess.Connect(ctx); err != nil {
		c.setState(StateDisconnected)
		return fmt.Errorf("dial %s: %w", c.cfg.Endpoint, err)
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		sess.Close()
		return ErrShuttingDown
	}
	c.generation++
	gen := c.generation
	c.sess = sess
	c.state = StateAuthenticating
	c.mu.Unlock()

	// The read loop must run before authentication so the auth response can
	// be correlated.
	go c.readLoop(sess, gen)

	if err := c.authenticate(ctx, sess); err != nil {
		c.mu.Lock()
		if c.generation == gen {
			c.generation++
			c.sess = nil
			c.state = StateDisconnected
		}
		c.mu.Unlock()
		sess.Close()
		return fmt.Errorf("authenticate: %w", err)
	}

	c.mu.Lock()
	if c.generation != gen {
		// Lost or replaced between auth response and here.
		c.mu.Unlock()
		sess.Close()
		return ErrConnectionLost
	}
	c.state = StateReady
	c.reconnectAttempts = 0
	c.mu.Unlock()

	c.resubscribeAll(ctx)
	return nil
}

// authenticate sends the credential message and waits for the broker's
// acknowledgment. Auth failure is a connectivity failure for retry
// purposes but logged distinctly.
func (c *Client) authenticate(ctx context.Context, sess connection.Session) error {
	id := c.nextRequestID()
	msg := authRequest{
		Action:    "authenticate",
		RequestID: id,
		APIKey:    c.cfg.APIKey,
		Secret:    c.cfg.APISecret,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode auth request: %w", err)
	}

	req := c.pending.register(id, c.cfg.AuthTimeout)
	if err := sess.Send(data); err != nil {
		c.pending.fail(id, err)
		<-req.ch
		return err
	}

	resp, err := c.pending.await(ctx, req)
	if err != nil {
		c.logger.Error("authentication failed", "error", err)
		return err
	}
	if err := resp.responseError(); err != nil {
		c.logger.Error("authentication rejected", "error", err)
		return err
	}
	return nil
}

// readLoop consumes frames and errors from one session until it dies. gen
// ties the loop to the session it serves; a stale loop cannot trigger
// recovery for a session that has already been replaced.
func (c *Client) readLoop(sess connection.Session, gen int) {
	for {
		select {
		case frame, ok := <-sess.Frames():
			if !ok {
				// Read loop ended; pull the cause if one was reported.
				err := ErrConnectionLost
				select {
				case e := <-sess.Errors():
					err = e
				default:
				}
				c.handleLoss(gen, err)
				return
			}
			c.handleFrame(frame)

		case err := <-sess.Errors():
			c.handleLoss(gen, err)
			return
		}
	}
}

// handleLoss reacts to the death of the session identified by gen: fails all
// pending requests and, if the session was ready and we are not shutting
// down, starts background recovery. Exactly one recovery loop can be
// spawned per session because the generation check admits only the first
// reporter.
func (c *Client) handleLoss(gen int, cause error) {
	c.mu.Lock()
	if gen != c.generation || c.closed {
		c.mu.Unlock()
		return
	}
	c.generation++
	sess := c.sess
	c.sess = nil
	wasReady := c.state == StateReady
	if wasReady {
		c.state = StateReconnecting
	} else {
		c.state = StateDisconnected
	}
	c.mu.Unlock()

	if sess != nil {
		sess.Close()
	}

	// Correctness-critical: no pending request may outlive the connection
	// that was supposed to answer it.
	c.pending.failAll(ErrConnectionLost)

	c.logger.Warn("connection lost", "error", cause, "reconnecting", wasReady)

	if wasReady {
		go func() {
			if err := c.connectLoop(context.Background()); err != nil && !errors.Is(err, ErrShuttingDown) {
				c.logger.Error("recovery failed", "error", err)
			}
		}()
	}
}

// handleFrame decodes one inbound frame and either resolves a pending
// request or dispatches a push event. Undecodable frames are dropped.
func (c *Client) handleFrame(frame connection.Frame) {
	var f inboundFrame
	if err := json.Unmarshal(frame.Data, &f); err != nil {
		c.logger.Warn("dropping undecodable frame", "error", err)
		return
	}

	if f.RequestID != "" {
		if !c.pending.resolve(f.RequestID, f) {
			c.logger.Debug("late or unexpected response",
				"request_id", f.RequestID,
				"type", f.Type,
			)
		}
		return
	}

	switch EventKind(f.Type) {
	case EventMarketData, EventOrderUpdate, EventPositionUpdate:
		c.events.dispatch(EventKind(f.Type), f.Data)
	case EventError:
		c.logger.Error("broker error notice", "code", f.Code, "message", f.Message)
		c.events.dispatch(EventError, f.Data)
	default:
		c.logger.Debug("unhandled message type", "type", f.Type)
	}
}

// setState updates the lifecycle state under the client lock.
func (c *Client) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// nextRequestID builds a collision-resistant correlation id from the session
// epoch and a monotonically increasing counter.
func (c *Client) nextRequestID() string {
	return fmt.Sprintf("req-%d-%d", c.epoch, c.seq.Add(1))
}

// -----------------------------------------------------------------------------
// Requests
// -----------------------------------------------------------------------------

// request gates on Ready, registers a correlation entry, writes the frame
// and awaits the response. Broker-reported rejections come back as *Error.
func (c *Client) request(ctx context.Context, timeout time.Duration, id string, msg any) (inboundFrame, error) {
	c.mu.Lock()
	if c.state != StateReady {
		state := c.state
		c.mu.Unlock()
		return inboundFrame{}, fmt.Errorf("%w (state %s)", ErrNotReady, state)
	}
	sess := c.sess
	c.mu.Unlock()

	data, err := json.Marshal(msg)
	if err != nil {
		return inboundFrame{}, fmt.Errorf("encode request: %w", err)
	}

	req := c.pending.register(id, timeout)
	if err := sess.Send(data); err != nil {
		c.pending.fail(id, err)
		<-req.ch
		return inboundFrame{}, fmt.Errorf("send request: %w", err)
	}

	resp, err := c.pending.await(ctx, req)
	if err != nil {
		return inboundFrame{}, err
	}
	if err := resp.responseError(); err != nil {
		return inboundFrame{}, err
	}
	return resp, nil
}

// Subscribe requests market data for symbol and records the subscription on
// acknowledgment. Subscribing to an already-subscribed symbol is a no-op.
func (c *Client) Subscribe(ctx context.Context, symbol string) error {
	if c.subs.has(symbol) {
		return nil
	}
	if err := c.sendSubscribe(ctx, symbol); err != nil {
		return err
	}
	c.subs.add(symbol)
	c.logger.Info("subscribed", "symbol", symbol)
	return nil
}

// sendSubscribe issues the subscribe request without consulting the
// registry; the resubscribe path reuses it for symbols already recorded.
func (c *Client) sendSubscribe(ctx context.Context, symbol string) error {
	id := c.nextRequestID()
	_, err := c.request(ctx, c.cfg.SubscribeTimeout, id, subscribeRequest{
		Action:    "subscribe",
		RequestID: id,
		Symbol:    symbol,
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", symbol, err)
	}
	return nil
}

// Unsubscribe stops market data for symbol. Unsubscribing from an unknown
// symbol is a no-op.
func (c *Client) Unsubscribe(ctx context.Context, symbol string) error {
	if !c.subs.has(symbol) {
		return nil
	}

	id := c.nextRequestID()
	_, err := c.request(ctx, c.cfg.SubscribeTimeout, id, subscribeRequest{
		Action:    "unsubscribe",
		RequestID: id,
		Symbol:    symbol,
	})
	if err != nil {
		return fmt.Errorf("unsubscribe %s: %w", symbol, err)
	}

	c.subs.remove(symbol)
	c.logger.Info("unsubscribed", "symbol", symbol)
	return nil
}

// resubscribeAll replays the registry after a reconnect. Best-effort:
// individual failures are logged and do not abort recovery.
func (c *Client) resubscribeAll(ctx context.Context) {
	symbols := c.subs.current()
	if len(symbols) == 0 {
		return
	}

	c.logger.Info("resubscribing after reconnect", "count", len(symbols))
	for _, symbol := range symbols {
		if err := c.sendSubscribe(ctx, symbol); err != nil {
			c.logger.Warn("resubscribe failed", "symbol", symbol, "error", err)
		}
	}
}

// PlaceOrder validates and submits an order. A client order id is generated
// when the caller does not supply one.
func (c *Client) PlaceOrder(ctx context.Context, order model.Order) (*model.OrderAck, error) {
	if err := order.Validate(); err != nil {
		return nil, fmt.Errorf("invalid order: %w", err)
	}
	if order.ClientOrderID == "" {
		order.ClientOrderID = uuid.NewString()
	}

	id := c.nextRequestID()
	resp, err := c.request(ctx, c.cfg.RequestTimeout, id, orderRequest{
		Action:        "place_order",
		RequestID:     id,
		Symbol:        order.Symbol,
		Side:          order.Side,
		OrderType:     order.Type,
		Quantity:      order.Quantity,
		Price:         order.Price,
		StopPrice:     order.StopPrice,
		TimeInForce:   order.TimeInForce,
		ClientOrderID: order.ClientOrderID,
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return nil, fmt.Errorf("place order: %w", err)
	}

	ack := &model.OrderAck{ClientOrderID: order.ClientOrderID}
	if len(resp.Data) > 0 {
		if err := json.Unmarshal(resp.Data, ack); err != nil {
			return nil, fmt.Errorf("decode order ack: %w", err)
		}
	}

	c.logger.Info("order placed",
		"symbol", order.Symbol,
		"side", order.Side,
		"type", order.Type,
		"quantity", order.Quantity,
		"order_id", ack.OrderID,
	)
	return ack, nil
}

// CancelOrder cancels a working order by broker order id.
func (c *Client) CancelOrder(ctx context.Context, orderID string) (*model.OrderAck, error) {
	if orderID == "" {
		return nil, errors.New("order id cannot be empty")
	}

	id := c.nextRequestID()
	resp, err := c.request(ctx, c.cfg.RequestTimeout, id, cancelRequest{
		Action:    "cancel_order",
		RequestID: id,
		OrderID:   orderID,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return nil, fmt.Errorf("cancel order %s: %w", orderID, err)
	}

	ack := &model.OrderAck{OrderID: orderID}
	if len(resp.Data) > 0 {
		if err := json.Unmarshal(resp.Data, ack); err != nil {
			return nil, fmt.Errorf("decode cancel ack: %w", err)
		}
	}

	c.logger.Info("order cancelled", "order_id", orderID)
	return ack, nil
}

// QueryPositions fetches current positions.
func (c *Client) QueryPositions(ctx context.Context) ([]model.Position, error) {
	id := c.nextRequestID()
	resp, err := c.request(ctx, c.cfg.RequestTimeout, id, queryRequest{
		Action:    "get_positions",
		RequestID: id,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return nil, fmt.Errorf("query positions: %w", err)
	}

	var payload positionsPayload
	if len(resp.Data) > 0 {
		if err := json.Unmarshal(resp.Data, &payload); err != nil {
			return nil, fmt.Errorf("decode positions: %w", err)
		}
	}
	return payload.Positions, nil
}

// QueryAccountInfo fetches the account snapshot.
func (c *Client) QueryAccountInfo(ctx context.Context) (*model.AccountInfo, error) {
	id := c.nextRequestID()
	resp, err := c.request(ctx, c.cfg.RequestTimeout, id, queryRequest{
		Action:    "get_account_info",
		RequestID: id,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return nil, fmt.Errorf("query account info: %w", err)
	}

	var info model.AccountInfo
	if len(resp.Data) > 0 {
		if err := json.Unmarshal(resp.Data, &info); err != nil {
			return nil, fmt.Errorf("decode account info: %w", err)
		}
	}
	return &info, nil
}

// -----------------------------------------------------------------------------
// Observability and event registration
// -----------------------------------------------------------------------------

// Stats returns a snapshot of the client's observable state.
func (c *Client) Stats() ConnectionStats {
	c.mu.Lock()
	state := c.state
	attempts := c.reconnectAttempts
	c.mu.Unlock()

	return ConnectionStats{
		State:               state,
		Connected:           state == StateReady,
		ReconnectAttempts:   attempts,
		ActiveSubscriptions: c.subs.len(),
		PendingRequests:     c.pending.len(),
	}
}

// State returns the current lifecycle state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// OnMarketData registers a handler for market data ticks. Handlers run on
// the read-loop goroutine and must not block.
func (c *Client) OnMarketData(h func(model.MarketDataTick)) {
	c.events.register(EventMarketData, func(data json.RawMessage) {
		var tick model.MarketDataTick
		if err := json.Unmarshal(data, &tick); err != nil {
			c.logger.Warn("dropping undecodable market data", "error", err)
			return
		}
		if tick.ReceivedAt.IsZero() {
			tick.ReceivedAt = time.Now()
		}
		h(tick)
	})
}

// OnOrderUpdate registers a handler for order updates.
func (c *Client) OnOrderUpdate(h func(model.OrderUpdate)) {
	c.events.register(EventOrderUpdate, func(data json.RawMessage) {
		var update model.OrderUpdate
		if err := json.Unmarshal(data, &update); err != nil {
			c.logger.Warn("dropping undecodable order update", "error", err)
			return
		}
		h(update)
	})
}

// OnPositionUpdate registers a handler for position updates.
func (c *Client) OnPositionUpdate(h func(model.Position)) {
	c.events.register(EventPositionUpdate, func(data json.RawMessage) {
		var pos model.Position
		if err := json.Unmarshal(data, &pos); err != nil {
			c.logger.Warn("dropping undecodable position update", "error", err)
			return
		}
		h(pos)
	})
}
