package broker

import (
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"

	"github.com/JalenTrades/mes-trading-assistant/internal/model"
)

// Errors
var (
	ErrNotReady       = errors.New("session not ready")
	ErrTimeout        = errors.New("request timeout")
	ErrConnectionLost = errors.New("connection lost")
	ErrShuttingDown   = errors.New("shutting down")
	ErrRetryBudget    = errors.New("reconnect budget exhausted")
)

// Error is a broker-reported request rejection.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("broker error %s: %s", e.Code, e.Message)
	}
	return "broker error: " + e.Message
}

// State is the connection lifecycle state.
type State string

const (
	StateDisconnected   State = "disconnected"
	StateConnecting     State = "connecting"
	StateAuthenticating State = "authenticating"
	StateReady          State = "ready"
	StateReconnecting   State = "reconnecting"
	StateFailed         State = "failed"
)

// ConnectionStats is a snapshot of the client's observable state.
type ConnectionStats struct {
	State               State
	Connected           bool
	ReconnectAttempts   int
	ActiveSubscriptions int
	PendingRequests     int
}

// Config configures the broker client.
type Config struct {
	Endpoint  string // WebSocket URL
	APIKey    string
	APISecret string

	AuthTimeout      time.Duration
	RequestTimeout   time.Duration // orders and queries
	SubscribeTimeout time.Duration // subscribe/unsubscribe

	MaxReconnectAttempts int
	ReconnectBaseDelay   time.Duration
	ReconnectMaxDelay    time.Duration

	PingTimeout  time.Duration
	WriteTimeout time.Duration
	BufferSize   int
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		AuthTimeout:          10 * time.Second,
		RequestTimeout:       10 * time.Second,
		SubscribeTimeout:     5 * time.Second,
		MaxReconnectAttempts: 10,
		ReconnectBaseDelay:   5 * time.Second,
		ReconnectMaxDelay:    60 * time.Second,
		PingTimeout:          30 * time.Second,
		WriteTimeout:         5 * time.Second,
		BufferSize:           1000,
	}
}

// -----------------------------------------------------------------------------
// Wire types
//
// Frames are JSON text. Outbound frames carry an "action" discriminator and a
// "request_id" correlation token; inbound frames carry a "type" discriminator,
// the correlation token when answering a request, and a "data" payload.
// -----------------------------------------------------------------------------

// inboundFrame is any message from the broker.
type inboundFrame struct {
	Type      string          `json:"type"`
	RequestID string          `json:"request_id,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
	Code      string          `json:"code,omitempty"`
	Message   string          `json:"message,omitempty"`
}

// responseError converts an error-typed response into a *Error, or nil.
func (f *inboundFrame) responseError() error {
	if f.Type != "error" {
		return nil
	}
	return &Error{Code: f.Code, Message: f.Message}
}

type authRequest struct {
	Action    string `json:"action"`
	RequestID string `json:"request_id"`
	APIKey    string `json:"api_key"`
	Secret    string `json:"secret"`
	Timestamp string `json:"timestamp"`
}

type subscribeRequest struct {
	Action    string `json:"action"`
	RequestID string `json:"request_id"`
	Symbol    string `json:"symbol"`
}

type orderRequest struct {
	Action        string            `json:"action"`
	RequestID     string            `json:"request_id"`
	Symbol        string            `json:"symbol"`
	Side          model.OrderSide   `json:"side"`
	OrderType     model.OrderType   `json:"order_type"`
	Quantity      int               `json:"quantity"`
	Price         *decimal.Decimal  `json:"price,omitempty"`
	StopPrice     *decimal.Decimal  `json:"stop_price,omitempty"`
	TimeInForce   model.TimeInForce `json:"time_in_force,omitempty"`
	ClientOrderID string            `json:"client_order_id,omitempty"`
	Timestamp     string            `json:"timestamp"`
}

type cancelRequest struct {
	Action    string `json:"action"`
	RequestID string `json:"request_id"`
	OrderID   string `json:"order_id"`
	Timestamp string `json:"timestamp"`
}

type queryRequest struct {
	Action    string `json:"action"`
	RequestID string `json:"request_id"`
	Timestamp string `json:"timestamp"`
}

// positionsPayload is the data payload of a get_positions response.
type positionsPayload struct {
	Positions []model.Position `json:"positions"`
}
