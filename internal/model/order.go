package model

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// OrderSide is the direction of an order.
type OrderSide string

const (
	SideBuy  OrderSide = "buy"
	SideSell OrderSide = "sell"
)

// OrderType determines how an order is executed.
type OrderType string

const (
	TypeMarket    OrderType = "market"
	TypeLimit     OrderType = "limit"
	TypeStop      OrderType = "stop"
	TypeStopLimit OrderType = "stop_limit"
)

// OrderStatus is the broker-reported lifecycle state of an order.
type OrderStatus string

const (
	StatusPending         OrderStatus = "pending"
	StatusOpen            OrderStatus = "open"
	StatusFilled          OrderStatus = "filled"
	StatusPartiallyFilled OrderStatus = "partially_filled"
	StatusCancelled       OrderStatus = "cancelled"
	StatusRejected        OrderStatus = "rejected"
	StatusExpired         OrderStatus = "expired"
)

// TimeInForce controls how long an order stays working.
type TimeInForce string

const (
	TIFDay TimeInForce = "day"
	TIFGTC TimeInForce = "gtc"
	TIFIOC TimeInForce = "ioc"
	TIFFOK TimeInForce = "fok"
)

// MaxOrderQuantity is the per-order contract limit.
const MaxOrderQuantity = 100

// allowedSymbols are the futures contracts the assistant is permitted to trade.
var allowedSymbols = map[string]struct{}{
	"MES": {}, "ES": {}, "NQ": {}, "YM": {}, "RTY": {}, "CL": {}, "GC": {}, "SI": {},
}

// Validation errors.
var (
	ErrEmptySymbol      = errors.New("symbol cannot be empty")
	ErrSymbolNotAllowed = errors.New("symbol not in allowed list")
	ErrBadQuantity      = errors.New("quantity must be between 1 and 100")
	ErrPriceRequired    = errors.New("price required for this order type")
	ErrStopRequired     = errors.New("stop price required for this order type")
	ErrBadPrice         = errors.New("price must be positive")
	ErrLongClientID     = errors.New("client order id cannot exceed 50 characters")
)

// Order is a request to place a trade.
type Order struct {
	Symbol        string           `json:"symbol"`
	Side          OrderSide        `json:"side"`
	Type          OrderType        `json:"order_type"`
	Quantity      int              `json:"quantity"`
	Price         *decimal.Decimal `json:"price,omitempty"`
	StopPrice     *decimal.Decimal `json:"stop_price,omitempty"`
	TimeInForce   TimeInForce      `json:"time_in_force,omitempty"`
	ClientOrderID string           `json:"client_order_id,omitempty"`
}

// Validate normalizes the order in place and reports the first rule violation.
// Symbols are upper-cased; an empty time-in-force defaults to day.
func (o *Order) Validate() error {
	o.Symbol = strings.ToUpper(strings.TrimSpace(o.Symbol))
	if o.Symbol == "" {
		return ErrEmptySymbol
	}
	if _, ok := allowedSymbols[o.Symbol]; !ok {
		return fmt.Errorf("%w: %s", ErrSymbolNotAllowed, o.Symbol)
	}

	switch o.Side {
	case SideBuy, SideSell:
	default:
		return fmt.Errorf("invalid order side %q", o.Side)
	}

	if o.Quantity < 1 || o.Quantity > MaxOrderQuantity {
		return fmt.Errorf("%w, got %d", ErrBadQuantity, o.Quantity)
	}

	switch o.Type {
	case TypeMarket:
	case TypeLimit:
		if o.Price == nil {
			return fmt.Errorf("%w: %s", ErrPriceRequired, o.Type)
		}
	case TypeStop:
		if o.StopPrice == nil {
			return fmt.Errorf("%w: %s", ErrStopRequired, o.Type)
		}
	case TypeStopLimit:
		if o.Price == nil {
			return fmt.Errorf("%w: %s", ErrPriceRequired, o.Type)
		}
		if o.StopPrice == nil {
			return fmt.Errorf("%w: %s", ErrStopRequired, o.Type)
		}
	default:
		return fmt.Errorf("invalid order type %q", o.Type)
	}

	if o.Price != nil && !o.Price.IsPositive() {
		return ErrBadPrice
	}
	if o.StopPrice != nil && !o.StopPrice.IsPositive() {
		return ErrBadPrice
	}

	if o.TimeInForce == "" {
		o.TimeInForce = TIFDay
	}
	if len(o.ClientOrderID) > 50 {
		return ErrLongClientID
	}

	return nil
}

// OrderAck is the broker's acknowledgment of an order action.
type OrderAck struct {
	OrderID       string      `json:"order_id"`
	ClientOrderID string      `json:"client_order_id,omitempty"`
	Symbol        string      `json:"symbol,omitempty"`
	Status        OrderStatus `json:"order_status,omitempty"`
	Message       string      `json:"message,omitempty"`
}

// OrderUpdate is a real-time order state change pushed by the broker.
type OrderUpdate struct {
	OrderID           string           `json:"order_id"`
	ClientOrderID     string           `json:"client_order_id,omitempty"`
	Symbol            string           `json:"symbol"`
	Side              OrderSide        `json:"side"`
	Type              OrderType        `json:"order_type"`
	Status            OrderStatus      `json:"order_status"`
	Quantity          int              `json:"quantity"`
	FilledQuantity    int              `json:"filled_quantity"`
	RemainingQuantity int              `json:"remaining_quantity"`
	Price             *decimal.Decimal `json:"price,omitempty"`
	AvgFillPrice      *decimal.Decimal `json:"average_fill_price,omitempty"`
	Timestamp         time.Time        `json:"timestamp"`
	Reason            string           `json:"reason,omitempty"`
}
