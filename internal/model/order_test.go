package model

import (
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func decPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func TestOrderValidate(t *testing.T) {
	tests := []struct {
		name    string
		order   Order
		wantErr error
	}{
		{
			name:  "valid market order",
			order: Order{Symbol: "MES", Side: SideBuy, Type: TypeMarket, Quantity: 2},
		},
		{
			name:  "valid limit order",
			order: Order{Symbol: "ES", Side: SideSell, Type: TypeLimit, Quantity: 1, Price: decPtr("5000.25")},
		},
		{
			name:  "valid stop order",
			order: Order{Symbol: "NQ", Side: SideSell, Type: TypeStop, Quantity: 3, StopPrice: decPtr("18000")},
		},
		{
			name: "valid stop limit order",
			order: Order{
				Symbol: "CL", Side: SideBuy, Type: TypeStopLimit, Quantity: 1,
				Price: decPtr("80.10"), StopPrice: decPtr("80.00"),
			},
		},
		{
			name:    "empty symbol",
			order:   Order{Side: SideBuy, Type: TypeMarket, Quantity: 1},
			wantErr: ErrEmptySymbol,
		},
		{
			name:    "symbol not allowed",
			order:   Order{Symbol: "AAPL", Side: SideBuy, Type: TypeMarket, Quantity: 1},
			wantErr: ErrSymbolNotAllowed,
		},
		{
			name:    "zero quantity",
			order:   Order{Symbol: "MES", Side: SideBuy, Type: TypeMarket, Quantity: 0},
			wantErr: ErrBadQuantity,
		},
		{
			name:    "quantity over limit",
			order:   Order{Symbol: "MES", Side: SideBuy, Type: TypeMarket, Quantity: 101},
			wantErr: ErrBadQuantity,
		},
		{
			name:    "limit order without price",
			order:   Order{Symbol: "MES", Side: SideBuy, Type: TypeLimit, Quantity: 1},
			wantErr: ErrPriceRequired,
		},
		{
			name:    "stop order without stop price",
			order:   Order{Symbol: "MES", Side: SideSell, Type: TypeStop, Quantity: 1},
			wantErr: ErrStopRequired,
		},
		{
			name:    "stop limit without stop price",
			order:   Order{Symbol: "MES", Side: SideBuy, Type: TypeStopLimit, Quantity: 1, Price: decPtr("5000")},
			wantErr: ErrStopRequired,
		},
		{
			name:    "negative price",
			order:   Order{Symbol: "MES", Side: SideBuy, Type: TypeLimit, Quantity: 1, Price: decPtr("-1")},
			wantErr: ErrBadPrice,
		},
		{
			name:    "zero price",
			order:   Order{Symbol: "MES", Side: SideBuy, Type: TypeLimit, Quantity: 1, Price: decPtr("0")},
			wantErr: ErrBadPrice,
		},
		{
			name: "client order id too long",
			order: Order{
				Symbol: "MES", Side: SideBuy, Type: TypeMarket, Quantity: 1,
				ClientOrderID: strings.Repeat("x", 51),
			},
			wantErr: ErrLongClientID,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.order.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestOrderValidateRejectsBadSide(t *testing.T) {
	order := Order{Symbol: "MES", Side: "hold", Type: TypeMarket, Quantity: 1}
	if err := order.Validate(); err == nil {
		t.Error("expected error for invalid side")
	}
}

func TestOrderValidateRejectsBadType(t *testing.T) {
	order := Order{Symbol: "MES", Side: SideBuy, Type: "trailing", Quantity: 1}
	if err := order.Validate(); err == nil {
		t.Error("expected error for invalid type")
	}
}

func TestOrderValidateNormalizes(t *testing.T) {
	order := Order{Symbol: " mes ", Side: SideBuy, Type: TypeMarket, Quantity: 1}
	if err := order.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if order.Symbol != "MES" {
		t.Errorf("Symbol = %q, want %q", order.Symbol, "MES")
	}
	if order.TimeInForce != TIFDay {
		t.Errorf("TimeInForce = %q, want %q", order.TimeInForce, TIFDay)
	}
}

func TestPositionMarketValue(t *testing.T) {
	pos := Position{
		Symbol:      "MES",
		Side:        "short",
		Size:        -2,
		MarketPrice: decimal.RequireFromString("5000.25"),
	}
	want := decimal.RequireFromString("10000.50")
	if got := pos.MarketValue(); !got.Equal(want) {
		t.Errorf("MarketValue() = %s, want %s", got, want)
	}
}

func TestAccountNetLiquidationValue(t *testing.T) {
	info := AccountInfo{
		Balances: []Balance{
			{Currency: "USD", Total: decimal.RequireFromString("25000"), UnrealizedPnL: decimal.RequireFromString("-150.50")},
			{Currency: "USD", Total: decimal.RequireFromString("1000"), UnrealizedPnL: decimal.Zero},
		},
	}
	want := decimal.RequireFromString("25849.50")
	if got := info.NetLiquidationValue(); !got.Equal(want) {
		t.Errorf("NetLiquidationValue() = %s, want %s", got, want)
	}
}

func TestMarketDataTickSpread(t *testing.T) {
	tick := MarketDataTick{
		Symbol: "MES",
		Bid:    decimal.RequireFromString("5000.25"),
		Ask:    decimal.RequireFromString("5000.50"),
	}
	want := decimal.RequireFromString("0.25")
	if got := tick.Spread(); !got.Equal(want) {
		t.Errorf("Spread() = %s, want %s", got, want)
	}
}
