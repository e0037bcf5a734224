package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Position is an open position reported by the broker.
type Position struct {
	Symbol        string          `json:"symbol"`
	Side          string          `json:"side"` // "long" or "short"
	Size          int             `json:"size"` // signed: + long, - short
	EntryPrice    decimal.Decimal `json:"entry_price"`
	MarketPrice   decimal.Decimal `json:"market_price"`
	UnrealizedPnL decimal.Decimal `json:"unrealized_pnl"`
	RealizedPnL   decimal.Decimal `json:"realized_pnl"`
	MarginUsed    decimal.Decimal `json:"margin_used"`
	Timestamp     time.Time       `json:"timestamp"`
}

// MarketValue is the absolute notional value of the position.
func (p Position) MarketValue() decimal.Decimal {
	return p.MarketPrice.Mul(decimal.NewFromInt(int64(p.Size)).Abs())
}

// Balance is a per-currency account balance.
type Balance struct {
	Currency      string          `json:"currency"`
	Available     decimal.Decimal `json:"available"`
	Total         decimal.Decimal `json:"total"`
	Reserved      decimal.Decimal `json:"reserved"`
	UnrealizedPnL decimal.Decimal `json:"unrealized_pnl"`
}

// AccountInfo is the broker's account snapshot.
type AccountInfo struct {
	AccountID       string          `json:"account_id"`
	AccountType     string          `json:"account_type"` // cash, margin, ...
	Status          string          `json:"status"`       // active, suspended, ...
	Balances        []Balance       `json:"balances"`
	BuyingPower     decimal.Decimal `json:"buying_power"`
	MarginUsed      decimal.Decimal `json:"margin_used"`
	MarginAvailable decimal.Decimal `json:"margin_available"`
	UpdatedAt       time.Time       `json:"last_updated"`
}

// NetLiquidationValue is total cash plus unrealized P&L across balances.
func (a AccountInfo) NetLiquidationValue() decimal.Decimal {
	total := decimal.Zero
	for _, b := range a.Balances {
		total = total.Add(b.Total).Add(b.UnrealizedPnL)
	}
	return total
}
