package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// MarketDataTick is a top-of-book market data update for one symbol.
type MarketDataTick struct {
	Symbol     string          `json:"symbol"`
	Bid        decimal.Decimal `json:"bid"`
	Ask        decimal.Decimal `json:"ask"`
	Last       decimal.Decimal `json:"last"`
	BidSize    int             `json:"bid_size"`
	AskSize    int             `json:"ask_size"`
	LastSize   int             `json:"last_size"`
	Volume     int64           `json:"volume"`
	Timestamp  time.Time       `json:"timestamp"`   // broker timestamp
	ReceivedAt time.Time       `json:"received_at"` // local receive time, set by the client
}

// Spread is ask minus bid.
func (t MarketDataTick) Spread() decimal.Decimal {
	return t.Ask.Sub(t.Bid)
}
