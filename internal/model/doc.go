// Package model defines shared trading data types used across the assistant.
//
// Conventions:
//   - Prices and monetary amounts: shopspring/decimal (never float64)
//   - Quantities: int contracts, signed for positions (+ long, - short)
//   - Timestamps: time.Time, serialized as RFC 3339
package model
