// Package journal persists received market-data ticks.
//
// Ticks flow from the broker client's market-data handler into a growable
// in-memory buffer, and a batch writer drains the buffer into the
// market_data_ticks table using pgx batches. Inserts are append-only with
// ON CONFLICT DO NOTHING so replayed ticks after a reconnect are harmless.
package journal
