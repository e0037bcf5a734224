// Package broker implements the resilient Ironbeam connectivity client.
//
// The Client:
//   - Drives the session lifecycle (connect, authenticate, ready, reconnect)
//   - Correlates request/response exchanges over one multiplexed socket
//   - Tracks subscriptions and replays them after a reconnect
//   - Fans out pushed events (market data, order and position updates)
//
// Reconnection uses a linearly increasing backoff bounded by a cap and an
// attempt budget; exhausting the budget leaves the client in StateFailed
// until Connect is called again.
package broker
