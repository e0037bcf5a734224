// Package connection implements the transport session: a single WebSocket
// connection to the Ironbeam broker.
//
// A Session:
//   - Owns the physical socket and its read loop
//   - Delivers inbound frames with receive timestamps
//   - Serializes writes and applies write deadlines
//   - Detects stale connections via ping/pong heartbeats
//
// A Session never reconnects. Connection loss is reported on the Errors
// channel and the frame channel is closed; recovery is the broker client's
// responsibility.
package connection
