package connection

import (
	"errors"
	"time"
)

// Errors
var (
	ErrNotConnected    = errors.New("not connected")
	ErrStaleConnection = errors.New("connection stale (no ping)")
	ErrAlreadyClosed   = errors.New("already closed")
)

// Frame wraps raw frame bytes with a receive timestamp.
type Frame struct {
	Data       []byte    // Raw frame bytes from the WebSocket
	ReceivedAt time.Time // Local timestamp when ReadMessage() returned
}

// Config configures a transport session.
type Config struct {
	URL              string        // WebSocket URL (e.g., wss://demo.ironbeam.com/socket)
	HandshakeTimeout time.Duration // Dial handshake deadline
	PingTimeout      time.Duration // Max time without ping/pong before the session is considered stale
	WriteTimeout     time.Duration // Write deadline for sends
	BufferSize       int           // Frame channel buffer size
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		HandshakeTimeout: 10 * time.Second,
		PingTimeout:      30 * time.Second,
		WriteTimeout:     5 * time.Second,
		BufferSize:       1000,
	}
}
