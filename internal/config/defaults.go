package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultEndpoint             = "wss://demo.ironbeam.com/socket"
	DefaultAuthTimeout          = 10 * time.Second
	DefaultRequestTimeout       = 10 * time.Second
	DefaultSubscribeTimeout     = 5 * time.Second
	DefaultMaxReconnectAttempts = 10
	DefaultReconnectBaseDelay   = 5 * time.Second
	DefaultReconnectMaxDelay    = 60 * time.Second
	DefaultPingTimeout          = 30 * time.Second
	DefaultWriteTimeout         = 5 * time.Second
	DefaultBufferSize           = 1000
	DefaultDBPort               = 5432
	DefaultDBSSLMode            = "prefer"
	DefaultMaxConns             = 10
	DefaultMinConns             = 2
	DefaultJournalBatchSize     = 500
	DefaultJournalFlushInterval = 1 * time.Second
	DefaultJournalBufferSize    = 10000
)

func (c *Config) applyDefaults() {
	// Broker defaults
	if c.Broker.Endpoint == "" {
		c.Broker.Endpoint = DefaultEndpoint
	}
	if c.Broker.AuthTimeout == 0 {
		c.Broker.AuthTimeout = DefaultAuthTimeout
	}
	if c.Broker.RequestTimeout == 0 {
		c.Broker.RequestTimeout = DefaultRequestTimeout
	}
	if c.Broker.SubscribeTimeout == 0 {
		c.Broker.SubscribeTimeout = DefaultSubscribeTimeout
	}
	if c.Broker.MaxReconnectAttempts == 0 {
		c.Broker.MaxReconnectAttempts = DefaultMaxReconnectAttempts
	}
	if c.Broker.ReconnectBaseDelay == 0 {
		c.Broker.ReconnectBaseDelay = DefaultReconnectBaseDelay
	}
	if c.Broker.ReconnectMaxDelay == 0 {
		c.Broker.ReconnectMaxDelay = DefaultReconnectMaxDelay
	}
	if c.Broker.PingTimeout == 0 {
		c.Broker.PingTimeout = DefaultPingTimeout
	}
	if c.Broker.WriteTimeout == 0 {
		c.Broker.WriteTimeout = DefaultWriteTimeout
	}
	if c.Broker.BufferSize == 0 {
		c.Broker.BufferSize = DefaultBufferSize
	}

	// Database defaults
	if c.Database.Port == 0 {
		c.Database.Port = DefaultDBPort
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = DefaultDBSSLMode
	}
	if c.Database.MaxConns == 0 {
		c.Database.MaxConns = DefaultMaxConns
	}
	if c.Database.MinConns == 0 {
		c.Database.MinConns = DefaultMinConns
	}

	// Journal defaults
	if c.Journal.BatchSize == 0 {
		c.Journal.BatchSize = DefaultJournalBatchSize
	}
	if c.Journal.FlushInterval == 0 {
		c.Journal.FlushInterval = DefaultJournalFlushInterval
	}
	if c.Journal.BufferSize == 0 {
		c.Journal.BufferSize = DefaultJournalBufferSize
	}
}
