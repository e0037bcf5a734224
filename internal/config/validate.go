package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate checks that all required fields are set and values are valid.
func (c *Config) Validate() error {
	if c.Instance.ID == "" {
		return errors.New("instance.id is required")
	}

	if !strings.HasPrefix(c.Broker.Endpoint, "ws://") && !strings.HasPrefix(c.Broker.Endpoint, "wss://") {
		return fmt.Errorf("broker.endpoint must be a ws:// or wss:// URL, got %q", c.Broker.Endpoint)
	}
	if c.Broker.APIKey == "" {
		return errors.New("broker.api_key is required")
	}
	if c.Broker.APISecret == "" {
		return errors.New("broker.api_secret is required")
	}
	if c.Broker.MaxReconnectAttempts < 1 {
		return errors.New("broker.max_reconnect_attempts must be >= 1")
	}
	if c.Broker.ReconnectBaseDelay <= 0 {
		return errors.New("broker.reconnect_base_delay must be positive")
	}
	if c.Broker.ReconnectMaxDelay < c.Broker.ReconnectBaseDelay {
		return fmt.Errorf("broker.reconnect_max_delay (%s) cannot be less than reconnect_base_delay (%s)",
			c.Broker.ReconnectMaxDelay, c.Broker.ReconnectBaseDelay)
	}
	if c.Broker.BufferSize < 1 {
		return errors.New("broker.buffer_size must be >= 1")
	}

	if c.Journal.Enabled {
		if err := c.Database.validate("database"); err != nil {
			return err
		}
		if c.Journal.BatchSize < 1 {
			return errors.New("journal.batch_size must be >= 1")
		}
		if c.Journal.BufferSize < 1 {
			return errors.New("journal.buffer_size must be >= 1")
		}
	}

	return nil
}

func (db *DBConfig) validate(prefix string) error {
	if db.Host == "" {
		return fmt.Errorf("%s.host is required", prefix)
	}
	if db.Name == "" {
		return fmt.Errorf("%s.name is required", prefix)
	}
	if db.User == "" {
		return fmt.Errorf("%s.user is required", prefix)
	}
	if db.Password == "" {
		return fmt.Errorf("%s.password is required", prefix)
	}
	if db.MaxConns < 1 {
		return fmt.Errorf("%s.max_conns must be >= 1", prefix)
	}
	if db.MinConns < 0 {
		return fmt.Errorf("%s.min_conns must be >= 0", prefix)
	}
	if db.MinConns > db.MaxConns {
		return fmt.Errorf("%s.min_conns (%d) cannot exceed max_conns (%d)", prefix, db.MinConns, db.MaxConns)
	}
	return nil
}
