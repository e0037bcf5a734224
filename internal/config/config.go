// Package config loads and validates the assistant's YAML configuration.
package config

import "time"

// Config is the root configuration for an assistant instance.
type Config struct {
	Instance InstanceConfig `yaml:"instance"`
	Broker   BrokerConfig   `yaml:"broker"`
	Database DBConfig       `yaml:"database"`
	Journal  JournalConfig  `yaml:"journal"`
}

// InstanceConfig identifies this assistant.
type InstanceConfig struct {
	ID string `yaml:"id"`
}

// BrokerConfig holds Ironbeam connectivity settings.
type BrokerConfig struct {
	Endpoint  string `yaml:"endpoint"`   // WebSocket URL (e.g., wss://demo.ironbeam.com/socket)
	APIKey    string `yaml:"api_key"`    // API key, supports ${VAR} expansion
	APISecret string `yaml:"api_secret"` // API secret, supports ${VAR} expansion

	AuthTimeout      time.Duration `yaml:"auth_timeout"`
	RequestTimeout   time.Duration `yaml:"request_timeout"`   // orders and queries
	SubscribeTimeout time.Duration `yaml:"subscribe_timeout"` // subscribe/unsubscribe

	MaxReconnectAttempts int           `yaml:"max_reconnect_attempts"`
	ReconnectBaseDelay   time.Duration `yaml:"reconnect_base_delay"`
	ReconnectMaxDelay    time.Duration `yaml:"reconnect_max_delay"`

	PingTimeout  time.Duration `yaml:"ping_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	BufferSize   int           `yaml:"buffer_size"`
}

// DBConfig holds the market-data journal database connection.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

// JournalConfig holds tick journal writer settings.
type JournalConfig struct {
	Enabled       bool          `yaml:"enabled"`
	BatchSize     int           `yaml:"batch_size"`
	FlushInterval time.Duration `yaml:"flush_interval"`
	BufferSize    int           `yaml:"buffer_size"`
}
