package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	yaml := `
instance:
  id: test-assistant
broker:
  endpoint: wss://demo.ironbeam.com/socket
  api_key: test-key
  api_secret: test-secret
database:
  host: localhost
  port: 5432
  name: test_db
  user: testuser
  password: testpass
`
	path := writeTempFile(t, yaml)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Instance.ID != "test-assistant" {
		t.Errorf("Instance.ID = %q, want %q", cfg.Instance.ID, "test-assistant")
	}
	if cfg.Broker.Endpoint != "wss://demo.ironbeam.com/socket" {
		t.Errorf("Broker.Endpoint = %q, want %q", cfg.Broker.Endpoint, "wss://demo.ironbeam.com/socket")
	}
	if cfg.Database.Host != "localhost" {
		t.Errorf("Database.Host = %q, want %q", cfg.Database.Host, "localhost")
	}
}

func TestLoadWithEnvSubstitution(t *testing.T) {
	t.Setenv("TEST_API_SECRET", "secret123")

	yaml := `
instance:
  id: test-assistant
broker:
  api_key: test-key
  api_secret: ${TEST_API_SECRET}
`
	path := writeTempFile(t, yaml)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Broker.APISecret != "secret123" {
		t.Errorf("Broker.APISecret = %q, want %q", cfg.Broker.APISecret, "secret123")
	}
}

func TestLoadWithDefaults(t *testing.T) {
	yaml := `
instance:
  id: test-assistant
broker:
  api_key: test-key
  api_secret: test-secret
`
	path := writeTempFile(t, yaml)

	cfg, err := LoadWithDefaults(path)
	if err != nil {
		t.Fatalf("LoadWithDefaults failed: %v", err)
	}

	// Check defaults were applied
	if cfg.Broker.Endpoint != DefaultEndpoint {
		t.Errorf("Broker.Endpoint = %q, want default %q", cfg.Broker.Endpoint, DefaultEndpoint)
	}
	if cfg.Broker.AuthTimeout != DefaultAuthTimeout {
		t.Errorf("Broker.AuthTimeout = %v, want default %v", cfg.Broker.AuthTimeout, DefaultAuthTimeout)
	}
	if cfg.Broker.MaxReconnectAttempts != DefaultMaxReconnectAttempts {
		t.Errorf("Broker.MaxReconnectAttempts = %d, want default %d", cfg.Broker.MaxReconnectAttempts, DefaultMaxReconnectAttempts)
	}
	if cfg.Broker.ReconnectBaseDelay != DefaultReconnectBaseDelay {
		t.Errorf("Broker.ReconnectBaseDelay = %v, want default %v", cfg.Broker.ReconnectBaseDelay, DefaultReconnectBaseDelay)
	}
	if cfg.Database.Port != DefaultDBPort {
		t.Errorf("Database.Port = %d, want default %d", cfg.Database.Port, DefaultDBPort)
	}
	if cfg.Journal.BatchSize != DefaultJournalBatchSize {
		t.Errorf("Journal.BatchSize = %d, want default %d", cfg.Journal.BatchSize, DefaultJournalBatchSize)
	}
}

func validBrokerConfig() BrokerConfig {
	return BrokerConfig{
		Endpoint:             "wss://demo.ironbeam.com/socket",
		APIKey:               "key",
		APISecret:            "secret",
		AuthTimeout:          10 * time.Second,
		RequestTimeout:       10 * time.Second,
		SubscribeTimeout:     5 * time.Second,
		MaxReconnectAttempts: 10,
		ReconnectBaseDelay:   5 * time.Second,
		ReconnectMaxDelay:    60 * time.Second,
		PingTimeout:          30 * time.Second,
		WriteTimeout:         5 * time.Second,
		BufferSize:           1000,
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{
			name:    "missing instance id",
			cfg:     Config{},
			wantErr: "instance.id is required",
		},
		{
			name: "non-websocket endpoint",
			cfg: Config{
				Instance: InstanceConfig{ID: "test"},
				Broker: func() BrokerConfig {
					b := validBrokerConfig()
					b.Endpoint = "https://demo.ironbeam.com/socket"
					return b
				}(),
			},
			wantErr: `broker.endpoint must be a ws:// or wss:// URL, got "https://demo.ironbeam.com/socket"`,
		},
		{
			name: "missing api key",
			cfg: Config{
				Instance: InstanceConfig{ID: "test"},
				Broker: func() BrokerConfig {
					b := validBrokerConfig()
					b.APIKey = ""
					return b
				}(),
			},
			wantErr: "broker.api_key is required",
		},
		{
			name: "zero reconnect attempts",
			cfg: Config{
				Instance: InstanceConfig{ID: "test"},
				Broker: func() BrokerConfig {
					b := validBrokerConfig()
					b.MaxReconnectAttempts = 0
					return b
				}(),
			},
			wantErr: "broker.max_reconnect_attempts must be >= 1",
		},
		{
			name: "max delay below base delay",
			cfg: Config{
				Instance: InstanceConfig{ID: "test"},
				Broker: func() BrokerConfig {
					b := validBrokerConfig()
					b.ReconnectBaseDelay = 10 * time.Second
					b.ReconnectMaxDelay = 5 * time.Second
					return b
				}(),
			},
			wantErr: "broker.reconnect_max_delay (5s) cannot be less than reconnect_base_delay (10s)",
		},
		{
			name: "journal enabled without database host",
			cfg: Config{
				Instance: InstanceConfig{ID: "test"},
				Broker:   validBrokerConfig(),
				Journal:  JournalConfig{Enabled: true, BatchSize: 500, BufferSize: 10000},
			},
			wantErr: "database.host is required",
		},
		{
			name: "min_conns exceeds max_conns",
			cfg: Config{
				Instance: InstanceConfig{ID: "test"},
				Broker:   validBrokerConfig(),
				Database: DBConfig{Host: "localhost", Name: "db", User: "user", Password: "pass", MaxConns: 5, MinConns: 10},
				Journal:  JournalConfig{Enabled: true, BatchSize: 500, BufferSize: 10000},
			},
			wantErr: "database.min_conns (10) cannot exceed max_conns (5)",
		},
		{
			name: "valid config without journal",
			cfg: Config{
				Instance: InstanceConfig{ID: "test"},
				Broker:   validBrokerConfig(),
			},
			wantErr: "",
		},
		{
			name: "valid config with journal",
			cfg: Config{
				Instance: InstanceConfig{ID: "test"},
				Broker:   validBrokerConfig(),
				Database: DBConfig{Host: "localhost", Name: "db", User: "user", Password: "pass", MaxConns: 10, MinConns: 2},
				Journal:  JournalConfig{Enabled: true, BatchSize: 500, FlushInterval: time.Second, BufferSize: 10000},
			},
			wantErr: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
			} else {
				if err == nil {
					t.Errorf("Validate() expected error containing %q, got nil", tt.wantErr)
				} else if err.Error() != tt.wantErr {
					t.Errorf("Validate() error = %q, want %q", err.Error(), tt.wantErr)
				}
			}
		})
	}
}

func writeTempFile(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	return path
}
