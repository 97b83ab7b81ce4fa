package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Fatalf("server.port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Hub.MaxMessageSize != 1048576 {
		t.Fatalf("hub.max_message_size = %d, want 1048576", cfg.Hub.MaxMessageSize)
	}
	if cfg.Hub.RateLimit != 30 {
		t.Fatalf("hub.rate_limit = %d, want 30", cfg.Hub.RateLimit)
	}
	if cfg.Hub.RateWindow != time.Minute {
		t.Fatalf("hub.rate_window = %s, want 1m", cfg.Hub.RateWindow)
	}
	if cfg.Hub.HistorySize != 100 {
		t.Fatalf("hub.history_size = %d, want 100", cfg.Hub.HistorySize)
	}
	if cfg.WebSocket.PingInterval != 30*time.Second {
		t.Fatalf("websocket.ping_interval = %s, want 30s", cfg.WebSocket.PingInterval)
	}
	if cfg.Database.Driver != "postgres" {
		t.Fatalf("database.driver = %s, want postgres", cfg.Database.Driver)
	}
	if cfg.Kafka.Enabled || cfg.Redis.Enabled {
		t.Fatal("kafka and redis must default to disabled")
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("PORT", "9999")
	t.Setenv("DB_DRIVER", "sqlite")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != 9999 {
		t.Fatalf("server.port = %d, want 9999", cfg.Server.Port)
	}
	if cfg.Database.Driver != "sqlite" {
		t.Fatalf("database.driver = %s, want sqlite", cfg.Database.Driver)
	}
}
