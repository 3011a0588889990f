package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeTempFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	return path
}

const baseYAML = `
database:
  host: localhost
  name: aodata
  user: ingest
  password: secret
bus:
  url: nats://localhost:4222
  orders_subject: marketorders.deduped
  histories_subject: markethistories.deduped
`

func TestLoad(t *testing.T) {
	path := writeTempFile(t, baseYAML)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Database.Host != "localhost" {
		t.Errorf("Database.Host = %q, want %q", cfg.Database.Host, "localhost")
	}
	if cfg.Bus.URL != "nats://localhost:4222" {
		t.Errorf("Bus.URL = %q, want %q", cfg.Bus.URL, "nats://localhost:4222")
	}
	if cfg.Bus.OrdersSubject != "marketorders.deduped" {
		t.Errorf("Bus.OrdersSubject = %q", cfg.Bus.OrdersSubject)
	}
}

func TestLoadWithEnvSubstitution(t *testing.T) {
	t.Setenv("TEST_DB_PASSWORD", "secret123")

	yaml := `
database:
  host: localhost
  name: aodata
  user: ingest
  password: ${TEST_DB_PASSWORD}
bus:
  url: nats://localhost:4222
  orders_subject: marketorders.deduped
`
	path := writeTempFile(t, yaml)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Database.Password != "secret123" {
		t.Errorf("Database.Password = %q, want env-substituted value", cfg.Database.Password)
	}
}

func TestLoadWithDefaults(t *testing.T) {
	path := writeTempFile(t, baseYAML)

	cfg, err := LoadWithDefaults(path)
	if err != nil {
		t.Fatalf("LoadWithDefaults failed: %v", err)
	}

	if cfg.Database.Port != DefaultDBPort {
		t.Errorf("Database.Port = %d, want default %d", cfg.Database.Port, DefaultDBPort)
	}
	if cfg.Ingest.OrdersFlushThreshold != DefaultOrdersFlushThreshold {
		t.Errorf("OrdersFlushThreshold = %d, want default %d",
			cfg.Ingest.OrdersFlushThreshold, DefaultOrdersFlushThreshold)
	}
	if cfg.Ingest.PollInterval != DefaultPollInterval {
		t.Errorf("PollInterval = %v, want default %v", cfg.Ingest.PollInterval, DefaultPollInterval)
	}
	if cfg.Maintenance.SweepInterval != 15*time.Minute {
		t.Errorf("SweepInterval = %v, want 15m", cfg.Maintenance.SweepInterval)
	}
	if cfg.Maintenance.Retention != 24*time.Hour {
		t.Errorf("Retention = %v, want 24h", cfg.Maintenance.Retention)
	}
	if cfg.Bus.MaxReconnects != -1 {
		t.Errorf("Bus.MaxReconnects = %d, want -1 (reconnect forever)", cfg.Bus.MaxReconnects)
	}
	if cfg.Metrics.Path != "/metrics" {
		t.Errorf("Metrics.Path = %q, want /metrics", cfg.Metrics.Path)
	}
}

func TestLoadAndValidate_Valid(t *testing.T) {
	path := writeTempFile(t, baseYAML)

	if _, err := LoadAndValidate(path); err != nil {
		t.Fatalf("LoadAndValidate failed: %v", err)
	}
}

func TestValidate_MissingDatabaseHost(t *testing.T) {
	yaml := `
database:
  name: aodata
  user: ingest
  password: secret
bus:
  url: nats://localhost:4222
  orders_subject: marketorders.deduped
`
	path := writeTempFile(t, yaml)

	if _, err := LoadAndValidate(path); err == nil {
		t.Fatal("LoadAndValidate succeeded without database.host")
	}
}

func TestValidate_MissingBusURL(t *testing.T) {
	yaml := `
database:
  host: localhost
  name: aodata
  user: ingest
  password: secret
bus:
  orders_subject: marketorders.deduped
`
	path := writeTempFile(t, yaml)

	if _, err := LoadAndValidate(path); err == nil {
		t.Fatal("LoadAndValidate succeeded without bus.url")
	}
}

func TestValidate_NoSubjects(t *testing.T) {
	yaml := `
database:
  host: localhost
  name: aodata
  user: ingest
  password: secret
bus:
  url: nats://localhost:4222
`
	path := writeTempFile(t, yaml)

	if _, err := LoadAndValidate(path); err == nil {
		t.Fatal("LoadAndValidate succeeded with no subjects configured")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/config.yaml"); err == nil {
		t.Fatal("Load succeeded on missing file")
	}
}
