package config

import (
	"strings"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("poimap-test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("expected port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Storage.Driver != DriverPostgres {
		t.Errorf("expected postgres driver, got %s", cfg.Storage.Driver)
	}
	if cfg.Telemetry.ServiceName != "poimap-test" {
		t.Errorf("expected service name poimap-test, got %s", cfg.Telemetry.ServiceName)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("POIMAP_SERVER_PORT", "9090")
	t.Setenv("POIMAP_STORAGE_DRIVER", "memory")

	cfg, err := Load("poimap-test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.Server.Port)
	}
	if cfg.Storage.Driver != DriverMemory {
		t.Errorf("expected memory driver, got %s", cfg.Storage.Driver)
	}
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := &Config{
		Server:  ServerConfig{Port: 0, ReadTimeout: 10, WriteTimeout: 10},
		Storage: StorageConfig{Driver: DriverPostgres},
	}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error")
	}
	for _, want := range []string{"server.port", "database.host", "database.user", "database.dbname"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("expected %q in error, got %v", want, err)
		}
	}
}

func TestValidate_MemoryDriverSkipsDatabase(t *testing.T) {
	cfg := &Config{
		Server:  ServerConfig{Port: 8080, ReadTimeout: 10, WriteTimeout: 10},
		Storage: StorageConfig{Driver: DriverMemory},
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_UnknownDriver(t *testing.T) {
	cfg := &Config{
		Server:  ServerConfig{Port: 8080, ReadTimeout: 10, WriteTimeout: 10},
		Storage: StorageConfig{Driver: "sqlite"},
	}
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "storage.driver") {
		t.Fatalf("expected storage.driver error, got %v", err)
	}
}

func TestLoadClient(t *testing.T) {
	t.Setenv("POIMAP_API_BASE_URL", "http://localhost:8080/")
	t.Setenv("POIMAP_MAP_ACCESS_TOKEN", "pk.test")

	cfg, err := LoadClient()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.API.BaseURL != "http://localhost:8080" {
		t.Errorf("expected trailing slash trimmed, got %s", cfg.API.BaseURL)
	}
	if cfg.Map.CenterLat != 40.7128 || cfg.Map.CenterLon != -74.006 || cfg.Map.Zoom != 12 {
		t.Errorf("unexpected default viewport: %+v", cfg.Map)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected validation error: %v", err)
	}
}

func TestClientConfig_ValidateMissing(t *testing.T) {
	cfg := &ClientConfig{}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "api.base_url") || !strings.Contains(err.Error(), "map.access_token") {
		t.Errorf("expected both missing values reported, got %v", err)
	}
}
