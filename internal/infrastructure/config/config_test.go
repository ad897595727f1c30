package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_ValidConfig(t *testing.T) {
	content := `
database:
  path: "/tmp/test.db"
  wal_mode: true
  busy_timeout: 5
  debug_sql: true
api:
  host: "127.0.0.1"
  port: 8080
  cors:
    allowed_origins: ["http://localhost:3000"]
audit:
  enabled: false
  default_actor: "operator"
`
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Database.Path != "/tmp/test.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "/tmp/test.db")
	}
	if !cfg.Database.DebugSQL {
		t.Error("Database.DebugSQL = false, want true")
	}
	if cfg.API.Port != 8080 {
		t.Errorf("API.Port = %d, want 8080", cfg.API.Port)
	}
	if len(cfg.API.CORS.AllowedOrigins) != 1 || cfg.API.CORS.AllowedOrigins[0] != "http://localhost:3000" {
		t.Errorf("CORS.AllowedOrigins = %v", cfg.API.CORS.AllowedOrigins)
	}
	if cfg.Audit.Enabled {
		t.Error("Audit.Enabled = true, want false")
	}
	if cfg.Audit.DefaultActor != "operator" {
		t.Errorf("Audit.DefaultActor = %q, want %q", cfg.Audit.DefaultActor, "operator")
	}

	// Sections absent from the file keep their defaults.
	if cfg.API.DocsURL != "/docs" {
		t.Errorf("API.DocsURL = %q, want /docs", cfg.API.DocsURL)
	}
}

func TestLoad_EmptyPathUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") error = %v", err)
	}
	if cfg.Database.Path != "./rza.db" {
		t.Errorf("Database.Path = %q, want ./rza.db", cfg.Database.Path)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("invalid: [yaml: content"), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	_, err := Load(configPath)
	if err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_ValidationFailure(t *testing.T) {
	content := `
database:
  path: ""
`
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	_, err := Load(configPath)
	if err == nil {
		t.Error("Load() expected validation error, got nil")
	}
}

func TestLoad_InvalidEnvBool(t *testing.T) {
	t.Setenv("RZA_AUDIT_ENABLED", "maybe")

	if _, err := Load(""); err == nil {
		t.Error("Load() expected error for invalid RZA_AUDIT_ENABLED, got nil")
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "missing database path", mutate: func(c *Config) { c.Database.Path = "" }, wantErr: true},
		{name: "invalid port low", mutate: func(c *Config) { c.API.Port = 0 }, wantErr: true},
		{name: "invalid port high", mutate: func(c *Config) { c.API.Port = 70000 }, wantErr: true},
		{name: "invalid QoS", mutate: func(c *Config) { c.MQTT.QoS = 3 }, wantErr: true},
		{name: "audit enabled without actor", mutate: func(c *Config) { c.Audit.DefaultActor = " " }, wantErr: true},
		{
			name: "audit disabled without actor",
			mutate: func(c *Config) {
				c.Audit.Enabled = false
				c.Audit.DefaultActor = ""
			},
		},
		{name: "zero document limits", mutate: func(c *Config) { c.Documents.MaxKeys = 0 }, wantErr: true},
		{
			name: "mqtt enabled without prefix",
			mutate: func(c *Config) {
				c.MQTT.Enabled = true
				c.MQTT.TopicPrefix = ""
			},
			wantErr: true,
		},
		{name: "influxdb enabled without url", mutate: func(c *Config) { c.InfluxDB.Enabled = true }, wantErr: true},
		{name: "zero websocket ping interval", mutate: func(c *Config) { c.WebSocket.PingInterval = 0 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_GetTimeouts(t *testing.T) {
	cfg := &Config{
		API: APIConfig{
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 45,
				Idle:  60,
			},
		},
	}

	if got := cfg.GetReadTimeout().Seconds(); got != 30 {
		t.Errorf("GetReadTimeout() = %v, want 30", got)
	}

	if got := cfg.GetWriteTimeout().Seconds(); got != 45 {
		t.Errorf("GetWriteTimeout() = %v, want 45", got)
	}

	if got := cfg.GetIdleTimeout().Seconds(); got != 60 {
		t.Errorf("GetIdleTimeout() = %v, want 60", got)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	cfg := defaultConfig()

	t.Setenv("RZA_DATABASE_PATH", "/custom/path.db")
	t.Setenv("RZA_DATABASE_DEBUG_SQL", "true")
	t.Setenv("RZA_AUDIT_ENABLED", "false")
	t.Setenv("RZA_AUDIT_DEFAULT_ACTOR", "scada")
	t.Setenv("RZA_API_HOST", "192.168.1.1")
	t.Setenv("RZA_API_PORT", "9000")
	t.Setenv("RZA_API_ALLOWED_ORIGINS", "http://a.example, http://b.example ,")
	t.Setenv("RZA_API_DOCS_URL", "/api-docs")
	t.Setenv("RZA_MQTT_HOST", "mqtt.example.com")
	t.Setenv("RZA_MQTT_USERNAME", "testuser")
	t.Setenv("RZA_MQTT_PASSWORD", "testpass")
	t.Setenv("RZA_INFLUXDB_TOKEN", "secret-token")
	t.Setenv("RZA_LOG_LEVEL", "debug")

	if err := applyEnvOverrides(cfg); err != nil {
		t.Fatalf("applyEnvOverrides() error = %v", err)
	}

	if cfg.Database.Path != "/custom/path.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "/custom/path.db")
	}
	if !cfg.Database.DebugSQL {
		t.Error("Database.DebugSQL = false, want true")
	}
	if cfg.Audit.Enabled {
		t.Error("Audit.Enabled = true, want false")
	}
	if cfg.Audit.DefaultActor != "scada" {
		t.Errorf("Audit.DefaultActor = %q, want %q", cfg.Audit.DefaultActor, "scada")
	}
	if cfg.API.Host != "192.168.1.1" {
		t.Errorf("API.Host = %q, want %q", cfg.API.Host, "192.168.1.1")
	}
	if cfg.API.Port != 9000 {
		t.Errorf("API.Port = %d, want 9000", cfg.API.Port)
	}
	if got := cfg.API.CORS.AllowedOrigins; len(got) != 2 || got[0] != "http://a.example" || got[1] != "http://b.example" {
		t.Errorf("CORS.AllowedOrigins = %v", got)
	}
	if cfg.API.DocsURL != "/api-docs" {
		t.Errorf("API.DocsURL = %q, want /api-docs", cfg.API.DocsURL)
	}
	if cfg.MQTT.Broker.Host != "mqtt.example.com" {
		t.Errorf("MQTT.Broker.Host = %q, want %q", cfg.MQTT.Broker.Host, "mqtt.example.com")
	}
	if cfg.MQTT.Auth.Username != "testuser" {
		t.Errorf("MQTT.Auth.Username = %q, want %q", cfg.MQTT.Auth.Username, "testuser")
	}
	if cfg.MQTT.Auth.Password != "testpass" {
		t.Errorf("MQTT.Auth.Password = %q, want %q", cfg.MQTT.Auth.Password, "testpass")
	}
	if cfg.InfluxDB.Token != "secret-token" {
		t.Errorf("InfluxDB.Token = %q, want %q", cfg.InfluxDB.Token, "secret-token")
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
}

func TestApplyEnvOverrides_InvalidPort(t *testing.T) {
	cfg := defaultConfig()
	t.Setenv("RZA_API_PORT", "eighty")

	if err := applyEnvOverrides(cfg); err == nil {
		t.Error("applyEnvOverrides() expected error for invalid port, got nil")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Database.Path != "./rza.db" {
		t.Errorf("defaultConfig Database.Path = %q, want ./rza.db", cfg.Database.Path)
	}
	if !cfg.Audit.Enabled {
		t.Error("defaultConfig Audit.Enabled = false, want true")
	}
	if cfg.Audit.DefaultActor != "system" {
		t.Errorf("defaultConfig Audit.DefaultActor = %q, want system", cfg.Audit.DefaultActor)
	}
	if len(cfg.API.CORS.AllowedOrigins) != 1 || cfg.API.CORS.AllowedOrigins[0] != "*" {
		t.Errorf("defaultConfig AllowedOrigins = %v, want [*]", cfg.API.CORS.AllowedOrigins)
	}
	if cfg.API.DocsURL != "/docs" || cfg.API.RedocURL != "/redoc" {
		t.Errorf("defaultConfig docs = %q/%q, want /docs and /redoc", cfg.API.DocsURL, cfg.API.RedocURL)
	}
	if cfg.MQTT.Enabled || cfg.InfluxDB.Enabled {
		t.Error("defaultConfig should leave MQTT and InfluxDB disabled")
	}
}

// TestLoad_ShippedConfig keeps configs/config.yaml loadable and equal to the
// built-in defaults where it repeats them.
func TestLoad_ShippedConfig(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "..", "configs", "config.yaml"))
	if err != nil {
		t.Fatalf("Load(configs/config.yaml) error = %v", err)
	}

	def := Default()
	if cfg.API.Port != def.API.Port || cfg.WebSocket.Path != def.WebSocket.Path {
		t.Errorf("api.port = %d, websocket.path = %q; want defaults", cfg.API.Port, cfg.WebSocket.Path)
	}
	if cfg.MQTT.Enabled || cfg.InfluxDB.Enabled {
		t.Error("brokers should be disabled in the shipped config")
	}
	if !cfg.Audit.Enabled || cfg.Audit.DefaultActor != "system" {
		t.Errorf("audit = %+v", cfg.Audit)
	}
}
