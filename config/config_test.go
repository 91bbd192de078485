package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Log.Level != "info" {
		t.Errorf("expected default log level info, got %s", cfg.Log.Level)
	}
	if cfg.Watch.Debounce != 200*time.Millisecond {
		t.Errorf("expected default debounce 200ms, got %v", cfg.Watch.Debounce)
	}
	if cfg.Watch.MetricsAddr != "" {
		t.Errorf("expected metrics disabled by default, got %s", cfg.Watch.MetricsAddr)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid default config",
			modify:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "invalid log level",
			modify:  func(c *Config) { c.Log.Level = "verbose" },
			wantErr: true,
		},
		{
			name:    "negative debounce",
			modify:  func(c *Config) { c.Watch.Debounce = -time.Second },
			wantErr: true,
		},
		{
			name:    "debug level",
			modify:  func(c *Config) { c.Log.Level = "debug" },
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	content := `
data_dictionary:
  path: /opt/imas/dd
log:
  level: debug
watch:
  debounce: 1s
  metrics_addr: ":9090"
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("LoadFromFile() error = %v", err)
	}

	if cfg.DataDictionary.Path != "/opt/imas/dd" {
		t.Errorf("expected dd path /opt/imas/dd, got %s", cfg.DataDictionary.Path)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("expected log level debug, got %s", cfg.Log.Level)
	}
	if cfg.Watch.Debounce != time.Second {
		t.Errorf("expected debounce 1s, got %v", cfg.Watch.Debounce)
	}
	if cfg.Watch.MetricsAddr != ":9090" {
		t.Errorf("expected metrics addr :9090, got %s", cfg.Watch.MetricsAddr)
	}
}

func TestConfigSaveToFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "subdir", "config.yaml")

	cfg := DefaultConfig()
	cfg.DataDictionary.Path = "/saved/dd"

	if err := cfg.SaveToFile(configPath); err != nil {
		t.Fatalf("SaveToFile() error = %v", err)
	}

	// Verify file was created
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		t.Error("config file was not created")
	}

	// Load and verify
	loaded, err := LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("failed to load saved config: %v", err)
	}
	if loaded.DataDictionary.Path != "/saved/dd" {
		t.Errorf("expected dd path /saved/dd, got %s", loaded.DataDictionary.Path)
	}
}

func TestEnsureUserConfig(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("HOME", tmpDir)

	loader := NewLoader(nil)
	if err := loader.EnsureUserConfig(); err != nil {
		t.Fatalf("EnsureUserConfig() error = %v", err)
	}

	configPath := filepath.Join(tmpDir, UserConfigDir, UserConfigFile)
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		t.Fatal("user config file was not created")
	}

	// A second call must leave the existing file alone.
	if err := os.WriteFile(configPath, []byte("log:\n  level: warn\n"), 0644); err != nil {
		t.Fatalf("failed to rewrite user config: %v", err)
	}
	if err := loader.EnsureUserConfig(); err != nil {
		t.Fatalf("EnsureUserConfig() second call error = %v", err)
	}
	cfg, err := LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("failed to load user config: %v", err)
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("expected existing config to be kept, got level %s", cfg.Log.Level)
	}
}

func TestMerge(t *testing.T) {
	base := DefaultConfig()
	other := &Config{}
	other.DataDictionary.Path = "/other/dd"
	other.Log.Level = "warn"

	base.Merge(other)

	if base.DataDictionary.Path != "/other/dd" {
		t.Errorf("expected merged dd path /other/dd, got %s", base.DataDictionary.Path)
	}
	if base.Log.Level != "warn" {
		t.Errorf("expected merged log level warn, got %s", base.Log.Level)
	}
	if base.Watch.Debounce != 200*time.Millisecond {
		t.Errorf("merge must keep unset fields, got %v", base.Watch.Debounce)
	}

	base.Merge(nil)
	if base.Log.Level != "warn" {
		t.Error("merging nil must be a no-op")
	}
}
