package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := NewManager().Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("Expected port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Server.SessionTTL != time.Hour {
		t.Errorf("Expected session TTL 1h, got %v", cfg.Server.SessionTTL)
	}
	if cfg.Extraction.MaxAttempts != 3 {
		t.Errorf("Expected 3 attempts, got %d", cfg.Extraction.MaxAttempts)
	}
	if cfg.Extraction.Timeout != 27100*time.Second {
		t.Errorf("Expected extraction timeout 27100s, got %v", cfg.Extraction.Timeout)
	}
	if cfg.Trends.Timeout != 30*time.Second {
		t.Errorf("Expected trend timeout 30s, got %v", cfg.Trends.Timeout)
	}
	if cfg.Trends.RateLimitPause != 5*time.Second {
		t.Errorf("Expected rate limit pause 5s, got %v", cfg.Trends.RateLimitPause)
	}
	if cfg.Trends.LocationCode != 2380 || cfg.Trends.LanguageCode != "it" {
		t.Errorf("Unexpected trend locale: %d/%s", cfg.Trends.LocationCode, cfg.Trends.LanguageCode)
	}
	if cfg.Extraction.Location != "ITA" || cfg.Extraction.ShowKeywords != "nobrand" {
		t.Errorf("Unexpected extraction defaults: %+v", cfg.Extraction)
	}
	if cfg.Extraction.Country != "ITA" {
		t.Errorf("Expected country ITA, got %q", cfg.Extraction.Country)
	}
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("OPPORTUNITY_SERVER_PORT", "9090")
	t.Setenv("OPPORTUNITY_TRENDS_DELAY", "2s")
	t.Setenv("OPPORTUNITY_TRENDS_ENABLED", "false")

	cfg, err := NewManager().Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Expected port 9090, got %d", cfg.Server.Port)
	}
	if cfg.Trends.Delay != 2*time.Second {
		t.Errorf("Expected delay 2s, got %v", cfg.Trends.Delay)
	}
	if cfg.Trends.Enabled {
		t.Error("Expected trends disabled")
	}
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
extraction:
  year: 2024
  courtesy_delay: 250ms
report:
  output_dir: /tmp/reports
logger:
  format: console
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	m := NewManager()
	cfg, err := m.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Extraction.Year != 2024 {
		t.Errorf("Expected year 2024, got %d", cfg.Extraction.Year)
	}
	if cfg.Extraction.CourtesyDelay != 250*time.Millisecond {
		t.Errorf("Expected courtesy delay 250ms, got %v", cfg.Extraction.CourtesyDelay)
	}
	if cfg.Report.OutputDir != "/tmp/reports" {
		t.Errorf("Unexpected output dir %q", cfg.Report.OutputDir)
	}
	if cfg.Logger.Logging().Format != "console" {
		t.Errorf("Unexpected logger format %q", cfg.Logger.Format)
	}
	if m.GetConfig() != cfg {
		t.Error("GetConfig should return the loaded config")
	}

	if err := os.WriteFile(path, []byte("extraction:\n  year: 2023\n"), 0644); err != nil {
		t.Fatalf("failed to rewrite config: %v", err)
	}
	if err := m.Reload(); err != nil {
		t.Fatalf("Reload failed: %v", err)
	}
	if got := m.GetConfig().Extraction.Year; got != 2023 {
		t.Errorf("Expected reloaded year 2023, got %d", got)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"bad port", map[string]string{"OPPORTUNITY_SERVER_PORT": "70000"}},
		{"zero attempts", map[string]string{"OPPORTUNITY_EXTRACTION_MAX_ATTEMPTS": "0"}},
		{"year too old", map[string]string{"OPPORTUNITY_EXTRACTION_YEAR": "1999"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := NewManager().Load(""); err == nil {
				t.Error("Expected validation error")
			}
		})
	}
}

func TestLoad_EmptyCountry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("extraction:\n  country: \"\"\n"), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	if _, err := NewManager().Load(path); err == nil {
		t.Error("Expected an empty country to be rejected")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := NewManager().Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Expected error for missing config file")
	}
}

func TestReload_BeforeLoad(t *testing.T) {
	if err := NewManager().Reload(); err == nil {
		t.Error("Expected error when reloading before load")
	}
}
