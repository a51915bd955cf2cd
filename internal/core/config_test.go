package core

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to create test config file: %v", err)
	}
	return configPath
}

func TestLoadConfig_Success(t *testing.T) {
	configPath := writeConfig(t, `port: 9090
capture:
  device: testpattern
  previewMaxWidth: 160
  width: 320
  height: 240
categories:
  - name: birds
    subcategories: [raptor, songbird]
  - name: trees
    subcategories: [oak]
store:
  type: sqlite
session:
  idleTimeout: 30m
`)

	config, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if config.Port != 9090 {
		t.Errorf("Expected port to be 9090, got %d", config.Port)
	}
	if config.Capture.Device != "testpattern" {
		t.Errorf("Expected capture device 'testpattern', got '%s'", config.Capture.Device)
	}
	if config.Capture.PreviewMaxWidth != 160 {
		t.Errorf("Expected previewMaxWidth 160, got %d", config.Capture.PreviewMaxWidth)
	}
	if _, ok := config.Capture.Params["previewMaxWidth"]; ok {
		t.Error("previewMaxWidth must not leak into device params")
	}
	if config.Capture.Params["width"] != 320 {
		t.Errorf("Expected inline width param 320, got %v", config.Capture.Params["width"])
	}
	if len(config.Categories) != 2 || config.Categories[0].Name != "birds" || config.Categories[1].Name != "trees" {
		t.Errorf("Expected categories [birds trees] in order, got %+v", config.Categories)
	}
	if config.Store.ConnectionString != ":memory:" {
		t.Errorf("Expected sqlite default connection string ':memory:', got '%s'", config.Store.ConnectionString)
	}
	if config.Session.IdleTimeout != 30*time.Minute {
		t.Errorf("Expected idle timeout 30m, got %v", config.Session.IdleTimeout)
	}
	if config.Export.ArchiveName != "entries.zip" || config.Export.ManifestName != "metadata.json" {
		t.Errorf("Expected default export names, got %+v", config.Export)
	}
}

func TestLoadConfig_FileNotFoundUsesDefaults(t *testing.T) {
	config, err := LoadConfig("/path/that/does/not/exist/config.yaml")
	if err != nil {
		t.Fatalf("Expected defaults for missing file, got error: %v", err)
	}
	if config.Port != 8080 {
		t.Errorf("Expected default port 8080, got %d", config.Port)
	}
	if config.Capture.Device != "browser" {
		t.Errorf("Expected default device 'browser', got '%s'", config.Capture.Device)
	}
	if config.Store.Type != "memory" {
		t.Errorf("Expected default store 'memory', got '%s'", config.Store.Type)
	}
	if len(config.Categories) != 3 {
		t.Errorf("Expected 3 default categories, got %d", len(config.Categories))
	}
}

func TestLoadConfig_InvalidCategories(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name: "empty name",
			content: `categories:
  - name: ""
    subcategories: [a]`,
		},
		{
			name: "duplicate name",
			content: `categories:
  - name: a
    subcategories: [x]
  - name: a
    subcategories: [y]`,
		},
		{
			name: "no subcategories",
			content: `categories:
  - name: a`,
		},
		{
			name: "duplicate subcategory",
			content: `categories:
  - name: a
    subcategories: [x, x]`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config, err := LoadConfig(writeConfig(t, tt.content))
			if err == nil {
				t.Fatal("Expected validation error, got nil")
			}
			if config != nil {
				t.Error("Expected config to be nil on validation error")
			}
		})
	}
}

func TestLoadConfig_MalformedYAML(t *testing.T) {
	_, err := LoadConfig(writeConfig(t, "port: [unterminated"))
	if err == nil {
		t.Fatal("Expected parse error, got nil")
	}
}
