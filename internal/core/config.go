package core

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// CaptureConfig selects the capture device and carries its parameters
type CaptureConfig struct {
	Device          string         `yaml:"device"`
	PreviewMaxWidth int            `yaml:"previewMaxWidth"`
	Params          map[string]any `yaml:",inline"`
}

// CategoryConfig is one top-level category with its ordered subcategories
type CategoryConfig struct {
	Name          string   `yaml:"name"`
	Subcategories []string `yaml:"subcategories"`
}

type Store struct {
	Type             string `yaml:"type"`
	ConnectionString string `yaml:"connectionString"`
}

type Export struct {
	ArchiveName  string `yaml:"archiveName"`
	ManifestName string `yaml:"manifestName"`
}

type Session struct {
	CookieName  string        `yaml:"cookieName"`
	IdleTimeout time.Duration `yaml:"idleTimeout"`
}

type ServiceConfig struct {
	Port       int              `yaml:"port"`
	Capture    CaptureConfig    `yaml:"capture"`
	Categories []CategoryConfig `yaml:"categories"`
	Store      Store            `yaml:"store"`
	Export     Export           `yaml:"export"`
	Session    Session          `yaml:"session"`
}

// DefaultCategories mirrors the placeholder scheme shipped with the capture page
func DefaultCategories() []CategoryConfig {
	return []CategoryConfig{
		{Name: "placeholder1", Subcategories: []string{"placeholder1A", "placeholder1B", "placeholder1C"}},
		{Name: "placeholder2", Subcategories: []string{"placeholder2A", "placeholder2B", "placeholder2C"}},
		{Name: "placeholder3", Subcategories: []string{"placeholder3A", "placeholder3B", "placeholder3C"}},
	}
}

// DefaultConfig returns the configuration used when no config file exists
func DefaultConfig() *ServiceConfig {
	config := &ServiceConfig{}
	applyDefaults(config)
	return config
}

// LoadConfig loads configuration from the specified YAML file.
// A missing file yields the default configuration.
func LoadConfig(configPath string) (*ServiceConfig, error) {
	// Read the config file
	data, err := os.ReadFile(configPath)
	if errors.Is(err, fs.ErrNotExist) {
		return DefaultConfig(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}

	// Parse YAML
	var config ServiceConfig
	err = yaml.Unmarshal(data, &config)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", configPath, err)
	}
	applyDefaults(&config)

	// Validate categories
	if err := validateCategories(config.Categories); err != nil {
		return nil, fmt.Errorf("invalid category configuration: %w", err)
	}

	return &config, nil
}

func applyDefaults(config *ServiceConfig) {
	if config.Port == 0 {
		config.Port = 8080
	}
	if config.Capture.Device == "" {
		config.Capture.Device = "browser"
	}
	if len(config.Categories) == 0 {
		config.Categories = DefaultCategories()
	}
	if config.Store.Type == "" {
		config.Store.Type = "memory"
	}
	if config.Store.Type == "sqlite" && config.Store.ConnectionString == "" {
		config.Store.ConnectionString = ":memory:"
	}
	if config.Export.ArchiveName == "" {
		config.Export.ArchiveName = "entries.zip"
	}
	if config.Export.ManifestName == "" {
		config.Export.ManifestName = "metadata.json"
	}
	if config.Session.CookieName == "" {
		config.Session.CookieName = "photolog_session"
	}
	if config.Session.IdleTimeout <= 0 {
		config.Session.IdleTimeout = 2 * time.Hour
	}
}

// validateCategories ensures every category has a unique name and at least one subcategory
func validateCategories(categories []CategoryConfig) error {
	seenNames := make(map[string]bool)

	for i, category := range categories {
		// Validate name is not empty
		if category.Name == "" {
			return fmt.Errorf("category at index %d has empty name", i)
		}

		// Validate name is unique
		if seenNames[category.Name] {
			return fmt.Errorf("duplicate category name: %s", category.Name)
		}
		seenNames[category.Name] = true

		if len(category.Subcategories) == 0 {
			return fmt.Errorf("category %s has no subcategories", category.Name)
		}
		seenSubs := make(map[string]bool)
		for j, sub := range category.Subcategories {
			if sub == "" {
				return fmt.Errorf("category %s has empty subcategory at index %d", category.Name, j)
			}
			if seenSubs[sub] {
				return fmt.Errorf("category %s has duplicate subcategory: %s", category.Name, sub)
			}
			seenSubs[sub] = true
		}
	}

	return nil
}
