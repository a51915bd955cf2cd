package main

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/jo-hoe/photolog/internal/core"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *core.ServiceConfig
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*core.ServiceConfig, error) {
	c.configOnce.Do(func() {
		path, err := c.configPath()
		if err != nil {
			c.configErr = err
			return
		}
		c.config, c.configErr = core.LoadConfig(path)
	})
	return c.config, c.configErr
}

// configPath resolves --config, then CONFIG_PATH, then config.yaml in the working directory
func (c *commandContext) configPath() (string, error) {
	if c.configFlag != nil {
		if path := strings.TrimSpace(*c.configFlag); path != "" {
			return path, nil
		}
	}
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		return path, nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(cwd, "config.yaml"), nil
}
