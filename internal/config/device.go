// Copyright (c) 2025 Nishisan. All rights reserved.
// Use of this source code is governed by the HTTP-Accel License (Non-Commercial Evaluation)
// that can be found in the LICENSE file.

package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DeviceConfig representa a configuração completa do accel-device.
type DeviceConfig struct {
	// Listen é onde o simulador expõe o link serial (uma conexão por vez).
	Listen string `yaml:"listen"`

	// StreamID é o stream nTCP servido pelo stop HTTP.
	StreamID int `yaml:"stream_id"`

	Logging LoggingInfo `yaml:"logging"`
	Stats   StatsConfig `yaml:"stats"`
}

// LoadDeviceConfig lê e valida o arquivo YAML de configuração do device.
func LoadDeviceConfig(path string) (*DeviceConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading device config: %w", err)
	}

	var cfg DeviceConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing device config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validating device config: %w", err)
	}

	return &cfg, nil
}

func (c *DeviceConfig) validate() error {
	if c.Listen == "" {
		c.Listen = "127.0.0.1:4021"
	}
	if c.StreamID == 0 {
		c.StreamID = 1
	}
	if c.StreamID < 1 || c.StreamID > 255 {
		return fmt.Errorf("stream_id must be in 1..255, got %d", c.StreamID)
	}

	c.Logging.applyDefaults()
	c.Stats.applyDefaults()
	return nil
}
