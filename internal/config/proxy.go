// Copyright (c) 2025 Nishisan. All rights reserved.
// Use of this source code is governed by the HTTP-Accel License (Non-Commercial Evaluation)
// that can be found in the LICENSE file.

package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LinkInfo configura o link do proxy com o device.
type LinkInfo struct {
	Mode       string `yaml:"mode"`        // serial|tcp (default: serial)
	Device     string `yaml:"device"`      // serial: caminho (default: /dev/ttyACM0)
	Addr       string `yaml:"addr"`        // tcp: endereço do simulador
	BaudRate   int    `yaml:"baud_rate"`   // default: 9600
	PaceWrites bool   `yaml:"pace_writes"` // casa a escrita com o baud físico
}

// ProxyConfig representa a configuração completa do accel-proxy.
type ProxyConfig struct {
	// Listen é onde o proxy aceita clientes TCP.
	Listen string `yaml:"listen"`

	// StreamID é o stream nTCP usado para as sessões dos clientes.
	StreamID int `yaml:"stream_id"`

	Link    LinkInfo      `yaml:"link"`
	Logging LoggingInfo   `yaml:"logging"`
	Stats   StatsConfig   `yaml:"stats"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// LoadProxyConfig lê e valida o arquivo YAML de configuração do proxy.
func LoadProxyConfig(path string) (*ProxyConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading proxy config: %w", err)
	}

	var cfg ProxyConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing proxy config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validating proxy config: %w", err)
	}

	return &cfg, nil
}

func (c *ProxyConfig) validate() error {
	if c.Listen == "" {
		c.Listen = "127.0.0.1:3278"
	}
	if c.StreamID == 0 {
		c.StreamID = 1
	}
	if c.StreamID < 1 || c.StreamID > 255 {
		return fmt.Errorf("stream_id must be in 1..255, got %d", c.StreamID)
	}

	switch c.Link.Mode {
	case "":
		c.Link.Mode = "serial"
	case "serial", "tcp":
	default:
		return fmt.Errorf("link.mode must be serial or tcp, got %q", c.Link.Mode)
	}
	if c.Link.Mode == "serial" && c.Link.Device == "" {
		c.Link.Device = "/dev/ttyACM0"
	}
	if c.Link.Mode == "tcp" && c.Link.Addr == "" {
		return fmt.Errorf("link.addr is required when link.mode is tcp")
	}
	if c.Link.BaudRate == 0 {
		c.Link.BaudRate = 9600
	}
	if c.Link.BaudRate < 0 {
		return fmt.Errorf("link.baud_rate must be positive, got %d", c.Link.BaudRate)
	}

	c.Logging.applyDefaults()
	c.Stats.applyDefaults()
	return c.Metrics.validate()
}
