// Copyright (c) 2025 Nishisan. All rights reserved.
// Use of this source code is governed by the HTTP-Accel License (Non-Commercial Evaluation)
// that can be found in the LICENSE file.

// Package config carrega e valida os arquivos YAML de configuração dos
// binários accel-device e accel-proxy.
package config

import (
	"fmt"
	"net"
	"strings"
)

// LoggingInfo configura o logger estruturado.
type LoggingInfo struct {
	Level  string `yaml:"level"`  // debug|info|warn|error (default: info)
	Format string `yaml:"format"` // json|text (default: json)
	File   string `yaml:"file"`   // opcional: tee para arquivo
}

func (l *LoggingInfo) applyDefaults() {
	if l.Level == "" {
		l.Level = "info"
	}
	if l.Format == "" {
		l.Format = "json"
	}
}

// StatsConfig configura o snapshot operacional periódico.
type StatsConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Schedule string `yaml:"schedule"` // spec cron de 5 campos (default: */5 * * * *)
}

func (s *StatsConfig) applyDefaults() {
	if s.Enabled && s.Schedule == "" {
		s.Schedule = "*/5 * * * *"
	}
}

// MetricsConfig configura o listener HTTP de observabilidade.
type MetricsConfig struct {
	Enabled      bool     `yaml:"enabled"`
	Listen       string   `yaml:"listen"`        // default: "127.0.0.1:9849"
	AllowOrigins []string `yaml:"allow_origins"` // IP ou CIDR (deny-by-default)

	// ParsedCIDRs é preenchido em validate(); não vem do YAML.
	ParsedCIDRs []*net.IPNet `yaml:"-"`
}

func (m *MetricsConfig) validate() error {
	if !m.Enabled {
		return nil
	}
	if m.Listen == "" {
		m.Listen = "127.0.0.1:9849"
	}
	if len(m.AllowOrigins) == 0 {
		return fmt.Errorf("metrics.allow_origins is required when metrics is enabled (deny-by-default)")
	}
	for _, origin := range m.AllowOrigins {
		_, cidr, err := net.ParseCIDR(origin)
		if err != nil {
			// Tenta como IP único → converte para /32 ou /128
			ip := net.ParseIP(strings.TrimSpace(origin))
			if ip == nil {
				return fmt.Errorf("metrics.allow_origins: %q is not a valid IP or CIDR", origin)
			}
			if ip.To4() != nil {
				_, cidr, _ = net.ParseCIDR(ip.String() + "/32")
			} else {
				_, cidr, _ = net.ParseCIDR(ip.String() + "/128")
			}
		}
		m.ParsedCIDRs = append(m.ParsedCIDRs, cidr)
	}
	return nil
}
