// Copyright (c) 2025 Nishisan. All rights reserved.
// Use of this source code is governed by the HTTP-Accel License (Non-Commercial Evaluation)
// that can be found in the LICENSE file.

package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Direções para os labels das métricas de tráfego.
const (
	DirToDevice = "to_device"
	DirToHost   = "to_host"
)

// Metrics agrega as métricas Prometheus do proxy.
type Metrics struct {
	registry *prometheus.Registry

	SessionsTotal  prometheus.Counter
	ActiveSessions prometheus.Gauge
	FramesTotal    *prometheus.CounterVec
	BytesTotal     *prometheus.CounterVec
}

// NewMetrics cria e registra as métricas num registry dedicado.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		SessionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "httpaccel",
			Name:      "sessions_total",
			Help:      "nTCP sessions opened by the proxy.",
		}),
		ActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "httpaccel",
			Name:      "active_sessions",
			Help:      "nTCP sessions currently open.",
		}),
		FramesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "httpaccel",
			Name:      "frames_total",
			Help:      "nTCP frames carried over the link.",
		}, []string{"direction"}),
		BytesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "httpaccel",
			Name:      "frame_body_bytes_total",
			Help:      "nTCP frame body bytes carried over the link.",
		}, []string{"direction"}),
	}

	m.registry.MustRegister(
		m.SessionsTotal,
		m.ActiveSessions,
		m.FramesTotal,
		m.BytesTotal,
	)
	return m
}

// Registry expõe o registry para o handler HTTP de métricas.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }
