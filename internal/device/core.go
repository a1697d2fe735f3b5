// Copyright (c) 2025 Nishisan. All rights reserved.
// Use of this source code is governed by the HTTP-Accel License (Non-Commercial Evaluation)
// that can be found in the LICENSE file.

// Package device monta o núcleo do acelerador: o bus nTCP com um stop e o
// dispatcher HTTP como tenant, servidos sobre um link serial.
package device

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/cceckman/http-accel/internal/httpd"
	"github.com/cceckman/http-accel/internal/ntcp"
)

// Core é o acelerador HTTP completo do lado device.
// O dispatcher (e com ele os LEDs e contadores) sobrevive a reconexões do
// link; o bus é remontado por link.
type Core struct {
	streamID uint8
	logger   *slog.Logger

	dispatcher *httpd.Dispatcher
}

// NewCore cria um núcleo servindo o stream id fornecido.
func NewCore(streamID uint8, logger *slog.Logger) *Core {
	return &Core{
		streamID:   streamID,
		logger:     logger,
		dispatcher: httpd.NewDispatcher(logger),
	}
}

// Serve atende um link serial até o ingresso terminar.
func (c *Core) Serve(link io.ReadWriter) error {
	stop := ntcp.NewStop(c.streamID, c.dispatcher, c.logger)
	bus := ntcp.NewBus(c.logger, stop)
	if err := bus.Run(link); err != nil {
		return fmt.Errorf("serving link: %w", err)
	}
	return nil
}

// LED retorna o estado corrente dos registradores de LED.
func (c *Core) LED() httpd.LedState { return c.dispatcher.LED() }

// Counters retorna um snapshot dos contadores de requisição.
func (c *Core) Counters() httpd.CounterSnapshot { return c.dispatcher.Counters() }
