// Copyright (c) 2025 Nishisan. All rights reserved.
// Use of this source code is governed by the HTTP-Accel License (Non-Commercial Evaluation)
// that can be found in the LICENSE file.

package ntcp

import (
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/cceckman/http-accel/internal/stream"
)

// forwardDepth dimensiona os pipes entre stops: dois frames completos.
const forwardDepth = 2 * (HeaderSize + MaxBody)

// Bus é a raiz do barramento nTCP: emenda o ingresso serial ao primeiro
// stop e o egresso de todos os stops ao TX serial.
//
// Os stops formam um anel de encaminhamento: cada um repassa bit a bit os
// frames de streams alheios ao próximo; a cauda do último descarta. A saída
// é arbitrada por frame inteiro (FrameWriter). A configuração de um único
// stop é o caso degenerado.
type Bus struct {
	stops  []*Stop
	logger *slog.Logger
}

// NewBus cria um bus sobre os stops fornecidos, na ordem do anel.
func NewBus(logger *slog.Logger, stops ...*Stop) *Bus {
	return &Bus{stops: stops, logger: logger}
}

// Run pumpeia o link serial através do anel de stops até o ingresso
// terminar (EOF) ou um stop falhar. Retorna o primeiro erro observado.
func (b *Bus) Run(link io.ReadWriter) error {
	if len(b.stops) == 0 {
		return fmt.Errorf("ntcp: bus has no stops")
	}

	egress := NewFrameWriter(link)

	var wg sync.WaitGroup
	errs := make(chan error, len(b.stops))

	upstream := io.Reader(link)
	for i, stop := range b.stops {
		var fwd *stream.Pipe
		if i < len(b.stops)-1 {
			fwd = stream.NewPipe(forwardDepth)
		}

		port := Port{Upstream: upstream, Egress: egress}
		if fwd != nil {
			port.Forward = fwd
			upstream = fwd
		}

		wg.Add(1)
		go func(stop *Stop, port Port, fwd *stream.Pipe) {
			defer wg.Done()
			if err := stop.Run(port); err != nil {
				b.logger.Error("bus stop failed", "stream", int(stop.ID()), "error", err)
				errs <- err
			}
			// Propaga o fim do ingresso ao resto do anel.
			if fwd != nil {
				fwd.CloseWrite()
			}
		}(stop, port, fwd)
	}

	wg.Wait()
	close(errs)
	return <-errs
}
