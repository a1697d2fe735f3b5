// Copyright (c) 2025 Nishisan. All rights reserved.
// Use of this source code is governed by the HTTP-Accel License (Non-Commercial Evaluation)
// that can be found in the LICENSE file.

package host

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"

	"github.com/cceckman/http-accel/internal/ntcp"
	"github.com/cceckman/http-accel/internal/observability"
)

// Proxy é o proxy host-side TCP→nTCP: para cada conexão TCP aceita, abre
// uma sessão nTCP no stream configurado, encaminha os bytes do cliente como
// frames simples e devolve ao cliente os corpos device→host até o END.
//
// O link carrega uma sessão por vez por stream id; conexões simultâneas
// são serializadas (lock do link); a ordem de atendimento entre as que
// esperam não é garantida.
type Proxy struct {
	listen   string
	streamID uint8
	logger   *slog.Logger
	metrics  *observability.Metrics
	events   *observability.EventRing

	linkMu sync.Mutex
	link   io.ReadWriter
	egress *ntcp.FrameWriter
}

// NewProxy cria um proxy servindo em listen sobre o link fornecido.
// paceWriter, quando não-nil, substitui o lado de escrita do link
// (tipicamente um ThrottledWriter casado com o baud da serial).
func NewProxy(listen string, streamID uint8, link io.ReadWriter, paceWriter io.Writer,
	metrics *observability.Metrics, events *observability.EventRing, logger *slog.Logger) *Proxy {

	w := io.Writer(link)
	if paceWriter != nil {
		w = paceWriter
	}
	return &Proxy{
		listen:   listen,
		streamID: streamID,
		logger:   logger,
		metrics:  metrics,
		events:   events,
		link:     link,
		egress:   ntcp.NewFrameWriter(w),
	}
}

// Run aceita conexões TCP até o context ser cancelado.
func (p *Proxy) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", p.listen)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", p.listen, err)
	}
	defer ln.Close()

	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	p.logger.Info("proxy listening", "address", p.listen, "stream", int(p.streamID))

	for {
		client, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("accepting client: %w", err)
		}
		go func() {
			defer client.Close()
			if err := p.handle(client); err != nil {
				p.logger.Error("session failed",
					"client", client.RemoteAddr().String(), "error", err)
				p.events.PushEvent("error", "session", int(p.streamID), err.Error())
			}
		}()
	}
}

// handle atende uma conexão de cliente como uma sessão nTCP completa.
func (p *Proxy) handle(client net.Conn) error {
	// Uma sessão por vez no link.
	p.linkMu.Lock()
	defer p.linkMu.Unlock()

	p.metrics.SessionsTotal.Inc()
	p.metrics.ActiveSessions.Inc()
	defer p.metrics.ActiveSessions.Dec()
	p.events.PushEvent("info", "session", int(p.streamID),
		"session opened for "+client.RemoteAddr().String())

	// START vazio abre a sessão.
	if err := p.writeFrame(ntcp.StartFrame(p.streamID, false)); err != nil {
		return fmt.Errorf("opening session: %w", err)
	}

	downDone := make(chan error, 1)
	go func() {
		err := p.downlink(client)
		if err != nil {
			// Derruba o cliente para desbloquear o uplink.
			client.Close()
		}
		downDone <- err
	}()

	if err := p.uplink(client); err != nil {
		return fmt.Errorf("uplink: %w", err)
	}

	if err := <-downDone; err != nil {
		return fmt.Errorf("downlink: %w", err)
	}
	p.events.PushEvent("info", "session", int(p.streamID), "session closed")
	return nil
}

// uplink encaminha os bytes do cliente como frames simples (sem START nem
// END) e fecha a direção host→device com um END vazio no EOF do cliente.
func (p *Proxy) uplink(client net.Conn) error {
	buf := make([]byte, ntcp.MaxBody)
	for {
		n, err := client.Read(buf)
		if n > 0 {
			if werr := p.writeFrame(ntcp.DataFrame(p.streamID, false, buf[:n])); werr != nil {
				return werr
			}
		}
		if err == io.EOF {
			return p.writeFrame(ntcp.EndFrame(p.streamID, false))
		}
		if err != nil {
			// Cliente caiu: encerra a sessão do nosso lado mesmo assim.
			_ = p.writeFrame(ntcp.EndFrame(p.streamID, false))
			return err
		}
	}
}

// downlink copia para o cliente os corpos dos frames device→host da sessão,
// até o frame END. Frames de streams desconhecidos são consumidos e
// descartados byte-exatos.
func (p *Proxy) downlink(client net.Conn) error {
	for {
		f, err := ntcp.ReadFrame(p.link)
		if err != nil {
			return err
		}
		if f.Stream != p.streamID || !f.ToHost() {
			continue
		}
		p.metrics.FramesTotal.WithLabelValues(observability.DirToHost).Inc()
		p.metrics.BytesTotal.WithLabelValues(observability.DirToHost).Add(float64(len(f.Body)))

		if len(f.Body) > 0 {
			if _, err := client.Write(f.Body); err != nil {
				return fmt.Errorf("writing to client: %w", err)
			}
		}
		if f.End() {
			if tcp, ok := client.(*net.TCPConn); ok {
				_ = tcp.CloseWrite()
			}
			return nil
		}
	}
}

// writeFrame envia um frame host→device, contabilizando as métricas.
func (p *Proxy) writeFrame(f *ntcp.Frame) error {
	if err := p.egress.WriteFrame(f); err != nil {
		return err
	}
	p.metrics.FramesTotal.WithLabelValues(observability.DirToDevice).Inc()
	p.metrics.BytesTotal.WithLabelValues(observability.DirToDevice).Add(float64(len(f.Body)))
	return nil
}
