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

// FrameWriter serializa a escrita de frames num destino compartilhado.
// Cada frame sai inteiro (cabeçalho e corpo contíguos): no máximo um
// "falante" por frame no barramento de saída.
type FrameWriter struct {
	mu sync.Mutex
	w  io.Writer
}

// NewFrameWriter cria um FrameWriter sobre o destino fornecido.
func NewFrameWriter(w io.Writer) *FrameWriter {
	return &FrameWriter{w: w}
}

// WriteFrame escreve um frame atomicamente em relação a outros chamadores.
func (fw *FrameWriter) WriteFrame(f *Frame) error {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	return WriteFrame(fw.w, f)
}

// Port é a fiação que o bus entrega a um stop.
type Port struct {
	// Upstream entrega os bytes de frames vindos do host (ou do stop
	// anterior do anel).
	Upstream io.Reader

	// Forward é o próximo salto para frames de outros streams.
	// nil marca o último stop: frames alheios são descartados byte a byte.
	Forward io.Writer

	// Egress é o escritor compartilhado do TX serial.
	Egress *FrameWriter
}

// Stop é um endpoint do barramento nTCP, dono de um stream id.
// Entrega cada sessão ao seu tenant como um Conn bidirecional e mantém a
// máquina de estados de conexão com os invariantes de START/END.
type Stop struct {
	id     uint8
	tenant Tenant
	logger *slog.Logger

	fsm connFSM

	// Sessão corrente (metade inbound é dona destes campos).
	conn        *Conn
	sessionDone chan struct{}
}

// NewStop cria um stop para o stream id fornecido.
func NewStop(id uint8, tenant Tenant, logger *slog.Logger) *Stop {
	return &Stop{
		id:     id,
		tenant: tenant,
		logger: logger.With("stream", int(id)),
	}
}

// ID retorna o stream id do stop.
func (s *Stop) ID() uint8 { return s.id }

// State retorna o estado corrente da máquina de conexão.
func (s *Stop) State() ConnState { return s.fsm.State() }

// Run consome frames de port.Upstream até EOF, roteando os do próprio
// stream para a sessão e encaminhando (ou descartando) os demais.
func (s *Stop) Run(port Port) error {
	for {
		h, err := ReadHeader(port.Upstream)
		if err == io.EOF {
			return s.shutdown()
		}
		if err != nil {
			_ = s.shutdown()
			return err
		}

		if h.Stream != s.id {
			if err := s.forward(h, port); err != nil {
				_ = s.shutdown()
				return err
			}
			continue
		}
		if err := s.handleOwn(h, port); err != nil {
			_ = s.shutdown()
			return err
		}
	}
}

// forward repassa um frame alheio bit a bit ao próximo salto, ou descarta
// exatamente Length bytes quando este é o último stop.
func (s *Stop) forward(h Header, port Port) error {
	if port.Forward != nil {
		if err := WriteHeader(port.Forward, h); err != nil {
			return err
		}
		return stream.Forward(port.Forward, port.Upstream, int(h.Length))
	}
	return stream.Forward(nil, port.Upstream, int(h.Length))
}

// handleOwn processa um frame endereçado a este stop.
func (s *Stop) handleOwn(h Header, port Port) error {
	if h.Start() {
		return s.openSession(h, port)
	}

	st := s.fsm.State()
	if s.conn == nil || st == StateClosed || st == StateClientDone || st == StateFlush {
		// Dados fora de sessão: erro de framing. Descarta o corpo e
		// volta a ler cabeçalhos.
		s.logger.Warn("frame outside session discarded",
			"state", st.String(), "length", int(h.Length))
		return stream.Forward(nil, port.Upstream, int(h.Length))
	}

	if err := stream.Forward(s.conn.In, port.Upstream, int(h.Length)); err != nil {
		return fmt.Errorf("buffering inbound body: %w", err)
	}
	if h.End() {
		s.conn.In.CloseWrite()
		s.fsm.onInboundEnd()
	}
	return nil
}

// openSession trata um frame START: abre a sessão, dispara o tenant e a
// metade outbound, e bufferiza o corpo do próprio START.
func (s *Stop) openSession(h Header, port Port) error {
	if s.sessionDone != nil {
		st := s.fsm.State()
		if st == StateRequested || st == StateOpen || st == StateServerDone {
			// START duplicado numa sessão viva: erro de framing.
			s.logger.Warn("duplicate START discarded",
				"state", st.String(), "length", int(h.Length))
			return stream.Forward(nil, port.Upstream, int(h.Length))
		}
		// Sessão anterior em flush: aguarda escoar (backpressure no bus).
		<-s.sessionDone
		s.fsm.onDrained()
		s.sessionDone = nil
	}

	if !s.fsm.onStart() {
		s.logger.Warn("START in unexpected state discarded",
			"state", s.fsm.State().String())
		return stream.Forward(nil, port.Upstream, int(h.Length))
	}

	conn := newConn()
	done := make(chan struct{})
	s.conn = conn
	s.sessionDone = done

	s.logger.Debug("session opened")
	go s.runOutbound(conn, port.Egress, done)
	go s.tenant.Serve(conn)

	if err := stream.Forward(conn.In, port.Upstream, int(h.Length)); err != nil {
		return fmt.Errorf("buffering inbound body: %w", err)
	}
	if h.End() {
		conn.In.CloseWrite()
		s.fsm.onInboundEnd()
	}
	return nil
}

// runOutbound é a metade outbound da sessão: emite o START, empacota os
// bytes do tenant em frames cujo comprimento é travado pelo nível da FIFO,
// e encerra com um END vazio depois que a FIFO drena.
func (s *Stop) runOutbound(conn *Conn, egress *FrameWriter, done chan struct{}) {
	defer close(done)

	s.fsm.onAccept()

	// Exatamente um START por sessão, antes de qualquer byte de dados.
	if err := egress.WriteFrame(StartFrame(s.id, true)); err != nil {
		s.abortOutbound(conn, err)
		return
	}

	buf := make([]byte, MaxBody)
	for {
		b, err := conn.Out.ReadByte()
		if err != nil {
			break // io.EOF: tenant encerrou a saída
		}
		buf[0] = b
		n := 1
		// Trava o comprimento do frame no nível corrente da FIFO,
		// sem bloquear à espera de mais dados.
		for n < MaxBody && conn.Out.Level() > 0 {
			b, err := conn.Out.ReadByte()
			if err != nil {
				break
			}
			buf[n] = b
			n++
		}
		if err := egress.WriteFrame(DataFrame(s.id, true, buf[:n])); err != nil {
			s.abortOutbound(conn, err)
			return
		}
	}

	// END explícito de corpo vazio; nenhum byte de saída depois dele.
	if err := egress.WriteFrame(EndFrame(s.id, true)); err != nil {
		s.abortOutbound(conn, err)
		return
	}
	s.fsm.onOutboundEnd()
	s.logger.Debug("session outbound closed")
}

// abortOutbound registra a falha de escrita no link e escoa a FIFO de
// saída para que o tenant não fique bloqueado para sempre.
func (s *Stop) abortOutbound(conn *Conn, err error) {
	s.logger.Error("outbound write failed", "error", err)
	_, _ = io.Copy(io.Discard, conn.Out)
	s.fsm.onOutboundEnd()
}

// shutdown trata o EOF do upstream: encerra a sessão corrente, espera a
// metade outbound escoar e devolve o stop ao estado inicial.
func (s *Stop) shutdown() error {
	if s.conn != nil && !s.conn.In.Closed() {
		s.conn.In.CloseWrite()
		s.fsm.onInboundEnd()
	}
	if s.sessionDone != nil {
		<-s.sessionDone
		s.fsm.onDrained()
		s.sessionDone = nil
	}
	s.conn = nil
	return nil
}
