// Copyright (c) 2025 Nishisan. All rights reserved.
// Use of this source code is governed by the HTTP-Accel License (Non-Commercial Evaluation)
// that can be found in the LICENSE file.

package ntcp

import (
	"sync"

	"github.com/cceckman/http-accel/internal/stream"
)

// sessionFIFODepth dimensiona as FIFOs de sessão: cada uma comporta ao
// menos um corpo máximo de frame.
const sessionFIFODepth = 256

// Conn é a sessão bidirecional que um stop entrega ao seu tenant.
//
// In carrega os bytes host→device; retorna io.EOF depois que o peer enviou
// END e o resíduo foi drenado. Out carrega os bytes device→host; CloseWrite
// encerra a direção de saída — o stop emite o frame END depois de drenar.
type Conn struct {
	In  *stream.Pipe
	Out *stream.Pipe
}

func newConn() *Conn {
	return &Conn{
		In:  stream.NewPipe(sessionFIFODepth),
		Out: stream.NewPipe(sessionFIFODepth),
	}
}

// Tenant atende sessões entregues por um stop.
// Serve roda em sua própria goroutine, uma por sessão; deve drenar ou
// abandonar conn.In e encerrar conn.Out com CloseWrite antes de retornar.
type Tenant interface {
	Serve(conn *Conn)
}

// TenantFunc adapta uma função ao contrato de Tenant.
type TenantFunc func(conn *Conn)

func (f TenantFunc) Serve(conn *Conn) { f(conn) }

// ConnState enumera os estados da máquina de conexão de um stop.
type ConnState uint8

const (
	StateClosed     ConnState = iota // sem sessão; aguardando START
	StateRequested                   // START recebido, tenant ainda não aceitou
	StateOpen                        // ambas as direções ativas
	StateClientDone                  // END inbound visto, outbound ainda ativo
	StateServerDone                  // END outbound enviado, inbound ainda ativo
	StateFlush                       // ambas as metades encerrando
)

func (s ConnState) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateRequested:
		return "requested"
	case StateOpen:
		return "open"
	case StateClientDone:
		return "client-done"
	case StateServerDone:
		return "server-done"
	case StateFlush:
		return "flush"
	}
	return "unknown"
}

// connFSM rastreia o ciclo de vida de uma sessão e faz valer os
// invariantes: um START por direção, um END por direção, nenhum byte de
// saída após o END.
type connFSM struct {
	mu          sync.Mutex
	state       ConnState
	inboundEnd  bool
	outboundEnd bool
}

func (c *connFSM) State() ConnState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// onStart registra o START inbound. Retorna false se já há sessão viva
// (START duplicado — erro de framing).
func (c *connFSM) onStart() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateClosed {
		return false
	}
	c.state = StateRequested
	c.inboundEnd = false
	c.outboundEnd = false
	return true
}

// onAccept registra a aceitação do tenant (outbound ativo).
func (c *connFSM) onAccept() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateRequested {
		c.state = StateOpen
	}
}

// onInboundEnd registra o END vindo do peer.
func (c *connFSM) onInboundEnd() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inboundEnd = true
	c.advance()
}

// onOutboundEnd registra o envio do END de saída.
func (c *connFSM) onOutboundEnd() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.outboundEnd = true
	c.advance()
}

// advance recalcula o estado a partir dos ENDs vistos. Chamada com mu held.
func (c *connFSM) advance() {
	switch {
	case c.inboundEnd && c.outboundEnd:
		c.state = StateFlush
	case c.inboundEnd:
		c.state = StateClientDone
	case c.outboundEnd:
		c.state = StateServerDone
	}
}

// onDrained registra que a metade outbound terminou de escoar; a sessão
// volta a closed e um novo START pode ser aceito.
func (c *connFSM) onDrained() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateFlush {
		c.state = StateClosed
	}
}
