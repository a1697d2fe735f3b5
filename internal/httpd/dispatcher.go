// Copyright (c) 2025 Nishisan. All rights reserved.
// Use of this source code is governed by the HTTP-Accel License (Non-Commercial Evaluation)
// that can be found in the LICENSE file.

package httpd

import (
	"io"
	"log/slog"
	"sync"

	"github.com/cceckman/http-accel/internal/match"
	"github.com/cceckman/http-accel/internal/ntcp"
)

// Caminhos conhecidos, fixos em tempo de build.
const (
	PathLed    = "/led"
	PathCount  = "/count"
	PathCoffee = "/coffee"
)

// Respostas enlatadas, byte a byte.
const (
	responseOK = "HTTP/1.0 200 OK\r\n" +
		"Host: Fomu\r\n" +
		"Content-Type: text/plain; charset=utf-8\r\n" +
		"\r\n\r\n" +
		"👍\r\n"

	responseNotFound = "HTTP/1.0 404 Not Found\r\n" +
		"Host: Fomu\r\n" +
		"Content-Type: text/plain; charset=utf-8\r\n" +
		"\r\n\r\n" +
		"👎\r\n"

	responseMethodNotAllowed = "HTTP/1.0 405 Method Not Allowed\r\n" +
		"Host: Fomu\r\n" +
		"Content-Type: text/plain; charset=utf-8\r\n" +
		"\r\n\r\n" +
		"🛑\r\n"

	responseTeapot = "HTTP/1.0 418 I'm a teapot\r\n" +
		"Host: Fomu\r\n" +
		"Content-Type: text/plain; charset=utf-8\r\n" +
		"\r\n\r\n" +
		"short and stout\r\n"
)

// endOfHeaders é o marcador de fim dos headers HTTP.
const endOfHeaders = "\r\n\r\n"

// LedState é o snapshot dos três registradores de LED.
type LedState struct {
	Red, Green, Blue byte
}

// CounterSnapshot é o snapshot dos contadores de requisição.
type CounterSnapshot struct {
	Requests uint64
	OK       uint64
	Errors   uint64
}

// Dispatcher é o tenant HTTP/1.0 de um stop nTCP: classifica cada sessão
// inbound por método/caminho, roda o parser de corpo da rota e responde com
// uma das respostas enlatadas (mais a página dinâmica de contadores).
//
// Os registradores de LED e os contadores são campos da instância, com o
// dispatcher como único escritor.
type Dispatcher struct {
	logger *slog.Logger
	paths  []string

	// mu protege led e counts. As sessões de um stop são sequenciais;
	// o lock cobre leitores externos (snapshot de stats).
	mu     sync.Mutex
	led    LedState
	counts *CountBody
}

// NewDispatcher cria um dispatcher com contadores zerados.
func NewDispatcher(logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		logger: logger,
		paths:  []string{PathLed, PathCount, PathCoffee},
		counts: NewCountBody(),
	}
}

// LED retorna o estado corrente dos registradores de LED.
func (d *Dispatcher) LED() LedState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.led
}

// Counters retorna um snapshot dos contadores.
func (d *Dispatcher) Counters() CounterSnapshot {
	d.mu.Lock()
	defer d.mu.Unlock()
	return CounterSnapshot{
		Requests: d.counts.Requests.Value(),
		OK:       d.counts.OK.Value(),
		Errors:   d.counts.Errors.Value(),
	}
}

// Serve implementa ntcp.Tenant: processa uma sessão do começo ao fim.
// Exatamente um contador (ok ou error) é atualizado por requisição.
func (d *Dispatcher) Serve(conn *ntcp.Conn) {
	d.mu.Lock()
	d.counts.Requests.Inc()
	d.mu.Unlock()

	response := d.classify(conn)

	if err := response.Print(conn.Out); err != nil {
		d.logger.Error("writing response", "error", err)
	}
	conn.Out.CloseWrite()

	// Cancelamento determinístico: o resíduo inbound escoa para o dreno
	// nulo antes da sessão resetar.
	_, _ = io.Copy(io.Discard, conn.In)
}

// classify consome a entrada da sessão até decidir a resposta, atualizando
// LED e contadores conforme a rota.
func (d *Dispatcher) classify(conn *ntcp.Conn) Printable {
	// Start-line.
	parser := NewParseStart(d.paths)
	for !parser.Done() {
		b, err := conn.In.ReadByte()
		if err != nil {
			// Sessão fechou antes do fim da start-line.
			return d.respondError(responseNotFound)
		}
		parser.Feed(b)
	}

	// Headers: varre até o marcador de fim. O CRLF que encerra a
	// start-line conta para o marcador — uma requisição sem headers
	// termina no "\r\n" seguinte.
	eoh := match.NewContainsMatch(endOfHeaders)
	eoh.Feed('\r')
	eoh.Feed('\n')
	for !eoh.Accepted() {
		b, err := conn.In.ReadByte()
		if err != nil {
			return d.respondError(responseNotFound)
		}
		eoh.Feed(b)
	}

	method := parser.Method()
	path := parser.PathName()
	d.logger.Debug("request classified",
		"method", method.String(), "path", path,
		"protocol", parser.Protocol().String())

	switch {
	case method == MethodPOST && path == PathLed:
		return d.parseLedBody(conn)

	case method == MethodGET && path == PathCount:
		return d.respondCount()

	case (method == MethodGET || method == MethodBREW) && path == PathCoffee:
		return d.respondError(responseTeapot)

	case path == PathLed || path == PathCount || path == PathCoffee:
		return d.respondError(responseMethodNotAllowed)

	default:
		return d.respondError(responseNotFound)
	}
}

// parseLedBody consome o corpo "RRGGBB\r\n" e latcheia os registradores de
// LED no sucesso. Fechamento no meio do corpo deixa os registradores
// intactos e responde 404.
func (d *Dispatcher) parseLedBody(conn *ntcp.Conn) Printable {
	var body LedBody
	for {
		b, err := conn.In.ReadByte()
		if err != nil {
			return d.respondError(responseNotFound)
		}
		body.Feed(b)
		if body.Accepted() {
			red, green, blue := body.RGB()
			d.mu.Lock()
			d.led = LedState{Red: red, Green: green, Blue: blue}
			d.counts.OK.Inc()
			d.mu.Unlock()
			d.logger.Info("led updated",
				"red", red, "green", green, "blue", blue)
			return NewPrinter(responseOK)
		}
		if body.Rejected() {
			return d.respondError(responseNotFound)
		}
	}
}

// respondCount monta a resposta do /count: o 200 enlatado seguido da linha
// de contadores. O incremento acontece antes da impressão, então a linha
// inclui a própria requisição em curso.
func (d *Dispatcher) respondCount() Printable {
	d.mu.Lock()
	d.counts.OK.Inc()
	d.mu.Unlock()
	return PrinterSeq{NewPrinter(responseOK), d.counts}
}

// respondError contabiliza uma resposta de erro e devolve o printer dela.
func (d *Dispatcher) respondError(response string) Printable {
	d.mu.Lock()
	d.counts.Errors.Inc()
	d.mu.Unlock()
	return NewPrinter(response)
}
