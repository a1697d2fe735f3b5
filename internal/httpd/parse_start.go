// Copyright (c) 2025 Nishisan. All rights reserved.
// Use of this source code is governed by the HTTP-Accel License (Non-Commercial Evaluation)
// that can be found in the LICENSE file.

// Package httpd implementa o motor HTTP/1.0 do acelerador: classificador de
// start-line, parser de corpo do LED, printers de resposta, contadores BCD
// e o dispatcher de sessão.
package httpd

import "github.com/cceckman/http-accel/internal/match"

// Method enumera os métodos reconhecidos pelo classificador.
// O valor zero é o sentinela "sem match".
type Method uint8

const (
	MethodNone Method = iota
	MethodGET
	MethodPOST
	MethodBREW
)

func (m Method) String() string {
	switch m {
	case MethodGET:
		return "GET"
	case MethodPOST:
		return "POST"
	case MethodBREW:
		return "BREW"
	}
	return "unknown"
}

// Protocol enumera os protocolos reconhecidos. Zero é "sem match".
type Protocol uint8

const (
	ProtocolNone Protocol = iota
	ProtocolHTTP10
)

func (p Protocol) String() string {
	if p == ProtocolHTTP10 {
		return "HTTP/1.0"
	}
	return "unknown"
}

// PathNone é o índice sentinela de caminho sem match.
const PathNone = 0

// startPhase enumera as fases do parser de start-line.
type startPhase uint8

const (
	phaseMethod startPhase = iota
	phasePath
	phaseProtocol
	phaseCR
	phaseDone
)

// ParseStart classifica a start-line de uma requisição HTTP/1.0:
// "METHOD PATH PROTOCOL\r\n".
//
// Os bytes até o primeiro espaço alimentam em paralelo os matchers de
// método; do primeiro ao segundo espaço, os de caminho; do segundo espaço
// até o CR, o de protocolo. Os espaços e o CRLF são consumidos pelo próprio
// parser, sem passar aos matchers.
//
// Caminhos com prefixo comum ("/" e "/style.css") podem casar ambos; o
// desempate é explícito: vence o prefixo mais longo visto antes do espaço.
type ParseStart struct {
	paths []string

	// methodAlt combina os matchers de método em alternação; o índice do
	// primeiro aceitante decodifica o método.
	methodAlt *match.AltMatch

	pathMatch []*match.ContainsMatch
	protMatch *match.ContainsMatch

	phase startPhase
}

// methodOrder fixa a ordem dos filhos da alternação de métodos; o índice
// em Which() mapeia 1:1 para esta tabela.
var methodOrder = []Method{MethodGET, MethodPOST, MethodBREW}

// NewParseStart cria um parser para o conjunto fixo de caminhos fornecido.
func NewParseStart(paths []string) *ParseStart {
	p := &ParseStart{
		paths: paths,
		methodAlt: match.NewAltMatch(
			match.NewContainsMatch("GET"),
			match.NewContainsMatch("POST"),
			match.NewContainsMatch("BREW"),
		),
		protMatch: match.NewContainsMatch("HTTP/1.0"),
	}
	for _, path := range paths {
		p.pathMatch = append(p.pathMatch, match.NewContainsMatch(path))
	}
	return p
}

// Feed consome um byte da start-line. Após Done, bytes adicionais são
// ignorados (retorna false).
func (p *ParseStart) Feed(b byte) bool {
	switch p.phase {
	case phaseMethod:
		if b == ' ' {
			p.phase = phasePath
			return true
		}
		p.methodAlt.Feed(b)
	case phasePath:
		if b == ' ' {
			p.phase = phaseProtocol
			return true
		}
		for _, m := range p.pathMatch {
			m.Feed(b)
		}
	case phaseProtocol:
		if b == '\r' {
			p.phase = phaseCR
			return true
		}
		p.protMatch.Feed(b)
	case phaseCR:
		if b == '\n' {
			p.phase = phaseDone
		}
		// Qualquer outro byte mantém a espera pelo LF.
	case phaseDone:
		return false
	}
	return true
}

// Done informa se a sequência "\r\n" de fim de linha já foi vista.
func (p *ParseStart) Done() bool { return p.phase == phaseDone }

// Method retorna o método classificado, ou MethodNone.
func (p *ParseStart) Method() Method {
	if which := p.methodAlt.Which(); which >= 0 {
		return methodOrder[which]
	}
	return MethodNone
}

// Path retorna o índice (base 1) do caminho classificado, ou PathNone.
// Entre múltiplos matches, vence o caminho mais longo.
func (p *ParseStart) Path() int {
	best := PathNone
	bestLen := -1
	for i, m := range p.pathMatch {
		if m.Accepted() && len(p.paths[i]) > bestLen {
			best = i + 1
			bestLen = len(p.paths[i])
		}
	}
	return best
}

// PathName retorna o caminho classificado, ou "" sem match.
func (p *ParseStart) PathName() string {
	if idx := p.Path(); idx != PathNone {
		return p.paths[idx-1]
	}
	return ""
}

// Protocol retorna o protocolo classificado, ou ProtocolNone.
func (p *ParseStart) Protocol() Protocol {
	if p.protMatch.Accepted() {
		return ProtocolHTTP10
	}
	return ProtocolNone
}

// Reset prepara o parser para uma nova requisição.
func (p *ParseStart) Reset() {
	p.methodAlt.Reset()
	for _, m := range p.pathMatch {
		m.Reset()
	}
	p.protMatch.Reset()
	p.phase = phaseMethod
}
