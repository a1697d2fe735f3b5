// Copyright (c) 2025 Nishisan. All rights reserved.
// Use of this source code is governed by the HTTP-Accel License (Non-Commercial Evaluation)
// that can be found in the LICENSE file.

package httpd

import "testing"

func feedLine(p *ParseStart, line string) {
	for i := 0; i < len(line) && !p.Done(); i++ {
		p.Feed(line[i])
	}
}

func TestParseStart_Classification(t *testing.T) {
	paths := []string{"/led", "/count", "/coffee"}

	tests := []struct {
		name     string
		line     string
		method   Method
		path     string
		protocol Protocol
	}{
		{"post led", "POST /led HTTP/1.0\r\n", MethodPOST, "/led", ProtocolHTTP10},
		{"get count", "GET /count HTTP/1.0\r\n", MethodGET, "/count", ProtocolHTTP10},
		{"brew coffee", "BREW /coffee HTTP/1.0\r\n", MethodBREW, "/coffee", ProtocolHTTP10},
		{"unknown method", "PUT /led HTTP/1.0\r\n", MethodNone, "/led", ProtocolHTTP10},
		{"unknown path", "GET /bad_uri HTTP/1.0\r\n", MethodGET, "", ProtocolHTTP10},
		{"unknown protocol", "GET /led HTTP/1.1\r\n", MethodGET, "/led", ProtocolNone},
		{"all unknown", "FETCH /x SPDY/9\r\n", MethodNone, "", ProtocolNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewParseStart(paths)
			feedLine(p, tt.line)

			if !p.Done() {
				t.Fatal("parser should be done after CRLF")
			}
			if got := p.Method(); got != tt.method {
				t.Errorf("method: expected %v, got %v", tt.method, got)
			}
			if got := p.PathName(); got != tt.path {
				t.Errorf("path: expected %q, got %q", tt.path, got)
			}
			if got := p.Protocol(); got != tt.protocol {
				t.Errorf("protocol: expected %v, got %v", tt.protocol, got)
			}
		})
	}
}

func TestParseStart_LongestPrefixWins(t *testing.T) {
	// "/" casa como substring de qualquer caminho; o desempate escolhe o
	// prefixo mais longo visto antes do espaço.
	paths := []string{"/", "/style.css"}

	p := NewParseStart(paths)
	feedLine(p, "GET /style.css HTTP/1.0\r\n")
	if got := p.PathName(); got != "/style.css" {
		t.Fatalf("expected longest path %q, got %q", "/style.css", got)
	}

	p = NewParseStart(paths)
	feedLine(p, "GET / HTTP/1.0\r\n")
	if got := p.PathName(); got != "/" {
		t.Fatalf("expected %q, got %q", "/", got)
	}
}

func TestParseStart_DoneOnlyAfterCRLF(t *testing.T) {
	p := NewParseStart([]string{"/led"})
	feedLine(p, "GET /led HTTP/1.0")
	if p.Done() {
		t.Fatal("parser must not be done before CRLF")
	}
	p.Feed('\r')
	if p.Done() {
		t.Fatal("parser must not be done before LF")
	}
	p.Feed('\n')
	if !p.Done() {
		t.Fatal("parser should be done after CRLF")
	}
	// Entrada extra não é consumida
	if p.Feed('X') {
		t.Fatal("done parser should not consume")
	}
}

func TestParseStart_Reset(t *testing.T) {
	p := NewParseStart([]string{"/led"})
	feedLine(p, "POST /led HTTP/1.0\r\n")
	if p.Method() != MethodPOST {
		t.Fatalf("expected POST, got %v", p.Method())
	}

	p.Reset()
	if p.Done() || p.Method() != MethodNone || p.Path() != PathNone {
		t.Fatal("reset should clear classification")
	}
	feedLine(p, "GET /led HTTP/1.0\r\n")
	if p.Method() != MethodGET {
		t.Fatalf("expected GET after reset, got %v", p.Method())
	}
}
