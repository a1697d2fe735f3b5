// Copyright (c) 2025 Nishisan. All rights reserved.
// Use of this source code is governed by the HTTP-Accel License (Non-Commercial Evaluation)
// that can be found in the LICENSE file.

package httpd

import "testing"

func feedBody(l *LedBody, s string) {
	for i := 0; i < len(s); i++ {
		if !l.Feed(s[i]) {
			return
		}
	}
}

func TestLedBody_Accepts(t *testing.T) {
	tests := []struct {
		name             string
		body             string
		red, green, blue byte
	}{
		{"digits", "123456\r\n", 0x12, 0x34, 0x56},
		{"hex letters", "ABCDEF\r\n", 0xAB, 0xCD, 0xEF},
		{"mixed", "0A1B2C\r\n", 0x0A, 0x1B, 0x2C},
		{"black", "000000\r\n", 0x00, 0x00, 0x00},
		{"white", "FFFFFF\r\n", 0xFF, 0xFF, 0xFF},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var l LedBody
			feedBody(&l, tt.body)

			if !l.Accepted() {
				t.Fatal("expected accepted")
			}
			r, g, b := l.RGB()
			if r != tt.red || g != tt.green || b != tt.blue {
				t.Fatalf("expected (%#x, %#x, %#x), got (%#x, %#x, %#x)",
					tt.red, tt.green, tt.blue, r, g, b)
			}
		})
	}
}

func TestLedBody_Rejects(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"lowercase hex", "abcdef\r\n"},
		{"non hex", "12345G\r\n"},
		{"missing CR", "123456\n"},
		{"missing LF", "123456\rx"},
		{"too short then CR", "12\r\n"},
		{"space", "12 456\r\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var l LedBody
			feedBody(&l, tt.body)

			if !l.Rejected() {
				t.Fatal("expected rejected")
			}
			if l.Accepted() {
				t.Fatal("accepted and rejected are mutually exclusive")
			}
		})
	}
}

func TestLedBody_LatchUntilReset(t *testing.T) {
	var l LedBody
	feedBody(&l, "112233\r\n")
	if !l.Accepted() {
		t.Fatal("expected accepted")
	}
	if l.Feed('9') {
		t.Fatal("latched parser should not consume")
	}

	// Reset limpa os latches mas preserva os canais até o próximo parse
	l.Reset()
	if l.Accepted() || l.Rejected() {
		t.Fatal("reset should clear latches")
	}
	r, g, b := l.RGB()
	if r != 0x11 || g != 0x22 || b != 0x33 {
		t.Fatalf("channels should survive reset, got (%#x, %#x, %#x)", r, g, b)
	}

	// Um corpo rejeitado não altera os canais
	feedBody(&l, "zz\r\n")
	if !l.Rejected() {
		t.Fatal("expected rejected")
	}
	r, g, b = l.RGB()
	if r != 0x11 || g != 0x22 || b != 0x33 {
		t.Fatalf("rejected body must not touch channels, got (%#x, %#x, %#x)", r, g, b)
	}
}
