// Copyright (c) 2025 Nishisan. All rights reserved.
// Use of this source code is governed by the HTTP-Accel License (Non-Commercial Evaluation)
// that can be found in the LICENSE file.

package httpd

import (
	"bytes"
	"testing"
)

func TestBcdCounter_IncAndRipple(t *testing.T) {
	c := NewBcdCounter(4, true)

	for i := 0; i < 10; i++ {
		c.Inc()
	}
	if got := c.Value(); got != 10 {
		t.Fatalf("expected 10 after carry ripple, got %d", got)
	}

	for i := 0; i < 89; i++ {
		c.Inc()
	}
	if got := c.Value(); got != 99 {
		t.Fatalf("expected 99, got %d", got)
	}
	c.Inc()
	if got := c.Value(); got != 100 {
		t.Fatalf("expected 100 after double ripple, got %d", got)
	}
}

func TestBcdCounter_FixedWidthASCII(t *testing.T) {
	c := NewBcdCounter(4, true)
	c.Inc()
	c.Inc()
	c.Inc()

	var buf bytes.Buffer
	if err := c.Print(&buf); err != nil {
		t.Fatalf("Print: %v", err)
	}
	if buf.String() != "0003" {
		t.Fatalf("expected %q, got %q", "0003", buf.String())
	}
}

func TestBcdCounter_RawDigits(t *testing.T) {
	c := NewBcdCounter(2, false)
	for i := 0; i < 42; i++ {
		c.Inc()
	}

	var buf bytes.Buffer
	if err := c.Print(&buf); err != nil {
		t.Fatalf("Print: %v", err)
	}
	if !bytes.Equal(buf.Bytes(), []byte{4, 2}) {
		t.Fatalf("expected raw nibbles [4 2], got %v", buf.Bytes())
	}
}

func TestBcdCounter_OverflowWraps(t *testing.T) {
	c := NewBcdCounter(2, true)
	for i := 0; i < 100; i++ {
		c.Inc()
	}
	if !c.Overflow() {
		t.Fatal("expected overflow after wrapping")
	}
	if got := c.Value(); got != 0 {
		t.Fatalf("expected wrap to 0, got %d", got)
	}

	c.Reset()
	if c.Overflow() || c.Value() != 0 {
		t.Fatal("reset should clear overflow and digits")
	}
}

func TestNumber_Print(t *testing.T) {
	tests := []struct {
		value uint64
		want  string
	}{
		{0, "0"},
		{7, "7"},
		{10, "10"},
		{409, "409"},
		{18446744073709551615, "18446744073709551615"},
	}

	for _, tt := range tests {
		var buf bytes.Buffer
		n := &Number{Value: tt.value}
		if err := n.Print(&buf); err != nil {
			t.Fatalf("Print(%d): %v", tt.value, err)
		}
		if buf.String() != tt.want {
			t.Errorf("Print(%d): expected %q, got %q", tt.value, tt.want, buf.String())
		}
	}
}

func TestCountBody_Line(t *testing.T) {
	cb := NewCountBody()
	for i := 0; i < 3; i++ {
		cb.Requests.Inc()
	}
	cb.OK.Inc()
	cb.OK.Inc()
	cb.Errors.Inc()

	var buf bytes.Buffer
	if err := cb.Print(&buf); err != nil {
		t.Fatalf("Print: %v", err)
	}
	want := "requests: 0003 ok_responses: 0002 error_responses: 0001\r\n"
	if buf.String() != want {
		t.Fatalf("expected %q, got %q", want, buf.String())
	}
}

func TestPrinterSeq_Order(t *testing.T) {
	var buf bytes.Buffer
	seq := PrinterSeq{NewPrinter("a"), NewPrinter("b"), NewPrinter("c")}
	if err := seq.Print(&buf); err != nil {
		t.Fatalf("Print: %v", err)
	}
	if buf.String() != "abc" {
		t.Fatalf("expected %q, got %q", "abc", buf.String())
	}
}
