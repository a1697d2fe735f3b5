// Copyright (c) 2025 Nishisan. All rights reserved.
// Use of this source code is governed by the HTTP-Accel License (Non-Commercial Evaluation)
// that can be found in the LICENSE file.

package httpd

import (
	"fmt"
	"io"
)

// BcdCounter é um contador crescente em BCD: uma cadeia de D dígitos de
// 4 bits com carry em cascata. Contar em decimal torna a impressão barata —
// cada dígito vira um byte ASCII sem divisões.
//
// A impressão é de largura fixa, com zeros à esquerda, do dígito mais
// significativo ao menos. O overflow do dígito mais alto seta ovf e o
// contador dá a volta módulo 10^D; o overflow não é propagado ao cliente.
type BcdCounter struct {
	// digits[0] é o menos significativo.
	digits []uint8
	ascii  bool
	ovf    bool
}

// NewBcdCounter cria um contador com o número de dígitos fornecido.
// ascii=true imprime '0'–'9'; false imprime os nibbles crus.
func NewBcdCounter(digits int, ascii bool) *BcdCounter {
	if digits < 1 {
		digits = 1
	}
	return &BcdCounter{digits: make([]uint8, digits), ascii: ascii}
}

// Inc incrementa o dígito baixo, propagando o carry pela cadeia.
func (c *BcdCounter) Inc() {
	for i := range c.digits {
		c.digits[i]++
		if c.digits[i] < 10 {
			return
		}
		c.digits[i] = 0
	}
	c.ovf = true
}

// Reset zera todos os dígitos e o indicador de overflow.
func (c *BcdCounter) Reset() {
	for i := range c.digits {
		c.digits[i] = 0
	}
	c.ovf = false
}

// Overflow informa se o contador já deu a volta.
func (c *BcdCounter) Overflow() bool { return c.ovf }

// Value retorna o valor corrente como inteiro.
func (c *BcdCounter) Value() uint64 {
	var v uint64
	for i := len(c.digits) - 1; i >= 0; i-- {
		v = v*10 + uint64(c.digits[i])
	}
	return v
}

// Print emite os D dígitos, do mais significativo ao menos, em largura
// fixa com zeros à esquerda.
func (c *BcdCounter) Print(w io.Writer) error {
	buf := make([]byte, len(c.digits))
	for i := range buf {
		d := c.digits[len(c.digits)-1-i]
		if c.ascii {
			d += '0'
		}
		buf[i] = d
	}
	if _, err := w.Write(buf); err != nil {
		return fmt.Errorf("printing counter: %w", err)
	}
	return nil
}
