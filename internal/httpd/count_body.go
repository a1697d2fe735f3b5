// Copyright (c) 2025 Nishisan. All rights reserved.
// Use of this source code is governed by the HTTP-Accel License (Non-Commercial Evaluation)
// that can be found in the LICENSE file.

package httpd

import "io"

// countDigits é a largura dos contadores do endpoint /count.
const countDigits = 4

// CountBody imprime a linha de estatísticas do endpoint /count:
//
//	requests: 0003 ok_responses: 0002 error_responses: 0001\r\n
//
// A largura fixa com zeros à esquerda vem do BcdCounter; o resultado não é
// JSON válido (zeros à esquerda leem como octal) e fica assim até o
// endpoint ser versionado.
type CountBody struct {
	Requests *BcdCounter
	OK       *BcdCounter
	Errors   *BcdCounter
}

// NewCountBody cria o trio de contadores do /count.
func NewCountBody() *CountBody {
	return &CountBody{
		Requests: NewBcdCounter(countDigits, true),
		OK:       NewBcdCounter(countDigits, true),
		Errors:   NewBcdCounter(countDigits, true),
	}
}

// Print emite a linha de contadores.
func (cb *CountBody) Print(w io.Writer) error {
	seq := PrinterSeq{
		NewPrinter("requests: "), cb.Requests,
		NewPrinter(" ok_responses: "), cb.OK,
		NewPrinter(" error_responses: "), cb.Errors,
		NewPrinter("\r\n"),
	}
	return seq.Print(w)
}
