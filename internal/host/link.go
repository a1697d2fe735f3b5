// Copyright (c) 2025 Nishisan. All rights reserved.
// Use of this source code is governed by the HTTP-Accel License (Non-Commercial Evaluation)
// that can be found in the LICENSE file.

// Package host implementa o lado host do acelerador: o link serial (real ou
// simulado) e o proxy TCP→nTCP que os testes de interoperabilidade usam.
package host

import (
	"fmt"
	"io"
	"net"
)

// Modos de link suportados.
const (
	LinkModeSerial = "serial"
	LinkModeTCP    = "tcp"
)

// LinkConfig descreve como alcançar o device.
type LinkConfig struct {
	// Mode: "serial" (device USB CDC-ACM real) ou "tcp" (simulador).
	Mode string

	// Device é o caminho da serial (ex: /dev/ttyACM0) no modo serial.
	Device string

	// Addr é o endereço do simulador no modo tcp.
	Addr string

	// BaudRate é a taxa da serial; também alimenta o pacing de escrita.
	BaudRate int
}

// OpenLink abre o link com o device conforme a configuração.
func OpenLink(cfg LinkConfig) (io.ReadWriteCloser, error) {
	switch cfg.Mode {
	case LinkModeSerial:
		return openSerial(cfg)
	case LinkModeTCP:
		conn, err := net.Dial("tcp", cfg.Addr)
		if err != nil {
			return nil, fmt.Errorf("dialing device simulator: %w", err)
		}
		return conn, nil
	default:
		return nil, fmt.Errorf("host: unknown link mode %q", cfg.Mode)
	}
}
