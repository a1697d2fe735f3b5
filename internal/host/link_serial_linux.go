// Copyright (c) 2025 Nishisan. All rights reserved.
// Use of this source code is governed by the HTTP-Accel License (Non-Commercial Evaluation)
// that can be found in the LICENSE file.

package host

import (
	"fmt"
	"io"

	serial "github.com/daedaluz/goserial"
)

// openSerial abre a porta serial do device em modo raw, na velocidade
// configurada (default 9600, a taxa do CDC-ACM do gateware).
func openSerial(cfg LinkConfig) (io.ReadWriteCloser, error) {
	port, err := serial.Open(cfg.Device, serial.NewOptions())
	if err != nil {
		return nil, fmt.Errorf("opening serial device %s: %w", cfg.Device, err)
	}

	if err := port.MakeRaw(); err != nil {
		port.Close()
		return nil, fmt.Errorf("configuring raw mode on %s: %w", cfg.Device, err)
	}

	attrs, err := port.GetAttr()
	if err != nil {
		port.Close()
		return nil, fmt.Errorf("reading attrs of %s: %w", cfg.Device, err)
	}
	attrs.SetSpeed(baudFlag(cfg.BaudRate))
	if err := port.SetAttr(serial.TCSANOW, attrs); err != nil {
		port.Close()
		return nil, fmt.Errorf("setting speed on %s: %w", cfg.Device, err)
	}

	return port, nil
}

// baudFlag mapeia a taxa configurada para a constante termios.
func baudFlag(baud int) serial.CFlag {
	switch baud {
	case 19200:
		return serial.B19200
	case 38400:
		return serial.B38400
	case 57600:
		return serial.B57600
	case 115200:
		return serial.B115200
	default:
		return serial.B9600
	}
}
