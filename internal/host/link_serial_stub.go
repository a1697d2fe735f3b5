// Copyright (c) 2025 Nishisan. All rights reserved.
// Use of this source code is governed by the HTTP-Accel License (Non-Commercial Evaluation)
// that can be found in the LICENSE file.

//go:build !linux

package host

import (
	"errors"
	"io"
)

// openSerial só está disponível em Linux (termios); nas demais plataformas
// resta o modo tcp contra o simulador.
func openSerial(_ LinkConfig) (io.ReadWriteCloser, error) {
	return nil, errors.New("host: serial links require linux")
}
