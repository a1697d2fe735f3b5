// Copyright (c) 2025 Nishisan. All rights reserved.
// Use of this source code is governed by the HTTP-Accel License (Non-Commercial Evaluation)
// that can be found in the LICENSE file.

package host

import (
	"context"
	"io"

	"golang.org/x/time/rate"
)

// maxBurstSize limita o burst do rate limiter ao tamanho de um frame nTCP
// completo: o pacing deve agir entre frames, não no meio de um.
const maxBurstSize = 258

// ThrottledWriter é um io.Writer com rate limiting por token bucket.
// Usado para casar a escrita no link com a taxa física da serial (um link
// de 9600 baud entrega ~960 bytes/s em 8N1), evitando empilhar dados no
// driver além do que o device consegue escoar.
type ThrottledWriter struct {
	w       io.Writer
	limiter *rate.Limiter
	ctx     context.Context
}

// NewThrottledWriter cria um ThrottledWriter com a taxa máxima em
// bytes/segundo. bytesPerSec <= 0 retorna o writer original sem pacing.
func NewThrottledWriter(ctx context.Context, w io.Writer, bytesPerSec int64) io.Writer {
	if bytesPerSec <= 0 {
		return w
	}

	burst := int(bytesPerSec)
	if burst > maxBurstSize {
		burst = maxBurstSize
	}

	return &ThrottledWriter{
		w:       w,
		limiter: rate.NewLimiter(rate.Limit(bytesPerSec), burst),
		ctx:     ctx,
	}
}

// Write implementa io.Writer com rate limiting.
// Divide escritas maiores que o burst em pedaços, consumindo tokens
// gradualmente.
func (tw *ThrottledWriter) Write(p []byte) (int, error) {
	totalWritten := 0

	for len(p) > 0 {
		chunk := len(p)
		if chunk > tw.limiter.Burst() {
			chunk = tw.limiter.Burst()
		}

		if err := tw.limiter.WaitN(tw.ctx, chunk); err != nil {
			return totalWritten, err
		}

		n, err := tw.w.Write(p[:chunk])
		totalWritten += n
		if err != nil {
			return totalWritten, err
		}

		p = p[n:]
	}

	return totalWritten, nil
}
