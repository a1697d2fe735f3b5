// Copyright (c) 2025 Nishisan. All rights reserved.
// Use of this source code is governed by the HTTP-Accel License (Non-Commercial Evaluation)
// that can be found in the LICENSE file.

package observability

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Timeouts do listener de observabilidade.
const (
	httpReadTimeout  = 5 * time.Second
	httpWriteTimeout = 15 * time.Second
	httpIdleTimeout  = 60 * time.Second
)

// NewRouter monta o http.Handler de observabilidade: /metrics (Prometheus)
// e /api/v1/events (ring de eventos). Todas as rotas passam pela ACL.
func NewRouter(metrics *Metrics, ring *EventRing, acl *ACL) http.Handler {
	mux := http.NewServeMux()

	mux.Handle("GET /metrics", promhttp.HandlerFor(
		metrics.Registry(), promhttp.HandlerOpts{}))

	mux.HandleFunc("GET /api/v1/events", func(w http.ResponseWriter, r *http.Request) {
		limit := 0
		if v := r.URL.Query().Get("limit"); v != "" {
			if parsed, err := strconv.Atoi(v); err == nil {
				limit = parsed
			}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(ring.Recent(limit))
	})

	return acl.Middleware(mux)
}

// Serve roda o listener de observabilidade até o context ser cancelado.
func Serve(ctx context.Context, listen string, handler http.Handler, logger *slog.Logger) error {
	srv := &http.Server{
		Addr:         listen,
		Handler:      handler,
		ReadTimeout:  httpReadTimeout,
		WriteTimeout: httpWriteTimeout,
		IdleTimeout:  httpIdleTimeout,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("observability listening", "address", listen)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
