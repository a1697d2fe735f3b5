// Copyright (c) 2025 Nishisan. All rights reserved.
// Use of this source code is governed by the HTTP-Accel License (Non-Commercial Evaluation)
// that can be found in the LICENSE file.

package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/cceckman/http-accel/internal/config"
	"github.com/cceckman/http-accel/internal/host"
	"github.com/cceckman/http-accel/internal/logging"
	"github.com/cceckman/http-accel/internal/observability"
)

func main() {
	configPath := flag.String("config", "/etc/http-accel/proxy.yaml", "path to proxy config file")
	flag.Parse()

	cfg, err := config.LoadProxyConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	logger, logCloser := logging.NewLogger(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.File)
	defer logCloser.Close()

	// Context com cancelamento via signal
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

	go func() {
		sig := <-sigCh
		logger.Info("received signal, shutting down", "signal", sig.String())
		cancel()
	}()

	link, err := host.OpenLink(host.LinkConfig{
		Mode:     cfg.Link.Mode,
		Device:   cfg.Link.Device,
		Addr:     cfg.Link.Addr,
		BaudRate: cfg.Link.BaudRate,
	})
	if err != nil {
		logger.Error("opening link", "error", err)
		os.Exit(1)
	}
	defer link.Close()
	logger.Info("link open", "mode", cfg.Link.Mode)

	metrics := observability.NewMetrics()
	events := observability.NewEventRing(1000)

	if cfg.Metrics.Enabled {
		router := observability.NewRouter(metrics, events,
			observability.NewACL(cfg.Metrics.ParsedCIDRs))
		go func() {
			if err := observability.Serve(ctx, cfg.Metrics.Listen, router, logger); err != nil {
				logger.Error("observability server failed", "error", err)
			}
		}()
	}

	if cfg.Stats.Enabled {
		reporter, err := observability.NewStatsReporter(cfg.Stats.Schedule, func() []any {
			return []any{"recent_events", events.Len()}
		}, logger)
		if err != nil {
			logger.Error("stats reporter setup failed", "error", err)
			os.Exit(1)
		}
		reporter.Start()
		defer reporter.Stop()
	}

	// Pacing opcional da escrita no link, casado com o baud da serial.
	// 8N1: um byte no fio custa 10 bits.
	var paced io.Writer
	if cfg.Link.PaceWrites {
		paced = host.NewThrottledWriter(ctx, link, int64(cfg.Link.BaudRate/10))
	}

	proxy := host.NewProxy(cfg.Listen, uint8(cfg.StreamID), link, paced, metrics, events, logger)
	if err := proxy.Run(ctx); err != nil {
		logger.Error("proxy error", "error", err)
		os.Exit(1)
	}
}
