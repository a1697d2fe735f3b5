// Copyright (c) 2025 Nishisan. All rights reserved.
// Use of this source code is governed by the HTTP-Accel License (Non-Commercial Evaluation)
// that can be found in the LICENSE file.

package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/cceckman/http-accel/internal/config"
	"github.com/cceckman/http-accel/internal/device"
	"github.com/cceckman/http-accel/internal/logging"
	"github.com/cceckman/http-accel/internal/observability"
)

func main() {
	configPath := flag.String("config", "/etc/http-accel/device.yaml", "path to device config file")
	flag.Parse()

	cfg, err := config.LoadDeviceConfig(*configPath)
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

	core := device.NewCore(uint8(cfg.StreamID), logger)

	if cfg.Stats.Enabled {
		reporter, err := observability.NewStatsReporter(cfg.Stats.Schedule, func() []any {
			led := core.LED()
			counters := core.Counters()
			return []any{
				"led_red", led.Red, "led_green", led.Green, "led_blue", led.Blue,
				"requests", counters.Requests,
				"ok_responses", counters.OK,
				"error_responses", counters.Errors,
			}
		}, logger)
		if err != nil {
			logger.Error("stats reporter setup failed", "error", err)
			os.Exit(1)
		}
		reporter.Start()
		defer reporter.Stop()
	}

	if err := run(ctx, cfg, core, logger); err != nil {
		logger.Error("device error", "error", err)
		os.Exit(1)
	}
}

// run expõe o link serial simulado num listener TCP, uma conexão por vez.
func run(ctx context.Context, cfg *config.DeviceConfig, core *device.Core, logger *slog.Logger) error {
	ln, err := net.Listen("tcp", cfg.Listen)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", cfg.Listen, err)
	}
	defer ln.Close()

	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	logger.Info("device link listening", "address", cfg.Listen, "stream", cfg.StreamID)

	for {
		link, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("accepting link: %w", err)
		}
		logger.Info("link attached", "peer", link.RemoteAddr().String())

		// O núcleo atende um link por vez; LEDs e contadores sobrevivem
		// à reconexão.
		if err := core.Serve(link); err != nil {
			logger.Error("link failed", "error", err)
		}
		link.Close()
		logger.Info("link detached")
	}
}
