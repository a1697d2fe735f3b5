// Copyright (c) 2025 Nishisan. All rights reserved.
// Use of this source code is governed by the HTTP-Accel License (Non-Commercial Evaluation)
// that can be found in the LICENSE file.

package observability

import (
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// SnapshotFunc coleta o estado específico do binário (LEDs, contadores,
// sessões) como pares chave/valor para o log estruturado.
type SnapshotFunc func() []any

// StatsReporter emite snapshots operacionais periódicos no log, agendados
// por uma spec cron. Cada snapshot junta o estado do binário (via
// SnapshotFunc) às métricas da máquina (percentual de memória usada e de
// CPU), não às do processo.
type StatsReporter struct {
	logger   *slog.Logger
	snapshot SnapshotFunc
	cron     *cron.Cron
}

// NewStatsReporter cria um reporter com a agenda fornecida (spec cron de
// cinco campos, ex: "*/5 * * * *").
func NewStatsReporter(schedule string, snapshot SnapshotFunc, logger *slog.Logger) (*StatsReporter, error) {
	sr := &StatsReporter{
		logger:   logger.With("component", "stats_reporter"),
		snapshot: snapshot,
	}

	c := cron.New(cron.WithLogger(
		cron.VerbosePrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelDebug))))
	if _, err := c.AddFunc(schedule, sr.report); err != nil {
		return nil, fmt.Errorf("adding stats cron job: %w", err)
	}
	sr.cron = c
	return sr, nil
}

// Start inicia o agendador.
func (sr *StatsReporter) Start() { sr.cron.Start() }

// Stop para o agendador e aguarda um snapshot em curso terminar.
func (sr *StatsReporter) Stop() {
	<-sr.cron.Stop().Done()
}

// report coleta e loga um snapshot.
func (sr *StatsReporter) report() {
	attrs := sr.snapshot()

	if vm, err := mem.VirtualMemory(); err == nil {
		attrs = append(attrs, "mem_used_percent", vm.UsedPercent)
	}
	if percents, err := cpu.Percent(0, false); err == nil && len(percents) > 0 {
		attrs = append(attrs, "cpu_percent", percents[0])
	}

	sr.logger.Info("operational snapshot", attrs...)
}
