package scheduler

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"voicebridge/internal/metrics"
	"voicebridge/internal/scratch"
)

// SweepJob удаляет временные каталоги запросов, которые пережили ttl.
// Такие остаются только если процесс упал посреди запроса.
type SweepJob struct {
	root    *scratch.Root
	ttl     time.Duration
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewSweepJob создает задачу уборки
func NewSweepJob(root *scratch.Root, ttl time.Duration, m *metrics.Metrics, logger *zap.Logger) *SweepJob {
	return &SweepJob{
		root:    root,
		ttl:     ttl,
		metrics: m,
		logger:  logger,
	}
}

func (j *SweepJob) Name() string { return "scratch_sweep" }

// Run запускает уборку
func (j *SweepJob) Run(ctx context.Context) error {
	removed, err := j.root.Sweep(j.ttl, false)
	if err != nil {
		return fmt.Errorf("ошибка уборки временных файлов: %w", err)
	}

	j.metrics.RecordSwept(len(removed))
	if len(removed) > 0 {
		j.logger.Info("удалены забытые временные каталоги",
			zap.Int("count", len(removed)),
			zap.Duration("ttl", j.ttl))
	}
	return nil
}
