package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Job периодическая фоновая задача
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Scheduler запускает зарегистрированные задачи по таймеру
type Scheduler struct {
	logger *zap.Logger
	jobs   []Job
}

// NewScheduler создает новый планировщик задач
func NewScheduler(logger *zap.Logger) *Scheduler {
	return &Scheduler{
		logger: logger,
	}
}

// AddJob добавляет задачу в планировщик
func (s *Scheduler) AddJob(job Job) {
	s.jobs = append(s.jobs, job)
}

// Start выполняет задачи сразу и затем каждые interval, пока не отменен ctx
func (s *Scheduler) Start(ctx context.Context, interval time.Duration) {
	s.logger.Info("запуск планировщика задач",
		zap.Duration("interval", interval),
		zap.Int("jobs_count", len(s.jobs)))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.RunOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("остановка планировщика задач")
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce последовательно выполняет все задачи. Ошибка одной задачи не останавливает остальные.
func (s *Scheduler) RunOnce(ctx context.Context) {
	for _, job := range s.jobs {
		if ctx.Err() != nil {
			return
		}

		started := time.Now()
		if err := job.Run(ctx); err != nil {
			s.logger.Error("ошибка выполнения задачи",
				zap.String("job", job.Name()),
				zap.Error(err))
			continue
		}

		s.logger.Debug("задача выполнена",
			zap.String("job", job.Name()),
			zap.Duration("duration", time.Since(started)))
	}
}
