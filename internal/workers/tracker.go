package workers

import (
	"context"
	"time"

	"edgeguard/internal/configuration"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

// Task is one named step of a worker cycle. Run reports how many items it handled.
type Task struct {
	Name string
	Run  func(ctx context.Context) (int, error)
}

// CycleReport summarises one pass over a worker's tasks.
type CycleReport struct {
	Handled  map[string]int
	Failed   []string
	Skipped  []string
	Duration time.Duration
}

// Periodic runs its tasks in order, once at start and then every Interval.
// A failing task is logged and the cycle moves on; cancellation skips what is left.
type Periodic struct {
	Name     string
	Interval time.Duration
	Tasks    []Task
}

func (p Periodic) RunCycle(ctx context.Context) CycleReport {
	ctx, span := otel.Tracer(configuration.AppName).Start(ctx, "worker.cycle")
	defer span.End()
	span.SetAttributes(attribute.String("worker.name", p.Name))

	logger := zap.L().With(zap.String("worker", p.Name))
	report := CycleReport{Handled: make(map[string]int, len(p.Tasks))}
	started := time.Now()

	for _, task := range p.Tasks {
		if ctx.Err() != nil {
			report.Skipped = append(report.Skipped, task.Name)
			continue
		}

		handled, err := task.Run(ctx)
		report.Handled[task.Name] = handled
		if err != nil {
			report.Failed = append(report.Failed, task.Name)
			span.RecordError(err)
			logger.Error("Worker task failed", zap.String("task", task.Name), zap.Error(err))
		}
	}

	report.Duration = time.Since(started)
	if len(report.Failed) > 0 {
		span.SetStatus(codes.Error, "worker task failed")
	}

	logger.Info("Worker cycle complete",
		zap.Any("handled", report.Handled),
		zap.Strings("failed", report.Failed),
		zap.Strings("skipped", report.Skipped),
		zap.Duration("duration", report.Duration))
	return report
}

// Run blocks until ctx is done.
func (p Periodic) Run(ctx context.Context) {
	zap.L().Info("Starting worker", zap.String("worker", p.Name), zap.Duration("interval", p.Interval))

	p.RunCycle(ctx)

	ticker := time.NewTicker(p.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			zap.L().Info("Worker shutting down", zap.String("worker", p.Name))
			return
		case <-ticker.C:
			p.RunCycle(ctx)
		}
	}
}
