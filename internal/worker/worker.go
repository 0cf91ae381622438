// Package worker runs periodic maintenance for the Name Hive API:
// expired-session cleanup, anonymous usage-day sweeping, and a daily usage
// rollup log line.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/hivelabs/namehive/internal/domain"
	"github.com/hivelabs/namehive/internal/metrics"
	"github.com/hivelabs/namehive/internal/repository"
	"github.com/hivelabs/namehive/internal/service"
)

// =============================================================================
// Configuration
// =============================================================================

// Config holds the configuration for the maintenance worker.
type Config struct {
	// Interval is how often one maintenance run starts.
	// Default: 1 hour
	Interval time.Duration

	// RunTimeout bounds a single maintenance run.
	// Default: 5 minutes
	RunTimeout time.Duration

	// ShutdownTimeout is how long Stop waits for an in-flight run.
	// Default: 30 seconds
	ShutdownTimeout time.Duration
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		Interval:        time.Hour,
		RunTimeout:      5 * time.Minute,
		ShutdownTimeout: 30 * time.Second,
	}
}

// Validate checks if the configuration is valid.
func (c Config) Validate() error {
	if c.Interval < time.Minute {
		return fmt.Errorf("interval must be at least 1 minute, got %v", c.Interval)
	}
	if c.RunTimeout < time.Second {
		return fmt.Errorf("run timeout must be at least 1 second, got %v", c.RunTimeout)
	}
	if c.ShutdownTimeout < time.Second {
		return fmt.Errorf("shutdown timeout must be at least 1 second, got %v", c.ShutdownTimeout)
	}
	return nil
}

// =============================================================================
// Worker
// =============================================================================

// Worker runs maintenance tasks on a fixed interval.
type Worker struct {
	config      Config
	users       service.UserService
	entitlement service.EntitlementService
	queries     *repository.Queries
	logger      *slog.Logger

	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// New creates a maintenance worker.
func New(config Config, users service.UserService, entitlement service.EntitlementService, queries *repository.Queries, logger *slog.Logger) (*Worker, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("worker config: %w", err)
	}
	return &Worker{
		config:      config,
		users:       users,
		entitlement: entitlement,
		queries:     queries,
		logger:      logger,
		done:        make(chan struct{}),
	}, nil
}

// Start launches the worker loop. The first run happens one interval after
// start, not immediately, so deploys don't stampede the database.
func (w *Worker) Start(ctx context.Context) {
	ctx, w.cancel = context.WithCancel(ctx)

	go func() {
		defer close(w.done)

		ticker := time.NewTicker(w.config.Interval)
		defer ticker.Stop()

		w.logger.Info("maintenance worker started", "interval", w.config.Interval)
		for {
			select {
			case <-ctx.Done():
				w.logger.Info("maintenance worker stopped")
				return
			case <-ticker.C:
				w.runOnce(ctx)
			}
		}
	}()
}

// Stop shuts the worker down, waiting up to ShutdownTimeout for an
// in-flight run.
func (w *Worker) Stop() {
	w.once.Do(func() {
		if w.cancel != nil {
			w.cancel()
		}
		select {
		case <-w.done:
		case <-time.After(w.config.ShutdownTimeout):
			w.logger.Warn("maintenance worker shutdown timed out")
		}
	})
}

// runOnce executes all maintenance tasks. Task failures are logged and do
// not abort the remaining tasks.
func (w *Worker) runOnce(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, w.config.RunTimeout)
	defer cancel()

	start := time.Now()
	status := "ok"

	if err := w.cleanupSessions(ctx); err != nil {
		status = "error"
	}
	if err := w.sweepAnonymousUsage(ctx); err != nil {
		status = "error"
	}
	if err := w.logUsageRollup(ctx); err != nil {
		status = "error"
	}

	metrics.WorkerRunsTotal.WithLabelValues(status).Inc()
	metrics.WorkerRunDuration.Observe(time.Since(start).Seconds())
}

func (w *Worker) cleanupSessions(ctx context.Context) error {
	deleted, err := w.users.DeleteExpiredSessions(ctx)
	if err != nil {
		w.logger.Error("session cleanup failed", "error", err)
		return err
	}
	if deleted > 0 {
		w.logger.Info("expired sessions deleted", "count", deleted)
	}
	return nil
}

func (w *Worker) sweepAnonymousUsage(ctx context.Context) error {
	removed, err := w.entitlement.SweepAnonymousDays(ctx)
	if err != nil {
		w.logger.Error("anonymous usage sweep failed", "error", err)
		return err
	}
	if removed > 0 {
		w.logger.Info("stale anonymous usage days removed", "count", removed)
	}
	return nil
}

// logUsageRollup emits one log line summarizing today's account generations
// per tier plus the AI spend over the last 24 hours. Operational visibility
// only; the ledger itself stays untouched.
func (w *Worker) logUsageRollup(ctx context.Context) error {
	day := domain.Today()

	counts, err := w.queries.CountUsageEventsByDay(ctx, day)
	if err != nil {
		w.logger.Error("usage rollup failed", "error", err, "day", day)
		return err
	}
	var total int64
	for _, n := range counts {
		total += n
	}

	costCents, err := w.queries.SumAICostCentsSince(ctx, time.Now().Add(-24*time.Hour))
	if err != nil {
		w.logger.Error("AI cost rollup failed", "error", err)
		return err
	}

	w.logger.Info("daily usage rollup",
		"day", day,
		"account_generations", total,
		"by_generator", counts,
		"ai_cost_cents_24h", costCents,
	)
	return nil
}
