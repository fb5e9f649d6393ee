package application

import (
	"context"
	"fmt"
	"time"

	"github.com/bnema/browserfarm-cli/internal/domain"
	"github.com/bnema/browserfarm-cli/internal/ports"
	"github.com/sourcegraph/conc/pool"
)

const (
	DefaultAdmissionInterval    = 30 * time.Second
	DefaultAdmissionMaxAttempts = 20
)

// AdmissionController gates new session starts on free pool capacity.
type AdmissionController struct {
	pool     ports.WorkerPool
	logger   ports.Logger
	observer ports.SessionObserver
}

func NewAdmissionController(workers ports.WorkerPool, logger ports.Logger, observer ports.SessionObserver) *AdmissionController {
	if logger == nil {
		logger = ports.NopLogger{}
	}
	if observer == nil {
		observer = ports.NopObserver{}
	}

	return &AdmissionController{pool: workers, logger: logger.With("component", "admission"), observer: observer}
}

// Capacity reads quota and active workers concurrently. Nothing is cached.
func (a *AdmissionController) Capacity(ctx context.Context) (domain.PoolCapacity, error) {
	var (
		quota   domain.Quota
		workers []domain.Worker
	)

	p := pool.New().WithErrors().WithContext(ctx).WithCancelOnError().WithFirstError()
	p.Go(func(ctx context.Context) error {
		var err error
		quota, err = a.pool.GetQuota(ctx)
		if err != nil {
			return fmt.Errorf("get quota: %w", err)
		}
		return nil
	})
	p.Go(func(ctx context.Context) error {
		var err error
		workers, err = a.pool.ListWorkers(ctx)
		if err != nil {
			return fmt.Errorf("list workers: %w", err)
		}
		return nil
	})
	if err := p.Wait(); err != nil {
		return domain.PoolCapacity{}, err
	}

	return domain.PoolCapacity{MaxAllowed: quota.MaxSessions, ActiveCount: len(workers)}, nil
}

func (a *AdmissionController) FreeMachineCount(ctx context.Context) (int, error) {
	capacity, err := a.Capacity(ctx)
	if err != nil {
		return 0, err
	}

	free := capacity.Free()
	a.observer.FreeMachines(free)
	return free, nil
}

// WaitForFreeMachines blocks until required machines are free or maxAttempts
// checks have failed. Query errors end the wait immediately.
func (a *AdmissionController) WaitForFreeMachines(ctx context.Context, required int, interval time.Duration, maxAttempts int) error {
	if required <= 0 {
		return nil
	}
	if interval <= 0 {
		interval = DefaultAdmissionInterval
	}
	if maxAttempts <= 0 {
		maxAttempts = DefaultAdmissionMaxAttempts
	}

	free := 0
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		var err error
		free, err = a.FreeMachineCount(ctx)
		if err != nil {
			return err
		}
		if free >= required {
			return nil
		}

		a.logger.Info("not enough free machines", "required", required, "free", free, "attempt", attempt, "max_attempts", maxAttempts)
		if attempt == maxAttempts {
			break
		}

		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	return fmt.Errorf("%w: need %d, %d free after %d checks", domain.ErrCapacityUnavailable, required, free, maxAttempts)
}
