package ports

import (
	"context"
	"time"

	"github.com/bnema/browserfarm-cli/internal/domain"
)

// WorkerPool is the device-farm worker lifecycle and quota API.
type WorkerPool interface {
	CreateWorker(ctx context.Context, spec domain.WorkerSpec) (domain.WorkerID, error)
	GetWorker(ctx context.Context, id domain.WorkerID) (domain.Worker, error)
	ListWorkers(ctx context.Context) ([]domain.Worker, error)
	GetQuota(ctx context.Context) (domain.Quota, error)
	TerminateWorker(ctx context.Context, id domain.WorkerID) (time.Duration, error)
}
