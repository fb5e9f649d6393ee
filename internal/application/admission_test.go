package application

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bnema/browserfarm-cli/internal/domain"
	"github.com/bnema/browserfarm-cli/internal/ports/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runningWorkers(n int) []domain.Worker {
	workers := make([]domain.Worker, n)
	for i := range workers {
		workers[i] = domain.Worker{ID: domain.WorkerID(string(rune('a' + i))), Status: domain.WorkerStatusRunning}
	}
	return workers
}

func TestAdmissionFreeMachineCount(t *testing.T) {
	t.Parallel()

	pool := mocks.NewMockWorkerPool(t)
	pool.EXPECT().GetQuota(mockAnyContext()).Return(domain.Quota{MaxSessions: 5}, nil).Once()
	pool.EXPECT().ListWorkers(mockAnyContext()).Return(runningWorkers(3), nil).Once()

	free, err := NewAdmissionController(pool, nil, nil).FreeMachineCount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, free)
}

func TestAdmissionFreeMachineCountOverQuota(t *testing.T) {
	t.Parallel()

	pool := mocks.NewMockWorkerPool(t)
	pool.EXPECT().GetQuota(mockAnyContext()).Return(domain.Quota{MaxSessions: 2}, nil).Once()
	pool.EXPECT().ListWorkers(mockAnyContext()).Return(runningWorkers(4), nil).Once()

	free, err := NewAdmissionController(pool, nil, nil).FreeMachineCount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, -2, free)
}

func TestAdmissionWaitReturnsImmediatelyWhenFree(t *testing.T) {
	t.Parallel()

	pool := mocks.NewMockWorkerPool(t)
	pool.EXPECT().GetQuota(mockAnyContext()).Return(domain.Quota{MaxSessions: 5}, nil).Once()
	pool.EXPECT().ListWorkers(mockAnyContext()).Return(runningWorkers(1), nil).Once()

	started := time.Now()
	err := NewAdmissionController(pool, nil, nil).WaitForFreeMachines(context.Background(), 2, time.Hour, 20)
	require.NoError(t, err)
	assert.Less(t, time.Since(started), time.Second)
}

func TestAdmissionWaitSucceedsOnceWorkersFinish(t *testing.T) {
	t.Parallel()

	pool := mocks.NewMockWorkerPool(t)
	var checks atomic.Int32
	pool.EXPECT().GetQuota(mockAnyContext()).Return(domain.Quota{MaxSessions: 5}, nil)
	pool.EXPECT().ListWorkers(mockAnyContext()).
		RunAndReturn(func(context.Context) ([]domain.Worker, error) {
			if checks.Add(1) == 1 {
				return runningWorkers(4), nil
			}
			return runningWorkers(2), nil
		})

	err := NewAdmissionController(pool, nil, nil).WaitForFreeMachines(context.Background(), 2, 10*time.Millisecond, 20)
	require.NoError(t, err)
	assert.Equal(t, int32(2), checks.Load())
}

func TestAdmissionWaitExhaustsAttempts(t *testing.T) {
	t.Parallel()

	pool := mocks.NewMockWorkerPool(t)
	pool.EXPECT().GetQuota(mockAnyContext()).Return(domain.Quota{MaxSessions: 5}, nil).Times(3)
	pool.EXPECT().ListWorkers(mockAnyContext()).Return(runningWorkers(5), nil).Times(3)

	err := NewAdmissionController(pool, nil, nil).WaitForFreeMachines(context.Background(), 1, time.Millisecond, 3)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrCapacityUnavailable)
	assert.Contains(t, err.Error(), "need 1, 0 free after 3 checks")
}

func TestAdmissionWaitWithNothingRequired(t *testing.T) {
	t.Parallel()

	pool := mocks.NewMockWorkerPool(t)

	err := NewAdmissionController(pool, nil, nil).WaitForFreeMachines(context.Background(), 0, time.Second, 3)
	require.NoError(t, err)
}

func TestAdmissionWaitSurfacesQueryErrors(t *testing.T) {
	t.Parallel()

	pool := mocks.NewMockWorkerPool(t)
	apiErr := &domain.RemoteAPIError{Op: "list workers", StatusCode: 502}
	pool.EXPECT().GetQuota(mockAnyContext()).Return(domain.Quota{MaxSessions: 5}, nil).Maybe()
	pool.EXPECT().ListWorkers(mockAnyContext()).Return(nil, apiErr).Once()

	err := NewAdmissionController(pool, nil, nil).WaitForFreeMachines(context.Background(), 1, time.Hour, 20)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrRemoteAPI)
	assert.Contains(t, err.Error(), "list workers")
}

func TestAdmissionWaitHonorsContext(t *testing.T) {
	t.Parallel()

	pool := mocks.NewMockWorkerPool(t)
	pool.EXPECT().GetQuota(mockAnyContext()).Return(domain.Quota{MaxSessions: 1}, nil).Once()
	pool.EXPECT().ListWorkers(mockAnyContext()).Return(runningWorkers(1), nil).Once()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := NewAdmissionController(pool, nil, nil).WaitForFreeMachines(ctx, 1, time.Hour, 20)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
