package application

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/bnema/browserfarm-cli/internal/domain"
	"github.com/bnema/browserfarm-cli/internal/ports"
)

var (
	ErrAlreadyConnected = errors.New("connector already connected")
	ErrNotConnected     = errors.New("connector is not connected")
)

type ConnectorDeps struct {
	Pool     ports.WorkerPool
	Hub      ports.Hub
	Tunnel   ports.Tunnel
	Sessions ports.SessionRepository
	Clock    ports.Clock
	Logger   ports.Logger
	Observer ports.SessionObserver
}

// Connector is the entry point callers use: it owns the hub and tunnel
// lifecycle and exposes session start/stop and admission control.
type Connector struct {
	pool      ports.WorkerPool
	hub       ports.Hub
	tunnel    ports.Tunnel
	sessions  ports.SessionRepository
	clock     ports.Clock
	logger    ports.Logger
	manager   *SessionManager
	admission *AdmissionController

	mu        sync.Mutex
	connected bool
}

func NewConnector(deps ConnectorDeps) *Connector {
	if deps.Clock == nil {
		deps.Clock = ports.SystemClock{}
	}
	if deps.Logger == nil {
		deps.Logger = ports.NopLogger{}
	}
	if deps.Observer == nil {
		deps.Observer = ports.NopObserver{}
	}

	opener := NewSessionOpener(deps.Pool, deps.Hub, deps.Logger, deps.Observer)

	return &Connector{
		pool:      deps.Pool,
		hub:       deps.Hub,
		tunnel:    deps.Tunnel,
		sessions:  deps.Sessions,
		clock:     deps.Clock,
		logger:    deps.Logger.With("component", "connector"),
		manager:   NewSessionManager(opener, deps.Logger, deps.Observer),
		admission: NewAdmissionController(deps.Pool, deps.Logger, deps.Observer),
	}
}

func (c *Connector) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.connected {
		return ErrAlreadyConnected
	}

	if err := c.hub.Start(); err != nil {
		return fmt.Errorf("start hub: %w", err)
	}

	if c.tunnel != nil {
		if err := c.tunnel.Start(ctx); err != nil {
			if closeErr := c.hub.Close(); closeErr != nil {
				return fmt.Errorf("start tunnel and close hub: %w", errors.Join(err, closeErr))
			}
			return fmt.Errorf("start tunnel: %w", err)
		}
	}

	c.connected = true
	c.logger.Info("connected")
	return nil
}

func (c *Connector) Disconnect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.connected {
		return nil
	}
	c.connected = false

	var errs []error
	if c.tunnel != nil {
		if err := c.tunnel.Stop(ctx); err != nil {
			errs = append(errs, fmt.Errorf("stop tunnel: %w", err))
		}
	}
	if err := c.hub.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close hub: %w", err))
	}

	c.logger.Info("disconnected")
	return errors.Join(errs...)
}

func (c *Connector) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

func (c *Connector) StartBrowser(ctx context.Context, req StartRequest) (domain.Worker, error) {
	if !c.Connected() {
		return domain.Worker{}, ErrNotConnected
	}

	worker, err := c.manager.StartBrowser(ctx, req)
	if err != nil {
		return domain.Worker{}, err
	}

	if c.sessions != nil {
		record := domain.SessionRecord{
			WorkerID:   worker.ID,
			Browser:    req.Settings.Label(),
			URL:        req.URL,
			SessionURL: worker.SessionURL,
			Job:        req.Job,
			StartedAt:  c.clock.Now(),
		}
		if err := c.sessions.Save(ctx, record); err != nil {
			c.logger.Warn("record session", "worker_id", worker.ID, "error", err)
		}
	}

	return worker, nil
}

func (c *Connector) StopBrowser(ctx context.Context, id domain.WorkerID) (time.Duration, error) {
	elapsed, err := c.pool.TerminateWorker(ctx, id)
	if err != nil {
		return 0, fmt.Errorf("terminate worker %s: %w", id, err)
	}

	c.forget(ctx, id)
	return elapsed, nil
}

// StopAll terminates every recorded session and reports how many were stopped.
func (c *Connector) StopAll(ctx context.Context) (int, error) {
	records, err := c.Sessions(ctx)
	if err != nil {
		return 0, err
	}

	stopped := 0
	var errs []error
	for _, record := range records {
		if _, err := c.StopBrowser(ctx, record.WorkerID); err != nil {
			errs = append(errs, err)
			continue
		}
		stopped++
	}

	return stopped, errors.Join(errs...)
}

func (c *Connector) GetSessionURL(ctx context.Context, id domain.WorkerID) (string, error) {
	worker, err := c.pool.GetWorker(ctx, id)
	if err != nil {
		return "", fmt.Errorf("get worker %s: %w", id, err)
	}
	return worker.SessionURL, nil
}

func (c *Connector) Sessions(ctx context.Context) ([]domain.SessionRecord, error) {
	if c.sessions == nil {
		return nil, nil
	}

	records, err := c.sessions.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].StartedAt.Before(records[j].StartedAt)
	})
	return records, nil
}

func (c *Connector) Capacity(ctx context.Context) (domain.PoolCapacity, error) {
	return c.admission.Capacity(ctx)
}

func (c *Connector) FreeMachineCount(ctx context.Context) (int, error) {
	return c.admission.FreeMachineCount(ctx)
}

func (c *Connector) WaitForFreeMachines(ctx context.Context, required int, interval time.Duration, maxAttempts int) error {
	return c.admission.WaitForFreeMachines(ctx, required, interval, maxAttempts)
}

func (c *Connector) forget(ctx context.Context, id domain.WorkerID) {
	if c.sessions == nil {
		return
	}
	if err := c.sessions.Delete(ctx, id); err != nil && !errors.Is(err, domain.ErrSessionNotFound) {
		c.logger.Warn("forget session", "worker_id", id, "error", err)
	}
}
