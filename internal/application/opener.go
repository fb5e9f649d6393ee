package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bnema/browserfarm-cli/internal/domain"
	"github.com/bnema/browserfarm-cli/internal/ports"
)

const (
	DefaultOpeningTimeout = 60 * time.Second
	DefaultWorkingTimeout = 30 * time.Minute
	DefaultPollInterval   = 10 * time.Second
	DefaultPollAttempts   = 30

	terminateTimeout = 30 * time.Second
)

type OpenState int

const (
	StateCreating OpenState = iota
	StatePollingStatus
	StateAwaitingOpenConfirmation
	StateOpened
	StateTimedOut
	StateFailed
)

func (s OpenState) String() string {
	switch s {
	case StateCreating:
		return "CREATING"
	case StatePollingStatus:
		return "POLLING_STATUS"
	case StateAwaitingOpenConfirmation:
		return "AWAITING_OPEN_CONFIRMATION"
	case StateOpened:
		return "OPENED"
	case StateTimedOut:
		return "TIMED_OUT"
	case StateFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

type OpenRequest struct {
	Settings domain.BrowserSettings
	URL      string
	Job      domain.JobMeta
}

type OpenOptions struct {
	OpeningTimeout time.Duration
	WorkingTimeout time.Duration
	PollInterval   time.Duration
	PollAttempts   int
}

func (o OpenOptions) withDefaults() OpenOptions {
	if o.OpeningTimeout <= 0 {
		o.OpeningTimeout = DefaultOpeningTimeout
	}
	if o.WorkingTimeout <= 0 {
		o.WorkingTimeout = DefaultWorkingTimeout
	}
	if o.PollInterval <= 0 {
		o.PollInterval = DefaultPollInterval
	}
	if o.PollAttempts <= 0 {
		o.PollAttempts = DefaultPollAttempts
	}
	return o
}

// SessionOpener runs a single open attempt: register, create, poll and wait
// for the hub to confirm the page was reached.
type SessionOpener struct {
	pool       ports.WorkerPool
	correlator ports.OpenCorrelator
	logger     ports.Logger
	observer   ports.SessionObserver
}

func NewSessionOpener(pool ports.WorkerPool, correlator ports.OpenCorrelator, logger ports.Logger, observer ports.SessionObserver) *SessionOpener {
	if logger == nil {
		logger = ports.NopLogger{}
	}
	if observer == nil {
		observer = ports.NopObserver{}
	}

	return &SessionOpener{
		pool:       pool,
		correlator: correlator,
		logger:     logger.With("component", "session_opener"),
		observer:   observer,
	}
}

type pollResult struct {
	worker domain.Worker
	err    error
}

func (o *SessionOpener) Open(ctx context.Context, req OpenRequest, opts OpenOptions) (domain.Worker, error) {
	opts = opts.withDefaults()
	started := time.Now()

	pending, err := o.correlator.Register(domain.NewCorrelationID())
	if err != nil {
		return domain.Worker{}, fmt.Errorf("register open confirmation: %w", err)
	}
	defer pending.Cancel()

	log := o.logger.With("correlation_id", pending.ID(), "browser", req.Settings.Label())

	// The opening budget covers creation, so it starts right after registration.
	openTimer := time.NewTimer(opts.OpeningTimeout)
	defer openTimer.Stop()

	log.Debug("attempt state", "state", StateCreating)
	workerID, err := o.launch(ctx, pending, req, opts)
	if err != nil {
		o.observer.OpenAttempt(ports.AttemptFailed, time.Since(started))
		return domain.Worker{}, fmt.Errorf("launch worker: %w", err)
	}
	log = log.With("worker_id", workerID)

	pollCtx, cancelPoll := context.WithCancel(ctx)
	defer cancelPoll()

	polled := make(chan pollResult, 1)
	go func() {
		worker, err := o.waitForRunning(pollCtx, workerID, opts)
		polled <- pollResult{worker: worker, err: err}
	}()
	log.Debug("attempt state", "state", StatePollingStatus)

	var (
		opened    bool
		running   *domain.Worker
		timeout   = openTimer.C
		abandoned = pending.Abandoned()
	)
	for !opened || running == nil {
		select {
		case <-pending.Opened():
			opened = true
			openTimer.Stop()
			timeout = nil
			abandoned = nil
			log.Debug("attempt state", "state", StateAwaitingOpenConfirmation, "opened", true)

		case res := <-polled:
			polled = nil
			if res.err != nil {
				outcome := ports.AttemptFailed
				if errors.Is(res.err, domain.ErrPollingExhausted) {
					outcome = ports.AttemptPollingExhausted
				}
				o.observer.OpenAttempt(outcome, time.Since(started))
				log.Warn("worker never reached running", "state", StateFailed, "error", res.err)
				return domain.Worker{}, o.abandon(workerID, res.err)
			}
			worker := res.worker
			running = &worker
			log.Debug("attempt state", "state", StateAwaitingOpenConfirmation, "running", true)

		case <-timeout:
			cancelPoll()
			pending.Cancel()
			o.observer.OpenAttempt(ports.AttemptTimedOut, time.Since(started))
			log.Warn("opening timeout expired", "state", StateTimedOut, "timeout", opts.OpeningTimeout)
			return domain.Worker{}, o.abandon(workerID, domain.ErrOpeningTimeout)

		case <-abandoned:
			cancelPoll()
			o.observer.OpenAttempt(ports.AttemptFailed, time.Since(started))
			log.Warn("hub closed before the page opened", "state", StateFailed)
			return domain.Worker{}, o.abandon(workerID, domain.ErrHubClosed)

		case <-ctx.Done():
			o.observer.OpenAttempt(ports.AttemptFailed, time.Since(started))
			return domain.Worker{}, o.abandon(workerID, ctx.Err())
		}
	}

	elapsed := time.Since(started)
	o.observer.OpenAttempt(ports.AttemptOpened, elapsed)
	log.Info("browser opened", "state", StateOpened, "elapsed", elapsed, "session_url", running.SessionURL)
	return *running, nil
}

// launch only accepts a registered handle, so the hub always knows the id
// before the remote browser can reach it.
func (o *SessionOpener) launch(ctx context.Context, pending ports.PendingOpen, req OpenRequest, opts OpenOptions) (domain.WorkerID, error) {
	return o.pool.CreateWorker(ctx, domain.WorkerSpec{
		Settings:       req.Settings,
		URL:            o.correlator.OpenURL(pending.ID(), req.URL),
		Job:            req.Job,
		WorkingTimeout: opts.WorkingTimeout,
	})
}

func (o *SessionOpener) waitForRunning(ctx context.Context, id domain.WorkerID, opts OpenOptions) (domain.Worker, error) {
	for attempt := 1; attempt <= opts.PollAttempts; attempt++ {
		worker, err := o.pool.GetWorker(ctx, id)
		if err != nil {
			return domain.Worker{}, fmt.Errorf("get worker status: %w", err)
		}
		if worker.Status.IsRunning() {
			if worker.ID == "" {
				worker.ID = id
			}
			return worker, nil
		}
		if attempt == opts.PollAttempts {
			break
		}

		timer := time.NewTimer(opts.PollInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return domain.Worker{}, ctx.Err()
		case <-timer.C:
		}
	}

	return domain.Worker{}, fmt.Errorf("%w after %d checks", domain.ErrPollingExhausted, opts.PollAttempts)
}

// abandon terminates a half-open worker and returns cause, joined with any
// termination failure.
func (o *SessionOpener) abandon(id domain.WorkerID, cause error) error {
	ctx, cancel := context.WithTimeout(context.Background(), terminateTimeout)
	defer cancel()

	_, err := o.pool.TerminateWorker(ctx, id)
	o.observer.WorkerTerminated(err)
	if err != nil {
		o.logger.Error("terminate half-open worker", "worker_id", id, "error", err)
		return errors.Join(cause, fmt.Errorf("terminate worker %s: %w", id, err))
	}
	return cause
}
