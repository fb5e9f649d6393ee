package application

import (
	"context"
	"fmt"
	"strings"

	"github.com/bnema/browserfarm-cli/internal/domain"
	"github.com/bnema/browserfarm-cli/internal/ports"
)

const DefaultMaxAttempts = 3

type StartOptions struct {
	MaxAttempts int
	OpenOptions
}

type StartRequest struct {
	Settings domain.BrowserSettings
	URL      string
	Job      domain.JobMeta
	Options  StartOptions
}

func (r StartRequest) Validate() error {
	if err := r.Settings.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(r.URL) == "" {
		return fmt.Errorf("url is required")
	}
	return nil
}

// SessionManager retries open attempts. It is the only retry boundary for
// browser starts.
type SessionManager struct {
	opener   *SessionOpener
	logger   ports.Logger
	observer ports.SessionObserver
}

func NewSessionManager(opener *SessionOpener, logger ports.Logger, observer ports.SessionObserver) *SessionManager {
	if logger == nil {
		logger = ports.NopLogger{}
	}
	if observer == nil {
		observer = ports.NopObserver{}
	}

	return &SessionManager{opener: opener, logger: logger.With("component", "session_manager"), observer: observer}
}

func (m *SessionManager) StartBrowser(ctx context.Context, req StartRequest) (domain.Worker, error) {
	if err := req.Validate(); err != nil {
		return domain.Worker{}, err
	}

	maxAttempts := req.Options.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}

	browser := req.Settings.Label()
	openReq := OpenRequest{Settings: req.Settings, URL: req.URL, Job: req.Job}

	var (
		lastErr  error
		attempts int
	)
	for attempts < maxAttempts {
		attempts++

		worker, err := m.opener.Open(ctx, openReq, req.Options.OpenOptions)
		if err == nil {
			m.observer.BrowserStart(true)
			return worker, nil
		}

		lastErr = err
		m.logger.Warn("browser start attempt failed", "browser", browser, "attempt", attempts, "max_attempts", maxAttempts, "error", err)
		if ctx.Err() != nil {
			break
		}
	}

	m.observer.BrowserStart(false)
	return domain.Worker{}, &domain.BrowserStartFailedError{Browser: browser, Attempts: attempts, Err: lastErr}
}
