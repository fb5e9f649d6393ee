package ports

import "time"

type AttemptOutcome string

const (
	AttemptOpened           AttemptOutcome = "opened"
	AttemptTimedOut         AttemptOutcome = "timed_out"
	AttemptPollingExhausted AttemptOutcome = "polling_exhausted"
	AttemptFailed           AttemptOutcome = "failed"
)

// SessionObserver receives lifecycle signals for metrics.
type SessionObserver interface {
	OpenAttempt(outcome AttemptOutcome, elapsed time.Duration)
	BrowserStart(ok bool)
	WorkerTerminated(err error)
	FreeMachines(free int)
}

type NopObserver struct{}

func (NopObserver) OpenAttempt(AttemptOutcome, time.Duration) {}
func (NopObserver) BrowserStart(bool)                         {}
func (NopObserver) WorkerTerminated(error)                    {}
func (NopObserver) FreeMachines(int)                          {}

type HubObserver interface {
	Notification(delivered bool)
	OpenConnections(n int)
}

func (NopObserver) Notification(bool) {}

func (NopObserver) OpenConnections(int) {}
