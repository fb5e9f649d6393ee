package ports

import "github.com/bnema/browserfarm-cli/internal/domain"

// PendingOpen is a one-shot wait handle for a single correlation id.
type PendingOpen interface {
	ID() domain.CorrelationID
	// Opened is closed once the remote browser hits the hub with this id.
	Opened() <-chan struct{}
	// Abandoned is closed when the hub shuts down before the id was opened.
	Abandoned() <-chan struct{}
	// Cancel deregisters the handle. Safe to call more than once.
	Cancel()
}

type OpenCorrelator interface {
	Register(id domain.CorrelationID) (PendingOpen, error)
	OpenURL(id domain.CorrelationID, target string) string
}

type Hub interface {
	OpenCorrelator
	Start() error
	Close() error
}
