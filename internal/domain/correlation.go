package domain

import "github.com/google/uuid"

// CorrelationID ties an inbound hub request to the open attempt waiting for it.
type CorrelationID string

func NewCorrelationID() CorrelationID {
	return CorrelationID(uuid.NewString())
}
