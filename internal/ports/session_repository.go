package ports

import (
	"context"

	"github.com/bnema/browserfarm-cli/internal/domain"
)

type SessionRepository interface {
	GetByID(ctx context.Context, id domain.WorkerID) (domain.SessionRecord, error)
	List(ctx context.Context) ([]domain.SessionRecord, error)
	Save(ctx context.Context, record domain.SessionRecord) error
	Delete(ctx context.Context, id domain.WorkerID) error
}
