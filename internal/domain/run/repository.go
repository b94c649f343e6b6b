package run

import (
	"context"

	"github.com/google/uuid"
)

// Repository is the run ledger.
type Repository interface {
	Start(ctx context.Context, r *Run) error
	Finish(ctx context.Context, r *Run) error
	Get(ctx context.Context, id uuid.UUID) (*Run, error)
	ListRecent(ctx context.Context, limit int) ([]*Run, error)
}
