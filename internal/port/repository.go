package port

import (
	"context"

	"github.com/google/uuid"

	"clarabill/internal/domain"
)

// ParseResultRepository persists final parse payloads. Optional: the pipeline
// produces payloads without it and callers opt in via configuration.
type ParseResultRepository interface {
	Create(ctx context.Context, rec *domain.ParseRecord) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.ParseRecord, error)
	List(ctx context.Context, limit, offset int) ([]domain.ParseRecord, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
