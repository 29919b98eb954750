package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/sangkips/pos-terminal-api/internal/domain/entity"
)

// IdempotencyRepository defines the interface for idempotency key operations
type IdempotencyRepository interface {
	// GetByKey retrieves a stored response by key for one operator. It returns
	// nil, nil when the key is unknown.
	GetByKey(ctx context.Context, key string, operatorID uuid.UUID) (*entity.IdempotencyKey, error)
	// Create stores a processed response
	Create(ctx context.Context, ikey *entity.IdempotencyKey) error
	// DeleteExpired removes expired keys
	DeleteExpired(ctx context.Context) error
}
