package repository

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/pos-terminal-api/internal/domain/entity"
	domainRepo "github.com/sangkips/pos-terminal-api/internal/domain/repository"
)

type idempotencyEntryKey struct {
	operatorID uuid.UUID
	key        string
}

type memoryIdempotencyRepository struct {
	mu      sync.RWMutex
	entries map[idempotencyEntryKey]entity.IdempotencyKey
}

// NewMemoryIdempotencyRepository creates an in-process idempotency store,
// used when no database is configured.
func NewMemoryIdempotencyRepository() domainRepo.IdempotencyRepository {
	return &memoryIdempotencyRepository{
		entries: make(map[idempotencyEntryKey]entity.IdempotencyKey),
	}
}

func (r *memoryIdempotencyRepository) GetByKey(ctx context.Context, key string, operatorID uuid.UUID) (*entity.IdempotencyKey, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ikey, ok := r.entries[idempotencyEntryKey{operatorID: operatorID, key: key}]
	if !ok {
		return nil, nil
	}
	return &ikey, nil
}

func (r *memoryIdempotencyRepository) Create(ctx context.Context, ikey *entity.IdempotencyKey) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := idempotencyEntryKey{operatorID: ikey.OperatorID, key: ikey.Key}
	if existing, ok := r.entries[k]; ok && !existing.IsExpired() {
		return nil
	}
	if ikey.ID == uuid.Nil {
		ikey.ID = uuid.New()
	}
	if ikey.CreatedAt.IsZero() {
		ikey.CreatedAt = time.Now()
	}
	r.entries[k] = *ikey
	return nil
}

func (r *memoryIdempotencyRepository) DeleteExpired(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for k, v := range r.entries {
		if v.IsExpired() {
			delete(r.entries, k)
		}
	}
	return nil
}
