package repository

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/pos-terminal-api/internal/domain/entity"
	domainRepo "github.com/sangkips/pos-terminal-api/internal/domain/repository"
)

type memorySessionRepository struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*entity.TerminalSession
}

// NewMemorySessionRepository creates an in-process terminal session store
func NewMemorySessionRepository() domainRepo.TerminalSessionRepository {
	return &memorySessionRepository{
		sessions: make(map[uuid.UUID]*entity.TerminalSession),
	}
}

func (r *memorySessionRepository) Create(ctx context.Context, session *entity.TerminalSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[session.ID] = session
	return nil
}

func (r *memorySessionRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.TerminalSession, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	session, ok := r.sessions[id]
	if !ok {
		return nil, domainRepo.ErrSessionNotFound
	}
	return session, nil
}

func (r *memorySessionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[id]; !ok {
		return domainRepo.ErrSessionNotFound
	}
	delete(r.sessions, id)
	return nil
}

func (r *memorySessionRepository) EvictIdle(ctx context.Context, ttl time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	evicted := 0
	for id, session := range r.sessions {
		// a locked session is serving a request and is not idle
		if !session.TryLock() {
			continue
		}
		idle := session.IsIdle(ttl, now)
		session.Unlock()
		if idle {
			delete(r.sessions, id)
			evicted++
		}
	}
	return evicted
}

func (r *memorySessionRepository) Count(ctx context.Context) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
