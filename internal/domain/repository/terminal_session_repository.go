package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/pos-terminal-api/internal/domain/entity"
)

// ErrSessionNotFound is returned for unknown or evicted sessions
var ErrSessionNotFound = errors.New("terminal session not found")

// TerminalSessionRepository keeps the live terminal sessions.
type TerminalSessionRepository interface {
	Create(ctx context.Context, session *entity.TerminalSession) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.TerminalSession, error)
	Delete(ctx context.Context, id uuid.UUID) error
	// EvictIdle removes sessions inactive for longer than ttl and returns how
	// many were removed. Sessions busy with a request are skipped.
	EvictIdle(ctx context.Context, ttl time.Duration) int
	Count(ctx context.Context) int
}
