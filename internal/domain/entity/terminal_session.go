package entity

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sangkips/pos-terminal-api/pkg/money"
)

// TerminalSession is the order being built on one terminal: its current
// selection, its cart and the observation pending for the next settlement.
type TerminalSession struct {
	ID           uuid.UUID
	OperatorID   uuid.UUID
	Selection    SelectionState
	Cart         *CartLedger
	Observation  *string
	CreatedAt    time.Time
	LastActivity time.Time

	mu sync.Mutex
}

// NewTerminalSession creates a session with an empty selection and cart
func NewTerminalSession(operatorID uuid.UUID) *TerminalSession {
	now := time.Now()
	return &TerminalSession{
		ID:           uuid.New(),
		OperatorID:   operatorID,
		Cart:         NewCartLedger(),
		CreatedAt:    now,
		LastActivity: now,
	}
}

// Lock serializes mutations of the session.
func (s *TerminalSession) Lock() {
	s.mu.Lock()
}

// Unlock releases the session.
func (s *TerminalSession) Unlock() {
	s.mu.Unlock()
}

// Touch records activity. Callers must hold the lock.
func (s *TerminalSession) Touch() {
	s.LastActivity = time.Now()
}

// TryLock acquires the session lock without waiting.
func (s *TerminalSession) TryLock() bool {
	return s.mu.TryLock()
}

// IsIdle reports whether the session has been inactive for longer than ttl.
// Callers must hold the lock.
func (s *TerminalSession) IsIdle(ttl time.Duration, now time.Time) bool {
	return now.Sub(s.LastActivity) > ttl
}

// Reset clears selection, cart and observation after a confirmed settlement.
func (s *TerminalSession) Reset() {
	s.Selection = SelectionState{}
	s.Cart.Clear()
	s.Observation = nil
}

// TerminalSnapshot is a read-only view of a session for API responses.
type TerminalSnapshot struct {
	ID          uuid.UUID      `json:"id"`
	OperatorID  uuid.UUID      `json:"operator_id"`
	Stage       string         `json:"stage"`
	Selection   SelectionState `json:"selection"`
	Items       []CartItem     `json:"items"`
	Total       json.Number    `json:"total"`
	Observation *string        `json:"observation"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// Snapshot copies the session state. Callers must hold the lock.
func (s *TerminalSession) Snapshot() TerminalSnapshot {
	return TerminalSnapshot{
		ID:          s.ID,
		OperatorID:  s.OperatorID,
		Stage:       s.Selection.Stage().String(),
		Selection:   s.Selection,
		Items:       s.Cart.Items(),
		Total:       money.Number(s.Cart.Total()),
		Observation: s.Observation,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.LastActivity,
	}
}
