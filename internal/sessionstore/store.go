// Package sessionstore implements the concurrent session-id → Session
// mapping SessionManager builds on, with TTL-based reclamation.
package sessionstore

import (
	"time"

	"github.com/optionchain/simulator/internal/models"
)

// Store is the contract every backing implementation must satisfy. The
// in-memory MemoryStore is the reference implementation; any alternative
// (e.g. a remote key-value store) must preserve the same semantics,
// including atomic insert-or-replace on Save.
type Store interface {
	// Get returns a clone of the session, or a *models.SessionError with
	// Kind == models.KindNotFound if no such id exists.
	Get(id string) (*models.Session, error)
	// Save inserts or atomically replaces the session record. If the caller
	// left UpdatedAt zero, Save stamps it to now.
	Save(s *models.Session) error
	// Delete removes the session, reporting whether it was present.
	Delete(id string) (bool, error)
	// Cleanup removes every session that is either terminal
	// (Completed/Error) or has been idle past ttl, returning the count
	// reclaimed.
	Cleanup(now time.Time, ttl time.Duration) (int, error)
	// ActiveIDs lists every id currently held, for PathCache.Reap.
	ActiveIDs() []string
}
