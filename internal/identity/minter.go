// Package identity mints stable, collision-free session identifiers.
package identity

import (
	"encoding/binary"
	"sync/atomic"

	"github.com/google/uuid"
)

// DefaultNamespace is the fixed namespace UUID identifiers are minted
// against. Changing it changes every identifier the minter produces.
var DefaultNamespace = uuid.MustParse("8f14e45f-ceea-467e-adc1-0e1d6c6aaadb")

// Minter generates deterministic UUID-v5 identifiers from a namespace and a
// monotonically increasing counter (SHA-1 of namespace + counter bytes).
// Thread-safe: Next is backed by an atomic counter, no mutex required.
type Minter struct {
	namespace uuid.UUID
	counter   uint64
}

// NewMinter constructs a Minter seeded to start at 1. In the default
// in-memory deployment the counter always starts cold; a persistent
// deployment would seed it from durable storage before first use.
func NewMinter() *Minter {
	return &Minter{namespace: DefaultNamespace}
}

// NewMinterWithNamespace constructs a Minter against a caller-supplied
// namespace, useful for isolating identifier spaces across deployments.
func NewMinterWithNamespace(namespace uuid.UUID) *Minter {
	return &Minter{namespace: namespace}
}

// Next returns the next identifier in the sequence. It is safe to call
// concurrently from multiple goroutines.
func (m *Minter) Next() uuid.UUID {
	counter := atomic.AddUint64(&m.counter, 1)
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], counter)
	return uuid.NewSHA1(m.namespace, buf[:])
}
