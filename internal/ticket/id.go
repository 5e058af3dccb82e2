package ticket

import (
	"sync"

	"github.com/google/uuid"
)

// IDGenerator produces ticket identifiers.
type IDGenerator interface {
	Generate() string
}

// UUIDGenerator generates random version 4 UUIDs.
//
// Format: "550e8400-e29b-41d4-a716-446655440000" (36 characters).
// Collisions are not checked; with 122 random bits the probability is
// negligible for any realistic event size.
//
// Thread-safety: UUIDGenerator is stateless and safe for concurrent use.
type UUIDGenerator struct{}

// Generate returns a new random identifier.
//
// Panics if the system random source fails.
func (UUIDGenerator) Generate() string {
	return uuid.Must(uuid.NewRandom()).String()
}

// FixedGenerator returns predetermined identifiers, in order.
// Used by tests that need stable artifact paths and store keys.
type FixedGenerator struct {
	mu  sync.Mutex
	ids []string
	idx int
}

// NewFixedGenerator creates a generator that returns ids in order.
func NewFixedGenerator(ids ...string) *FixedGenerator {
	return &FixedGenerator{ids: ids}
}

// Generate returns the next predetermined identifier.
//
// Panics when exhausted: the test issued more tickets than it planned for.
func (g *FixedGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.idx >= len(g.ids) {
		panic("FixedGenerator: all ids exhausted")
	}
	id := g.ids[g.idx]
	g.idx++
	return id
}

// ValidID reports whether s is a canonical UUID string.
// The verification endpoint uses this to reject garbage before touching the store.
func ValidID(s string) bool {
	if len(s) != 36 {
		return false
	}
	_, err := uuid.Parse(s)
	return err == nil
}
