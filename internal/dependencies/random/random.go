// Package random draws the server-side dice rolls and room codes.
package random

import (
	crand "crypto/rand"
	mrand "math/rand/v2"
	"strings"
	"sync"
)

// Random is the source of every value the game leaves to chance
type Random interface {
	// Intn returns a value in [0, n), or 0 when n <= 0
	Intn(n int) int

	// String draws length characters from alphabet
	String(length int, alphabet string) string
}

// Source is a ChaCha8 generator seeded from the operating system. It is safe
// for concurrent use.
type Source struct {
	mu  sync.Mutex
	rng *mrand.Rand
}

var _ Random = (*Source)(nil)

// New creates a Source with a fresh random seed
func New() *Source {
	var seed [32]byte
	_, _ = crand.Read(seed[:])
	return NewSeeded(seed)
}

// NewSeeded creates a Source whose sequence is fixed by seed
func NewSeeded(seed [32]byte) *Source {
	return &Source{rng: mrand.New(mrand.NewChaCha8(seed))}
}

func (s *Source) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.IntN(n)
}

func (s *Source) String(length int, alphabet string) string {
	if length <= 0 || alphabet == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(length)

	s.mu.Lock()
	defer s.mu.Unlock()
	for range length {
		b.WriteByte(alphabet[s.rng.IntN(len(alphabet))])
	}
	return b.String()
}
