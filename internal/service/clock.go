package service

import (
	"crypto/rand"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

func SystemClock() Clock { return systemClock{} }

type IDGenerator interface {
	NewID() (string, error)
}

// ulidGenerator yields lexically sortable ids, monotonic within the same millisecond.
type ulidGenerator struct {
	mu      sync.Mutex
	entropy io.Reader
	clock   Clock
}

func NewULIDGenerator(clock Clock) IDGenerator {
	return &ulidGenerator{entropy: ulid.Monotonic(rand.Reader, 0), clock: clock}
}

// NewID fails when the entropy source errors or the monotonic sequence overflows within one millisecond.
func (g *ulidGenerator) NewID() (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	id, err := ulid.New(ulid.Timestamp(g.clock.Now()), g.entropy)
	if err != nil {
		return "", fmt.Errorf("generate event id: %w", err)
	}
	return id.String(), nil
}
