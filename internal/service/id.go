package service

import (
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// ID strategies accepted by NewIDGenerator.
const (
	IDStrategyTimestamp = "timestamp"
	IDStrategyULID      = "ulid"
)

// IDGenerator produces identifiers for new entries.
// Every generated id must be numeric-like so the router can address it.
type IDGenerator interface {
	NewID() string
}

// NewIDGenerator returns the generator for the named strategy.
func NewIDGenerator(strategy string) (IDGenerator, error) {
	switch strategy {
	case "", IDStrategyTimestamp:
		return NewTimestampGenerator(), nil
	case IDStrategyULID:
		return ULIDGenerator{}, nil
	default:
		return nil, fmt.Errorf("unknown id strategy %q", strategy)
	}
}

// TimestampGenerator renders the current time as "<unix seconds>.<nanoseconds>".
// Values are strictly increasing within one generator.
type TimestampGenerator struct {
	mu   sync.Mutex
	last int64
	now  func() time.Time
}

// NewTimestampGenerator creates a generator backed by the wall clock.
func NewTimestampGenerator() *TimestampGenerator {
	return &TimestampGenerator{now: time.Now}
}

// NewID returns the next timestamp id.
func (g *TimestampGenerator) NewID() string {
	g.mu.Lock()
	n := g.now().UnixNano()
	if n <= g.last {
		n = g.last + 1
	}
	g.last = n
	g.mu.Unlock()

	return fmt.Sprintf("%d.%09d", n/int64(time.Second), n%int64(time.Second))
}

// ULIDGenerator renders a monotonic ULID as its unsigned 128-bit decimal value.
type ULIDGenerator struct{}

// NewID returns the next ULID-derived id.
func (ULIDGenerator) NewID() string {
	id := ulid.Make()
	return new(big.Int).SetBytes(id[:]).String()
}
