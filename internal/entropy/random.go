// Package entropy provides the uniform random sources behind every hidden
// roll: work selection, the degrade tick, the assessment roll and the
// lateral-door roll. Callers depend on Source so tests can pin outcomes.
package entropy

import (
	"crypto/rand"
	"encoding/binary"
	"log/slog"
	mrand "math/rand"
	"sync"
)

// Source yields independent uniform draws in [0, 1).
type Source interface {
	Float() float64
}

const (
	poolRefillSize = 100
	poolLowWater   = 10
)

// Pool is the default unseeded source. It draws from crypto/rand in
// batches and hands values out from a local pool.
type Pool struct {
	mu   sync.Mutex
	pool []float64
}

// NewPool creates an empty crypto-backed pool. The first Float call fills it.
func NewPool() *Pool {
	return &Pool{}
}

// Float returns a random float64 in [0, 1), refilling the pool when low.
func (p *Pool) Float() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.pool) < poolLowWater {
		p.refill()
	}

	if len(p.pool) == 0 {
		return cryptoRandFloat()
	}

	val := p.pool[0]
	p.pool = p.pool[1:]
	return val
}

func (p *Pool) refill() {
	buf := make([]byte, 8*poolRefillSize)
	if _, err := rand.Read(buf); err != nil {
		slog.Debug("entropy pool refill failed", "error", err)
		return
	}
	for i := 0; i < poolRefillSize; i++ {
		n := binary.LittleEndian.Uint64(buf[i*8:]) >> 11
		p.pool = append(p.pool, float64(n)/float64(1<<53))
	}
}

// cryptoRandFloat generates a single random float64 using crypto/rand.
func cryptoRandFloat() float64 {
	var buf [8]byte
	_, err := rand.Read(buf[:])
	if err != nil {
		// This should never happen but return 0.5 as a safe default.
		return 0.5
	}
	// Use only 53 bits for a uniform float64 in [0, 1).
	n := binary.LittleEndian.Uint64(buf[:]) >> 11
	return float64(n) / float64(1<<53)
}

// Seeded is a reproducible source for replaying a run or a batch of
// simulated runs.
type Seeded struct {
	mu  sync.Mutex
	rng *mrand.Rand
}

// NewSeeded creates a deterministic source from seed.
func NewSeeded(seed int64) *Seeded {
	return &Seeded{rng: mrand.New(mrand.NewSource(seed))}
}

// Float returns the next value of the seeded sequence.
func (s *Seeded) Float() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Float64()
}

// Fixed always returns the same value. Useful to force every gate open
// (0.0) or shut (0.99).
type Fixed float64

// Float returns f.
func (f Fixed) Float() float64 { return float64(f) }

// Sequence replays Values in order and then repeats the last one. It is
// safe for concurrent use; Values must not change after the first draw.
type Sequence struct {
	Values []float64

	mu   sync.Mutex
	next int
}

// Float returns the next queued value.
func (s *Sequence) Float() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.Values) == 0 {
		return 0
	}
	if s.next >= len(s.Values) {
		return s.Values[len(s.Values)-1]
	}
	v := s.Values[s.next]
	s.next++
	return v
}

// Drawn reports how many queued values have been consumed.
func (s *Sequence) Drawn() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.next
}

// New returns a Seeded source when seed is non-zero and the crypto pool
// otherwise.
func New(seed int64) Source {
	if seed != 0 {
		return NewSeeded(seed)
	}
	return NewPool()
}

// RollD20 rolls the hidden d20. Nothing branches on it yet; it is kept so
// the draw order of a run matches the one future arcs will rely on.
func RollD20(src Source) int {
	n := int(src.Float()*20) + 1
	if n > 20 {
		n = 20
	}
	return n
}
