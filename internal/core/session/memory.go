package session

import (
	"fmt"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/voxrag/voxrag/internal/core/domain"
)

const (
	DefaultMaxTurns = 10
	DefaultTTL      = 30 * time.Minute
)

type entry struct {
	mu       sync.Mutex
	inFlight bool
	turns    []domain.ConversationTurn
}

// Memory keeps per-session dialogue history in process memory. Sessions
// expire after a period of inactivity and each session holds at most
// maxTurns turns, oldest evicted first.
type Memory struct {
	mu       sync.Mutex
	cache    *gocache.Cache
	maxTurns int
}

func NewMemory(maxTurns int, ttl time.Duration) *Memory {
	if maxTurns <= 0 {
		maxTurns = DefaultMaxTurns
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Memory{
		cache:    gocache.New(ttl, ttl/2),
		maxTurns: maxTurns,
	}
}

// Begin marks the session as processing a query. A second Begin for the
// same session before release fails with domain.ErrSessionContention.
func (m *Memory) Begin(sessionID string) (func(), error) {
	e := m.entry(sessionID)
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.inFlight {
		return nil, fmt.Errorf("session %s: %w", sessionID, domain.ErrSessionContention)
	}
	e.inFlight = true
	return func() {
		e.mu.Lock()
		e.inFlight = false
		e.mu.Unlock()
	}, nil
}

func (m *Memory) History(sessionID string) []domain.ConversationTurn {
	m.mu.Lock()
	raw, ok := m.cache.Get(sessionID)
	m.mu.Unlock()
	if !ok {
		return nil
	}
	e := raw.(*entry)

	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]domain.ConversationTurn, len(e.turns))
	copy(out, e.turns)
	return out
}

func (m *Memory) Append(sessionID string, turn domain.ConversationTurn) {
	e := m.entry(sessionID)
	e.mu.Lock()
	e.turns = append(e.turns, turn)
	if len(e.turns) > m.maxTurns {
		e.turns = e.turns[len(e.turns)-m.maxTurns:]
	}
	e.mu.Unlock()
}

// entry returns the live session entry, creating it when absent and
// sliding its expiry on every touch.
func (m *Memory) entry(sessionID string) *entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	if raw, ok := m.cache.Get(sessionID); ok {
		e := raw.(*entry)
		m.cache.SetDefault(sessionID, e)
		return e
	}
	e := &entry{}
	m.cache.SetDefault(sessionID, e)
	return e
}
