package memory

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Role identifies which side of the conversation produced a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is a single conversational message in a user's history.
type Turn struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

type record struct {
	turns        []Turn
	lastActiveAt time.Time
}

// Store keeps bounded per-user conversation history in process memory.
// History older than the idle timeout is discarded lazily on next access;
// idle records are overwritten with an empty record, never deleted, so the
// map is bounded by the number of distinct users seen.
type Store struct {
	mu          sync.Mutex
	records     map[string]*record
	maxMessages int
	idleTimeout time.Duration
	now         func() time.Time
}

func NewStore(maxMessages int, idleTimeout time.Duration) *Store {
	if maxMessages <= 0 {
		maxMessages = 40
	}
	if idleTimeout <= 0 {
		idleTimeout = time.Minute
	}
	return &Store{
		records:     make(map[string]*record),
		maxMessages: maxMessages,
		idleTimeout: idleTimeout,
		now:         time.Now,
	}
}

// SetClock overrides the time source, for tests.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// History returns a copy of the user's live history, resetting the record
// first if it has been idle past the timeout.
func (s *Store) History(userID string) []Turn {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := s.liveRecord(userID)
	if len(rec.turns) == 0 {
		return nil
	}
	out := make([]Turn, len(rec.turns))
	copy(out, rec.turns)
	return out
}

// Append records a turn for the user, creating the record if absent and
// trimming the oldest turns beyond the per-user maximum.
func (s *Store) Append(userID string, role Role, content string) Turn {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := s.liveRecord(userID)
	t := Turn{
		ID:        uuid.NewString(),
		Role:      role,
		Content:   content,
		CreatedAt: s.now().UTC(),
	}
	rec.lastActiveAt = s.now()
	rec.turns = append(rec.turns, t)
	if len(rec.turns) > s.maxMessages {
		rec.turns = append(rec.turns[:0:0], rec.turns[len(rec.turns)-s.maxMessages:]...)
	}
	return t
}

// ConversationCount reports how many user records exist, live or idle.
func (s *Store) ConversationCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// liveRecord returns the user's record, resetting it if idle-expired.
// Callers must hold s.mu.
func (s *Store) liveRecord(userID string) *record {
	now := s.now()
	rec, ok := s.records[userID]
	if !ok {
		rec = &record{lastActiveAt: now}
		s.records[userID] = rec
		return rec
	}
	if now.Sub(rec.lastActiveAt) > s.idleTimeout {
		rec.turns = nil
		rec.lastActiveAt = now
	}
	return rec
}
