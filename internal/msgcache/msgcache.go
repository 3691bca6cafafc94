// Package msgcache holds the bounded per-message caches consulted on every
// inbound event: a seen-id set for webhook redelivery suppression and a
// reply cache for resolving reply-to context.
package msgcache

import (
	"sync"

	"github.com/ent0n29/prawnking/internal/memory"
)

// SeenSet is a bounded set of recently processed message ids with
// deterministic oldest-first eviction. An id can be evicted under load and
// the message reprocessed; dedup here is an approximation bounded by
// capacity, not a delivery guarantee.
type SeenSet struct {
	mu       sync.Mutex
	capacity int
	ids      map[string]struct{}
	order    []string
}

func NewSeenSet(capacity int) *SeenSet {
	if capacity <= 0 {
		capacity = 200
	}
	return &SeenSet{
		capacity: capacity,
		ids:      make(map[string]struct{}, capacity),
	}
}

// Seen reports whether the id is still in the retention window.
func (s *SeenSet) Seen(mid string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.ids[mid]
	return ok
}

// Mark records the id, evicting the oldest marked id at capacity.
func (s *SeenSet) Mark(mid string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.ids[mid]; ok {
		return
	}
	if len(s.order) >= s.capacity {
		oldest := s.order[0]
		s.order = s.order[1:]
		delete(s.ids, oldest)
	}
	s.ids[mid] = struct{}{}
	s.order = append(s.order, mid)
}

// CachedMessage is a message body retained for reply-context resolution.
type CachedMessage struct {
	Role    memory.Role
	Content string
}

// ReplyCache maps message ids to their content so a later "replying to X"
// event can reconstruct what X said. Bounded, oldest-first eviction.
type ReplyCache struct {
	mu       sync.Mutex
	capacity int
	entries  map[string]CachedMessage
	order    []string
}

func NewReplyCache(capacity int) *ReplyCache {
	if capacity <= 0 {
		capacity = 200
	}
	return &ReplyCache{
		capacity: capacity,
		entries:  make(map[string]CachedMessage, capacity),
	}
}

// Put stores the message under its id, evicting the oldest entry at capacity.
// Re-putting an existing id updates it in place without eviction.
func (c *ReplyCache) Put(mid string, role memory.Role, content string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[mid]; ok {
		c.entries[mid] = CachedMessage{Role: role, Content: content}
		return
	}
	if len(c.order) >= c.capacity {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}
	c.entries[mid] = CachedMessage{Role: role, Content: content}
	c.order = append(c.order, mid)
}

// Resolve looks up a cached message; ok is false when the id was evicted or
// never cached.
func (c *ReplyCache) Resolve(mid string) (CachedMessage, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	msg, ok := c.entries[mid]
	return msg, ok
}

// Len reports the number of cached entries.
func (c *ReplyCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
