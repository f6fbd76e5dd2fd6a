package location

import (
	"sync"
	"time"
)

// Sessions 每个调用会话一个 Acquirer，空闲超过 idleTTL 的会话被回收
type Sessions struct {
	mu        sync.Mutex
	items     map[string]*sessionEntry
	idleTTL   time.Duration
	lastSweep time.Time
	opts      []Option
	now       func() time.Time
}

type sessionEntry struct {
	acquirer *Acquirer
	lastUsed time.Time
}

func NewSessions(idleTTL time.Duration, opts ...Option) *Sessions {
	return &Sessions{
		items:   make(map[string]*sessionEntry),
		idleTTL: idleTTL,
		opts:    opts,
		now:     time.Now,
	}
}

// Get 返回会话对应的 Acquirer，不存在则创建
func (s *Sessions) Get(sessionID string) *Acquirer {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if s.idleTTL > 0 && now.Sub(s.lastSweep) >= s.idleTTL {
		s.sweepLocked(now)
	}

	entry, ok := s.items[sessionID]
	if !ok {
		entry = &sessionEntry{acquirer: NewAcquirer(s.opts...)}
		s.items[sessionID] = entry
	}
	entry.lastUsed = now
	return entry.acquirer
}

func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// 被回收的 Acquirer 上若仍有进行中的请求，持有者照常拿到结果
func (s *Sessions) sweepLocked(now time.Time) {
	for id, entry := range s.items {
		if now.Sub(entry.lastUsed) > s.idleTTL {
			delete(s.items, id)
		}
	}
	s.lastSweep = now
}
