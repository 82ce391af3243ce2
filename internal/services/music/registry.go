package music

import "sync"

// QueueRegistry stores the live session of each guild
type QueueRegistry interface {
	Get(guildID string) (*Session, bool)
	// GetOrCreate returns the guild's session, calling create when there is none.
	// The second result reports whether create was used.
	GetOrCreate(guildID string, create func() *Session) (*Session, bool)
	// Remove drops the guild's session. Only one caller gets ok for a given session.
	Remove(guildID string) (*Session, bool)
	Sessions() []*Session
	Len() int
}

// MemoryRegistry is an in-process QueueRegistry
type MemoryRegistry struct {
	sessions map[string]*Session
	mu       sync.RWMutex
}

// NewMemoryRegistry creates an empty registry
func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{
		sessions: make(map[string]*Session),
	}
}

func (r *MemoryRegistry) Get(guildID string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[guildID]
	return s, ok
}

func (r *MemoryRegistry) GetOrCreate(guildID string, create func() *Session) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[guildID]; ok {
		return s, false
	}
	s := create()
	r.sessions[guildID] = s
	return s, true
}

func (r *MemoryRegistry) Remove(guildID string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[guildID]
	if ok {
		delete(r.sessions, guildID)
	}
	return s, ok
}

func (r *MemoryRegistry) Sessions() []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sessions := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		sessions = append(sessions, s)
	}
	return sessions
}

func (r *MemoryRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
