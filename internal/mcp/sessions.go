package mcp

import (
	"sync"

	"github.com/hpungsan/termplan/internal/errors"
	"github.com/hpungsan/termplan/internal/planner"
)

// MaxSessions bounds how many sessions a server keeps in memory. Starting
// one more evicts the oldest.
const MaxSessions = 64

// sessionRegistry holds the live planning sessions of one server.
type sessionRegistry struct {
	mu       sync.RWMutex
	sessions map[string]*planner.Session
	order    []string // oldest first
}

func newSessionRegistry() *sessionRegistry {
	return &sessionRegistry{sessions: make(map[string]*planner.Session)}
}

// add registers s and returns the ids evicted to make room.
func (r *sessionRegistry) add(s *planner.Session) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var evicted []string
	for len(r.order) >= MaxSessions {
		id := r.order[0]
		r.order = r.order[1:]
		delete(r.sessions, id)
		evicted = append(evicted, id)
	}
	r.sessions[s.ID()] = s
	r.order = append(r.order, s.ID())
	return evicted
}

func (r *sessionRegistry) get(id string) (*planner.Session, error) {
	if id == "" {
		return nil, errors.NewInvalidRequest("session_id is required")
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, errors.NewNotFound(id)
	}
	return s, nil
}

func (r *sessionRegistry) count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
