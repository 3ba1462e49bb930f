package web

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"gmapscleaner/internal/classify"
	"gmapscleaner/internal/selection"
	"gmapscleaner/internal/table"
)

// session carries one (file, keyword) run through the form flow. Each stage
// writes the field the next stage reads; starting a new classification
// discards everything downstream of the pre-filter.
type session struct {
	mu sync.Mutex

	id         string
	createdAt  time.Time
	sourceName string

	loaded   *table.Table
	filtered *table.Table
	removed  int

	keyword  string
	results  map[string]classify.Result
	relevant *table.Table
	state    *selection.State
	final    *table.Table

	notice string
}

// resetClassification drops classifier output and everything derived from
// it, keeping the loaded table and committed pre-filter.
func (s *session) resetClassification() {
	s.keyword = ""
	s.results = nil
	s.relevant = nil
	s.state = nil
	s.final = nil
}

type sessionRegistry struct {
	mu       sync.RWMutex
	sessions map[string]*session
}

func newSessionRegistry() *sessionRegistry {
	return &sessionRegistry{sessions: make(map[string]*session)}
}

func (r *sessionRegistry) create(sourceName string, t *table.Table) *session {
	s := &session{
		id:         uuid.NewString(),
		createdAt:  time.Now(),
		sourceName: sourceName,
		loaded:     t,
		filtered:   t,
	}
	r.mu.Lock()
	r.sessions[s.id] = s
	r.mu.Unlock()
	return s
}

func (r *sessionRegistry) get(id string) (*session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	return s, ok
}
