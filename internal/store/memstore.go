package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"fathom/internal/agent"
	"fathom/internal/casefile"
)

// MemStore implements Store with mutex-guarded maps. Used by tests and by
// dry runs that must not touch the workspace DB. Values are deep-copied in
// and out so callers never share memory with the store.
type MemStore struct {
	mu       sync.Mutex
	cases    map[string]*casefile.Case
	events   map[string][]casefile.CaseEvent
	sessions map[string]*agent.Session
}

// NewMemStore returns an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{
		cases:    make(map[string]*casefile.Case),
		events:   make(map[string][]casefile.CaseEvent),
		sessions: make(map[string]*agent.Session),
	}
}

func (s *MemStore) Close() error { return nil }

func copyCase(c *casefile.Case) *casefile.Case {
	// JSON round-trip keeps the copy honest for nested slices.
	body, _ := json.Marshal(c)
	var cp casefile.Case
	_ = json.Unmarshal(body, &cp)
	return &cp
}

func copySession(sess *agent.Session) *agent.Session {
	body, _ := json.Marshal(sess)
	var cp agent.Session
	_ = json.Unmarshal(body, &cp)
	return &cp
}

func (s *MemStore) CreateCase(c *casefile.Case) error {
	if c == nil {
		return errors.New("case is nil")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.cases[c.ID]; ok {
		return fmt.Errorf("case %s already exists", c.ID)
	}
	cp := copyCase(c)
	cp.Events = nil
	s.cases[c.ID] = cp
	return nil
}

func (s *MemStore) LoadCase(id string) (*casefile.Case, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.cases[id]
	if !ok {
		return nil, fmt.Errorf("case %s: %w", id, ErrNotFound)
	}
	cp := copyCase(c)
	cp.Events = append([]casefile.CaseEvent(nil), s.events[id]...)
	return cp, nil
}

func (s *MemStore) SaveCase(c *casefile.Case) error {
	if c == nil {
		return errors.New("case is nil")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.cases[c.ID]; !ok {
		return fmt.Errorf("case %s: %w", c.ID, ErrNotFound)
	}
	c.UpdatedAt = time.Now().UTC()
	cp := copyCase(c)
	cp.Events = nil // the log is owned by AppendEvent, snapshots never carry it
	s.cases[c.ID] = cp
	return nil
}

func (s *MemStore) ListCases() ([]*casefile.Case, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*casefile.Case, 0, len(s.cases))
	for _, c := range s.cases {
		out = append(out, copyCase(c))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *MemStore) AppendEvent(caseID string, typ casefile.EventType, detail, actor string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.cases[caseID]; !ok {
		return fmt.Errorf("case %s: %w", caseID, ErrNotFound)
	}
	s.events[caseID] = append(s.events[caseID], casefile.NewEvent(typ, actor, detail))
	return nil
}

func (s *MemStore) SaveSession(sess *agent.Session) error {
	if sess == nil {
		return errors.New("session is nil")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = copySession(sess)
	return nil
}

func (s *MemStore) LoadSession(id string) (*agent.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	return copySession(sess), nil
}

func (s *MemStore) ListSessions() ([]*agent.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*agent.Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, copySession(sess))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.Before(out[j].StartedAt) })
	return out, nil
}
