// Package store is the persistence facade for cases and agent sessions.
// Domain packages and the CLI use only the Store interface; the
// implementation is SQLite or in-memory. Case snapshots and the
// append-only event log are stored separately so history survives even
// if a snapshot write races.
package store

import (
	"errors"

	"fathom/internal/agent"
	"fathom/internal/casefile"
)

// DefaultDBPath is the default relative path for the SQLite DB
// (per-workspace). Open() creates the parent dir (e.g. .fathom).
const DefaultDBPath = ".fathom/fathom.db"

// ErrNotFound is returned when a case or session does not exist. Callers
// treat it as fatal for the single operation; nothing is auto-repaired.
var ErrNotFound = errors.New("not found")

// Store is the persistence contract. Every operation loads fresh state;
// there is no cross-operation cache. Implementations must serialize
// load-mutate-save per case identifier and keep event appends atomic with
// respect to concurrent appends on the same id.
type Store interface {
	// Cases
	CreateCase(c *casefile.Case) error
	LoadCase(id string) (*casefile.Case, error)
	SaveCase(c *casefile.Case) error
	ListCases() ([]*casefile.Case, error)
	AppendEvent(caseID string, typ casefile.EventType, detail, actor string) error

	// Agent sessions, stored independently of their owning case so they
	// can be listed without loading full case bodies.
	SaveSession(s *agent.Session) error
	LoadSession(id string) (*agent.Session, error)
	ListSessions() ([]*agent.Session, error)

	Close() error
}

var (
	_ Store = (*SqlStore)(nil)
	_ Store = (*MemStore)(nil)
)
