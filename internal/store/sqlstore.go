package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"fathom/internal/agent"
	"fathom/internal/casefile"

	_ "modernc.org/sqlite"
)

// nowUTC returns the current UTC time as an ISO 8601 string.
func nowUTC() string { return time.Now().UTC().Format(time.RFC3339) }

// SqlStore implements Store with SQLite.
type SqlStore struct {
	db *sql.DB
}

// Open opens or creates a SQLite DB at path and runs migrations.
// Creates the parent directory (e.g. .fathom) if it does not exist.
func Open(path string) (*SqlStore, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	// Serialize writers: a read-modify-write on one case is the critical
	// section, and SQLite's single-writer model covers it as long as all
	// mutations go through one connection.
	db.SetMaxOpenConns(1)
	s := &SqlStore{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SqlStore) migrate() error {
	if _, err := s.db.Exec(schemaDDL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	var v int
	err := s.db.QueryRow("SELECT version FROM schema_version LIMIT 1").Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		if _, err := s.db.Exec("INSERT INTO schema_version(version) VALUES(?)", schemaVersion1); err != nil {
			return fmt.Errorf("write schema version: %w", err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if v != schemaVersion1 {
		return fmt.Errorf("unsupported schema version %d (want %d)", v, schemaVersion1)
	}
	return nil
}

func (s *SqlStore) Close() error { return s.db.Close() }

// --- Cases ---

func (s *SqlStore) CreateCase(c *casefile.Case) error {
	if c == nil {
		return errors.New("case is nil")
	}
	body, err := marshalCase(c)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(
		`INSERT INTO cases(id, state, title, body, created_at, updated_at)
		 VALUES(?, ?, ?, ?, ?, ?)`,
		c.ID, string(c.State), c.Title, body,
		c.CreatedAt.UTC().Format(time.RFC3339), nowUTC(),
	)
	if err != nil {
		return fmt.Errorf("insert case: %w", err)
	}
	return nil
}

func (s *SqlStore) LoadCase(id string) (*casefile.Case, error) {
	var body []byte
	err := s.db.QueryRow(`SELECT body FROM cases WHERE id = ?`, id).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("case %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get case: %w", err)
	}
	var c casefile.Case
	if err := json.Unmarshal(body, &c); err != nil {
		return nil, fmt.Errorf("decode case %s: %w", id, err)
	}
	events, err := s.loadEvents(id)
	if err != nil {
		return nil, err
	}
	c.Events = events
	return &c, nil
}

func (s *SqlStore) SaveCase(c *casefile.Case) error {
	if c == nil {
		return errors.New("case is nil")
	}
	c.UpdatedAt = time.Now().UTC()
	body, err := marshalCase(c)
	if err != nil {
		return err
	}
	res, err := s.db.Exec(
		`UPDATE cases SET state = ?, title = ?, body = ?, updated_at = ? WHERE id = ?`,
		string(c.State), c.Title, body, nowUTC(), c.ID,
	)
	if err != nil {
		return fmt.Errorf("update case: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("case %s: %w", c.ID, ErrNotFound)
	}
	return nil
}

func (s *SqlStore) ListCases() ([]*casefile.Case, error) {
	rows, err := s.db.Query(`SELECT body FROM cases ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list cases: %w", err)
	}
	defer rows.Close()
	var out []*casefile.Case
	for rows.Next() {
		var body []byte
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("scan case: %w", err)
		}
		var c casefile.Case
		if err := json.Unmarshal(body, &c); err != nil {
			return nil, fmt.Errorf("decode case: %w", err)
		}
		out = append(out, &c)
	}
	return out, rows.Err()
}

// AppendEvent writes one row to the append-only event log. A single INSERT
// is atomic with respect to concurrent appends on the same case.
func (s *SqlStore) AppendEvent(caseID string, typ casefile.EventType, detail, actor string) error {
	res, err := s.db.Exec(
		`INSERT INTO case_events(case_id, type, actor, detail, created_at)
		 SELECT ?, ?, ?, ?, ? WHERE EXISTS (SELECT 1 FROM cases WHERE id = ?)`,
		caseID, string(typ), actor, detail, nowUTC(), caseID,
	)
	if err != nil {
		return fmt.Errorf("append event: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("case %s: %w", caseID, ErrNotFound)
	}
	return nil
}

func (s *SqlStore) loadEvents(caseID string) ([]casefile.CaseEvent, error) {
	rows, err := s.db.Query(
		`SELECT type, actor, detail, created_at FROM case_events
		 WHERE case_id = ? ORDER BY id`, caseID,
	)
	if err != nil {
		return nil, fmt.Errorf("load events: %w", err)
	}
	defer rows.Close()
	var out []casefile.CaseEvent
	for rows.Next() {
		var typ, actor, detail, at string
		if err := rows.Scan(&typ, &actor, &detail, &at); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		ts, _ := time.Parse(time.RFC3339, at)
		out = append(out, casefile.CaseEvent{
			Type: casefile.EventType(typ), Actor: actor, Detail: detail, Timestamp: ts,
		})
	}
	return out, rows.Err()
}

// marshalCase encodes the snapshot without the event log; events live in
// their own table and are never part of the overwritable document.
func marshalCase(c *casefile.Case) ([]byte, error) {
	cp := *c
	cp.Events = nil
	body, err := json.Marshal(&cp)
	if err != nil {
		return nil, fmt.Errorf("encode case %s: %w", c.ID, err)
	}
	return body, nil
}

// --- Sessions ---

func (s *SqlStore) SaveSession(sess *agent.Session) error {
	if sess == nil {
		return errors.New("session is nil")
	}
	body, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode session %s: %w", sess.ID, err)
	}
	_, err = s.db.Exec(
		`INSERT INTO sessions(id, case_id, status, body, created_at, updated_at)
		 VALUES(?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET status = excluded.status,
		   body = excluded.body, updated_at = excluded.updated_at`,
		sess.ID, sess.CaseID, string(sess.Status), body, nowUTC(), nowUTC(),
	)
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (s *SqlStore) LoadSession(id string) (*agent.Session, error) {
	var body []byte
	err := s.db.QueryRow(`SELECT body FROM sessions WHERE id = ?`, id).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	var sess agent.Session
	if err := json.Unmarshal(body, &sess); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", id, err)
	}
	return &sess, nil
}

func (s *SqlStore) ListSessions() ([]*agent.Session, error) {
	rows, err := s.db.Query(`SELECT body FROM sessions ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()
	var out []*agent.Session
	for rows.Next() {
		var body []byte
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		var sess agent.Session
		if err := json.Unmarshal(body, &sess); err != nil {
			return nil, fmt.Errorf("decode session: %w", err)
		}
		out = append(out, &sess)
	}
	return out, rows.Err()
}
