// Package evidence ingests files into a case's evidence store, redacting
// PII on the way in. The orchestrator and agent only ever read content
// that passed through here; raw source files are never consulted.
package evidence

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"fathom/internal/casefile"
	"fathom/internal/logging"
)

// CaseStore is the slice of persistence the manager needs.
type CaseStore interface {
	LoadCase(id string) (*casefile.Case, error)
	SaveCase(c *casefile.Case) error
	AppendEvent(caseID string, typ casefile.EventType, detail, actor string) error
}

// Progress reports ingest/extract progress: files processed so far and
// the entry currently being handled.
type Progress func(processed int, current string)

// Manager owns the on-disk evidence tree.
type Manager struct {
	BaseDir string // e.g. .fathom/evidence
	Store   CaseStore
}

// maxEvidenceExcerpt bounds how much of one file feeds consultation
// prompts and scope generation.
const maxEvidenceExcerpt = 16 * 1024

// NewManager returns a manager rooted at baseDir.
func NewManager(baseDir string, store CaseStore) *Manager {
	return &Manager{BaseDir: baseDir, Store: store}
}

func (m *Manager) caseDir(caseID string) string {
	return filepath.Join(m.BaseDir, caseID)
}

// AddFile copies one file into the case's evidence store, applies
// redaction to text media, records the Evidence on the case, and appends
// an audit event. Returns the immutable Evidence record and whether any
// redaction occurred.
func (m *Manager) AddFile(caseID, path string, tags []string) (*casefile.Evidence, bool, error) {
	c, err := m.Store.LoadCase(caseID)
	if err != nil {
		return nil, false, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false, fmt.Errorf("read evidence file: %w", err)
	}

	mediaType := detectMediaType(path, data)
	redacted := false
	if isTextMedia(mediaType) {
		var count int
		data, count = Redact(data)
		redacted = count > 0
	}

	id := uuid.NewString()
	destName := id[:8] + "-" + filepath.Base(path)
	dest := filepath.Join(m.caseDir(caseID), destName)
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return nil, false, fmt.Errorf("create evidence dir: %w", err)
	}
	if err := os.WriteFile(dest, data, 0644); err != nil {
		return nil, false, fmt.Errorf("store evidence: %w", err)
	}

	ev := casefile.Evidence{
		ID:         id,
		Path:       dest,
		MediaType:  mediaType,
		IsRedacted: redacted,
		Tags:       tags,
	}
	c.Evidence = append(c.Evidence, ev)
	if err := m.Store.SaveCase(c); err != nil {
		return nil, false, err
	}
	if err := m.Store.AppendEvent(caseID, casefile.EventEvidenceAdded,
		fmt.Sprintf("%s (%s, redacted=%t)", filepath.Base(path), mediaType, redacted), "human"); err != nil {
		return nil, false, err
	}
	logging.New("evidence").Info("evidence added",
		"case", caseID, "file", filepath.Base(path), "redacted", redacted)
	return &ev, redacted, nil
}

// IngestFromStaging walks an extracted staging tree and adds every
// regular file as evidence. Returns the created records and how many of
// them required redaction.
func (m *Manager) IngestFromStaging(caseID, stagingPath string, tags []string, progress Progress) ([]casefile.Evidence, int, error) {
	var out []casefile.Evidence
	redactedCount := 0
	processed := 0

	err := filepath.WalkDir(stagingPath, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if progress != nil {
			progress(processed, path)
		}
		ev, wasRedacted, err := m.AddFile(caseID, path, tags)
		if err != nil {
			return fmt.Errorf("ingest %s: %w", path, err)
		}
		out = append(out, *ev)
		if wasRedacted {
			redactedCount++
		}
		processed++
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return out, redactedCount, nil
}

// ReadExcerpts concatenates bounded excerpts of the case's stored text
// evidence, prefixed with evidence IDs so answers can cite them.
func (m *Manager) ReadExcerpts(c *casefile.Case) string {
	var b strings.Builder
	for _, ev := range c.Evidence {
		if !isTextMedia(ev.MediaType) {
			continue
		}
		data, err := os.ReadFile(ev.Path)
		if err != nil {
			continue
		}
		if len(data) > maxEvidenceExcerpt {
			data = data[:maxEvidenceExcerpt]
		}
		fmt.Fprintf(&b, "--- evidence %s (%s) ---\n%s\n", ev.ID, filepath.Base(ev.Path), data)
	}
	return b.String()
}

func detectMediaType(path string, data []byte) string {
	if t := mime.TypeByExtension(filepath.Ext(path)); t != "" {
		return t
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".log", ".txt", ".out", ".yaml", ".yml", ".json", ".conf", ".cfg", "":
		return "text/plain"
	}
	if isMostlyText(data) {
		return "text/plain"
	}
	return "application/octet-stream"
}

func isTextMedia(mediaType string) bool {
	return strings.HasPrefix(mediaType, "text/") ||
		strings.Contains(mediaType, "json") ||
		strings.Contains(mediaType, "yaml") ||
		strings.Contains(mediaType, "xml")
}

// isMostlyText samples the head of the data for NUL bytes.
func isMostlyText(data []byte) bool {
	n := len(data)
	if n > 512 {
		n = 512
	}
	for _, b := range data[:n] {
		if b == 0 {
			return false
		}
	}
	return n > 0
}
