package casefile

import "time"

// ProblemScope is a structured summary of what the investigation covers:
// the failure in one paragraph, the error patterns seen so far, and the
// blast radius. Regenerating the scope pushes the previous version onto
// History so refinements are never lost.
type ProblemScope struct {
	Summary            string       `json:"summary"`
	ErrorPatterns      []string     `json:"error_patterns,omitempty"`
	AffectedComponents []string     `json:"affected_components,omitempty"`
	Timeframe          string       `json:"timeframe,omitempty"`
	Impact             string       `json:"impact,omitempty"`
	EvidenceSummary    string       `json:"evidence_summary,omitempty"`
	Version            int          `json:"version"`
	GeneratedAt        time.Time    `json:"generated_at"`
	History            []ScopeEntry `json:"history,omitempty"`
}

// ScopeEntry is one superseded scope revision.
type ScopeEntry struct {
	Summary     string    `json:"summary"`
	Version     int       `json:"version"`
	GeneratedAt time.Time `json:"generated_at"`
}

// SetScope installs a new scope on the case, archiving any previous one.
func (c *Case) SetScope(s *ProblemScope) {
	if s == nil {
		return
	}
	if c.Scope != nil {
		s.Version = c.Scope.Version + 1
		s.History = append(c.Scope.History, ScopeEntry{
			Summary:     c.Scope.Summary,
			Version:     c.Scope.Version,
			GeneratedAt: c.Scope.GeneratedAt,
		})
	} else {
		s.Version = 1
	}
	if s.GeneratedAt.IsZero() {
		s.GeneratedAt = time.Now().UTC()
	}
	c.Scope = s
}
