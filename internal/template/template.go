// Package template matches troubleshooting templates against a problem
// statement and applies them onto fresh cases. A template seeds the
// initial question and hypothesis sets verbatim; it never mutates an
// existing question or hypothesis.
package template

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	yaml "gopkg.in/yaml.v3"

	"fathom/internal/casefile"
)

// TemplateQuestion is one authored question.
type TemplateQuestion struct {
	Prompt           string `yaml:"prompt" json:"prompt"`
	Required         bool   `yaml:"required" json:"required"`
	Guidance         string `yaml:"guidance,omitempty" json:"guidance,omitempty"`
	RequiresEvidence bool   `yaml:"requires_evidence,omitempty" json:"requires_evidence,omitempty"`
}

// Template is one authored troubleshooting workflow.
type Template struct {
	Name           string             `yaml:"name" json:"name"`
	Description    string             `yaml:"description,omitempty" json:"description,omitempty"`
	Keywords       []string           `yaml:"keywords" json:"keywords"`
	Classification string             `yaml:"classification,omitempty" json:"classification,omitempty"`
	Questions      []TemplateQuestion `yaml:"questions,omitempty" json:"questions,omitempty"`
	Hypotheses     []string           `yaml:"hypotheses,omitempty" json:"hypotheses,omitempty"`
}

// ScoredTemplate pairs a template with its keyword-match score.
type ScoredTemplate struct {
	Template *Template
	Score    int
}

// Library is a loaded set of templates.
type Library struct {
	templates []*Template
}

// NewLibrary returns a library over the given templates.
func NewLibrary(templates []*Template) *Library {
	return &Library{templates: templates}
}

// LoadDir reads every *.yaml/*.yml template in dir. A missing dir yields
// an empty library, not an error; the built-in set still applies.
func LoadDir(dir string) (*Library, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return &Library{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read template dir: %w", err)
	}
	var templates []*Template
	for _, e := range entries {
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if e.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("read template %s: %w", e.Name(), err)
		}
		var t Template
		if err := yaml.Unmarshal(data, &t); err != nil {
			return nil, fmt.Errorf("parse template %s: %w", e.Name(), err)
		}
		if t.Name == "" {
			return nil, fmt.Errorf("template %s has no name", e.Name())
		}
		templates = append(templates, &t)
	}
	return &Library{templates: templates}, nil
}

// All returns the library's templates plus the built-in set.
func (l *Library) All() []*Template {
	return append(append([]*Template(nil), l.templates...), builtin()...)
}

// Match ranks templates by keyword hits against the problem text and an
// optional auxiliary text. Zero-hit templates are excluded.
func (l *Library) Match(text, auxText string) []ScoredTemplate {
	haystack := strings.ToLower(text + " " + auxText)
	var out []ScoredTemplate
	for _, t := range l.All() {
		score := 0
		for _, kw := range t.Keywords {
			if strings.Contains(haystack, strings.ToLower(kw)) {
				score++
			}
		}
		if score > 0 {
			out = append(out, ScoredTemplate{Template: t, Score: score})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}

// Get returns the named template, or nil.
func (l *Library) Get(name string) *Template {
	for _, t := range l.All() {
		if t.Name == name {
			return t
		}
	}
	return nil
}

// Apply seeds the case with the template's questions and hypotheses,
// verbatim and append-only. Classification is first-wins: an already
// classified case keeps its label.
func Apply(c *casefile.Case, t *Template) {
	for _, q := range t.Questions {
		c.AddQuestion(casefile.Question{
			Prompt:           q.Prompt,
			Required:         q.Required,
			Guidance:         q.Guidance,
			RequiresEvidence: q.RequiresEvidence,
		})
	}
	for _, h := range t.Hypotheses {
		c.AddHypothesis(casefile.Hypothesis{Description: h})
	}
	if c.Classification == "" && t.Classification != "" {
		c.Classification = t.Classification
	}
}
