// Package workspace loads the per-project configuration file: where the
// case database and evidence live, how to reach the consultation
// service, and the default safety limits for agent sessions. Everything
// has a working default; a workspace file only overrides.
package workspace

import (
	"os"
	"path/filepath"
	"time"
)

// DefaultDir is the workspace data directory, relative to the project
// root the CLI runs in.
const DefaultDir = ".fathom"

// ConfigNames are the file names probed, in order, when no explicit
// config path is given.
var ConfigNames = []string{"fathom.yaml", "fathom.yml", "fathom.json"}

// Consult configures the language-model consultation service.
type Consult struct {
	APIKeyEnv       string        `json:"api_key_env,omitempty" yaml:"api_key_env,omitempty"`
	BaseURL         string        `json:"base_url,omitempty" yaml:"base_url,omitempty"`
	Model           string        `json:"model,omitempty" yaml:"model,omitempty"`
	AnalysisTimeout time.Duration `json:"analysis_timeout,omitempty" yaml:"analysis_timeout,omitempty"`
	GuidanceTimeout time.Duration `json:"guidance_timeout,omitempty" yaml:"guidance_timeout,omitempty"`
	// Stub switches every consultation to the deterministic offline
	// consultant. Useful for demos and air-gapped environments.
	Stub bool `json:"stub,omitempty" yaml:"stub,omitempty"`
}

// Agent carries the default safety limits new sessions start with.
// Per-session flags override these.
type Agent struct {
	MaxIterations  int           `json:"max_iterations,omitempty" yaml:"max_iterations,omitempty"`
	MaxDuration    time.Duration `json:"max_duration,omitempty" yaml:"max_duration,omitempty"`
	AutoApprove    bool          `json:"auto_approve,omitempty" yaml:"auto_approve,omitempty"`
	DeniedActions  []string      `json:"denied_actions,omitempty" yaml:"denied_actions,omitempty"`
	ErrorThreshold int           `json:"error_threshold,omitempty" yaml:"error_threshold,omitempty"`
}

// Logging selects level and output format for the CLI and MCP server.
type Logging struct {
	Level  string `json:"level,omitempty" yaml:"level,omitempty"`
	Format string `json:"format,omitempty" yaml:"format,omitempty"` // "text" or "json"
}

// Workspace is the full configuration document.
type Workspace struct {
	DataDir     string  `json:"data_dir,omitempty" yaml:"data_dir,omitempty"`
	TemplateDir string  `json:"template_dir,omitempty" yaml:"template_dir,omitempty"`
	Consult     Consult `json:"consult,omitempty" yaml:"consult,omitempty"`
	Agent       Agent   `json:"agent,omitempty" yaml:"agent,omitempty"`
	Logging     Logging `json:"logging,omitempty" yaml:"logging,omitempty"`
}

// Default returns a workspace with every field at its stock value.
func Default() *Workspace {
	return &Workspace{
		DataDir:     DefaultDir,
		TemplateDir: filepath.Join(DefaultDir, "templates"),
		Consult: Consult{
			APIKeyEnv:       "OPENAI_API_KEY",
			AnalysisTimeout: 90 * time.Second,
			GuidanceTimeout: 30 * time.Second,
		},
		Agent: Agent{
			MaxIterations:  50,
			MaxDuration:    30 * time.Minute,
			ErrorThreshold: 5,
		},
		Logging: Logging{Level: "info", Format: "text"},
	}
}

// DBPath is the SQLite file under the data directory.
func (w *Workspace) DBPath() string {
	return filepath.Join(w.DataDir, "fathom.db")
}

// EvidenceDir is the evidence tree under the data directory.
func (w *Workspace) EvidenceDir() string {
	return filepath.Join(w.DataDir, "evidence")
}

// APIKey resolves the consultation API key from the configured
// environment variable. Empty when unset.
func (w *Workspace) APIKey() string {
	env := w.Consult.APIKeyEnv
	if env == "" {
		env = "OPENAI_API_KEY"
	}
	return os.Getenv(env)
}

// fill applies defaults to any field the loaded document left zero.
func (w *Workspace) fill() {
	d := Default()
	if w.DataDir == "" {
		w.DataDir = d.DataDir
	}
	if w.TemplateDir == "" {
		w.TemplateDir = filepath.Join(w.DataDir, "templates")
	}
	if w.Consult.APIKeyEnv == "" {
		w.Consult.APIKeyEnv = d.Consult.APIKeyEnv
	}
	if w.Consult.AnalysisTimeout == 0 {
		w.Consult.AnalysisTimeout = d.Consult.AnalysisTimeout
	}
	if w.Consult.GuidanceTimeout == 0 {
		w.Consult.GuidanceTimeout = d.Consult.GuidanceTimeout
	}
	if w.Agent.MaxIterations == 0 {
		w.Agent.MaxIterations = d.Agent.MaxIterations
	}
	if w.Agent.MaxDuration == 0 {
		w.Agent.MaxDuration = d.Agent.MaxDuration
	}
	if w.Agent.ErrorThreshold == 0 {
		w.Agent.ErrorThreshold = d.Agent.ErrorThreshold
	}
	if w.Logging.Level == "" {
		w.Logging.Level = d.Logging.Level
	}
	if w.Logging.Format == "" {
		w.Logging.Format = d.Logging.Format
	}
}
