package workspace

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_YAML(t *testing.T) {
	data := []byte(`
data_dir: /var/lib/fathom
consult:
  model: gpt-4o
  stub: false
agent:
  max_iterations: 10
  denied_actions: [transition-state]
logging:
  format: json
`)
	w, err := Load(data, ".yaml")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if w.DataDir != "/var/lib/fathom" {
		t.Errorf("data dir: %q", w.DataDir)
	}
	if w.Consult.Model != "gpt-4o" {
		t.Errorf("model: %q", w.Consult.Model)
	}
	if w.Agent.MaxIterations != 10 {
		t.Errorf("max iterations: %d", w.Agent.MaxIterations)
	}
	if len(w.Agent.DeniedActions) != 1 || w.Agent.DeniedActions[0] != "transition-state" {
		t.Errorf("denied actions: %v", w.Agent.DeniedActions)
	}
	if w.Logging.Format != "json" {
		t.Errorf("log format: %q", w.Logging.Format)
	}
	// Untouched fields take defaults.
	if w.Agent.ErrorThreshold != 5 {
		t.Errorf("error threshold default: %d", w.Agent.ErrorThreshold)
	}
	if w.Consult.AnalysisTimeout != 90*time.Second {
		t.Errorf("analysis timeout default: %s", w.Consult.AnalysisTimeout)
	}
	if w.TemplateDir != filepath.Join("/var/lib/fathom", "templates") {
		t.Errorf("template dir follows data dir: %q", w.TemplateDir)
	}
}

func TestLoad_DetectJSON(t *testing.T) {
	data := []byte(`{"consult":{"base_url":"http://localhost:8080/v1"},"agent":{"auto_approve":true}}`)
	w, err := Load(data, "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if w.Consult.BaseURL != "http://localhost:8080/v1" {
		t.Errorf("base url: %q", w.Consult.BaseURL)
	}
	if !w.Agent.AutoApprove {
		t.Error("auto approve not set")
	}
	if w.DataDir != DefaultDir {
		t.Errorf("data dir default: %q", w.DataDir)
	}
}

func TestLoad_DetectYAML(t *testing.T) {
	data := []byte("logging:\n  level: debug\n")
	w, err := Load(data, "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if w.Logging.Level != "debug" {
		t.Errorf("level: %q", w.Logging.Level)
	}
}

func TestDiscover(t *testing.T) {
	dir := t.TempDir()

	// No config file: defaults, no error.
	w, err := Discover(dir)
	if err != nil {
		t.Fatalf("Discover empty dir: %v", err)
	}
	if w.DataDir != DefaultDir {
		t.Errorf("data dir: %q", w.DataDir)
	}

	path := filepath.Join(dir, "fathom.yaml")
	if err := os.WriteFile(path, []byte("data_dir: custom\n"), 0644); err != nil {
		t.Fatal(err)
	}
	w, err = Discover(dir)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if w.DataDir != "custom" {
		t.Errorf("data dir from file: %q", w.DataDir)
	}
	if w.DBPath() != filepath.Join("custom", "fathom.db") {
		t.Errorf("db path: %q", w.DBPath())
	}
}
