package workspace

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	yaml "gopkg.in/yaml.v3"
)

// LoadFromPath reads a workspace file (YAML or JSON) and returns the
// parsed Workspace with defaults applied. Format is detected by
// extension (.yaml/.yml/.json) or by content.
func LoadFromPath(path string) (*Workspace, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read workspace: %w", err)
	}
	return Load(data, filepath.Ext(path))
}

// Load parses a workspace document from bytes. ext is the file extension
// as a format hint; empty means detect from content.
func Load(data []byte, ext string) (*Workspace, error) {
	ext = strings.ToLower(ext)
	if ext == ".yml" {
		ext = ".yaml"
	}
	var w Workspace
	switch ext {
	case ".yaml":
		if err := yaml.Unmarshal(data, &w); err != nil {
			return nil, fmt.Errorf("parse workspace yaml: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, &w); err != nil {
			return nil, fmt.Errorf("parse workspace json: %w", err)
		}
	default:
		// Detect: JSON starts with {, everything else parses as YAML.
		if strings.HasPrefix(strings.TrimSpace(string(data)), "{") {
			if err := json.Unmarshal(data, &w); err != nil {
				return nil, fmt.Errorf("parse workspace json: %w", err)
			}
		} else if err := yaml.Unmarshal(data, &w); err != nil {
			return nil, fmt.Errorf("parse workspace yaml: %w", err)
		}
	}
	w.fill()
	return &w, nil
}

// Discover probes for a workspace file in dir. When none exists the
// defaults are returned; a missing config file is not an error.
func Discover(dir string) (*Workspace, error) {
	for _, name := range ConfigNames {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return LoadFromPath(path)
		}
	}
	return Default(), nil
}
