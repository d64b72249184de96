package template

import (
	"os"
	"path/filepath"
	"testing"

	"fathom/internal/casefile"
)

func TestMatchRanksByKeywordHits(t *testing.T) {
	lib := NewLibrary(nil)
	matches := lib.Match("pods crash with oom and restart every minute", "")
	if len(matches) == 0 {
		t.Fatal("no matches for crash-loop text")
	}
	if matches[0].Template.Name != "crash-loop" {
		t.Errorf("top match: %s (score %d)", matches[0].Template.Name, matches[0].Score)
	}
	for i := 1; i < len(matches); i++ {
		if matches[i].Score > matches[i-1].Score {
			t.Errorf("matches not sorted: %d before %d", matches[i-1].Score, matches[i].Score)
		}
	}
}

func TestMatchExcludesZeroHits(t *testing.T) {
	lib := NewLibrary(nil)
	for _, m := range lib.Match("completely unrelated text about gardening", "") {
		if m.Score == 0 {
			t.Errorf("zero-score template %s included", m.Template.Name)
		}
	}
}

func TestApplySeedsCaseVerbatim(t *testing.T) {
	c := casefile.New("api down", "responses", "503s")
	tpl := NewLibrary(nil).Get("service-outage")
	if tpl == nil {
		t.Fatal("builtin service-outage missing")
	}
	Apply(c, tpl)

	if len(c.Questions) != len(tpl.Questions) {
		t.Fatalf("questions: got %d want %d", len(c.Questions), len(tpl.Questions))
	}
	if c.Questions[0].Prompt != tpl.Questions[0].Prompt || !c.Questions[0].Required {
		t.Errorf("question[0]: %+v", c.Questions[0])
	}
	if c.Questions[0].Status != casefile.QuestionOpen {
		t.Errorf("question status: %s", c.Questions[0].Status)
	}
	if len(c.Hypotheses) != len(tpl.Hypotheses) {
		t.Errorf("hypotheses: got %d want %d", len(c.Hypotheses), len(tpl.Hypotheses))
	}
	if c.Classification != "availability" {
		t.Errorf("classification: %q", c.Classification)
	}
}

func TestApplyClassificationFirstWins(t *testing.T) {
	c := casefile.New("api down", "responses", "503s")
	c.Classification = "already-set"
	Apply(c, NewLibrary(nil).Get("service-outage"))
	if c.Classification != "already-set" {
		t.Errorf("classification overwritten: %q", c.Classification)
	}
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	doc := `name: custom-dns
keywords: [dns, resolve, nxdomain]
classification: networking
questions:
  - prompt: Which resolver is configured?
    required: true
hypotheses:
  - upstream resolver drops AAAA queries
`
	if err := os.WriteFile(filepath.Join(dir, "dns.yaml"), []byte(doc), 0644); err != nil {
		t.Fatal(err)
	}

	lib, err := LoadDir(dir)
	if err != nil {
		t.Fatalf("LoadDir: %v", err)
	}
	tpl := lib.Get("custom-dns")
	if tpl == nil {
		t.Fatal("custom-dns not loaded")
	}
	if len(tpl.Questions) != 1 || !tpl.Questions[0].Required {
		t.Errorf("questions: %+v", tpl.Questions)
	}

	matches := lib.Match("curl fails with NXDOMAIN, cannot resolve host", "")
	if len(matches) == 0 || matches[0].Template.Name != "custom-dns" {
		t.Errorf("dns text did not rank custom-dns first: %+v", matches)
	}
}

func TestLoadDirMissingIsEmpty(t *testing.T) {
	lib, err := LoadDir(filepath.Join(t.TempDir(), "nope"))
	if err != nil {
		t.Fatalf("LoadDir missing dir: %v", err)
	}
	if got := lib.Get("service-outage"); got == nil {
		t.Error("builtins unavailable from empty library")
	}
}
