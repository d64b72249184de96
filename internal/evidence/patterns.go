package evidence

import (
	"bufio"
	"fmt"
	"os"
	"regexp"
	"sort"

	"fathom/internal/casefile"
)

// failure signatures counted by the findings scanner. Report synthesis
// uses these counts as its context-specific pattern findings.
var failureSignatures = []struct {
	name string
	re   *regexp.Regexp
}{
	{"error", regexp.MustCompile(`(?i)\berror\b`)},
	{"panic", regexp.MustCompile(`(?i)\bpanic\b`)},
	{"timeout", regexp.MustCompile(`(?i)\btime[d]?[ -]?out\b`)},
	{"oom-kill", regexp.MustCompile(`(?i)\boom[- ]?kill`)},
	{"connection-refused", regexp.MustCompile(`(?i)connection refused`)},
	{"permission-denied", regexp.MustCompile(`(?i)permission denied`)},
	{"segfault", regexp.MustCompile(`(?i)segmentation fault|SIGSEGV`)},
}

// Findings scans the case's stored text evidence and returns one line per
// signature that occurs, with its total count and the evidence files it
// appears in. Deterministic: sorted by count descending, then name.
func (m *Manager) Findings(c *casefile.Case) []string {
	type hit struct {
		name  string
		count int
		files int
	}
	hits := make(map[string]*hit)

	for _, ev := range c.Evidence {
		if !isTextMedia(ev.MediaType) {
			continue
		}
		f, err := os.Open(ev.Path)
		if err != nil {
			continue
		}
		seen := make(map[string]bool)
		sc := bufio.NewScanner(f)
		sc.Buffer(make([]byte, 64*1024), 1024*1024)
		for sc.Scan() {
			line := sc.Bytes()
			for _, sig := range failureSignatures {
				if n := len(sig.re.FindAll(line, -1)); n > 0 {
					h := hits[sig.name]
					if h == nil {
						h = &hit{name: sig.name}
						hits[sig.name] = h
					}
					h.count += n
					if !seen[sig.name] {
						h.files++
						seen[sig.name] = true
					}
				}
			}
		}
		f.Close()
	}

	ordered := make([]*hit, 0, len(hits))
	for _, h := range hits {
		ordered = append(ordered, h)
	}
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].count != ordered[j].count {
			return ordered[i].count > ordered[j].count
		}
		return ordered[i].name < ordered[j].name
	})

	out := make([]string, 0, len(ordered))
	for _, h := range ordered {
		out = append(out, fmt.Sprintf("%s: %d occurrence(s) across %d evidence file(s)", h.name, h.count, h.files))
	}
	return out
}
