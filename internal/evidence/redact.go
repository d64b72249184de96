package evidence

import (
	"fmt"
	"regexp"
)

// redaction patterns: each match is replaced with a [REDACTED:<kind>]
// marker before the content is stored. The set targets credentials and
// direct personal identifiers; it makes no completeness claim beyond it.
var redactionPatterns = []struct {
	kind string
	re   *regexp.Regexp
}{
	{"email", regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)},
	{"ipv4", regexp.MustCompile(`\b(?:\d{1,3}\.){3}\d{1,3}\b`)},
	{"bearer", regexp.MustCompile(`(?i)bearer\s+[A-Za-z0-9._~+/=-]{16,}`)},
	{"token", regexp.MustCompile(`(?i)\b(?:api[_-]?key|token|secret|password|passwd)\s*[:=]\s*\S+`)},
	{"aws-key", regexp.MustCompile(`\bAKIA[0-9A-Z]{16}\b`)},
	{"private-key", regexp.MustCompile(`-----BEGIN [A-Z ]*PRIVATE KEY-----`)},
}

// Redact replaces every pattern match and returns the cleaned content
// plus the number of replacements made.
func Redact(data []byte) ([]byte, int) {
	total := 0
	for _, p := range redactionPatterns {
		marker := []byte(fmt.Sprintf("[REDACTED:%s]", p.kind))
		data = p.re.ReplaceAllFunc(data, func([]byte) []byte {
			total++
			return marker
		})
	}
	return data, total
}
