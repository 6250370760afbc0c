// Package capsule holds the short, semantically-controlled summaries that get
// embedded for similarity search, plus the validators that keep generated
// capsule text grounded in extracted evidence.
package capsule

import (
	"regexp"
	"strings"
)

// NoEvidenceText is the single canonical sentence a capsule degrades to when
// no evidence backs it. It is the only permitted text for an empty evidence
// set.
const NoEvidenceText = "No verifiable experience documented."

// Capsule is a short paragraph plus a trailing "Keywords: a, b, c" line.
type Capsule struct {
	Text string `json:"text"`
}

// Pair couples the domain-expertise capsule with the task-experience capsule
// for one profile.
type Pair struct {
	Domain Capsule `json:"domain"`
	Task   Capsule `json:"task"`
}

// Section names the two capsule flavors.
type Section string

const (
	SectionDomain Section = "domain"
	SectionTask   Section = "task"
)

var keywordLineRe = regexp.MustCompile(`(?im)^\s*keywords\s*:\s*(.*)$`)

// SplitKeywords separates the capsule body from its keyword list. The keyword
// line is comma-or-semicolon separated, falling back to a whitespace split
// when no delimiter is present. found is false when no keyword line exists.
func SplitKeywords(text string) (body string, keywords []string, found bool) {
	loc := keywordLineRe.FindStringSubmatchIndex(text)
	if loc == nil {
		return strings.TrimSpace(text), nil, false
	}

	body = strings.TrimSpace(text[:loc[0]] + text[loc[1]:])
	raw := strings.TrimSpace(text[loc[2]:loc[3]])
	if raw == "" {
		return body, nil, true
	}

	var parts []string
	switch {
	case strings.ContainsAny(raw, ",;"):
		parts = strings.FieldsFunc(raw, func(r rune) bool {
			return r == ',' || r == ';'
		})
	default:
		parts = strings.Fields(raw)
	}

	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			keywords = append(keywords, p)
		}
	}
	return body, keywords, true
}
