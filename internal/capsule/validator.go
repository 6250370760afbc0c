// internal/capsule/validator.go
package capsule

import (
	"strings"

	"labelmatch/internal/common/logger"
	"labelmatch/internal/common/metrics"
	"labelmatch/internal/evidence"
)

// Violation codes returned by the validators.
const (
	ViolationEmptyEvidenceText = "EMPTY_EVIDENCE_TEXT_MISMATCH"
	ViolationKeywordsMissing   = "KEYWORDS_MISSING"
	ViolationKeywordUngrounded = "KEYWORD_NOT_GROUNDED"
	ViolationKeywordNotInBody  = "KEYWORD_NOT_IN_BODY"
	ViolationBlockedPhrase     = "BLOCKLISTED_PHRASE"
	ViolationAITermLeak        = "AI_TERM_IN_DOMAIN_CAPSULE"
	ViolationDutyLeak          = "NON_AI_DUTY_IN_TASK_CAPSULE"
)

// bodyBlocklist maps generic filler phrases to the contexts that legitimize
// them. A phrase with no contexts is always a violation inside a capsule body.
var bodyBlocklist = map[string][]string{
	"data entry":       nil,
	"spreadsheet":      nil,
	"spreadsheets":     nil,
	"documentation":    nil,
	"clerical":         nil,
	"microsoft office": nil,
	"qa":               {"label qa", "labeling qa", "annotation qa"},
}

// Validator enforces grounding rules on user-side capsule text. It never
// fails: on any violation the text degrades to the canonical fallback and the
// violation codes are returned for the caller to log.
type Validator struct {
	section Section
	opts    evidence.MatchOptions
	log     logger.Logger
}

// NewValidator builds a validator for the given capsule section.
func NewValidator(section Section, opts evidence.MatchOptions, log logger.Logger) *Validator {
	return &Validator{section: section, opts: opts, log: log}
}

// Validate checks text against the evidence set. Rules run in order and the
// first failing rule wins, replacing the text with the canonical fallback.
// An empty violations list means the text was accepted as-is.
func (v *Validator) Validate(text string, ev evidence.Set) (string, []string) {
	violations := v.check(text, ev)
	if len(violations) == 0 {
		return strings.TrimSpace(text), nil
	}

	for _, code := range violations {
		metrics.CapsuleViolations.WithLabelValues(string(v.section), code).Inc()
	}
	v.log.Warn("capsule text replaced with fallback", map[string]interface{}{
		"section":    string(v.section),
		"violations": violations,
	})
	return NoEvidenceText, violations
}

func (v *Validator) check(text string, ev evidence.Set) []string {
	// Rule 1: with no evidence, only the canonical sentence is permitted.
	// Deviation is corrected silently rather than surfaced as an error.
	if ev.Empty() {
		if strings.TrimSpace(text) == NoEvidenceText {
			return nil
		}
		return []string{ViolationEmptyEvidenceText}
	}

	// Rule 2: the keyword line must be present and parseable.
	body, keywords, found := SplitKeywords(text)
	if !found || len(keywords) == 0 {
		return []string{ViolationKeywordsMissing}
	}

	// Rule 3: every keyword must be grounded in the evidence and appear in
	// the capsule body.
	lowerBody := strings.ToLower(body)
	for _, kw := range keywords {
		if !ev.ContainsPhrase(kw, v.opts) {
			return []string{ViolationKeywordUngrounded + ":" + kw}
		}
		if !strings.Contains(lowerBody, strings.ToLower(kw)) {
			return []string{ViolationKeywordNotInBody + ":" + kw}
		}
	}

	// Rule 4: the body must not contain blocklisted filler phrases outside
	// their allowed contexts.
	if phrase := findBlockedPhrase(lowerBody); phrase != "" {
		return []string{ViolationBlockedPhrase + ":" + phrase}
	}

	return nil
}

// findBlockedPhrase returns the first blocklisted phrase occurring in body
// outside of every allowed context, or empty when the body is clean.
func findBlockedPhrase(lowerBody string) string {
	for phrase, contexts := range bodyBlocklist {
		for _, idx := range phraseIndexes(lowerBody, phrase) {
			if !coveredByContext(lowerBody, phrase, idx, contexts) {
				return phrase
			}
		}
	}
	return ""
}

// phraseIndexes finds whole-word occurrences of phrase in s.
func phraseIndexes(s, phrase string) []int {
	var out []int
	for start := 0; ; {
		idx := strings.Index(s[start:], phrase)
		if idx < 0 {
			break
		}
		abs := start + idx
		if wholeWordAt(s, abs, len(phrase)) {
			out = append(out, abs)
		}
		start = abs + len(phrase)
	}
	return out
}

func wholeWordAt(s string, idx, length int) bool {
	if idx > 0 && isWordByte(s[idx-1]) {
		return false
	}
	end := idx + length
	if end < len(s) && isWordByte(s[end]) {
		return false
	}
	return true
}

func isWordByte(b byte) bool {
	return b == '_' ||
		(b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

// coveredByContext reports whether the phrase occurrence at idx sits inside
// one of the allowed contexts (e.g. "qa" inside "annotation qa").
func coveredByContext(s, phrase string, idx int, contexts []string) bool {
	for _, ctx := range contexts {
		offset := strings.Index(ctx, phrase)
		if offset < 0 {
			continue
		}
		start := idx - offset
		if start >= 0 && start+len(ctx) <= len(s) && s[start:start+len(ctx)] == ctx {
			return true
		}
	}
	return false
}
