// internal/capsule/validator_test.go
package capsule

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"labelmatch/internal/common/logger"
	"labelmatch/internal/evidence"
)

func testEvidence() evidence.Set {
	return evidence.Set{
		Tokens:  []string{"HIPAA", "MD", "cardiology"},
		Phrases: []string{"clinical trials"},
	}
}

// ==========================
// User Capsule Validation
// ==========================

func TestValidator_EmptyEvidence(t *testing.T) {
	v := NewValidator(SectionDomain, evidence.DefaultMatchOptions(), logger.NewNoOpLogger())

	tests := []struct {
		name       string
		text       string
		wantText   string
		violations int
	}{
		{
			name:     "canonical sentence accepted",
			text:     NoEvidenceText,
			wantText: NoEvidenceText,
		},
		{
			name:       "fabricated text replaced",
			text:       "Performed analytics and documentation.\nKeywords: analytics",
			wantText:   NoEvidenceText,
			violations: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, violations := v.Validate(tt.text, evidence.Set{})
			assert.Equal(t, tt.wantText, got)
			assert.Len(t, violations, tt.violations)
		})
	}
}

func TestValidator_KeywordRules(t *testing.T) {
	v := NewValidator(SectionDomain, evidence.DefaultMatchOptions(), logger.NewNoOpLogger())
	ev := testEvidence()

	tests := []struct {
		name      string
		text      string
		wantCode  string
		wantValid bool
	}{
		{
			name:      "grounded capsule accepted",
			text:      "MD with cardiology background, ran clinical trials under HIPAA.\nKeywords: MD, cardiology, HIPAA",
			wantValid: true,
		},
		{
			name:     "missing keyword line",
			text:     "MD with cardiology background.",
			wantCode: ViolationKeywordsMissing,
		},
		{
			name:     "keyword not in evidence",
			text:     "MD with oncology background.\nKeywords: MD, oncology",
			wantCode: ViolationKeywordUngrounded + ":oncology",
		},
		{
			name:     "keyword absent from body",
			text:     "Cardiology background with clinical trials.\nKeywords: cardiology, HIPAA",
			wantCode: ViolationKeywordNotInBody + ":HIPAA",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, violations := v.Validate(tt.text, ev)
			if tt.wantValid {
				assert.Empty(t, violations)
				assert.NotEqual(t, NoEvidenceText, got)
				return
			}
			assert.Equal(t, NoEvidenceText, got)
			assert.Equal(t, []string{tt.wantCode}, violations)
		})
	}
}

func TestValidator_BlocklistedPhrases(t *testing.T) {
	v := NewValidator(SectionTask, evidence.DefaultMatchOptions(), logger.NewNoOpLogger())
	ev := evidence.Set{Tokens: []string{"annotation", "qa", "entry"}, Phrases: []string{"data entry", "annotation qa"}}

	// "data entry" has no legitimizing context.
	text := "Did annotation work and data entry.\nKeywords: annotation, data entry"
	got, violations := v.Validate(text, ev)
	assert.Equal(t, NoEvidenceText, got)
	assert.Equal(t, []string{ViolationBlockedPhrase + ":data entry"}, violations)

	// "qa" is fine inside "annotation qa".
	text = "Performed annotation qa on image datasets.\nKeywords: annotation qa"
	got, violations = v.Validate(text, ev)
	assert.Empty(t, violations)
	assert.Equal(t, "Performed annotation qa on image datasets.\nKeywords: annotation qa", got)
}

func TestSplitKeywords(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		wantBody string
		wantKws  []string
		found    bool
	}{
		{
			name:     "comma separated",
			text:     "Body text here.\nKeywords: a, b, c",
			wantBody: "Body text here.",
			wantKws:  []string{"a", "b", "c"},
			found:    true,
		},
		{
			name:     "semicolon separated",
			text:     "Body.\nKeywords: one; two",
			wantBody: "Body.",
			wantKws:  []string{"one", "two"},
			found:    true,
		},
		{
			name:     "whitespace fallback",
			text:     "Body.\nKeywords: alpha beta",
			wantBody: "Body.",
			wantKws:  []string{"alpha", "beta"},
			found:    true,
		},
		{
			name:     "no keyword line",
			text:     "Just a body.",
			wantBody: "Just a body.",
			found:    false,
		},
		{
			name:     "case-insensitive label",
			text:     "Body.\nKEYWORDS: x",
			wantBody: "Body.",
			wantKws:  []string{"x"},
			found:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, kws, found := SplitKeywords(tt.text)
			assert.Equal(t, tt.wantBody, body)
			assert.Equal(t, tt.wantKws, kws)
			assert.Equal(t, tt.found, found)
		})
	}
}

// ==========================
// Job Capsule Validation
// ==========================

func TestJobValidator_SectionLeaks(t *testing.T) {
	v := NewJobValidator(evidence.DefaultMatchOptions(), logger.NewNoOpLogger())
	ev := evidence.Set{Tokens: []string{"cardiology", "annotation"}}

	tests := []struct {
		name      string
		section   Section
		text      string
		reprompt  bool
		violation string
	}{
		{
			name:     "clean domain capsule",
			section:  SectionDomain,
			text:     "Requires cardiology expertise.\nKeywords: cardiology",
			reprompt: false,
		},
		{
			name:      "annotation leaks into domain capsule",
			section:   SectionDomain,
			text:      "Requires cardiology expertise for annotation.\nKeywords: cardiology, annotation",
			reprompt:  true,
			violation: ViolationAITermLeak + ":annotation",
		},
		{
			name:      "clinical duty leaks into task capsule",
			section:   SectionTask,
			text:      "Annotation of records plus patient care duties.\nKeywords: annotation",
			reprompt:  true,
			violation: ViolationDutyLeak + ":patient care",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			violations, needsReprompt := v.Validate(tt.section, tt.text, ev)
			assert.Equal(t, tt.reprompt, needsReprompt)
			if tt.violation != "" {
				assert.Contains(t, violations, tt.violation)
			}
		})
	}
}
