// internal/capsule/job_validator.go
package capsule

import (
	"strings"

	"labelmatch/internal/common/logger"
	"labelmatch/internal/common/metrics"
	"labelmatch/internal/evidence"
)

// Terms that indicate AI/ML task content leaking into a domain capsule.
var aiLeakTerms = []string{
	"rlhf", "sft", "dpo", "annotation", "annotating", "labeling", "labelling",
	"bounding box", "model training", "fine-tuning", "llm", "prompt",
	"data labeling",
}

// Terms that indicate clinical/operational non-AI duties leaking into a task
// capsule.
var dutyLeakTerms = []string{
	"patient care", "clinical rotation", "bedside", "surgery", "litigation",
	"court filing", "patient scheduling", "billing", "charting", "rounds",
}

// JobValidator enforces the symmetric grounding rules on job-side capsules.
// Job capsules have no safe fixed fallback, so instead of substituting text it
// reports whether the capsule needs a reprompt.
type JobValidator struct {
	opts evidence.MatchOptions
	log  logger.Logger
}

// NewJobValidator builds the job-side validator.
func NewJobValidator(opts evidence.MatchOptions, log logger.Logger) *JobValidator {
	return &JobValidator{opts: opts, log: log}
}

// Validate checks job capsule text for the given section against its evidence
// set. needsReprompt is true when any rule failed.
func (v *JobValidator) Validate(section Section, text string, ev evidence.Set) (violations []string, needsReprompt bool) {
	body, keywords, found := SplitKeywords(text)

	if !ev.Empty() {
		if !found || len(keywords) == 0 {
			violations = append(violations, ViolationKeywordsMissing)
		}
		for _, kw := range keywords {
			if !ev.ContainsPhrase(kw, v.opts) {
				violations = append(violations, ViolationKeywordUngrounded+":"+kw)
			}
		}
	}

	lowerBody := strings.ToLower(body)
	switch section {
	case SectionDomain:
		for _, term := range aiLeakTerms {
			if containsWholeWord(lowerBody, term) {
				violations = append(violations, ViolationAITermLeak+":"+term)
			}
		}
	case SectionTask:
		for _, term := range dutyLeakTerms {
			if containsWholeWord(lowerBody, term) {
				violations = append(violations, ViolationDutyLeak+":"+term)
			}
		}
	}

	if len(violations) > 0 {
		for _, code := range violations {
			metrics.CapsuleViolations.WithLabelValues(string(section), code).Inc()
		}
		v.log.Warn("job capsule needs reprompt", map[string]interface{}{
			"section":    string(section),
			"violations": violations,
		})
		return violations, true
	}
	return nil, false
}

func containsWholeWord(s, phrase string) bool {
	return len(phraseIndexes(s, phrase)) > 0
}
