// internal/classify/heuristic_job.go
package classify

import (
	"fmt"
	"strings"

	"labelmatch/internal/models"
)

// HeuristicJobClassifier is the deterministic posting classifier. It never
// errors and never calls out, so it doubles as the fallback when the model
// path is unavailable.
type HeuristicJobClassifier struct {
	tax *Taxonomy
}

func NewHeuristicJobClassifier(tax *Taxonomy) *HeuristicJobClassifier {
	return &HeuristicJobClassifier{tax: tax}
}

// Classify applies the precedence rules: a hard credential requirement makes
// the posting specialized no matter what else it says; soft specialized
// context only wins when no generic signal is present; everything else is
// generic.
func (c *HeuristicJobClassifier) Classify(job *models.NormalizedProfile) models.ClassificationResult {
	req := ExtractRequirements(c.tax, job)
	lower := strings.ToLower(job.CombinedText())

	var signals []string
	generic := firstContained(lower, c.tax.genericSignals)
	if generic != "" {
		signals = append(signals, "generic:"+generic)
	}

	class := models.JobGeneric
	confidence := 0.6
	reasoning := "no specialized requirement detected"

	switch {
	case len(req.Credentials) > 0:
		class = models.JobSpecialized
		confidence = 0.95
		reasoning = fmt.Sprintf("requires credential %s", req.Credentials[0])
		signals = append(signals, "credential:"+req.Credentials[0])
	case firstContained(lower, c.tax.softSpecialized) != "":
		soft := firstContained(lower, c.tax.softSpecialized)
		signals = append(signals, "soft:"+soft)
		if generic == "" {
			class = models.JobSpecialized
			confidence = 0.7
			reasoning = fmt.Sprintf("specialized context %q without generic signals", soft)
		} else {
			reasoning = fmt.Sprintf("specialized context %q overridden by generic signal %q", soft, generic)
		}
	case generic != "":
		confidence = 0.85
		reasoning = fmt.Sprintf("generic labeling signal %q", generic)
	}

	if class == models.JobSpecialized {
		req.ExpertiseTier = c.deriveTier(req)
	} else if req.ExpertiseTier == "" {
		req.ExpertiseTier = models.TierEntry
	}

	return models.ClassificationResult{
		Class:        string(class),
		Confidence:   confidence,
		Requirements: req,
		Reasoning:    reasoning,
		Signals:      signals,
	}
}

// deriveTier resolves the expertise tier for a specialized posting. An
// explicit tier keyword in the posting always wins.
func (c *HeuristicJobClassifier) deriveTier(req models.Requirements) models.ExpertiseTier {
	if req.ExpertiseTier != "" {
		return req.ExpertiseTier
	}

	hasPhD := false
	hasAdvanced := false
	hasMid := false
	for _, cred := range req.Credentials {
		switch {
		case strings.EqualFold(cred, "PhD"):
			hasPhD = true
		case c.tax.IsAdvancedCredential(cred):
			hasAdvanced = true
		case c.tax.IsMidCredential(cred):
			hasMid = true
		}
	}

	switch {
	case hasPhD:
		return models.TierSpecialist
	case hasAdvanced && req.MinExperienceYears >= 5:
		return models.TierSpecialist
	case hasAdvanced:
		return models.TierExpert
	case hasMid:
		return models.TierIntermediate
	case req.MinExperienceYears >= 10:
		return models.TierSpecialist
	case req.MinExperienceYears >= 5:
		return models.TierExpert
	case req.MinExperienceYears >= 2:
		return models.TierIntermediate
	}
	return models.TierEntry
}

func firstContained(haystack string, needles []string) string {
	for _, n := range needles {
		if strings.Contains(haystack, n) {
			return n
		}
	}
	return ""
}
