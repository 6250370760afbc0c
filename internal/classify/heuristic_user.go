// internal/classify/heuristic_user.go
package classify

import (
	"fmt"
	"strings"

	"labelmatch/internal/models"
)

// Independent minimums for the mixed classification: a profile is only mixed
// when it clears BOTH bars on its own, never because two weak signals add up.
const (
	mixedExpertMin  = 3
	mixedLabelerMin = 3
)

// HeuristicUserClassifier scores the professional and labeling sides of a
// profile independently and classifies from the two totals.
type HeuristicUserClassifier struct {
	tax *Taxonomy
}

func NewHeuristicUserClassifier(tax *Taxonomy) *HeuristicUserClassifier {
	return &HeuristicUserClassifier{tax: tax}
}

func (c *HeuristicUserClassifier) Classify(user *models.NormalizedProfile) models.ClassificationResult {
	lower := strings.ToLower(user.CombinedText())

	var signals []string
	expert := 0
	labeler := 0

	req := models.Requirements{
		Countries: append([]string(nil), user.Countries...),
		Languages: append([]string(nil), user.Languages...),
	}

	codeSeen := make(map[string]struct{})
	for _, cred := range user.Credentials {
		cred = strings.ToUpper(strings.TrimSpace(cred))
		if !c.tax.IsCredential(cred) {
			continue
		}
		req.Credentials = append(req.Credentials, cred)
		signals = append(signals, "credential:"+cred)
		if c.tax.IsAdvancedCredential(cred) {
			expert += 3
		} else {
			expert += 2
		}
		for _, code := range c.tax.DomainCodesFor(cred) {
			if _, ok := codeSeen[code]; !ok {
				codeSeen[code] = struct{}{}
				req.SubjectMatterCodes = append(req.SubjectMatterCodes, code)
			}
		}
	}

	if role := firstContained(lower, c.tax.professionalRoles); role != "" {
		expert += 2
		signals = append(signals, "role:"+role)
	}
	if soft := firstContained(lower, c.tax.softSpecialized); soft != "" {
		expert++
		signals = append(signals, "soft:"+soft)
	}

	years := user.ExperienceYears
	if fromText := extractExperienceYears(lower); fromText > years {
		years = fromText
	}
	req.MinExperienceYears = years
	if years >= 5 {
		expert++
	}

	if len(user.LabelingExperience) > 0 {
		labeler += 2
		signals = append(signals, fmt.Sprintf("labeling-history:%d", len(user.LabelingExperience)))
	}
	if title := firstContained(lower, c.tax.labelerTitles); title != "" {
		labeler += 2
		signals = append(signals, "title:"+title)
	}
	if capability := firstContained(lower, c.tax.taskCapabilities); capability != "" {
		labeler++
		signals = append(signals, "capability:"+capability)
	}
	for _, name := range builtinPlatforms {
		if c.tax.platformRes[name].MatchString(lower) {
			labeler++
			signals = append(signals, "platform:"+name)
			break
		}
	}

	class := models.UserGeneralLabeler
	confidence := 0.6
	reasoning := "no strong professional signals"
	switch {
	case expert >= mixedExpertMin && labeler >= mixedLabelerMin:
		class = models.UserMixed
		confidence = 0.8
		reasoning = fmt.Sprintf("professional score %d and labeling score %d both qualify", expert, labeler)
	case expert > labeler && expert >= 2:
		class = models.UserDomainExpert
		confidence = 0.75 + float64(expert)*0.04
		reasoning = fmt.Sprintf("professional score %d dominates labeling score %d", expert, labeler)
	case labeler > 0:
		confidence = 0.7
		reasoning = fmt.Sprintf("labeling score %d dominates professional score %d", labeler, expert)
	}

	if confidence > 0.95 {
		confidence = 0.95
	}

	req.ExpertiseTier = c.deriveTier(req, class)

	return models.ClassificationResult{
		Class:        string(class),
		Confidence:   confidence,
		Requirements: req,
		Reasoning:    reasoning,
		Signals:      signals,
	}
}

func (c *HeuristicUserClassifier) deriveTier(req models.Requirements, class models.UserClass) models.ExpertiseTier {
	if class == models.UserGeneralLabeler {
		if req.MinExperienceYears >= 2 {
			return models.TierIntermediate
		}
		return models.TierEntry
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
