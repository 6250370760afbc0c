// internal/models/classification.go
package models

import "strings"

// JobClass is the outcome of job classification.
type JobClass string

const (
	JobSpecialized JobClass = "specialized"
	JobGeneric     JobClass = "generic"
)

// UserClass is the outcome of user classification.
type UserClass string

const (
	UserDomainExpert   UserClass = "domain_expert"
	UserGeneralLabeler UserClass = "general_labeler"
	UserMixed          UserClass = "mixed"
)

// ExpertiseTier grades how credentialed/experienced a profile is.
type ExpertiseTier string

const (
	TierEntry        ExpertiseTier = "entry"
	TierIntermediate ExpertiseTier = "intermediate"
	TierExpert       ExpertiseTier = "expert"
	TierSpecialist   ExpertiseTier = "specialist"
)

// ValidTiers lists every accepted tier value, lowest first.
var ValidTiers = []ExpertiseTier{TierEntry, TierIntermediate, TierExpert, TierSpecialist}

// NormalizeTier maps an arbitrary string to a valid tier, defaulting to entry.
func NormalizeTier(s string) ExpertiseTier {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, t := range ValidTiers {
		if string(t) == s {
			return t
		}
	}
	return TierEntry
}

// Requirements holds the structured demands parsed out of a posting or the
// structured capabilities parsed out of a résumé.
type Requirements struct {
	Credentials        []string      `json:"credentials"`
	MinExperienceYears int           `json:"minExperienceYears"`
	SubjectMatterCodes []string      `json:"subjectMatterCodes"`
	ExpertiseTier      ExpertiseTier `json:"expertiseTier"`
	Countries          []string      `json:"countries"`
	Languages          []string      `json:"languages"`
}

// ClassificationResult is the shared output shape for job and user
// classification. Class holds a JobClass value for jobs and a UserClass value
// for users.
type ClassificationResult struct {
	Class        string       `json:"class"`
	Confidence   float64      `json:"confidence"`
	Requirements Requirements `json:"requirements"`
	Reasoning    string       `json:"reasoning"`
	Signals      []string     `json:"signals"`
}

// JobClass returns the class as a JobClass, defaulting to generic.
func (r ClassificationResult) JobClass() JobClass {
	if r.Class == string(JobSpecialized) {
		return JobSpecialized
	}
	return JobGeneric
}

// UserClass returns the class as a UserClass, defaulting to general_labeler.
func (r ClassificationResult) UserClass() UserClass {
	switch r.Class {
	case string(UserDomainExpert):
		return UserDomainExpert
	case string(UserMixed):
		return UserMixed
	}
	return UserGeneralLabeler
}
