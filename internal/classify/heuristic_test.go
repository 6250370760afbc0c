// internal/classify/heuristic_test.go
package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"labelmatch/internal/models"
)

// ==========================
// Job Classification
// ==========================

func TestHeuristicJobClassifier_Precedence(t *testing.T) {
	c := NewHeuristicJobClassifier(testTaxonomy())

	tests := []struct {
		name       string
		title      string
		text       string
		wantClass  models.JobClass
		confidence float64
	}{
		{
			name:       "hard credential beats generic signals",
			title:      "Medical Annotation Reviewer",
			text:       "MD required. Tasks include bounding box annotation.",
			wantClass:  models.JobSpecialized,
			confidence: 0.95,
		},
		{
			name:       "soft context without generic signal",
			title:      "Records Reviewer",
			text:       "Clinical data review for our care team.",
			wantClass:  models.JobSpecialized,
			confidence: 0.7,
		},
		{
			name:       "generic signal overrides soft context",
			title:      "Image Tagger",
			text:       "Clinical content image tagging, entry level welcome.",
			wantClass:  models.JobGeneric,
			confidence: 0.6,
		},
		{
			name:       "pure generic posting",
			title:      "Image Tagger",
			text:       "Simple tasks, image classification, no experience required.",
			wantClass:  models.JobGeneric,
			confidence: 0.85,
		},
		{
			name:       "no signals at all",
			title:      "Helper",
			text:       "Help us review some records.",
			wantClass:  models.JobGeneric,
			confidence: 0.6,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := c.Classify(jobProfile(tt.title, tt.text))
			assert.Equal(t, tt.wantClass, res.JobClass())
			assert.InDelta(t, tt.confidence, res.Confidence, 1e-9)
		})
	}
}

func TestHeuristicJobClassifier_CredentialDetails(t *testing.T) {
	c := NewHeuristicJobClassifier(testTaxonomy())

	res := c.Classify(jobProfile("Medical Reviewer", "MD required, minimum of 5 years in practice."))
	assert.Equal(t, models.JobSpecialized, res.JobClass())
	assert.Equal(t, []string{"MD"}, res.Requirements.Credentials)
	assert.Equal(t, []string{"medical"}, res.Requirements.SubjectMatterCodes)
	assert.Equal(t, 5, res.Requirements.MinExperienceYears)
	assert.Contains(t, res.Signals, "credential:MD")
}

func TestHeuristicJobClassifier_TierDerivation(t *testing.T) {
	c := NewHeuristicJobClassifier(testTaxonomy())

	tests := []struct {
		name string
		text string
		want models.ExpertiseTier
	}{
		{"phd is specialist", "PhD required for research review.", models.TierSpecialist},
		{"advanced credential with five years", "MD required, minimum of 5 years in practice.", models.TierSpecialist},
		{"advanced credential alone", "MD required.", models.TierExpert},
		{"mid credential", "RN license required.", models.TierIntermediate},
		{"ten years without credential", "Clinical review, at least 10 years in the field.", models.TierSpecialist},
		{"five years without credential", "Clinical review, at least 5 years in the field.", models.TierExpert},
		{"two years without credential", "Clinical review, at least 2 years in the field.", models.TierIntermediate},
		{"one year without credential", "Clinical review, at least 1 year in the field.", models.TierEntry},
		{"explicit tier wins", "MD required. Intermediate tier.", models.TierIntermediate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := c.Classify(jobProfile("Reviewer", tt.text))
			assert.Equal(t, models.JobSpecialized, res.JobClass())
			assert.Equal(t, tt.want, res.Requirements.ExpertiseTier)
		})
	}
}

func TestHeuristicJobClassifier_GenericDefaultsToEntryTier(t *testing.T) {
	c := NewHeuristicJobClassifier(testTaxonomy())

	res := c.Classify(jobProfile("Image Tagger", "Basic annotation, no experience required."))
	assert.Equal(t, models.JobGeneric, res.JobClass())
	assert.Equal(t, models.TierEntry, res.Requirements.ExpertiseTier)
}

// ==========================
// User Classification
// ==========================

func userProfile(title, resume string) *models.NormalizedProfile {
	return &models.NormalizedProfile{
		ID:     "user-1",
		Kind:   models.KindUser,
		Title:  title,
		Resume: resume,
	}
}

func TestHeuristicUserClassifier_DomainExpert(t *testing.T) {
	c := NewHeuristicUserClassifier(testTaxonomy())

	p := userProfile("Cardiologist", "Practicing cardiologist with 8 years of experience.")
	p.Credentials = []string{"MD"}

	res := c.Classify(p)
	assert.Equal(t, models.UserDomainExpert, res.UserClass())
	assert.InDelta(t, 0.95, res.Confidence, 1e-9) // capped
	assert.Equal(t, []string{"MD"}, res.Requirements.Credentials)
	assert.Equal(t, []string{"medical"}, res.Requirements.SubjectMatterCodes)
	assert.Equal(t, 8, res.Requirements.MinExperienceYears)
	assert.Equal(t, models.TierSpecialist, res.Requirements.ExpertiseTier)
}

func TestHeuristicUserClassifier_GeneralLabeler(t *testing.T) {
	c := NewHeuristicUserClassifier(testTaxonomy())

	p := userProfile("Data Annotator", "Annotation work on mturk and other platforms.")
	p.LabelingExperience = []string{"image tagging project"}

	res := c.Classify(p)
	assert.Equal(t, models.UserGeneralLabeler, res.UserClass())
	assert.Equal(t, models.TierEntry, res.Requirements.ExpertiseTier)
	assert.Contains(t, res.Signals, "title:data annotator")
}

func TestHeuristicUserClassifier_Mixed(t *testing.T) {
	c := NewHeuristicUserClassifier(testTaxonomy())

	p := userProfile("Registered Nurse", "Nurse with data labeling experience on appen.")
	p.Credentials = []string{"RN"}
	p.LabelingExperience = []string{"medical record labeling"}

	res := c.Classify(p)
	assert.Equal(t, models.UserMixed, res.UserClass())
	assert.InDelta(t, 0.8, res.Confidence, 1e-9)
	assert.Equal(t, models.TierIntermediate, res.Requirements.ExpertiseTier)
}

func TestHeuristicUserClassifier_WeakSignalsNeverMix(t *testing.T) {
	c := NewHeuristicUserClassifier(testTaxonomy())

	// One soft professional signal plus one labeling capability: neither side
	// clears its bar, so the profile is not mixed.
	p := userProfile("Freelancer", "Some clinical exposure and a bit of annotation.")

	res := c.Classify(p)
	assert.NotEqual(t, models.UserMixed, res.UserClass())
}

func TestHeuristicUserClassifier_SurgeonIsNotSurgePlatform(t *testing.T) {
	c := NewHeuristicUserClassifier(testTaxonomy())

	p := userProfile("Surgeon", "General surgeon, 12 years of experience.")

	res := c.Classify(p)
	assert.Equal(t, models.UserDomainExpert, res.UserClass())
	assert.NotContains(t, res.Signals, "platform:surge")
	assert.Equal(t, models.TierSpecialist, res.Requirements.ExpertiseTier)
}

func TestHeuristicUserClassifier_ExperienceTierRungs(t *testing.T) {
	c := NewHeuristicUserClassifier(testTaxonomy())

	// Professional role, no credential: tier comes from tenure alone.
	tests := []struct {
		name   string
		resume string
		want   models.ExpertiseTier
	}{
		{"ten years", "Practicing physician with 10 years of experience.", models.TierSpecialist},
		{"five years", "Practicing physician with 5 years of experience.", models.TierExpert},
		{"two years", "Practicing physician with 2 years of experience.", models.TierIntermediate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := c.Classify(userProfile("Physician", tt.resume))
			assert.Equal(t, models.UserDomainExpert, res.UserClass())
			assert.Equal(t, tt.want, res.Requirements.ExpertiseTier)
		})
	}
}

func TestHeuristicUserClassifier_UnknownCredentialIgnored(t *testing.T) {
	c := NewHeuristicUserClassifier(testTaxonomy())

	p := userProfile("Contributor", "General freelance work.")
	p.Credentials = []string{"XYZ"}

	res := c.Classify(p)
	assert.Empty(t, res.Requirements.Credentials)
	assert.Equal(t, models.UserGeneralLabeler, res.UserClass())
}
