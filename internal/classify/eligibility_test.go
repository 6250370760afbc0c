// internal/classify/eligibility_test.go
package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"labelmatch/internal/models"
)

func classified(class models.UserClass, req models.Requirements) models.ClassificationResult {
	return models.ClassificationResult{Class: string(class), Confidence: 0.9, Requirements: req}
}

func TestEligibleForSpecializedJob(t *testing.T) {
	tests := []struct {
		name string
		job  models.Requirements
		user models.Requirements
		want bool
	}{
		{
			name: "matching credential",
			job:  models.Requirements{Credentials: []string{"MD"}},
			user: models.Requirements{Credentials: []string{"MD"}},
			want: true,
		},
		{
			name: "credential case-insensitive",
			job:  models.Requirements{Credentials: []string{"md"}},
			user: models.Requirements{Credentials: []string{"MD"}},
			want: true,
		},
		{
			name: "missing credential",
			job:  models.Requirements{Credentials: []string{"MD"}},
			user: models.Requirements{Credentials: []string{"RN"}},
			want: false,
		},
		{
			name: "subcode satisfies root demand",
			job:  models.Requirements{SubjectMatterCodes: []string{"medical"}},
			user: models.Requirements{SubjectMatterCodes: []string{"medical:nursing"}},
			want: true,
		},
		{
			name: "root satisfies subcode demand",
			job:  models.Requirements{SubjectMatterCodes: []string{"medical:nursing"}},
			user: models.Requirements{SubjectMatterCodes: []string{"medical"}},
			want: true,
		},
		{
			name: "sibling subcodes do not match",
			job:  models.Requirements{SubjectMatterCodes: []string{"medical:nursing"}},
			user: models.Requirements{SubjectMatterCodes: []string{"medical:dental"}},
			want: false,
		},
		{
			name: "unrelated domain",
			job:  models.Requirements{SubjectMatterCodes: []string{"legal"}},
			user: models.Requirements{SubjectMatterCodes: []string{"medical"}},
			want: false,
		},
		{
			name: "experience floor not met",
			job:  models.Requirements{MinExperienceYears: 5},
			user: models.Requirements{MinExperienceYears: 3},
			want: false,
		},
		{
			name: "experience floor met",
			job:  models.Requirements{MinExperienceYears: 5},
			user: models.Requirements{MinExperienceYears: 6},
			want: true,
		},
		{
			name: "no demands admits any expert",
			job:  models.Requirements{},
			user: models.Requirements{},
			want: true,
		},
		{
			name: "credential met but experience not",
			job:  models.Requirements{Credentials: []string{"MD"}, MinExperienceYears: 10},
			user: models.Requirements{Credentials: []string{"MD"}, MinExperienceYears: 4},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user := classified(models.UserDomainExpert, tt.user)
			assert.Equal(t, tt.want, EligibleForSpecializedJob(tt.job, user))
		})
	}
}

func TestEligibleForSpecializedJob_ClassGate(t *testing.T) {
	// A specialized posting with no credential or code demands still only
	// admits domain_expert and mixed users.
	open := models.Requirements{}

	assert.False(t, EligibleForSpecializedJob(open, classified(models.UserGeneralLabeler, models.Requirements{})))
	assert.True(t, EligibleForSpecializedJob(open, classified(models.UserMixed, models.Requirements{})))
	assert.True(t, EligibleForSpecializedJob(open, classified(models.UserDomainExpert, models.Requirements{})))

	demanding := models.Requirements{Credentials: []string{"MD"}}
	holder := models.Requirements{Credentials: []string{"MD"}}
	assert.False(t, EligibleForSpecializedJob(demanding, classified(models.UserGeneralLabeler, holder)),
		"class gate applies even when the credential matches")
	assert.True(t, EligibleForSpecializedJob(demanding, classified(models.UserMixed, holder)))
}

func TestShouldExcludeFromGenericJob(t *testing.T) {
	expert := classified(models.UserDomainExpert, models.Requirements{})
	mixed := classified(models.UserMixed, models.Requirements{})
	labeler := classified(models.UserGeneralLabeler, models.Requirements{})

	noHistory := &models.NormalizedProfile{ID: "u1", Kind: models.KindUser}
	withHistory := &models.NormalizedProfile{
		ID:                 "u2",
		Kind:               models.KindUser,
		LabelingExperience: []string{"image tagging"},
	}

	assert.True(t, ShouldExcludeFromGenericJob(expert, noHistory))
	assert.False(t, ShouldExcludeFromGenericJob(expert, withHistory))
	assert.False(t, ShouldExcludeFromGenericJob(mixed, noHistory))
	assert.False(t, ShouldExcludeFromGenericJob(labeler, noHistory))
}
