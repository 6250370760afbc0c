// internal/classify/eligibility.go
package classify

import (
	"strings"

	"labelmatch/internal/models"
)

// EligibleForSpecializedJob reports whether a classified user may be scored
// against a specialized posting at all. Only domain_expert and mixed users
// qualify. Beyond the class, a posting that demands credentials passes only
// users holding one of them; a posting that demands subject-matter codes
// passes users covering at least one, where the user's "medical:nursing"
// satisfies both "medical:nursing" and the bare root "medical". A posting with
// neither demand admits every expert or mixed user.
func EligibleForSpecializedJob(jobReq models.Requirements, user models.ClassificationResult) bool {
	if cls := user.UserClass(); cls != models.UserDomainExpert && cls != models.UserMixed {
		return false
	}
	if len(jobReq.Credentials) > 0 && !intersects(jobReq.Credentials, user.Requirements.Credentials) {
		return false
	}
	if len(jobReq.SubjectMatterCodes) > 0 && !coversAnyCode(jobReq.SubjectMatterCodes, user.Requirements.SubjectMatterCodes) {
		return false
	}
	if jobReq.MinExperienceYears > 0 && user.Requirements.MinExperienceYears < jobReq.MinExperienceYears {
		return false
	}
	return true
}

// ShouldExcludeFromGenericJob reports whether a user is filtered out of a
// generic posting's candidate pool. Pure domain experts with no labeling
// history are excluded; mixed profiles never are.
func ShouldExcludeFromGenericJob(user models.ClassificationResult, profile *models.NormalizedProfile) bool {
	return user.UserClass() == models.UserDomainExpert && len(profile.LabelingExperience) == 0
}

func intersects(want, have []string) bool {
	for _, w := range want {
		for _, h := range have {
			if strings.EqualFold(w, h) {
				return true
			}
		}
	}
	return false
}

// coversAnyCode matches hierarchical subject-matter codes. A user code covers
// a wanted code when they are equal, when the wanted code is the user code's
// root ("medical" wants, "medical:nursing" has), or when the user holds the
// root of a wanted subcode ("medical:nursing" wants, "medical" has).
func coversAnyCode(want, have []string) bool {
	for _, w := range want {
		w = strings.ToLower(w)
		for _, h := range have {
			h = strings.ToLower(h)
			if w == h || rootOf(h) == w || rootOf(w) == h {
				return true
			}
		}
	}
	return false
}

func rootOf(code string) string {
	if idx := strings.Index(code, ":"); idx >= 0 {
		return code[:idx]
	}
	return code
}
