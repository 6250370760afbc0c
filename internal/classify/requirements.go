// internal/classify/requirements.go
package classify

import (
	"regexp"
	"strconv"
	"strings"

	"labelmatch/internal/models"
)

const maxExperienceYears = 50

var experiencePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bminimum\s+of\s+(\d{1,2})\s+years?\b`),
	regexp.MustCompile(`(?i)\bat\s+least\s+(\d{1,2})\s+years?\b`),
	regexp.MustCompile(`(?i)\b(\d{1,2})\s*\+\s*years?\b`),
	regexp.MustCompile(`(?i)\b(\d{1,2})\s+or\s+more\s+years?\b`),
	regexp.MustCompile(`(?i)\b(\d{1,2})\s*(?:-|–|\bto\b)\s*\d{1,2}\s+years?\b`),
	regexp.MustCompile(`(?i)\b(\d{1,2})\s+years?\s+(?:of\s+)?experience\b`),
}

// ExtractRequirements pulls structured requirements out of a job posting's
// free text. Credentials come from the written-out forms and whole-word
// acronym matches; the experience floor keeps the highest stated minimum
// (ranges keep their lower bound).
func ExtractRequirements(tax *Taxonomy, job *models.NormalizedProfile) models.Requirements {
	text := job.CombinedText()
	lower := strings.ToLower(text)

	req := models.Requirements{
		Countries: append([]string(nil), job.Countries...),
		Languages: append([]string(nil), job.Languages...),
	}

	creds := extractCredentials(tax, text, lower)
	req.Credentials = creds

	codeSeen := make(map[string]struct{})
	for _, cred := range creds {
		for _, code := range tax.DomainCodesFor(cred) {
			if _, ok := codeSeen[code]; ok {
				continue
			}
			codeSeen[code] = struct{}{}
			req.SubjectMatterCodes = append(req.SubjectMatterCodes, code)
		}
	}

	req.MinExperienceYears = extractExperienceYears(lower)
	req.ExpertiseTier = explicitTier(lower)

	return req
}

func extractCredentials(tax *Taxonomy, text, lower string) []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(cred string) {
		cred = strings.ToUpper(cred)
		if _, ok := seen[cred]; ok {
			return
		}
		seen[cred] = struct{}{}
		out = append(out, cred)
	}

	for _, form := range tax.writtenFormKeys {
		if strings.Contains(lower, form) {
			add(tax.writtenOutForms[form])
		}
	}

	// Acronyms must match case-sensitively as whole words so that "do" and
	// "pa" in prose never register as credentials.
	for _, word := range strings.FieldsFunc(text, func(r rune) bool {
		return !isCredentialRune(r)
	}) {
		trimmed := strings.ReplaceAll(word, ".", "") // "M.D." reads as MD
		if matchesKnownCasing(trimmed) && tax.IsCredential(trimmed) {
			add(trimmed)
		}
	}

	return out
}

// matchesKnownCasing requires the token to appear exactly as credentials are
// written (MD, PhD, PharmD), rejecting all-lowercase prose collisions like
// "do" and "pa".
func matchesKnownCasing(token string) bool {
	if token == "" {
		return false
	}
	upper := strings.ToUpper(token)
	return token == upper || token == canonicalMixedCase(upper)
}

func canonicalMixedCase(upper string) string {
	switch upper {
	case "PHD":
		return "PhD"
	case "PHARMD":
		return "PharmD"
	case "ESQ":
		return "Esq"
	}
	return upper
}

func isCredentialRune(r rune) bool {
	return r == '.' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func extractExperienceYears(lower string) int {
	years := 0
	for _, re := range experiencePatterns {
		for _, m := range re.FindAllStringSubmatch(lower, -1) {
			n, err := strconv.Atoi(m[1])
			if err != nil {
				continue
			}
			if n > maxExperienceYears {
				n = maxExperienceYears
			}
			if n > years {
				years = n
			}
		}
	}
	return years
}

func explicitTier(lower string) models.ExpertiseTier {
	for kw, tier := range tierKeywords {
		if strings.Contains(lower, kw) {
			return tier
		}
	}
	return ""
}
