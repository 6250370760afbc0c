// internal/classify/taxonomy.go
package classify

import (
	"regexp"
	"sort"
	"strings"

	"labelmatch/internal/common/config"
	"labelmatch/internal/models"
)

// Taxonomy is the immutable classification vocabulary, built once at startup
// from the built-in tables merged with config overrides and passed by
// injection. Nothing mutates it after construction.
type Taxonomy struct {
	advancedCredentials map[string]struct{}
	midCredentials      map[string]struct{}
	writtenOutForms     map[string]string
	writtenFormKeys     []string // sorted, so extraction order is stable
	credentialDomains   map[string][]string
	specializedCodes    map[string]struct{}

	professionalRoles []string
	softSpecialized   []string
	genericSignals    []string
	labelerTitles     []string
	taskCapabilities  []string

	// Platform names matched with word boundaries so "surge" never fires
	// inside "surgeon".
	platformRes map[string]*regexp.Regexp
}

var builtinAdvancedCredentials = []string{
	"MD", "DO", "JD", "PhD", "PharmD", "DDS", "DVM", "OD", "DPT", "PE", "Esq",
}

var builtinMidCredentials = []string{
	"RN", "NP", "PA", "CPA", "CFA", "LPN", "EMT", "EIT", "MBA", "MPH", "MSN",
	"LCSW", "CRNA", "FNP", "RDN", "BSN",
}

var builtinWrittenOutForms = map[string]string{
	"medical doctor":                "MD",
	"doctor of medicine":            "MD",
	"doctor of osteopathy":          "DO",
	"juris doctor":                  "JD",
	"doctor of law":                 "JD",
	"doctor of philosophy":          "PhD",
	"registered nurse":              "RN",
	"nurse practitioner":            "NP",
	"physician assistant":           "PA",
	"professional engineer":         "PE",
	"certified public accountant":   "CPA",
	"chartered financial analyst":   "CFA",
	"licensed practical nurse":      "LPN",
	"doctor of pharmacy":            "PharmD",
	"doctor of dental surgery":      "DDS",
	"doctor of veterinary medicine": "DVM",
}

var builtinCredentialDomains = map[string][]string{
	"MD":     {"medical"},
	"DO":     {"medical"},
	"RN":     {"medical:nursing"},
	"NP":     {"medical:nursing"},
	"PA":     {"medical"},
	"LPN":    {"medical:nursing"},
	"CRNA":   {"medical:nursing"},
	"FNP":    {"medical:nursing"},
	"MSN":    {"medical:nursing"},
	"BSN":    {"medical:nursing"},
	"EMT":    {"medical:emergency"},
	"PharmD": {"medical:pharmacy"},
	"DDS":    {"medical:dental"},
	"DVM":    {"medical:veterinary"},
	"OD":     {"medical:optometry"},
	"DPT":    {"medical:physical-therapy"},
	"RDN":    {"medical:nutrition"},
	"MPH":    {"medical:public-health"},
	"LCSW":   {"medical:behavioral-health"},
	"JD":     {"legal"},
	"Esq":    {"legal"},
	"PE":     {"engineering"},
	"EIT":    {"engineering"},
	"CPA":    {"finance:accounting"},
	"CFA":    {"finance"},
	"MBA":    {"finance", "business"},
	"PhD":    {"research"},
}

var builtinSpecializedCodes = []string{
	"medical", "legal", "engineering", "finance", "research", "science",
}

var builtinProfessionalRoles = []string{
	"physician", "surgeon", "doctor", "attorney", "lawyer", "paralegal",
	"nurse", "pharmacist", "dentist", "veterinarian", "engineer",
	"accountant", "auditor", "scientist", "researcher", "professor",
	"radiologist", "cardiologist", "psychiatrist", "therapist", "actuary",
}

var builtinSoftSpecialized = []string{
	"clinical", "board-certified", "board certified", "licensed", "residency",
	"fellowship", "accredited", "chartered", "malpractice", "diagnosis",
	"litigation", "regulatory",
}

var builtinGenericSignals = []string{
	"bounding box", "bounding boxes", "image tagging", "data labeling",
	"entry level", "entry-level", "no experience required",
	"no experience necessary", "anyone can apply", "simple tasks",
	"basic annotation", "image classification",
}

var builtinLabelerTitles = []string{
	"data annotator", "data labeler", "ai trainer", "labeler", "annotator",
	"rater", "search evaluator", "crowdworker", "transcriptionist",
	"content moderator",
}

var builtinTaskCapabilities = []string{
	"rlhf", "sft", "dpo", "annotation", "labeling", "transcription",
	"segmentation", "content moderation", "prompt writing",
	"response ranking", "model evaluation", "red-teaming", "search relevance",
}

var builtinPlatforms = []string{
	"scale", "appen", "surge", "labelbox", "mturk", "prolific", "toloka",
	"remotasks", "dataannotation", "outlier", "clickworker", "lionbridge",
}

// Tier keywords looked for verbatim in postings; an explicit mention takes
// precedence over every derivation rule.
var tierKeywords = map[string]models.ExpertiseTier{
	"specialist tier":   models.TierSpecialist,
	"expert tier":       models.TierExpert,
	"intermediate tier": models.TierIntermediate,
	"entry tier":        models.TierEntry,
}

// NewTaxonomy merges the built-in tables with config overrides.
func NewTaxonomy(cfg config.TaxonomyConfig) *Taxonomy {
	t := &Taxonomy{
		advancedCredentials: upperSet(builtinAdvancedCredentials),
		midCredentials:      upperSet(builtinMidCredentials),
		writtenOutForms:     copyMap(builtinWrittenOutForms),
		credentialDomains:   upperSliceMap(builtinCredentialDomains),
		specializedCodes:    lowerSet(builtinSpecializedCodes),
		professionalRoles:   append([]string(nil), builtinProfessionalRoles...),
		softSpecialized:     append([]string(nil), builtinSoftSpecialized...),
		genericSignals:      append([]string(nil), builtinGenericSignals...),
		labelerTitles:       append([]string(nil), builtinLabelerTitles...),
		taskCapabilities:    append([]string(nil), builtinTaskCapabilities...),
		platformRes:         make(map[string]*regexp.Regexp, len(builtinPlatforms)),
	}

	for cred, codes := range cfg.CredentialDomains {
		t.credentialDomains[strings.ToUpper(cred)] = append([]string(nil), codes...)
	}
	for _, code := range cfg.SpecializedCodes {
		t.specializedCodes[strings.ToLower(code)] = struct{}{}
	}

	for _, p := range builtinPlatforms {
		t.platformRes[p] = regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(p) + `\b`)
	}

	t.writtenFormKeys = make([]string, 0, len(t.writtenOutForms))
	for form := range t.writtenOutForms {
		t.writtenFormKeys = append(t.writtenFormKeys, form)
	}
	sort.Strings(t.writtenFormKeys)

	return t
}

// IsAdvancedCredential reports whether cred (upper-cased) is an advanced
// credential such as MD or JD.
func (t *Taxonomy) IsAdvancedCredential(cred string) bool {
	_, ok := t.advancedCredentials[strings.ToUpper(cred)]
	return ok
}

// IsMidCredential reports whether cred is a mid-level credential such as RN.
func (t *Taxonomy) IsMidCredential(cred string) bool {
	_, ok := t.midCredentials[strings.ToUpper(cred)]
	return ok
}

// IsCredential reports whether cred is any known credential.
func (t *Taxonomy) IsCredential(cred string) bool {
	return t.IsAdvancedCredential(cred) || t.IsMidCredential(cred)
}

// DomainCodesFor returns the subject-matter codes associated with a credential.
func (t *Taxonomy) DomainCodesFor(cred string) []string {
	return t.credentialDomains[strings.ToUpper(cred)]
}

// IsSpecializedCode reports whether the root of code names a specialized domain.
func (t *Taxonomy) IsSpecializedCode(code string) bool {
	root := strings.ToLower(code)
	if idx := strings.Index(root, ":"); idx >= 0 {
		root = root[:idx]
	}
	_, ok := t.specializedCodes[root]
	return ok
}

func upperSet(items []string) map[string]struct{} {
	out := make(map[string]struct{}, len(items))
	for _, s := range items {
		out[strings.ToUpper(s)] = struct{}{}
	}
	return out
}

func lowerSet(items []string) map[string]struct{} {
	out := make(map[string]struct{}, len(items))
	for _, s := range items {
		out[strings.ToLower(s)] = struct{}{}
	}
	return out
}

func copyMap(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// upperSliceMap copies the map with upper-cased keys so lookups can normalize
// the credential the same way.
func upperSliceMap(in map[string][]string) map[string][]string {
	out := make(map[string][]string, len(in))
	for k, v := range in {
		out[strings.ToUpper(k)] = append([]string(nil), v...)
	}
	return out
}
