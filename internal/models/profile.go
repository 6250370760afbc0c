// internal/models/profile.go
package models

import (
	"strconv"
	"strings"
)

// ProfileKind distinguishes the two sides of the marketplace.
type ProfileKind string

const (
	KindUser ProfileKind = "user"
	KindJob  ProfileKind = "job"
)

// NormalizedProfile is the flat, strongly-typed record every core component
// consumes. Upstream records arrive as loosely-typed JSON and are normalized
// here at the boundary; core logic never sees the raw shape. Immutable once
// built.
type NormalizedProfile struct {
	ID   string      `json:"id"`
	Kind ProfileKind `json:"kind"`

	// Free-text fields.
	Title        string `json:"title"`
	Resume       string `json:"resume,omitempty"`       // user work history
	Requirements string `json:"requirements,omitempty"` // job requirements text
	Instructions string `json:"instructions,omitempty"` // job task instructions

	// List fields.
	Languages          []string `json:"languages,omitempty"`
	Countries          []string `json:"countries,omitempty"`
	LabelTypes         []string `json:"labelTypes,omitempty"`
	Credentials        []string `json:"credentials,omitempty"` // as written by the author
	LabelingExperience []string `json:"labelingExperience,omitempty"`

	ExperienceYears int `json:"experienceYears,omitempty"`

	// Contact fields used by the notifier.
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`

	// Job-only flag, source of truth for the denormalized Qualification copy.
	Active bool `json:"active,omitempty"`
}

// CombinedText returns the concatenated free-text fields for evidence
// extraction, résumé text first for users, requirements first for jobs.
func (p NormalizedProfile) CombinedText() string {
	var parts []string
	if p.Kind == KindJob {
		parts = []string{p.Title, p.Requirements, p.Instructions}
	} else {
		parts = []string{p.Title, p.Resume}
	}
	out := make([]string, 0, len(parts))
	for _, s := range parts {
		if strings.TrimSpace(s) != "" {
			out = append(out, strings.TrimSpace(s))
		}
	}
	return strings.Join(out, "\n")
}

// NormalizeUser builds a NormalizedProfile from a loosely-typed user record.
func NormalizeUser(id string, raw map[string]interface{}) NormalizedProfile {
	return NormalizedProfile{
		ID:                 id,
		Kind:               KindUser,
		Title:              asString(raw["title"], raw["headline"]),
		Resume:             asString(raw["resume"], raw["bio"], raw["workHistory"]),
		Languages:          asStringSlice(raw["languages"]),
		Countries:          asStringSlice(raw["countries"]),
		Credentials:        asStringSlice(raw["credentials"]),
		LabelingExperience: asStringSlice(raw["labelingExperience"]),
		ExperienceYears:    asInt(raw["experienceYears"]),
		Email:              asString(raw["email"]),
		Phone:              asString(raw["phone"]),
	}
}

// NormalizeJob builds a NormalizedProfile from a loosely-typed job record.
func NormalizeJob(id string, raw map[string]interface{}) NormalizedProfile {
	return NormalizedProfile{
		ID:           id,
		Kind:         KindJob,
		Title:        asString(raw["title"], raw["name"]),
		Requirements: asString(raw["requirements"], raw["description"]),
		Instructions: asString(raw["instructions"]),
		Languages:    asStringSlice(raw["languages"]),
		Countries:    asStringSlice(raw["countries"]),
		LabelTypes:   asStringSlice(raw["labelTypes"]),
		Active:       asBool(raw["active"], raw["isActive"]),
	}
}

func asString(vals ...interface{}) string {
	for _, v := range vals {
		if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

func asStringSlice(v interface{}) []string {
	switch vv := v.(type) {
	case []string:
		return cleanSlice(vv)
	case []interface{}:
		out := make([]string, 0, len(vv))
		for _, item := range vv {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return cleanSlice(out)
	case string:
		if strings.TrimSpace(vv) == "" {
			return nil
		}
		return cleanSlice(strings.Split(vv, ","))
	}
	return nil
}

func cleanSlice(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func asInt(v interface{}) int {
	switch vv := v.(type) {
	case int:
		return vv
	case int64:
		return int(vv)
	case float64:
		return int(vv)
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(vv)); err == nil {
			return n
		}
	}
	return 0
}

func asBool(vals ...interface{}) bool {
	for _, v := range vals {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return false
}
