// internal/scoring/threshold.go
package scoring

import (
	"fmt"
	"strings"

	"labelmatch/internal/models"
)

// Built-in thresholds per "<jobClass>:<tier>" key. Specialized postings demand
// a stronger match than generic postings at every tier; the constructor
// enforces that invariant on overrides too.
var defaultThresholds = map[string]float64{
	"specialized:entry":        0.50,
	"specialized:intermediate": 0.55,
	"specialized:expert":       0.60,
	"specialized:specialist":   0.65,
	"generic:entry":            0.35,
	"generic:intermediate":     0.40,
	"generic:expert":           0.45,
	"generic:specialist":       0.50,
}

// Policy resolves the qualification threshold for a (job class, tier) pair.
// Immutable after construction.
type Policy struct {
	table map[string]float64
}

// NewPolicy merges overrides (keyed "<jobClass>:<tier>") over the defaults and
// validates the result: thresholds stay in [0,1], keys are well-formed, and
// for every tier the specialized threshold is at least the generic one.
func NewPolicy(overrides map[string]float64) (*Policy, error) {
	table := make(map[string]float64, len(defaultThresholds))
	for k, v := range defaultThresholds {
		table[k] = v
	}
	for k, v := range overrides {
		k = strings.ToLower(strings.TrimSpace(k))
		if _, ok := table[k]; !ok {
			return nil, fmt.Errorf("unknown threshold key %q", k)
		}
		if v < 0 || v > 1 {
			return nil, fmt.Errorf("threshold %q out of range: %v", k, v)
		}
		table[k] = v
	}

	for _, tier := range models.ValidTiers {
		spec := table[key(models.JobSpecialized, tier)]
		gen := table[key(models.JobGeneric, tier)]
		if spec < gen {
			return nil, fmt.Errorf("specialized threshold for tier %q (%v) below generic (%v)", tier, spec, gen)
		}
	}

	return &Policy{table: table}, nil
}

// Threshold returns the threshold for the pair, falling back to the most
// permissive entry-tier value when the tier is unknown.
func (p *Policy) Threshold(class models.JobClass, tier models.ExpertiseTier) float64 {
	if v, ok := p.table[key(class, tier)]; ok {
		return v
	}
	return p.table[key(class, models.TierEntry)]
}

func key(class models.JobClass, tier models.ExpertiseTier) string {
	return string(class) + ":" + string(tier)
}
