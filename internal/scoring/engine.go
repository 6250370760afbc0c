// internal/scoring/engine.go

// Package scoring blends the domain and task similarity scores into a final
// match score and ranks candidates against a posting.
package scoring

import (
	"math"
	"sort"

	"labelmatch/internal/models"
)

// GetWeightProfile returns the blend weights for a job class. Specialized
// postings weight domain expertise heavily; generic postings weight task
// capability. Both profiles sum to 1.
func GetWeightProfile(class models.JobClass) models.WeightProfile {
	if class == models.JobSpecialized {
		return models.WeightProfile{WDomain: 0.85, WTask: 0.15}
	}
	return models.WeightProfile{WDomain: 0.30, WTask: 0.70}
}

// CosineSimilarity returns the cosine of the angle between two vectors, or 0
// when either vector is empty, zero, or the lengths differ.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// Engine computes scores and applies the threshold policy.
type Engine struct {
	policy *Policy
}

func NewEngine(policy *Policy) *Engine {
	return &Engine{policy: policy}
}

// Score blends the two similarity scores under the job class's weight profile
// and applies the threshold for the (class, tier) pair. The raw final score is
// compared against the threshold unrounded; formatting for display never feeds
// back into the decision.
func (e *Engine) Score(jobID, userID string, class models.JobClass, tier models.ExpertiseTier, domainScore, taskScore float64) models.ScoredResult {
	w := GetWeightProfile(class)
	final := w.WDomain*domainScore + w.WTask*taskScore
	threshold := e.policy.Threshold(class, tier)

	return models.ScoredResult{
		UserID:         userID,
		JobID:          jobID,
		DomainScore:    domainScore,
		TaskScore:      taskScore,
		FinalScore:     final,
		ThresholdUsed:  threshold,
		AboveThreshold: final >= threshold,
	}
}

// Rank sorts results by final score descending and assigns 1-based ranks.
// Ties keep their input order.
func Rank(results []models.ScoredResult) []models.ScoredResult {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].FinalScore > results[j].FinalScore
	})
	for i := range results {
		results[i].Rank = i + 1
	}
	return results
}
