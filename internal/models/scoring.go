// internal/models/scoring.go
package models

// WeightProfile is the (domain, task) blend used to combine the two cosine
// similarities into a final score. WDomain + WTask always equals 1.
type WeightProfile struct {
	WDomain float64 `json:"wDomain"`
	WTask   float64 `json:"wTask"`
}

// ScoredResult is one evaluated (job, user) pairing.
type ScoredResult struct {
	UserID         string  `json:"userId"`
	JobID          string  `json:"jobId"`
	DomainScore    float64 `json:"domainScore"`
	TaskScore      float64 `json:"taskScore"`
	FinalScore     float64 `json:"finalScore"`
	Rank           int     `json:"rank"`
	ThresholdUsed  float64 `json:"thresholdUsed"`
	AboveThreshold bool    `json:"aboveThreshold"`
	FilterReason   string  `json:"filterReason,omitempty"`
}
