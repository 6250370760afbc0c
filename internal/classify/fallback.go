// internal/classify/fallback.go
package classify

import (
	"context"

	"labelmatch/internal/common/logger"
	"labelmatch/internal/common/metrics"
	"labelmatch/internal/models"
)

// JobClassifier is what the pipeline consumes for postings.
type JobClassifier interface {
	ClassifyJob(ctx context.Context, job *models.NormalizedProfile) (models.ClassificationResult, error)
}

// UserClassifier is what the pipeline consumes for worker profiles.
type UserClassifier interface {
	ClassifyUser(ctx context.Context, user *models.NormalizedProfile) (models.ClassificationResult, error)
}

// Classifier is the composed contract.
type Classifier interface {
	JobClassifier
	UserClassifier
}

// FallbackClassifier tries the model classifier first and falls back to the
// deterministic heuristics on any error, so classification itself never fails
// an evaluation. A nil primary skips straight to the heuristics.
type FallbackClassifier struct {
	primary  Classifier
	jobHeur  *HeuristicJobClassifier
	userHeur *HeuristicUserClassifier
	log      logger.Logger
}

func NewFallbackClassifier(primary Classifier, tax *Taxonomy, log logger.Logger) *FallbackClassifier {
	return &FallbackClassifier{
		primary:  primary,
		jobHeur:  NewHeuristicJobClassifier(tax),
		userHeur: NewHeuristicUserClassifier(tax),
		log:      log,
	}
}

func (c *FallbackClassifier) ClassifyJob(ctx context.Context, job *models.NormalizedProfile) (models.ClassificationResult, error) {
	if c.primary != nil {
		result, err := c.primary.ClassifyJob(ctx, job)
		if err == nil {
			return result, nil
		}
		c.log.WithError(err).Warn("job classification fell back to heuristics", map[string]interface{}{
			"jobId": job.ID,
		})
	}
	metrics.ClassifierFallbacks.WithLabelValues("job").Inc()
	return c.jobHeur.Classify(job), nil
}

func (c *FallbackClassifier) ClassifyUser(ctx context.Context, user *models.NormalizedProfile) (models.ClassificationResult, error) {
	if c.primary != nil {
		result, err := c.primary.ClassifyUser(ctx, user)
		if err == nil {
			return result, nil
		}
		c.log.WithError(err).Warn("user classification fell back to heuristics", map[string]interface{}{
			"userId": user.ID,
		})
	}
	metrics.ClassifierFallbacks.WithLabelValues("user").Inc()
	return c.userHeur.Classify(user), nil
}
