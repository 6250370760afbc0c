// internal/pipeline/evaluate.go
package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"labelmatch/internal/capsule"
	"labelmatch/internal/classify"
	stderrors "labelmatch/internal/common/errors"
	"labelmatch/internal/common/genai"
	"labelmatch/internal/common/logger"
	"labelmatch/internal/common/metrics"
	"labelmatch/internal/common/observability"
	"labelmatch/internal/evidence"
	"labelmatch/internal/models"
	"labelmatch/internal/qualification"
	"labelmatch/internal/scoring"
	"labelmatch/internal/vectorstore"
)

// Filter reasons recorded on candidates excluded before scoring.
const (
	ReasonNotExpertClass    = "not_domain_expert_or_mixed"
	ReasonMissingCredential = "missing_required_credential_or_domain"
	ReasonExpertOnGeneric   = "domain_expert_without_labeling_history"
)

// Outcome is the result of one evaluation run.
type Outcome struct {
	RunID           string
	JobID           string
	JobClass        models.JobClass
	Results         []models.ScoredResult
	NewlyQualifying []models.Qualification
	Stored          int
	StoreErrors     []error
}

// Evaluator runs the full match pipeline for one job against a candidate set.
type Evaluator struct {
	classifier classify.Classifier
	domainEx   *evidence.Extractor
	taskEx     *evidence.Extractor
	capsules   *capsule.Generator
	embedder   genai.Embedder
	engine     *scoring.Engine
	vectors    vectorstore.Store
	tracker    *qualification.Tracker
	cache      *Cache
	obs        *observability.Observability
	batchSize  int
	log        logger.Logger
}

// EvaluatorDeps bundles the collaborators; every field is required except
// Cache, Vectors, and Obs, which degrade to no-ops when nil.
type EvaluatorDeps struct {
	Classifier classify.Classifier
	Capsules   *capsule.Generator
	Embedder   genai.Embedder
	Engine     *scoring.Engine
	Vectors    vectorstore.Store
	Tracker    *qualification.Tracker
	Cache      *Cache
	Obs        *observability.Observability
	BatchSize  int
	Log        logger.Logger
}

func NewEvaluator(deps EvaluatorDeps) *Evaluator {
	batch := deps.BatchSize
	if batch <= 0 {
		batch = 8
	}
	return &Evaluator{
		classifier: deps.Classifier,
		domainEx:   evidence.NewDomainExtractor(deps.Log),
		taskEx:     evidence.NewTaskExtractor(deps.Log),
		capsules:   deps.Capsules,
		embedder:   deps.Embedder,
		engine:     deps.Engine,
		vectors:    deps.Vectors,
		tracker:    deps.Tracker,
		cache:      deps.Cache,
		obs:        deps.Obs,
		batchSize:  batch,
		log:        deps.Log,
	}
}

// EvaluateJob classifies the posting, scores every candidate against it,
// persists the outcomes, and returns the run summary with any users who newly
// crossed the qualification threshold. Per-candidate failures are logged and
// skipped; only job-level failures abort the run.
func (e *Evaluator) EvaluateJob(ctx context.Context, job models.NormalizedProfile, users []models.NormalizedProfile) (*Outcome, error) {
	start := time.Now()
	runID := uuid.NewString()
	log := e.log.WithFields(map[string]interface{}{
		"runId": runID,
		"jobId": job.ID,
	})

	jobRes, err := e.classifyProfile(ctx, &job)
	if err != nil {
		metrics.EvaluationsFailed.WithLabelValues(string(stderrors.CodeOf(err))).Inc()
		return nil, err
	}
	jobClass := jobRes.JobClass()
	tier := jobRes.Requirements.ExpertiseTier

	jobVecs, err := e.embedJobCapsules(ctx, job, jobRes)
	if err != nil {
		metrics.EvaluationsFailed.WithLabelValues(string(stderrors.CodeOf(err))).Inc()
		return nil, err
	}

	log.Info("evaluating job", map[string]interface{}{
		"jobClass":   string(jobClass),
		"tier":       string(tier),
		"candidates": len(users),
	})

	var mu sync.Mutex
	results := make([]models.ScoredResult, 0, len(users))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.batchSize)
	for i := range users {
		user := users[i]
		g.Go(func() error {
			result, err := e.evaluateCandidate(gctx, job, user, jobRes, jobClass, tier, jobVecs)
			if err != nil {
				metrics.EvaluationsFailed.WithLabelValues(string(stderrors.CodeOf(err))).Inc()
				log.WithError(err).Error("candidate evaluation failed", map[string]interface{}{
					"userId": user.ID,
				})
				return nil
			}
			mu.Lock()
			results = append(results, *result)
			mu.Unlock()
			metrics.EvaluationsCompleted.WithLabelValues(string(jobClass)).Inc()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	results = scoring.Rank(results)

	summary := e.tracker.StoreResults(ctx, results, qualification.StoreOptions{JobActive: job.Active})
	newly, err := e.tracker.FindNewlyQualifying(ctx, job.ID)
	if err != nil {
		log.WithError(err).Warn("could not list newly qualifying users", nil)
	}

	elapsed := time.Since(start)
	metrics.EvaluationDuration.WithLabelValues(string(jobClass)).Observe(elapsed.Seconds())
	if e.obs != nil {
		e.obs.RecordEvaluation(ctx, string(jobClass))
		e.obs.RecordEvaluationDuration(ctx, elapsed, string(jobClass))
	}
	log.Info("evaluation complete", map[string]interface{}{
		"scored":          len(results),
		"stored":          summary.Stored,
		"newlyQualifying": len(newly),
		"durationMs":      elapsed.Milliseconds(),
	})

	return &Outcome{
		RunID:           runID,
		JobID:           job.ID,
		JobClass:        jobClass,
		Results:         results,
		NewlyQualifying: newly,
		Stored:          summary.Stored,
		StoreErrors:     summary.Errors,
	}, nil
}

type sectionVectors struct {
	domain []float32
	task   []float32
}

func (e *Evaluator) embedJobCapsules(ctx context.Context, job models.NormalizedProfile, jobRes models.ClassificationResult) (sectionVectors, error) {
	domainEv := e.domainEx.Extract(job.CombinedText())
	taskEv := e.taskEx.Extract(job.CombinedText())

	pair, err := e.capsules.GenerateJobPair(ctx, job, domainEv, taskEv)
	if err != nil {
		return sectionVectors{}, err
	}

	vecs := sectionVectors{}
	if vecs.domain, err = e.embed(ctx, pair.Domain.Text); err != nil {
		return sectionVectors{}, err
	}
	if vecs.task, err = e.embed(ctx, pair.Task.Text); err != nil {
		return sectionVectors{}, err
	}

	e.storeVectors(ctx, job.ID, models.KindJob, jobRes, pair, vecs)
	return vecs, nil
}

func (e *Evaluator) evaluateCandidate(ctx context.Context, job, user models.NormalizedProfile, jobRes models.ClassificationResult, jobClass models.JobClass, tier models.ExpertiseTier, jobVecs sectionVectors) (*models.ScoredResult, error) {
	userRes, err := e.classifyProfile(ctx, &user)
	if err != nil {
		return nil, err
	}

	if reason := e.filterReason(jobClass, jobRes, userRes, &user); reason != "" {
		return &models.ScoredResult{
			UserID:        user.ID,
			JobID:         job.ID,
			ThresholdUsed: 0,
			FilterReason:  reason,
		}, nil
	}

	domainEv := e.domainEx.Extract(user.CombinedText())
	taskEv := e.taskEx.Extract(user.CombinedText())
	pair, err := e.capsules.GenerateUserPair(ctx, user, domainEv, taskEv)
	if err != nil {
		return nil, err
	}

	domainVec, err := e.embed(ctx, pair.Domain.Text)
	if err != nil {
		return nil, err
	}
	taskVec, err := e.embed(ctx, pair.Task.Text)
	if err != nil {
		return nil, err
	}

	e.storeVectors(ctx, user.ID, models.KindUser, userRes, pair, sectionVectors{domain: domainVec, task: taskVec})

	domainScore := scoring.CosineSimilarity(jobVecs.domain, domainVec)
	taskScore := scoring.CosineSimilarity(jobVecs.task, taskVec)

	result := e.engine.Score(job.ID, user.ID, jobClass, tier, domainScore, taskScore)
	return &result, nil
}

// filterReason applies the eligibility gates before any scoring happens.
func (e *Evaluator) filterReason(jobClass models.JobClass, jobRes, userRes models.ClassificationResult, user *models.NormalizedProfile) string {
	if jobClass == models.JobSpecialized {
		if cls := userRes.UserClass(); cls != models.UserDomainExpert && cls != models.UserMixed {
			return ReasonNotExpertClass
		}
		if !classify.EligibleForSpecializedJob(jobRes.Requirements, userRes) {
			return ReasonMissingCredential
		}
		return ""
	}
	if classify.ShouldExcludeFromGenericJob(userRes, user) {
		return ReasonExpertOnGeneric
	}
	return ""
}

func (e *Evaluator) classifyProfile(ctx context.Context, p *models.NormalizedProfile) (models.ClassificationResult, error) {
	text := p.CombinedText()
	if cached, ok := e.cache.GetClassification(ctx, p.Kind, text); ok {
		return cached, nil
	}

	var result models.ClassificationResult
	var err error
	if p.Kind == models.KindJob {
		result, err = e.classifier.ClassifyJob(ctx, p)
	} else {
		result, err = e.classifier.ClassifyUser(ctx, p)
	}
	if err != nil {
		return models.ClassificationResult{}, err
	}

	e.cache.PutClassification(ctx, p.Kind, text, result)
	return result, nil
}

func (e *Evaluator) embed(ctx context.Context, text string) ([]float32, error) {
	if vec, ok := e.cache.GetEmbedding(ctx, text); ok {
		return vec, nil
	}
	vec, err := e.embedder.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	e.cache.PutEmbedding(ctx, text, vec)
	return vec, nil
}

// storeVectors persists both section vectors; failures are logged, the
// evaluation result does not depend on the vector index.
func (e *Evaluator) storeVectors(ctx context.Context, id string, kind models.ProfileKind, res models.ClassificationResult, pair capsule.Pair, vecs sectionVectors) {
	if e.vectors == nil {
		return
	}
	meta := vectorstore.Metadata{
		Type:        kind,
		Tier:        res.Requirements.ExpertiseTier,
		DomainCodes: res.Requirements.SubjectMatterCodes,
	}
	for _, rec := range []vectorstore.Record{
		{Key: vectorstore.Key(kind, id, vectorstore.SectionDomain), Embedding: vecs.domain, Metadata: withSection(meta, vectorstore.SectionDomain)},
		{Key: vectorstore.Key(kind, id, vectorstore.SectionTask), Embedding: vecs.task, Metadata: withSection(meta, vectorstore.SectionTask)},
	} {
		if err := e.vectors.Upsert(ctx, rec); err != nil {
			e.log.WithError(err).Warn("vector upsert failed", map[string]interface{}{
				"key": rec.Key,
			})
		}
	}
}

func withSection(meta vectorstore.Metadata, section string) vectorstore.Metadata {
	meta.Section = section
	return meta
}
