// cmd/tools/evaluate-job/main.go
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"labelmatch/internal/capsule"
	"labelmatch/internal/classify"
	"labelmatch/internal/common/config"
	"labelmatch/internal/common/database"
	"labelmatch/internal/common/genai"
	"labelmatch/internal/common/logger"
	"labelmatch/internal/evidence"
	"labelmatch/internal/models"
	"labelmatch/internal/pipeline"
	"labelmatch/internal/qualification"
	"labelmatch/internal/scoring"
)

// One-shot evaluation of a single job against the current candidate pool,
// printed as JSON. Writes qualification rows exactly like the service loop but
// never notifies, so it is safe to run against production data.
func main() {
	jobID := flag.String("job", "", "Job ID to evaluate")
	useLLM := flag.Bool("llm", false, "Use the model classifier (default heuristics only)")
	timeout := flag.Duration("timeout", 5*time.Minute, "Overall run timeout")
	flag.Parse()

	if *jobID == "" {
		fmt.Fprintln(os.Stderr, "Error: -job is required.")
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, "console")
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	pg, err := database.NewPostgres(cfg.Database.Postgres)
	if err != nil {
		zapLog.Fatal("postgres failed", zap.Error(err))
	}
	defer pg.Close()

	redis, err := database.NewRedis(cfg.Database.Redis)
	if err != nil {
		zapLog.Fatal("redis failed", zap.Error(err))
	}
	defer redis.Close()

	genaiClient, err := genai.NewClient(ctx, cfg.GenAI)
	if err != nil {
		zapLog.Fatal("genai client failed", zap.Error(err))
	}
	defer genaiClient.Close()

	policy, err := scoring.NewPolicy(cfg.Matching.Thresholds)
	if err != nil {
		zapLog.Fatal("threshold policy invalid", zap.Error(err))
	}

	taxonomy := classify.NewTaxonomy(cfg.Taxonomy)
	var primary classify.Classifier
	if *useLLM {
		primary, err = classify.NewLLMClassifier(genaiClient, log)
		if err != nil {
			zapLog.Fatal("llm classifier failed", zap.Error(err))
		}
	}
	classifier := classify.NewFallbackClassifier(primary, taxonomy, log)

	qualStore := qualification.NewPostgresStore(pg.DB)
	jobStore := qualification.NewJobStore(pg.DB)
	tracker := qualification.NewTracker(qualStore, jobStore, log)

	matchOpts := evidence.MatchOptions{
		FuzzyDistance:  cfg.Matching.FuzzyDistance,
		FuzzyMinLength: cfg.Matching.FuzzyMinLength,
	}

	evaluator := pipeline.NewEvaluator(pipeline.EvaluatorDeps{
		Classifier: classifier,
		Capsules:   capsule.NewGenerator(genaiClient, matchOpts, log),
		Embedder:   genaiClient,
		Engine:     scoring.NewEngine(policy),
		Tracker:    tracker,
		Cache:      pipeline.NewCache(redis, time.Duration(cfg.Matching.CacheTTL)*time.Second, log),
		BatchSize:  cfg.Matching.BatchSize,
		Log:        log,
	})

	profiles := pipeline.NewProfileStore(pg.DB)
	jobs, err := profiles.ActiveJobs(ctx)
	if err != nil {
		zapLog.Fatal("could not load active jobs", zap.Error(err))
	}

	var job *models.NormalizedProfile
	for i := range jobs {
		if jobs[i].ID == *jobID {
			job = &jobs[i]
			break
		}
	}
	if job == nil {
		fmt.Fprintf(os.Stderr, "Error: job %s not found among active jobs.\n", *jobID)
		os.Exit(1)
	}

	users, err := profiles.Candidates(ctx)
	if err != nil {
		zapLog.Fatal("could not load candidates", zap.Error(err))
	}

	outcome, err := evaluator.EvaluateJob(ctx, *job, users)
	if err != nil {
		zapLog.Fatal("evaluation failed", zap.Error(err))
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(outcome); err != nil {
		zapLog.Fatal("could not encode outcome", zap.Error(err))
	}
}
