// cmd/matcher/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"labelmatch/internal/capsule"
	"labelmatch/internal/classify"
	"labelmatch/internal/common/aws"
	"labelmatch/internal/common/config"
	"labelmatch/internal/common/database"
	"labelmatch/internal/common/genai"
	"labelmatch/internal/common/logger"
	"labelmatch/internal/common/observability"
	"labelmatch/internal/evidence"
	"labelmatch/internal/notify"
	"labelmatch/internal/pipeline"
	"labelmatch/internal/qualification"
	"labelmatch/internal/scoring"
	"labelmatch/internal/vectorstore"
)

const evaluateInterval = 5 * time.Minute

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2 // Exponential backoff
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting matcher...")

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	// --- Init Elasticsearch with retry ---
	var esClient *database.ElasticsearchClient
	err = retryWithBackoff(func() error {
		var err error
		esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			return err
		}
		return esClient.Ping()
	}, 15, 2*time.Second, zapLog, "Elasticsearch connection")
	if err != nil {
		zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
	}
	zapLog.Info("Elasticsearch connected successfully")

	// --- Init Redis with retry ---
	var redis *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		redis, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return redis.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")
	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer redis.Close()
	zapLog.Info("Redis connected successfully")

	// --- Init GenAI client ---
	genaiClient, err := genai.NewClient(ctx, cfg.GenAI)
	if err != nil {
		zapLog.Fatal("genai client failed", zap.Error(err))
	}
	defer genaiClient.Close()

	// --- Init AWS notification clients ---
	sesClient, err := aws.NewSESClient(ctx, cfg.Notifications.AWS.Region)
	if err != nil {
		zapLog.Fatal("ses client failed", zap.Error(err))
	}
	snsClient, err := aws.NewSNSClient(ctx, cfg.Notifications.AWS.Region)
	if err != nil {
		zapLog.Fatal("sns client failed", zap.Error(err))
	}

	// --- Assemble the pipeline ---
	matchOpts := evidence.MatchOptions{
		FuzzyDistance:  cfg.Matching.FuzzyDistance,
		FuzzyMinLength: cfg.Matching.FuzzyMinLength,
	}

	policy, err := scoring.NewPolicy(cfg.Matching.Thresholds)
	if err != nil {
		zapLog.Fatal("threshold policy invalid", zap.Error(err))
	}

	taxonomy := classify.NewTaxonomy(cfg.Taxonomy)
	llmClassifier, err := classify.NewLLMClassifier(genaiClient, log)
	if err != nil {
		zapLog.Fatal("llm classifier failed", zap.Error(err))
	}
	classifier := classify.NewFallbackClassifier(llmClassifier, taxonomy, log)

	vectors := vectorstore.NewESStore(esClient, cfg.VectorStore, log)
	if err := vectors.EnsureIndex(ctx); err != nil {
		zapLog.Fatal("vector index setup failed", zap.Error(err))
	}

	qualStore := qualification.NewPostgresStore(pg.DB)
	jobStore := qualification.NewJobStore(pg.DB)
	tracker := qualification.NewTracker(qualStore, jobStore, log)

	cache := pipeline.NewCache(redis, time.Duration(cfg.Matching.CacheTTL)*time.Second, log)

	evaluator := pipeline.NewEvaluator(pipeline.EvaluatorDeps{
		Classifier: classifier,
		Capsules:   capsule.NewGenerator(genaiClient, matchOpts, log),
		Embedder:   genaiClient,
		Engine:     scoring.NewEngine(policy),
		Vectors:    vectors,
		Tracker:    tracker,
		Cache:      cache,
		Obs:        obs,
		BatchSize:  cfg.Matching.BatchSize,
		Log:        log,
	})

	profiles := pipeline.NewProfileStore(pg.DB)
	notifier := notify.NewNotifier(cfg.Notifications, sesClient, snsClient,
		notify.NewPostgresContacts(pg.DB), tracker, log)

	// --- Health & Metrics Server ---
	go func() {
		http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "healthy",
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		http.Handle("/metrics", promhttp.Handler())
		zapLog.Info("Health/Metrics server listening on :8080")
		if err := http.ListenAndServe(":8080", nil); err != nil {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	zapLog.Info("Matcher started, entering evaluation loop",
		zap.Duration("interval", evaluateInterval))

	runner := &runner{
		evaluator: evaluator,
		profiles:  profiles,
		jobs:      jobStore,
		tracker:   tracker,
		notifier:  notifier,
		log:       log,
	}

	ticker := time.NewTicker(evaluateInterval)
	defer ticker.Stop()

	runner.runOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			zapLog.Info("Shutdown signal received, stopping matcher...")
			return
		case <-ticker.C:
			runner.runOnce(ctx)
		}
	}
}

type runner struct {
	evaluator *pipeline.Evaluator
	profiles  *pipeline.ProfileStore
	jobs      *qualification.JobStore
	tracker   *qualification.Tracker
	notifier  *notify.Notifier
	log       logger.Logger
}

// runOnce evaluates every active job against the current candidate pool and
// notifies users who newly crossed the threshold.
func (r *runner) runOnce(ctx context.Context) {
	if err := r.tracker.SyncActiveJobs(ctx); err != nil {
		r.log.WithError(err).Error("active job sync failed", nil)
	}

	jobs, err := r.profiles.ActiveJobs(ctx)
	if err != nil {
		r.log.WithError(err).Error("could not load active jobs", nil)
		return
	}
	users, err := r.profiles.Candidates(ctx)
	if err != nil {
		r.log.WithError(err).Error("could not load candidates", nil)
		return
	}

	records, err := r.jobs.ListJobs(ctx, true)
	if err != nil {
		r.log.WithError(err).Error("could not list job records", nil)
		return
	}
	recordsByID := make(map[string]int, len(records))
	for i, rec := range records {
		recordsByID[rec.ID] = i
	}

	for _, job := range jobs {
		if ctx.Err() != nil {
			return
		}
		outcome, err := r.evaluator.EvaluateJob(ctx, job, users)
		if err != nil {
			r.log.WithError(err).Error("job evaluation failed", map[string]interface{}{
				"jobId": job.ID,
			})
			continue
		}

		idx, ok := recordsByID[job.ID]
		if !ok || len(outcome.NewlyQualifying) == 0 {
			continue
		}
		summary := r.notifier.NotifyNewlyQualifying(ctx, records[idx], outcome.NewlyQualifying)
		r.log.Info("notified newly qualifying users", map[string]interface{}{
			"jobId":   job.ID,
			"sent":    summary.Sent,
			"skipped": summary.Skipped,
			"errors":  len(summary.Errors),
		})
	}
}
