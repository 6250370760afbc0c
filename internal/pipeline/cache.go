// internal/pipeline/cache.go

// Package pipeline orchestrates a full evaluation run: classify the posting,
// build its evidence and capsules, then score every candidate against it and
// persist the qualification outcomes.
package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"labelmatch/internal/common/database"
	"labelmatch/internal/common/logger"
	"labelmatch/internal/models"
)

// Cache memoizes classification results and embeddings in Redis, keyed by a
// hash of the input text so stale entries die with the content that produced
// them. All cache failures degrade to a miss; the pipeline never fails on the
// cache.
type Cache struct {
	redis *database.RedisClient
	ttl   time.Duration
	log   logger.Logger
}

func NewCache(redis *database.RedisClient, ttl time.Duration, log logger.Logger) *Cache {
	return &Cache{redis: redis, ttl: ttl, log: log}
}

// contentKey hashes the input so changed text always misses.
func contentKey(prefix, text string) string {
	sum := sha256.Sum256([]byte(text))
	return prefix + ":" + hex.EncodeToString(sum[:])
}

// GetClassification returns the cached classification for text, or false.
func (c *Cache) GetClassification(ctx context.Context, kind models.ProfileKind, text string) (models.ClassificationResult, bool) {
	var result models.ClassificationResult
	if c == nil {
		return result, false
	}
	raw, err := c.redis.Get(ctx, contentKey("classify:"+string(kind), text))
	if err != nil {
		if err != redis.Nil {
			c.log.WithError(err).Warn("classification cache read failed", nil)
		}
		return result, false
	}
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return result, false
	}
	return result, true
}

// PutClassification stores a classification result.
func (c *Cache) PutClassification(ctx context.Context, kind models.ProfileKind, text string, result models.ClassificationResult) {
	if c == nil {
		return
	}
	raw, err := json.Marshal(result)
	if err != nil {
		return
	}
	if err := c.redis.Set(ctx, contentKey("classify:"+string(kind), text), raw, c.ttl); err != nil {
		c.log.WithError(err).Warn("classification cache write failed", nil)
	}
}

// GetEmbedding returns the cached embedding for text, or false.
func (c *Cache) GetEmbedding(ctx context.Context, text string) ([]float32, bool) {
	if c == nil {
		return nil, false
	}
	raw, err := c.redis.Get(ctx, contentKey("embed", text))
	if err != nil {
		if err != redis.Nil {
			c.log.WithError(err).Warn("embedding cache read failed", nil)
		}
		return nil, false
	}
	var vec []float32
	if err := json.Unmarshal([]byte(raw), &vec); err != nil || len(vec) == 0 {
		return nil, false
	}
	return vec, true
}

// PutEmbedding stores an embedding vector.
func (c *Cache) PutEmbedding(ctx context.Context, text string, vec []float32) {
	if c == nil || len(vec) == 0 {
		return
	}
	raw, err := json.Marshal(vec)
	if err != nil {
		return
	}
	if err := c.redis.Set(ctx, contentKey("embed", text), raw, c.ttl); err != nil {
		c.log.WithError(err).Warn("embedding cache write failed", nil)
	}
}
