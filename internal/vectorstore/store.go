// internal/vectorstore/store.go

// Package vectorstore persists capsule embeddings in an Elasticsearch
// dense_vector index so qualification runs and ad-hoc similarity queries share
// one source of truth for vectors.
package vectorstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"labelmatch/internal/common/config"
	"labelmatch/internal/common/database"
	stderrors "labelmatch/internal/common/errors"
	"labelmatch/internal/common/logger"
	"labelmatch/internal/models"
)

// Section names the capsule side a vector was embedded from.
const (
	SectionDomain = "domain"
	SectionTask   = "task"
)

// Key builds the store key for a profile's capsule section, e.g.
// "usr_123::domain". Prefixing keeps user and job vectors from colliding.
func Key(kind models.ProfileKind, id, section string) string {
	prefix := "usr_"
	if kind == models.KindJob {
		prefix = "job_"
	}
	return prefix + id + "::" + section
}

// Metadata travels with every vector so downstream filters never need a join.
type Metadata struct {
	Type        models.ProfileKind   `json:"type"`
	Section     string               `json:"section"`
	Tier        models.ExpertiseTier `json:"tier,omitempty"`
	DomainCodes []string             `json:"domainCodes,omitempty"`
}

// Record is the indexed document shape.
type Record struct {
	Key       string    `json:"key"`
	Embedding []float32 `json:"embedding"`
	Metadata  Metadata  `json:"metadata"`
}

// Store is the vector persistence contract the pipeline consumes.
type Store interface {
	Upsert(ctx context.Context, rec Record) error
	Fetch(ctx context.Context, key string) (*Record, error)
}

// ESStore implements Store on Elasticsearch.
type ESStore struct {
	es    *database.ElasticsearchClient
	index string
	dim   int
	log   logger.Logger
}

func NewESStore(es *database.ElasticsearchClient, cfg config.VectorStoreConfig, log logger.Logger) *ESStore {
	return &ESStore{es: es, index: cfg.Index, dim: cfg.Dimension, log: log}
}

// EnsureIndex creates the index with a dense_vector mapping if it does not
// exist yet. Safe to call on every startup.
func (s *ESStore) EnsureIndex(ctx context.Context) error {
	res, err := s.es.Client.Indices.Exists([]string{s.index},
		s.es.Client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to check index %s: %w", s.index, err)
	}
	defer res.Body.Close()
	if res.StatusCode == 200 {
		return nil
	}

	mapping := map[string]interface{}{
		"mappings": map[string]interface{}{
			"properties": map[string]interface{}{
				"key": map[string]interface{}{"type": "keyword"},
				"embedding": map[string]interface{}{
					"type":       "dense_vector",
					"dims":       s.dim,
					"index":      true,
					"similarity": "cosine",
				},
				"metadata": map[string]interface{}{
					"properties": map[string]interface{}{
						"type":        map[string]interface{}{"type": "keyword"},
						"section":     map[string]interface{}{"type": "keyword"},
						"tier":        map[string]interface{}{"type": "keyword"},
						"domainCodes": map[string]interface{}{"type": "keyword"},
					},
				},
			},
		},
	}

	body, err := json.Marshal(mapping)
	if err != nil {
		return fmt.Errorf("failed to marshal index mapping: %w", err)
	}

	createRes, err := s.es.Client.Indices.Create(s.index,
		s.es.Client.Indices.Create.WithContext(ctx),
		s.es.Client.Indices.Create.WithBody(bytes.NewReader(body)))
	if err != nil {
		return fmt.Errorf("failed to create index %s: %w", s.index, err)
	}
	defer createRes.Body.Close()
	if createRes.IsError() {
		return fmt.Errorf("failed to create index %s: %s", s.index, createRes.Status())
	}

	s.log.Info("created vector index", map[string]interface{}{
		"index":     s.index,
		"dimension": s.dim,
	})
	return nil
}

// Upsert indexes the record under its key; re-indexing the same key replaces
// the previous vector.
func (s *ESStore) Upsert(ctx context.Context, rec Record) error {
	if len(rec.Embedding) != s.dim {
		return stderrors.NewVectorUpsertFailedError(rec.Key,
			fmt.Errorf("embedding dimension %d, index expects %d", len(rec.Embedding), s.dim))
	}

	body, err := json.Marshal(rec)
	if err != nil {
		return stderrors.NewVectorUpsertFailedError(rec.Key, err)
	}

	res, err := s.es.Client.Index(s.index, bytes.NewReader(body),
		s.es.Client.Index.WithContext(ctx),
		s.es.Client.Index.WithDocumentID(rec.Key))
	if err != nil {
		return stderrors.NewVectorUpsertFailedError(rec.Key, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return stderrors.NewVectorUpsertFailedError(rec.Key, fmt.Errorf("index response: %s", res.Status()))
	}
	return nil
}

// Fetch returns the record stored under key, or nil when absent.
func (s *ESStore) Fetch(ctx context.Context, key string) (*Record, error) {
	res, err := s.es.Client.Get(s.index, key,
		s.es.Client.Get.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch vector %s: %w", key, err)
	}
	defer res.Body.Close()
	if res.StatusCode == 404 {
		return nil, nil
	}
	if res.IsError() {
		return nil, fmt.Errorf("fetch vector %s: %s", key, res.Status())
	}

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read fetch response for %s: %w", key, err)
	}

	var doc struct {
		Source Record `json:"_source"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode vector %s: %w", key, err)
	}
	if strings.TrimSpace(doc.Source.Key) == "" {
		doc.Source.Key = key
	}
	return &doc.Source, nil
}
