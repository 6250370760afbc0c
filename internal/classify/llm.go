// internal/classify/llm.go
package classify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/xeipuuv/gojsonschema"

	stderrors "labelmatch/internal/common/errors"
	"labelmatch/internal/common/genai"
	"labelmatch/internal/common/logger"
	"labelmatch/internal/models"
)

const (
	classifyTemperature = 0.1
	classifyMaxTokens   = 500
	classifyRetries     = 2
)

var retryBackoff = []time.Duration{time.Second, 2 * time.Second}

const jobSystemPrompt = `You classify job postings for a data-labeling marketplace.
Respond with JSON only, matching this shape:
{"class":"specialized"|"generic","confidence":0.0-1.0,"reasoning":"...",
 "requirements":{"credentials":["MD"],"minExperienceYears":0,
   "subjectMatterCodes":["medical"],"expertiseTier":"entry"|"intermediate"|"expert"|"specialist"}}
A posting is "specialized" when it requires professional credentials, licensure,
or domain expertise; otherwise it is "generic".`

const userSystemPromptClassify = `You classify worker profiles for a data-labeling marketplace.
Respond with JSON only, matching this shape:
{"class":"domain_expert"|"general_labeler"|"mixed","confidence":0.0-1.0,"reasoning":"...",
 "requirements":{"credentials":["MD"],"minExperienceYears":0,
   "subjectMatterCodes":["medical"],"expertiseTier":"entry"|"intermediate"|"expert"|"specialist"}}
"domain_expert" means credentialed professional experience dominates,
"general_labeler" means annotation/labeling work dominates, and "mixed" means the
profile independently shows substantial amounts of both.`

const jobResponseSchema = `{
  "type": "object",
  "required": ["class", "confidence"],
  "properties": {
    "class": {"type": "string", "enum": ["specialized", "generic"]},
    "confidence": {"type": "number"},
    "reasoning": {"type": "string"},
    "requirements": {
      "type": "object",
      "properties": {
        "credentials": {"type": "array", "items": {"type": "string"}},
        "minExperienceYears": {"type": "integer", "minimum": 0},
        "subjectMatterCodes": {"type": "array", "items": {"type": "string"}},
        "expertiseTier": {"type": "string"}
      }
    }
  }
}`

const userResponseSchema = `{
  "type": "object",
  "required": ["class", "confidence"],
  "properties": {
    "class": {"type": "string", "enum": ["domain_expert", "general_labeler", "mixed"]},
    "confidence": {"type": "number"},
    "reasoning": {"type": "string"},
    "requirements": {
      "type": "object",
      "properties": {
        "credentials": {"type": "array", "items": {"type": "string"}},
        "minExperienceYears": {"type": "integer", "minimum": 0},
        "subjectMatterCodes": {"type": "array", "items": {"type": "string"}},
        "expertiseTier": {"type": "string"}
      }
    }
  }
}`

// LLMClassifier classifies profiles with the generative model and validates
// every response against a JSON schema before trusting it. It retries
// retryable failures a bounded number of times; schema or parse failures are
// not retried, they surface as unparsable-output errors for the caller's
// fallback.
type LLMClassifier struct {
	gen        genai.Generator
	jobSchema  *gojsonschema.Schema
	userSchema *gojsonschema.Schema
	log        logger.Logger
}

func NewLLMClassifier(gen genai.Generator, log logger.Logger) (*LLMClassifier, error) {
	jobSchema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(jobResponseSchema))
	if err != nil {
		return nil, fmt.Errorf("failed to compile job response schema: %w", err)
	}
	userSchema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(userResponseSchema))
	if err != nil {
		return nil, fmt.Errorf("failed to compile user response schema: %w", err)
	}
	return &LLMClassifier{gen: gen, jobSchema: jobSchema, userSchema: userSchema, log: log}, nil
}

// ClassifyJob classifies a job posting.
func (c *LLMClassifier) ClassifyJob(ctx context.Context, job *models.NormalizedProfile) (models.ClassificationResult, error) {
	return c.classify(ctx, jobSystemPrompt, c.jobSchema, job)
}

// ClassifyUser classifies a worker profile.
func (c *LLMClassifier) ClassifyUser(ctx context.Context, user *models.NormalizedProfile) (models.ClassificationResult, error) {
	return c.classify(ctx, userSystemPromptClassify, c.userSchema, user)
}

func (c *LLMClassifier) classify(ctx context.Context, systemPrompt string, schema *gojsonschema.Schema, profile *models.NormalizedProfile) (models.ClassificationResult, error) {
	userPrompt := fmt.Sprintf("Classify the following %s profile:\n\n%s", profile.Kind, profile.CombinedText())

	var lastErr error
	for attempt := 0; attempt <= classifyRetries; attempt++ {
		if attempt > 0 {
			c.log.Warn("retrying classification", map[string]interface{}{
				"profileId": profile.ID,
				"attempt":   attempt,
			})
			select {
			case <-ctx.Done():
				return models.ClassificationResult{}, stderrors.NewLLMTimeoutError("classify")
			case <-time.After(retryBackoff[attempt-1]):
			}
		}

		raw, err := c.gen.GenerateJSON(ctx, systemPrompt, userPrompt, classifyTemperature, classifyMaxTokens)
		if err != nil {
			lastErr = err
			if !stderrors.IsRetryable(err) {
				return models.ClassificationResult{}, err
			}
			continue
		}

		result, err := c.parse(schema, raw)
		if err != nil {
			// The model answered but the answer is unusable; a retry with
			// the same prompt rarely fixes that.
			return models.ClassificationResult{}, err
		}
		return result, nil
	}

	return models.ClassificationResult{}, lastErr
}

func (c *LLMClassifier) parse(schema *gojsonschema.Schema, raw string) (models.ClassificationResult, error) {
	docResult, err := schema.Validate(gojsonschema.NewStringLoader(raw))
	if err != nil {
		return models.ClassificationResult{}, stderrors.NewLLMUnparsableError("classify", err)
	}
	if !docResult.Valid() {
		var issues []string
		for _, desc := range docResult.Errors() {
			issues = append(issues, desc.String())
		}
		return models.ClassificationResult{}, stderrors.NewLLMUnparsableError(
			"classify", fmt.Errorf("schema violations: %s", strings.Join(issues, "; ")))
	}

	var result models.ClassificationResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return models.ClassificationResult{}, stderrors.NewLLMUnparsableError("classify", err)
	}

	return sanitize(result), nil
}

// sanitize clamps and normalizes model output before it enters the pipeline.
func sanitize(result models.ClassificationResult) models.ClassificationResult {
	if result.Confidence < 0 {
		result.Confidence = 0
	}
	if result.Confidence > 1 {
		result.Confidence = 1
	}
	result.Requirements.ExpertiseTier = models.NormalizeTier(string(result.Requirements.ExpertiseTier))
	for i, cred := range result.Requirements.Credentials {
		result.Requirements.Credentials[i] = strings.ToUpper(strings.TrimSpace(cred))
	}
	if result.Requirements.MinExperienceYears < 0 {
		result.Requirements.MinExperienceYears = 0
	}
	if result.Requirements.MinExperienceYears > maxExperienceYears {
		result.Requirements.MinExperienceYears = maxExperienceYears
	}
	return result
}
