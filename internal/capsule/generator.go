// internal/capsule/generator.go
package capsule

import (
	"context"
	"fmt"
	"strings"

	stderrors "labelmatch/internal/common/errors"
	"labelmatch/internal/common/genai"
	"labelmatch/internal/common/logger"
	"labelmatch/internal/evidence"
	"labelmatch/internal/models"
)

const (
	generateTemperature = 0.2
	generateMaxTokens   = 300
)

const userSystemPrompt = `You summarize a freelance worker's background for a labeling marketplace.
Write a single short paragraph (2-4 sentences) strictly limited to facts present in the provided evidence list, followed by a final line of the form "Keywords: a, b, c" where every keyword is copied verbatim from the evidence list and appears in the paragraph. Never invent credentials, employers, or skills. No markdown.`

const jobSystemPrompt = `You summarize a job posting for a labeling marketplace.
Write a single short paragraph (2-4 sentences) strictly limited to facts present in the provided evidence list, followed by a final line of the form "Keywords: a, b, c" where every keyword is copied verbatim from the evidence list and appears in the paragraph. Keep subject-matter expertise and annotation-task content in separate capsules as instructed. No markdown.`

// Generator authors domain/task capsule pairs with the text-generation
// collaborator and keeps the validators in the loop. Classification has a
// deterministic fallback; capsule generation does not, so generation errors
// propagate to the caller.
type Generator struct {
	gen         genai.Generator
	userVal     *Validator
	userTaskVal *Validator
	jobVal      *JobValidator
	log         logger.Logger
}

// NewGenerator builds a capsule generator.
func NewGenerator(gen genai.Generator, opts evidence.MatchOptions, log logger.Logger) *Generator {
	return &Generator{
		gen:         gen,
		userVal:     NewValidator(SectionDomain, opts, log),
		userTaskVal: NewValidator(SectionTask, opts, log),
		jobVal:      NewJobValidator(opts, log),
		log:         log,
	}
}

// GenerateUserPair authors and validates both capsules for a user profile.
// With empty evidence the capsule is the canonical sentence and no model call
// is made.
func (g *Generator) GenerateUserPair(ctx context.Context, profile models.NormalizedProfile, domainEv, taskEv evidence.Set) (Pair, error) {
	domain, err := g.generateUserCapsule(ctx, g.userVal, SectionDomain, profile, domainEv)
	if err != nil {
		return Pair{}, err
	}
	task, err := g.generateUserCapsule(ctx, g.userTaskVal, SectionTask, profile, taskEv)
	if err != nil {
		return Pair{}, err
	}
	return Pair{Domain: domain, Task: task}, nil
}

func (g *Generator) generateUserCapsule(ctx context.Context, val *Validator, section Section, profile models.NormalizedProfile, ev evidence.Set) (Capsule, error) {
	if ev.Empty() {
		return Capsule{Text: NoEvidenceText}, nil
	}

	raw, err := g.gen.Generate(ctx, userSystemPrompt, userPrompt(section, profile, ev), generateTemperature, generateMaxTokens)
	if err != nil {
		return Capsule{}, stderrors.NewCapsuleGenerationError(string(section), err)
	}

	text, violations := val.Validate(raw, ev)
	if len(violations) > 0 {
		g.log.Info("user capsule degraded to fallback", map[string]interface{}{
			"userId":     profile.ID,
			"section":    string(section),
			"violations": violations,
		})
	}
	return Capsule{Text: text}, nil
}

// GenerateJobPair authors and validates both capsules for a job posting,
// reprompting once per section when the validator flags a leak.
func (g *Generator) GenerateJobPair(ctx context.Context, job models.NormalizedProfile, domainEv, taskEv evidence.Set) (Pair, error) {
	domain, err := g.generateJobCapsule(ctx, SectionDomain, job, domainEv)
	if err != nil {
		return Pair{}, err
	}
	task, err := g.generateJobCapsule(ctx, SectionTask, job, taskEv)
	if err != nil {
		return Pair{}, err
	}
	return Pair{Domain: domain, Task: task}, nil
}

func (g *Generator) generateJobCapsule(ctx context.Context, section Section, job models.NormalizedProfile, ev evidence.Set) (Capsule, error) {
	prompt := jobPrompt(section, job, ev)

	raw, err := g.gen.Generate(ctx, jobSystemPrompt, prompt, generateTemperature, generateMaxTokens)
	if err != nil {
		return Capsule{}, stderrors.NewCapsuleGenerationError(string(section), err)
	}

	violations, needsReprompt := g.jobVal.Validate(section, raw, ev)
	if !needsReprompt {
		return Capsule{Text: strings.TrimSpace(raw)}, nil
	}

	// One reprompt with the violations spelled out; job capsules have no
	// safe fixed fallback.
	reprompt := fmt.Sprintf("%s\n\nYour previous draft violated these rules: %s.\nRewrite the capsule fixing every violation.",
		prompt, strings.Join(violations, ", "))
	raw, err = g.gen.Generate(ctx, jobSystemPrompt, reprompt, generateTemperature, generateMaxTokens)
	if err != nil {
		return Capsule{}, stderrors.NewCapsuleGenerationError(string(section), err)
	}

	if violations, needsReprompt = g.jobVal.Validate(section, raw, ev); needsReprompt {
		return Capsule{}, stderrors.NewCapsuleGenerationError(string(section),
			fmt.Errorf("capsule still invalid after reprompt: %s", strings.Join(violations, ", ")))
	}
	return Capsule{Text: strings.TrimSpace(raw)}, nil
}

func userPrompt(section Section, profile models.NormalizedProfile, ev evidence.Set) string {
	focus := "subject-matter expertise (credentials, domains, professional work)"
	if section == SectionTask {
		focus = "AI-training task experience (annotation platforms, task types, model-training work)"
	}
	return fmt.Sprintf("Focus: %s.\n\nWorker title: %s\n\nEvidence list:\n%s",
		focus, profile.Title, ev.Format())
}

func jobPrompt(section Section, job models.NormalizedProfile, ev evidence.Set) string {
	focus := "the subject-matter expertise this posting requires; do not mention annotation or model-training tasks"
	if section == SectionTask {
		focus = "the annotation/labeling tasks this posting involves; do not mention clinical or operational duties"
	}
	return fmt.Sprintf("Focus: %s.\n\nJob title: %s\n\nEvidence list:\n%s",
		focus, job.Title, ev.Format())
}
