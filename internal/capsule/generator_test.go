// internal/capsule/generator_test.go
package capsule

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	stderrors "labelmatch/internal/common/errors"
	"labelmatch/internal/common/logger"
	"labelmatch/internal/evidence"
	"labelmatch/internal/models"
)

// scriptedGenerator replays canned responses and records every prompt it saw.
type scriptedGenerator struct {
	responses []string
	err       error
	prompts   []string
}

func (g *scriptedGenerator) Generate(_ context.Context, _, user string, _ float32, _ int) (string, error) {
	g.prompts = append(g.prompts, user)
	if g.err != nil {
		return "", g.err
	}
	if len(g.responses) == 0 {
		return "", errors.New("script exhausted")
	}
	resp := g.responses[0]
	g.responses = g.responses[1:]
	return resp, nil
}

func (g *scriptedGenerator) GenerateJSON(ctx context.Context, system, user string, temperature float32, maxTokens int) (string, error) {
	return g.Generate(ctx, system, user, temperature, maxTokens)
}

func testProfile() models.NormalizedProfile {
	return models.NormalizedProfile{ID: "user-1", Kind: models.KindUser, Title: "Cardiologist"}
}

func TestGenerateUserPair_EmptyEvidenceSkipsModel(t *testing.T) {
	fake := &scriptedGenerator{}
	gen := NewGenerator(fake, evidence.DefaultMatchOptions(), logger.NewNoOpLogger())

	pair, err := gen.GenerateUserPair(context.Background(), testProfile(), evidence.Set{}, evidence.Set{})
	require.NoError(t, err)
	assert.Equal(t, NoEvidenceText, pair.Domain.Text)
	assert.Equal(t, NoEvidenceText, pair.Task.Text)
	assert.Empty(t, fake.prompts, "no model call should happen for empty evidence")
}

func TestGenerateUserPair_ValidCapsuleKept(t *testing.T) {
	domainText := "MD with cardiology experience.\nKeywords: MD, cardiology"
	taskText := "Completed annotation projects.\nKeywords: annotation"
	fake := &scriptedGenerator{responses: []string{domainText, taskText}}
	gen := NewGenerator(fake, evidence.DefaultMatchOptions(), logger.NewNoOpLogger())

	domainEv := evidence.Set{Tokens: []string{"MD", "cardiology"}}
	taskEv := evidence.Set{Tokens: []string{"annotation"}}

	pair, err := gen.GenerateUserPair(context.Background(), testProfile(), domainEv, taskEv)
	require.NoError(t, err)
	assert.Equal(t, domainText, pair.Domain.Text)
	assert.Equal(t, taskText, pair.Task.Text)
	assert.Len(t, fake.prompts, 2)
}

func TestGenerateUserPair_UngroundedCapsuleDegradesToFallback(t *testing.T) {
	// The model invents "oncology", which the evidence does not back. The
	// capsule degrades to the canonical sentence instead of erroring.
	fake := &scriptedGenerator{responses: []string{
		"MD with oncology experience.\nKeywords: MD, oncology",
		"Completed annotation projects.\nKeywords: annotation",
	}}
	gen := NewGenerator(fake, evidence.DefaultMatchOptions(), logger.NewNoOpLogger())

	domainEv := evidence.Set{Tokens: []string{"MD", "cardiology"}}
	taskEv := evidence.Set{Tokens: []string{"annotation"}}

	pair, err := gen.GenerateUserPair(context.Background(), testProfile(), domainEv, taskEv)
	require.NoError(t, err)
	assert.Equal(t, NoEvidenceText, pair.Domain.Text)
	assert.Equal(t, "Completed annotation projects.\nKeywords: annotation", pair.Task.Text)
}

func TestGenerateUserPair_ModelFailurePropagates(t *testing.T) {
	fake := &scriptedGenerator{err: errors.New("upstream unavailable")}
	gen := NewGenerator(fake, evidence.DefaultMatchOptions(), logger.NewNoOpLogger())

	_, err := gen.GenerateUserPair(context.Background(), testProfile(),
		evidence.Set{Tokens: []string{"MD"}}, evidence.Set{})
	require.Error(t, err)
	assert.Equal(t, stderrors.ErrCodeCapsuleGeneration, stderrors.CodeOf(err))
}

func TestGenerateJobPair_CleanFirstDraft(t *testing.T) {
	fake := &scriptedGenerator{responses: []string{
		"Requires cardiology expertise.\nKeywords: cardiology",
		"Involves response ranking work.\nKeywords: response ranking",
	}}
	gen := NewGenerator(fake, evidence.DefaultMatchOptions(), logger.NewNoOpLogger())

	domainEv := evidence.Set{Tokens: []string{"cardiology"}}
	taskEv := evidence.Set{Phrases: []string{"response ranking"}}

	pair, err := gen.GenerateJobPair(context.Background(), testProfile(), domainEv, taskEv)
	require.NoError(t, err)
	assert.Equal(t, "Requires cardiology expertise.\nKeywords: cardiology", pair.Domain.Text)
	assert.Len(t, fake.prompts, 2)
}

func TestGenerateJobPair_RepromptFixesLeak(t *testing.T) {
	fake := &scriptedGenerator{responses: []string{
		// First domain draft leaks an AI term.
		"Requires cardiology expertise with annotation.\nKeywords: cardiology, annotation",
		// Reprompt produces a clean draft.
		"Requires cardiology expertise.\nKeywords: cardiology",
		"Involves annotation work.\nKeywords: annotation",
	}}
	gen := NewGenerator(fake, evidence.DefaultMatchOptions(), logger.NewNoOpLogger())

	domainEv := evidence.Set{Tokens: []string{"cardiology", "annotation"}}
	taskEv := evidence.Set{Tokens: []string{"annotation"}}

	pair, err := gen.GenerateJobPair(context.Background(), testProfile(), domainEv, taskEv)
	require.NoError(t, err)
	assert.Equal(t, "Requires cardiology expertise.\nKeywords: cardiology", pair.Domain.Text)

	require.Len(t, fake.prompts, 3)
	assert.Contains(t, fake.prompts[1], ViolationAITermLeak+":annotation",
		"reprompt should spell out the violation")
}

func TestGenerateJobPair_SecondInvalidDraftErrors(t *testing.T) {
	fake := &scriptedGenerator{responses: []string{
		"Requires cardiology expertise with annotation.\nKeywords: cardiology, annotation",
		"Still requires annotation work.\nKeywords: cardiology, annotation",
	}}
	gen := NewGenerator(fake, evidence.DefaultMatchOptions(), logger.NewNoOpLogger())

	domainEv := evidence.Set{Tokens: []string{"cardiology", "annotation"}}

	_, err := gen.GenerateJobPair(context.Background(), testProfile(), domainEv, evidence.Set{})
	require.Error(t, err)
	assert.Equal(t, stderrors.ErrCodeCapsuleGeneration, stderrors.CodeOf(err))
	assert.Len(t, fake.prompts, 2, "exactly one reprompt before giving up")
}
