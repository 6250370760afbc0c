// Package genai wraps the Google generative AI client behind the two
// collaborator contracts the matching core consumes: text generation
// (JSON-structured and free-text modes) and embedding.
package genai

import (
	"context"
	"fmt"
	"strings"

	"labelmatch/internal/common/config"
	stderrors "labelmatch/internal/common/errors"

	gai "github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// Generator is the text-generation contract. Failures surface as typed
// StandardErrors so callers can decide between retry and heuristic fallback.
type Generator interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string, temperature float32, maxTokens int) (string, error)
	GenerateJSON(ctx context.Context, systemPrompt, userPrompt string, temperature float32, maxTokens int) (string, error)
}

// Embedder turns text into a fixed-length vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Client implements Generator and Embedder on the Gemini API.
type Client struct {
	client         *gai.Client
	generateModel  string
	embeddingModel string
}

// NewClient creates a new Gemini-backed client.
func NewClient(ctx context.Context, cfg config.GenAIConfig) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("genai api key is required")
	}

	client, err := gai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return &Client{
		client:         client,
		generateModel:  cfg.GenerateModel,
		embeddingModel: cfg.EmbeddingModel,
	}, nil
}

// Generate sends the prompt pair in free-text mode and returns the response text.
func (c *Client) Generate(ctx context.Context, systemPrompt, userPrompt string, temperature float32, maxTokens int) (string, error) {
	return c.generate(ctx, systemPrompt, userPrompt, temperature, maxTokens, "")
}

// GenerateJSON sends the prompt pair in JSON mode and strips any markdown
// code-block wrapper from the response.
func (c *Client) GenerateJSON(ctx context.Context, systemPrompt, userPrompt string, temperature float32, maxTokens int) (string, error) {
	text, err := c.generate(ctx, systemPrompt, userPrompt, temperature, maxTokens, "application/json")
	if err != nil {
		return "", err
	}
	return CleanJSONBlock(text), nil
}

func (c *Client) generate(ctx context.Context, systemPrompt, userPrompt string, temperature float32, maxTokens int, mimeType string) (string, error) {
	model := c.client.GenerativeModel(c.generateModel)
	model.SetTemperature(temperature)
	if maxTokens > 0 {
		model.SetMaxOutputTokens(int32(maxTokens))
	}
	if mimeType != "" {
		model.ResponseMIMEType = mimeType
	}
	if systemPrompt != "" {
		model.SystemInstruction = &gai.Content{Parts: []gai.Part{gai.Text(systemPrompt)}}
	}

	resp, err := model.GenerateContent(ctx, gai.Text(userPrompt))
	if err != nil {
		if ctx.Err() != nil {
			return "", stderrors.NewLLMTimeoutError("generate")
		}
		return "", stderrors.NewLLMFailureError("generate", err)
	}

	return extractText(resp)
}

// Embed returns the embedding vector for text.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	em := c.client.EmbeddingModel(c.embeddingModel)
	res, err := em.EmbedContent(ctx, gai.Text(text))
	if err != nil {
		return nil, stderrors.NewEmbeddingFailedError(err)
	}
	if res.Embedding == nil || len(res.Embedding.Values) == 0 {
		return nil, stderrors.NewEmbeddingFailedError(fmt.Errorf("empty embedding response"))
	}
	return res.Embedding.Values, nil
}

// Close releases resources held by the client.
func (c *Client) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

func extractText(resp *gai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", stderrors.NewLLMFailureError("generate", fmt.Errorf("no candidates in response"))
	}
	// Content is nil when the candidate was blocked by a safety filter.
	if resp.Candidates[0].Content == nil {
		return "", stderrors.NewLLMFailureError("generate", fmt.Errorf("candidate has no content"))
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(gai.Text); ok {
			sb.WriteString(string(text))
		}
	}

	out := strings.TrimSpace(sb.String())
	if out == "" {
		return "", stderrors.NewLLMFailureError("generate", fmt.Errorf("empty text in response"))
	}
	return out, nil
}
