package ai

import (
	"context"
	"errors"

	"google.golang.org/genai"

	"travel-ai-planner/internal/domain"
	"travel-ai-planner/internal/domain/model"
	"travel-ai-planner/internal/domain/ports/adapter"
)

var _ adapter.ItineraryGenerator = (*GeminiGenerator)(nil)

// GeminiGenerator implements adapter.ItineraryGenerator using the
// official Gemini SDK.
type GeminiGenerator struct {
	client *genai.Client
	model  string
	maxOut int
}

func NewGeminiGenerator(ctx context.Context, apiKey, baseURL, modelName string, maxOut int) (*GeminiGenerator, error) {
	if apiKey == "" {
		return nil, errors.New("gemini: empty api key")
	}
	if modelName == "" {
		modelName = "gemini-2.0-flash"
	}
	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{
			BaseURL: baseURL,
		},
	})
	if err != nil {
		return nil, err
	}
	return &GeminiGenerator{client: c, model: modelName, maxOut: maxOut}, nil
}

func (g *GeminiGenerator) Name() string { return "gemini" }

func (g *GeminiGenerator) Generate(ctx context.Context, req *model.GenerationRequest) (*model.Itinerary, adapter.Usage, error) {
	contents := []*genai.Content{
		{
			Role:  genai.RoleUser,
			Parts: []*genai.Part{{Text: buildItineraryPrompt(req)}},
		},
	}
	cfg := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	}
	if g.maxOut > 0 {
		cfg.MaxOutputTokens = int32(g.maxOut)
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, cfg)
	if err != nil {
		return nil, adapter.Usage{}, classifyGeminiError(err)
	}

	text := ""
	if resp != nil && len(resp.Candidates) > 0 && resp.Candidates[0].Content != nil && len(resp.Candidates[0].Content.Parts) > 0 {
		text = resp.Candidates[0].Content.Parts[0].Text
	}
	if text == "" {
		return nil, adapter.Usage{}, errors.New("gemini: empty response")
	}

	u := adapter.Usage{}
	if resp.UsageMetadata != nil {
		u.PromptTokens = int(resp.UsageMetadata.PromptTokenCount)
		u.CompletionTokens = int(resp.UsageMetadata.CandidatesTokenCount)
		u.TotalTokens = int(resp.UsageMetadata.TotalTokenCount)
	}

	it, err := parseItinerary(text)
	if err != nil {
		return nil, u, err
	}
	return it, u, nil
}

func classifyGeminiError(err error) error {
	var aerr genai.APIError
	if errors.As(err, &aerr) {
		if aerr.Code == 429 || aerr.Code >= 500 {
			return &domain.TransientServiceError{StatusCode: aerr.Code, Err: err}
		}
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return domain.ErrGeneratorTimeout
	}
	return err
}
