package ai

import (
	"context"
	"errors"

	openai "github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	tiktoken "github.com/pkoukk/tiktoken-go"

	"travel-ai-planner/internal/domain"
	"travel-ai-planner/internal/domain/model"
	"travel-ai-planner/internal/domain/ports/adapter"
)

// Compile-time assurance this adapter satisfies the port
var _ adapter.ItineraryGenerator = (*OpenAIGenerator)(nil)

// OpenAIGenerator implements adapter.ItineraryGenerator using the Chat
// Completions API. SDK-level retries are disabled; the resilient client
// owns retry policy.
type OpenAIGenerator struct {
	client openai.Client
	model  string
	enc    *tiktoken.Tiktoken
}

func NewOpenAIGenerator(apiKey, modelName, baseURL string) (*OpenAIGenerator, error) {
	if apiKey == "" {
		return nil, errors.New("openai api key empty")
	}
	if modelName == "" {
		modelName = "gpt-4o-mini"
	}
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	// Token estimate fallback for responses without usage data.
	enc, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		return nil, err
	}
	return &OpenAIGenerator{
		client: openai.NewClient(opts...),
		model:  modelName,
		enc:    enc,
	}, nil
}

func (g *OpenAIGenerator) Name() string { return "openai" }

func (g *OpenAIGenerator) Generate(ctx context.Context, req *model.GenerationRequest) (*model.Itinerary, adapter.Usage, error) {
	prompt := buildItineraryPrompt(req)

	resp, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(g.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(prompt),
		},
	})
	if err != nil {
		return nil, adapter.Usage{}, classifyOpenAIError(err)
	}
	if len(resp.Choices) == 0 {
		return nil, adapter.Usage{}, errors.New("openai: empty choices")
	}

	usage := adapter.Usage{
		PromptTokens:     int(resp.Usage.PromptTokens),
		CompletionTokens: int(resp.Usage.CompletionTokens),
		TotalTokens:      int(resp.Usage.TotalTokens),
	}
	if usage.TotalTokens == 0 {
		usage.PromptTokens = len(g.enc.Encode(systemPrompt+prompt, nil, nil))
		usage.TotalTokens = usage.PromptTokens
	}

	it, err := parseItinerary(resp.Choices[0].Message.Content)
	if err != nil {
		return nil, usage, err
	}
	return it, usage, nil
}

// classifyOpenAIError maps provider failures onto the typed taxonomy so
// that retryability is structural, never string matching.
func classifyOpenAIError(err error) error {
	var apierr *openai.Error
	if errors.As(err, &apierr) {
		if apierr.StatusCode == 429 || apierr.StatusCode >= 500 {
			return &domain.TransientServiceError{StatusCode: apierr.StatusCode, Err: err}
		}
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return domain.ErrGeneratorTimeout
	}
	return err
}
