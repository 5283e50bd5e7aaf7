package llm

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
)

// DefaultOpenAIModel is used when neither the config nor the call names one.
const DefaultOpenAIModel = "gpt-4o-mini"

// OpenAIConfig configures the OpenAI backend. BaseURL is optional and
// points the client at any OpenAI-compatible endpoint.
type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

type OpenAIClient struct {
	client *openai.Client
	model  string
}

func NewOpenAIClient(cfg OpenAIConfig) (*OpenAIClient, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("openai: API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultOpenAIModel
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	slog.Info("Initializing OpenAI client", "model", cfg.Model, "custom_base_url", cfg.BaseURL != "")
	return &OpenAIClient{
		client: openai.NewClientWithConfig(clientCfg),
		model:  cfg.Model,
	}, nil
}

// wireTemperature maps a requested temperature to the value go-openai
// serializes. Temperature is tagged omitempty, so an exact 0 would be
// dropped and the API would apply its default of 1. go-openai documents
// math.SmallestNonzeroFloat32 as the way to request zero; the API treats
// it as greedy sampling.
func wireTemperature(t float32) float32 {
	if t == 0 {
		return math.SmallestNonzeroFloat32
	}
	return t
}

// Model returns the default model of this client.
func (o *OpenAIClient) Model() string { return o.model }

// Chat implements the LLMClient interface
func (o *OpenAIClient) Chat(ctx context.Context, messages []Message, params GenerationParams) (string, error) {
	model := o.model
	if params.Model != "" {
		model = params.Model
	}
	slog.Debug("Generating text via OpenAI", "model", model, "messages", len(messages))

	req := openai.ChatCompletionRequest{
		Model:    model,
		Messages: make([]openai.ChatCompletionMessage, 0, len(messages)),
	}
	for _, m := range messages {
		req.Messages = append(req.Messages, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}
	if params.Temperature != nil {
		req.Temperature = wireTemperature(*params.Temperature)
	}
	if params.MaxTokens != nil {
		req.MaxCompletionTokens = *params.MaxTokens
	}

	start := time.Now()
	resp, err := o.client.CreateChatCompletion(ctx, req)
	if err != nil {
		le := classifyOpenAIError(err)
		recordCall(ctx, model, string(le.Kind), time.Since(start), 0, 0)
		slog.Error("OpenAI API call failed", "kind", le.Kind, "status", le.StatusCode, "error", err)
		return "", le
	}

	if len(resp.Choices) == 0 {
		recordCall(ctx, model, string(KindMalformedResponse), time.Since(start), resp.Usage.PromptTokens, resp.Usage.CompletionTokens)
		slog.Warn("OpenAI returned no choices")
		return "", &Error{Kind: KindMalformedResponse, Err: fmt.Errorf("no choices: %w", ErrEmptyResponse)}
	}
	recordCall(ctx, model, "success", time.Since(start), resp.Usage.PromptTokens, resp.Usage.CompletionTokens)
	slog.Debug("Received response from OpenAI", "finish_reason", resp.Choices[0].FinishReason)
	return resp.Choices[0].Message.Content, nil
}
