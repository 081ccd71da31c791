package llm

import (
	"encoding/json"
	"fmt"

	"agentteam/internal/domain"
)

// openAIDialect builds the dialect shared by every OpenAI-compatible
// provider (openai, deepseek, minimax, zhipu, custom). Only the endpoints
// differ between them.
func openAIDialect(defaultEndpoint, pathSuffix string) dialect {
	return dialect{
		defaultEndpoint: defaultEndpoint,
		pathSuffix:      pathSuffix,
		requiresKey:     true,
		streamable:      true,
		credentials:     bearerCredentials,
		body:            openAIBody,
		parse:           parseOpenAIResponse,
		delta:           parseOpenAILine,
	}
}

func bearerCredentials(cfg Config, headers map[string]string) {
	if cfg.APIKey != "" {
		headers["Authorization"] = "Bearer " + cfg.APIKey
	}
}

type openAIRequest struct {
	Model       string           `json:"model"`
	Messages    []domain.Message `json:"messages"`
	Temperature float64          `json:"temperature,omitempty"`
	MaxTokens   int              `json:"max_tokens,omitempty"`
	Stream      bool             `json:"stream,omitempty"`
}

func openAIBody(cfg Config, msgs []domain.Message, opts domain.ChatOptions, stream bool) any {
	return openAIRequest{
		Model:       cfg.Model,
		Messages:    msgs,
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
		Stream:      stream,
	}
}

type openAIResponse struct {
	Model   string         `json:"model"`
	Choices []openAIChoice `json:"choices"`
	Usage   *openAIUsage   `json:"usage"`
}

type openAIChoice struct {
	Message domain.Message `json:"message"`
}

type openAIUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

func parseOpenAIResponse(raw []byte) (*domain.ChatResult, error) {
	var resp openAIResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	result := &domain.ChatResult{Model: resp.Model}
	if len(resp.Choices) > 0 {
		result.Content = resp.Choices[0].Message.Content
	}
	if resp.Usage != nil {
		result.Usage = &domain.Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		}
	}
	return result, nil
}

type openAIStreamChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

func parseOpenAILine(data []byte) (*domain.StreamChunk, error) {
	var chunk openAIStreamChunk
	if err := json.Unmarshal(data, &chunk); err != nil {
		return nil, err
	}
	if len(chunk.Choices) == 0 || chunk.Choices[0].Delta.Content == "" {
		return nil, nil
	}
	return &domain.StreamChunk{Content: chunk.Choices[0].Delta.Content}, nil
}
