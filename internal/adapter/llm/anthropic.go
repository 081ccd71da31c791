package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"agentteam/internal/domain"
)

const anthropicVersion = "2023-06-01"

// The Messages API rejects requests without max_tokens.
const anthropicDefaultMaxTokens = 4096

func anthropicDialect() dialect {
	return dialect{
		defaultEndpoint: "https://api.anthropic.com/v1/messages",
		pathSuffix:      "/v1/messages",
		requiresKey:     true,
		streamable:      false, // streamed via a single Chat call
		credentials:     anthropicCredentials,
		body:            anthropicBody,
		parse:           parseAnthropicResponse,
	}
}

func anthropicCredentials(cfg Config, headers map[string]string) {
	headers["x-api-key"] = cfg.APIKey
	headers["anthropic-version"] = anthropicVersion
}

type anthropicRequest struct {
	Model       string           `json:"model"`
	MaxTokens   int              `json:"max_tokens"`
	Messages    []domain.Message `json:"messages"`
	System      string           `json:"system,omitempty"`
	Temperature float64          `json:"temperature,omitempty"`
}

func anthropicBody(cfg Config, msgs []domain.Message, opts domain.ChatOptions, _ bool) any {
	system, rest := splitSystem(msgs)
	maxTokens := opts.MaxTokens
	if maxTokens == 0 {
		maxTokens = anthropicDefaultMaxTokens
	}
	return anthropicRequest{
		Model:       cfg.Model,
		MaxTokens:   maxTokens,
		Messages:    rest,
		System:      system,
		Temperature: opts.Temperature,
	}
}

// splitSystem hoists system-role messages out of the conversation; the
// Anthropic API takes them as a single top-level field and only accepts
// user/assistant turns in the messages array.
func splitSystem(msgs []domain.Message) (string, []domain.Message) {
	var system []string
	rest := make([]domain.Message, 0, len(msgs))
	for _, m := range msgs {
		if m.Role == domain.RoleSystem {
			system = append(system, m.Content)
			continue
		}
		rest = append(rest, m)
	}
	return strings.Join(system, "\n\n"), rest
}

type anthropicResponse struct {
	Model   string             `json:"model"`
	Content []anthropicContent `json:"content"`
	Usage   *anthropicUsage    `json:"usage"`
}

type anthropicContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type anthropicUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

func parseAnthropicResponse(raw []byte) (*domain.ChatResult, error) {
	var resp anthropicResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	result := &domain.ChatResult{Model: resp.Model}
	for _, block := range resp.Content {
		if block.Type == "text" {
			result.Content += block.Text
		}
	}
	if resp.Usage != nil {
		result.Usage = &domain.Usage{
			PromptTokens:     resp.Usage.InputTokens,
			CompletionTokens: resp.Usage.OutputTokens,
			TotalTokens:      resp.Usage.InputTokens + resp.Usage.OutputTokens,
		}
	}
	return result, nil
}
