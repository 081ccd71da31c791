package llm

import (
	"encoding/json"
	"fmt"

	"agentteam/internal/domain"
)

// ollamaDialect targets a local Ollama daemon. No credentials, no token
// accounting, and the stream is newline-delimited JSON rather than SSE.
func ollamaDialect() dialect {
	return dialect{
		defaultEndpoint: "http://localhost:11434",
		pathSuffix:      "",
		streamable:      true,
		credentials:     func(Config, map[string]string) {},
		body:            ollamaBody,
		parse:           parseOllamaResponse,
		delta:           parseOllamaLine,
	}
}

type ollamaRequest struct {
	Model    string           `json:"model"`
	Messages []domain.Message `json:"messages"`
	// Ollama streams by default, so false must be sent explicitly.
	Stream bool `json:"stream"`
}

func ollamaBody(cfg Config, msgs []domain.Message, _ domain.ChatOptions, stream bool) any {
	return ollamaRequest{
		Model:    cfg.Model,
		Messages: msgs,
		Stream:   stream,
	}
}

type ollamaResponse struct {
	Model   string         `json:"model"`
	Message domain.Message `json:"message"`
	Done    bool           `json:"done"`
}

func parseOllamaResponse(raw []byte) (*domain.ChatResult, error) {
	var resp ollamaResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	// Local runtime, no usage accounting.
	return &domain.ChatResult{Content: resp.Message.Content, Model: resp.Model}, nil
}

func parseOllamaLine(data []byte) (*domain.StreamChunk, error) {
	var chunk ollamaResponse
	if err := json.Unmarshal(data, &chunk); err != nil {
		return nil, err
	}
	if chunk.Done {
		return &domain.StreamChunk{Done: true}, nil
	}
	if chunk.Message.Content == "" {
		return nil, nil
	}
	return &domain.StreamChunk{Content: chunk.Message.Content}, nil
}
