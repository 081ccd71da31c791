package llm

import (
	"encoding/json"
	"testing"

	"agentteam/internal/domain"
)

func testMessages() []domain.Message {
	return []domain.Message{
		{Role: domain.RoleSystem, Content: "You are the commander."},
		{Role: domain.RoleUser, Content: "Status report."},
		{Role: domain.RoleAssistant, Content: "All idle."},
		{Role: domain.RoleUser, Content: "Assign the next task."},
	}
}

func TestBuildRequestOpenAIHeaders(t *testing.T) {
	headers, _, err := BuildRequest(Config{Provider: ProviderOpenAI, APIKey: "sk-test", Model: "gpt-4o"}, testMessages(), domain.ChatOptions{}, false)
	if err != nil {
		t.Fatalf("BuildRequest: %v", err)
	}
	if headers["Content-Type"] != "application/json" {
		t.Errorf("Content-Type = %q", headers["Content-Type"])
	}
	if headers["Authorization"] != "Bearer sk-test" {
		t.Errorf("Authorization = %q", headers["Authorization"])
	}
}

func TestBuildRequestAnthropicHeaders(t *testing.T) {
	headers, _, err := BuildRequest(Config{Provider: ProviderAnthropic, APIKey: "sk-ant", Model: "claude-3-5-sonnet"}, testMessages(), domain.ChatOptions{}, false)
	if err != nil {
		t.Fatalf("BuildRequest: %v", err)
	}
	if headers["x-api-key"] != "sk-ant" {
		t.Errorf("x-api-key = %q", headers["x-api-key"])
	}
	if headers["anthropic-version"] != "2023-06-01" {
		t.Errorf("anthropic-version = %q", headers["anthropic-version"])
	}
	if _, ok := headers["Authorization"]; ok {
		t.Error("anthropic request must not carry an Authorization header")
	}
}

func TestBuildRequestOllamaHeaders(t *testing.T) {
	headers, _, err := BuildRequest(Config{Provider: ProviderOllama, Model: "llama3"}, testMessages(), domain.ChatOptions{}, false)
	if err != nil {
		t.Fatalf("BuildRequest: %v", err)
	}
	if _, ok := headers["Authorization"]; ok {
		t.Error("ollama request must not carry credentials")
	}
	if _, ok := headers["x-api-key"]; ok {
		t.Error("ollama request must not carry credentials")
	}
}

func TestBuildRequestOpenAIBody(t *testing.T) {
	_, body, err := BuildRequest(
		Config{Provider: ProviderOpenAI, APIKey: "k", Model: "gpt-4o"},
		testMessages(),
		domain.ChatOptions{Temperature: 0.7, MaxTokens: 256},
		true,
	)
	if err != nil {
		t.Fatalf("BuildRequest: %v", err)
	}

	var req openAIRequest
	if err := json.Unmarshal(body, &req); err != nil {
		t.Fatalf("unmarshal body: %v", err)
	}
	if req.Model != "gpt-4o" {
		t.Errorf("model = %q", req.Model)
	}
	if len(req.Messages) != 4 {
		t.Fatalf("len(messages) = %d, want 4 (system stays inline)", len(req.Messages))
	}
	if req.Messages[0].Role != domain.RoleSystem {
		t.Errorf("first role = %q, want system", req.Messages[0].Role)
	}
	if req.Temperature != 0.7 {
		t.Errorf("temperature = %v", req.Temperature)
	}
	if req.MaxTokens != 256 {
		t.Errorf("max_tokens = %d", req.MaxTokens)
	}
	if !req.Stream {
		t.Error("stream flag not set")
	}
}

func TestBuildRequestAnthropicHoistsSystem(t *testing.T) {
	_, body, err := BuildRequest(
		Config{Provider: ProviderAnthropic, APIKey: "k", Model: "claude-3-5-sonnet"},
		testMessages(),
		domain.ChatOptions{},
		false,
	)
	if err != nil {
		t.Fatalf("BuildRequest: %v", err)
	}

	var req anthropicRequest
	if err := json.Unmarshal(body, &req); err != nil {
		t.Fatalf("unmarshal body: %v", err)
	}
	if req.System != "You are the commander." {
		t.Errorf("system = %q", req.System)
	}
	if len(req.Messages) != 3 {
		t.Fatalf("len(messages) = %d, want 3 (system hoisted out)", len(req.Messages))
	}
	for _, m := range req.Messages {
		if m.Role == domain.RoleSystem {
			t.Errorf("system message left in messages array")
		}
	}
	if req.MaxTokens != anthropicDefaultMaxTokens {
		t.Errorf("max_tokens = %d, want default %d", req.MaxTokens, anthropicDefaultMaxTokens)
	}
}

func TestBuildRequestOllamaBody(t *testing.T) {
	_, body, err := BuildRequest(
		Config{Provider: ProviderOllama, Model: "llama3"},
		testMessages(),
		domain.ChatOptions{Temperature: 0.9, MaxTokens: 100},
		false,
	)
	if err != nil {
		t.Fatalf("BuildRequest: %v", err)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		t.Fatalf("unmarshal body: %v", err)
	}
	if _, ok := raw["temperature"]; ok {
		t.Error("ollama body must not carry temperature")
	}
	if _, ok := raw["max_tokens"]; ok {
		t.Error("ollama body must not carry max_tokens")
	}
	if _, ok := raw["stream"]; !ok {
		t.Error("ollama body must carry an explicit stream flag")
	}
}

func TestBuildRequestUnknownProvider(t *testing.T) {
	if _, _, err := BuildRequest(Config{Provider: "palm"}, testMessages(), domain.ChatOptions{}, false); err == nil {
		t.Fatal("expected error for unknown provider")
	}
}
