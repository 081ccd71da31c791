package llm

import (
	"fmt"

	"agentteam/internal/domain"
)

// Provider identifies one of the supported LLM API dialects.
type Provider string

const (
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
	ProviderDeepSeek  Provider = "deepseek"
	ProviderMiniMax   Provider = "minimax"
	ProviderZhipu     Provider = "zhipu"
	ProviderOllama    Provider = "ollama"
	ProviderCustom    Provider = "custom"
)

// Providers lists every supported provider in display order.
func Providers() []Provider {
	return []Provider{
		ProviderOpenAI,
		ProviderAnthropic,
		ProviderDeepSeek,
		ProviderMiniMax,
		ProviderZhipu,
		ProviderOllama,
		ProviderCustom,
	}
}

// ParseProvider validates a provider name from config or user input.
func ParseProvider(name string) (Provider, error) {
	p := Provider(name)
	if _, ok := dialects[p]; !ok {
		return "", fmt.Errorf("unknown provider %q", name)
	}
	return p, nil
}

// Config is the effective provider configuration for a single call. Callers
// assemble it from one profile (or the global settings) before each request;
// the adapter never merges or caches configurations itself.
type Config struct {
	Provider Provider
	APIKey   string
	Model    string
	BaseURL  string // optional override; empty means the provider default
}

// dialect bundles everything provider-specific: where requests go, how they
// are authenticated and shaped, and how responses are read back. There is no
// fallback dialect; unknown providers fail validation before any call.
type dialect struct {
	defaultEndpoint string
	pathSuffix      string // appended to a bare base URL
	requiresKey     bool
	streamable      bool // false degrades ChatStream to a single Chat call

	credentials func(cfg Config, headers map[string]string)
	body        func(cfg Config, msgs []domain.Message, opts domain.ChatOptions, stream bool) any
	parse       func(raw []byte) (*domain.ChatResult, error)
	delta       func(data []byte) (*domain.StreamChunk, error)
}

var dialects = map[Provider]dialect{
	ProviderOpenAI:    openAIDialect("https://api.openai.com/v1/chat/completions", "/v1/chat/completions"),
	ProviderDeepSeek:  openAIDialect("https://api.deepseek.com/v1/chat/completions", "/v1/chat/completions"),
	ProviderMiniMax:   openAIDialect("https://api.minimax.chat/v1/text/chatcompletion_v2", "/v1/text/chatcompletion_v2"),
	ProviderZhipu:     openAIDialect("https://open.bigmodel.cn/api/paas/v4/chat/completions", "/api/paas/v4/chat/completions"),
	ProviderCustom:    openAIDialect("", "/v1/chat/completions"),
	ProviderAnthropic: anthropicDialect(),
	ProviderOllama:    ollamaDialect(),
}

func dialectFor(p Provider) (dialect, error) {
	d, ok := dialects[p]
	if !ok {
		return dialect{}, fmt.Errorf("unknown provider %q", p)
	}
	return d, nil
}
