package llm

import "testing"

func TestResolveEndpointDefaults(t *testing.T) {
	tests := []struct {
		provider Provider
		want     string
	}{
		{ProviderOpenAI, "https://api.openai.com/v1/chat/completions"},
		{ProviderAnthropic, "https://api.anthropic.com/v1/messages"},
		{ProviderDeepSeek, "https://api.deepseek.com/v1/chat/completions"},
		{ProviderMiniMax, "https://api.minimax.chat/v1/text/chatcompletion_v2"},
		{ProviderZhipu, "https://open.bigmodel.cn/api/paas/v4/chat/completions"},
		{ProviderOllama, "http://localhost:11434"},
		{ProviderCustom, ""},
	}
	for _, tt := range tests {
		got, err := ResolveEndpoint(Config{Provider: tt.provider})
		if err != nil {
			t.Fatalf("ResolveEndpoint(%s): %v", tt.provider, err)
		}
		if got != tt.want {
			t.Errorf("ResolveEndpoint(%s) = %q, want %q", tt.provider, got, tt.want)
		}
	}
}

func TestResolveEndpointBaseURL(t *testing.T) {
	tests := []struct {
		name     string
		provider Provider
		baseURL  string
		want     string
	}{
		{
			name:     "complete path used verbatim",
			provider: ProviderOpenAI,
			baseURL:  "https://proxy.example.com/v1/chat/completions",
			want:     "https://proxy.example.com/v1/chat/completions",
		},
		{
			name:     "bare host gets scheme and suffix",
			provider: ProviderOpenAI,
			baseURL:  "proxy.example.com",
			want:     "https://proxy.example.com/v1/chat/completions",
		},
		{
			name:     "trailing slash stripped",
			provider: ProviderDeepSeek,
			baseURL:  "https://mirror.example.com/",
			want:     "https://mirror.example.com/v1/chat/completions",
		},
		{
			name:     "versioned path kept verbatim",
			provider: ProviderOpenAI,
			baseURL:  "https://proxy.example.com/v1",
			want:     "https://proxy.example.com/v1",
		},
		{
			name:     "zhipu suffix",
			provider: ProviderZhipu,
			baseURL:  "open.bigmodel.cn",
			want:     "https://open.bigmodel.cn/api/paas/v4/chat/completions",
		},
		{
			name:     "anthropic messages path verbatim",
			provider: ProviderAnthropic,
			baseURL:  "https://gateway.example.com/v1/messages",
			want:     "https://gateway.example.com/v1/messages",
		},
		{
			name:     "ollama host kept bare",
			provider: ProviderOllama,
			baseURL:  "http://192.168.1.5:11434",
			want:     "http://192.168.1.5:11434",
		},
		{
			name:     "custom with base url",
			provider: ProviderCustom,
			baseURL:  "llm.internal.example.com",
			want:     "https://llm.internal.example.com/v1/chat/completions",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveEndpoint(Config{Provider: tt.provider, BaseURL: tt.baseURL})
			if err != nil {
				t.Fatalf("ResolveEndpoint: %v", err)
			}
			if got != tt.want {
				t.Errorf("ResolveEndpoint = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestResolveEndpointDeterministic(t *testing.T) {
	cfg := Config{Provider: ProviderOpenAI, BaseURL: "proxy.example.com"}
	first, err := ResolveEndpoint(cfg)
	if err != nil {
		t.Fatalf("ResolveEndpoint: %v", err)
	}
	for i := 0; i < 5; i++ {
		got, err := ResolveEndpoint(cfg)
		if err != nil {
			t.Fatalf("ResolveEndpoint: %v", err)
		}
		if got != first {
			t.Fatalf("ResolveEndpoint not deterministic: %q then %q", first, got)
		}
	}
}

func TestResolveEndpointUnknownProvider(t *testing.T) {
	if _, err := ResolveEndpoint(Config{Provider: "gemini"}); err == nil {
		t.Fatal("expected error for unknown provider")
	}
}

func TestHasCompleteAPIPath(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		{"https://host.example.com", false},
		{"https://host.example.com/api", false},
		{"https://host.example.com/v1", true},
		{"https://host.example.com/v4/something", true},
		{"https://host.example.com/api/chat", true},
		{"https://host.example.com/completions", true},
		{"https://host.example.com/messages", true},
		{"https://host.example.com/verse", false},
	}
	for _, tt := range tests {
		if got := hasCompleteAPIPath(tt.url); got != tt.want {
			t.Errorf("hasCompleteAPIPath(%q) = %v, want %v", tt.url, got, tt.want)
		}
	}
}
