package llmservice

import (
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"document-chat/internal/config"
)

// NewChatModel builds a client for one model name on the configured endpoint.
func NewChatModel(cfg *config.ChatConfig, model string) (llms.Model, error) {
	switch cfg.Provider {
	case "", "ollama":
		return ollama.New(
			ollama.WithServerURL(cfg.BaseURL),
			ollama.WithModel(model),
		)
	case "openai":
		return openai.New(
			openai.WithBaseURL(cfg.BaseURL),
			openai.WithToken(strings.TrimPrefix(cfg.Key, "Bearer ")),
			openai.WithModel(model),
		)
	default:
		return nil, fmt.Errorf("unsupported chat provider: %s", cfg.Provider)
	}
}

// NewChatModels builds the clients for every configured model name, once at
// startup. The map is treated as immutable afterwards.
func NewChatModels(cfg *config.ChatConfig) (map[string]llms.Model, error) {
	clients := make(map[string]llms.Model, len(cfg.Models))
	for _, name := range cfg.Models {
		client, err := NewChatModel(cfg, name)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize model %s: %w", name, err)
		}
		clients[name] = client
	}
	return clients, nil
}
