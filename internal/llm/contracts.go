package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/chavannishanthrao/AutoPOProcessor/constants"
	"github.com/chavannishanthrao/AutoPOProcessor/internal/entity"
)

// ChatMessage is one turn of a chat completion request.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is a provider-agnostic completion request. The model comes from
// the tenant's AIConfiguration, not from the caller.
type ChatRequest struct {
	Messages    []ChatMessage
	Temperature float32
	MaxTokens   int
	JSONMode    bool
}

// Completer is the single LLM capability the pipeline depends on.
type Completer interface {
	Complete(ctx context.Context, req ChatRequest) (string, error)
}

const openAIBaseURL = "https://api.openai.com/v1"

// NewCompleter builds a Completer for a tenant's active AI configuration.
// Both supported providers speak the OpenAI chat/completions dialect; custom
// just points at a different endpoint.
func NewCompleter(cfg *entity.AIConfiguration, httpClient *http.Client) (Completer, error) {
	switch cfg.Provider {
	case constants.AIOpenAI:
		return newChatClient(openAIBaseURL, cfg.APIKey, cfg.ModelName, httpClient), nil
	case constants.AICustom:
		endpoint := strings.TrimSpace(cfg.Endpoint)
		if endpoint == "" {
			return nil, fmt.Errorf("custom AI provider requires an endpoint")
		}
		return newChatClient(endpoint, cfg.APIKey, cfg.ModelName, httpClient), nil
	default:
		return nil, fmt.Errorf("unsupported AI provider: %s", cfg.Provider)
	}
}
