// Package classify decides whether an email is purchase-order related.
// Obvious cases are caught by keyword heuristics for free; the LLM is
// reserved for genuinely ambiguous messages.
package classify

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode"

	"github.com/chavannishanthrao/AutoPOProcessor/internal/common"
	"github.com/chavannishanthrao/AutoPOProcessor/internal/entity"
	"github.com/chavannishanthrao/AutoPOProcessor/internal/llm"
)

// poKeywords trigger the fast path, case-insensitively.
var poKeywords = []string{
	"purchase order",
	"order confirmation",
	"po",
	"order",
	"invoice",
	"quote",
	"procurement",
}

// Classifier makes the PO-relevance decision for candidate emails.
type Classifier struct {
	httpClient  *http.Client
	temperature float32
	logger      *slog.Logger

	newCompleter func(cfg *entity.AIConfiguration, httpClient *http.Client) (llm.Completer, error)
}

func NewClassifier(cfg common.LLMConfig, logger *slog.Logger) *Classifier {
	if logger == nil {
		logger = slog.Default()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 45 * time.Second
	}
	return &Classifier{
		httpClient:   &http.Client{Timeout: timeout},
		temperature:  cfg.Temperature,
		logger:       logger,
		newCompleter: llm.NewCompleter,
	}
}

// IsPORelated returns the PO-relevance decision for a message. The keyword
// fast path is deterministic and free; the LLM slow path runs only for
// messages with neither a keyword nor an attachment. Missing AI configuration
// and LLM errors both reject conservatively.
func (c *Classifier) IsPORelated(ctx context.Context, msg *entity.EmailMessage, aiCfg *entity.AIConfiguration) bool {
	if MatchesKeywords(msg.Subject) || len(msg.Attachments) > 0 {
		return true
	}

	if aiCfg == nil {
		c.logger.Debug("classify.no_ai_configuration", "subject", msg.Subject)
		return false
	}

	completer, err := c.newCompleter(aiCfg, c.httpClient)
	if err != nil {
		c.logger.Warn("classify.completer_error", "error", err)
		return false
	}

	names := make([]string, 0, len(msg.Attachments))
	for _, a := range msg.Attachments {
		names = append(names, a.Filename)
	}

	resp, err := completer.Complete(ctx, llm.ChatRequest{
		Messages:    llm.BuildClassifierPrompt(msg.Subject, msg.From, names),
		Temperature: c.temperature,
		MaxTokens:   10,
	})
	if err != nil {
		c.logger.Warn("classify.llm_error", "subject", msg.Subject, "error", err)
		return false
	}
	return strings.EqualFold(strings.TrimSpace(resp), "true")
}

// MatchesKeywords is the deterministic fast path on subject text. Single-word
// keywords match whole words only; "po" must not fire inside "deposit".
func MatchesKeywords(subject string) bool {
	s := strings.ToLower(subject)
	words := map[string]bool{}
	for _, w := range strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	}) {
		words[w] = true
	}
	for _, kw := range poKeywords {
		if strings.ContainsRune(kw, ' ') {
			if strings.Contains(s, kw) {
				return true
			}
		} else if words[kw] {
			return true
		}
	}
	return false
}
