package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/grocerytrack/receipt-parser/internal/common"
)

// OllamaConfig configures the local Ollama backend.
type OllamaConfig struct {
	Host    string
	Model   string
	Timeout time.Duration
	Options ChatOptions
}

// DefaultOllamaConfig targets a small local model tuned for deterministic
// JSON extraction. The stop sequences cut the model off before it opens a
// markdown fence.
func DefaultOllamaConfig() OllamaConfig {
	return OllamaConfig{
		Host:    "http://localhost:11434",
		Model:   "qwen2.5:0.5b",
		Timeout: 45 * time.Second,
		Options: ChatOptions{
			Temperature: 0,
			NumPredict:  2048,
			NumCtx:      4096,
			Stop:        []string{"```", "```json", "```\n"},
		},
	}
}

// OllamaClient implements Chatter against the Ollama /api/chat endpoint.
type OllamaClient struct {
	cfg    OllamaConfig
	http   *http.Client
	logger *slog.Logger
}

func NewOllamaClient(cfg OllamaConfig, logger *slog.Logger) *OllamaClient {
	def := DefaultOllamaConfig()
	if cfg.Host == "" {
		cfg.Host = def.Host
	}
	if cfg.Model == "" {
		cfg.Model = def.Model
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &OllamaClient{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
	Options  ChatOptions   `json:"options"`
}

type chatResponse struct {
	Message struct {
		Content string `json:"content"`
	} `json:"message"`
	Error string `json:"error,omitempty"`
}

// Chat sends a system and user message and returns the assistant reply.
func (c *OllamaClient) Chat(ctx context.Context, system, user string) (string, error) {
	url := strings.TrimRight(c.cfg.Host, "/") + "/api/chat"
	body := chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Stream:  false,
		Options: c.cfg.Options,
	}

	raw, status, err := sendJSON(ctx, c.http, url, body, c.logger)
	if err != nil {
		return "", common.WrapError(common.ErrUpstreamUnavailable,
			fmt.Sprintf("ollama chat failed (status %d): %v", status, err))
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", common.WrapError(common.ErrMalformedReply, "ollama response decode failed")
	}
	if parsed.Error != "" {
		return "", common.WrapError(common.ErrUpstreamUnavailable, parsed.Error)
	}
	return parsed.Message.Content, nil
}

var _ Chatter = (*OllamaClient)(nil)
