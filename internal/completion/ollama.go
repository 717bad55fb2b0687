package completion

import (
	"context"
	"strings"

	"github.com/cockroachdb/errors"
	ollama "github.com/ollama/ollama/api"
	"go.uber.org/zap"
)

// OllamaClient talks to an Ollama server resolved from OLLAMA_HOST.
type OllamaClient struct {
	model string
	api   *ollama.Client
	log   *zap.Logger
}

// NewOllama builds a client for the given model identifier.
func NewOllama(model string, log *zap.Logger) (*OllamaClient, error) {
	if model == "" {
		return nil, &ConfigProblem{Reason: "completion model must be specified"}
	}
	if log == nil {
		log = zap.NewNop()
	}
	api, err := ollama.ClientFromEnvironment()
	if err != nil {
		return nil, errors.Wrap(ErrNetwork, err.Error())
	}
	return &OllamaClient{model: model, api: api, log: log.Named("ollama")}, nil
}

// ConfigProblem reports a client misconfiguration detected before any
// network traffic.
type ConfigProblem struct {
	Reason string
}

func (e *ConfigProblem) Error() string { return "completion client: " + e.Reason }

func (c *OllamaClient) Ping(ctx context.Context) error {
	if _, err := c.api.List(ctx); err != nil {
		return errors.Wrap(ErrNetwork, err.Error())
	}
	return nil
}

func (c *OllamaClient) Complete(ctx context.Context, req Request) (string, error) {
	messages := make([]ollama.Message, 0, 2)
	if req.System != "" {
		messages = append(messages, ollama.Message{Role: "system", Content: req.System})
	}
	messages = append(messages, ollama.Message{Role: "user", Content: req.Prompt})

	options := map[string]any{"temperature": req.Temperature}
	if req.MaxTokens > 0 {
		options["num_predict"] = req.MaxTokens
	}

	c.log.Debug("completion request",
		zap.String("model", c.model),
		zap.Int("prompt_bytes", len(req.Prompt)))

	var response strings.Builder
	chat := &ollama.ChatRequest{
		Model:    c.model,
		Messages: messages,
		Format:   req.Format,
		Options:  options,
	}
	err := c.api.Chat(ctx, chat, func(resp ollama.ChatResponse) error {
		response.WriteString(resp.Message.Content)
		return nil
	})
	if err != nil {
		return "", classify(err)
	}

	text := strings.TrimSpace(response.String())
	if text == "" {
		return "", errors.Wrap(ErrMalformedResponse, "empty completion")
	}
	return text, nil
}

// classify maps transport errors onto the package taxonomy so call sites
// can fall back without inspecting strings.
func classify(err error) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "unauthorized") || strings.Contains(msg, "401") || strings.Contains(msg, "403"):
		return errors.Wrap(ErrAuth, msg)
	default:
		return errors.Wrap(ErrNetwork, msg)
	}
}
