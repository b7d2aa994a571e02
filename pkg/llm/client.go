package llm

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/angelmondragon/moodjournal-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/moodjournal-backend/pkg/errors"
	"github.com/angelmondragon/moodjournal-backend/pkg/logger"
	"github.com/angelmondragon/moodjournal-backend/pkg/metrics"
)

// Request is a single-turn completion that must answer with one JSON object.
type Request struct {
	Operation   string
	System      string
	Prompt      string
	Temperature float64
	// Validate checks the extracted object's shape. A failure is counted as a
	// format error and returned unchanged.
	Validate func(json.RawMessage) error
}

// Completer returns the JSON object extracted from a model completion.
type Completer interface {
	CompleteJSON(ctx context.Context, req Request) (json.RawMessage, error)
}

// Client calls the hosted model once per request. Retries are disabled and
// every call is bounded by the configured timeout.
type Client struct {
	api       anthropic.Client
	model     string
	maxTokens int64
	timeout   time.Duration
	metrics   *metrics.LLMMetrics
	logg      *logger.Logger
}

func NewClient(cfg config.LLMConfig, m *metrics.LLMMetrics, logg *logger.Logger) (*Client, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("llm api key is required")
	}
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, errors.New("llm model is required")
	}
	if cfg.Timeout <= 0 {
		return nil, errors.New("llm timeout must be positive")
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1024
	}

	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
		option.WithRequestTimeout(cfg.Timeout),
	}
	if base := strings.TrimSpace(cfg.BaseURL); base != "" {
		opts = append(opts, option.WithBaseURL(base))
	}

	return &Client{
		api:       anthropic.NewClient(opts...),
		model:     strings.TrimSpace(cfg.Model),
		maxTokens: maxTokens,
		timeout:   cfg.Timeout,
		metrics:   m,
		logg:      logg,
	}, nil
}

func (c *Client) CompleteJSON(ctx context.Context, req Request) (json.RawMessage, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: c.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
		Temperature: anthropic.Float(req.Temperature),
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}

	started := time.Now()
	msg, err := c.api.Messages.New(ctx, params)
	c.metrics.ObserveDuration(req.Operation, time.Since(started))
	if err != nil {
		c.metrics.IncOutcome(req.Operation, metrics.OutcomeUpstreamError)
		return nil, pkgerrors.Wrap(pkgerrors.CodeUpstream, err, "language model request failed")
	}

	raw, err := ExtractJSON(firstText(msg))
	if err != nil {
		c.metrics.IncOutcome(req.Operation, metrics.OutcomeFormatError)
		if c.logg != nil {
			logCtx := c.logg.WithFields(ctx, map[string]any{
				"operation":   req.Operation,
				"stop_reason": string(msg.StopReason),
			})
			c.logg.Warn(logCtx, "llm.invalid_completion")
		}
		return nil, err
	}
	if req.Validate != nil {
		if err := req.Validate(raw); err != nil {
			c.metrics.IncOutcome(req.Operation, metrics.OutcomeFormatError)
			if c.logg != nil {
				c.logg.Warn(c.logg.WithField(ctx, "operation", req.Operation), "llm.unexpected_shape")
			}
			return nil, err
		}
	}

	c.metrics.IncOutcome(req.Operation, metrics.OutcomeOK)
	return raw, nil
}

func firstText(msg *anthropic.Message) string {
	if msg == nil {
		return ""
	}
	for _, block := range msg.Content {
		if block.Type == "text" && block.Text != "" {
			return block.Text
		}
	}
	return ""
}

// ExtractJSON returns the object between the first "{" and the last "}".
func ExtractJSON(s string) (json.RawMessage, error) {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start == -1 || end == -1 || end <= start {
		return nil, pkgerrors.New(pkgerrors.CodeUpstreamFormat, "no JSON object found in completion")
	}
	candidate := s[start : end+1]
	if !json.Valid([]byte(candidate)) {
		return nil, pkgerrors.New(pkgerrors.CodeUpstreamFormat, "completion is not valid JSON").
			WithDetails(map[string]any{"completion": truncate(s, 512)})
	}
	return json.RawMessage(candidate), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
