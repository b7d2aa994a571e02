package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	pkgerrors "github.com/angelmondragon/moodjournal-backend/pkg/errors"
	"github.com/angelmondragon/moodjournal-backend/pkg/llm"
)

const operation = "analyze"

type GatewayParams struct {
	LLM         llm.Completer
	MaxChars    int
	Temperature float64
}

// Gateway classifies entry text and analyzes accepted entries with the hosted model.
type Gateway struct {
	llm         llm.Completer
	maxChars    int
	temperature float64
}

func NewGateway(params GatewayParams) (*Gateway, error) {
	if params.LLM == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "llm completer required")
	}
	if params.MaxChars <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "max chars must be positive")
	}
	return &Gateway{
		llm:         params.LLM,
		maxChars:    params.MaxChars,
		temperature: params.Temperature,
	}, nil
}

// Analyze makes exactly one model call. It does not retry.
func (g *Gateway) Analyze(ctx context.Context, text string) (Result, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return Result{}, pkgerrors.New(pkgerrors.CodeValidation, "text is required").
			WithDetails(map[string]string{"text": "is required"})
	}
	if n := utf8.RuneCountInString(trimmed); n > g.maxChars {
		return Result{}, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("text must be at most %d characters", g.maxChars)).
			WithDetails(map[string]any{"text": "too long", "max_chars": g.maxChars, "chars": n})
	}

	raw, err := g.llm.CompleteJSON(ctx, llm.Request{
		Operation:   operation,
		System:      systemPrompt,
		Prompt:      buildPrompt(trimmed),
		Temperature: g.temperature,
		Validate:    validateCompletion,
	})
	if err != nil {
		if pkgerrors.As(err) == nil {
			return Result{}, pkgerrors.Wrap(pkgerrors.CodeUpstream, err, "analysis request failed")
		}
		return Result{}, err
	}
	return DecodeResult(raw)
}

func validateCompletion(raw json.RawMessage) error {
	if _, err := DecodeResult(raw); err != nil {
		return err
	}
	return nil
}
