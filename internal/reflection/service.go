package reflection

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	nonstandard "github.com/go-playground/validator/v10/non-standard/validators"

	"github.com/angelmondragon/moodjournal-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/moodjournal-backend/pkg/errors"
	"github.com/angelmondragon/moodjournal-backend/pkg/llm"
)

const (
	operation  = "reflect"
	dateLayout = "2006-01-02"
	// recentLimit bounds how many entries are scanned for today's subset.
	recentLimit = 50
)

const systemPrompt = `You generate short daily reflections.

You receive a summary of the user's day based on journal analysis.

Your task:
- Generate exactly ONE short daily affirmation (1-2 sentences).
- Generate exactly ONE reflection question to help the user think deeper about their day.

Guidelines:
- Be supportive and calm
- Use simple, warm language
- Do NOT repeat the summary
- Do NOT give long advice
- No emojis or decorative symbols
- Output ONLY valid JSON

Return JSON format:
{"affirmation": string, "reflection_question": string}`

// EntrySummary is the condensed view of an entry sent upstream. Raw text is never included.
type EntrySummary struct {
	Mood        string `json:"mood" validate:"required,notblank"`
	StressLevel int    `json:"stress_level" validate:"gte=0,lte=10"`
	Topic       string `json:"topic" validate:"required,notblank"`
	Summary     string `json:"summary" validate:"required,notblank"`
}

type Reflection struct {
	Affirmation        string `json:"affirmation" validate:"required,notblank"`
	ReflectionQuestion string `json:"reflection_question" validate:"required,notblank"`
}

type entryLister interface {
	List(ctx context.Context, userID string, limit int) ([]models.JournalEntry, error)
}

type ServiceParams struct {
	LLM         llm.Completer
	Entries     entryLister
	Temperature float64
	Now         func() time.Time
}

type Service struct {
	llm         llm.Completer
	entries     entryLister
	temperature float64
	now         func() time.Time
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("notblank", nonstandard.NotBlank)
	return v
}

func NewService(params ServiceParams) (*Service, error) {
	if params.LLM == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "llm completer required")
	}
	if params.Entries == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "entry lister required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		llm:         params.LLM,
		entries:     params.Entries,
		temperature: params.Temperature,
		now:         now,
	}, nil
}

// Reflect asks the model for one affirmation and one question about the day.
func (s *Service) Reflect(ctx context.Context, date string, entries []EntrySummary) (*Reflection, error) {
	if len(entries) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "entries are required").
			WithDetails(map[string]string{"entries": "is required"})
	}
	if _, err := time.Parse(dateLayout, date); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "date must be YYYY-MM-DD").
			WithDetails(map[string]string{"date": "must be YYYY-MM-DD"})
	}
	for _, e := range entries {
		if err := validate.Struct(e); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "entry summary is invalid")
		}
	}

	payload, err := json.Marshal(struct {
		Date    string         `json:"date"`
		Entries []EntrySummary `json:"entries"`
	}{Date: date, Entries: entries})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode reflection payload")
	}

	raw, err := s.llm.CompleteJSON(ctx, llm.Request{
		Operation:   operation,
		System:      systemPrompt,
		Prompt:      string(payload),
		Temperature: s.temperature,
		Validate: func(raw json.RawMessage) error {
			_, err := decodeReflection(raw)
			return err
		},
	})
	if err != nil {
		if pkgerrors.As(err) == nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeUpstream, err, "reflection request failed")
		}
		return nil, err
	}
	return decodeReflection(raw)
}

// ReflectToday loads the user's recent entries and reflects over the ones
// written today in loc.
func (s *Service) ReflectToday(ctx context.Context, userID string, loc *time.Location) (*Reflection, error) {
	if loc == nil {
		loc = time.UTC
	}
	recent, err := s.entries.List(ctx, userID, recentLimit)
	if err != nil {
		return nil, err
	}
	now := s.now().In(loc)
	today := TodaysEntries(recent, now, loc)
	if len(today) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no journal entries today").
			WithDetails(map[string]string{"entries": "none written today"})
	}
	return s.Reflect(ctx, now.Format(dateLayout), Summaries(today))
}

// TodaysEntries keeps entries whose creation date in loc matches now's date.
func TodaysEntries(entries []models.JournalEntry, now time.Time, loc *time.Location) []models.JournalEntry {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := now.In(loc).Date()
	out := make([]models.JournalEntry, 0, len(entries))
	for _, e := range entries {
		ey, em, ed := e.CreatedAt.In(loc).Date()
		if ey == y && em == m && ed == d {
			out = append(out, e)
		}
	}
	return out
}

func Summaries(entries []models.JournalEntry) []EntrySummary {
	out := make([]EntrySummary, 0, len(entries))
	for _, e := range entries {
		out = append(out, EntrySummary{
			Mood:        e.Mood,
			StressLevel: e.StressLevel,
			Topic:       e.Topic,
			Summary:     e.Summary,
		})
	}
	return out
}

func decodeReflection(raw []byte) (*Reflection, error) {
	var out Reflection
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&out); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUpstreamFormat, err, "reflection did not decode")
	}
	if err := validate.Struct(out); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUpstreamFormat, err, "reflection failed validation")
	}
	out.Affirmation = strings.TrimSpace(out.Affirmation)
	out.ReflectionQuestion = strings.TrimSpace(out.ReflectionQuestion)
	return &out, nil
}
