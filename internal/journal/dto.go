package journal

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/moodjournal-backend/internal/analysis"
	"github.com/angelmondragon/moodjournal-backend/pkg/db/models"
)

const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

// EntryDTO is the transport shape of a persisted entry.
type EntryDTO struct {
	ID          uuid.UUID `json:"id"`
	EntryText   string    `json:"entry_text"`
	Mood        string    `json:"mood"`
	StressLevel int       `json:"stress_level"`
	Topic       string    `json:"topic"`
	Summary     string    `json:"summary"`
	Advice      string    `json:"advice"`
	CreatedAt   time.Time `json:"created_at"`
}

// SavedEntry identifies a newly written entry.
type SavedEntry struct {
	ID        uuid.UUID `json:"id"`
	CreatedAt time.Time `json:"created_at"`
}

// SubmitResult is the outcome of the analyze-then-save workflow. Entry is nil
// when the text was rejected.
type SubmitResult struct {
	Analysis analysis.Result `json:"analysis"`
	Entry    *SavedEntry     `json:"entry,omitempty"`
}

func FromModel(e models.JournalEntry) EntryDTO {
	return EntryDTO{
		ID:          e.ID,
		EntryText:   e.EntryText,
		Mood:        e.Mood,
		StressLevel: e.StressLevel,
		Topic:       e.Topic,
		Summary:     e.Summary,
		Advice:      e.Advice,
		CreatedAt:   e.CreatedAt,
	}
}

func FromModels(entries []models.JournalEntry) []EntryDTO {
	out := make([]EntryDTO, 0, len(entries))
	for _, e := range entries {
		out = append(out, FromModel(e))
	}
	return out
}
