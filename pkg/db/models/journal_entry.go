package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// JournalEntry is an analyzed diary entry owned by a single user.
type JournalEntry struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	ClerkUserID string    `gorm:"column:clerk_user_id;type:text;not null;index:idx_journal_entries_user_created,priority:1"`
	EntryText   string    `gorm:"column:entry_text;type:text;not null"`
	Mood        string    `gorm:"column:mood;type:text;not null"`
	StressLevel int       `gorm:"column:stress_level;not null"`
	Topic       string    `gorm:"column:topic;type:text;not null"`
	Summary     string    `gorm:"column:summary;type:text;not null"`
	Advice      string    `gorm:"column:advice;type:text;not null"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime;index:idx_journal_entries_user_created,priority:2,sort:desc"`
}

func (JournalEntry) TableName() string {
	return "journal_entries"
}

// BeforeCreate assigns the id client-side so the record is usable right after insert.
func (e *JournalEntry) BeforeCreate(_ *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
