package dashboard

import (
	"context"
	"time"

	"github.com/angelmondragon/moodjournal-backend/internal/entitlements"
	"github.com/angelmondragon/moodjournal-backend/internal/journal"
	"github.com/angelmondragon/moodjournal-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/moodjournal-backend/pkg/errors"
)

// DefaultLimit is how many recent entries the dashboard aggregates over.
const DefaultLimit = 50

type entryLister interface {
	List(ctx context.Context, userID string, limit int) ([]models.JournalEntry, error)
}

type accessResolver interface {
	Resolve(ctx context.Context, userID string) (entitlements.Access, error)
}

type ServiceParams struct {
	Entries entryLister
	Access  accessResolver
	Now     func() time.Time
}

type Service struct {
	entries entryLister
	access  accessResolver
	now     func() time.Time
}

// View is the dashboard payload. Advanced and Options are only set for Pro users.
type View struct {
	Access   entitlements.Access `json:"access"`
	Entries  []journal.EntryDTO  `json:"entries"`
	Advanced *Summary            `json:"advanced,omitempty"`
	Options  *Options            `json:"options,omitempty"`
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Entries == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "entry lister required")
	}
	if params.Access == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "access resolver required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &Service{entries: params.Entries, access: params.Access, now: now}, nil
}

// View loads the user's recent entries and aggregates them. Filters only apply
// to advanced views; other tiers get the plain entry list.
func (s *Service) View(ctx context.Context, userID string, filters Filters, limit int, loc *time.Location) (*View, error) {
	if loc == nil {
		loc = time.UTC
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	access, err := s.access.Resolve(ctx, userID)
	if err != nil {
		return nil, err
	}
	entries, err := s.entries.List(ctx, userID, limit)
	if err != nil {
		return nil, err
	}

	view := &View{Access: access}
	if !access.AdvancedViews {
		view.Entries = journal.FromModels(entries)
		return view, nil
	}

	summary := Aggregate(entries, filters, s.now().In(loc))
	options := BuildOptions(entries)
	view.Entries = journal.FromModels(summary.FilteredEntries)
	view.Advanced = &summary
	view.Options = &options
	return view, nil
}
