package entitlements

import (
	"time"

	"github.com/angelmondragon/moodjournal-backend/pkg/enums"
)

// Access is the resolved entitlement for a single user at a point in time.
type Access struct {
	Tier                  enums.EntitlementTier `json:"tier"`
	TrialEndsAt           *time.Time            `json:"trial_ends_at,omitempty"`
	TrialRemaining        time.Duration         `json:"-"`
	TrialRemainingSeconds int64                 `json:"trial_remaining_seconds"`
	AdvancedViews         bool                  `json:"advanced_views"`
	CanCreateEntries      bool                  `json:"can_create_entries"`
}

func accessFor(tier enums.EntitlementTier) Access {
	return Access{
		Tier:             tier,
		AdvancedViews:    tier == enums.EntitlementTierPro,
		CanCreateEntries: tier != enums.EntitlementTierExpired,
	}
}
