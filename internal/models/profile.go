package models

import "time"

// Known scout tiers. The tier set is owned externally and may grow.
const (
	TierNew    = "New Scout"
	TierScout  = "Scout"
	TierSenior = "Senior Scout"
	TierSuper  = "Super Scout"
)

// ProfileRecord is the one-per-user profile row, mutated externally.
type ProfileRecord struct {
	ID        string    `json:"id" db:"id"`
	FullName  *string   `json:"fullName,omitempty" db:"full_name"`
	Email     string    `json:"email" db:"email"`
	ScoutTier string    `json:"scoutTier" db:"scout_tier"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}
