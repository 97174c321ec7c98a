package dashboard

import (
	"context"

	"scoutly/internal/models"

	"github.com/shopspring/decimal"
)

// DefaultDisplayName is shown when the profile has no full name.
const DefaultDisplayName = "Scout"

type HomeStats struct {
	DisplayName      string          `json:"displayName"`
	TotalSubmissions int             `json:"totalSubmissions"`
	Pending          int             `json:"pending"`
	TotalEarned      decimal.Decimal `json:"totalEarned"`
	ScoutTier        string          `json:"scoutTier"`
}

func (s *Service) Home(ctx context.Context, user models.User) (*HomeStats, error) {
	const page = "home"
	if err := requireUser(user); err != nil {
		return nil, err
	}

	stats := &HomeStats{
		DisplayName: DefaultDisplayName,
		ScoutTier:   models.TierNew,
		TotalEarned: decimal.Zero,
	}

	prof, err := s.profile(ctx, page, user)
	if err != nil {
		return nil, err
	}
	if prof != nil {
		if prof.FullName != nil && *prof.FullName != "" {
			stats.DisplayName = *prof.FullName
		}
		if prof.ScoutTier != "" {
			stats.ScoutTier = prof.ScoutTier
		}
	}

	statuses, err := s.submissions.Statuses(ctx, user.ID)
	if err != nil {
		return nil, s.fail(page, "submissions", user, err)
	}
	stats.TotalSubmissions = len(statuses)
	for _, st := range statuses {
		if st == models.SubmissionPending {
			stats.Pending++
		}
	}

	earnings, err := s.earnings.ListByUser(ctx, user.ID)
	if err != nil {
		return nil, s.fail(page, "earnings", user, err)
	}
	for _, e := range earnings {
		stats.TotalEarned = stats.TotalEarned.Add(e.Amount)
	}

	s.loaded(page)
	return stats, nil
}
