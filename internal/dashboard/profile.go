package dashboard

import (
	"context"
	"math"
	"strings"
	"unicode"
	"unicode/utf8"

	"scoutly/internal/models"
)

type ProfileView struct {
	FullName         string `json:"fullName,omitempty"`
	Email            string `json:"email"`
	Initial          string `json:"initial"`
	ScoutTier        string `json:"scoutTier"`
	TierStyle        string `json:"tierStyle"`
	TotalSubmissions int    `json:"totalSubmissions"`
	ClosedDeals      int    `json:"closedDeals"`
	SuccessRate      int    `json:"successRate"`
}

func (s *Service) Profile(ctx context.Context, user models.User) (*ProfileView, error) {
	const page = "profile"
	if err := requireUser(user); err != nil {
		return nil, err
	}

	view := &ProfileView{Email: user.Email, ScoutTier: models.TierNew}

	prof, err := s.profile(ctx, page, user)
	if err != nil {
		return nil, err
	}
	if prof != nil {
		if prof.FullName != nil {
			view.FullName = *prof.FullName
		}
		if prof.Email != "" {
			view.Email = prof.Email
		}
		if prof.ScoutTier != "" {
			view.ScoutTier = prof.ScoutTier
		}
	}
	view.Initial = Initial(view.FullName, view.Email)
	view.TierStyle = TierStyle(view.ScoutTier)

	statuses, err := s.submissions.Statuses(ctx, user.ID)
	if err != nil {
		return nil, s.fail(page, "submissions", user, err)
	}
	view.TotalSubmissions, view.ClosedDeals, view.SuccessRate = SuccessStats(statuses)

	s.loaded(page)
	return view, nil
}

// SuccessStats counts closed submissions and the rounded percentage they make
// of the total. The rate is 0 when there are no submissions.
func SuccessStats(statuses []models.SubmissionStatus) (total, closed, rate int) {
	total = len(statuses)
	for _, st := range statuses {
		if st == models.SubmissionClosed {
			closed++
		}
	}
	if total == 0 {
		return total, closed, 0
	}
	return total, closed, int(math.Round(float64(closed) / float64(total) * 100))
}

// Initial is the upper-cased first letter of the full name, else of the
// email, else "S".
func Initial(fullName, email string) string {
	for _, s := range []string{fullName, email} {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		r, _ := utf8.DecodeRuneInString(s)
		return string(unicode.ToUpper(r))
	}
	return "S"
}

// TierStyle maps the known tiers onto style keys. Unknown tiers get the default.
func TierStyle(tier string) string {
	switch tier {
	case models.TierSuper:
		return "super"
	case models.TierSenior:
		return "senior"
	case models.TierScout:
		return "scout"
	}
	return "default"
}
