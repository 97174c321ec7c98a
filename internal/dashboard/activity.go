package dashboard

import (
	"context"
	"fmt"
	"time"

	"scoutly/internal/models"

	"github.com/shopspring/decimal"
)

// ActivityItem is one submission as listed on the activity page.
type ActivityItem struct {
	ID             string           `json:"id"`
	PhotoURL       string           `json:"photoUrl"`
	Location       string           `json:"location"`
	Status         string           `json:"status"`
	StatusLabel    string           `json:"statusLabel"`
	StatusStyle    string           `json:"statusStyle"`
	ActualEarnings *decimal.Decimal `json:"actualEarnings,omitempty"`
	CreatedAt      time.Time        `json:"createdAt"`
	Date           string           `json:"date"`
}

// Activity lists the scout's submissions, newest first.
func (s *Service) Activity(ctx context.Context, user models.User) ([]ActivityItem, error) {
	const page = "activity"
	if err := requireUser(user); err != nil {
		return nil, err
	}

	records, err := s.submissions.ListByUser(ctx, user.ID)
	if err != nil {
		return nil, s.fail(page, "submissions", user, err)
	}

	items := make([]ActivityItem, 0, len(records))
	for _, rec := range records {
		items = append(items, ActivityItem{
			ID:             rec.ID,
			PhotoURL:       rec.PhotoURL,
			Location:       LocationLabel(rec.Address, rec.Latitude, rec.Longitude),
			Status:         string(rec.Status),
			StatusLabel:    rec.Status.Label(),
			StatusStyle:    StatusStyle(rec.Status),
			ActualEarnings: rec.ActualEarnings,
			CreatedAt:      rec.CreatedAt,
			Date:           FormatDate(rec.CreatedAt),
		})
	}

	s.loaded(page)
	return items, nil
}

// LocationLabel is the address when known, otherwise "lat, lon" to four
// decimals. It is empty when neither is available.
func LocationLabel(address *string, lat, lon *float64) string {
	if address != nil && *address != "" {
		return *address
	}
	if lat != nil && lon != nil {
		return fmt.Sprintf("%.4f, %.4f", *lat, *lon)
	}
	return ""
}

// StatusStyle maps a submission status onto a presentation style key.
func StatusStyle(status models.SubmissionStatus) string {
	switch status {
	case models.SubmissionPending:
		return "pending"
	case models.SubmissionMatched:
		return "matched"
	case models.SubmissionClosed:
		return "closed"
	case models.SubmissionExpired:
		return "expired"
	}
	return "neutral"
}

// FormatDate renders t as "Jan 2, 2006".
func FormatDate(t time.Time) string {
	return t.Format("Jan 2, 2006")
}
