package dashboard

import (
	"context"
	"errors"
	"time"

	"scoutly/internal/models"
	"scoutly/internal/store"

	"github.com/shopspring/decimal"
)

// FallbackLocation labels an earning whose submission cannot be found.
const FallbackLocation = "Property"

type EarningItem struct {
	ID        string               `json:"id"`
	Amount    decimal.Decimal      `json:"amount"`
	Status    models.EarningStatus `json:"status"`
	Location  string               `json:"location"`
	CreatedAt time.Time            `json:"createdAt"`
	Date      string               `json:"date"`
}

type EarningsSummary struct {
	Total       decimal.Decimal `json:"total"`
	Pending     decimal.Decimal `json:"pending"`
	Available   decimal.Decimal `json:"available"`
	MemberSince string          `json:"memberSince,omitempty"`
	Items       []EarningItem   `json:"items"`
}

// Earnings totals the scout's payouts and labels each with the location of
// the submission it pays for.
func (s *Service) Earnings(ctx context.Context, user models.User) (*EarningsSummary, error) {
	const page = "earnings"
	if err := requireUser(user); err != nil {
		return nil, err
	}

	out := &EarningsSummary{
		Total:     decimal.Zero,
		Pending:   decimal.Zero,
		Available: decimal.Zero,
	}

	prof, err := s.profile(ctx, page, user)
	if err != nil {
		return nil, err
	}
	if prof != nil {
		out.MemberSince = prof.CreatedAt.Format("Jan 2006")
	}

	records, err := s.earnings.ListByUser(ctx, user.ID)
	if err != nil {
		return nil, s.fail(page, "earnings", user, err)
	}

	out.Items = make([]EarningItem, 0, len(records))
	for _, rec := range records {
		out.Total = out.Total.Add(rec.Amount)
		switch rec.Status {
		case models.EarningPending:
			out.Pending = out.Pending.Add(rec.Amount)
		case models.EarningAvailable:
			out.Available = out.Available.Add(rec.Amount)
		}

		out.Items = append(out.Items, EarningItem{
			ID:        rec.ID,
			Amount:    rec.Amount,
			Status:    rec.Status,
			Location:  s.earningLocation(ctx, rec),
			CreatedAt: rec.CreatedAt,
			Date:      FormatDate(rec.CreatedAt),
		})
	}

	s.loaded(page)
	return out, nil
}

func (s *Service) earningLocation(ctx context.Context, rec models.EarningRecord) string {
	if rec.SubmissionID == nil {
		return FallbackLocation
	}
	loc, err := s.submissions.Location(ctx, *rec.SubmissionID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			s.logger.Warn("submission lookup failed", map[string]interface{}{
				"earningId":    rec.ID,
				"submissionId": *rec.SubmissionID,
				"error":        err,
			})
		}
		return FallbackLocation
	}
	if label := LocationLabel(loc.Address, loc.Latitude, loc.Longitude); label != "" {
		return label
	}
	return FallbackLocation
}
