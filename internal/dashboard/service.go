// Package dashboard computes the read-only home, activity, earnings and
// profile views of a signed-in scout. Every call queries afresh; nothing is
// cached between pages.
package dashboard

import (
	"context"
	"errors"

	apperrors "scoutly/internal/common/errors"
	"scoutly/internal/common/logger"
	"scoutly/internal/common/metrics"
	"scoutly/internal/models"
	"scoutly/internal/store"
)

type SubmissionReader interface {
	ListByUser(ctx context.Context, userID string) ([]models.SubmissionRecord, error)
	Statuses(ctx context.Context, userID string) ([]models.SubmissionStatus, error)
	Location(ctx context.Context, id string) (*models.SubmissionLocation, error)
}

type EarningReader interface {
	ListByUser(ctx context.Context, userID string) ([]models.EarningRecord, error)
}

type ProfileReader interface {
	Get(ctx context.Context, id string) (*models.ProfileRecord, error)
}

type Service struct {
	submissions SubmissionReader
	earnings    EarningReader
	profiles    ProfileReader
	logger      logger.Logger
}

func NewService(submissions SubmissionReader, earnings EarningReader, profiles ProfileReader, log logger.Logger) *Service {
	return &Service{
		submissions: submissions,
		earnings:    earnings,
		profiles:    profiles,
		logger:      log.WithFields(map[string]interface{}{"component": "dashboard"}),
	}
}

// profile loads the scout's profile. A missing row is not an error; callers
// fall back to defaults.
func (s *Service) profile(ctx context.Context, page string, user models.User) (*models.ProfileRecord, error) {
	rec, err := s.profiles.Get(ctx, user.ID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, s.fail(page, "profiles", user, err)
	}
	return rec, nil
}

func (s *Service) fail(page, table string, user models.User, err error) error {
	s.logger.Error("dashboard query failed", map[string]interface{}{
		"page":   page,
		"table":  table,
		"userId": user.ID,
		"error":  err,
	})
	metrics.DashboardLoads.WithLabelValues(page, "error").Inc()
	return apperrors.NewQueryFailedError(table, err)
}

func (s *Service) loaded(page string) {
	metrics.DashboardLoads.WithLabelValues(page, "success").Inc()
}

func requireUser(user models.User) error {
	if user.ID == "" {
		return apperrors.NewNotAuthenticatedError()
	}
	return nil
}
