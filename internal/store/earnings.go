package store

import (
	"context"
	"database/sql"
	"fmt"

	"scoutly/internal/common/logger"
	"scoutly/internal/models"
)

type EarningStore struct {
	db     DBTX
	logger logger.Logger
}

func NewEarningStore(db DBTX, log logger.Logger) *EarningStore {
	return &EarningStore{
		db:     db,
		logger: log.WithFields(map[string]interface{}{"table": "earnings"}),
	}
}

// ListByUser returns every earning of userID, newest first.
func (s *EarningStore) ListByUser(ctx context.Context, userID string) ([]models.EarningRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, amount, status, submission_id, created_at
		FROM earnings
		WHERE user_id = $1
		ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("query earnings: %w", err)
	}
	defer rows.Close()

	var out []models.EarningRecord
	for rows.Next() {
		var (
			rec          models.EarningRecord
			status       string
			submissionID sql.NullString
		)
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.Amount, &status, &submissionID, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan earning: %w", err)
		}
		rec.Status = models.EarningStatus(status)
		rec.SubmissionID = stringPtr(submissionID)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate earnings: %w", err)
	}
	return out, nil
}
