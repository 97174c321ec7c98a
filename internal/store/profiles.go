package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"scoutly/internal/common/logger"
	"scoutly/internal/models"
)

// ProfileStore reads scout profiles. Rows are maintained outside this client.
type ProfileStore struct {
	db     DBTX
	logger logger.Logger
}

func NewProfileStore(db DBTX, log logger.Logger) *ProfileStore {
	return &ProfileStore{
		db:     db,
		logger: log.WithFields(map[string]interface{}{"table": "profiles"}),
	}
}

// Get loads the profile with the given id, or ErrNotFound.
func (s *ProfileStore) Get(ctx context.Context, id string) (*models.ProfileRecord, error) {
	var (
		rec      models.ProfileRecord
		fullName sql.NullString
		tier     sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, full_name, email, scout_tier, created_at
		FROM profiles
		WHERE id = $1`, id,
	).Scan(&rec.ID, &fullName, &rec.Email, &tier, &rec.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query profile: %w", err)
	}
	rec.FullName = stringPtr(fullName)
	rec.ScoutTier = tier.String
	return &rec, nil
}
