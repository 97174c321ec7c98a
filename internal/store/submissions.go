package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"scoutly/internal/common/logger"
	"scoutly/internal/models"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

const submissionColumns = `id, user_id, photo_url, address, latitude, longitude, cell_token,
	contractor_signals, realestate_signals, occupancy_status, notes, status, actual_earnings, created_at`

type SubmissionStore struct {
	db     DBTX
	logger logger.Logger
}

func NewSubmissionStore(db DBTX, log logger.Logger) *SubmissionStore {
	return &SubmissionStore{
		db:     db,
		logger: log.WithFields(map[string]interface{}{"table": "submissions"}),
	}
}

// Insert writes rec as a new row. An empty ID is filled with a fresh UUID, an
// empty status defaults to pending, and CreatedAt is taken from the database.
func (s *SubmissionStore) Insert(ctx context.Context, rec *models.SubmissionRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.Status == "" {
		rec.Status = models.SubmissionPending
	}

	contractor := rec.ContractorSignals
	if contractor == nil {
		contractor = []string{}
	}
	realEstate := rec.RealEstateSignals
	if realEstate == nil {
		realEstate = []string{}
	}

	err := s.db.QueryRowContext(ctx, `
		INSERT INTO submissions (
			id, user_id, photo_url, latitude, longitude, cell_token,
			contractor_signals, realestate_signals, occupancy_status, notes, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at`,
		rec.ID,
		rec.UserID,
		rec.PhotoURL,
		nullableFloat(rec.Latitude),
		nullableFloat(rec.Longitude),
		rec.CellToken,
		pq.Array(contractor),
		pq.Array(realEstate),
		string(rec.OccupancyStatus),
		rec.Notes,
		string(rec.Status),
	).Scan(&rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert submission: %w", err)
	}

	s.logger.Debug("submission inserted", map[string]interface{}{"submissionId": rec.ID})
	return nil
}

// ListByUser returns every submission of userID, newest first.
func (s *SubmissionStore) ListByUser(ctx context.Context, userID string) ([]models.SubmissionRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+submissionColumns+`
		FROM submissions
		WHERE user_id = $1
		ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("query submissions: %w", err)
	}
	defer rows.Close()

	var out []models.SubmissionRecord
	for rows.Next() {
		rec, err := scanSubmission(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate submissions: %w", err)
	}
	return out, nil
}

// Statuses returns only the status column of userID's submissions.
func (s *SubmissionStore) Statuses(ctx context.Context, userID string) ([]models.SubmissionStatus, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status FROM submissions WHERE user_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("query submission statuses: %w", err)
	}
	defer rows.Close()

	var out []models.SubmissionStatus
	for rows.Next() {
		var status string
		if err := rows.Scan(&status); err != nil {
			return nil, fmt.Errorf("scan submission status: %w", err)
		}
		out = append(out, models.SubmissionStatus(status))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate submission statuses: %w", err)
	}
	return out, nil
}

// Location fetches the location columns of one submission. ErrNotFound is
// returned when no row has that id.
func (s *SubmissionStore) Location(ctx context.Context, id string) (*models.SubmissionLocation, error) {
	var (
		address  sql.NullString
		lat, lon sql.NullFloat64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT address, latitude, longitude FROM submissions WHERE id = $1`, id,
	).Scan(&address, &lat, &lon)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query submission location: %w", err)
	}
	return &models.SubmissionLocation{
		Address:   stringPtr(address),
		Latitude:  floatPtr(lat),
		Longitude: floatPtr(lon),
	}, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSubmission(row rowScanner) (*models.SubmissionRecord, error) {
	var (
		rec        models.SubmissionRecord
		address    sql.NullString
		lat, lon   sql.NullFloat64
		cell       sql.NullString
		occupancy  sql.NullString
		notes      sql.NullString
		status     string
		earnings   decimal.NullDecimal
		contractor []string
		realEstate []string
	)
	err := row.Scan(
		&rec.ID, &rec.UserID, &rec.PhotoURL, &address, &lat, &lon, &cell,
		pq.Array(&contractor), pq.Array(&realEstate),
		&occupancy, &notes, &status, &earnings, &rec.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("scan submission: %w", err)
	}

	rec.Address = stringPtr(address)
	rec.Latitude = floatPtr(lat)
	rec.Longitude = floatPtr(lon)
	rec.CellToken = cell.String
	rec.ContractorSignals = contractor
	rec.RealEstateSignals = realEstate
	rec.OccupancyStatus = models.OccupancyStatus(occupancy.String)
	rec.Notes = notes.String
	rec.Status = models.SubmissionStatus(status)
	if earnings.Valid {
		d := earnings.Decimal
		rec.ActualEarnings = &d
	}
	return &rec, nil
}
