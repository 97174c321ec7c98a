// Package committer persists a finished draft: photo upload first, then the
// submission row. The two writes are not transactional.
package committer

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	apperrors "scoutly/internal/common/errors"
	"scoutly/internal/common/logger"
	"scoutly/internal/common/metrics"
	"scoutly/internal/common/observability"
	"scoutly/internal/common/storage"
	"scoutly/internal/models"
	"scoutly/internal/submit/geolocation"
	"scoutly/internal/submit/media"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	OutcomeSuccess         = "success"
	OutcomeUploadFailed    = "upload_failed"
	OutcomePublicURLFailed = "public_url_failed"
	OutcomeInsertFailed    = "insert_failed"
	OutcomeRejected        = "rejected"
)

var ErrMissingPhoto = errors.New("MISSING_PHOTO")

type SubmissionInserter interface {
	Insert(ctx context.Context, rec *models.SubmissionRecord) error
}

type EventPublisher interface {
	PublishSubmissionCreated(ctx context.Context, rec *models.SubmissionRecord) error
}

// Input is everything the draft contributes to the record.
type Input struct {
	Photo             *media.Photo
	Latitude          *float64
	Longitude         *float64
	ContractorSignals []string
	RealEstateSignals []string
	OccupancyStatus   models.OccupancyStatus
	Notes             string
}

type Committer struct {
	config    *Config
	objects   storage.ObjectStore
	rows      SubmissionInserter
	publisher EventPublisher
	obs       *observability.Observability
	logger    logger.Logger
	now       func() time.Time
}

// NewCommitter wires the committer. publisher and obs may be nil.
func NewCommitter(config *Config, objects storage.ObjectStore, rows SubmissionInserter,
	publisher EventPublisher, obs *observability.Observability, log logger.Logger) *Committer {
	if config == nil {
		config = &Config{}
	}
	return &Committer{
		config:    config,
		objects:   objects,
		rows:      rows,
		publisher: publisher,
		obs:       obs,
		logger:    log.WithFields(map[string]interface{}{"component": "committer"}),
		now:       time.Now,
	}
}

// ObjectKey derives the per-user, time-keyed location of an upload. Two uploads
// by the same user collide only within the same millisecond.
func ObjectKey(userID string, at time.Time) string {
	return userID + "/" + strconv.FormatInt(at.UnixMilli(), 10) + ".jpg"
}

// Commit uploads the photo, resolves its public URL and inserts the pending
// submission row. Any failure aborts the remaining steps. The signal sets are
// not re-checked here. No deadline is added; ctx alone bounds the commit.
func (c *Committer) Commit(ctx context.Context, user models.User, in Input) (*models.SubmissionRecord, error) {
	start := c.now()
	ctx, span := c.obs.StartSpan(ctx, "submission.commit", attribute.String("user.id", user.ID))
	defer span.End()

	rec, outcome, err := c.commit(ctx, user, in, start)

	elapsed := c.now().Sub(start)
	metrics.SubmissionCommits.WithLabelValues(outcome).Inc()
	metrics.SubmissionCommitDuration.WithLabelValues(outcome).Observe(elapsed.Seconds())
	c.obs.RecordCommit(ctx, outcome, elapsed)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
		c.logger.Error("submission commit failed", map[string]interface{}{
			"userId":  user.ID,
			"outcome": outcome,
			"error":   err,
		})
		return nil, err
	}

	span.SetAttributes(attribute.String("submission.id", rec.ID))
	c.logger.Info("submission committed", map[string]interface{}{
		"userId":       user.ID,
		"submissionId": rec.ID,
		"durationMs":   elapsed.Milliseconds(),
	})

	c.publish(ctx, rec)
	return rec, nil
}

func (c *Committer) commit(ctx context.Context, user models.User, in Input, at time.Time) (*models.SubmissionRecord, string, error) {
	if user.ID == "" {
		return nil, OutcomeRejected, apperrors.NewNotAuthenticatedError()
	}
	if in.Photo == nil || len(in.Photo.Data) == 0 {
		return nil, OutcomeRejected, fmt.Errorf("%w: photo is required", ErrMissingPhoto)
	}

	key := ObjectKey(user.ID, at)
	contentType := in.Photo.ContentType
	if contentType == "" {
		contentType = media.JPEGContentType
	}

	if err := c.objects.Upload(ctx, key, contentType, in.Photo.Data); err != nil {
		return nil, OutcomeUploadFailed, apperrors.NewUploadFailedError(key, err)
	}

	url, err := c.objects.PublicURL(key)
	if err != nil {
		c.orphaned(ctx, key)
		return nil, OutcomePublicURLFailed, apperrors.NewPublicURLFailedError(key, err)
	}

	rec := &models.SubmissionRecord{
		UserID:            user.ID,
		PhotoURL:          url,
		Latitude:          in.Latitude,
		Longitude:         in.Longitude,
		ContractorSignals: in.ContractorSignals,
		RealEstateSignals: in.RealEstateSignals,
		OccupancyStatus:   in.OccupancyStatus,
		Notes:             in.Notes,
		Status:            models.SubmissionPending,
	}
	if in.Latitude != nil && in.Longitude != nil {
		rec.CellToken = geolocation.Position{Latitude: *in.Latitude, Longitude: *in.Longitude}.CellToken()
	}

	if err := c.rows.Insert(ctx, rec); err != nil {
		c.orphaned(ctx, key)
		return nil, OutcomeInsertFailed, apperrors.NewInsertFailedError("submissions", err)
	}

	return rec, OutcomeSuccess, nil
}

// orphaned handles an upload left without a row. It is only removed when
// compensation is enabled.
func (c *Committer) orphaned(ctx context.Context, key string) {
	if !c.config.CompensateOrphans {
		metrics.OrphanedUploads.WithLabelValues("false").Inc()
		c.logger.Warn("upload orphaned", map[string]interface{}{"key": key})
		return
	}

	if err := c.objects.Delete(context.WithoutCancel(ctx), key); err != nil {
		metrics.OrphanedUploads.WithLabelValues("false").Inc()
		c.logger.Error("compensating delete failed", map[string]interface{}{"key": key, "error": err})
		return
	}
	metrics.OrphanedUploads.WithLabelValues("true").Inc()
	c.logger.Info("orphaned upload removed", map[string]interface{}{"key": key})
}

func (c *Committer) publish(ctx context.Context, rec *models.SubmissionRecord) {
	if c.publisher == nil {
		return
	}
	if err := c.publisher.PublishSubmissionCreated(ctx, rec); err != nil {
		c.logger.Warn("submission event not published", map[string]interface{}{
			"submissionId": rec.ID,
			"error":        err,
		})
	}
}
