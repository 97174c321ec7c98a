// Package geolocation performs the one-shot device location lookup of the
// location step, with a manual retry after failure.
package geolocation

import (
	"context"
	"errors"
	"fmt"
	"sync"

	apperrors "scoutly/internal/common/errors"
	"scoutly/internal/common/logger"

	"github.com/golang/geo/s2"
)

// CellLevel is the s2 level used for the coarse location token (~300m cells).
const CellLevel = 15

var (
	// ErrPermissionDenied is returned (possibly wrapped) by a Locator when the
	// platform refuses location access.
	ErrPermissionDenied = errors.New("PERMISSION_DENIED")
	ErrRequestPending   = errors.New("LOCATION_REQUEST_PENDING")
	ErrInvalidPosition  = errors.New("INVALID_POSITION")
)

// Locator is the device geolocation capability. A single call yields a single fix.
type Locator interface {
	Locate(ctx context.Context) (Position, error)
}

// LocatorFunc adapts a plain function to Locator.
type LocatorFunc func(ctx context.Context) (Position, error)

func (f LocatorFunc) Locate(ctx context.Context) (Position, error) { return f(ctx) }

type Position struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

func (p Position) latLng() s2.LatLng {
	return s2.LatLngFromDegrees(p.Latitude, p.Longitude)
}

// Valid reports whether the position lies within the valid latitude and
// longitude ranges.
func (p Position) Valid() bool {
	return p.latLng().IsValid()
}

// CellToken returns the s2 cell token covering the position at CellLevel.
func (p Position) CellToken() string {
	return s2.CellIDFromLatLng(p.latLng()).Parent(CellLevel).ToToken()
}

func (p Position) String() string {
	return fmt.Sprintf("%.4f, %.4f", p.Latitude, p.Longitude)
}

// Status is the resolver's observable state.
type Status int

const (
	StatusIdle Status = iota
	StatusLocating
	StatusLocated
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLocating:
		return "locating"
	case StatusLocated:
		return "located"
	case StatusFailed:
		return "failed"
	}
	return "unknown"
}

// Resolver issues at most one outstanding location request. It keeps no fix
// between sessions; each session owns its own Resolver.
type Resolver struct {
	locator Locator
	logger  logger.Logger

	mu      sync.Mutex
	status  Status
	lastErr error
}

func NewResolver(locator Locator, log logger.Logger) *Resolver {
	return &Resolver{
		locator: locator,
		logger:  log.WithFields(map[string]interface{}{"component": "geolocation"}),
	}
}

// Enter is called when the location step is entered. When current is already
// set no request is made and current is returned.
func (r *Resolver) Enter(ctx context.Context, current *Position) (*Position, error) {
	if current != nil {
		r.mu.Lock()
		r.status = StatusLocated
		r.lastErr = nil
		r.mu.Unlock()
		return current, nil
	}
	return r.locate(ctx)
}

// Retry re-issues one fresh request regardless of any earlier fix.
func (r *Resolver) Retry(ctx context.Context) (*Position, error) {
	return r.locate(ctx)
}

func (r *Resolver) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

// Err returns the error of the last failed request, or nil.
func (r *Resolver) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastErr
}

// Reset forgets any outcome. A request in flight is not cancelled; its result
// will still be recorded when it settles.
func (r *Resolver) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.status != StatusLocating {
		r.status = StatusIdle
	}
	r.lastErr = nil
}

func (r *Resolver) locate(ctx context.Context) (*Position, error) {
	r.mu.Lock()
	if r.status == StatusLocating {
		r.mu.Unlock()
		return nil, ErrRequestPending
	}
	r.status = StatusLocating
	r.lastErr = nil
	r.mu.Unlock()

	if r.locator == nil {
		return nil, r.fail(apperrors.NewLocationFailedError(errors.New("no locator available")))
	}

	r.logger.Debug("requesting device location", nil)
	pos, err := r.locator.Locate(ctx)
	if err != nil {
		if errors.Is(err, ErrPermissionDenied) {
			return nil, r.fail(apperrors.NewLocationDeniedError(err))
		}
		return nil, r.fail(apperrors.NewLocationFailedError(err))
	}
	if !pos.Valid() {
		return nil, r.fail(apperrors.NewLocationFailedError(
			fmt.Errorf("%w: %s", ErrInvalidPosition, pos)))
	}

	r.mu.Lock()
	r.status = StatusLocated
	r.mu.Unlock()

	r.logger.Info("location resolved", map[string]interface{}{
		"cell": pos.CellToken(),
	})
	return &pos, nil
}

func (r *Resolver) fail(err error) error {
	r.mu.Lock()
	r.status = StatusFailed
	r.lastErr = err
	r.mu.Unlock()

	r.logger.Warn("location request failed", map[string]interface{}{"error": err})
	return err
}
