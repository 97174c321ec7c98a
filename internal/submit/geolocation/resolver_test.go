package geolocation

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	apperrors "scoutly/internal/common/errors"
	"scoutly/internal/common/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolver_EnterLocatesOnceWhenAbsent(t *testing.T) {
	var calls int32
	r := NewResolver(LocatorFunc(func(ctx context.Context) (Position, error) {
		atomic.AddInt32(&calls, 1)
		return Position{Latitude: 40.6084, Longitude: -75.3781}, nil
	}), logger.NewTestLogger(t))

	pos, err := r.Enter(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 40.6084, pos.Latitude)
	assert.Equal(t, StatusLocated, r.Status())
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	again, err := r.Enter(context.Background(), pos)
	require.NoError(t, err)
	assert.Same(t, pos, again)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "present coordinates must not trigger a request")
}

func TestResolver_FailureThenRetry(t *testing.T) {
	attempts := 0
	r := NewResolver(LocatorFunc(func(ctx context.Context) (Position, error) {
		attempts++
		if attempts == 1 {
			return Position{}, errors.New("timeout acquiring fix")
		}
		return Position{Latitude: 1, Longitude: 2}, nil
	}), logger.NewTestLogger(t))

	_, err := r.Enter(context.Background(), nil)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeLocationFailed))
	assert.Equal(t, StatusFailed, r.Status())
	assert.Equal(t, err, r.Err())

	pos, err := r.Retry(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Position{Latitude: 1, Longitude: 2}, *pos)
	assert.NoError(t, r.Err())
	assert.Equal(t, 2, attempts)
}

func TestResolver_PermissionDenied(t *testing.T) {
	r := NewResolver(LocatorFunc(func(ctx context.Context) (Position, error) {
		return Position{}, ErrPermissionDenied
	}), logger.NewTestLogger(t))

	_, err := r.Enter(context.Background(), nil)
	assert.True(t, apperrors.IsPermission(err))
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeLocationDenied))
}

func TestResolver_RejectsOutOfRangeFix(t *testing.T) {
	r := NewResolver(LocatorFunc(func(ctx context.Context) (Position, error) {
		return Position{Latitude: 95, Longitude: 0}, nil
	}), logger.NewTestLogger(t))

	_, err := r.Enter(context.Background(), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidPosition)
	assert.Equal(t, StatusFailed, r.Status())
}

func TestResolver_SinglePendingRequest(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	r := NewResolver(LocatorFunc(func(ctx context.Context) (Position, error) {
		close(started)
		<-release
		return Position{Latitude: 3, Longitude: 4}, nil
	}), logger.NewTestLogger(t))

	done := make(chan error, 1)
	go func() {
		_, err := r.Enter(context.Background(), nil)
		done <- err
	}()

	select {
	case <-started:
	case <-time.After(time.Second):
		t.Fatal("locator was not called")
	}

	_, err := r.Retry(context.Background())
	assert.ErrorIs(t, err, ErrRequestPending)
	assert.Equal(t, StatusLocating, r.Status())

	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, StatusLocated, r.Status())
}

func TestPosition_CellToken(t *testing.T) {
	a := Position{Latitude: 40.60840, Longitude: -75.37810}
	b := Position{Latitude: 40.60841, Longitude: -75.37811}
	far := Position{Latitude: -33.86, Longitude: 151.20}

	assert.NotEmpty(t, a.CellToken())
	assert.Equal(t, a.CellToken(), b.CellToken())
	assert.NotEqual(t, a.CellToken(), far.CellToken())
	assert.Equal(t, "40.6084, -75.3781", a.String())
}
