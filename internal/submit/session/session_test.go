package session

import (
	"context"
	"errors"
	"image"
	"math/rand"
	"sync"
	"testing"
	"time"

	apperrors "scoutly/internal/common/errors"
	"scoutly/internal/common/logger"
	"scoutly/internal/models"
	"scoutly/internal/submit/committer"
	"scoutly/internal/submit/geolocation"
	"scoutly/internal/submit/media"
	"scoutly/internal/submit/signals"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Fakes
// ==========================

type fakeStream struct {
	mu     sync.Mutex
	closed int
}

func (s *fakeStream) Frame(ctx context.Context) (image.Image, error) {
	return image.NewRGBA(image.Rect(0, 0, 16, 12)), nil
}

func (s *fakeStream) Close() error {
	s.mu.Lock()
	s.closed++
	s.mu.Unlock()
	return nil
}

func (s *fakeStream) closes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

type fakeCamera struct {
	streams []*fakeStream
}

func (c *fakeCamera) Open(ctx context.Context, facing media.Facing) (media.Stream, error) {
	s := &fakeStream{}
	c.streams = append(c.streams, s)
	return s, nil
}

func (c *fakeCamera) allReleased() bool {
	for _, s := range c.streams {
		if s.closes() == 0 {
			return false
		}
	}
	return true
}

type fakeLocator struct {
	mu    sync.Mutex
	calls int
	fail  bool
}

func (l *fakeLocator) Locate(ctx context.Context) (geolocation.Position, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls++
	if l.fail {
		return geolocation.Position{}, errors.New("no fix")
	}
	return geolocation.Position{Latitude: 40.6084, Longitude: -75.3781}, nil
}

func (l *fakeLocator) setFail(v bool) {
	l.mu.Lock()
	l.fail = v
	l.mu.Unlock()
}

type fakeCommitter struct {
	mu     sync.Mutex
	calls  []committer.Input
	err    error
	block  chan struct{}
	called chan struct{}
}

func (c *fakeCommitter) Commit(ctx context.Context, user models.User, in committer.Input) (*models.SubmissionRecord, error) {
	c.mu.Lock()
	c.calls = append(c.calls, in)
	err := c.err
	block, called := c.block, c.called
	c.mu.Unlock()

	if called != nil {
		close(called)
	}
	if block != nil {
		<-block
	}
	if err != nil {
		return nil, err
	}
	return &models.SubmissionRecord{
		ID:        "a1b2c3d4-0000-4000-8000-000000000000",
		UserID:    user.ID,
		Status:    models.SubmissionPending,
		CreatedAt: time.Date(2026, 2, 3, 0, 0, 0, 0, time.UTC),
	}, nil
}

var scout = models.User{ID: "user-1", Email: "scout@example.com"}

type harness struct {
	s       *Session
	camera  *fakeCamera
	locator *fakeLocator
	commit  *fakeCommitter
}

func newHarness(t *testing.T) *harness {
	h := &harness{camera: &fakeCamera{}, locator: &fakeLocator{}, commit: &fakeCommitter{}}
	h.s = New(scout, h.camera, h.locator, h.commit, logger.NewTestLogger(t))
	t.Cleanup(h.s.Close)
	return h
}

// toReview drives a fresh session to the review step.
func (h *harness) toReview(t *testing.T) {
	ctx := context.Background()
	require.NoError(t, h.s.SelectFile("house.jpg", "image/jpeg", []byte{0xff, 0xd8, 0xff}))
	step, err := h.s.Next(ctx)
	require.NoError(t, err)
	require.Equal(t, StepLocation, step)
	_, err = h.s.Next(ctx)
	require.NoError(t, err)
	_, err = h.s.ToggleSignal(signals.Contractor, "Roof Damage")
	require.NoError(t, err)
	_, err = h.s.ToggleSignal(signals.RealEstate, "Appears Vacant")
	require.NoError(t, err)
	_, err = h.s.Next(ctx)
	require.NoError(t, err)
	require.NoError(t, h.s.SetOccupancy(models.OccupancyVacant))
	require.NoError(t, h.s.SetNotes("mail piled at door"))
	step, err = h.s.Next(ctx)
	require.NoError(t, err)
	require.Equal(t, StepReview, step)
}

// ==========================
// Flow
// ==========================

func TestSession_HappyPath(t *testing.T) {
	h := newHarness(t)
	h.toReview(t)

	view := h.s.Draft()
	assert.Equal(t, []string{"Roof Damage"}, view.ContractorSignals)
	assert.Equal(t, []string{"Appears Vacant"}, view.RealEstateSignals)
	assert.Equal(t, 40.6084, *view.Latitude)
	assert.Equal(t, 1, h.locator.calls)

	rec, err := h.s.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StepSuccess, h.s.Step())
	assert.Equal(t, rec, h.s.Result())
	assert.Equal(t, "SC-2026-A1B2C", DisplayID(rec))

	require.Len(t, h.commit.calls, 1)
	in := h.commit.calls[0]
	assert.Equal(t, models.OccupancyVacant, in.OccupancyStatus)
	assert.Equal(t, "mail piled at door", in.Notes)
	assert.NotNil(t, in.Photo)

	// the draft is destroyed on success
	assert.Empty(t, h.s.Draft().PhotoPreviewURL)

	step, err := h.s.Reset(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StepPhoto, step)
	assert.Nil(t, h.s.Result())
	assert.Empty(t, h.s.Draft().ContractorSignals)

	_, err = h.s.Cancel(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Exited, h.s.Step())
}

func TestSession_LeaveFromSuccess(t *testing.T) {
	h := newHarness(t)
	h.toReview(t)
	_, err := h.s.Submit(context.Background())
	require.NoError(t, err)

	step, err := h.s.Leave(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Exited, step)

	_, err = h.s.Next(context.Background())
	assert.ErrorIs(t, err, ErrSessionClosed)
}

// ==========================
// Step gates
// ==========================

func TestSession_GatesBlockAdvance(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.s.Next(ctx)
	assert.ErrorIs(t, err, ErrStepBlocked)
	assert.Equal(t, StepPhoto, h.s.Step())

	require.NoError(t, h.s.SelectFile("empty.jpg", "image/jpeg", nil))
	_, err = h.s.Next(ctx)
	assert.ErrorIs(t, err, ErrStepBlocked, "an empty photo must not advance")

	require.NoError(t, h.s.SelectFile("a.jpg", "image/jpeg", []byte{1}))
	h.locator.setFail(true)
	step, err := h.s.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, StepLocation, step)
	assert.Equal(t, geolocation.StatusFailed, h.s.LocationStatus())
	assert.True(t, apperrors.HasCode(h.s.LocationErr(), apperrors.ErrCodeLocationFailed))

	_, err = h.s.Next(ctx)
	assert.ErrorIs(t, err, ErrStepBlocked)

	h.locator.setFail(false)
	require.NoError(t, h.s.RetryLocation(ctx))
	_, err = h.s.Next(ctx)
	require.NoError(t, err)

	_, err = h.s.Next(ctx)
	assert.ErrorIs(t, err, ErrStepBlocked)
	assert.Equal(t, StepSignals, h.s.Step())

	on, err := h.s.ToggleSignal(signals.RealEstate, "Boarded Up")
	require.NoError(t, err)
	require.True(t, on)
	_, err = h.s.ToggleSignal(signals.RealEstate, "Boarded Up")
	require.NoError(t, err)
	_, err = h.s.Next(ctx)
	assert.ErrorIs(t, err, ErrStepBlocked)
}

func TestSession_GatesHoldForRandomInput(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	vocab := signals.Catalog(signals.Contractor)

	for trial := 0; trial < 40; trial++ {
		h := newHarness(t)
		h.locator.setFail(rng.Intn(2) == 0)
		ctx := context.Background()

		for i := 0; i < 60 && h.s.Step() != Exited && h.s.Step() != StepSuccess; i++ {
			switch rng.Intn(9) {
			case 0, 1:
				_, _ = h.s.Next(ctx)
			case 2:
				if h.s.Step() != StepPhoto {
					_, _ = h.s.Back(ctx)
				}
			case 3:
				_ = h.s.SelectFile("f.jpg", "image/jpeg", []byte{byte(i + 1)})
			case 4:
				_ = h.s.Retake()
			case 5:
				_, _ = h.s.ToggleSignal(signals.Contractor, vocab[rng.Intn(len(vocab))])
			case 6:
				_ = h.s.RetryLocation(ctx)
			case 7:
				h.locator.setFail(rng.Intn(2) == 0)
			case 8:
				_, _ = h.s.Submit(ctx)
			}

			step := h.s.Step()
			view := h.s.Draft()
			if step == Exited || step == StepSuccess {
				break
			}
			if step > StepPhoto {
				assert.NotEmpty(t, view.PhotoPreviewURL, "step %s without photo", step)
			}
			if step > StepLocation {
				assert.True(t, view.Latitude != nil && view.Longitude != nil, "step %s without location", step)
			}
			if step > StepSignals {
				assert.NotZero(t, len(view.ContractorSignals)+len(view.RealEstateSignals), "step %s without signals", step)
			}
		}
		h.s.Close()
	}
}

func TestSession_InvalidTransitions(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.s.Submit(ctx)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	_, err = h.s.Reset(ctx)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	h.toReview(t)
	_, err = h.s.Cancel(ctx)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.ErrorIs(t, h.s.SetNotes("late"), ErrWrongStep)
	_, err = h.s.ToggleSignal(signals.Contractor, "Broken Fence")
	assert.ErrorIs(t, err, ErrWrongStep)
}

func TestSession_OccupancyMustBeKnown(t *testing.T) {
	h := newHarness(t)
	h.toReview(t)
	_, err := h.s.Back(context.Background())
	require.NoError(t, err)

	err = h.s.SetOccupancy("Haunted")
	assert.True(t, apperrors.IsValidation(err))
	assert.Equal(t, models.OccupancyVacant, h.s.Draft().OccupancyStatus)

	require.NoError(t, h.s.SetOccupancy(models.OccupancyUnset))
	_, err = h.s.Next(context.Background())
	assert.NoError(t, err)
}

func TestSession_ManualLocation(t *testing.T) {
	h := newHarness(t)
	h.locator.setFail(true)
	require.NoError(t, h.s.SelectFile("a.jpg", "image/jpeg", []byte{1}))
	_, err := h.s.Next(context.Background())
	require.NoError(t, err)

	assert.True(t, apperrors.IsValidation(h.s.SetLocation(120, 0)))
	require.NoError(t, h.s.SetLocation(40.1, -75.1))
	step, err := h.s.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StepSignals, step)
}

// ==========================
// Back navigation keeps data
// ==========================

func TestSession_BackThenForwardKeepsFields(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.toReview(t)
	before := h.s.Draft()

	for _, want := range []Step{StepNotes, StepSignals, StepLocation, StepPhoto} {
		step, err := h.s.Back(ctx)
		require.NoError(t, err)
		require.Equal(t, want, step)
		assert.Equal(t, before, h.s.Draft())
	}
	for _, want := range []Step{StepLocation, StepSignals, StepNotes, StepReview} {
		step, err := h.s.Next(ctx)
		require.NoError(t, err)
		require.Equal(t, want, step)
		assert.Equal(t, before, h.s.Draft())
	}

	assert.Equal(t, 1, h.locator.calls, "present coordinates must not be re-requested")
}

// ==========================
// Submit failure
// ==========================

func TestSession_SubmitFailureStaysOnReview(t *testing.T) {
	h := newHarness(t)
	h.toReview(t)
	before := h.s.Draft()

	h.commit.err = apperrors.NewUploadFailedError("user-1/1.jpg", errors.New("network"))
	_, err := h.s.Submit(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.IsPersistence(err))
	assert.Equal(t, StepReview, h.s.Step())
	assert.Equal(t, before, h.s.Draft())
	assert.Nil(t, h.s.Result())

	h.commit.err = nil
	rec, err := h.s.Submit(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, rec.ID)
	assert.Len(t, h.commit.calls, 2)
}

type orderedObjects struct {
	calls     []string
	uploadErr error
}

func (o *orderedObjects) Upload(ctx context.Context, key, contentType string, data []byte) error {
	o.calls = append(o.calls, "upload")
	return o.uploadErr
}

func (o *orderedObjects) PublicURL(key string) (string, error) {
	o.calls = append(o.calls, "url")
	return "https://cdn.test/" + key, nil
}

func (o *orderedObjects) Delete(ctx context.Context, key string) error {
	o.calls = append(o.calls, "delete")
	return nil
}

type orderedRows struct {
	objects *orderedObjects
}

func (r *orderedRows) Insert(ctx context.Context, rec *models.SubmissionRecord) error {
	r.objects.calls = append(r.objects.calls, "insert")
	rec.ID = "f00dbabe-1"
	rec.CreatedAt = time.Now()
	return nil
}

func TestSession_CommitOrderingThroughCommitter(t *testing.T) {
	tests := []struct {
		name      string
		uploadErr error
		wantCalls []string
		wantStep  Step
	}{
		{"success", nil, []string{"upload", "url", "insert"}, StepSuccess},
		{"upload failure", errors.New("offline"), []string{"upload"}, StepReview},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			objects := &orderedObjects{uploadErr: tt.uploadErr}
			c := committer.NewCommitter(&committer.Config{}, objects, &orderedRows{objects: objects}, nil, nil, logger.NewTestLogger(t))

			h := &harness{camera: &fakeCamera{}, locator: &fakeLocator{}}
			h.s = New(scout, h.camera, h.locator, c, logger.NewTestLogger(t))
			defer h.s.Close()
			h.toReview(t)

			rec, err := h.s.Submit(context.Background())
			assert.Equal(t, tt.wantCalls, objects.calls)
			assert.Equal(t, tt.wantStep, h.s.Step())
			if tt.uploadErr != nil {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "f00dbabe-1", rec.ID)
			assert.Equal(t, "f00dbabe-1", h.s.Result().ID)
		})
	}
}

// ==========================
// Camera release
// ==========================

func TestSession_CameraReleasedOnEveryExit(t *testing.T) {
	tests := []struct {
		name string
		exit func(t *testing.T, s *Session)
	}{
		{"back", func(t *testing.T, s *Session) {
			_, err := s.Back(context.Background())
			require.NoError(t, err)
			assert.Equal(t, Exited, s.Step())
		}},
		{"cancel", func(t *testing.T, s *Session) {
			_, err := s.Cancel(context.Background())
			require.NoError(t, err)
		}},
		{"stop camera", func(t *testing.T, s *Session) { require.NoError(t, s.StopCamera()) }},
		{"retake", func(t *testing.T, s *Session) { require.NoError(t, s.Retake()) }},
		{"close", func(t *testing.T, s *Session) { s.Close() }},
		{"capture", func(t *testing.T, s *Session) { require.NoError(t, s.Capture(context.Background())) }},
		{"next with photo", func(t *testing.T, s *Session) {
			_, err := s.Next(context.Background())
			require.NoError(t, err)
			assert.Equal(t, StepLocation, s.Step())
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			if tt.name == "next with photo" {
				require.NoError(t, h.s.SelectFile("a.jpg", "image/jpeg", []byte{1}))
			}
			require.NoError(t, h.s.StartCamera(context.Background()))
			require.True(t, h.s.CameraActive())

			tt.exit(t, h.s)

			assert.False(t, h.s.CameraActive())
			assert.True(t, h.camera.allReleased())
		})
	}
}

func TestSession_CancelFromLocationDiscardsDraft(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.s.SelectFile("a.jpg", "image/jpeg", []byte{1}))
	_, err := h.s.Next(context.Background())
	require.NoError(t, err)

	step, err := h.s.Cancel(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Exited, step)
	assert.Equal(t, View{}, h.s.Draft())
}

// ==========================
// Concurrency
// ==========================

func TestSession_ConcurrentOperationIsBusy(t *testing.T) {
	h := newHarness(t)
	h.toReview(t)

	h.commit.block = make(chan struct{})
	h.commit.called = make(chan struct{})

	done := make(chan error, 1)
	go func() {
		_, err := h.s.Submit(context.Background())
		done <- err
	}()

	select {
	case <-h.commit.called:
	case <-time.After(time.Second):
		t.Fatal("commit was not started")
	}

	_, err := h.s.Back(context.Background())
	assert.ErrorIs(t, err, ErrSessionBusy)
	_, err = h.s.Submit(context.Background())
	assert.ErrorIs(t, err, ErrSessionBusy)

	close(h.commit.block)
	require.NoError(t, <-done)
	assert.Equal(t, StepSuccess, h.s.Step())
}

// closesWithin fails the test when Close does not return promptly.
func closesWithin(t *testing.T, s *Session, d time.Duration) {
	t.Helper()
	closed := make(chan struct{})
	go func() {
		s.Close()
		close(closed)
	}()
	select {
	case <-closed:
	case <-time.After(d):
		t.Fatalf("Close blocked while an operation was running; step=%s", s.Step())
	}
}

type stalledLocator struct {
	started chan struct{}
	release chan struct{}
}

func (l *stalledLocator) Locate(ctx context.Context) (geolocation.Position, error) {
	close(l.started)
	<-l.release
	return geolocation.Position{Latitude: 40.6084, Longitude: -75.3781}, nil
}

func TestSession_CloseDuringLocationRequest(t *testing.T) {
	loc := &stalledLocator{started: make(chan struct{}), release: make(chan struct{})}
	s := New(scout, &fakeCamera{}, loc, &fakeCommitter{}, logger.NewTestLogger(t))
	require.NoError(t, s.SelectFile("house.jpg", "image/jpeg", []byte{0xff, 0xd8, 0xff}))

	done := make(chan error, 1)
	go func() {
		_, err := s.Next(context.Background())
		done <- err
	}()
	select {
	case <-loc.started:
	case <-time.After(time.Second):
		t.Fatal("location was not requested")
	}

	closesWithin(t, s, 500*time.Millisecond)
	assert.Equal(t, Exited, s.Step())
	assert.Equal(t, View{}, s.Draft())

	close(loc.release)
	require.NoError(t, <-done)
	assert.Equal(t, Exited, s.Step(), "a late fix must not revive the session")
	assert.Equal(t, View{}, s.Draft())

	_, err := s.Next(context.Background())
	assert.ErrorIs(t, err, ErrSessionClosed)
}

func TestSession_CloseDuringSubmitDiscardsResult(t *testing.T) {
	h := newHarness(t)
	h.toReview(t)

	h.commit.block = make(chan struct{})
	h.commit.called = make(chan struct{})

	done := make(chan error, 1)
	go func() {
		_, err := h.s.Submit(context.Background())
		done <- err
	}()
	select {
	case <-h.commit.called:
	case <-time.After(time.Second):
		t.Fatal("commit was not started")
	}

	closesWithin(t, h.s, 500*time.Millisecond)
	close(h.commit.block)

	assert.ErrorIs(t, <-done, ErrSessionClosed)
	assert.Equal(t, Exited, h.s.Step())
	assert.Nil(t, h.s.Result())
}

// ==========================
// Display helpers
// ==========================

func TestStep_Progress(t *testing.T) {
	k, total, pct, ok := StepSignals.Progress()
	assert.True(t, ok)
	assert.Equal(t, 3, k)
	assert.Equal(t, 5, total)
	assert.Equal(t, 60, pct)

	_, _, pct, ok = StepReview.Progress()
	assert.True(t, ok)
	assert.Equal(t, 100, pct)

	_, _, _, ok = StepSuccess.Progress()
	assert.False(t, ok)
}

func TestDisplayID(t *testing.T) {
	rec := &models.SubmissionRecord{ID: "9f3ab", CreatedAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	assert.Equal(t, "SC-2025-9F3AB", DisplayID(rec))
	assert.Equal(t, "SC-2025-AB", DisplayID(&models.SubmissionRecord{ID: "ab", CreatedAt: rec.CreatedAt}))
	assert.Empty(t, DisplayID(nil))
}
