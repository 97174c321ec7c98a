// Package session drives one submission from photo to success screen. Steps
// advance only through the transition table; the camera is released whenever
// the photo step is left.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	apperrors "scoutly/internal/common/errors"
	"scoutly/internal/common/logger"
	"scoutly/internal/common/metrics"
	"scoutly/internal/models"
	"scoutly/internal/submit/committer"
	"scoutly/internal/submit/geolocation"
	"scoutly/internal/submit/media"
	"scoutly/internal/submit/signals"
)

var (
	ErrSessionBusy   = errors.New("SESSION_BUSY")
	ErrSessionClosed = errors.New("SESSION_CLOSED")
	ErrWrongStep     = errors.New("WRONG_STEP")
)

// Committer persists a finished draft.
type Committer interface {
	Commit(ctx context.Context, user models.User, in committer.Input) (*models.SubmissionRecord, error)
}

// Session is the per-scout submission flow. Operations are serialized: one
// issued while another is still running fails with ErrSessionBusy. Close is
// the exception; it never waits, and results of operations still running
// when it lands are discarded.
type Session struct {
	user      models.User
	acquirer  *media.Acquirer
	resolver  *geolocation.Resolver
	committer Committer
	logger    logger.Logger

	op sync.Mutex // held for the duration of an operation

	mu     sync.Mutex
	step   Step
	draft  *Draft
	result *models.SubmissionRecord
}

// New opens a session for user at the photo step.
func New(user models.User, camera media.Camera, locator geolocation.Locator, c Committer, log logger.Logger) *Session {
	l := log.WithFields(map[string]interface{}{"component": "session", "userId": user.ID})
	metrics.SessionsActive.Inc()
	return &Session{
		user:      user,
		acquirer:  media.NewAcquirer(camera, l),
		resolver:  geolocation.NewResolver(locator, l),
		committer: c,
		logger:    l,
		step:      StepPhoto,
		draft:     NewDraft(),
	}
}

func (s *Session) User() models.User { return s.user }

func (s *Session) Step() Step {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.step
}

// Draft returns a snapshot of the draft. The zero View is returned once the
// draft has been discarded.
func (s *Session) Draft() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.draft == nil {
		return View{}
	}
	return s.draft.view()
}

// Result is the record created by the last successful submit.
func (s *Session) Result() *models.SubmissionRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result
}

func (s *Session) CameraState() media.State { return s.acquirer.State() }

func (s *Session) CameraActive() bool { return s.acquirer.StreamActive() }

func (s *Session) LocationStatus() geolocation.Status { return s.resolver.Status() }

// LocationErr is the error of the last failed location attempt, if any.
func (s *Session) LocationErr() error { return s.resolver.Err() }

// begin claims the session for one operation.
func (s *Session) begin() (func(), error) {
	if !s.op.TryLock() {
		return nil, ErrSessionBusy
	}
	s.mu.Lock()
	exited := s.step == Exited
	s.mu.Unlock()
	if exited {
		s.op.Unlock()
		return nil, ErrSessionClosed
	}
	return s.op.Unlock, nil
}

// at checks the current step under an already claimed operation.
func (s *Session) at(steps ...Step) error {
	s.mu.Lock()
	cur := s.step
	s.mu.Unlock()
	for _, st := range steps {
		if cur == st {
			return nil
		}
	}
	return fmt.Errorf("%w: not allowed on %s", ErrWrongStep, cur)
}

// write applies fn to the draft unless the session was closed meanwhile.
func (s *Session) write(fn func(d *Draft)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.step == Exited || s.draft == nil {
		return ErrSessionClosed
	}
	fn(s.draft)
	return nil
}

// StartCamera opens the camera on the photo step.
func (s *Session) StartCamera(ctx context.Context) error {
	done, err := s.begin()
	if err != nil {
		return err
	}
	defer done()

	if err := s.at(StepPhoto); err != nil {
		return err
	}
	if err := s.acquirer.StartCamera(ctx); err != nil {
		if errors.Is(err, media.ErrAcquisitionAborted) {
			return ErrSessionClosed
		}
		return err
	}
	return nil
}

// Capture freezes the current camera frame into the draft photo.
func (s *Session) Capture(ctx context.Context) error {
	done, err := s.begin()
	if err != nil {
		return err
	}
	defer done()

	if err := s.at(StepPhoto); err != nil {
		return err
	}
	photo, err := s.acquirer.Capture(ctx)
	if err != nil {
		if errors.Is(err, media.ErrAcquisitionAborted) {
			return ErrSessionClosed
		}
		return err
	}
	return s.write(func(d *Draft) { d.photo = photo })
}

// SelectFile uses an externally chosen file as the draft photo.
func (s *Session) SelectFile(name, contentType string, data []byte) error {
	done, err := s.begin()
	if err != nil {
		return err
	}
	defer done()

	if err := s.at(StepPhoto); err != nil {
		return err
	}
	photo, err := s.acquirer.SelectFile(name, contentType, data)
	if err != nil {
		return err
	}
	return s.write(func(d *Draft) { d.photo = photo })
}

// Retake discards the photo and its preview; other draft fields are untouched.
func (s *Session) Retake() error {
	done, err := s.begin()
	if err != nil {
		return err
	}
	defer done()

	if err := s.at(StepPhoto); err != nil {
		return err
	}
	s.acquirer.Retake()
	return s.write(func(d *Draft) { d.photo = nil })
}

// StopCamera closes a live stream and returns to the photo choice.
func (s *Session) StopCamera() error {
	done, err := s.begin()
	if err != nil {
		return err
	}
	defer done()

	s.acquirer.Cancel()
	return nil
}

// RetryLocation re-issues one location request on the location step.
func (s *Session) RetryLocation(ctx context.Context) error {
	done, err := s.begin()
	if err != nil {
		return err
	}
	defer done()

	if err := s.at(StepLocation); err != nil {
		return err
	}
	pos, err := s.resolver.Retry(ctx)
	if err != nil {
		return err
	}
	return s.write(func(d *Draft) { d.setLocation(pos.Latitude, pos.Longitude) })
}

// SetLocation records manually entered coordinates on the location step.
func (s *Session) SetLocation(lat, lon float64) error {
	done, err := s.begin()
	if err != nil {
		return err
	}
	defer done()

	if err := s.at(StepLocation); err != nil {
		return err
	}
	if !(geolocation.Position{Latitude: lat, Longitude: lon}).Valid() {
		return apperrors.NewValidationError(fmt.Sprintf("coordinates %.6f, %.6f out of range", lat, lon))
	}
	return s.write(func(d *Draft) { d.setLocation(lat, lon) })
}

// ToggleSignal flips one signal on the signals step and reports whether it is
// now selected.
func (s *Session) ToggleSignal(c signals.Category, signal string) (bool, error) {
	done, err := s.begin()
	if err != nil {
		return false, err
	}
	defer done()

	if err := s.at(StepSignals); err != nil {
		return false, err
	}
	var on bool
	var toggleErr error
	if err := s.write(func(d *Draft) { on, toggleErr = d.set(c).Toggle(signal) }); err != nil {
		return false, err
	}
	return on, toggleErr
}

// SetOccupancy sets or clears the occupancy status on the notes step.
func (s *Session) SetOccupancy(o models.OccupancyStatus) error {
	done, err := s.begin()
	if err != nil {
		return err
	}
	defer done()

	if err := s.at(StepNotes); err != nil {
		return err
	}
	if !o.Valid() {
		return apperrors.NewValidationError(fmt.Sprintf("occupancy must be one of Occupied, Vacant, Unsure, got %q", o))
	}
	return s.write(func(d *Draft) { d.occupancy = o })
}

func (s *Session) SetNotes(notes string) error {
	done, err := s.begin()
	if err != nil {
		return err
	}
	defer done()

	if err := s.at(StepNotes); err != nil {
		return err
	}
	return s.write(func(d *Draft) { d.notes = notes })
}

// Next advances one step when the current step's condition holds.
func (s *Session) Next(ctx context.Context) (Step, error) {
	return s.do(ctx, ActionNext)
}

// Back returns one step without discarding data. From the photo step it
// abandons the session.
func (s *Session) Back(ctx context.Context) (Step, error) {
	return s.do(ctx, ActionBack)
}

// Cancel abandons the session from the photo or location step.
func (s *Session) Cancel(ctx context.Context) (Step, error) {
	return s.do(ctx, ActionCancel)
}

// Reset starts a new draft at the photo step after a successful submit.
func (s *Session) Reset(ctx context.Context) (Step, error) {
	return s.do(ctx, ActionReset)
}

// Leave ends the session from the success step.
func (s *Session) Leave(ctx context.Context) (Step, error) {
	return s.do(ctx, ActionLeave)
}

// Submit commits the draft from the review step. On failure the session stays
// on review with the draft unchanged so the submit can be retried.
func (s *Session) Submit(ctx context.Context) (*models.SubmissionRecord, error) {
	done, err := s.begin()
	if err != nil {
		return nil, err
	}
	defer done()

	t, err := s.check(ActionSubmit)
	if err != nil {
		return nil, err
	}

	var in committer.Input
	if err := s.write(func(d *Draft) { in = d.input() }); err != nil {
		return nil, err
	}

	rec, err := s.committer.Commit(ctx, s.user, in)
	if err != nil {
		s.logger.Warn("submit failed, draft kept", map[string]interface{}{"error": err})
		return nil, err
	}

	// the draft is destroyed on success
	if err := s.advance(ActionSubmit, t.to, func() {
		s.result = rec
		s.draft = NewDraft()
	}); err != nil {
		s.logger.Info("session closed during submit, result discarded", map[string]interface{}{
			"submissionId": rec.ID,
		})
		return nil, err
	}
	s.acquirer.Close()
	return rec, nil
}

// Close tears the session down from any step: the camera is released, every
// preview revoked and the draft discarded. It does not wait for a running
// operation; that operation's result is dropped when it settles.
func (s *Session) Close() {
	s.exit("close")
}

func (s *Session) do(ctx context.Context, action Action) (Step, error) {
	done, err := s.begin()
	if err != nil {
		return s.Step(), err
	}
	defer done()

	t, err := s.check(action)
	if err != nil {
		return s.Step(), err
	}
	if err := s.transition(action, t.to); err != nil {
		return s.Step(), err
	}

	if t.to == StepLocation {
		s.enterLocation(ctx)
	}
	return s.Step(), nil
}

// check resolves the transition for action and evaluates its guard.
func (s *Session) check(action Action) (transition, error) {
	s.mu.Lock()
	from := s.step
	draft := s.draft
	s.mu.Unlock()

	t, err := lookup(from, action)
	if err != nil {
		return t, err
	}
	if t.guard != nil {
		if err := t.guard(draft); err != nil {
			metrics.SessionBlocked.WithLabelValues(from.String(), action.String()).Inc()
			s.logger.Debug("transition blocked", map[string]interface{}{
				"step":   from.String(),
				"action": action.String(),
				"reason": err.Error(),
			})
			return t, err
		}
	}
	return t, nil
}

func (s *Session) transition(action Action, to Step) error {
	s.mu.Lock()
	from := s.step
	s.mu.Unlock()
	if from == Exited {
		return ErrSessionClosed
	}

	if from == StepPhoto && to != StepPhoto {
		s.acquirer.Release()
	}

	switch {
	case to == Exited:
		s.record(from, action, to)
		s.exit(action.String())
		return nil
	case action == ActionReset:
		s.acquirer.Close()
		s.resolver.Reset()
		return s.advance(action, to, func() {
			s.draft = NewDraft()
			s.result = nil
		})
	default:
		return s.advance(action, to, nil)
	}
}

// advance moves to the next step and applies fn under the same lock, unless
// the session was closed in the meantime.
func (s *Session) advance(action Action, to Step, fn func()) error {
	s.mu.Lock()
	from := s.step
	if from == Exited {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	if fn != nil {
		fn()
	}
	s.step = to
	s.mu.Unlock()

	s.record(from, action, to)
	return nil
}

func (s *Session) record(from Step, action Action, to Step) {
	metrics.SessionTransitions.WithLabelValues(from.String(), action.String(), to.String()).Inc()
	s.logger.Info("session transition", map[string]interface{}{
		"from":   from.String(),
		"action": action.String(),
		"to":     to.String(),
	})
}

// exit ends the session once. The step and draft are dropped under the lock
// before any device is released, so concurrent operations see Exited first.
func (s *Session) exit(reason string) {
	s.mu.Lock()
	from := s.step
	if from == Exited {
		s.mu.Unlock()
		return
	}
	s.step = Exited
	s.draft = nil
	s.mu.Unlock()

	s.acquirer.Close()
	s.resolver.Reset()

	metrics.SessionsActive.Dec()
	s.logger.Info("session ended", map[string]interface{}{
		"from":   from.String(),
		"reason": reason,
	})
}

// enterLocation auto-attempts geolocation when coordinates are absent. A
// failure leaves the session on the location step in a retryable state.
func (s *Session) enterLocation(ctx context.Context) {
	var current *geolocation.Position
	if err := s.write(func(d *Draft) {
		if d.HasLocation() {
			current = &geolocation.Position{Latitude: *d.latitude, Longitude: *d.longitude}
		}
	}); err != nil {
		return
	}

	pos, err := s.resolver.Enter(ctx, current)
	if err != nil || current != nil {
		return
	}
	if err := s.write(func(d *Draft) { d.setLocation(pos.Latitude, pos.Longitude) }); err != nil {
		s.logger.Debug("session closed during location request, fix discarded", nil)
	}
}

// DisplayID is the short submission reference shown on the success screen.
func DisplayID(rec *models.SubmissionRecord) string {
	if rec == nil {
		return ""
	}
	id := rec.ID
	if len(id) > 5 {
		id = id[:5]
	}
	return fmt.Sprintf("SC-%d-%s", rec.CreatedAt.Year(), strings.ToUpper(id))
}
