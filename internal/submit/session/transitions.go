package session

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidTransition = errors.New("INVALID_TRANSITION")
	ErrStepBlocked       = errors.New("STEP_BLOCKED")
)

type guard func(d *Draft) error

type transition struct {
	to    Step
	guard guard
}

type transitionKey struct {
	from   Step
	action Action
}

// transitions is the complete flow. Anything not listed is rejected.
var transitions = map[transitionKey]transition{
	{StepPhoto, ActionNext}:   {to: StepLocation, guard: requirePhoto},
	{StepPhoto, ActionBack}:   {to: Exited},
	{StepPhoto, ActionCancel}: {to: Exited},

	{StepLocation, ActionNext}:   {to: StepSignals, guard: requireLocation},
	{StepLocation, ActionBack}:   {to: StepPhoto},
	{StepLocation, ActionCancel}: {to: Exited},

	{StepSignals, ActionNext}: {to: StepNotes, guard: requireSignal},
	{StepSignals, ActionBack}: {to: StepLocation},

	{StepNotes, ActionNext}: {to: StepReview, guard: requireValidOccupancy},
	{StepNotes, ActionBack}: {to: StepSignals},

	{StepReview, ActionSubmit}: {to: StepSuccess, guard: requirePhoto},
	{StepReview, ActionBack}:   {to: StepNotes},

	{StepSuccess, ActionReset}: {to: StepPhoto},
	{StepSuccess, ActionLeave}: {to: Exited},
}

func lookup(from Step, action Action) (transition, error) {
	t, ok := transitions[transitionKey{from, action}]
	if !ok {
		return transition{}, fmt.Errorf("%w: %s from %s", ErrInvalidTransition, action, from)
	}
	return t, nil
}

func requirePhoto(d *Draft) error {
	if !d.HasPhoto() {
		return fmt.Errorf("%w: a photo is required", ErrStepBlocked)
	}
	return nil
}

func requireLocation(d *Draft) error {
	if !d.HasLocation() {
		return fmt.Errorf("%w: location is required", ErrStepBlocked)
	}
	return nil
}

func requireSignal(d *Draft) error {
	if d.SignalCount() < 1 {
		return fmt.Errorf("%w: select at least one signal", ErrStepBlocked)
	}
	return nil
}

func requireValidOccupancy(d *Draft) error {
	if !d.occupancy.Valid() {
		return fmt.Errorf("%w: occupancy %q is not allowed", ErrStepBlocked, d.occupancy)
	}
	return nil
}
