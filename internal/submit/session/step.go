package session

import "fmt"

// Step is a position in the submission flow.
type Step int

const (
	Exited Step = iota
	StepPhoto
	StepLocation
	StepSignals
	StepNotes
	StepReview
	StepSuccess
)

// FormSteps is the number of data-entry steps shown in the progress bar.
const FormSteps = 5

func (s Step) String() string {
	switch s {
	case Exited:
		return "exited"
	case StepPhoto:
		return "photo"
	case StepLocation:
		return "location"
	case StepSignals:
		return "signals"
	case StepNotes:
		return "notes"
	case StepReview:
		return "review"
	case StepSuccess:
		return "success"
	}
	return fmt.Sprintf("step(%d)", int(s))
}

// Progress is the "step k of 5" indicator. ok is false outside steps 1-5.
func (s Step) Progress() (current, total, percent int, ok bool) {
	if s < StepPhoto || s > StepReview {
		return 0, FormSteps, 0, false
	}
	k := int(s)
	return k, FormSteps, k * 100 / FormSteps, true
}

type Action int

const (
	ActionNext Action = iota + 1
	ActionBack
	ActionCancel
	ActionSubmit
	ActionReset
	ActionLeave
)

func (a Action) String() string {
	switch a {
	case ActionNext:
		return "next"
	case ActionBack:
		return "back"
	case ActionCancel:
		return "cancel"
	case ActionSubmit:
		return "submit"
	case ActionReset:
		return "reset"
	case ActionLeave:
		return "leave"
	}
	return fmt.Sprintf("action(%d)", int(a))
}
