package wizard

import (
	"context"
	"fmt"
	"time"

	"github.com/parisxmas/OxiEnroll/internal/enrollment"
	"github.com/parisxmas/OxiEnroll/internal/models"
)

// Submitter writes a finished submission and returns its id. It is the only
// way to reach SUCCESS.
type Submitter interface {
	Submit(ctx context.Context, sub models.Submission) (string, error)
}

// SubmitterFunc adapts a function to Submitter.
type SubmitterFunc func(ctx context.Context, sub models.Submission) (string, error)

func (f SubmitterFunc) Submit(ctx context.Context, sub models.Submission) (string, error) {
	return f(ctx, sub)
}

// Flow is the state of one enrollment. It is not safe for concurrent use.
type Flow struct {
	step      Step
	prompt    Prompt
	loop      participantLoop
	record    *enrollment.Record
	attempted bool
	submitted string

	now func() time.Time
}

func NewFlow() *Flow {
	f := &Flow{
		step:   StepIntro,
		record: enrollment.NewRecord(),
		now:    time.Now,
	}
	f.loop.enter(1)
	return f
}

func (f *Flow) Step() Step { return f.step }

func (f *Flow) Prompt() Prompt { return f.prompt }

func (f *Flow) Record() *enrollment.Record { return f.record }

// ParticipantIndex is the zero-based participant being edited in the loop.
func (f *Flow) ParticipantIndex() int { return f.loop.index }

func (f *Flow) TotalParticipants() int { return f.loop.total }

// Attempted reports whether a forward move from the current step was refused
// for missing answers. Rendering then flags every empty required field.
func (f *Flow) Attempted() bool { return f.attempted }

func (f *Flow) MarkAttempted() { f.attempted = true }

// SubmissionID is the id of the stored submission once SUCCESS is reached.
func (f *Flow) SubmissionID() string { return f.submitted }

// Steps recomputes the linear step list from the current answers.
func (f *Flow) Steps() []Step {
	steps := []Step{StepIntro, StepNature}
	if f.record.IsOrganization() {
		steps = append(steps, StepOrganization)
	}
	return append(steps, StepPrograms, StepUserInfo, StepGeneral, StepSuccess)
}

// Next moves forward. On ORGANIZATION_INFO it raises the participant
// confirmation instead. On USER_INFO it loops while participants remain. On
// GENERAL_INFO it submits the record and stays put if the write fails.
func (f *Flow) Next(ctx context.Context, s Submitter) error {
	if f.step == StepSuccess {
		return ErrFinished
	}
	if f.prompt != PromptNone {
		return ErrPromptPending
	}

	switch f.step {
	case StepIntro:
		f.moveTo(StepNature)
	case StepNature:
		if f.record.IsOrganization() {
			f.moveTo(StepOrganization)
			return nil
		}
		f.loop.enter(1)
		f.moveTo(StepPrograms)
	case StepOrganization:
		f.prompt = PromptParticipantConfirm
	case StepPrograms:
		f.moveTo(StepUserInfo)
	case StepUserInfo:
		if f.loop.forward() {
			f.moveTo(StepPrograms)
			return nil
		}
		f.moveTo(StepGeneral)
	case StepGeneral:
		return f.submit(ctx, s)
	}
	return nil
}

// Back moves backward, mirroring Next. Leaving the step after
// ENROLLMENT_NATURE raises the reset warning first.
func (f *Flow) Back() error {
	if f.step == StepSuccess {
		return ErrFinished
	}
	if f.prompt != PromptNone {
		return ErrPromptPending
	}

	switch f.step {
	case StepNature:
		f.moveTo(StepIntro)
	case StepOrganization:
		f.prompt = PromptResetWarning
	case StepPrograms:
		switch {
		case f.loop.backward():
			f.moveTo(StepUserInfo)
		case f.record.IsOrganization():
			f.moveTo(StepOrganization)
		default:
			f.prompt = PromptResetWarning
		}
	case StepUserInfo:
		f.moveTo(StepPrograms)
	case StepGeneral:
		f.loop.last()
		f.moveTo(StepUserInfo)
	}
	return nil
}

// Confirm accepts the pending prompt.
func (f *Flow) Confirm() error {
	switch f.prompt {
	case PromptParticipantConfirm:
		f.prompt = PromptNone
		f.loop.enter(f.record.TotalParticipants())
		f.moveTo(StepPrograms)
	case PromptResetWarning:
		f.prompt = PromptNone
		f.reset()
		f.moveTo(StepNature)
	default:
		return ErrNoPrompt
	}
	return nil
}

// Cancel dismisses the pending prompt and stays on the current step.
func (f *Flow) Cancel() {
	f.prompt = PromptNone
}

func (f *Flow) submit(ctx context.Context, s Submitter) error {
	id, err := s.Submit(ctx, f.record.Submission(f.now()))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSubmissionFailed, err)
	}
	f.submitted = id
	f.reset()
	f.moveTo(StepSuccess)
	return nil
}

func (f *Flow) reset() {
	f.record.Reset()
	f.loop.enter(1)
}

func (f *Flow) moveTo(s Step) {
	f.step = s
	f.attempted = false
}
