// Package wizard drives the public enrollment flow.
//
// The flow is a state machine over named steps. When the enrollment is
// organization sponsored, PROGRAMS and USER_INFO are repeated once per
// nominated participant by a nested participant loop.
package wizard

import "errors"

// Step names one screen of the enrollment flow.
type Step string

const (
	StepIntro        Step = "INTRO"
	StepNature       Step = "ENROLLMENT_NATURE"
	StepOrganization Step = "ORGANIZATION_INFO"
	StepPrograms     Step = "PROGRAMS"
	StepUserInfo     Step = "USER_INFO"
	StepGeneral      Step = "GENERAL_INFO"
	StepSuccess      Step = "SUCCESS"
)

// Prompt is an interstitial shown between steps. It is not a step itself.
type Prompt string

const (
	PromptNone               Prompt = ""
	PromptParticipantConfirm Prompt = "participantConfirm"
	PromptResetWarning       Prompt = "resetWarning"
)

var (
	ErrPromptPending    = errors.New("a confirmation prompt is pending")
	ErrNoPrompt         = errors.New("no confirmation prompt is pending")
	ErrSubmissionFailed = errors.New("submission failed")
	ErrSessionNotFound  = errors.New("enrollment session not found")
	ErrFinished         = errors.New("enrollment already submitted")
	ErrTooManySessions  = errors.New("too many open enrollment sessions")
)

// participantLoop is the sub-machine that walks PROGRAMS and USER_INFO once
// per participant.
type participantLoop struct {
	index int
	total int
}

func (l *participantLoop) enter(total int) {
	if total < 1 {
		total = 1
	}
	l.index = 0
	l.total = total
}

// forward moves to the next participant. It reports false when the current
// participant is the last one.
func (l *participantLoop) forward() bool {
	if l.index < l.total-1 {
		l.index++
		return true
	}
	return false
}

// backward moves to the previous participant. It reports false on the first.
func (l *participantLoop) backward() bool {
	if l.index > 0 {
		l.index--
		return true
	}
	return false
}

func (l *participantLoop) last() {
	l.index = l.total - 1
}
