package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/parisxmas/OxiEnroll/internal/enrollment"
	"github.com/parisxmas/OxiEnroll/internal/field"
	"github.com/parisxmas/OxiEnroll/internal/models"
	"github.com/parisxmas/OxiEnroll/internal/wizard"
	"go.uber.org/zap"
)

// Synthetic question ids for the two steps that are not driven by a
// configured question list.
const (
	NatureQuestionID  = "enrollmentNature"
	ProgramQuestionID = "program"
)

const (
	defaultNatureLabel  = "Select enrollment type"
	programLabel        = "Select a program"
	participantConfirm  = "You are enrolling %d participants. You will be asked to provide details for each one sequentially."
	resetWarning        = "Switching enrollment types will erase all current entries. Are you sure you want to start over?"
	invalidNominations  = "Please enter a whole number of at least 1."
	bannerNature        = "Please select an enrollment type to continue."
	bannerOrganization  = "Please fill in all required organization details."
	bannerPrograms      = "Please select a program to continue."
	bannerUserInfo      = "Please fill in all required participant details."
	bannerGeneral       = "Please complete the required final details highlighted below."
	titlePersonalDetail = "Personal Details"
)

var banners = map[wizard.Step]string{
	wizard.StepNature:       bannerNature,
	wizard.StepOrganization: bannerOrganization,
	wizard.StepPrograms:     bannerPrograms,
	wizard.StepUserInfo:     bannerUserInfo,
	wizard.StepGeneral:      bannerGeneral,
}

var titles = map[wizard.Step]string{
	wizard.StepNature:       "Enrollment Nature",
	wizard.StepOrganization: "Organization Information",
	wizard.StepPrograms:     "Program Selection",
	wizard.StepUserInfo:     titlePersonalDetail,
	wizard.StepGeneral:      "General Information",
}

type PromptView struct {
	Kind    wizard.Prompt `json:"kind"`
	Message string        `json:"message"`
}

// StepView is what a client needs to draw the current wizard screen.
type StepView struct {
	SessionID    string           `json:"sessionId"`
	Step         wizard.Step      `json:"step"`
	Steps        []wizard.Step    `json:"steps"`
	Title        string           `json:"title,omitempty"`
	Message      string           `json:"message,omitempty"`
	Participant  int              `json:"participant,omitempty"`
	Participants int              `json:"participants,omitempty"`
	Progress     *wizard.Progress `json:"progress,omitempty"`
	Inputs       []field.Input    `json:"inputs,omitempty"`
	Banner       string           `json:"banner,omitempty"`
	Prompt       *PromptView      `json:"prompt,omitempty"`
	SubmissionID string           `json:"submissionId,omitempty"`
}

// EnrollmentService runs the public wizard over the session registry. The
// configuration is loaded at the start of every request so admin edits are
// picked up by sessions already in progress.
type EnrollmentService struct {
	config    *ConfigService
	sessions  *wizard.Sessions
	submitter wizard.Submitter
	uploads   *UploadService
	log       *zap.Logger
}

func NewEnrollmentService(config *ConfigService, sessions *wizard.Sessions, submitter wizard.Submitter, uploads *UploadService, log *zap.Logger) *EnrollmentService {
	return &EnrollmentService{
		config:    config,
		sessions:  sessions,
		submitter: submitter,
		uploads:   uploads,
		log:       log,
	}
}

// Start opens a new session on INTRO.
func (s *EnrollmentService) Start(ctx context.Context) (*StepView, error) {
	cfg, err := s.config.Get(ctx)
	if err != nil {
		return nil, err
	}
	sess, err := s.sessions.Create()
	if err != nil {
		s.log.Warn("enrollment: session refused", zap.Error(err))
		return nil, err
	}
	s.log.Info("enrollment: session started", zap.String("session", sess.ID))
	return s.run(cfg, sess, func(*wizard.Flow) error { return nil })
}

func (s *EnrollmentService) View(ctx context.Context, id string) (*StepView, error) {
	return s.do(ctx, id, func(*models.Configuration, *wizard.Flow) error { return nil })
}

// Answer merges answers into the current step. Only advisory checks run, so
// the returned view may carry advisories but the call never fails on them.
func (s *EnrollmentService) Answer(ctx context.Context, id string, answers map[string]any) (*StepView, error) {
	return s.do(ctx, id, func(cfg *models.Configuration, f *wizard.Flow) error {
		return applyAnswers(cfg, f, answers)
	})
}

// Next applies any answers, checks the step and moves forward. A refused
// move returns ErrStepIncomplete together with a view that flags the
// missing fields.
func (s *EnrollmentService) Next(ctx context.Context, id string, answers map[string]any) (*StepView, error) {
	return s.do(ctx, id, func(cfg *models.Configuration, f *wizard.Flow) error {
		if err := applyAnswers(cfg, f, answers); err != nil {
			return err
		}
		if f.Prompt() == wizard.PromptNone && f.Step() != wizard.StepSuccess {
			report, err := checkStep(cfg, f)
			if err != nil {
				return err
			}
			if !report.OK() {
				f.MarkAttempted()
				return ErrStepIncomplete
			}
		}
		err := f.Next(ctx, s.submitter)
		switch {
		case errors.Is(err, wizard.ErrSubmissionFailed):
			s.log.Error("enrollment: submit failed", zap.String("session", id), zap.Error(err))
		case err == nil && f.Step() == wizard.StepSuccess:
			s.log.Info("enrollment: submitted", zap.String("session", id), zap.String("submission", f.SubmissionID()))
		}
		return err
	})
}

func (s *EnrollmentService) Back(ctx context.Context, id string) (*StepView, error) {
	return s.do(ctx, id, func(_ *models.Configuration, f *wizard.Flow) error {
		return f.Back()
	})
}

func (s *EnrollmentService) Confirm(ctx context.Context, id string) (*StepView, error) {
	return s.do(ctx, id, func(_ *models.Configuration, f *wizard.Flow) error {
		return f.Confirm()
	})
}

func (s *EnrollmentService) Cancel(ctx context.Context, id string) (*StepView, error) {
	return s.do(ctx, id, func(_ *models.Configuration, f *wizard.Flow) error {
		f.Cancel()
		return nil
	})
}

// Upload stores a file for a file question on the current step and records
// its locator as the answer. The blob write runs without the session lock.
// If the user has left the step by the time it finishes, the file is kept
// but the answer is not recorded.
func (s *EnrollmentService) Upload(ctx context.Context, id, questionID string, in FileInput) (*StepView, error) {
	cfg, err := s.config.Get(ctx)
	if err != nil {
		return nil, err
	}
	sess, err := s.sessions.Get(id)
	if err != nil {
		return nil, err
	}

	var (
		q     models.Question
		step  wizard.Step
		index int
	)
	err = sess.Do(func(f *wizard.Flow) error {
		if err := editable(f); err != nil {
			return err
		}
		qs, _ := stepQuestions(cfg, f)
		found := false
		for _, candidate := range qs {
			if candidate.ID == questionID {
				q, found = candidate, true
				break
			}
		}
		if !found {
			return fmt.Errorf("%w: question %q is not on this step", ErrInvalidInput, questionID)
		}
		step, index = f.Step(), f.ParticipantIndex()
		sess.Uploads().Begin(questionID)
		return nil
	})
	if err != nil {
		return nil, err
	}

	u, err := s.uploads.Store(ctx, q, sess.ID, in)
	sess.Uploads().Done(questionID)
	if err != nil {
		return nil, err
	}

	return s.run(cfg, sess, func(f *wizard.Flow) error {
		if f.Step() != step || f.ParticipantIndex() != index || f.Prompt() != wizard.PromptNone {
			s.log.Info("enrollment: upload finished after leaving step",
				zap.String("session", sess.ID), zap.String("upload", u.ID))
			return nil
		}
		return applyAnswers(cfg, f, map[string]any{questionID: u.Locator()})
	})
}

func (s *EnrollmentService) do(ctx context.Context, id string, fn func(*models.Configuration, *wizard.Flow) error) (*StepView, error) {
	cfg, err := s.config.Get(ctx)
	if err != nil {
		return nil, err
	}
	sess, err := s.sessions.Get(id)
	if err != nil {
		return nil, err
	}
	return s.run(cfg, sess, func(f *wizard.Flow) error { return fn(cfg, f) })
}

// run applies fn under the session lock and renders the resulting state. The
// view is returned alongside fn's error so that refused moves still show
// the flagged step.
func (s *EnrollmentService) run(cfg *models.Configuration, sess *wizard.Session, fn func(*wizard.Flow) error) (*StepView, error) {
	var view *StepView
	err := sess.Do(func(f *wizard.Flow) error {
		opErr := fn(f)
		v, err := render(cfg, sess, f)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrConfigUnavailable, err)
		}
		view = v
		return opErr
	})
	return view, err
}

func render(cfg *models.Configuration, sess *wizard.Session, f *wizard.Flow) (*StepView, error) {
	v := &StepView{
		SessionID: sess.ID,
		Step:      f.Step(),
		Steps:     f.Steps(),
		Title:     titles[f.Step()],
		Progress:  f.Progress(),
	}
	rec := f.Record()

	switch f.Step() {
	case wizard.StepIntro:
		v.Message = cfg.OpeningMessage
	case wizard.StepSuccess:
		v.Message = cfg.ClosingMessage
		v.SubmissionID = f.SubmissionID()
	case wizard.StepPrograms, wizard.StepUserInfo:
		if rec.IsOrganization() {
			v.Participant = f.ParticipantIndex() + 1
			v.Participants = f.TotalParticipants()
			if f.Step() == wizard.StepUserInfo {
				v.Title = fmt.Sprintf("Participant %d of %d", v.Participant, v.Participants)
			}
		}
	}

	qs, answers := stepQuestions(cfg, f)
	if len(qs) > 0 {
		form, err := field.NewForm(qs)
		if err != nil {
			return nil, err
		}
		v.Inputs = form.Render(answers, field.RenderState{
			HighlightEmpty: f.Attempted(),
			Uploading:      sess.Uploads().Active,
		})
		if f.Attempted() && f.Step() == wizard.StepOrganization {
			flagNominations(cfg, answers, v.Inputs)
		}
	}
	if f.Attempted() {
		v.Banner = banners[f.Step()]
	}

	switch f.Prompt() {
	case wizard.PromptParticipantConfirm:
		v.Prompt = &PromptView{Kind: f.Prompt(), Message: fmt.Sprintf(participantConfirm, rec.TotalParticipants())}
	case wizard.PromptResetWarning:
		v.Prompt = &PromptView{Kind: f.Prompt(), Message: resetWarning}
	}
	return v, nil
}

// stepQuestions returns the questions shown on the current step and the
// answers they are rendered from.
func stepQuestions(cfg *models.Configuration, f *wizard.Flow) ([]models.Question, map[string]any) {
	rec := f.Record()
	switch f.Step() {
	case wizard.StepNature:
		answers := map[string]any{}
		if rec.Nature() != "" {
			answers[NatureQuestionID] = rec.Nature()
		}
		return []models.Question{natureQuestion(cfg)}, answers
	case wizard.StepOrganization:
		return cfg.Sections.OrganizationInfo.Questions, rec.Organization()
	case wizard.StepPrograms:
		answers := map[string]any{}
		if p := rec.Participant(f.ParticipantIndex()).Program; p != "" {
			answers[ProgramQuestionID] = p
		}
		return []models.Question{programQuestion(cfg)}, answers
	case wizard.StepUserInfo:
		return cfg.Sections.UserInfo.Questions, rec.Participant(f.ParticipantIndex()).Answers
	case wizard.StepGeneral:
		return cfg.Sections.GeneralInfo.Questions, rec.General()
	}
	return nil, nil
}

func natureQuestion(cfg *models.Configuration) models.Question {
	label := cfg.Sections.EnrollmentNature.Question
	if label == "" {
		label = defaultNatureLabel
	}
	return models.Question{
		ID:       NatureQuestionID,
		Label:    label,
		Type:     models.MultipleChoice,
		Required: true,
		Options:  cfg.Sections.EnrollmentNature.Options,
	}
}

func programQuestion(cfg *models.Configuration) models.Question {
	return models.Question{
		ID:       ProgramQuestionID,
		Label:    programLabel,
		Type:     models.MultipleChoice,
		Required: true,
		Options:  cfg.Programs(),
	}
}

func editable(f *wizard.Flow) error {
	if f.Step() == wizard.StepSuccess {
		return wizard.ErrFinished
	}
	if f.Prompt() != wizard.PromptNone {
		return wizard.ErrPromptPending
	}
	return nil
}

// applyAnswers decodes answers for the current step and merges them into the
// record. Unknown ids are ignored and a nil value clears an answer.
func applyAnswers(cfg *models.Configuration, f *wizard.Flow, answers map[string]any) error {
	if len(answers) == 0 {
		return nil
	}
	if err := editable(f); err != nil {
		return err
	}
	qs, _ := stepQuestions(cfg, f)
	if len(qs) == 0 {
		return fmt.Errorf("%w: step %s takes no answers", ErrInvalidInput, f.Step())
	}
	form, err := field.NewForm(qs)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConfigUnavailable, err)
	}
	values := form.Normalize(answers)
	for _, q := range qs {
		if raw, ok := answers[q.ID]; ok && raw == nil {
			values[q.ID] = nil
		}
	}

	rec := f.Record()
	switch f.Step() {
	case wizard.StepNature:
		if v, ok := values[NatureQuestionID]; ok {
			nature, _ := v.(string)
			rec.SetNature(nature)
		}
	case wizard.StepOrganization:
		rec.MergeOrganization(values)
		syncParticipantCount(cfg, rec)
	case wizard.StepPrograms:
		if v, ok := values[ProgramQuestionID]; ok {
			program, _ := v.(string)
			rec.SetProgram(f.ParticipantIndex(), program)
		}
	case wizard.StepUserInfo:
		rec.MergeParticipant(f.ParticipantIndex(), values)
	case wizard.StepGeneral:
		rec.MergeGeneral(values)
	}
	return nil
}

// checkStep runs the submit-time checks for the current step.
func checkStep(cfg *models.Configuration, f *wizard.Flow) (field.Report, error) {
	qs, answers := stepQuestions(cfg, f)
	if len(qs) == 0 {
		return field.Report{}, nil
	}
	form, err := field.NewForm(qs)
	if err != nil {
		return field.Report{}, fmt.Errorf("%w: %v", ErrConfigUnavailable, err)
	}
	report := form.Validate(answers)
	if f.Step() == wizard.StepOrganization {
		if id := nominationQuestionID(cfg); id != "" && answers[id] != nil {
			if _, ok := participantCount(answers[id]); !ok {
				if report.Invalid == nil {
					report.Invalid = map[string]string{}
				}
				report.Invalid[id] = invalidNominations
			}
		}
	}
	return report, nil
}

// nominationQuestionID is the id of the immutable question closing the
// organization section. Its answer is the number of participants.
func nominationQuestionID(cfg *models.Configuration) string {
	qs := cfg.Sections.OrganizationInfo.Questions
	if n := len(qs); n > 0 && qs[n-1].Immutable {
		return qs[n-1].ID
	}
	return ""
}

func syncParticipantCount(cfg *models.Configuration, rec *enrollment.Record) {
	id := nominationQuestionID(cfg)
	if id == "" {
		rec.SetParticipantCount(1)
		return
	}
	n, _ := participantCount(rec.Organization()[id])
	rec.SetParticipantCount(n)
}

func participantCount(v any) (int, bool) {
	switch n := v.(type) {
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		return i, err == nil && i >= 1
	case float64:
		if n != math.Trunc(n) || n < 1 || n > math.MaxInt32 {
			return 0, false
		}
		return int(n), true
	}
	return 0, false
}

func flagNominations(cfg *models.Configuration, answers map[string]any, inputs []field.Input) {
	id := nominationQuestionID(cfg)
	if id == "" || answers[id] == nil {
		return
	}
	if _, ok := participantCount(answers[id]); ok {
		return
	}
	for i := range inputs {
		if inputs[i].ID == id && inputs[i].Invalid == "" {
			inputs[i].Invalid = invalidNominations
		}
	}
}
