package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/parisxmas/OxiEnroll/internal/models"
	"github.com/parisxmas/OxiEnroll/internal/repository"
	"github.com/parisxmas/OxiEnroll/internal/section"
	"go.uber.org/zap"
)

// Messages is the pair of texts shown before and after the wizard.
type Messages struct {
	OpeningMessage string `json:"openingMessage"`
	ClosingMessage string `json:"closingMessage"`
}

// MessagesUpdate carries the messages an admin changed. Nil fields are left
// as stored.
type MessagesUpdate struct {
	OpeningMessage *string `json:"openingMessage"`
	ClosingMessage *string `json:"closingMessage"`
}

type ConfigService struct {
	repo *repository.ConfigRepo
	text text
	log  *zap.Logger
}

func NewConfigService(repo *repository.ConfigRepo, log *zap.Logger) *ConfigService {
	return &ConfigService{repo: repo, text: newText(), log: log}
}

// Get loads the configuration document. Both a missing document and a failed
// load are reported as ErrConfigUnavailable.
func (s *ConfigService) Get(ctx context.Context) (*models.Configuration, error) {
	cfg, err := s.repo.Load(ctx)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrConfigUnavailable
	}
	if err != nil {
		s.log.Error("config: load failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrConfigUnavailable, err)
	}
	return cfg, nil
}

// Seed writes cfg as the configuration document. An existing document is
// only replaced when force is set; created reports whether anything changed.
func (s *ConfigService) Seed(ctx context.Context, cfg *models.Configuration, force bool) (created bool, err error) {
	for _, key := range models.QuestionSections {
		if err := section.Validate(cfg.Sections.Questions(key)); err != nil {
			return false, fmt.Errorf("seed %s: %w", key, err)
		}
	}
	_, err = s.repo.Load(ctx)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		if _, err := s.repo.Create(ctx, cfg); err != nil {
			return false, err
		}
		s.log.Info("config: seeded")
		return true, nil
	case err != nil:
		return false, err
	case !force:
		return false, nil
	}
	if err := s.repo.Overwrite(ctx, cfg); err != nil {
		return false, err
	}
	s.log.Info("config: overwritten from seed")
	return true, nil
}

func (s *ConfigService) Messages(ctx context.Context) (*Messages, error) {
	cfg, err := s.Get(ctx)
	if err != nil {
		return nil, err
	}
	return &Messages{OpeningMessage: cfg.OpeningMessage, ClosingMessage: cfg.ClosingMessage}, nil
}

// SetMessages saves each supplied message as its own field update.
func (s *ConfigService) SetMessages(ctx context.Context, upd MessagesUpdate) (*Messages, error) {
	if upd.OpeningMessage == nil && upd.ClosingMessage == nil {
		return nil, fmt.Errorf("%w: no message supplied", ErrInvalidInput)
	}
	if _, err := s.Get(ctx); err != nil {
		return nil, err
	}
	if upd.OpeningMessage != nil {
		if err := s.repo.SetOpeningMessage(ctx, s.text.clean(*upd.OpeningMessage)); err != nil {
			return nil, err
		}
	}
	if upd.ClosingMessage != nil {
		if err := s.repo.SetClosingMessage(ctx, s.text.clean(*upd.ClosingMessage)); err != nil {
			return nil, err
		}
	}
	return s.Messages(ctx)
}

func (s *ConfigService) Programs(ctx context.Context) ([]string, error) {
	cfg, err := s.Get(ctx)
	if err != nil {
		return nil, err
	}
	out := append([]string{}, cfg.Programs()...)
	return out, nil
}

// SetPrograms replaces the program catalogue. Entries are trimmed, blanks
// are dropped and duplicates rejected.
func (s *ConfigService) SetPrograms(ctx context.Context, programs []string) ([]string, error) {
	list := make([]string, 0, len(programs))
	seen := make(map[string]bool, len(programs))
	for _, p := range s.text.cleanAll(programs) {
		if p == "" {
			continue
		}
		if seen[p] {
			return nil, fmt.Errorf("%w: duplicate program %q", ErrInvalidInput, p)
		}
		seen[p] = true
		list = append(list, p)
	}
	if _, err := s.Get(ctx); err != nil {
		return nil, err
	}
	if err := s.repo.SetPrograms(ctx, list); err != nil {
		return nil, err
	}
	return list, nil
}

func (s *ConfigService) Section(ctx context.Context, key models.SectionKey) ([]models.Question, error) {
	var out []models.Question
	err := s.readSection(ctx, key, func(st *section.Store) {
		out = st.Questions()
	})
	return out, err
}

// ReplaceSection saves a whole edited question list.
func (s *ConfigService) ReplaceSection(ctx context.Context, key models.SectionKey, qs []models.Question) ([]models.Question, error) {
	var out []models.Question
	err := s.editSection(ctx, key, func(st *section.Store) error {
		if err := st.Replace(s.cleanQuestions(qs)); err != nil {
			return err
		}
		out = st.Questions()
		return nil
	})
	return out, err
}

func (s *ConfigService) AddQuestion(ctx context.Context, key models.SectionKey, q models.Question) (models.Question, error) {
	var out models.Question
	err := s.editSection(ctx, key, func(st *section.Store) error {
		added, err := st.Add(s.cleanQuestion(q))
		out = added
		return err
	})
	return out, err
}

func (s *ConfigService) EditQuestion(ctx context.Context, key models.SectionKey, id string, q models.Question) (models.Question, error) {
	var out models.Question
	err := s.editSection(ctx, key, func(st *section.Store) error {
		edited, err := st.Edit(id, s.cleanQuestion(q))
		out = edited
		return err
	})
	return out, err
}

func (s *ConfigService) DeleteQuestion(ctx context.Context, key models.SectionKey, id string) error {
	return s.editSection(ctx, key, func(st *section.Store) error {
		return st.Delete(id)
	})
}

func (s *ConfigService) MoveQuestion(ctx context.Context, key models.SectionKey, from, to int) ([]models.Question, error) {
	var out []models.Question
	err := s.editSection(ctx, key, func(st *section.Store) error {
		if err := st.Move(from, to); err != nil {
			return err
		}
		out = st.Questions()
		return nil
	})
	return out, err
}

func (s *ConfigService) readSection(ctx context.Context, key models.SectionKey, fn func(*section.Store)) error {
	cfg, err := s.Get(ctx)
	if err != nil {
		return err
	}
	st, err := section.New(key, cfg.Sections.Questions(key))
	if err != nil {
		return err
	}
	fn(st)
	return nil
}

// editSection loads the section, applies fn and persists the whole list as
// one field update.
func (s *ConfigService) editSection(ctx context.Context, key models.SectionKey, fn func(*section.Store) error) error {
	cfg, err := s.Get(ctx)
	if err != nil {
		return err
	}
	st, err := section.New(key, cfg.Sections.Questions(key))
	if err != nil {
		return err
	}
	if err := fn(st); err != nil {
		return err
	}
	if err := s.repo.SetSectionQuestions(ctx, key, st.Questions()); err != nil {
		return err
	}
	s.log.Info("config: section saved", zap.String("section", string(key)))
	return nil
}

func (s *ConfigService) cleanQuestion(q models.Question) models.Question {
	q = q.Clone()
	q.Label = s.text.clean(q.Label)
	if q.Options != nil {
		q.Options = s.text.cleanAll(q.Options)
	}
	return q
}

func (s *ConfigService) cleanQuestions(qs []models.Question) []models.Question {
	out := make([]models.Question, len(qs))
	for i, q := range qs {
		out[i] = s.cleanQuestion(q)
	}
	return out
}
