// Package section edits one question-list section in memory.
//
// A section may end with a single immutable question. That question cannot
// be edited, moved, moved past or deleted, and new questions are always
// inserted before it. Callers persist the result with Questions().
package section

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/parisxmas/OxiEnroll/internal/field"
	"github.com/parisxmas/OxiEnroll/internal/models"
)

var (
	ErrImmutableQuestion  = errors.New("question is immutable")
	ErrQuestionNotFound   = errors.New("question not found")
	ErrPositionOutOfRange = errors.New("position out of range")
	ErrInvalidSection     = errors.New("invalid section")
)

// Store is the editable question list of one section.
type Store struct {
	key       models.SectionKey
	questions []models.Question
}

// New wraps a loaded question list. The list is validated and copied.
func New(key models.SectionKey, questions []models.Question) (*Store, error) {
	if err := Validate(questions); err != nil {
		return nil, err
	}
	return &Store{key: key, questions: models.CloneQuestions(questions)}, nil
}

func (s *Store) Key() models.SectionKey { return s.key }

// Questions returns a copy of the current list in order.
func (s *Store) Questions() []models.Question {
	out := models.CloneQuestions(s.questions)
	if out == nil {
		out = []models.Question{}
	}
	return out
}

// Add appends q before any trailing immutable question. An empty id is
// replaced by a generated one. The new question is never immutable.
func (s *Store) Add(q models.Question) (models.Question, error) {
	q = normalize(q.Clone())
	q.Immutable = false
	if q.ID == "" {
		q.ID = uuid.New().String()
	}
	if models.ReservedQuestionID(q.ID) {
		return models.Question{}, fmt.Errorf("%w: question id %q is reserved", ErrInvalidSection, q.ID)
	}
	if s.indexOf(q.ID) >= 0 {
		return models.Question{}, fmt.Errorf("%w: duplicate question id %q", ErrInvalidSection, q.ID)
	}
	if _, err := field.New(q); err != nil {
		return models.Question{}, fmt.Errorf("%w: %v", ErrInvalidSection, err)
	}

	at := len(s.questions)
	if s.hasLocked() {
		at--
	}
	s.questions = append(s.questions, models.Question{})
	copy(s.questions[at+1:], s.questions[at:])
	s.questions[at] = q
	return q.Clone(), nil
}

// Delete removes the question with the given id.
func (s *Store) Delete(id string) error {
	i := s.indexOf(id)
	if i < 0 {
		return ErrQuestionNotFound
	}
	if s.questions[i].Immutable {
		return ErrImmutableQuestion
	}
	s.questions = append(s.questions[:i], s.questions[i+1:]...)
	return nil
}

// Edit replaces the definition of the question with the given id. The id and
// immutable flag of the stored question are kept.
func (s *Store) Edit(id string, q models.Question) (models.Question, error) {
	i := s.indexOf(id)
	if i < 0 {
		return models.Question{}, ErrQuestionNotFound
	}
	if s.questions[i].Immutable {
		return models.Question{}, ErrImmutableQuestion
	}
	q = normalize(q.Clone())
	q.ID = id
	q.Immutable = false
	if _, err := field.New(q); err != nil {
		return models.Question{}, fmt.Errorf("%w: %v", ErrInvalidSection, err)
	}
	s.questions[i] = q
	return q.Clone(), nil
}

// Move exchanges positions the way a drag-and-drop reorder does: the
// question at from is removed and reinserted at to.
func (s *Store) Move(from, to int) error {
	n := len(s.questions)
	if from < 0 || from >= n || to < 0 || to >= n {
		return ErrPositionOutOfRange
	}
	if s.questions[from].Immutable || s.questions[to].Immutable {
		return ErrImmutableQuestion
	}
	if from == to {
		return nil
	}
	moved := s.questions[from]
	s.questions = append(s.questions[:from], s.questions[from+1:]...)
	s.questions = append(s.questions, models.Question{})
	copy(s.questions[to+1:], s.questions[to:])
	s.questions[to] = moved
	return nil
}

// Replace swaps in a whole edited list, as the admin editor's save does. The
// immutable question, when present, must come back unchanged and last.
func (s *Store) Replace(questions []models.Question) error {
	next := make([]models.Question, len(questions))
	for i, q := range questions {
		next[i] = normalize(q.Clone())
	}
	if err := Validate(next); err != nil {
		return err
	}
	if s.hasLocked() {
		locked := s.questions[len(s.questions)-1]
		if len(next) == 0 || !sameQuestion(next[len(next)-1], locked) {
			return fmt.Errorf("%w: question %q must stay last and unchanged", ErrImmutableQuestion, locked.ID)
		}
	} else {
		for _, q := range next {
			if q.Immutable {
				return fmt.Errorf("%w: cannot introduce immutable question %q", ErrImmutableQuestion, q.ID)
			}
		}
	}
	s.questions = next
	return nil
}

// Validate checks the section invariants: ids are present, unique and not
// reserved by the submission layout, types are known, and at most one
// immutable question exists and it is last.
func Validate(questions []models.Question) error {
	seen := make(map[string]bool, len(questions))
	for i, q := range questions {
		if q.ID == "" {
			return fmt.Errorf("%w: question at position %d has no id", ErrInvalidSection, i)
		}
		if seen[q.ID] {
			return fmt.Errorf("%w: duplicate question id %q", ErrInvalidSection, q.ID)
		}
		if models.ReservedQuestionID(q.ID) {
			return fmt.Errorf("%w: question id %q is reserved", ErrInvalidSection, q.ID)
		}
		seen[q.ID] = true
		if _, err := field.New(q); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidSection, err)
		}
		if q.Immutable && i != len(questions)-1 {
			return fmt.Errorf("%w: immutable question %q must be last", ErrInvalidSection, q.ID)
		}
	}
	return nil
}

func (s *Store) hasLocked() bool {
	return len(s.questions) > 0 && s.questions[len(s.questions)-1].Immutable
}

func (s *Store) indexOf(id string) int {
	for i, q := range s.questions {
		if q.ID == id {
			return i
		}
	}
	return -1
}

// normalize applies editor defaults: choice types keep a non-nil option list,
// other types drop options, and file questions get a size limit.
func normalize(q models.Question) models.Question {
	if q.Type.NeedsOptions() {
		if q.Options == nil {
			q.Options = []string{}
		}
	} else {
		q.Options = []string{}
	}
	if q.Type == models.File {
		if q.FileConfig == nil {
			q.FileConfig = &models.FileConfig{AllowedTypes: []string{}, MaxSizeMB: models.DefaultMaxSizeMB}
		}
		if q.FileConfig.AllowedTypes == nil {
			q.FileConfig.AllowedTypes = []string{}
		}
		if q.FileConfig.MaxSizeMB <= 0 {
			q.FileConfig.MaxSizeMB = models.DefaultMaxSizeMB
		}
	} else {
		q.FileConfig = nil
	}
	return q
}

func sameQuestion(a, b models.Question) bool {
	if a.ID != b.ID || a.Label != b.Label || a.Type != b.Type || a.Required != b.Required || a.Immutable != b.Immutable {
		return false
	}
	if len(a.Options) != len(b.Options) {
		return false
	}
	for i := range a.Options {
		if a.Options[i] != b.Options[i] {
			return false
		}
	}
	return true
}
