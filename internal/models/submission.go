package models

import (
	"encoding/json"
	"fmt"
	"math"
)

const StatusPending = "pending"

const (
	participantCountKey = "participantCount"
	programKey          = "program"
)

// ReservedQuestionID reports whether id collides with a key the submission
// document stores next to the answers.
func ReservedQuestionID(id string) bool {
	return id == participantCountKey || id == programKey
}

// OrganizationInfo holds organization answers keyed by question id and the
// participant count derived from the nomination question. It is stored flat:
// {"<questionId>": value, ..., "participantCount": n}.
type OrganizationInfo struct {
	Answers          map[string]any
	ParticipantCount int
}

func (o OrganizationInfo) MarshalJSON() ([]byte, error) {
	return json.Marshal(flatten(o.Answers, participantCountKey, o.ParticipantCount, o.ParticipantCount > 0))
}

func (o *OrganizationInfo) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	o.Answers = map[string]any{}
	o.ParticipantCount = 0
	for k, v := range raw {
		if k == participantCountKey {
			n, err := countFrom(v)
			if err != nil {
				return err
			}
			o.ParticipantCount = n
			continue
		}
		o.Answers[k] = v
	}
	return nil
}

// Participant holds one nominated participant's answers and chosen program,
// stored flat as {"<questionId>": value, ..., "program": "..."}.
type Participant struct {
	Program string
	Answers map[string]any
}

func (p Participant) MarshalJSON() ([]byte, error) {
	return json.Marshal(flatten(p.Answers, programKey, p.Program, p.Program != ""))
}

func (p *Participant) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	p.Answers = map[string]any{}
	p.Program = ""
	for k, v := range raw {
		if k == programKey {
			p.Program, _ = v.(string)
			continue
		}
		p.Answers[k] = v
	}
	return nil
}

// Submission is the persisted, append-only enrollment document.
type Submission struct {
	ID               string           `json:"_id,omitempty"`
	EnrollmentNature string           `json:"enrollmentNature"`
	OrganizationInfo OrganizationInfo `json:"organizationInfo"`
	Participants     []Participant    `json:"participants"`
	GeneralInfo      map[string]any   `json:"generalInfo"`
	SubmittedAt      string           `json:"submittedAt"`
	Status           string           `json:"status"`
}

func flatten(answers map[string]any, key string, value any, include bool) map[string]any {
	out := make(map[string]any, len(answers)+1)
	for k, v := range answers {
		out[k] = v
	}
	if include {
		out[key] = value
	}
	return out
}

func countFrom(v any) (int, error) {
	switch n := v.(type) {
	case float64:
		if n != math.Trunc(n) {
			return 0, fmt.Errorf("participantCount %v is not an integer", n)
		}
		return int(n), nil
	case nil:
		return 0, nil
	}
	return 0, fmt.Errorf("participantCount has type %T", v)
}
