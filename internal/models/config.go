package models

import "fmt"

// ConfigKey identifies the single global configuration document.
const ConfigKey = "mainConfig"

// SectionKey names one of the question-list sections.
type SectionKey string

const (
	SectionOrganizationInfo SectionKey = "organizationInfo"
	SectionUserInfo         SectionKey = "userInfo"
	SectionGeneralInfo      SectionKey = "generalInfo"
)

// QuestionSections lists the editable question-list sections.
var QuestionSections = []SectionKey{SectionOrganizationInfo, SectionUserInfo, SectionGeneralInfo}

// ParseSectionKey validates a section name taken from a URL or flag.
func ParseSectionKey(s string) (SectionKey, error) {
	for _, k := range QuestionSections {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown section %q", s)
}

// QuestionsField is the document field path holding a section's questions.
func (k SectionKey) QuestionsField() string {
	return "sections." + string(k) + ".questions"
}

const (
	NatureSelf         = "Self"
	NatureOrganization = "Organization Sponsored"
)

// EnrollmentNatureSection is the fixed choice asked at the start of the flow.
type EnrollmentNatureSection struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
}

type ProgramsSection struct {
	List []string `json:"list"`
}

type QuestionSection struct {
	Questions []Question `json:"questions"`
}

type Sections struct {
	EnrollmentNature EnrollmentNatureSection `json:"enrollmentNature"`
	Programs         ProgramsSection         `json:"programs"`
	OrganizationInfo QuestionSection         `json:"organizationInfo"`
	UserInfo         QuestionSection         `json:"userInfo"`
	GeneralInfo      QuestionSection         `json:"generalInfo"`
}

// Questions returns the question list stored under key.
func (s *Sections) Questions(key SectionKey) []Question {
	switch key {
	case SectionOrganizationInfo:
		return s.OrganizationInfo.Questions
	case SectionUserInfo:
		return s.UserInfo.Questions
	case SectionGeneralInfo:
		return s.GeneralInfo.Questions
	}
	return nil
}

// SetQuestions replaces the question list stored under key.
func (s *Sections) SetQuestions(key SectionKey, qs []Question) {
	switch key {
	case SectionOrganizationInfo:
		s.OrganizationInfo.Questions = qs
	case SectionUserInfo:
		s.UserInfo.Questions = qs
	case SectionGeneralInfo:
		s.GeneralInfo.Questions = qs
	}
}

// Configuration is the root document read by every wizard session and
// edited by admins.
type Configuration struct {
	ID             string   `json:"_id,omitempty"`
	Key            string   `json:"key"`
	OpeningMessage string   `json:"openingMessage"`
	ClosingMessage string   `json:"closingMessage"`
	Sections       Sections `json:"sections"`
	UpdatedAt      string   `json:"updatedAt,omitempty"`
}

// Programs returns the selectable program catalogue.
func (c *Configuration) Programs() []string {
	return c.Sections.Programs.List
}
