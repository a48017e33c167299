// Package testutil provides stores and fixtures shared by package tests.
package testutil

import (
	"testing"

	"github.com/parisxmas/OxiEnroll/internal/db"
	"github.com/parisxmas/OxiEnroll/internal/models"
	"github.com/stretchr/testify/require"
)

// NewTestStore returns an empty in-memory store closed at test cleanup.
func NewTestStore(t testing.TB) db.Store {
	t.Helper()
	s, err := db.OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// Programs is the fixture program catalogue.
var Programs = []string{"Data Analytics", "Artificial Intelligence", "Project Management"}

// Config returns a small but complete configuration: two organization
// questions ending with the immutable nomination count, one required
// participant question, a file question and one optional general question.
func Config() *models.Configuration {
	return &models.Configuration{
		Key:            models.ConfigKey,
		OpeningMessage: "Welcome",
		ClosingMessage: "Thanks",
		Sections: models.Sections{
			EnrollmentNature: models.EnrollmentNatureSection{
				Question: "Are you applying yourself or on behalf of an organization?",
				Options:  []string{models.NatureSelf, models.NatureOrganization},
			},
			Programs: models.ProgramsSection{List: append([]string(nil), Programs...)},
			OrganizationInfo: models.QuestionSection{Questions: []models.Question{
				{ID: "org-name", Label: "Organization Name", Type: models.ShortText, Required: true, Options: []string{}},
				{ID: "fixed-nomination-count", Label: "How many Participants are you nominating?", Type: models.Number, Required: true, Options: []string{}, Immutable: true},
			}},
			UserInfo: models.QuestionSection{Questions: []models.Question{
				{ID: "full-name", Label: "Full Name", Type: models.ShortText, Required: true, Options: []string{}},
				{ID: "email", Label: "Email", Type: models.Email, Required: false, Options: []string{}},
				{ID: "cv", Label: "CV", Type: models.File, Options: []string{}, FileConfig: &models.FileConfig{AllowedTypes: []string{"pdf"}, MaxSizeMB: 1}},
			}},
			GeneralInfo: models.QuestionSection{Questions: []models.Question{
				{ID: "source", Label: "How did you hear about us?", Type: models.Dropdown, Required: true, Options: []string{"Web", "Friend"}},
			}},
		},
	}
}
