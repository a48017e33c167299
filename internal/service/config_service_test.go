package service

import (
	"context"
	"testing"

	"github.com/parisxmas/OxiEnroll/internal/models"
	"github.com/parisxmas/OxiEnroll/internal/section"
	"github.com/parisxmas/OxiEnroll/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestConfigService_SeedAndUnavailable(t *testing.T) {
	e := newEnv(t, false)
	ctx := context.Background()

	_, err := e.config.Get(ctx)
	assert.ErrorIs(t, err, ErrConfigUnavailable)

	created, err := e.config.Seed(ctx, testutil.Config(), false)
	require.NoError(t, err)
	assert.True(t, created)

	next := testutil.Config()
	next.OpeningMessage = "Replaced"
	created, err = e.config.Seed(ctx, next, false)
	require.NoError(t, err)
	assert.False(t, created)

	created, err = e.config.Seed(ctx, next, true)
	require.NoError(t, err)
	assert.True(t, created)
	cfg, err := e.config.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Replaced", cfg.OpeningMessage)

	bad := testutil.Config()
	bad.Sections.UserInfo.Questions[0].Type = "slider"
	_, err = e.config.Seed(ctx, bad, true)
	assert.ErrorIs(t, err, section.ErrInvalidSection)
}

func TestConfigService_Messages(t *testing.T) {
	e := newEnv(t, true)
	ctx := context.Background()

	msgs, err := e.config.SetMessages(ctx, MessagesUpdate{OpeningMessage: strPtr("<b>Hi</b> &amp; welcome ")})
	require.NoError(t, err)
	assert.Equal(t, "Hi & welcome", msgs.OpeningMessage)
	assert.Equal(t, "Thanks", msgs.ClosingMessage)

	msgs, err = e.config.SetMessages(ctx, MessagesUpdate{ClosingMessage: strPtr("Bye")})
	require.NoError(t, err)
	assert.Equal(t, "Hi & welcome", msgs.OpeningMessage)
	assert.Equal(t, "Bye", msgs.ClosingMessage)

	_, err = e.config.SetMessages(ctx, MessagesUpdate{})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestConfigService_Programs(t *testing.T) {
	e := newEnv(t, true)
	ctx := context.Background()

	got, err := e.config.SetPrograms(ctx, []string{" Go ", "", "<i>Rust</i>"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Go", "Rust"}, got)

	stored, err := e.config.Programs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Go", "Rust"}, stored)

	_, err = e.config.SetPrograms(ctx, []string{"Go", "Go"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestConfigService_SectionEdits(t *testing.T) {
	e := newEnv(t, true)
	ctx := context.Background()
	org := models.SectionOrganizationInfo

	added, err := e.config.AddQuestion(ctx, org, models.Question{Label: "Sector", Type: models.Dropdown, Options: []string{"Public", "Private"}})
	require.NoError(t, err)
	assert.NotEmpty(t, added.ID)

	qs, err := e.config.Section(ctx, org)
	require.NoError(t, err)
	require.Len(t, qs, 3)
	assert.Equal(t, added.ID, qs[1].ID)
	assert.Equal(t, "fixed-nomination-count", qs[2].ID)

	_, err = e.config.EditQuestion(ctx, org, "fixed-nomination-count", models.Question{Label: "x", Type: models.Number})
	assert.ErrorIs(t, err, section.ErrImmutableQuestion)
	assert.ErrorIs(t, e.config.DeleteQuestion(ctx, org, "fixed-nomination-count"), section.ErrImmutableQuestion)
	assert.ErrorIs(t, e.config.DeleteQuestion(ctx, org, "missing"), section.ErrQuestionNotFound)
	_, err = e.config.MoveQuestion(ctx, org, 0, 2)
	assert.ErrorIs(t, err, section.ErrImmutableQuestion)
	_, err = e.config.MoveQuestion(ctx, org, 0, 7)
	assert.ErrorIs(t, err, section.ErrPositionOutOfRange)

	moved, err := e.config.MoveQuestion(ctx, org, 0, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{added.ID, "org-name", "fixed-nomination-count"}, ids(moved))

	edited, err := e.config.EditQuestion(ctx, org, added.ID, models.Question{Label: "Industry", Type: models.File})
	require.NoError(t, err)
	require.NotNil(t, edited.FileConfig)
	assert.Equal(t, float64(models.DefaultMaxSizeMB), edited.FileConfig.MaxSizeMB)
	assert.Empty(t, edited.Options)

	require.NoError(t, e.config.DeleteQuestion(ctx, org, added.ID))
	qs, err = e.config.Section(ctx, org)
	require.NoError(t, err)
	assert.Equal(t, []string{"org-name", "fixed-nomination-count"}, ids(qs))

	// Other sections are untouched by organization edits.
	user, err := e.config.Section(ctx, models.SectionUserInfo)
	require.NoError(t, err)
	assert.Len(t, user, 3)
}

func TestConfigService_ReplaceSection(t *testing.T) {
	e := newEnv(t, true)
	ctx := context.Background()
	general := models.SectionGeneralInfo

	out, err := e.config.ReplaceSection(ctx, general, []models.Question{
		{ID: "a", Label: "<script>x</script>Why us?", Type: models.LongText},
		{ID: "b", Label: "Start date", Type: models.Date, Required: true},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids(out))
	assert.Equal(t, "Why us?", out[0].Label)

	_, err = e.config.ReplaceSection(ctx, general, []models.Question{{ID: "a", Label: "A", Type: "slider"}})
	assert.ErrorIs(t, err, section.ErrInvalidSection)

	// The organization section must keep its immutable question last.
	_, err = e.config.ReplaceSection(ctx, models.SectionOrganizationInfo, []models.Question{
		{ID: "org-name", Label: "Organization Name", Type: models.ShortText, Required: true},
	})
	assert.ErrorIs(t, err, section.ErrImmutableQuestion)
}

func ids(qs []models.Question) []string {
	out := make([]string, len(qs))
	for i, q := range qs {
		out[i] = q.ID
	}
	return out
}
