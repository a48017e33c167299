package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/parisxmas/OxiEnroll/internal/db"
	"github.com/parisxmas/OxiEnroll/internal/models"
	"github.com/parisxmas/OxiEnroll/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seededConfigRepo(t *testing.T) *ConfigRepo {
	t.Helper()
	r := NewConfigRepo(testutil.NewTestStore(t))
	ctx := context.Background()
	require.NoError(t, r.EnsureIndexes(ctx))
	_, err := r.Create(ctx, testutil.Config())
	require.NoError(t, err)
	return r
}

func TestConfigRepo_LoadMissing(t *testing.T) {
	r := NewConfigRepo(testutil.NewTestStore(t))
	_, err := r.Load(context.Background())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestConfigRepo_SingleDocument(t *testing.T) {
	r := seededConfigRepo(t)
	_, err := r.Create(context.Background(), testutil.Config())
	assert.ErrorIs(t, err, db.ErrDuplicate)
}

func TestConfigRepo_SectionRoundTrip(t *testing.T) {
	r := seededConfigRepo(t)
	ctx := context.Background()

	qs := []models.Question{
		{ID: "b", Label: "B", Type: models.Checkboxes, Required: true, Options: []string{"x", "y"}},
		{ID: "a", Label: "A", Type: models.File, Options: []string{}, FileConfig: &models.FileConfig{AllowedTypes: []string{"pdf", "png"}, MaxSizeMB: 2.5}},
		{ID: "fixed-nomination-count", Label: "How many?", Type: models.Number, Required: true, Options: []string{}, Immutable: true},
	}
	require.NoError(t, r.SetSectionQuestions(ctx, models.SectionOrganizationInfo, qs))

	cfg, err := r.Load(ctx)
	require.NoError(t, err)
	if diff := cmp.Diff(qs, cfg.Sections.OrganizationInfo.Questions); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
	// Other sections are untouched.
	assert.Equal(t, testutil.Config().Sections.UserInfo, cfg.Sections.UserInfo)
}

func TestConfigRepo_FieldUpdates(t *testing.T) {
	r := seededConfigRepo(t)
	ctx := context.Background()

	require.NoError(t, r.SetOpeningMessage(ctx, "Hello"))
	require.NoError(t, r.SetPrograms(ctx, []string{"Go"}))

	cfg, err := r.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Hello", cfg.OpeningMessage)
	assert.Equal(t, "Thanks", cfg.ClosingMessage)
	assert.Equal(t, []string{"Go"}, cfg.Programs())
	assert.NotEmpty(t, cfg.ID)

	require.NoError(t, r.SetClosingMessage(ctx, "Bye"))
	next := testutil.Config()
	next.OpeningMessage = "Reset"
	require.NoError(t, r.Overwrite(ctx, next))
	cfg, err = r.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Reset", cfg.OpeningMessage)
	assert.Equal(t, "Thanks", cfg.ClosingMessage)
	assert.Equal(t, testutil.Programs, cfg.Programs())
}

func TestSubmissionRepo(t *testing.T) {
	r := NewSubmissionRepo(testutil.NewTestStore(t))
	ctx := context.Background()
	require.NoError(t, r.EnsureIndexes(ctx))

	base := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	for i, nature := range []string{models.NatureSelf, models.NatureOrganization, models.NatureSelf} {
		sub := &models.Submission{
			EnrollmentNature: nature,
			OrganizationInfo: models.OrganizationInfo{Answers: map[string]any{}},
			Participants:     []models.Participant{{Program: "AI", Answers: map[string]any{"full-name": "P"}}},
			GeneralInfo:      map[string]any{},
			SubmittedAt:      base.Add(time.Duration(i) * time.Hour).Format(time.RFC3339),
			Status:           models.StatusPending,
		}
		if nature == models.NatureOrganization {
			sub.OrganizationInfo = models.OrganizationInfo{Answers: map[string]any{"org-name": "Acme"}, ParticipantCount: 1}
		}
		_, err := r.Create(ctx, sub)
		require.NoError(t, err)
	}

	page, total, err := r.FindAll(ctx, 0, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, page, 2)
	assert.Equal(t, "2026-05-01T11:00:00Z", page[0].SubmittedAt)
	assert.Equal(t, models.NatureOrganization, page[1].EnrollmentNature)
	assert.Equal(t, 1, page[1].OrganizationInfo.ParticipantCount)
	assert.Equal(t, "Acme", page[1].OrganizationInfo.Answers["org-name"])

	got, err := r.FindByID(ctx, page[1].ID)
	require.NoError(t, err)
	assert.Equal(t, "AI", got.Participants[0].Program)

	_, err = r.FindByID(ctx, "999")
	assert.ErrorIs(t, err, ErrNotFound)

	n, err := r.Count(ctx, models.NatureSelf)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestUserRepo(t *testing.T) {
	r := NewUserRepo(testutil.NewTestStore(t))
	ctx := context.Background()
	require.NoError(t, r.EnsureIndexes(ctx))

	u := &models.User{Username: "admin", PasswordHash: "h1", Role: models.RoleAdmin, CreatedAt: "2026-01-01T00:00:00Z"}
	id, err := r.Create(ctx, u)
	require.NoError(t, err)

	_, err = r.Create(ctx, u)
	assert.ErrorIs(t, err, db.ErrDuplicate)

	require.NoError(t, r.SetPasswordHash(ctx, "admin", "h2"))
	got, err := r.FindByUsername(ctx, "admin")
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)
	assert.Equal(t, "h2", got.PasswordHash)

	_, err = r.FindByUsername(ctx, "nobody")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUploadRepo(t *testing.T) {
	r := NewUploadRepo(testutil.NewTestStore(t))
	ctx := context.Background()
	require.NoError(t, r.EnsureIndexes(ctx))

	u := &models.Upload{FileName: "cv.pdf", ContentType: "application/pdf", Size: 4, BlobKey: uuid.NewString(), QuestionID: "cv"}
	id, err := r.Create(ctx, u, []byte("%PDF"))
	require.NoError(t, err)
	u.ID = id
	assert.Equal(t, "/api/v1/uploads/"+u.BlobKey, u.Locator())

	meta, data, err := r.Open(ctx, u.BlobKey)
	require.NoError(t, err)
	assert.Equal(t, "cv.pdf", meta.FileName)
	assert.Equal(t, []byte("%PDF"), data)

	_, _, err = r.Open(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)
	_, _, err = r.Open(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)
}
