package enrollment

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/parisxmas/OxiEnroll/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecord_SelfSubmission(t *testing.T) {
	r := NewRecord()
	r.SetNature(models.NatureSelf)
	r.SetProgram(0, "Data Analytics")
	r.MergeParticipant(0, map[string]any{"name": "Ada"})
	r.MergeGeneral(map[string]any{"heard": "Friend"})

	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	sub := r.Submission(now)

	assert.Equal(t, models.NatureSelf, sub.EnrollmentNature)
	assert.Equal(t, models.StatusPending, sub.Status)
	assert.Equal(t, "2026-03-01T10:00:00Z", sub.SubmittedAt)
	assert.Empty(t, sub.OrganizationInfo.Answers)
	require.Len(t, sub.Participants, 1)
	assert.Equal(t, "Data Analytics", sub.Participants[0].Program)
	assert.Equal(t, "Ada", sub.Participants[0].Answers["name"])
	assert.Equal(t, "Friend", sub.GeneralInfo["heard"])
}

func TestRecord_OrganizationSubmission(t *testing.T) {
	r := NewRecord()
	r.SetNature(models.NatureOrganization)
	r.MergeOrganization(map[string]any{"org-name": "Acme", "fixed-nomination-count": "2"})
	r.SetParticipantCount(2)
	for i, name := range []string{"Ada", "Grace"} {
		r.SetProgram(i, "AI")
		r.MergeParticipant(i, map[string]any{"name": name})
	}

	sub := r.Submission(time.Now())
	assert.Equal(t, 2, sub.OrganizationInfo.ParticipantCount)
	assert.Equal(t, "Acme", sub.OrganizationInfo.Answers["org-name"])
	require.Len(t, sub.Participants, 2)
	assert.Equal(t, "Grace", sub.Participants[1].Answers["name"])

	data, err := json.Marshal(sub)
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	org := doc["organizationInfo"].(map[string]any)
	assert.Equal(t, 2.0, org["participantCount"])
	assert.Equal(t, "Acme", org["org-name"])
	parts := doc["participants"].([]any)
	assert.Equal(t, "AI", parts[0].(map[string]any)["program"])
	assert.Equal(t, "Ada", parts[0].(map[string]any)["name"])
}

func TestRecord_LoweringCountTrimsParticipants(t *testing.T) {
	r := NewRecord()
	r.SetNature(models.NatureOrganization)
	r.SetParticipantCount(3)
	for i := 0; i < 3; i++ {
		r.SetProgram(i, "AI")
	}
	r.SetParticipantCount(1)
	assert.Equal(t, 1, r.TotalParticipants())
	assert.Len(t, r.Submission(time.Now()).Participants, 1)
}

func TestRecord_SnapshotIsDetached(t *testing.T) {
	r := NewRecord()
	r.SetNature(models.NatureSelf)
	r.MergeGeneral(map[string]any{"topics": []string{"a"}})
	sub := r.Submission(time.Now())

	r.MergeGeneral(map[string]any{"topics": []string{"b"}})
	assert.Equal(t, []string{"a"}, sub.GeneralInfo["topics"])
}

func TestRecord_Reset(t *testing.T) {
	r := NewRecord()
	r.SetNature(models.NatureOrganization)
	r.MergeOrganization(map[string]any{"org-name": "Acme"})
	r.SetParticipantCount(2)
	r.SetProgram(1, "AI")
	r.MergeGeneral(map[string]any{"x": "y"})

	r.Reset()
	assert.Empty(t, r.Nature())
	assert.Empty(t, r.Organization())
	assert.Empty(t, r.General())
	assert.Equal(t, 0, r.ParticipantCount())
	assert.Empty(t, r.Submission(time.Now()).Participants)
}

func TestRecord_MergeNilClears(t *testing.T) {
	r := NewRecord()
	r.MergeGeneral(map[string]any{"x": "y"})
	r.MergeGeneral(map[string]any{"x": nil})
	assert.NotContains(t, r.General(), "x")
}
