// Package enrollment accumulates the answers of one wizard session into a
// single record that is submitted once at the end of the flow.
package enrollment

import (
	"time"

	"github.com/parisxmas/OxiEnroll/internal/models"
)

// Record is the in-progress answer record of one session. It is not safe for
// concurrent use; the owning session serialises access.
type Record struct {
	nature           string
	organization     map[string]any
	participantCount int
	participants     []models.Participant
	general          map[string]any
}

func NewRecord() *Record {
	r := &Record{}
	r.Reset()
	return r
}

// Reset clears every answer, including the enrollment nature.
func (r *Record) Reset() {
	r.nature = ""
	r.organization = map[string]any{}
	r.participantCount = 0
	r.participants = nil
	r.general = map[string]any{}
}

func (r *Record) Nature() string { return r.nature }

func (r *Record) SetNature(nature string) { r.nature = nature }

func (r *Record) IsOrganization() bool {
	return r.nature == models.NatureOrganization
}

// TotalParticipants is the participant count for organization enrollments
// and 1 otherwise.
func (r *Record) TotalParticipants() int {
	if r.IsOrganization() && r.participantCount > 1 {
		return r.participantCount
	}
	return 1
}

func (r *Record) ParticipantCount() int { return r.participantCount }

func (r *Record) Organization() map[string]any { return r.organization }

// MergeOrganization overlays answers onto the organization section.
func (r *Record) MergeOrganization(answers map[string]any) {
	merge(r.organization, answers)
}

// SetParticipantCount records the nominated count and drops entries for
// participants beyond it.
func (r *Record) SetParticipantCount(n int) {
	r.participantCount = n
	if n >= 1 && len(r.participants) > n {
		r.participants = r.participants[:n]
	}
}

// Participant returns the record for participant i, creating it if needed.
func (r *Record) Participant(i int) *models.Participant {
	for len(r.participants) <= i {
		r.participants = append(r.participants, models.Participant{Answers: map[string]any{}})
	}
	p := &r.participants[i]
	if p.Answers == nil {
		p.Answers = map[string]any{}
	}
	return p
}

func (r *Record) SetProgram(i int, program string) {
	r.Participant(i).Program = program
}

func (r *Record) MergeParticipant(i int, answers map[string]any) {
	merge(r.Participant(i).Answers, answers)
}

func (r *Record) General() map[string]any { return r.general }

func (r *Record) MergeGeneral(answers map[string]any) {
	merge(r.general, answers)
}

// Submission snapshots the record into the document written to the store.
// Self-sponsored records carry no organization section.
func (r *Record) Submission(now time.Time) models.Submission {
	sub := models.Submission{
		EnrollmentNature: r.nature,
		OrganizationInfo: models.OrganizationInfo{Answers: map[string]any{}},
		Participants:     make([]models.Participant, 0, r.TotalParticipants()),
		GeneralInfo:      copyMap(r.general),
		SubmittedAt:      now.UTC().Format(time.RFC3339),
		Status:           models.StatusPending,
	}
	if r.IsOrganization() {
		sub.OrganizationInfo = models.OrganizationInfo{
			Answers:          copyMap(r.organization),
			ParticipantCount: r.participantCount,
		}
	}
	for i := 0; i < r.TotalParticipants() && i < len(r.participants); i++ {
		p := r.participants[i]
		sub.Participants = append(sub.Participants, models.Participant{
			Program: p.Program,
			Answers: copyMap(p.Answers),
		})
	}
	return sub
}

func merge(dst, src map[string]any) {
	for k, v := range src {
		if v == nil {
			delete(dst, k)
			continue
		}
		dst[k] = v
	}
}

func copyMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		if list, ok := v.([]string); ok {
			v = append([]string(nil), list...)
		}
		out[k] = v
	}
	return out
}
