package field

import (
	"strings"

	"github.com/parisxmas/OxiEnroll/internal/models"
)

// Input is the rendered descriptor of one question plus its current state.
type Input struct {
	ID        string   `json:"id"`
	Label     string   `json:"label"`
	Type      string   `json:"type"`
	Widget    Widget   `json:"widget"`
	Required  bool     `json:"required"`
	Options   []string `json:"options,omitempty"`
	Accept    []string `json:"accept,omitempty"`
	MaxSizeMB float64  `json:"maxSizeMB,omitempty"`
	Value     any      `json:"value,omitempty"`
	Advisory  string   `json:"advisory,omitempty"`
	Invalid   string   `json:"invalid,omitempty"`
	Missing   bool     `json:"missing,omitempty"`
	Uploading bool     `json:"uploading,omitempty"`
	Locked    bool     `json:"locked,omitempty"`
}

// RenderState carries the per-step flags that affect rendering.
type RenderState struct {
	// HighlightEmpty is set after a submit attempt so that every empty
	// required field is flagged.
	HighlightEmpty bool
	Uploading      func(questionID string) bool
}

// Report is the result of a submit-time check of one step.
type Report struct {
	Missing []string          `json:"missing,omitempty"`
	Invalid map[string]string `json:"invalid,omitempty"`
}

func (r Report) OK() bool {
	return len(r.Missing) == 0 && len(r.Invalid) == 0
}

// Form is an ordered set of fields built from a section's questions.
type Form struct {
	fields []Field
}

// NewForm builds fields for every question. An unknown type fails the whole
// form rather than silently dropping the question.
func NewForm(qs []models.Question) (*Form, error) {
	fields := make([]Field, 0, len(qs))
	for _, q := range qs {
		f, err := New(q)
		if err != nil {
			return nil, err
		}
		fields = append(fields, f)
	}
	return &Form{fields: fields}, nil
}

// Advise runs the on-change checks. Shape errors are reported as advice too,
// so a malformed value never stops the user from continuing to type.
func (f *Form) Advise(answers map[string]any) map[string]string {
	out := map[string]string{}
	for _, fl := range f.fields {
		id := fl.Question().ID
		raw, ok := answers[id]
		if !ok {
			continue
		}
		v, err := fl.Decode(raw)
		if err != nil {
			out[id] = err.Error()
			continue
		}
		if msg := fl.Advise(v); msg != "" {
			out[id] = msg
		}
	}
	return out
}

// Validate runs the submit-time checks: required fields must be non-empty and
// choice answers must come from the question's options.
func (f *Form) Validate(answers map[string]any) Report {
	var r Report
	for _, fl := range f.fields {
		q := fl.Question()
		v, err := fl.Decode(answers[q.ID])
		if err != nil {
			r.invalid(q.ID, err.Error())
			continue
		}
		if IsEmpty(v) {
			if q.Required {
				r.Missing = append(r.Missing, q.ID)
			}
			continue
		}
		if err := fl.Check(v); err != nil {
			r.invalid(q.ID, err.Error())
		}
	}
	return r
}

// Normalize decodes every known answer and returns the JSON-ready values.
// Unknown ids and undecodable values are dropped.
func (f *Form) Normalize(answers map[string]any) map[string]any {
	out := make(map[string]any, len(answers))
	for _, fl := range f.fields {
		id := fl.Question().ID
		raw, ok := answers[id]
		if !ok {
			continue
		}
		v, err := fl.Decode(raw)
		if err != nil || v == nil {
			continue
		}
		out[id] = v.Raw()
	}
	return out
}

// Render produces input descriptors for every field with its current value.
func (f *Form) Render(answers map[string]any, st RenderState) []Input {
	report := Report{}
	if st.HighlightEmpty {
		report = f.Validate(answers)
	}
	advice := f.Advise(answers)

	inputs := make([]Input, 0, len(f.fields))
	for _, fl := range f.fields {
		q := fl.Question()
		in := Input{
			ID:       q.ID,
			Label:    q.Label,
			Type:     string(q.Type),
			Widget:   fl.Widget(),
			Required: q.Required,
			Value:    answers[q.ID],
			Advisory: advice[q.ID],
			Locked:   q.Immutable,
		}
		if q.Type.NeedsOptions() {
			in.Options = q.Options
		}
		if q.Type == models.File && q.FileConfig != nil {
			in.Accept = acceptList(q.FileConfig.AllowedTypes)
			in.MaxSizeMB = q.FileConfig.MaxSizeMB
		}
		if st.HighlightEmpty {
			in.Missing = containsID(report.Missing, q.ID)
			in.Invalid = report.Invalid[q.ID]
		}
		if st.Uploading != nil {
			in.Uploading = st.Uploading(q.ID)
		}
		inputs = append(inputs, in)
	}
	return inputs
}

func (r *Report) invalid(id, msg string) {
	if r.Invalid == nil {
		r.Invalid = map[string]string{}
	}
	r.Invalid[id] = msg
}

func acceptList(exts []string) []string {
	out := make([]string, 0, len(exts))
	for _, e := range exts {
		e = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(e)), ".")
		if e != "" {
			out = append(out, "."+e)
		}
	}
	return out
}

func containsID(ids []string, id string) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}
