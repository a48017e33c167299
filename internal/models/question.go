package models

// QuestionType names the input kind of a question as stored in the
// configuration document.
type QuestionType string

const (
	ShortText      QuestionType = "shortText"
	LongText       QuestionType = "longText"
	MultipleChoice QuestionType = "multipleChoice"
	Checkboxes     QuestionType = "checkboxes"
	Dropdown       QuestionType = "dropdown"
	Number         QuestionType = "number"
	Email          QuestionType = "email"
	Date           QuestionType = "date"
	File           QuestionType = "file"
)

// DefaultMaxSizeMB is applied to file questions saved without a size limit.
const DefaultMaxSizeMB = 5

// QuestionTypeInfo describes a question type for the admin editor.
type QuestionTypeInfo struct {
	Value        QuestionType `json:"value"`
	Label        string       `json:"label"`
	NeedsOptions bool         `json:"needsOptions"`
}

var questionTypes = []QuestionTypeInfo{
	{Value: ShortText, Label: "Short Answer"},
	{Value: LongText, Label: "Paragraph"},
	{Value: MultipleChoice, Label: "Multiple Choice", NeedsOptions: true},
	{Value: Checkboxes, Label: "Checkboxes", NeedsOptions: true},
	{Value: Dropdown, Label: "Dropdown", NeedsOptions: true},
	{Value: Number, Label: "Number"},
	{Value: Email, Label: "Email"},
	{Value: Date, Label: "Date"},
	{Value: File, Label: "File Upload"},
}

// QuestionTypes returns the catalogue of supported types in editor order.
func QuestionTypes() []QuestionTypeInfo {
	out := make([]QuestionTypeInfo, len(questionTypes))
	copy(out, questionTypes)
	return out
}

// Valid reports whether t is one of the nine recognized types.
func (t QuestionType) Valid() bool {
	for _, info := range questionTypes {
		if info.Value == t {
			return true
		}
	}
	return false
}

// NeedsOptions reports whether answers are picked from Question.Options.
func (t QuestionType) NeedsOptions() bool {
	return t == MultipleChoice || t == Checkboxes || t == Dropdown
}

// FileExtensions lists the extensions the admin editor offers for file questions.
var FileExtensions = []string{"pdf", "jpg", "png", "docx"}

// FileConfig constrains uploads for a file question.
type FileConfig struct {
	AllowedTypes []string `json:"allowedTypes"`
	MaxSizeMB    float64  `json:"maxSizeMB"`
}

// Question is one form field inside a section.
type Question struct {
	ID         string       `json:"id"`
	Label      string       `json:"label"`
	Type       QuestionType `json:"type"`
	Required   bool         `json:"required"`
	Options    []string     `json:"options"`
	FileConfig *FileConfig  `json:"fileConfig,omitempty"`
	Immutable  bool         `json:"immutable,omitempty"`
}

// Clone returns a deep copy of q.
func (q Question) Clone() Question {
	out := q
	if q.Options != nil {
		out.Options = append([]string(nil), q.Options...)
	}
	if q.FileConfig != nil {
		fc := *q.FileConfig
		fc.AllowedTypes = append([]string(nil), q.FileConfig.AllowedTypes...)
		out.FileConfig = &fc
	}
	return out
}

// CloneQuestions deep-copies a question list.
func CloneQuestions(qs []Question) []Question {
	if qs == nil {
		return nil
	}
	out := make([]Question, len(qs))
	for i, q := range qs {
		out[i] = q.Clone()
	}
	return out
}
