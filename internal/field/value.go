package field

// Value is a decoded answer. A nil Value means the question is unanswered.
type Value interface {
	Empty() bool
	// Raw returns the JSON-ready form stored in the answer record.
	Raw() any
}

// Text answers shortText, longText, email, number and date questions.
// Numbers are kept as entered so that partial input survives editing.
type Text string

func (t Text) Empty() bool { return t == "" }
func (t Text) Raw() any    { return string(t) }

// Choice answers multipleChoice and dropdown questions.
type Choice string

func (c Choice) Empty() bool { return c == "" }
func (c Choice) Raw() any    { return string(c) }

// Choices answers checkboxes questions.
type Choices []string

func (c Choices) Empty() bool { return len(c) == 0 }
func (c Choices) Raw() any    { return []string(c) }

// FileRef is the locator returned by the upload store.
type FileRef string

func (f FileRef) Empty() bool { return f == "" }
func (f FileRef) Raw() any    { return string(f) }

// IsEmpty treats a nil Value as empty.
func IsEmpty(v Value) bool {
	return v == nil || v.Empty()
}
