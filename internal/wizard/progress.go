package wizard

import "fmt"

// ProgressItem is one entry of the step indicator.
type ProgressItem struct {
	Label  string `json:"label"`
	Active bool   `json:"active"`
	Done   bool   `json:"done"`
}

// Progress is derived from the flow on every call and never stored.
type Progress struct {
	Percent int            `json:"percent"`
	Items   []ProgressItem `json:"items"`
}

// Progress returns the step indicator, or nil on INTRO and SUCCESS where no
// indicator is shown. The participant loop counts as a single position.
func (f *Flow) Progress() *Progress {
	pos, ok := f.position()
	if !ok {
		return nil
	}
	labels := f.progressLabels()
	items := make([]ProgressItem, len(labels))
	for i, l := range labels {
		items[i] = ProgressItem{Label: l, Active: i == pos, Done: i < pos}
	}
	return &Progress{
		Percent: (pos + 1) * 100 / len(labels),
		Items:   items,
	}
}

func (f *Flow) position() (int, bool) {
	org := f.record.IsOrganization()
	switch f.step {
	case StepNature:
		return 0, true
	case StepOrganization:
		return 1, true
	case StepPrograms:
		if org {
			return 2, true
		}
		return 1, true
	case StepUserInfo:
		return 2, true
	case StepGeneral:
		return 3, true
	}
	return 0, false
}

func (f *Flow) progressLabels() []string {
	if f.record.IsOrganization() {
		loop := fmt.Sprintf("Participant Details (%d/%d)", f.loop.index+1, f.loop.total)
		return []string{"Nature", "Organization", loop, "General Information"}
	}
	return []string{"Nature", "Program Selection", "Personal Details", "General Information"}
}
