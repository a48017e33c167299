// Package field interprets question schemas: it decodes raw answers into
// typed values, renders input descriptors and validates answers per type.
//
// Each of the nine question types has its own Field implementation,
// selected once by New. Callers never switch on the type string.
package field

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/parisxmas/OxiEnroll/internal/models"
)

var ErrUnknownType = errors.New("unknown question type")

// Widget is the input affordance a client should show for a question.
type Widget string

const (
	WidgetText     Widget = "text"
	WidgetTextarea Widget = "textarea"
	WidgetEmail    Widget = "email"
	WidgetNumber   Widget = "number"
	WidgetDate     Widget = "date"
	WidgetRadio    Widget = "radio"
	WidgetCheckbox Widget = "checkbox"
	WidgetSelect   Widget = "select"
	WidgetFile     Widget = "file"
)

const (
	adviceEmail  = "Please enter a valid email address."
	adviceNumber = "Please enter a valid number."
	adviceDate   = "Please enter a valid date (YYYY-MM-DD)."
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Field is the typed interpretation of one question.
type Field interface {
	Question() models.Question
	Widget() Widget
	// Decode converts a raw JSON answer into the type's value. A nil raw
	// value decodes to a nil Value.
	Decode(raw any) (Value, error)
	// Advise returns an inline message for a non-empty value that looks
	// wrong. Advice never blocks editing or navigation.
	Advise(v Value) string
	// Check rejects a non-empty value that cannot be submitted.
	Check(v Value) error
}

// New returns the Field for q's type.
func New(q models.Question) (Field, error) {
	b := base{q: q}
	switch q.Type {
	case models.ShortText:
		return textField{base: b, widget: WidgetText}, nil
	case models.LongText:
		return textField{base: b, widget: WidgetTextarea}, nil
	case models.Email:
		return emailField{b}, nil
	case models.Number:
		return numberField{b}, nil
	case models.Date:
		return dateField{b}, nil
	case models.MultipleChoice:
		return choiceField{base: b, widget: WidgetRadio}, nil
	case models.Dropdown:
		return choiceField{base: b, widget: WidgetSelect}, nil
	case models.Checkboxes:
		return checkboxesField{b}, nil
	case models.File:
		return fileField{b}, nil
	}
	return nil, fmt.Errorf("%w %q (question %s)", ErrUnknownType, q.Type, q.ID)
}

type base struct {
	q models.Question
}

func (b base) Question() models.Question { return b.q }
func (b base) Advise(Value) string       { return "" }
func (b base) Check(Value) error         { return nil }

type textField struct {
	base
	widget Widget
}

func (f textField) Widget() Widget { return f.widget }

func (f textField) Decode(raw any) (Value, error) { return decodeText(raw) }

type emailField struct{ base }

func (emailField) Widget() Widget { return WidgetEmail }

func (emailField) Decode(raw any) (Value, error) { return decodeText(raw) }

func (emailField) Advise(v Value) string {
	if s, ok := v.(Text); ok && s != "" && !emailPattern.MatchString(string(s)) {
		return adviceEmail
	}
	return ""
}

type numberField struct{ base }

func (numberField) Widget() Widget { return WidgetNumber }

func (numberField) Decode(raw any) (Value, error) {
	if n, ok := raw.(float64); ok {
		return Text(strconv.FormatFloat(n, 'f', -1, 64)), nil
	}
	return decodeText(raw)
}

func (numberField) Advise(v Value) string {
	if s, ok := v.(Text); ok && s != "" {
		if _, err := strconv.ParseFloat(string(s), 64); err != nil {
			return adviceNumber
		}
	}
	return ""
}

type dateField struct{ base }

func (dateField) Widget() Widget { return WidgetDate }

func (dateField) Decode(raw any) (Value, error) { return decodeText(raw) }

func (dateField) Advise(v Value) string {
	if s, ok := v.(Text); ok && s != "" {
		if _, err := time.Parse(time.DateOnly, string(s)); err != nil {
			return adviceDate
		}
	}
	return ""
}

type choiceField struct {
	base
	widget Widget
}

func (f choiceField) Widget() Widget { return f.widget }

func (choiceField) Decode(raw any) (Value, error) {
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case string:
		return Choice(v), nil
	}
	return nil, fmt.Errorf("expected a single option, got %T", raw)
}

func (f choiceField) Check(v Value) error {
	c, ok := v.(Choice)
	if !ok || c == "" {
		return nil
	}
	if !contains(f.q.Options, string(c)) {
		return fmt.Errorf("%q is not one of the options", string(c))
	}
	return nil
}

type checkboxesField struct{ base }

func (checkboxesField) Widget() Widget { return WidgetCheckbox }

func (checkboxesField) Decode(raw any) (Value, error) {
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case []string:
		return dedupe(v), nil
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("expected option strings, got %T", item)
			}
			out = append(out, s)
		}
		return dedupe(out), nil
	}
	return nil, fmt.Errorf("expected a list of options, got %T", raw)
}

func (f checkboxesField) Check(v Value) error {
	cs, ok := v.(Choices)
	if !ok {
		return nil
	}
	for _, c := range cs {
		if !contains(f.q.Options, c) {
			return fmt.Errorf("%q is not one of the options", c)
		}
	}
	return nil
}

type fileField struct{ base }

func (fileField) Widget() Widget { return WidgetFile }

func (fileField) Decode(raw any) (Value, error) {
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case string:
		return FileRef(v), nil
	}
	return nil, fmt.Errorf("expected a file locator, got %T", raw)
}

func decodeText(raw any) (Value, error) {
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case string:
		return Text(v), nil
	}
	return nil, fmt.Errorf("expected text, got %T", raw)
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}

func dedupe(in []string) Choices {
	seen := make(map[string]bool, len(in))
	out := make(Choices, 0, len(in))
	for _, s := range in {
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
