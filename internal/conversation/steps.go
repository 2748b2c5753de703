package conversation

import (
	"strconv"
	"strings"

	"github.com/sylni/helpbot/internal/errs"
	"github.com/sylni/helpbot/internal/messages"
)

// Step is the intake question currently pending within form mode.
// Order matters: the form always advances forward through this sequence.
type Step int

const (
	StepName Step = iota
	StepAge
	StepLocation
	StepEventDetails
	StepHelpType
	StepDescription

	stepCount
)

// String returns the step name used in logs.
func (s Step) String() string {
	switch s {
	case StepName:
		return "name"
	case StepAge:
		return "age"
	case StepLocation:
		return "location"
	case StepEventDetails:
		return "event_details"
	case StepHelpType:
		return "help_type"
	case StepDescription:
		return "description"
	}
	return "unknown"
}

// Column returns the store column the step's answer is persisted to.
func (s Step) Column() string { return s.String() }

// Prompt returns the question text for the step.
func (s Step) Prompt() string {
	switch s {
	case StepName:
		return messages.AskName
	case StepAge:
		return messages.AskAge
	case StepLocation:
		return messages.AskLocation
	case StepEventDetails:
		return messages.AskEventDetails
	case StepHelpType:
		return messages.AskHelpType
	case StepDescription:
		return messages.AskDescription
	}
	return ""
}

// Next returns the following step; ok is false on the final step.
func (s Step) Next() (Step, bool) {
	if s+1 >= stepCount {
		return s, false
	}
	return s + 1, true
}

// Answers accumulates partial form data before it is committed.
// Zero values mean "not answered yet"; fields are only ever added going
// forward through the step order.
type Answers struct {
	Name         string
	Age          int
	Location     string
	EventDetails string
	HelpType     string
	Description  string
}

// Set records a validated answer for the step.
func (a *Answers) Set(s Step, value any) {
	switch s {
	case StepName:
		a.Name = value.(string)
	case StepAge:
		a.Age = value.(int)
	case StepLocation:
		a.Location = value.(string)
	case StepEventDetails:
		a.EventDetails = value.(string)
	case StepHelpType:
		a.HelpType = value.(string)
	case StepDescription:
		a.Description = value.(string)
	}
}

// FirstUnset returns the earliest step without an answer. It is only
// used when resuming after the continue prompt; the pending step itself
// is the primary dispatch value.
func (a Answers) FirstUnset() Step {
	switch {
	case a.Name == "":
		return StepName
	case a.Age == 0:
		return StepAge
	case a.Location == "":
		return StepLocation
	case a.EventDetails == "":
		return StepEventDetails
	case a.HelpType == "":
		return StepHelpType
	default:
		return StepDescription
	}
}

// validate checks raw input for the step and returns the typed value to
// persist. Age must parse as an integer in [1,120]; every other step
// requires non-empty text. Failed validation never changes state.
func (s Step) validate(text string) (any, error) {
	text = strings.TrimSpace(text)
	if s == StepAge {
		age, err := strconv.Atoi(text)
		if err != nil || age < 1 || age > 120 {
			return nil, &errs.ValidationError{Notice: messages.NeedAgeNumber}
		}
		return age, nil
	}
	if text == "" {
		return nil, &errs.ValidationError{Notice: s.emptyNotice()}
	}
	return text, nil
}

func (s Step) emptyNotice() string {
	switch s {
	case StepName:
		return messages.NeedNameText
	case StepLocation:
		return messages.NeedGeoText
	case StepEventDetails:
		return messages.NeedDetailsText
	case StepHelpType:
		return messages.NeedHelpText
	case StepDescription:
		return messages.NeedDescText
	}
	return messages.NeedText
}
