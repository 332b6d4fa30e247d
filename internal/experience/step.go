package experience

import (
	"encoding/json"
	"strings"
)

// StepType identifies the behavior of a step within an experience.
type StepType string

const (
	StepInfo        StepType = "info"
	StepYesNo       StepType = "input.yesNo"
	StepScale       StepType = "input.scale"
	StepText        StepType = "input.text"
	StepMultiSelect StepType = "input.multiSelect"
	StepPhoto       StepType = "capture.photo"
	// StepSignature is announced in the editor but not implemented yet.
	StepSignature StepType = "capture.signature"
)

// Step is a single unit in an experience sequence. Steps are immutable once a
// runtime session starts; array position defines sequence order.
type Step struct {
	ID     string          `json:"id"`
	Type   StepType        `json:"type"`
	Title  string          `json:"title,omitempty"`
	Config json.RawMessage `json:"config,omitempty"`
}

// FindStep returns the step with the given id, or false when no such step
// exists in the list.
func FindStep(steps []Step, id string) (Step, bool) {
	id = strings.TrimSpace(id)
	for _, step := range steps {
		if step.ID == id {
			return step, true
		}
	}
	return Step{}, false
}

// IsCaptureStep reports whether the step with the given id exists in the list
// and belongs to the capture category per the step-type registry.
func IsCaptureStep(steps []Step, id string) bool {
	step, ok := FindStep(steps, id)
	if !ok {
		return false
	}
	def, ok := Lookup(step.Type)
	return ok && def.Capture
}
