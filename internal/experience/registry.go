package experience

import "encoding/json"

// StepDefinition supplies per-type metadata the runtime and the outcome
// validator need: whether a step belongs to the capture category, whether it
// is always satisfiable, and the predicate deciding when a stored response
// counts as an answer.
type StepDefinition struct {
	Type  StepType
	Label string
	// Capture marks step types that acquire a photo via camera or picker.
	Capture bool
	// AlwaysSatisfied marks step types that never block sequencer progress.
	AlwaysSatisfied bool
	// ComingSoon marks announced-but-unimplemented step types. They behave
	// like informational steps at runtime so authored drafts still play.
	ComingSoon bool
	// Answered decides whether the stored response satisfies the step.
	// Nil for always-satisfied types.
	Answered func(Response) bool
	// DefaultConfig seeds the editor when a step of this type is added.
	DefaultConfig json.RawMessage
}

var definitions = []StepDefinition{
	{
		Type:            StepInfo,
		Label:           "Information",
		AlwaysSatisfied: true,
	},
	{
		Type:     StepYesNo,
		Label:    "Yes / No",
		Answered: func(r Response) bool { return r.Kind == ResponseBool },
	},
	{
		Type:          StepScale,
		Label:         "Scale",
		Answered:      func(r Response) bool { return r.Kind == ResponseScalar },
		DefaultConfig: json.RawMessage(`{"min":1,"max":5}`),
	},
	{
		Type:     StepText,
		Label:    "Text Answer",
		Answered: func(r Response) bool { return r.Kind == ResponseText && r.hasText() },
	},
	{
		Type:          StepMultiSelect,
		Label:         "Multiple Choice",
		Answered:      func(r Response) bool { return r.Kind == ResponseOptions && r.hasOptions() },
		DefaultConfig: json.RawMessage(`{"options":[]}`),
	},
	{
		Type:          StepPhoto,
		Label:         "Photo Capture",
		Capture:       true,
		Answered:      func(r Response) bool { return r.Kind == ResponseMedia && r.hasMedia() },
		DefaultConfig: json.RawMessage(`{"aspect":"3:4","facing":"front"}`),
	},
	{
		Type:            StepSignature,
		Label:           "Signature",
		Capture:         true,
		AlwaysSatisfied: true,
		ComingSoon:      true,
	},
}

var definitionIndex = func() map[StepType]StepDefinition {
	index := make(map[StepType]StepDefinition, len(definitions))
	for _, def := range definitions {
		index[def.Type] = def
	}
	return index
}()

// Definitions lists all registered step types in declaration order.
func Definitions() []StepDefinition {
	out := make([]StepDefinition, len(definitions))
	copy(out, definitions)
	return out
}

// Lookup returns the definition for a step type.
func Lookup(t StepType) (StepDefinition, bool) {
	def, ok := definitionIndex[t]
	return def, ok
}

// Satisfied reports whether the response fulfills the step's answered
// predicate. Unknown step types are treated as always satisfied so a newer
// authoring tool cannot wedge an older runtime.
func Satisfied(step Step, r Response) bool {
	def, ok := Lookup(step.Type)
	if !ok || def.AlwaysSatisfied || def.Answered == nil {
		return true
	}
	return def.Answered(r)
}
