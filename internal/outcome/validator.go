package outcome

import (
	"fmt"
	"strings"

	"docent/internal/experience"
)

// ValidationError describes one structural problem in an outcome config.
// Field is a dotted path into the config; StepID is set when the error
// concerns a referenced step.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	StepID  string `json:"step_id,omitempty"`
}

// Result is the accumulated outcome of a validation pass. Publishing is
// blocked while any error is present.
type Result struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

// Validate checks the outcome config against the step list. Errors are never
// thrown; they accumulate into an order-stable list for batch display.
func Validate(cfg experience.OutcomeConfig, steps []experience.Step) Result {
	v := &visit{steps: steps}

	if experience.ComingSoonOutcome(cfg.Type) {
		// Coming-soon formats fail on type alone; other fields are moot.
		v.add("type", fmt.Sprintf("%s output is not available yet", outcomeLabel(cfg.Type)), "")
		return v.result()
	}

	switch cfg.Type {
	case experience.OutcomeSurvey:
		// Survey outcomes have no generation fields.
	case experience.OutcomePhoto:
		var photo experience.PhotoOutcome
		if cfg.Photo != nil {
			photo = *cfg.Photo
		}
		v.checkCaptureStep("photo.captureStepId", photo.CaptureStepID, true)
	case experience.OutcomeAIImage:
		var ai experience.AIImageOutcome
		if cfg.AIImage != nil {
			ai = *cfg.AIImage
		}
		v.checkCaptureStep("aiImage.captureStepId", ai.CaptureStepID, ai.Task.RequiresSource())
		v.checkGeneration("aiImage.imageGeneration", cfg.Type, ai.ImageGeneration)
	case experience.OutcomeAIVideo:
		var ai experience.AIVideoOutcome
		if cfg.AIVideo != nil {
			ai = *cfg.AIVideo
		}
		v.checkCaptureStep("aiVideo.captureStepId", ai.CaptureStepID, ai.Task.RequiresSource())
		// Start and end frame generators are independent blocks; a violation
		// in one never affects the other.
		if ai.StartFrame != nil {
			v.checkGeneration("aiVideo.startFrame", cfg.Type, *ai.StartFrame)
		}
		if ai.EndFrame != nil {
			v.checkGeneration("aiVideo.endFrame", cfg.Type, *ai.EndFrame)
		}
	default:
		v.add("type", fmt.Sprintf("unknown output type %q", string(cfg.Type)), "")
	}

	return v.result()
}

type visit struct {
	steps  []experience.Step
	errors []ValidationError
}

func (v *visit) add(field, message, stepID string) {
	v.errors = append(v.errors, ValidationError{Field: field, Message: message, StepID: stepID})
}

func (v *visit) result() Result {
	return Result{Valid: len(v.errors) == 0, Errors: v.errors}
}

// checkCaptureStep applies the capture-step reference rules. When required is
// false an empty reference is fine, but a non-empty one must still resolve to
// an existing capture-category step.
func (v *visit) checkCaptureStep(field, stepID string, required bool) {
	stepID = strings.TrimSpace(stepID)
	if stepID == "" {
		if required {
			v.add(field, "Select a source image step", "")
		}
		return
	}
	step, ok := experience.FindStep(v.steps, stepID)
	if !ok {
		v.add(field, "Selected source step no longer exists", stepID)
		return
	}
	def, ok := experience.Lookup(step.Type)
	if !ok || !def.Capture {
		v.add(field, "Source step must be a capture step", stepID)
	}
}

func (v *visit) checkGeneration(field string, outcome experience.OutcomeType, gen experience.GenerationSpec) {
	if strings.TrimSpace(gen.Prompt) == "" {
		v.add(field+".prompt", fmt.Sprintf("Prompt is required for %s output", outcomeLabel(outcome)), "")
	}
	if dupes := duplicateNames(gen.RefMedia); len(dupes) > 0 {
		// One error naming every duplicated name, joined in first-occurrence
		// order so repeated runs render identically.
		v.add(field+".refMedia", fmt.Sprintf("Duplicate reference media names: %s", strings.Join(dupes, ", ")), "")
	}
}

func duplicateNames(refs []experience.RefMedia) []string {
	counts := make(map[string]int, len(refs))
	order := make([]string, 0, len(refs))
	for _, ref := range refs {
		name := strings.TrimSpace(ref.DisplayName)
		if name == "" {
			continue
		}
		if counts[name] == 0 {
			order = append(order, name)
		}
		counts[name]++
	}
	dupes := order[:0]
	for _, name := range order {
		if counts[name] > 1 {
			dupes = append(dupes, name)
		}
	}
	if len(dupes) == 0 {
		return nil
	}
	return dupes
}

func outcomeLabel(t experience.OutcomeType) string {
	switch t {
	case experience.OutcomeSurvey:
		return "survey"
	case experience.OutcomePhoto:
		return "photo"
	case experience.OutcomeAIImage:
		return "AI image"
	case experience.OutcomeAIVideo:
		return "AI video"
	case experience.OutcomeGIF:
		return "GIF"
	case experience.OutcomeVideo:
		return "video"
	default:
		return string(t)
	}
}
