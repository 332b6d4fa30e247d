package experience

// OutcomeType discriminates the outcome configuration union.
type OutcomeType string

const (
	OutcomeSurvey  OutcomeType = "survey"
	OutcomePhoto   OutcomeType = "photo"
	OutcomeAIImage OutcomeType = "ai.image"
	OutcomeAIVideo OutcomeType = "ai.video"
	OutcomeGIF     OutcomeType = "gif"
	OutcomeVideo   OutcomeType = "video"
)

// ComingSoonOutcome reports whether the outcome type is announced but not
// implemented. Such configs never validate.
func ComingSoonOutcome(t OutcomeType) bool {
	return t == OutcomeGIF || t == OutcomeVideo
}

// AITask selects the generation mode for AI outcomes.
type AITask string

const (
	TaskTextToImage  AITask = "text-to-image"
	TaskImageToImage AITask = "image-to-image"
	TaskTextToVideo  AITask = "text-to-video"
	TaskImageToVideo AITask = "image-to-video"
)

// RequiresSource reports whether the task consumes a captured source image.
func (t AITask) RequiresSource() bool {
	return t == TaskImageToImage || t == TaskImageToVideo
}

// RefMedia is a named reference asset fed into a generation block.
type RefMedia struct {
	DisplayName string `json:"display_name"`
	URL         string `json:"url"`
}

// GenerationSpec configures one AI generation pass.
type GenerationSpec struct {
	Prompt   string     `json:"prompt"`
	RefMedia []RefMedia `json:"ref_media,omitempty"`
}

// PhotoOutcome delivers a captured photo verbatim.
type PhotoOutcome struct {
	CaptureStepID string `json:"capture_step_id"`
}

// AIImageOutcome generates a single image, optionally seeded from a capture
// step when the task is image-to-image.
type AIImageOutcome struct {
	Task            AITask         `json:"task"`
	CaptureStepID   string         `json:"capture_step_id,omitempty"`
	ImageGeneration GenerationSpec `json:"image_generation"`
}

// AIVideoOutcome generates a short clip. Start and end frame generators are
// independent blocks; either may be omitted.
type AIVideoOutcome struct {
	Task          AITask          `json:"task"`
	CaptureStepID string          `json:"capture_step_id,omitempty"`
	StartFrame    *GenerationSpec `json:"start_frame,omitempty"`
	EndFrame      *GenerationSpec `json:"end_frame,omitempty"`
}

// OutcomeConfig is the discriminated union describing what artifact an
// experience produces. Exactly the variant matching Type is consulted;
// the others are ignored.
type OutcomeConfig struct {
	Type    OutcomeType     `json:"type"`
	Photo   *PhotoOutcome   `json:"photo,omitempty"`
	AIImage *AIImageOutcome `json:"ai_image,omitempty"`
	AIVideo *AIVideoOutcome `json:"ai_video,omitempty"`
}
