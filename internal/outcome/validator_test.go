package outcome

import (
	"reflect"
	"testing"

	"docent/internal/experience"
)

func captureSteps() []experience.Step {
	return []experience.Step{
		{ID: "intro", Type: experience.StepInfo},
		{ID: "s1", Type: experience.StepPhoto},
	}
}

func TestSurveyAlwaysPasses(t *testing.T) {
	res := Validate(experience.OutcomeConfig{Type: experience.OutcomeSurvey}, nil)
	if !res.Valid || len(res.Errors) != 0 {
		t.Fatalf("expected clean pass, got %+v", res)
	}
}

func TestComingSoonTypesFailOnTypeAlone(t *testing.T) {
	for _, typ := range []experience.OutcomeType{experience.OutcomeGIF, experience.OutcomeVideo} {
		res := Validate(experience.OutcomeConfig{Type: typ}, captureSteps())
		if res.Valid {
			t.Fatalf("%s: expected failure", typ)
		}
		if len(res.Errors) != 1 || res.Errors[0].Field != "type" {
			t.Fatalf("%s: expected single type error, got %+v", typ, res.Errors)
		}
	}
}

func TestPhotoMissingCaptureStep(t *testing.T) {
	cfg := experience.OutcomeConfig{Type: experience.OutcomePhoto, Photo: &experience.PhotoOutcome{}}
	res := Validate(cfg, captureSteps())
	want := []ValidationError{{Field: "photo.captureStepId", Message: "Select a source image step"}}
	if !reflect.DeepEqual(res.Errors, want) {
		t.Fatalf("errors = %+v, want %+v", res.Errors, want)
	}
}

func TestPhotoDanglingAndWrongCategoryReferences(t *testing.T) {
	steps := captureSteps()

	res := Validate(experience.OutcomeConfig{
		Type:  experience.OutcomePhoto,
		Photo: &experience.PhotoOutcome{CaptureStepID: "gone"},
	}, steps)
	if len(res.Errors) != 1 || res.Errors[0].Message != "Selected source step no longer exists" || res.Errors[0].StepID != "gone" {
		t.Fatalf("dangling reference errors = %+v", res.Errors)
	}

	res = Validate(experience.OutcomeConfig{
		Type:  experience.OutcomePhoto,
		Photo: &experience.PhotoOutcome{CaptureStepID: "intro"},
	}, steps)
	if len(res.Errors) != 1 || res.Errors[0].Message != "Source step must be a capture step" || res.Errors[0].StepID != "intro" {
		t.Fatalf("wrong category errors = %+v", res.Errors)
	}
}

func TestAIImageAccumulatesPromptAndDuplicateErrors(t *testing.T) {
	cfg := experience.OutcomeConfig{
		Type: experience.OutcomeAIImage,
		AIImage: &experience.AIImageOutcome{
			Task:          experience.TaskImageToImage,
			CaptureStepID: "s1",
			ImageGeneration: experience.GenerationSpec{
				Prompt: "",
				RefMedia: []experience.RefMedia{
					{DisplayName: "x"},
					{DisplayName: "x"},
				},
			},
		},
	}
	res := Validate(cfg, captureSteps())
	if len(res.Errors) != 2 {
		t.Fatalf("expected 2 errors, got %+v", res.Errors)
	}
	if res.Errors[0].Field != "aiImage.imageGeneration.prompt" {
		t.Fatalf("first error = %+v", res.Errors[0])
	}
	if res.Errors[0].Message != "Prompt is required for AI image output" {
		t.Fatalf("prompt message = %q", res.Errors[0].Message)
	}
	if res.Errors[1].Field != "aiImage.imageGeneration.refMedia" {
		t.Fatalf("second error = %+v", res.Errors[1])
	}
	if res.Errors[1].Message != "Duplicate reference media names: x" {
		t.Fatalf("duplicate message = %q", res.Errors[1].Message)
	}
}

func TestTextToImageNeedsNoSourceStep(t *testing.T) {
	cfg := experience.OutcomeConfig{
		Type: experience.OutcomeAIImage,
		AIImage: &experience.AIImageOutcome{
			Task:            experience.TaskTextToImage,
			ImageGeneration: experience.GenerationSpec{Prompt: "a fox in a suit"},
		},
	}
	res := Validate(cfg, nil)
	if !res.Valid {
		t.Fatalf("expected pass, got %+v", res.Errors)
	}
}

func TestDuplicateNamesJoinedInFirstOccurrenceOrder(t *testing.T) {
	cfg := experience.OutcomeConfig{
		Type: experience.OutcomeAIImage,
		AIImage: &experience.AIImageOutcome{
			Task: experience.TaskTextToImage,
			ImageGeneration: experience.GenerationSpec{
				Prompt: "ok",
				RefMedia: []experience.RefMedia{
					{DisplayName: "beta"},
					{DisplayName: "alpha"},
					{DisplayName: "beta"},
					{DisplayName: "alpha"},
					{DisplayName: "solo"},
				},
			},
		},
	}
	res := Validate(cfg, nil)
	if len(res.Errors) != 1 {
		t.Fatalf("expected single duplicate error, got %+v", res.Errors)
	}
	if res.Errors[0].Message != "Duplicate reference media names: beta, alpha" {
		t.Fatalf("message = %q", res.Errors[0].Message)
	}
}

func TestVideoFrameBlocksValidateIndependently(t *testing.T) {
	cfg := experience.OutcomeConfig{
		Type: experience.OutcomeAIVideo,
		AIVideo: &experience.AIVideoOutcome{
			Task: experience.TaskTextToVideo,
			StartFrame: &experience.GenerationSpec{
				Prompt: "sunrise",
				RefMedia: []experience.RefMedia{
					{DisplayName: "bg"},
					{DisplayName: "bg"},
				},
			},
			EndFrame: &experience.GenerationSpec{Prompt: "sunset"},
		},
	}
	res := Validate(cfg, captureSteps())
	if len(res.Errors) != 1 {
		t.Fatalf("expected one error, got %+v", res.Errors)
	}
	if res.Errors[0].Field != "aiVideo.startFrame.refMedia" {
		t.Fatalf("error = %+v", res.Errors[0])
	}
}

func TestValidateIsDeterministic(t *testing.T) {
	cfg := experience.OutcomeConfig{
		Type: experience.OutcomeAIImage,
		AIImage: &experience.AIImageOutcome{
			Task:          experience.TaskImageToImage,
			CaptureStepID: "missing",
			ImageGeneration: experience.GenerationSpec{
				RefMedia: []experience.RefMedia{
					{DisplayName: "a"}, {DisplayName: "b"}, {DisplayName: "a"},
				},
			},
		},
	}
	steps := captureSteps()
	first := Validate(cfg, steps)
	second := Validate(cfg, steps)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("validation not deterministic:\n%+v\n%+v", first, second)
	}
}
