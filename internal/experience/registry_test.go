package experience

import "testing"

func TestLookupKnownTypes(t *testing.T) {
	for _, def := range Definitions() {
		got, ok := Lookup(def.Type)
		if !ok {
			t.Fatalf("Lookup(%s) missing", def.Type)
		}
		if got.Label != def.Label {
			t.Fatalf("Lookup(%s) label mismatch: %q", def.Type, got.Label)
		}
	}
	if _, ok := Lookup(StepType("input.nope")); ok {
		t.Fatal("expected unknown type to miss")
	}
}

func TestSatisfiedPredicates(t *testing.T) {
	cases := []struct {
		name     string
		step     Step
		response Response
		want     bool
	}{
		{"info always satisfied", Step{ID: "s1", Type: StepInfo}, Response{}, true},
		{"yesNo unanswered", Step{ID: "s2", Type: StepYesNo}, Response{}, false},
		{"yesNo answered no", Step{ID: "s2", Type: StepYesNo}, BoolResponse(false), true},
		{"scale answered", Step{ID: "s3", Type: StepScale}, ScalarResponse(3), true},
		{"text whitespace only", Step{ID: "s4", Type: StepText}, TextResponse("   "), false},
		{"text answered", Step{ID: "s4", Type: StepText}, TextResponse("hi"), true},
		{"multiSelect empty", Step{ID: "s5", Type: StepMultiSelect}, OptionsResponse(nil), false},
		{"multiSelect answered", Step{ID: "s5", Type: StepMultiSelect}, OptionsResponse([]string{"a"}), true},
		{"photo unanswered", Step{ID: "s6", Type: StepPhoto}, Response{}, false},
		{"photo empty refs", Step{ID: "s6", Type: StepPhoto}, MediaResponse(MediaRef{}), false},
		{"photo answered", Step{ID: "s6", Type: StepPhoto}, MediaResponse(MediaRef{AssetID: "a1", URL: "file:///a1"}), true},
		{"coming soon satisfied", Step{ID: "s7", Type: StepSignature}, Response{}, true},
		{"unknown type satisfied", Step{ID: "s8", Type: StepType("future")}, Response{}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Satisfied(tc.step, tc.response); got != tc.want {
				t.Fatalf("Satisfied = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestIsCaptureStep(t *testing.T) {
	steps := []Step{
		{ID: "intro", Type: StepInfo},
		{ID: "selfie", Type: StepPhoto},
	}
	if !IsCaptureStep(steps, "selfie") {
		t.Fatal("expected selfie to be a capture step")
	}
	if IsCaptureStep(steps, "intro") {
		t.Fatal("info step must not count as capture")
	}
	if IsCaptureStep(steps, "missing") {
		t.Fatal("missing step must not count as capture")
	}
}

func TestNormalizeRejectsDuplicateIDs(t *testing.T) {
	exp := &Experience{
		ID: "exp-1",
		Steps: []Step{
			{ID: "a", Type: StepInfo},
			{ID: "a", Type: StepYesNo},
		},
	}
	if err := exp.Normalize(); err == nil {
		t.Fatal("expected duplicate id error")
	}
}
