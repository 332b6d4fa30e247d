package runtime

import (
	"errors"
	"fmt"
	"testing"

	"docent/internal/experience"
)

func infoSteps(n int) []experience.Step {
	steps := make([]experience.Step, 0, n)
	for i := 0; i < n; i++ {
		steps = append(steps, experience.Step{ID: fmt.Sprintf("s%d", i+1), Type: experience.StepInfo})
	}
	return steps
}

func TestEmptyStepListIsImmediatelyComplete(t *testing.T) {
	seq := NewSequencer(nil, nil)
	if !seq.IsComplete() {
		t.Fatal("empty sequence must be complete at construction")
	}
	if seq.CanProceed() || seq.CanGoBack() {
		t.Fatal("empty sequence must neither proceed nor go back")
	}
	if _, ok := seq.Current(); ok {
		t.Fatal("empty sequence has no current step")
	}
}

func TestNCallsToNextCompleteNSatisfiedSteps(t *testing.T) {
	const n = 5
	seq := NewSequencer(infoSteps(n), nil)
	for i := 0; i < n; i++ {
		if seq.IsComplete() {
			t.Fatalf("complete too early at %d", i)
		}
		if err := seq.Next(); err != nil {
			t.Fatalf("Next %d: %v", i, err)
		}
	}
	if !seq.IsComplete() {
		t.Fatal("expected complete after N calls")
	}
	if seq.Index() != n {
		t.Fatalf("index = %d, want %d", seq.Index(), n)
	}
	// Index stays frozen once complete.
	if err := seq.Next(); err != nil {
		t.Fatalf("Next past end: %v", err)
	}
	if seq.Index() != n {
		t.Fatalf("index moved past end: %d", seq.Index())
	}
}

func TestNextBlocksUntilAnswered(t *testing.T) {
	steps := []experience.Step{
		{ID: "welcome", Type: experience.StepInfo},
		{ID: "consent", Type: experience.StepYesNo},
	}
	seq := NewSequencer(steps, nil)

	if err := seq.Next(); err != nil {
		t.Fatalf("info step should not block: %v", err)
	}
	if seq.CanProceed() {
		t.Fatal("yesNo step must block until answered")
	}
	if err := seq.Next(); !errors.Is(err, ErrBlocked) {
		t.Fatalf("expected ErrBlocked, got %v", err)
	}

	seq.SetResponse("consent", experience.BoolResponse(true))
	if !seq.CanProceed() {
		t.Fatal("expected proceed after answer")
	}
	if err := seq.Next(); err != nil {
		t.Fatalf("Next after answer: %v", err)
	}
	if !seq.IsComplete() {
		t.Fatal("expected completion")
	}
}

func TestBackIsNoOpAtStart(t *testing.T) {
	seq := NewSequencer(infoSteps(2), nil)
	seq.Back()
	if seq.Index() != 0 {
		t.Fatalf("index = %d after Back at start", seq.Index())
	}
	if err := seq.Next(); err != nil {
		t.Fatal(err)
	}
	if !seq.CanGoBack() {
		t.Fatal("expected CanGoBack after advancing")
	}
	seq.Back()
	if seq.Index() != 0 {
		t.Fatalf("index = %d, want 0", seq.Index())
	}
}

func TestGoToBoundsAndIdempotence(t *testing.T) {
	seq := NewSequencer(infoSteps(3), nil)
	for i := 0; i <= 3; i++ {
		if err := seq.GoTo(i); err != nil {
			t.Fatalf("GoTo(%d): %v", i, err)
		}
		if err := seq.GoTo(i); err != nil {
			t.Fatalf("GoTo(%d) second call: %v", i, err)
		}
		if seq.Index() != i {
			t.Fatalf("index = %d, want %d", seq.Index(), i)
		}
	}

	if err := seq.GoTo(1); err != nil {
		t.Fatal(err)
	}
	var oor *OutOfRangeError
	if err := seq.GoTo(-1); !errors.As(err, &oor) {
		t.Fatalf("expected OutOfRangeError, got %v", err)
	}
	if err := seq.GoTo(4); !errors.As(err, &oor) {
		t.Fatalf("expected OutOfRangeError, got %v", err)
	}
	if seq.Index() != 1 {
		t.Fatalf("rejected jump mutated index: %d", seq.Index())
	}
}

func TestRevisitPreservesPriorResponse(t *testing.T) {
	steps := []experience.Step{
		{ID: "q1", Type: experience.StepText},
		{ID: "q2", Type: experience.StepYesNo},
	}
	seq := NewSequencer(steps, nil)
	seq.SetResponse("q1", experience.TextResponse("hello"))
	if err := seq.Next(); err != nil {
		t.Fatal(err)
	}
	seq.SetResponse("q2", experience.BoolResponse(false))

	seq.Back()
	if got := seq.GetResponse("q1"); got.Text != "hello" {
		t.Fatalf("revisit lost response: %+v", got)
	}
	// Re-answering q1 must not invalidate q2.
	seq.SetResponse("q1", experience.TextResponse("changed"))
	if got := seq.GetResponse("q2"); !got.Answered() {
		t.Fatalf("changing earlier step invalidated later response: %+v", got)
	}
}

func TestUnansweredSentinel(t *testing.T) {
	store := NewResponses()
	got := store.Get("nothing")
	if got.Answered() {
		t.Fatalf("expected unanswered sentinel, got %+v", got)
	}
	if got.Kind != experience.ResponseUnanswered && got.Kind != "" {
		t.Fatalf("unexpected kind %q", got.Kind)
	}
}
