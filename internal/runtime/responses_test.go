package runtime

import (
	"fmt"
	"sync"
	"testing"

	"docent/internal/experience"
)

func TestResponsesUnansweredSentinel(t *testing.T) {
	responses := NewResponses()
	if responses.Get("missing").Answered() {
		t.Fatal("unanswered step must yield the sentinel")
	}
	responses.Set("q1", experience.TextResponse("hello"))
	if !responses.Answered("q1") {
		t.Fatal("stored response not reported as answered")
	}
}

func TestResponsesConcurrentRecordAndPoll(t *testing.T) {
	steps := []experience.Step{{ID: "selfie", Type: experience.StepPhoto}}
	responses := NewResponses()
	seq := NewSequencer(steps, responses)

	// An upload completion writes from its own goroutine while the driver
	// polls navigation state waiting for the precondition to land.
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			responses.Set("selfie", experience.MediaResponse(experience.MediaRef{
				AssetID: fmt.Sprintf("asset-%d", i),
				URL:     "file:///assets/asset.jpg",
			}))
		}
	}()
	for i := 0; i < 100; i++ {
		seq.CanProceed()
		responses.StepIDs()
	}
	wg.Wait()

	if !seq.CanProceed() {
		t.Fatal("recorded capture must satisfy the step")
	}
}
