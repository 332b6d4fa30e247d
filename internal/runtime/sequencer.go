package runtime

import (
	"errors"
	"fmt"

	"docent/internal/experience"
)

// ErrBlocked is returned by Next when the active step's response does not yet
// satisfy its answered predicate. Callers awaiting an asynchronous side
// effect (a capture upload, typically) retry once the response lands.
var ErrBlocked = errors.New("active step not satisfied")

// OutOfRangeError signals a rejected absolute jump. Non-fatal; sequencer
// state is unchanged and callers may ignore or log it.
type OutOfRangeError struct {
	Index  int
	Length int
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("step index %d out of range [0, %d]", e.Index, e.Length)
}

// Sequencer advances through an ordered, immutable step list. It never
// blocks; it only permits a transition once the active step's precondition
// holds. Only the sequencer mutates the current index.
type Sequencer struct {
	steps     []experience.Step
	responses *Responses
	index     int
}

// NewSequencer builds a sequencer over the given steps, recording answers in
// the provided store. An empty step list is immediately complete.
func NewSequencer(steps []experience.Step, responses *Responses) *Sequencer {
	if responses == nil {
		responses = NewResponses()
	}
	return &Sequencer{steps: steps, responses: responses}
}

// Len returns the number of steps.
func (s *Sequencer) Len() int { return len(s.steps) }

// Index returns the current step index. Once complete it freezes at Len.
func (s *Sequencer) Index() int { return s.index }

// Current returns the active step, or false once the sequence is complete.
func (s *Sequencer) Current() (experience.Step, bool) {
	if s.index >= len(s.steps) {
		return experience.Step{}, false
	}
	return s.steps[s.index], true
}

// Responses exposes the backing response store.
func (s *Sequencer) Responses() *Responses { return s.responses }

// IsComplete reports whether the sequence has been walked past its last step.
func (s *Sequencer) IsComplete() bool { return s.index >= len(s.steps) }

// CanGoBack reports whether Back will move.
func (s *Sequencer) CanGoBack() bool { return s.index > 0 }

// CanProceed reports whether the active step's response satisfies its
// type-specific answered predicate. Complete sequences cannot proceed.
func (s *Sequencer) CanProceed() bool {
	step, ok := s.Current()
	if !ok {
		return false
	}
	return experience.Satisfied(step, s.responses.Get(step.ID))
}

// Next advances by one step when CanProceed holds. Moving past the last step
// completes the sequence and freezes the index at Len.
func (s *Sequencer) Next() error {
	if s.IsComplete() {
		return nil
	}
	if !s.CanProceed() {
		return ErrBlocked
	}
	s.index++
	return nil
}

// Back decrements the index by one. A no-op, not an error, at the first step.
// Prior responses are preserved so revisited steps re-display their answers.
func (s *Sequencer) Back() {
	if s.index > 0 {
		s.index--
	}
}

// GoTo jumps to an absolute index in [0, Len]. Out-of-range requests are
// rejected without mutating state.
func (s *Sequencer) GoTo(index int) error {
	if index < 0 || index > len(s.steps) {
		return &OutOfRangeError{Index: index, Length: len(s.steps)}
	}
	s.index = index
	return nil
}

// SetResponse records a response for the given step. Changing the response
// for a step never invalidates responses recorded for earlier steps.
func (s *Sequencer) SetResponse(stepID string, data experience.Response) {
	s.responses.Set(stepID, data)
}

// GetResponse returns the stored response or the unanswered sentinel.
func (s *Sequencer) GetResponse(stepID string) experience.Response {
	return s.responses.Get(stepID)
}
