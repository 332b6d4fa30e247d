package experience

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Experience is an operator-authored guided sequence plus the outcome it
// produces. Handed to the runtime as read-only input at session start.
type Experience struct {
	ID        string        `json:"id"`
	Title     string        `json:"title"`
	Steps     []Step        `json:"steps"`
	Outcome   OutcomeConfig `json:"outcome"`
	Published bool          `json:"published"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// Normalize checks structural integrity the editor must guarantee before an
// experience reaches storage: non-empty id, unique step ids, known shape.
// Outcome semantics are the validator's concern, not Normalize's.
func (e *Experience) Normalize() error {
	if strings.TrimSpace(e.ID) == "" {
		return errors.New("experience id must be set")
	}
	seen := make(map[string]struct{}, len(e.Steps))
	for i, step := range e.Steps {
		id := strings.TrimSpace(step.ID)
		if id == "" {
			return fmt.Errorf("step %d: id must be set", i)
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("step %d: duplicate id %q", i, id)
		}
		seen[id] = struct{}{}
		e.Steps[i].ID = id
	}
	return nil
}

// EncodeSteps serializes the step list for storage rows and IPC payloads.
func EncodeSteps(steps []Step) (string, error) {
	raw, err := json.Marshal(steps)
	if err != nil {
		return "", fmt.Errorf("marshal steps: %w", err)
	}
	return string(raw), nil
}

// DecodeSteps parses a serialized step list. An empty payload decodes to an
// empty list rather than an error.
func DecodeSteps(raw string) ([]Step, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var steps []Step
	if err := json.Unmarshal([]byte(raw), &steps); err != nil {
		return nil, fmt.Errorf("decode steps: %w", err)
	}
	return steps, nil
}

// EncodeOutcome serializes an outcome config for storage rows.
func EncodeOutcome(cfg OutcomeConfig) (string, error) {
	raw, err := json.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("marshal outcome: %w", err)
	}
	return string(raw), nil
}

// DecodeOutcome parses a serialized outcome config. An empty payload decodes
// to a survey outcome, the zero-cost default.
func DecodeOutcome(raw string) (OutcomeConfig, error) {
	if strings.TrimSpace(raw) == "" {
		return OutcomeConfig{Type: OutcomeSurvey}, nil
	}
	var cfg OutcomeConfig
	if err := json.Unmarshal([]byte(raw), &cfg); err != nil {
		return OutcomeConfig{}, fmt.Errorf("decode outcome: %w", err)
	}
	return cfg, nil
}
