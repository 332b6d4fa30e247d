package runtime

import (
	"sort"
	"sync"

	"docent/internal/experience"
)

// Responses maps step identifiers to response payloads. Get never fails: an
// unanswered step yields the zero Response, whose Kind is the explicit
// unanswered sentinel. No cross-step validation happens here.
//
// Safe for concurrent use: a capture engine's upload completion records its
// media reference from the engine goroutine while the session driver reads
// navigation state.
type Responses struct {
	mu     sync.RWMutex
	byStep map[string]experience.Response
}

// NewResponses creates an empty response store.
func NewResponses() *Responses {
	return &Responses{byStep: make(map[string]experience.Response)}
}

// Set overwrites any existing response for the step.
func (r *Responses) Set(stepID string, data experience.Response) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byStep[stepID] = data
}

// Get returns the stored payload, or the unanswered sentinel when the step
// has no response yet.
func (r *Responses) Get(stepID string) experience.Response {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byStep[stepID]
}

// Answered reports whether the step has a non-sentinel response.
func (r *Responses) Answered(stepID string) bool {
	return r.Get(stepID).Answered()
}

// StepIDs lists every step id holding a response, sorted for stable output.
func (r *Responses) StepIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.byStep))
	for id := range r.byStep {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
