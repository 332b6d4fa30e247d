package sessions

import "time"

// Status represents the lifecycle of a runtime session.
type Status string

const (
	StatusPending   Status = "pending"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusAbandoned Status = "abandoned"
)

var allStatuses = []Status{
	StatusPending,
	StatusActive,
	StatusCompleted,
	StatusAbandoned,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// Valid reports whether the status is a known lifecycle state.
func (s Status) Valid() bool {
	_, ok := statusSet[s]
	return ok
}

// Terminal reports whether the session can no longer progress.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusAbandoned
}

// DaemonStopReason is recorded when sessions are abandoned due to shutdown.
const DaemonStopReason = "Daemon stopped"

// Session is one guest walkthrough of an experience.
type Session struct {
	ID           string
	ExperienceID string
	OwnerID      string
	Status       Status
	StepIndex    int
	Reason       string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ResponseRow is a persisted per-step response payload.
type ResponseRow struct {
	SessionID string
	StepID    string
	Payload   string
	UpdatedAt time.Time
}

// AssetRow records one uploaded capture asset.
type AssetRow struct {
	ID        string
	SessionID string
	StepID    string
	OwnerID   string
	Path      string
	URL       string
	Width     int
	Height    int
	CreatedAt time.Time
}

// HealthSummary aggregates session counts per lifecycle state.
type HealthSummary struct {
	Pending   int
	Active    int
	Completed int
	Abandoned int
}
