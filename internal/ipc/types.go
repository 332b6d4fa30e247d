package ipc

import "time"

// StopRequest stops the daemon.
type StopRequest struct{}

// StopResponse indicates stop result.
type StopResponse struct {
	Stopped bool `json:"stopped"`
}

// StatusRequest fetches daemon status.
type StatusRequest struct{}

// StatusResponse represents combined daemon status information.
type StatusResponse struct {
	Running       bool           `json:"running"`
	PID           int            `json:"pid"`
	LockPath      string         `json:"lock_path"`
	DBPath        string         `json:"db_path"`
	SocketPath    string         `json:"socket_path"`
	LiveSessions  int            `json:"live_sessions"`
	SessionCounts map[string]int `json:"session_counts"`
	CameraWatch   bool           `json:"camera_watch"`
}

// StepSummary is the wire representation of one experience step.
type StepSummary struct {
	ID    string `json:"id"`
	Type  string `json:"type"`
	Title string `json:"title"`
}

// ExperienceSummary is the wire representation of a stored experience.
type ExperienceSummary struct {
	ID          string        `json:"id"`
	Title       string        `json:"title"`
	OutcomeType string        `json:"outcome_type"`
	Published   bool          `json:"published"`
	Steps       []StepSummary `json:"steps"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// ExperienceListRequest fetches all stored experiences.
type ExperienceListRequest struct{}

// ExperienceListResponse contains experience summaries.
type ExperienceListResponse struct {
	Experiences []ExperienceSummary `json:"experiences"`
}

// ExperienceShowRequest fetches a single experience by id.
type ExperienceShowRequest struct {
	ID string `json:"id"`
}

// ExperienceShowResponse contains one experience summary.
type ExperienceShowResponse struct {
	Experience ExperienceSummary `json:"experience"`
}

// ExperienceImportRequest stores an experience definition from raw JSON.
type ExperienceImportRequest struct {
	Definition []byte `json:"definition"`
}

// ExperienceImportResponse reports the stored experience id.
type ExperienceImportResponse struct {
	ID string `json:"id"`
}

// ValidationIssue mirrors one outcome validation error on the wire.
type ValidationIssue struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	StepID  string `json:"step_id,omitempty"`
}

// ExperienceValidateRequest runs outcome validation for an experience.
type ExperienceValidateRequest struct {
	ID string `json:"id"`
}

// ExperienceValidateResponse carries the accumulated validation result.
type ExperienceValidateResponse struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationIssue `json:"errors,omitempty"`
}

// ExperiencePublishRequest flips the published flag.
type ExperiencePublishRequest struct {
	ID        string `json:"id"`
	Published bool   `json:"published"`
}

// ExperiencePublishResponse reports the publish outcome alongside any
// validation errors that blocked it.
type ExperiencePublishResponse struct {
	Published bool              `json:"published"`
	Valid     bool              `json:"valid"`
	Errors    []ValidationIssue `json:"errors,omitempty"`
}

// SessionSummary is the wire representation of a persisted session.
type SessionSummary struct {
	ID           string    `json:"id"`
	ExperienceID string    `json:"experience_id"`
	OwnerID      string    `json:"owner_id"`
	Status       string    `json:"status"`
	StepIndex    int       `json:"step_index"`
	Reason       string    `json:"reason,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// SessionListRequest filters session listing by status.
type SessionListRequest struct {
	Statuses []string `json:"statuses"`
}

// SessionListResponse contains session summaries.
type SessionListResponse struct {
	Sessions []SessionSummary `json:"sessions"`
}

// LogTailRequest fetches log lines based on offset and follow semantics.
type LogTailRequest struct {
	Offset     int64 `json:"offset"`
	Limit      int   `json:"limit"`
	Follow     bool  `json:"follow"`
	WaitMillis int   `json:"wait_millis"`
}

// LogTailResponse returns log lines and the next offset.
type LogTailResponse struct {
	Lines  []string `json:"lines"`
	Offset int64    `json:"offset"`
}

// SessionAbandonRequest ends a session with an operator-supplied reason.
type SessionAbandonRequest struct {
	ID     string `json:"id"`
	Reason string `json:"reason"`
}

// SessionAbandonResponse reports whether the session was ended.
type SessionAbandonResponse struct {
	Abandoned bool `json:"abandoned"`
}
