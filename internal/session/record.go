package session

import "time"

// Record statuses.
const (
	StatusRunning = "running"
	StatusStopped = "stopped"
)

// Exit reasons.
const (
	ExitNormal      = "normal"
	ExitFailed      = "failed"
	ExitStartFailed = "start_failed"
	ExitInterrupted = "interrupted"
)

// Record is the persisted history of one dprun launch.
type Record struct {
	ID           string     `json:"id"`
	Mode         string     `json:"mode"`                   // "host" | "join"
	SessionGUID  string     `json:"session_guid,omitempty"` // empty when dprun generated it
	Player       string     `json:"player"`
	Provider     string     `json:"provider"`
	Application  string     `json:"application"`
	Program      string     `json:"program"`
	Args         []string   `json:"args"` // password redacted
	Dir          string     `json:"dir,omitempty"`
	CallbackPort int        `json:"callback_port,omitempty"`
	Status       string     `json:"status"`
	StartedAt    time.Time  `json:"started_at"`
	StoppedAt    *time.Time `json:"stopped_at,omitempty"`
	ExitCode     *int       `json:"exit_code,omitempty"`
	ExitReason   string     `json:"exit_reason,omitempty"` // "normal" | "failed" | "start_failed" | "interrupted"
}

// NewRecord describes a launch of spec that is about to start.
func NewRecord(id string, spec *Spec) *Record {
	r := &Record{
		ID:          id,
		Mode:        spec.Mode().String(),
		Player:      spec.PlayerName(),
		Provider:    spec.Provider().String(),
		Application: spec.Application().String(),
		Dir:         spec.Dir(),
		Status:      StatusRunning,
		StartedAt:   time.Now(),
	}
	if g, ok := spec.Mode().Session(); ok {
		r.SessionGUID = g.String()
	}
	return r
}

// Stop marks the record as stopped at the current time.
func (r *Record) Stop(reason string, exitCode *int) {
	now := time.Now()
	r.Status = StatusStopped
	r.StoppedAt = &now
	r.ExitReason = reason
	r.ExitCode = exitCode
}
