package domain

import (
	"encoding/json"
	"time"
)

// Session is one participant's run through the task.
type Session struct {
	SessionID     string          `json:"session_id"`
	ParticipantID string          `json:"participant_id"`
	Status        SessionStatus   `json:"status"`
	Config        TaskConfig      `json:"config"`
	CreatedAt     time.Time       `json:"created_at"`
	StartedAt     *time.Time      `json:"started_at,omitempty"`
	EndedAt       *time.Time      `json:"ended_at,omitempty"`
	Error         string          `json:"error,omitempty"`
	Summary       json.RawMessage `json:"summary,omitempty"`
}

// StoredTrial is a trial record as kept by the repository.
type StoredTrial struct {
	SessionID string      `json:"session_id"`
	Seq       int64       `json:"seq"`
	Record    TrialRecord `json:"record"`
	CreatedAt time.Time   `json:"created_at"`
}
