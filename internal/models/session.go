package models

import "time"

// SessionState tracks a game session through its lifecycle.
type SessionState string

const (
	SessionPending   SessionState = "pending"
	SessionStarted   SessionState = "started"
	SessionCompleted SessionState = "completed"
)

// GameSession is one attempt by one student at one game. At most one
// non-completed session exists per (student, game, operator) tuple.
type GameSession struct {
	ID         string       `db:"id" json:"session_id"`
	StudentID  string       `db:"student_id" json:"student_id"`
	GameID     string       `db:"game_id" json:"game_id"`
	OperatorID string       `db:"operator_id" json:"operator_id"`
	State      SessionState `db:"state" json:"state"`
	Score      *float64     `db:"score" json:"score,omitempty"`
	Duration   *float64     `db:"duration" json:"duration,omitempty"`
	Metadata   *string      `db:"metadata" json:"metadata,omitempty"`
	CreatedAt  time.Time    `db:"created_at" json:"created_at"`
	StartedAt  *time.Time   `db:"started_at" json:"started_at,omitempty"`
	EndedAt    *time.Time   `db:"ended_at" json:"ended_at,omitempty"`
	UpdatedAt  time.Time    `db:"updated_at" json:"updated_at"`
}

// Started reports whether the session has been claimed by the runtime.
func (s *GameSession) Started() bool {
	return s.State == SessionStarted || s.State == SessionCompleted
}

// Completed reports whether the session reached its terminal state.
func (s *GameSession) Completed() bool {
	return s.State == SessionCompleted
}

// SessionFilter encapsulates allowed parameters for listing sessions.
type SessionFilter struct {
	GameID    string
	StudentID string
	State     SessionState
	Limit     int
}

// SessionResult is the dashboard projection of a completed session.
type SessionResult struct {
	StudentID string    `db:"student_id" json:"student_id"`
	Score     *float64  `db:"score" json:"score,omitempty"`
	Completed bool      `db:"completed" json:"completed"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// UISyncState is the dashboard/runtime shared sync snapshot.
type UISyncState struct {
	StudentID string   `json:"student_id"`
	SessionID string   `json:"session_id"`
	Completed bool     `json:"completed"`
	Score     *float64 `json:"score,omitempty"`
}
