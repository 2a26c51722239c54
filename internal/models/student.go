package models

import "time"

// Progress statuses recomputed after every completed session.
const (
	ProgressNeedSupport = "Need Support"
	ProgressOnTrack     = "On Track"
	ProgressAdvanced    = "Advanced"
)

// Student carries the aggregate fields this service reads and writes.
// The full student record is owned by the entity CRUD collaborator.
type Student struct {
	ID             string     `db:"id" json:"id"`
	Name           string     `db:"name" json:"name"`
	GamesPlayed    int        `db:"games_played" json:"games_played"`
	AvgScore       float64    `db:"avg_score" json:"avg_score"`
	LastActive     *time.Time `db:"last_active" json:"last_active,omitempty"`
	ProgressStatus string     `db:"progress_status" json:"progress_status"`
}

// Game carries the fields this service reads and the play aggregates it
// maintains.
type Game struct {
	ID       string  `db:"id" json:"id"`
	Name     string  `db:"name" json:"name"`
	Plays    int     `db:"plays" json:"plays"`
	AvgScore float64 `db:"avg_score" json:"avg_score"`
}

// SubjectScore is a student's per-subject numeric score in [0,100].
type SubjectScore struct {
	ID        string  `db:"id" json:"id"`
	StudentID string  `db:"student_id" json:"student_id"`
	Subject   string  `db:"subject" json:"subject"`
	Score     float64 `db:"score" json:"score"`
}

// SkillScore is a student's per-skill numeric score in [0,100].
type SkillScore struct {
	ID         string  `db:"id" json:"id"`
	StudentID  string  `db:"student_id" json:"student_id"`
	Skill      string  `db:"skill" json:"skill"`
	Score      float64 `db:"score" json:"score"`
	IsStrength bool    `db:"is_strength" json:"is_strength"`
}

// TraitKind distinguishes the two presence-only student links.
type TraitKind string

const (
	TraitStrength        TraitKind = "strength"
	TraitDevelopmentArea TraitKind = "development_area"
)

// StudentTrait is a presence-only link granted or revoked by the score
// threshold, covering both strengths and development areas.
type StudentTrait struct {
	ID        string    `db:"id" json:"id"`
	StudentID string    `db:"student_id" json:"student_id"`
	Kind      TraitKind `db:"kind" json:"kind"`
	Trait     string    `db:"trait" json:"trait"`
	Note      string    `db:"note" json:"note"`
	GrantedAt time.Time `db:"granted_at" json:"granted_at"`
}

// RecommendedGame is a per-student game suggestion, unique per game.
type RecommendedGame struct {
	ID            string    `db:"id" json:"id"`
	StudentID     string    `db:"student_id" json:"student_id"`
	GameID        string    `db:"game_id" json:"game_id"`
	Reason        string    `db:"reason" json:"reason"`
	RecommendedAt time.Time `db:"recommended_at" json:"recommended_at"`
}

// Badge is a presence-only award named after the game.
type Badge struct {
	ID        string    `db:"id" json:"id"`
	StudentID string    `db:"student_id" json:"student_id"`
	Badge     string    `db:"badge" json:"badge"`
	AwardedAt time.Time `db:"awarded_at" json:"awarded_at"`
}

// Action plan statuses.
const (
	ActionPlanOpen      = "open"
	ActionPlanCompleted = "completed"
)

// ActionPlan is a goal assigned to a student by a matched template
// trigger, unique per (student, goal).
type ActionPlan struct {
	ID        string    `db:"id" json:"id"`
	StudentID string    `db:"student_id" json:"student_id"`
	Type      string    `db:"type" json:"type"`
	Goal      string    `db:"goal" json:"goal"`
	Status    string    `db:"status" json:"status"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
