package models

import "time"

// GamePlay is the immutable fact recorded once per completed session.
type GamePlay struct {
	ID        string    `db:"id" json:"id"`
	GameID    string    `db:"game_id" json:"game_id"`
	StudentID string    `db:"student_id" json:"student_id"`
	Score     float64   `db:"score" json:"score"`
	PlayedAt  time.Time `db:"played_at" json:"played_at"`
}

// StudentGamePerformance is the historical per-play record appended as
// the final impact step.
type StudentGamePerformance struct {
	ID        string    `db:"id" json:"id"`
	StudentID string    `db:"student_id" json:"student_id"`
	GameID    string    `db:"game_id" json:"game_id"`
	Score     float64   `db:"score" json:"score"`
	PlayDate  time.Time `db:"play_date" json:"play_date"`
}

// RecentActivity is a feed entry surfaced on the dashboard.
type RecentActivity struct {
	ID          string    `db:"id" json:"id"`
	Type        string    `db:"type" json:"type"`
	Title       string    `db:"title" json:"title"`
	Description string    `db:"description" json:"description"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// Activity feed types.
const (
	ActivityGame        = "game"
	ActivityAchievement = "achievement"
)
