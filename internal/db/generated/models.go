package dbgen

import (
	"database/sql"
	"time"
)

type Invitation struct {
	ID        int64     `json:"id"`
	TeamID    int64     `json:"team_id"`
	PlayerID  int64     `json:"player_id"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type League struct {
	ID        int64          `json:"id"`
	Name      string         `json:"name"`
	Gender    sql.NullString `json:"gender"`
	Level     sql.NullInt64  `json:"level"`
	ManagerID int64          `json:"manager_id"`
	CreatedAt time.Time      `json:"created_at"`
}

type Match struct {
	ID             int64         `json:"id"`
	LeagueID       int64         `json:"league_id"`
	MatchRequestID sql.NullInt64 `json:"match_request_id"`
	HomeUserID     int64         `json:"home_user_id"`
	AwayUserID     int64         `json:"away_user_id"`
	ScheduledAt    sql.NullTime  `json:"scheduled_at"`
	Status         string        `json:"status"`
	CreatedAt      time.Time     `json:"created_at"`
}

type MatchRequest struct {
	ID          int64        `json:"id"`
	LeagueID    int64        `json:"league_id"`
	RequesterID int64        `json:"requester_id"`
	OpponentID  int64        `json:"opponent_id"`
	ProposedAt  sql.NullTime `json:"proposed_at"`
	Message     string       `json:"message"`
	Status      string       `json:"status"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

type Notification struct {
	ID             int64         `json:"id"`
	UserID         int64         `json:"user_id"`
	Kind           string        `json:"kind"`
	Message        string        `json:"message"`
	IsRead         bool          `json:"is_read"`
	MatchRequestID sql.NullInt64 `json:"match_request_id"`
	MatchID        sql.NullInt64 `json:"match_id"`
	CreatedAt      time.Time     `json:"created_at"`
}

type Team struct {
	ID        int64         `json:"id"`
	Name      string        `json:"name"`
	CaptainID int64         `json:"captain_id"`
	LeagueID  sql.NullInt64 `json:"league_id"`
	CreatedAt time.Time     `json:"created_at"`
}

type TeamPlayer struct {
	TeamID   int64     `json:"team_id"`
	PlayerID int64     `json:"player_id"`
	JoinedAt time.Time `json:"joined_at"`
}

type User struct {
	ID           int64          `json:"id"`
	ClerkUserID  sql.NullString `json:"clerk_user_id"`
	Email        string         `json:"email"`
	Phone        sql.NullString `json:"phone"`
	Name         string         `json:"name"`
	PasswordHash sql.NullString `json:"password_hash"`
	Role         string         `json:"role"`
	Status       string         `json:"status"`
	Gender       sql.NullString `json:"gender"`
	Level        sql.NullInt64  `json:"level"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}
