package models

import (
	"time"

	dbgen "github.com/codr1/leaguedesk/internal/db/generated"
)

type League struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Gender    *string   `json:"gender,omitempty"`
	Level     *int64    `json:"level,omitempty"`
	ManagerID int64     `json:"managerId"`
	CreatedAt time.Time `json:"createdAt"`
}

func NewLeague(row dbgen.League) League {
	return League{
		ID:        row.ID,
		Name:      row.Name,
		Gender:    nullString(row.Gender),
		Level:     nullInt64(row.Level),
		ManagerID: row.ManagerID,
		CreatedAt: row.CreatedAt.UTC(),
	}
}

func NewLeagues(rows []dbgen.League) []League {
	leagues := make([]League, 0, len(rows))
	for _, row := range rows {
		leagues = append(leagues, NewLeague(row))
	}
	return leagues
}

type Team struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	CaptainID   int64     `json:"captainId"`
	CaptainName string    `json:"captainName,omitempty"`
	LeagueID    *int64    `json:"leagueId,omitempty"`
	Players     *int64    `json:"players,omitempty"`
	CreatedAt   time.Time `json:"createdAt,omitempty"`
}

func NewTeam(row dbgen.Team) Team {
	return Team{
		ID:        row.ID,
		Name:      row.Name,
		CaptainID: row.CaptainID,
		LeagueID:  nullInt64(row.LeagueID),
		CreatedAt: row.CreatedAt.UTC(),
	}
}

// NewLeagueTeams builds the league roster overview; leagueID is shared by
// every row.
func NewLeagueTeams(leagueID int64, rows []dbgen.LeagueTeamRow) []Team {
	teams := make([]Team, 0, len(rows))
	for _, row := range rows {
		league, players := leagueID, row.PlayerCount
		teams = append(teams, Team{
			ID:          row.ID,
			Name:        row.Name,
			CaptainID:   row.CaptainID,
			CaptainName: row.CaptainName,
			LeagueID:    &league,
			Players:     &players,
		})
	}
	return teams
}

type TeamPlayer struct {
	ID       int64     `json:"id"`
	Name     string    `json:"name"`
	Email    string    `json:"email"`
	Level    *int64    `json:"level,omitempty"`
	JoinedAt time.Time `json:"joinedAt"`
}

func NewTeamPlayers(rows []dbgen.TeamPlayerRow) []TeamPlayer {
	players := make([]TeamPlayer, 0, len(rows))
	for _, row := range rows {
		players = append(players, TeamPlayer{
			ID:       row.ID,
			Name:     row.Name,
			Email:    row.Email,
			Level:    nullInt64(row.Level),
			JoinedAt: row.JoinedAt.UTC(),
		})
	}
	return players
}
