package dbgen

import (
	"context"
	"database/sql"
	"time"
)

const createLeague = `
INSERT INTO leagues (name, gender, level, manager_id)
VALUES (?, ?, ?, ?)
RETURNING id, name, gender, level, manager_id, created_at
`

type CreateLeagueParams struct {
	Name      string         `json:"name"`
	Gender    sql.NullString `json:"gender"`
	Level     sql.NullInt64  `json:"level"`
	ManagerID int64          `json:"manager_id"`
}

func (q *Queries) CreateLeague(ctx context.Context, arg CreateLeagueParams) (League, error) {
	row := q.db.QueryRowContext(ctx, createLeague, arg.Name, arg.Gender, arg.Level, arg.ManagerID)
	var i League
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.Gender,
		&i.Level,
		&i.ManagerID,
		&i.CreatedAt,
	)
	return i, err
}

const getLeagueByID = `
SELECT id, name, gender, level, manager_id, created_at
FROM leagues
WHERE id = ?
`

func (q *Queries) GetLeagueByID(ctx context.Context, id int64) (League, error) {
	row := q.db.QueryRowContext(ctx, getLeagueByID, id)
	var i League
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.Gender,
		&i.Level,
		&i.ManagerID,
		&i.CreatedAt,
	)
	return i, err
}

const createTeam = `
INSERT INTO teams (name, captain_id, league_id)
VALUES (?, ?, ?)
RETURNING id, name, captain_id, league_id, created_at
`

type CreateTeamParams struct {
	Name      string        `json:"name"`
	CaptainID int64         `json:"captain_id"`
	LeagueID  sql.NullInt64 `json:"league_id"`
}

func (q *Queries) CreateTeam(ctx context.Context, arg CreateTeamParams) (Team, error) {
	row := q.db.QueryRowContext(ctx, createTeam, arg.Name, arg.CaptainID, arg.LeagueID)
	var i Team
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.CaptainID,
		&i.LeagueID,
		&i.CreatedAt,
	)
	return i, err
}

const getTeamByID = `
SELECT id, name, captain_id, league_id, created_at
FROM teams
WHERE id = ?
`

func (q *Queries) GetTeamByID(ctx context.Context, id int64) (Team, error) {
	row := q.db.QueryRowContext(ctx, getTeamByID, id)
	var i Team
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.CaptainID,
		&i.LeagueID,
		&i.CreatedAt,
	)
	return i, err
}

const listTeamsByCaptain = `
SELECT id, name, captain_id, league_id, created_at
FROM teams
WHERE captain_id = ?
ORDER BY name, id
`

func (q *Queries) ListTeamsByCaptain(ctx context.Context, captainID int64) ([]Team, error) {
	rows, err := q.db.QueryContext(ctx, listTeamsByCaptain, captainID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Team
	for rows.Next() {
		var i Team
		if err := rows.Scan(
			&i.ID,
			&i.Name,
			&i.CaptainID,
			&i.LeagueID,
			&i.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const addTeamPlayer = `
INSERT INTO team_players (team_id, player_id)
VALUES (?, ?)
ON CONFLICT (team_id, player_id) DO NOTHING
`

type AddTeamPlayerParams struct {
	TeamID   int64 `json:"team_id"`
	PlayerID int64 `json:"player_id"`
}

// AddTeamPlayer returns the number of rows inserted: 0 when the membership
// already existed.
func (q *Queries) AddTeamPlayer(ctx context.Context, arg AddTeamPlayerParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, addTeamPlayer, arg.TeamID, arg.PlayerID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const countTeamPlayers = `
SELECT COUNT(*) FROM team_players WHERE team_id = ?
`

func (q *Queries) CountTeamPlayers(ctx context.Context, teamID int64) (int64, error) {
	row := q.db.QueryRowContext(ctx, countTeamPlayers, teamID)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const isTeamPlayer = `
SELECT EXISTS (SELECT 1 FROM team_players WHERE team_id = ? AND player_id = ?)
`

type IsTeamPlayerParams struct {
	TeamID   int64 `json:"team_id"`
	PlayerID int64 `json:"player_id"`
}

func (q *Queries) IsTeamPlayer(ctx context.Context, arg IsTeamPlayerParams) (bool, error) {
	row := q.db.QueryRowContext(ctx, isTeamPlayer, arg.TeamID, arg.PlayerID)
	var exists bool
	err := row.Scan(&exists)
	return exists, err
}

const listLeagues = `
SELECT id, name, gender, level, manager_id, created_at
FROM leagues
ORDER BY name, id
`

func (q *Queries) ListLeagues(ctx context.Context) ([]League, error) {
	rows, err := q.db.QueryContext(ctx, listLeagues)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []League
	for rows.Next() {
		var i League
		if err := rows.Scan(
			&i.ID,
			&i.Name,
			&i.Gender,
			&i.Level,
			&i.ManagerID,
			&i.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listTeamsByLeague = `
SELECT t.id, t.name, t.captain_id, u.name AS captain_name,
       (SELECT COUNT(*) FROM team_players tp WHERE tp.team_id = t.id) AS player_count
FROM teams t
JOIN users u ON u.id = t.captain_id
WHERE t.league_id = ?
ORDER BY t.name, t.id
`

type LeagueTeamRow struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	CaptainID   int64  `json:"captain_id"`
	CaptainName string `json:"captain_name"`
	PlayerCount int64  `json:"player_count"`
}

func (q *Queries) ListTeamsByLeague(ctx context.Context, leagueID int64) ([]LeagueTeamRow, error) {
	rows, err := q.db.QueryContext(ctx, listTeamsByLeague, leagueID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []LeagueTeamRow
	for rows.Next() {
		var i LeagueTeamRow
		if err := rows.Scan(
			&i.ID,
			&i.Name,
			&i.CaptainID,
			&i.CaptainName,
			&i.PlayerCount,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listTeamPlayers = `
SELECT u.id, u.name, u.email, u.level, tp.joined_at
FROM team_players tp
JOIN users u ON u.id = tp.player_id
WHERE tp.team_id = ?
ORDER BY u.name, u.id
`

type TeamPlayerRow struct {
	ID       int64         `json:"id"`
	Name     string        `json:"name"`
	Email    string        `json:"email"`
	Level    sql.NullInt64 `json:"level"`
	JoinedAt time.Time     `json:"joined_at"`
}

func (q *Queries) ListTeamPlayers(ctx context.Context, teamID int64) ([]TeamPlayerRow, error) {
	rows, err := q.db.QueryContext(ctx, listTeamPlayers, teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []TeamPlayerRow
	for rows.Next() {
		var i TeamPlayerRow
		if err := rows.Scan(
			&i.ID,
			&i.Name,
			&i.Email,
			&i.Level,
			&i.JoinedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const removeTeamPlayer = `
DELETE FROM team_players
WHERE team_id = ? AND player_id = ?
`

type RemoveTeamPlayerParams struct {
	TeamID   int64 `json:"team_id"`
	PlayerID int64 `json:"player_id"`
}

func (q *Queries) RemoveTeamPlayer(ctx context.Context, arg RemoveTeamPlayerParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, removeTeamPlayer, arg.TeamID, arg.PlayerID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
