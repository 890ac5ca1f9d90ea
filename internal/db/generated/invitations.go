package dbgen

import (
	"context"
	"time"
)

const createInvitation = `
INSERT INTO invitations (team_id, player_id)
VALUES (?, ?)
RETURNING id, team_id, player_id, status, created_at, updated_at
`

type CreateInvitationParams struct {
	TeamID   int64 `json:"team_id"`
	PlayerID int64 `json:"player_id"`
}

func (q *Queries) CreateInvitation(ctx context.Context, arg CreateInvitationParams) (Invitation, error) {
	row := q.db.QueryRowContext(ctx, createInvitation, arg.TeamID, arg.PlayerID)
	var i Invitation
	err := row.Scan(
		&i.ID,
		&i.TeamID,
		&i.PlayerID,
		&i.Status,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const getInvitationByID = `
SELECT id, team_id, player_id, status, created_at, updated_at
FROM invitations
WHERE id = ?
`

func (q *Queries) GetInvitationByID(ctx context.Context, id int64) (Invitation, error) {
	row := q.db.QueryRowContext(ctx, getInvitationByID, id)
	var i Invitation
	err := row.Scan(
		&i.ID,
		&i.TeamID,
		&i.PlayerID,
		&i.Status,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const resolveInvitation = `
UPDATE invitations
SET status = ?, updated_at = CURRENT_TIMESTAMP
WHERE id = ? AND status = 'PENDING'
`

type ResolveInvitationParams struct {
	Status string `json:"status"`
	ID     int64  `json:"id"`
}

// ResolveInvitation only moves PENDING invitations and returns the number of
// rows changed.
func (q *Queries) ResolveInvitation(ctx context.Context, arg ResolveInvitationParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, resolveInvitation, arg.Status, arg.ID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const countPendingInvitationsForPlayer = `
SELECT COUNT(*) FROM invitations
WHERE player_id = ? AND status = 'PENDING'
`

func (q *Queries) CountPendingInvitationsForPlayer(ctx context.Context, playerID int64) (int64, error) {
	row := q.db.QueryRowContext(ctx, countPendingInvitationsForPlayer, playerID)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const countPendingInvitationsForCaptain = `
SELECT COUNT(*) FROM invitations i
JOIN teams t ON t.id = i.team_id
WHERE t.captain_id = ? AND i.status = 'PENDING'
`

func (q *Queries) CountPendingInvitationsForCaptain(ctx context.Context, captainID int64) (int64, error) {
	row := q.db.QueryRowContext(ctx, countPendingInvitationsForCaptain, captainID)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const listPendingInvitationsForPlayer = `
SELECT i.id, i.team_id, t.name, i.player_id, u.name, i.status, i.created_at
FROM invitations i
JOIN teams t ON t.id = i.team_id
JOIN users u ON u.id = i.player_id
WHERE i.player_id = ? AND i.status = 'PENDING'
ORDER BY i.created_at DESC, i.id DESC
`

type PendingInvitationRow struct {
	ID         int64     `json:"id"`
	TeamID     int64     `json:"team_id"`
	TeamName   string    `json:"team_name"`
	PlayerID   int64     `json:"player_id"`
	PlayerName string    `json:"player_name"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
}

func (q *Queries) ListPendingInvitationsForPlayer(ctx context.Context, playerID int64) ([]PendingInvitationRow, error) {
	return q.listPendingInvitations(ctx, listPendingInvitationsForPlayer, playerID)
}

const listPendingInvitationsForCaptain = `
SELECT i.id, i.team_id, t.name, i.player_id, u.name, i.status, i.created_at
FROM invitations i
JOIN teams t ON t.id = i.team_id
JOIN users u ON u.id = i.player_id
WHERE t.captain_id = ? AND i.status = 'PENDING'
ORDER BY i.created_at DESC, i.id DESC
`

func (q *Queries) ListPendingInvitationsForCaptain(ctx context.Context, captainID int64) ([]PendingInvitationRow, error) {
	return q.listPendingInvitations(ctx, listPendingInvitationsForCaptain, captainID)
}

func (q *Queries) listPendingInvitations(ctx context.Context, query string, userID int64) ([]PendingInvitationRow, error) {
	rows, err := q.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []PendingInvitationRow
	for rows.Next() {
		var i PendingInvitationRow
		if err := rows.Scan(
			&i.ID,
			&i.TeamID,
			&i.TeamName,
			&i.PlayerID,
			&i.PlayerName,
			&i.Status,
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
