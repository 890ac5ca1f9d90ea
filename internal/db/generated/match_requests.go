package dbgen

import (
	"context"
	"database/sql"
	"time"
)

const matchRequestColumns = `id, league_id, requester_id, opponent_id, proposed_at, message, status, created_at, updated_at`

func scanMatchRequest(row interface{ Scan(...interface{}) error }) (MatchRequest, error) {
	var i MatchRequest
	err := row.Scan(
		&i.ID,
		&i.LeagueID,
		&i.RequesterID,
		&i.OpponentID,
		&i.ProposedAt,
		&i.Message,
		&i.Status,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const createMatchRequest = `
INSERT INTO match_requests (league_id, requester_id, opponent_id, proposed_at, message)
VALUES (?, ?, ?, ?, ?)
RETURNING ` + matchRequestColumns + `
`

type CreateMatchRequestParams struct {
	LeagueID    int64        `json:"league_id"`
	RequesterID int64        `json:"requester_id"`
	OpponentID  int64        `json:"opponent_id"`
	ProposedAt  sql.NullTime `json:"proposed_at"`
	Message     string       `json:"message"`
}

func (q *Queries) CreateMatchRequest(ctx context.Context, arg CreateMatchRequestParams) (MatchRequest, error) {
	row := q.db.QueryRowContext(ctx, createMatchRequest,
		arg.LeagueID,
		arg.RequesterID,
		arg.OpponentID,
		arg.ProposedAt,
		arg.Message,
	)
	return scanMatchRequest(row)
}

const getMatchRequestByID = `
SELECT ` + matchRequestColumns + `
FROM match_requests
WHERE id = ?
`

func (q *Queries) GetMatchRequestByID(ctx context.Context, id int64) (MatchRequest, error) {
	row := q.db.QueryRowContext(ctx, getMatchRequestByID, id)
	return scanMatchRequest(row)
}

const resolveMatchRequest = `
UPDATE match_requests
SET status = ?, updated_at = CURRENT_TIMESTAMP
WHERE id = ? AND status = 'PENDING'
`

type ResolveMatchRequestParams struct {
	Status string `json:"status"`
	ID     int64  `json:"id"`
}

func (q *Queries) ResolveMatchRequest(ctx context.Context, arg ResolveMatchRequestParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, resolveMatchRequest, arg.Status, arg.ID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const countPendingMatchRequestsForOpponent = `
SELECT COUNT(*) FROM match_requests
WHERE opponent_id = ? AND status = 'PENDING'
`

func (q *Queries) CountPendingMatchRequestsForOpponent(ctx context.Context, opponentID int64) (int64, error) {
	row := q.db.QueryRowContext(ctx, countPendingMatchRequestsForOpponent, opponentID)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const listPendingMatchRequestsForOpponent = `
SELECT mr.id, mr.league_id, l.name, mr.requester_id, u.name, mr.opponent_id, mr.proposed_at, mr.message, mr.status, mr.created_at
FROM match_requests mr
JOIN leagues l ON l.id = mr.league_id
JOIN users u ON u.id = mr.requester_id
WHERE mr.opponent_id = ? AND mr.status = 'PENDING'
ORDER BY mr.created_at DESC, mr.id DESC
`

type PendingMatchRequestRow struct {
	ID            int64        `json:"id"`
	LeagueID      int64        `json:"league_id"`
	LeagueName    string       `json:"league_name"`
	RequesterID   int64        `json:"requester_id"`
	RequesterName string       `json:"requester_name"`
	OpponentID    int64        `json:"opponent_id"`
	ProposedAt    sql.NullTime `json:"proposed_at"`
	Message       string       `json:"message"`
	Status        string       `json:"status"`
	CreatedAt     time.Time    `json:"created_at"`
}

func (q *Queries) ListPendingMatchRequestsForOpponent(ctx context.Context, opponentID int64) ([]PendingMatchRequestRow, error) {
	rows, err := q.db.QueryContext(ctx, listPendingMatchRequestsForOpponent, opponentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []PendingMatchRequestRow
	for rows.Next() {
		var i PendingMatchRequestRow
		if err := rows.Scan(
			&i.ID,
			&i.LeagueID,
			&i.LeagueName,
			&i.RequesterID,
			&i.RequesterName,
			&i.OpponentID,
			&i.ProposedAt,
			&i.Message,
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

const cancelExpiredMatchRequests = `
UPDATE match_requests
SET status = 'CANCELLED', updated_at = CURRENT_TIMESTAMP
WHERE status = 'PENDING'
  AND proposed_at IS NOT NULL
  AND datetime(proposed_at) < datetime(?)
`

// CancelExpiredMatchRequests cancels pending requests whose proposed time is
// before the cutoff.
func (q *Queries) CancelExpiredMatchRequests(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := q.db.ExecContext(ctx, cancelExpiredMatchRequests, cutoff.UTC())
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const createMatch = `
INSERT INTO matches (league_id, match_request_id, home_user_id, away_user_id, scheduled_at)
VALUES (?, ?, ?, ?, ?)
RETURNING id, league_id, match_request_id, home_user_id, away_user_id, scheduled_at, status, created_at
`

type CreateMatchParams struct {
	LeagueID       int64         `json:"league_id"`
	MatchRequestID sql.NullInt64 `json:"match_request_id"`
	HomeUserID     int64         `json:"home_user_id"`
	AwayUserID     int64         `json:"away_user_id"`
	ScheduledAt    sql.NullTime  `json:"scheduled_at"`
}

func (q *Queries) CreateMatch(ctx context.Context, arg CreateMatchParams) (Match, error) {
	row := q.db.QueryRowContext(ctx, createMatch,
		arg.LeagueID,
		arg.MatchRequestID,
		arg.HomeUserID,
		arg.AwayUserID,
		arg.ScheduledAt,
	)
	var i Match
	err := row.Scan(
		&i.ID,
		&i.LeagueID,
		&i.MatchRequestID,
		&i.HomeUserID,
		&i.AwayUserID,
		&i.ScheduledAt,
		&i.Status,
		&i.CreatedAt,
	)
	return i, err
}
