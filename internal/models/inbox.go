package models

import (
	"database/sql"
	"time"

	dbgen "github.com/codr1/leaguedesk/internal/db/generated"
)

const (
	InvitationPending  = "PENDING"
	InvitationAccepted = "ACCEPTED"
	InvitationRejected = "REJECTED"

	MatchRequestPending   = "PENDING"
	MatchRequestAccepted  = "ACCEPTED"
	MatchRequestRejected  = "REJECTED"
	MatchRequestCancelled = "CANCELLED"
)

// Notification kinds.
const (
	NotificationInvitationReceived   = "INVITATION_RECEIVED"
	NotificationInvitationAccepted   = "INVITATION_ACCEPTED"
	NotificationInvitationRejected   = "INVITATION_REJECTED"
	NotificationMatchRequestReceived = "MATCH_REQUEST_RECEIVED"
	NotificationMatchRequestAccepted = "MATCH_REQUEST_ACCEPTED"
	NotificationMatchRequestRejected = "MATCH_REQUEST_REJECTED"
	NotificationAccountApproved      = "ACCOUNT_APPROVED"
)

type Invitation struct {
	ID         int64     `json:"id"`
	TeamID     int64     `json:"teamId"`
	TeamName   string    `json:"teamName,omitempty"`
	PlayerID   int64     `json:"playerId"`
	PlayerName string    `json:"playerName,omitempty"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"createdAt"`
}

func NewInvitation(row dbgen.Invitation) Invitation {
	return Invitation{
		ID:        row.ID,
		TeamID:    row.TeamID,
		PlayerID:  row.PlayerID,
		Status:    row.Status,
		CreatedAt: row.CreatedAt.UTC(),
	}
}

func NewPendingInvitations(rows []dbgen.PendingInvitationRow) []Invitation {
	invitations := make([]Invitation, 0, len(rows))
	for _, row := range rows {
		invitations = append(invitations, Invitation{
			ID:         row.ID,
			TeamID:     row.TeamID,
			TeamName:   row.TeamName,
			PlayerID:   row.PlayerID,
			PlayerName: row.PlayerName,
			Status:     row.Status,
			CreatedAt:  row.CreatedAt.UTC(),
		})
	}
	return invitations
}

type Notification struct {
	ID             int64     `json:"id"`
	Kind           string    `json:"kind"`
	Message        string    `json:"message"`
	Read           bool      `json:"read"`
	MatchRequestID *int64    `json:"matchRequestId,omitempty"`
	MatchID        *int64    `json:"matchId,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

func NewNotification(row dbgen.Notification) Notification {
	return Notification{
		ID:             row.ID,
		Kind:           row.Kind,
		Message:        row.Message,
		Read:           row.IsRead,
		MatchRequestID: nullInt64(row.MatchRequestID),
		MatchID:        nullInt64(row.MatchID),
		CreatedAt:      row.CreatedAt.UTC(),
	}
}

func NewNotifications(rows []dbgen.Notification) []Notification {
	notifications := make([]Notification, 0, len(rows))
	for _, row := range rows {
		notifications = append(notifications, NewNotification(row))
	}
	return notifications
}

type MatchRequest struct {
	ID            int64      `json:"id"`
	LeagueID      int64      `json:"leagueId"`
	LeagueName    string     `json:"leagueName,omitempty"`
	RequesterID   int64      `json:"requesterId"`
	RequesterName string     `json:"requesterName,omitempty"`
	OpponentID    int64      `json:"opponentId"`
	ProposedAt    *time.Time `json:"proposedAt,omitempty"`
	Message       string     `json:"message"`
	Status        string     `json:"status"`
	CreatedAt     time.Time  `json:"createdAt"`
}

func NewMatchRequest(row dbgen.MatchRequest) MatchRequest {
	return MatchRequest{
		ID:          row.ID,
		LeagueID:    row.LeagueID,
		RequesterID: row.RequesterID,
		OpponentID:  row.OpponentID,
		ProposedAt:  nullTime(row.ProposedAt),
		Message:     row.Message,
		Status:      row.Status,
		CreatedAt:   row.CreatedAt.UTC(),
	}
}

func NewPendingMatchRequests(rows []dbgen.PendingMatchRequestRow) []MatchRequest {
	requests := make([]MatchRequest, 0, len(rows))
	for _, row := range rows {
		requests = append(requests, MatchRequest{
			ID:            row.ID,
			LeagueID:      row.LeagueID,
			LeagueName:    row.LeagueName,
			RequesterID:   row.RequesterID,
			RequesterName: row.RequesterName,
			OpponentID:    row.OpponentID,
			ProposedAt:    nullTime(row.ProposedAt),
			Message:       row.Message,
			Status:        row.Status,
			CreatedAt:     row.CreatedAt.UTC(),
		})
	}
	return requests
}

type Match struct {
	ID             int64      `json:"id"`
	LeagueID       int64      `json:"leagueId"`
	MatchRequestID *int64     `json:"matchRequestId,omitempty"`
	HomeUserID     int64      `json:"homeUserId"`
	AwayUserID     int64      `json:"awayUserId"`
	ScheduledAt    *time.Time `json:"scheduledAt,omitempty"`
	Status         string     `json:"status"`
}

func NewMatch(row dbgen.Match) Match {
	return Match{
		ID:             row.ID,
		LeagueID:       row.LeagueID,
		MatchRequestID: nullInt64(row.MatchRequestID),
		HomeUserID:     row.HomeUserID,
		AwayUserID:     row.AwayUserID,
		ScheduledAt:    nullTime(row.ScheduledAt),
		Status:         row.Status,
	}
}

func nullString(value sql.NullString) *string {
	if !value.Valid {
		return nil
	}
	v := value.String
	return &v
}

func nullInt64(value sql.NullInt64) *int64 {
	if !value.Valid {
		return nil
	}
	v := value.Int64
	return &v
}

func nullTime(value sql.NullTime) *time.Time {
	if !value.Valid {
		return nil
	}
	v := value.Time.UTC()
	return &v
}
