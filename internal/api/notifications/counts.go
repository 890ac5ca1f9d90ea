package notifications

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/codr1/leaguedesk/internal/api/authz"
)

// Counts is the badge data shown in the navigation bar.
type Counts struct {
	Unread        int64 `json:"unread"`
	Invitations   int64 `json:"invitations"`
	MatchRequests int64 `json:"matchRequests"`
	Total         int64 `json:"total"`
}

type countQuerier interface {
	CountUnreadNotifications(ctx context.Context, userID int64) (int64, error)
	CountPendingInvitationsForPlayer(ctx context.Context, playerID int64) (int64, error)
	CountPendingInvitationsForCaptain(ctx context.Context, captainID int64) (int64, error)
	CountPendingMatchRequestsForOpponent(ctx context.Context, opponentID int64) (int64, error)
}

// PendingInvitationCount counts invitations awaiting the user: those
// addressed to a PLAYER, or to any team a CAPTAIN leads. Other roles have
// none.
func PendingInvitationCount(ctx context.Context, q countQuerier, userID int64, role authz.Role) (int64, error) {
	switch role {
	case authz.RolePlayer:
		return q.CountPendingInvitationsForPlayer(ctx, userID)
	case authz.RoleCaptain:
		return q.CountPendingInvitationsForCaptain(ctx, userID)
	default:
		return 0, nil
	}
}

// CountForUser runs the three independent counts concurrently and sums them.
func CountForUser(ctx context.Context, q countQuerier, userID int64, role authz.Role) (Counts, error) {
	var counts Counts
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		n, err := q.CountUnreadNotifications(gctx, userID)
		counts.Unread = n
		return err
	})
	g.Go(func() error {
		n, err := PendingInvitationCount(gctx, q, userID, role)
		counts.Invitations = n
		return err
	})
	g.Go(func() error {
		n, err := q.CountPendingMatchRequestsForOpponent(gctx, userID)
		counts.MatchRequests = n
		return err
	})

	if err := g.Wait(); err != nil {
		return Counts{}, err
	}
	counts.Total = counts.Unread + counts.Invitations + counts.MatchRequests
	return counts, nil
}
