package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/codr1/leaguedesk/internal/db"
	dbgen "github.com/codr1/leaguedesk/internal/db/generated"
)

var fixtureSeq atomic.Int64

// CreateUser inserts an APPROVED user with the given role and a unique email.
func CreateUser(t *testing.T, database *db.DB, role string) dbgen.User {
	t.Helper()
	return CreateUserWithStatus(t, database, role, "APPROVED")
}

func CreateUserWithStatus(t *testing.T, database *db.DB, role, status string) dbgen.User {
	t.Helper()

	n := fixtureSeq.Add(1)
	user, err := database.Queries.CreateUser(context.Background(), dbgen.CreateUserParams{
		Email:  fmt.Sprintf("user%d@example.com", n),
		Name:   fmt.Sprintf("User %d", n),
		Role:   role,
		Status: status,
	})
	if err != nil {
		t.Fatalf("create %s user: %v", role, err)
	}
	return user
}

func CreateLeague(t *testing.T, database *db.DB, managerID int64) dbgen.League {
	t.Helper()

	league, err := database.Queries.CreateLeague(context.Background(), dbgen.CreateLeagueParams{
		Name:      fmt.Sprintf("League %d", fixtureSeq.Add(1)),
		ManagerID: managerID,
	})
	if err != nil {
		t.Fatalf("create league: %v", err)
	}
	return league
}

func CreateTeam(t *testing.T, database *db.DB, captainID int64, leagueID int64) dbgen.Team {
	t.Helper()

	var league sql.NullInt64
	if leagueID > 0 {
		league = sql.NullInt64{Int64: leagueID, Valid: true}
	}
	team, err := database.Queries.CreateTeam(context.Background(), dbgen.CreateTeamParams{
		Name:      fmt.Sprintf("Team %d", fixtureSeq.Add(1)),
		CaptainID: captainID,
		LeagueID:  league,
	})
	if err != nil {
		t.Fatalf("create team: %v", err)
	}
	return team
}

func CreateInvitation(t *testing.T, database *db.DB, teamID, playerID int64) dbgen.Invitation {
	t.Helper()

	invitation, err := database.Queries.CreateInvitation(context.Background(), dbgen.CreateInvitationParams{
		TeamID:   teamID,
		PlayerID: playerID,
	})
	if err != nil {
		t.Fatalf("create invitation: %v", err)
	}
	return invitation
}

func CreateMatchRequest(t *testing.T, database *db.DB, leagueID, requesterID, opponentID int64) dbgen.MatchRequest {
	t.Helper()

	request, err := database.Queries.CreateMatchRequest(context.Background(), dbgen.CreateMatchRequestParams{
		LeagueID:    leagueID,
		RequesterID: requesterID,
		OpponentID:  opponentID,
		Message:     "Good game?",
	})
	if err != nil {
		t.Fatalf("create match request: %v", err)
	}
	return request
}

func CreateNotification(t *testing.T, database *db.DB, userID int64, kind string) dbgen.Notification {
	t.Helper()

	notification, err := database.Queries.CreateNotification(context.Background(), dbgen.CreateNotificationParams{
		UserID:  userID,
		Kind:    kind,
		Message: "fixture notification",
	})
	if err != nil {
		t.Fatalf("create notification: %v", err)
	}
	return notification
}
