package invitations

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/codr1/leaguedesk/internal/api/apiutil"
	"github.com/codr1/leaguedesk/internal/api/authz"
	"github.com/codr1/leaguedesk/internal/db"
	dbgen "github.com/codr1/leaguedesk/internal/db/generated"
	"github.com/codr1/leaguedesk/internal/models"
	"github.com/codr1/leaguedesk/internal/testutil"
)

type capturedEmail struct {
	recipient string
	subject   string
}

type captureSender struct {
	sent chan capturedEmail
}

func (c *captureSender) Send(ctx context.Context, recipient, subject, body string) error {
	c.sent <- capturedEmail{recipient: recipient, subject: subject}
	return nil
}

type inviteFixture struct {
	database   *db.DB
	captain    dbgen.User
	player     dbgen.User
	team       dbgen.Team
	invitation dbgen.Invitation
}

func setupInvitationsTest(t *testing.T) inviteFixture {
	t.Helper()

	prevDB, prevSender, prevBaseURL := database, emailSender, baseURL
	t.Cleanup(func() {
		InitHandlers(prevDB, prevSender, prevBaseURL)
	})
	testDB := testutil.NewTestDB(t)
	InitHandlers(testDB, nil, "http://localhost:8080")

	captain := testutil.CreateUser(t, testDB, "CAPTAIN")
	player := testutil.CreateUser(t, testDB, "PLAYER")
	team := testutil.CreateTeam(t, testDB, captain.ID, 0)
	invitation := testutil.CreateInvitation(t, testDB, team.ID, player.ID)

	return inviteFixture{
		database:   testDB,
		captain:    captain,
		player:     player,
		team:       team,
		invitation: invitation,
	}
}

func asUser(user dbgen.User) *authz.AuthUser {
	return &authz.AuthUser{
		ID:     user.ID,
		Email:  user.Email,
		Name:   user.Name,
		Role:   authz.Role(user.Role),
		Status: authz.Status(user.Status),
	}
}

func resolveRequestFor(t *testing.T, user *authz.AuthUser, invitationID int64, body string) *httptest.ResponseRecorder {
	t.Helper()

	id := strconv.FormatInt(invitationID, 10)
	req := httptest.NewRequest(http.MethodPatch, "/api/v1/invitations/"+id, bytes.NewBufferString(body))
	req.SetPathValue("id", id)
	if user != nil {
		req = req.WithContext(authz.ContextWithUser(req.Context(), user))
	}
	rec := httptest.NewRecorder()
	HandleResolveInvitation(rec, req)
	return rec
}

func countMembers(t *testing.T, database *db.DB, teamID int64) int64 {
	t.Helper()
	count, err := database.Queries.CountTeamPlayers(context.Background(), teamID)
	if err != nil {
		t.Fatalf("count team players: %v", err)
	}
	return count
}

func TestResolveInvitationAccept(t *testing.T) {
	fx := setupInvitationsTest(t)

	rec := resolveRequestFor(t, asUser(fx.player), fx.invitation.ID, `{"accept":true}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var got models.Invitation
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Status != models.InvitationAccepted {
		t.Fatalf("expected ACCEPTED, got %q", got.Status)
	}
	if n := countMembers(t, fx.database, fx.team.ID); n != 1 {
		t.Fatalf("expected 1 team player, got %d", n)
	}

	notes, err := fx.database.Queries.ListUnreadNotificationsForUser(context.Background(), dbgen.ListNotificationsForUserParams{
		UserID: fx.captain.ID,
		Limit:  10,
	})
	if err != nil {
		t.Fatalf("list notifications: %v", err)
	}
	if len(notes) != 1 || notes[0].Kind != models.NotificationInvitationAccepted {
		t.Fatalf("expected one INVITATION_ACCEPTED notification for captain, got %+v", notes)
	}
}

func TestResolveInvitationReject(t *testing.T) {
	fx := setupInvitationsTest(t)

	rec := resolveRequestFor(t, asUser(fx.player), fx.invitation.ID, `{"accept":false}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if n := countMembers(t, fx.database, fx.team.ID); n != 0 {
		t.Fatalf("expected no team players, got %d", n)
	}
	row, err := fx.database.Queries.GetInvitationByID(context.Background(), fx.invitation.ID)
	if err != nil {
		t.Fatalf("load invitation: %v", err)
	}
	if row.Status != models.InvitationRejected {
		t.Fatalf("expected REJECTED, got %q", row.Status)
	}
}

func TestResolveInvitationAccessControl(t *testing.T) {
	fx := setupInvitationsTest(t)
	stranger := testutil.CreateUser(t, fx.database, "PLAYER")
	pending := testutil.CreateUserWithStatus(t, fx.database, "PLAYER", "PENDING")

	tests := []struct {
		name string
		user *authz.AuthUser
		id   int64
		body string
		want int
	}{
		{"no session", nil, fx.invitation.ID, `{"accept":true}`, http.StatusUnauthorized},
		{"pending user", asUser(pending), fx.invitation.ID, `{"accept":true}`, http.StatusForbidden},
		{"not the invitee", asUser(stranger), fx.invitation.ID, `{"accept":true}`, http.StatusForbidden},
		{"captain cannot answer", asUser(fx.captain), fx.invitation.ID, `{"accept":true}`, http.StatusForbidden},
		{"missing invitation", asUser(fx.player), fx.invitation.ID + 100, `{"accept":true}`, http.StatusNotFound},
		{"missing accept", asUser(fx.player), fx.invitation.ID, `{}`, http.StatusBadRequest},
		{"unknown field", asUser(fx.player), fx.invitation.ID, `{"accept":true,"x":1}`, http.StatusBadRequest},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := resolveRequestFor(t, tc.user, tc.id, tc.body)
			if rec.Code != tc.want {
				t.Fatalf("expected %d, got %d: %s", tc.want, rec.Code, rec.Body.String())
			}
		})
	}

	row, err := fx.database.Queries.GetInvitationByID(context.Background(), fx.invitation.ID)
	if err != nil {
		t.Fatalf("load invitation: %v", err)
	}
	if row.Status != models.InvitationPending {
		t.Fatalf("rejected requests must not change the invitation, got %q", row.Status)
	}
}

func TestResolveInvitationSuperAdmin(t *testing.T) {
	fx := setupInvitationsTest(t)
	admin := testutil.CreateUser(t, fx.database, "SUPERADMIN")

	rec := resolveRequestFor(t, asUser(admin), fx.invitation.ID, `{"accept":true}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if n := countMembers(t, fx.database, fx.team.ID); n != 1 {
		t.Fatalf("expected invitee added to team, got %d players", n)
	}
}

func TestResolveInvitationAlreadyResolved(t *testing.T) {
	for _, first := range []string{`{"accept":true}`, `{"accept":false}`} {
		t.Run(first, func(t *testing.T) {
			fx := setupInvitationsTest(t)
			user := asUser(fx.player)

			if rec := resolveRequestFor(t, user, fx.invitation.ID, first); rec.Code != http.StatusOK {
				t.Fatalf("first resolve: expected 200, got %d", rec.Code)
			}
			before, err := fx.database.Queries.GetInvitationByID(context.Background(), fx.invitation.ID)
			if err != nil {
				t.Fatalf("load invitation: %v", err)
			}
			members := countMembers(t, fx.database, fx.team.ID)

			rec := resolveRequestFor(t, user, fx.invitation.ID, `{"accept":true}`)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
			}

			after, err := fx.database.Queries.GetInvitationByID(context.Background(), fx.invitation.ID)
			if err != nil {
				t.Fatalf("load invitation: %v", err)
			}
			if after.Status != before.Status || !after.UpdatedAt.Equal(before.UpdatedAt) {
				t.Fatalf("invitation changed: before %+v after %+v", before, after)
			}
			if got := countMembers(t, fx.database, fx.team.ID); got != members {
				t.Fatalf("team players changed from %d to %d", members, got)
			}
		})
	}
}

func TestResolveInvitationConcurrentAccept(t *testing.T) {
	fx := setupInvitationsTest(t)
	user := asUser(fx.player)

	const attempts = 2
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := Resolve(context.Background(), fx.database, user, fx.invitation.ID, true)
			mu.Lock()
			defer mu.Unlock()
			var handlerErr apiutil.HandlerError
			switch {
			case err == nil:
				successes++
			case errors.As(err, &handlerErr) && handlerErr.Status == http.StatusBadRequest:
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if successes != 1 || conflicts != attempts-1 {
		t.Fatalf("expected 1 success and %d conflicts, got %d and %d", attempts-1, successes, conflicts)
	}
	if n := countMembers(t, fx.database, fx.team.ID); n != 1 {
		t.Fatalf("expected exactly one team player row, got %d", n)
	}
}

func createRequestFor(t *testing.T, user *authz.AuthUser, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/invitations", bytes.NewBufferString(body))
	req = req.WithContext(authz.ContextWithUser(req.Context(), user))
	rec := httptest.NewRecorder()
	HandleCreateInvitation(rec, req)
	return rec
}

func TestCreateInvitation(t *testing.T) {
	fx := setupInvitationsTest(t)
	recruit := testutil.CreateUser(t, fx.database, "PLAYER")
	otherCaptain := testutil.CreateUser(t, fx.database, "CAPTAIN")
	pending := testutil.CreateUserWithStatus(t, fx.database, "PLAYER", "PENDING")
	manager := testutil.CreateUser(t, fx.database, "MANAGER")

	body := func(teamID, playerID int64) string {
		return `{"teamId":` + strconv.FormatInt(teamID, 10) + `,"playerId":` + strconv.FormatInt(playerID, 10) + `}`
	}

	rec := createRequestFor(t, asUser(fx.captain), body(fx.team.ID, recruit.ID))
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	notes, err := fx.database.Queries.ListUnreadNotificationsForUser(context.Background(), dbgen.ListNotificationsForUserParams{
		UserID: recruit.ID,
		Limit:  10,
	})
	if err != nil {
		t.Fatalf("list notifications: %v", err)
	}
	if len(notes) != 1 || notes[0].Kind != models.NotificationInvitationReceived {
		t.Fatalf("expected INVITATION_RECEIVED for recruit, got %+v", notes)
	}

	tests := []struct {
		name string
		user *authz.AuthUser
		body string
		want int
	}{
		{"duplicate pending", asUser(fx.captain), body(fx.team.ID, recruit.ID), http.StatusBadRequest},
		{"other captain's team", asUser(otherCaptain), body(fx.team.ID, testutil.CreateUser(t, fx.database, "PLAYER").ID), http.StatusForbidden},
		{"player cannot invite", asUser(fx.player), body(fx.team.ID, recruit.ID), http.StatusForbidden},
		{"pending invitee", asUser(fx.captain), body(fx.team.ID, pending.ID), http.StatusBadRequest},
		{"missing team", asUser(fx.captain), body(fx.team.ID+100, recruit.ID), http.StatusNotFound},
		{"missing player", asUser(fx.captain), body(fx.team.ID, recruit.ID+100), http.StatusNotFound},
		{"missing ids", asUser(fx.captain), `{}`, http.StatusBadRequest},
		{"manager any team", asUser(manager), body(fx.team.ID, testutil.CreateUser(t, fx.database, "PLAYER").ID), http.StatusCreated},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := createRequestFor(t, tc.user, tc.body)
			if rec.Code != tc.want {
				t.Fatalf("expected %d, got %d: %s", tc.want, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestCreateInvitationExistingMember(t *testing.T) {
	fx := setupInvitationsTest(t)
	if _, err := Resolve(context.Background(), fx.database, asUser(fx.player), fx.invitation.ID, true); err != nil {
		t.Fatalf("accept: %v", err)
	}

	rec := createRequestFor(t, asUser(fx.captain), `{"teamId":`+strconv.FormatInt(fx.team.ID, 10)+`,"playerId":`+strconv.FormatInt(fx.player.ID, 10)+`}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestInvitationsListAndCount(t *testing.T) {
	fx := setupInvitationsTest(t)
	manager := testutil.CreateUser(t, fx.database, "MANAGER")

	tests := []struct {
		name string
		user dbgen.User
		want int
	}{
		{"player sees own", fx.player, 1},
		{"captain sees sent", fx.captain, 1},
		{"manager sees none", manager, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ctx := authz.ContextWithUser(context.Background(), asUser(tc.user))

			req := httptest.NewRequest(http.MethodGet, "/api/v1/invitations", nil).WithContext(ctx)
			rec := httptest.NewRecorder()
			HandleInvitationsList(rec, req)
			if rec.Code != http.StatusOK {
				t.Fatalf("list: expected 200, got %d", rec.Code)
			}
			var list struct {
				Invitations []models.Invitation `json:"invitations"`
			}
			if err := json.NewDecoder(rec.Body).Decode(&list); err != nil {
				t.Fatalf("decode list: %v", err)
			}
			if len(list.Invitations) != tc.want {
				t.Fatalf("list: expected %d, got %d", tc.want, len(list.Invitations))
			}

			req = httptest.NewRequest(http.MethodGet, "/api/v1/invitations/count", nil).WithContext(ctx)
			rec = httptest.NewRecorder()
			HandleInvitationCount(rec, req)
			var count struct {
				Count int `json:"count"`
			}
			if err := json.NewDecoder(rec.Body).Decode(&count); err != nil {
				t.Fatalf("decode count: %v", err)
			}
			if count.Count != tc.want {
				t.Fatalf("count: expected %d, got %d", tc.want, count.Count)
			}
		})
	}
}

func TestResolveInvitationEmailsCaptain(t *testing.T) {
	fx := setupInvitationsTest(t)
	sender := &captureSender{sent: make(chan capturedEmail, 1)}
	InitHandlers(fx.database, sender, "http://localhost:8080")

	rec := resolveRequestFor(t, asUser(fx.player), fx.invitation.ID, `{"accept":true}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	select {
	case msg := <-sender.sent:
		if msg.recipient != fx.captain.Email {
			t.Fatalf("expected email to %q, got %q", fx.captain.Email, msg.recipient)
		}
		if !strings.Contains(msg.subject, "accepted") {
			t.Fatalf("unexpected subject %q", msg.subject)
		}
	case <-time.After(time.Second):
		t.Fatal("expected the captain to be emailed")
	}
}
