package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/codr1/leaguedesk/internal/api/authz"
	"github.com/codr1/leaguedesk/internal/db"
	dbgen "github.com/codr1/leaguedesk/internal/db/generated"
	"github.com/codr1/leaguedesk/internal/models"
	"github.com/codr1/leaguedesk/internal/testutil"
)

type countFixture struct {
	database *db.DB
	player   dbgen.User
	captain  dbgen.User
	rival    dbgen.User
}

func setupNotificationsTest(t *testing.T) countFixture {
	t.Helper()

	database := testutil.NewTestDB(t)
	prevQueries := queries
	t.Cleanup(func() {
		queries = prevQueries
	})
	InitHandlers(database.Queries)

	manager := testutil.CreateUser(t, database, "MANAGER")
	captain := testutil.CreateUser(t, database, "CAPTAIN")
	player := testutil.CreateUser(t, database, "PLAYER")
	rival := testutil.CreateUser(t, database, "PLAYER")
	league := testutil.CreateLeague(t, database, manager.ID)

	teamA := testutil.CreateTeam(t, database, captain.ID, league.ID)
	teamB := testutil.CreateTeam(t, database, captain.ID, league.ID)
	testutil.CreateInvitation(t, database, teamA.ID, player.ID)
	testutil.CreateInvitation(t, database, teamB.ID, player.ID)
	resolved := testutil.CreateInvitation(t, database, teamA.ID, rival.ID)
	if _, err := database.Queries.ResolveInvitation(context.Background(), dbgen.ResolveInvitationParams{
		Status: models.InvitationRejected,
		ID:     resolved.ID,
	}); err != nil {
		t.Fatalf("resolve invitation: %v", err)
	}

	testutil.CreateMatchRequest(t, database, league.ID, rival.ID, player.ID)
	testutil.CreateMatchRequest(t, database, league.ID, player.ID, rival.ID)

	testutil.CreateNotification(t, database, player.ID, models.NotificationInvitationReceived)
	testutil.CreateNotification(t, database, player.ID, models.NotificationMatchRequestReceived)
	read := testutil.CreateNotification(t, database, player.ID, models.NotificationAccountApproved)
	if _, err := database.Queries.MarkNotificationRead(context.Background(), dbgen.MarkNotificationReadParams{ID: read.ID, UserID: player.ID}); err != nil {
		t.Fatalf("mark read: %v", err)
	}
	testutil.CreateNotification(t, database, captain.ID, models.NotificationInvitationAccepted)

	return countFixture{database: database, player: player, captain: captain, rival: rival}
}

func requestAs(req *http.Request, user dbgen.User) *http.Request {
	return req.WithContext(authz.ContextWithUser(req.Context(), &authz.AuthUser{
		ID:     user.ID,
		Role:   authz.Role(user.Role),
		Status: authz.Status(user.Status),
	}))
}

func TestCountForUserSumsComponents(t *testing.T) {
	fx := setupNotificationsTest(t)
	ctx := context.Background()

	tests := []struct {
		name string
		user dbgen.User
		want Counts
	}{
		{"player", fx.player, Counts{Unread: 2, Invitations: 2, MatchRequests: 1}},
		{"captain", fx.captain, Counts{Unread: 1, Invitations: 2, MatchRequests: 0}},
		{"rival", fx.rival, Counts{Unread: 0, Invitations: 0, MatchRequests: 1}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := CountForUser(ctx, fx.database.Queries, tc.user.ID, authz.Role(tc.user.Role))
			if err != nil {
				t.Fatalf("count: %v", err)
			}
			tc.want.Total = tc.want.Unread + tc.want.Invitations + tc.want.MatchRequests
			if got != tc.want {
				t.Fatalf("CountForUser = %+v, want %+v", got, tc.want)
			}
			if got.Total != got.Unread+got.Invitations+got.MatchRequests {
				t.Fatalf("total %d is not the sum of %+v", got.Total, got)
			}
		})
	}
}

func TestPendingInvitationCountIgnoresOtherRoles(t *testing.T) {
	fx := setupNotificationsTest(t)

	for _, role := range []authz.Role{authz.RoleManager, authz.RoleSuperAdmin} {
		n, err := PendingInvitationCount(context.Background(), fx.database.Queries, fx.player.ID, role)
		if err != nil {
			t.Fatalf("count: %v", err)
		}
		if n != 0 {
			t.Fatalf("expected 0 invitations for %s, got %d", role, n)
		}
	}
}

type failingCounter struct{}

func (failingCounter) CountUnreadNotifications(context.Context, int64) (int64, error) {
	return 3, nil
}
func (failingCounter) CountPendingInvitationsForPlayer(context.Context, int64) (int64, error) {
	return 0, errors.New("boom")
}
func (failingCounter) CountPendingInvitationsForCaptain(context.Context, int64) (int64, error) {
	return 0, nil
}
func (failingCounter) CountPendingMatchRequestsForOpponent(context.Context, int64) (int64, error) {
	return 1, nil
}

func TestCountForUserPropagatesErrors(t *testing.T) {
	counts, err := CountForUser(context.Background(), failingCounter{}, 1, authz.RolePlayer)
	if err == nil {
		t.Fatal("expected error")
	}
	if counts != (Counts{}) {
		t.Fatalf("expected zero counts on error, got %+v", counts)
	}
}

func TestHandleNotificationCount(t *testing.T) {
	fx := setupNotificationsTest(t)

	req := requestAs(httptest.NewRequest(http.MethodGet, "/api/v1/notifications/count", nil), fx.player)
	rec := httptest.NewRecorder()
	HandleNotificationCount(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var got Counts
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Total != 5 {
		t.Fatalf("expected total 5, got %+v", got)
	}
}

func TestHandlersRequireSession(t *testing.T) {
	setupNotificationsTest(t)

	handlers := map[string]http.HandlerFunc{
		"list":     HandleNotificationsList,
		"count":    HandleNotificationCount,
		"read":     HandleNotificationRead,
		"read-all": HandleMarkAllRead,
	}
	for name, handler := range handlers {
		t.Run(name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handler(rec, httptest.NewRequest(http.MethodGet, "/api/v1/notifications", nil))
			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d", rec.Code)
			}
		})
	}
}

func TestHandlersRejectPendingUsers(t *testing.T) {
	fx := setupNotificationsTest(t)
	pending := testutil.CreateUserWithStatus(t, fx.database, "PLAYER", "PENDING")

	rec := httptest.NewRecorder()
	HandleNotificationCount(rec, requestAs(httptest.NewRequest(http.MethodGet, "/api/v1/notifications/count", nil), pending))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestHandleNotificationsListUnreadOnly(t *testing.T) {
	fx := setupNotificationsTest(t)

	tests := []struct {
		query string
		want  int
		code  int
	}{
		{"", 3, http.StatusOK},
		{"?unreadOnly=true", 2, http.StatusOK},
		{"?unreadOnly=false", 3, http.StatusOK},
		{"?unreadOnly=maybe", 0, http.StatusBadRequest},
	}

	for _, tc := range tests {
		t.Run(tc.query, func(t *testing.T) {
			req := requestAs(httptest.NewRequest(http.MethodGet, "/api/v1/notifications"+tc.query, nil), fx.player)
			rec := httptest.NewRecorder()
			HandleNotificationsList(rec, req)

			if rec.Code != tc.code {
				t.Fatalf("expected %d, got %d: %s", tc.code, rec.Code, rec.Body.String())
			}
			if tc.code != http.StatusOK {
				return
			}
			var body struct {
				Notifications []models.Notification `json:"notifications"`
			}
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if len(body.Notifications) != tc.want {
				t.Fatalf("expected %d notifications, got %d", tc.want, len(body.Notifications))
			}
		})
	}
}

func TestHandleNotificationReadOwnership(t *testing.T) {
	fx := setupNotificationsTest(t)
	mine := testutil.CreateNotification(t, fx.database, fx.player.ID, models.NotificationInvitationReceived)

	markRead := func(user dbgen.User) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPatch, "/api/v1/notifications/"+strconv.FormatInt(mine.ID, 10)+"/read", nil)
		req.SetPathValue("id", strconv.FormatInt(mine.ID, 10))
		rec := httptest.NewRecorder()
		HandleNotificationRead(rec, requestAs(req, user))
		return rec
	}

	if rec := markRead(fx.rival); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for another user's notification, got %d", rec.Code)
	}

	rec := markRead(fx.player)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var got models.Notification
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !got.Read {
		t.Fatal("expected notification marked read")
	}
}

func TestHandleMarkAllRead(t *testing.T) {
	fx := setupNotificationsTest(t)

	rec := httptest.NewRecorder()
	HandleMarkAllRead(rec, requestAs(httptest.NewRequest(http.MethodPost, "/api/v1/notifications/read-all", nil), fx.player))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	unread, err := fx.database.Queries.CountUnreadNotifications(context.Background(), fx.player.ID)
	if err != nil {
		t.Fatalf("count unread: %v", err)
	}
	if unread != 0 {
		t.Fatalf("expected no unread notifications, got %d", unread)
	}
	captainUnread, err := fx.database.Queries.CountUnreadNotifications(context.Background(), fx.captain.ID)
	if err != nil {
		t.Fatalf("count unread: %v", err)
	}
	if captainUnread != 1 {
		t.Fatalf("expected other users untouched, got %d", captainUnread)
	}
}
