package users

import (
	"bytes"
	"context"
	"encoding/json"
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

type usersFixture struct {
	database   *db.DB
	superAdmin dbgen.User
	manager    dbgen.User
	captain    dbgen.User
	player     dbgen.User
	pending    dbgen.User
}

func setupUsersTest(t *testing.T) usersFixture {
	t.Helper()

	prevDB, prevSender, prevBaseURL := database, emailSender, baseURL
	t.Cleanup(func() {
		InitHandlers(prevDB, prevSender, prevBaseURL)
	})
	testDB := testutil.NewTestDB(t)
	InitHandlers(testDB, nil, "")

	return usersFixture{
		database:   testDB,
		superAdmin: testutil.CreateUser(t, testDB, "SUPERADMIN"),
		manager:    testutil.CreateUser(t, testDB, "MANAGER"),
		captain:    testutil.CreateUser(t, testDB, "CAPTAIN"),
		player:     testutil.CreateUser(t, testDB, "PLAYER"),
		pending:    testutil.CreateUserWithStatus(t, testDB, "PLAYER", "PENDING"),
	}
}

func asUser(user dbgen.User) *authz.AuthUser {
	return &authz.AuthUser{
		ID:     user.ID,
		Role:   authz.Role(user.Role),
		Status: authz.Status(user.Status),
	}
}

func serve(handler http.HandlerFunc, method, path string, user *authz.AuthUser, body string, id int64) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	if id > 0 {
		req.SetPathValue("id", strconv.FormatInt(id, 10))
	}
	if user != nil {
		req = req.WithContext(authz.ContextWithUser(req.Context(), user))
	}
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func roleBody(role string) string {
	return `{"role":"` + role + `"}`
}

func TestUpdateRolePlayerAlwaysForbidden(t *testing.T) {
	fx := setupUsersTest(t)

	bodies := []string{roleBody("CAPTAIN"), roleBody("SUPERADMIN"), roleBody("nonsense"), `{}`, `not json`}
	targets := []int64{fx.player.ID, fx.captain.ID, fx.superAdmin.ID, 9999}
	for _, body := range bodies {
		for _, target := range targets {
			rec := serve(HandleUpdateRole, http.MethodPatch, "/api/v1/users/x/role", asUser(fx.player), body, target)
			if rec.Code != http.StatusForbidden {
				t.Fatalf("player body=%s target=%d: expected 403, got %d", body, target, rec.Code)
			}
		}
	}

	got, err := fx.database.Queries.GetUserByID(context.Background(), fx.player.ID)
	if err != nil {
		t.Fatalf("load player: %v", err)
	}
	if got.Role != "PLAYER" {
		t.Fatalf("player role changed to %q", got.Role)
	}
}

func TestUpdateRole(t *testing.T) {
	fx := setupUsersTest(t)
	otherManager := testutil.CreateUser(t, fx.database, "MANAGER")

	tests := []struct {
		name   string
		actor  dbgen.User
		target int64
		role   string
		want   int
	}{
		{"captain forbidden", fx.captain, fx.player.ID, "CAPTAIN", http.StatusForbidden},
		{"manager promotes player", fx.manager, fx.player.ID, "captain", http.StatusOK},
		{"manager cannot grant manager", fx.manager, fx.captain.ID, "MANAGER", http.StatusForbidden},
		{"manager cannot touch manager", fx.manager, otherManager.ID, "PLAYER", http.StatusForbidden},
		{"manager cannot touch superadmin", fx.manager, fx.superAdmin.ID, "PLAYER", http.StatusForbidden},
		{"superadmin grants manager", fx.superAdmin, fx.captain.ID, "MANAGER", http.StatusOK},
		{"superadmin cannot change self", fx.superAdmin, fx.superAdmin.ID, "PLAYER", http.StatusForbidden},
		{"unknown role", fx.superAdmin, fx.player.ID, "COACH", http.StatusBadRequest},
		{"missing user", fx.superAdmin, 9999, "PLAYER", http.StatusNotFound},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := serve(HandleUpdateRole, http.MethodPatch, "/api/v1/users/x/role", asUser(tc.actor), roleBody(tc.role), tc.target)
			if rec.Code != tc.want {
				t.Fatalf("expected %d, got %d: %s", tc.want, rec.Code, rec.Body.String())
			}
		})
	}

	got, err := fx.database.Queries.GetUserByID(context.Background(), fx.captain.ID)
	if err != nil {
		t.Fatalf("load captain: %v", err)
	}
	if got.Role != "MANAGER" {
		t.Fatalf("expected captain promoted to MANAGER, got %q", got.Role)
	}
}

func TestUpdateLevel(t *testing.T) {
	fx := setupUsersTest(t)

	tests := []struct {
		name  string
		actor dbgen.User
		body  string
		want  int
	}{
		{"captain forbidden", fx.captain, `{"level":5}`, http.StatusForbidden},
		{"too low", fx.manager, `{"level":0}`, http.StatusBadRequest},
		{"too high", fx.manager, `{"level":11}`, http.StatusBadRequest},
		{"manager sets", fx.manager, `{"level":7}`, http.StatusOK},
		{"superadmin clears", fx.superAdmin, `{"level":null}`, http.StatusOK},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := serve(HandleUpdateLevel, http.MethodPatch, "/api/v1/users/x/level", asUser(tc.actor), tc.body, fx.player.ID)
			if rec.Code != tc.want {
				t.Fatalf("expected %d, got %d: %s", tc.want, rec.Code, rec.Body.String())
			}
		})
	}

	rec := serve(HandleUpdateLevel, http.MethodPatch, "/api/v1/users/x/level", asUser(fx.manager), `{"level":3}`, 9999)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("missing user: expected 404, got %d", rec.Code)
	}
}

func TestUpdateLevelSuperAdminTarget(t *testing.T) {
	fx := setupUsersTest(t)
	other := testutil.CreateUser(t, fx.database, "SUPERADMIN")

	rec := serve(HandleUpdateLevel, http.MethodPatch, "/api/v1/users/x/level", asUser(fx.manager), `{"level":3}`, fx.superAdmin.ID)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("manager on superadmin: expected 403, got %d: %s", rec.Code, rec.Body.String())
	}
	row, err := fx.database.Queries.GetUserByID(context.Background(), fx.superAdmin.ID)
	if err != nil {
		t.Fatalf("load superadmin: %v", err)
	}
	if row.Level.Valid {
		t.Fatalf("expected level to stay unset, got %d", row.Level.Int64)
	}

	// Level and status share the same guard.
	body := `{"userId":` + strconv.FormatInt(fx.superAdmin.ID, 10) + `,"status":"PENDING"}`
	if rec := serve(HandleApproveUser, http.MethodPost, "/api/v1/users/approve", asUser(fx.manager), body, 0); rec.Code != http.StatusForbidden {
		t.Fatalf("manager status on superadmin: expected 403, got %d", rec.Code)
	}

	rec = serve(HandleUpdateLevel, http.MethodPatch, "/api/v1/users/x/level", asUser(fx.superAdmin), `{"level":4}`, other.ID)
	if rec.Code != http.StatusOK {
		t.Fatalf("superadmin on superadmin: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestApproveUser(t *testing.T) {
	fx := setupUsersTest(t)
	body := func(id int64, status string) string {
		return `{"userId":` + strconv.FormatInt(id, 10) + `,"status":"` + status + `"}`
	}

	rec := serve(HandleApproveUser, http.MethodPost, "/api/v1/users/approve", asUser(fx.manager), body(fx.pending.ID, "APPROVED"), 0)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var got models.User
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Status != "APPROVED" {
		t.Fatalf("expected APPROVED, got %q", got.Status)
	}

	notes, err := fx.database.Queries.ListUnreadNotificationsForUser(context.Background(), dbgen.ListNotificationsForUserParams{UserID: fx.pending.ID, Limit: 10})
	if err != nil {
		t.Fatalf("list notifications: %v", err)
	}
	if len(notes) != 1 || notes[0].Kind != models.NotificationAccountApproved {
		t.Fatalf("expected ACCOUNT_APPROVED notification, got %+v", notes)
	}

	// Approving again is a no-op for notifications.
	rec = serve(HandleApproveUser, http.MethodPost, "/api/v1/users/approve", asUser(fx.manager), body(fx.pending.ID, "APPROVED"), 0)
	if rec.Code != http.StatusOK {
		t.Fatalf("re-approve: expected 200, got %d", rec.Code)
	}
	notes, _ = fx.database.Queries.ListUnreadNotificationsForUser(context.Background(), dbgen.ListNotificationsForUserParams{UserID: fx.pending.ID, Limit: 10})
	if len(notes) != 1 {
		t.Fatalf("expected a single approval notification, got %d", len(notes))
	}

	tests := []struct {
		name  string
		actor dbgen.User
		body  string
		want  int
	}{
		{"player forbidden", fx.player, body(fx.captain.ID, "PENDING"), http.StatusForbidden},
		{"captain forbidden", fx.captain, body(fx.player.ID, "PENDING"), http.StatusForbidden},
		{"manager cannot suspend superadmin", fx.manager, body(fx.superAdmin.ID, "PENDING"), http.StatusForbidden},
		{"self", fx.manager, body(fx.manager.ID, "PENDING"), http.StatusBadRequest},
		{"bad status", fx.manager, body(fx.player.ID, "REJECTED"), http.StatusBadRequest},
		{"missing user", fx.manager, body(9999, "APPROVED"), http.StatusNotFound},
		{"superadmin suspends manager", fx.superAdmin, body(fx.manager.ID, "PENDING"), http.StatusOK},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := serve(HandleApproveUser, http.MethodPost, "/api/v1/users/approve", asUser(tc.actor), tc.body, 0)
			if rec.Code != tc.want {
				t.Fatalf("expected %d, got %d: %s", tc.want, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestUsersList(t *testing.T) {
	fx := setupUsersTest(t)

	tests := []struct {
		query string
		want  int
		code  int
	}{
		{"", 5, http.StatusOK},
		{"?status=pending", 1, http.StatusOK},
		{"?status=APPROVED", 4, http.StatusOK},
		{"?status=REJECTED", 0, http.StatusBadRequest},
	}
	for _, tc := range tests {
		t.Run(tc.query, func(t *testing.T) {
			rec := serve(HandleUsersList, http.MethodGet, "/api/v1/users"+tc.query, asUser(fx.manager), "", 0)
			if rec.Code != tc.code {
				t.Fatalf("expected %d, got %d", tc.code, rec.Code)
			}
			if tc.code != http.StatusOK {
				return
			}
			var got struct {
				Users []models.User `json:"users"`
			}
			if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if len(got.Users) != tc.want {
				t.Fatalf("expected %d users, got %d", tc.want, len(got.Users))
			}
		})
	}

	rec := serve(HandleUsersList, http.MethodGet, "/api/v1/users", asUser(fx.captain), "", 0)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("captain: expected 403, got %d", rec.Code)
	}
}
