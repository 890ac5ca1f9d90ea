//go:build integration
// +build integration

package authz_test

// NOTE: Tests cannot use t.Parallel() due to shared package state.

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/codr1/leaguedesk/internal/api/authz"
	"github.com/codr1/leaguedesk/internal/api/downloads"
	"github.com/codr1/leaguedesk/internal/api/matchrequests"
	"github.com/codr1/leaguedesk/internal/api/users"
	"github.com/codr1/leaguedesk/internal/db"
	"github.com/codr1/leaguedesk/internal/testutil"
)

func setupAuthzIntegrationTest(t *testing.T) *db.DB {
	t.Helper()

	database := testutil.NewTestDB(t)
	users.InitHandlers(database, nil, "")
	matchrequests.InitHandlers(database, nil, "")
	t.Cleanup(func() {
		users.InitHandlers(nil, nil, "")
		matchrequests.InitHandlers(nil, nil, "")
	})

	return database
}

func TestRoleAccessIntegration(t *testing.T) {
	database := setupAuthzIntegrationTest(t)
	testutil.CreateUser(t, database, string(authz.RolePlayer))

	handlers := []struct {
		name    string
		handler func(http.ResponseWriter, *http.Request)
		path    string
		allowed []authz.Role
	}{
		{
			name:    "users list",
			handler: users.HandleUsersList,
			path:    "/api/v1/users",
			allowed: []authz.Role{authz.RoleManager},
		},
		{
			name:    "pending match requests",
			handler: matchrequests.HandlePendingMatchRequests,
			path:    "/api/v1/match-requests/pending",
			allowed: authz.Roles,
		},
		{
			name:    "captain template",
			handler: downloads.HandleCaptainTemplate,
			path:    "/api/v1/downloads/captain-template",
			allowed: []authz.Role{authz.RoleCaptain, authz.RoleManager},
		},
		{
			name:    "admin template",
			handler: downloads.HandleAdminTemplate,
			path:    "/api/v1/downloads/admin-template",
			allowed: nil,
		},
	}

	for _, handlerCase := range handlers {
		handlerCase := handlerCase
		t.Run(handlerCase.name, func(t *testing.T) {
			t.Run("unauthenticated rejected", func(t *testing.T) {
				recorder := httptest.NewRecorder()
				handlerCase.handler(recorder, httptest.NewRequest(http.MethodGet, handlerCase.path, nil))
				if recorder.Code != http.StatusUnauthorized {
					t.Fatalf("status: got %d want %d", recorder.Code, http.StatusUnauthorized)
				}
			})

			t.Run("pending user forbidden", func(t *testing.T) {
				user := &authz.AuthUser{ID: 99, Role: authz.RoleManager, Status: authz.StatusPending}
				recorder := serve(handlerCase.handler, handlerCase.path, user)
				if recorder.Code != http.StatusForbidden {
					t.Fatalf("status: got %d want %d", recorder.Code, http.StatusForbidden)
				}
			})

			for _, role := range authz.Roles {
				role := role
				t.Run(string(role), func(t *testing.T) {
					want := http.StatusForbidden
					if role == authz.RoleSuperAdmin || containsRole(handlerCase.allowed, role) {
						want = http.StatusOK
					}
					user := &authz.AuthUser{ID: 1, Role: role, Status: authz.StatusApproved}
					recorder := serve(handlerCase.handler, handlerCase.path, user)
					if recorder.Code != want {
						t.Fatalf("status: got %d want %d", recorder.Code, want)
					}
				})
			}
		})
	}
}

func serve(handler func(http.ResponseWriter, *http.Request), path string, user *authz.AuthUser) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req = req.WithContext(authz.ContextWithUser(req.Context(), user))
	recorder := httptest.NewRecorder()
	handler(recorder, req)
	return recorder
}

func containsRole(roles []authz.Role, role authz.Role) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}
