// cmd/server/server.go
package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/codr1/leaguedesk/internal/api"
	"github.com/codr1/leaguedesk/internal/api/admin"
	"github.com/codr1/leaguedesk/internal/api/apiutil"
	"github.com/codr1/leaguedesk/internal/api/auth"
	"github.com/codr1/leaguedesk/internal/api/downloads"
	"github.com/codr1/leaguedesk/internal/api/invitations"
	"github.com/codr1/leaguedesk/internal/api/leagues"
	"github.com/codr1/leaguedesk/internal/api/matchrequests"
	"github.com/codr1/leaguedesk/internal/api/notifications"
	"github.com/codr1/leaguedesk/internal/api/pages"
	"github.com/codr1/leaguedesk/internal/api/users"
	"github.com/codr1/leaguedesk/internal/config"
	"github.com/codr1/leaguedesk/internal/db"
	"github.com/codr1/leaguedesk/internal/email"
	"github.com/codr1/leaguedesk/internal/ratelimit"
)

func newServer(cfg *config.Config, database *db.DB, sender email.Sender, limiter *ratelimit.Limiter) *http.Server {
	initHandlers(cfg, database, sender, limiter)

	router := http.NewServeMux()
	registerRoutes(router)

	return &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      newHandler(router),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// newHandler wraps the router; requests pass through request id, logging,
// recovery, session resolution and the page gate in that order.
func newHandler(router http.Handler) http.Handler {
	return api.ChainMiddleware(
		router,
		api.WithPageGate,
		api.WithAuth,
		auth.WithClerkSession,
		api.WithRecovery,
		api.WithLogging,
		api.WithRequestID,
	)
}

func initHandlers(cfg *config.Config, database *db.DB, sender email.Sender, limiter *ratelimit.Limiter) {
	auth.InitClerk(cfg.Auth.ClerkSecretKey)
	auth.InitHandlers(cfg, database.Queries, limiter)
	notifications.InitHandlers(database.Queries)
	invitations.InitHandlers(database, sender, cfg.App.BaseURL)
	matchrequests.InitHandlers(database, sender, cfg.App.BaseURL)
	users.InitHandlers(database, sender, cfg.App.BaseURL)
	leagues.InitHandlers(database)
	admin.InitHandlers(database)
	pages.InitHandlers(database.Queries, auth.ClerkEnabled())
}

func registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	// Auth
	mux.HandleFunc("POST /auth/login", auth.HandleLogin)
	mux.HandleFunc("POST /auth/logout", auth.HandleLogout)
	mux.HandleFunc("GET /auth/callback", auth.HandleClerkCallback)
	mux.HandleFunc("GET /auth/signin", pages.HandleSignIn)

	// Pages
	mux.HandleFunc("GET /{$}", pages.HandleHome)
	mux.HandleFunc("GET /pending-approval", pages.HandlePendingApproval)
	mux.HandleFunc("GET /unauthorized", pages.HandleUnauthorized)
	mux.HandleFunc("GET /dashboard", pages.HandleDashboard)
	mux.HandleFunc("GET /captain", pages.HandleCaptain)
	mux.HandleFunc("GET /manager", pages.HandleManager)
	mux.HandleFunc("GET /admin", pages.HandleAdmin)

	// Leagues and teams
	mux.HandleFunc("GET /api/v1/leagues", leagues.HandleLeaguesList)
	mux.HandleFunc("POST /api/v1/leagues", leagues.HandleLeagueCreate)
	mux.HandleFunc("GET /api/v1/leagues/{id}/teams", leagues.HandleListLeagueTeams)
	mux.HandleFunc("POST /api/v1/teams", leagues.HandleTeamCreate)
	mux.HandleFunc("GET /api/v1/teams/{id}/players", leagues.HandleListTeamPlayers)
	mux.HandleFunc("POST /api/v1/teams/{id}/players", leagues.HandleAddTeamMember)
	mux.HandleFunc("DELETE /api/v1/teams/{id}/players/{playerId}", leagues.HandleRemoveTeamMember)

	// Invitations
	mux.HandleFunc("GET /api/v1/invitations", invitations.HandleInvitationsList)
	mux.HandleFunc("POST /api/v1/invitations", invitations.HandleCreateInvitation)
	mux.HandleFunc("GET /api/v1/invitations/count", invitations.HandleInvitationCount)
	mux.HandleFunc("PATCH /api/v1/invitations/{id}", invitations.HandleResolveInvitation)

	// Notifications
	mux.HandleFunc("GET /api/v1/notifications", notifications.HandleNotificationsList)
	mux.HandleFunc("GET /api/v1/notifications/count", notifications.HandleNotificationCount)
	mux.HandleFunc("PATCH /api/v1/notifications/{id}/read", notifications.HandleNotificationRead)
	mux.HandleFunc("POST /api/v1/notifications/read-all", notifications.HandleMarkAllRead)

	// Match requests
	mux.HandleFunc("GET /api/v1/match-requests/pending", matchrequests.HandlePendingMatchRequests)
	mux.HandleFunc("POST /api/v1/match-requests", matchrequests.HandleCreateMatchRequest)
	mux.HandleFunc("PATCH /api/v1/match-requests/{id}", matchrequests.HandleResolveMatchRequest)

	// Users
	mux.HandleFunc("GET /api/v1/users", users.HandleUsersList)
	mux.HandleFunc("POST /api/v1/users/approve", users.HandleApproveUser)
	mux.HandleFunc("PATCH /api/v1/users/{id}/role", users.HandleUpdateRole)
	mux.HandleFunc("PATCH /api/v1/users/{id}/level", users.HandleUpdateLevel)

	// Admin and templates
	mux.HandleFunc("POST /api/v1/admin/create-superadmin", admin.HandleCreateSuperAdmin)
	mux.HandleFunc("GET /api/v1/admin/download-template", downloads.HandleAdminTemplate)
	mux.HandleFunc("GET /api/v1/manager/download-template", downloads.HandleManagerTemplate)
	mux.HandleFunc("GET /api/v1/captain/download-template", downloads.HandleCaptainTemplate)

	mux.HandleFunc("/api/", apiutil.HandleNotFound)
}
