// internal/api/pages/handlers.go
package pages

import (
	"context"
	"net/http"
	"time"

	"github.com/a-h/templ"
	"github.com/rs/zerolog/log"

	"github.com/codr1/leaguedesk/internal/api/apiutil"
	"github.com/codr1/leaguedesk/internal/api/authz"
	"github.com/codr1/leaguedesk/internal/api/htmx"
	"github.com/codr1/leaguedesk/internal/api/notifications"
	dbgen "github.com/codr1/leaguedesk/internal/db/generated"
	"github.com/codr1/leaguedesk/internal/models"
	dashboardtempl "github.com/codr1/leaguedesk/internal/templates/components/dashboard"
	notificationstempl "github.com/codr1/leaguedesk/internal/templates/components/notifications"
	"github.com/codr1/leaguedesk/internal/templates/layouts"
)

const (
	pagesQueryTimeout      = 5 * time.Second
	recentNotificationsMax = 5
)

var (
	queries      *dbgen.Queries
	clerkEnabled bool
)

func InitHandlers(q *dbgen.Queries, clerk bool) {
	queries = q
	clerkEnabled = clerk
}

// render re-applies the gate before drawing the page. The edge middleware
// makes the same decision; pages mounted without it still stay protected.
func render(w http.ResponseWriter, r *http.Request, title string, content templ.Component) {
	user := authz.UserFromContext(r.Context())
	if decision := authz.Decide(user, r.URL.Path); !decision.Allow {
		http.Redirect(w, r, decision.Redirect, http.StatusFound)
		return
	}

	if htmx.WantsFragment(r) {
		if content == nil {
			content = templ.NopComponent
		}
		apiutil.RenderHTMLComponent(r.Context(), w, content, nil, "Failed to render "+title+" fragment", "Failed to render page")
		return
	}

	page := layouts.Base(layouts.Page{Title: title, Path: r.URL.Path, User: user}, content)
	apiutil.RenderHTMLComponent(r.Context(), w, page, nil, "Failed to render "+title+" page", "Failed to render page")
}

func loadQueries(w http.ResponseWriter, r *http.Request) *dbgen.Queries {
	if queries == nil {
		log.Ctx(r.Context()).Error().Msg("Database queries not initialized")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
	return queries
}

// GET /
func HandleHome(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	http.Redirect(w, r, "/dashboard", http.StatusFound)
}

// GET /auth/signin
func HandleSignIn(w http.ResponseWriter, r *http.Request) {
	if user := authz.UserFromContext(r.Context()); user != nil {
		target := "/dashboard"
		if user.Status != authz.StatusApproved {
			target = authz.PendingApprovalPath
		}
		http.Redirect(w, r, target, http.StatusFound)
		return
	}
	render(w, r, "Sign in", dashboardtempl.SignInForm(clerkEnabled))
}

// GET /pending-approval
func HandlePendingApproval(w http.ResponseWriter, r *http.Request) {
	render(w, r, "Pending approval", dashboardtempl.Message(
		"Your account is awaiting approval",
		"A league manager will review your account shortly. You will get an email once it is approved.",
	))
}

// GET /unauthorized
func HandleUnauthorized(w http.ResponseWriter, r *http.Request) {
	render(w, r, "Unauthorized", dashboardtempl.Message(
		"You do not have access to that page",
		"Ask a league manager if you think your role should include it.",
	))
}

// GET /dashboard
func HandleDashboard(w http.ResponseWriter, r *http.Request) {
	q := loadQueries(w, r)
	if q == nil {
		return
	}
	user := authz.UserFromContext(r.Context())
	if user == nil || !authz.Decide(user, r.URL.Path).Allow {
		render(w, r, "Dashboard", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), pagesQueryTimeout)
	defer cancel()

	counts, err := notifications.CountForUser(ctx, q, user.ID, user.Role)
	if err != nil {
		log.Ctx(r.Context()).Error().Err(err).Int64("user_id", user.ID).Msg("Failed to load dashboard counts")
		http.Error(w, "Failed to load dashboard", http.StatusInternalServerError)
		return
	}

	recent, err := q.ListNotificationsForUser(ctx, dbgen.ListNotificationsForUserParams{
		UserID: user.ID,
		Limit:  recentNotificationsMax,
	})
	if err != nil {
		log.Ctx(r.Context()).Error().Err(err).Int64("user_id", user.ID).Msg("Failed to load recent notifications")
		http.Error(w, "Failed to load dashboard", http.StatusInternalServerError)
		return
	}

	render(w, r, "Dashboard", templ.Join(
		dashboardtempl.SummaryCard(dashboardtempl.Summary{
			Name:          user.Name,
			Role:          string(user.Role),
			Unread:        counts.Unread,
			Invitations:   counts.Invitations,
			MatchRequests: counts.MatchRequests,
			Total:         counts.Total,
		}),
		dashboardtempl.Heading("Recent notifications"),
		notificationstempl.List(notificationstempl.NewNotifications(recent)),
	))
}

// GET /captain
func HandleCaptain(w http.ResponseWriter, r *http.Request) {
	q := loadQueries(w, r)
	if q == nil {
		return
	}
	user := authz.UserFromContext(r.Context())
	if user == nil || !authz.Decide(user, r.URL.Path).Allow {
		render(w, r, "Captain", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), pagesQueryTimeout)
	defer cancel()

	rows, err := q.ListTeamsByCaptain(ctx, user.ID)
	if err != nil {
		log.Ctx(r.Context()).Error().Err(err).Int64("user_id", user.ID).Msg("Failed to load captain teams")
		http.Error(w, "Failed to load teams", http.StatusInternalServerError)
		return
	}
	teams := make([]dashboardtempl.Team, 0, len(rows))
	for _, row := range rows {
		players, err := q.CountTeamPlayers(ctx, row.ID)
		if err != nil {
			log.Ctx(r.Context()).Error().Err(err).Int64("team_id", row.ID).Msg("Failed to count team players")
			http.Error(w, "Failed to load teams", http.StatusInternalServerError)
			return
		}
		teams = append(teams, dashboardtempl.Team{ID: row.ID, Name: row.Name, Players: players})
	}

	render(w, r, "Captain", templ.Join(
		dashboardtempl.Heading("Your teams"),
		dashboardtempl.TeamList(teams),
		dashboardtempl.DownloadLink("/api/v1/captain/download-template", "Download roster template"),
	))
}

// GET /manager
func HandleManager(w http.ResponseWriter, r *http.Request) {
	renderPendingUsers(w, r, "Manager", "/api/v1/manager/download-template", "Download league template")
}

// GET /admin
func HandleAdmin(w http.ResponseWriter, r *http.Request) {
	renderPendingUsers(w, r, "Admin", "/api/v1/admin/download-template", "Download user import template")
}

func renderPendingUsers(w http.ResponseWriter, r *http.Request, title, templateHref, templateLabel string) {
	q := loadQueries(w, r)
	if q == nil {
		return
	}
	user := authz.UserFromContext(r.Context())
	if user == nil || !authz.Decide(user, r.URL.Path).Allow {
		render(w, r, title, nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), pagesQueryTimeout)
	defer cancel()

	rows, err := q.ListUsersByStatus(ctx, string(authz.StatusPending))
	if err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("Failed to load pending users")
		http.Error(w, "Failed to load users", http.StatusInternalServerError)
		return
	}

	render(w, r, title, templ.Join(
		dashboardtempl.Heading("Awaiting approval"),
		dashboardtempl.UserTable(models.NewUsers(rows)),
		dashboardtempl.DownloadLink(templateHref, templateLabel),
	))
}
