// internal/api/notifications/handlers.go
package notifications

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/codr1/leaguedesk/internal/api/apiutil"
	dbgen "github.com/codr1/leaguedesk/internal/db/generated"
	"github.com/codr1/leaguedesk/internal/models"
)

var queries *dbgen.Queries

const (
	notificationsQueryTimeout = 5 * time.Second
	notificationsListLimit    = 50
)

func InitHandlers(q *dbgen.Queries) {
	queries = q
}

func loadQueries(w http.ResponseWriter, r *http.Request) *dbgen.Queries {
	if queries == nil {
		log.Ctx(r.Context()).Error().Msg("Database queries not initialized")
		apiutil.WriteErrorJSON(w, http.StatusInternalServerError, "Internal Server Error")
	}
	return queries
}

// GET /api/v1/notifications?unreadOnly=bool
func HandleNotificationsList(w http.ResponseWriter, r *http.Request) {
	q := loadQueries(w, r)
	if q == nil {
		return
	}
	user, ok := apiutil.RequireRole(w, r)
	if !ok {
		return
	}

	unreadOnly, err := apiutil.ParseBoolQuery(r, "unreadOnly", false)
	if err != nil {
		apiutil.WriteErrorJSON(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), notificationsQueryTimeout)
	defer cancel()

	params := dbgen.ListNotificationsForUserParams{UserID: user.ID, Limit: notificationsListLimit}
	var rows []dbgen.Notification
	if unreadOnly {
		rows, err = q.ListUnreadNotificationsForUser(ctx, params)
	} else {
		rows, err = q.ListNotificationsForUser(ctx, params)
	}
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	_ = apiutil.WriteJSON(w, http.StatusOK, map[string]any{
		"notifications": models.NewNotifications(rows),
	})
}

// GET /api/v1/notifications/count
func HandleNotificationCount(w http.ResponseWriter, r *http.Request) {
	q := loadQueries(w, r)
	if q == nil {
		return
	}
	user, ok := apiutil.RequireRole(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), notificationsQueryTimeout)
	defer cancel()

	counts, err := CountForUser(ctx, q, user.ID, user.Role)
	if err != nil {
		log.Ctx(r.Context()).Error().Err(err).Int64("user_id", user.ID).Msg("Failed to count notifications")
		apiutil.WriteErrorJSON(w, http.StatusInternalServerError, "Failed to load notifications")
		return
	}
	_ = apiutil.WriteJSON(w, http.StatusOK, counts)
}

// PATCH /api/v1/notifications/{id}/read
func HandleNotificationRead(w http.ResponseWriter, r *http.Request) {
	q := loadQueries(w, r)
	if q == nil {
		return
	}
	user, ok := apiutil.RequireRole(w, r)
	if !ok {
		return
	}

	id, err := apiutil.PathID(r, "id")
	if err != nil {
		apiutil.WriteErrorJSON(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), notificationsQueryTimeout)
	defer cancel()

	// Another user's notification reads as missing.
	row, err := q.MarkNotificationRead(ctx, dbgen.MarkNotificationReadParams{ID: id, UserID: user.ID})
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	_ = apiutil.WriteJSON(w, http.StatusOK, models.NewNotification(row))
}

// POST /api/v1/notifications/read-all
func HandleMarkAllRead(w http.ResponseWriter, r *http.Request) {
	q := loadQueries(w, r)
	if q == nil {
		return
	}
	user, ok := apiutil.RequireRole(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), notificationsQueryTimeout)
	defer cancel()

	updated, err := q.MarkAllNotificationsRead(ctx, user.ID)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	log.Ctx(r.Context()).Info().Int64("user_id", user.ID).Int64("updated", updated).Msg("Marked notifications read")
	_ = apiutil.WriteJSON(w, http.StatusOK, map[string]int64{"updated": updated})
}
