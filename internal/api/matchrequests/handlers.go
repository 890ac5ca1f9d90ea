// internal/api/matchrequests/handlers.go
package matchrequests

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"github.com/codr1/leaguedesk/internal/api/apiutil"
	"github.com/codr1/leaguedesk/internal/api/authz"
	appdb "github.com/codr1/leaguedesk/internal/db"
	dbgen "github.com/codr1/leaguedesk/internal/db/generated"
	"github.com/codr1/leaguedesk/internal/email"
	"github.com/codr1/leaguedesk/internal/models"
)

var (
	database    *appdb.DB
	emailSender email.Sender
	baseURL     string
)

const (
	matchRequestsQueryTimeout = 5 * time.Second
	maxMessageLength          = 500
)

func InitHandlers(db *appdb.DB, sender email.Sender, appBaseURL string) {
	database = db
	emailSender = sender
	baseURL = appBaseURL
}

func loadDB(w http.ResponseWriter, r *http.Request) *appdb.DB {
	if database == nil {
		log.Ctx(r.Context()).Error().Msg("Database not initialized")
		apiutil.WriteErrorJSON(w, http.StatusInternalServerError, "Internal Server Error")
	}
	return database
}

type createRequest struct {
	LeagueID   int64   `json:"leagueId"`
	OpponentID int64   `json:"opponentId"`
	ProposedAt *string `json:"proposedAt"`
	Message    string  `json:"message"`
}

type resolveRequest struct {
	Accept *bool `json:"accept"`
}

type resolveResponse struct {
	MatchRequest models.MatchRequest `json:"matchRequest"`
	Match        *models.Match       `json:"match,omitempty"`
}

// GET /api/v1/match-requests/pending
func HandlePendingMatchRequests(w http.ResponseWriter, r *http.Request) {
	db := loadDB(w, r)
	if db == nil {
		return
	}
	user, ok := apiutil.RequireRole(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), matchRequestsQueryTimeout)
	defer cancel()

	rows, err := db.Queries.ListPendingMatchRequestsForOpponent(ctx, user.ID)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	_ = apiutil.WriteJSON(w, http.StatusOK, map[string]any{
		"matchRequests": models.NewPendingMatchRequests(rows),
	})
}

// POST /api/v1/match-requests
func HandleCreateMatchRequest(w http.ResponseWriter, r *http.Request) {
	db := loadDB(w, r)
	if db == nil {
		return
	}
	user, ok := apiutil.RequireRole(w, r, authz.RoleCaptain, authz.RoleManager)
	if !ok {
		return
	}

	var req createRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteErrorJSON(w, http.StatusBadRequest, err.Error())
		return
	}
	params, err := validateCreate(user, req, time.Now())
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), matchRequestsQueryTimeout)
	defer cancel()

	var (
		created  dbgen.MatchRequest
		league   dbgen.League
		opponent dbgen.User
	)
	err = db.RunInTx(ctx, func(tx *appdb.DB) error {
		var err error
		league, err = tx.Queries.GetLeagueByID(ctx, params.LeagueID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return apiutil.NewHandlerError(http.StatusNotFound, "League not found")
			}
			return err
		}
		opponent, err = tx.Queries.GetUserByID(ctx, params.OpponentID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return apiutil.NewHandlerError(http.StatusNotFound, "Opponent not found")
			}
			return err
		}
		if authz.Status(opponent.Status) != authz.StatusApproved {
			return apiutil.NewHandlerError(http.StatusBadRequest, "Opponent has not been approved")
		}

		created, err = tx.Queries.CreateMatchRequest(ctx, params)
		if err != nil {
			return err
		}
		_, err = tx.Queries.CreateNotification(ctx, dbgen.CreateNotificationParams{
			UserID:         opponent.ID,
			Kind:           models.NotificationMatchRequestReceived,
			Message:        fmt.Sprintf("%s challenged you to a %s match", user.Name, league.Name),
			MatchRequestID: sql.NullInt64{Int64: created.ID, Valid: true},
		})
		return err
	})
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	logger := log.Ctx(r.Context())
	logger.Info().
		Int64("match_request_id", created.ID).
		Int64("user_id", user.ID).
		Int64("opponent_id", opponent.ID).
		Msg("Match request created")

	email.SendAsync(r.Context(), emailSender, opponent.Email, email.BuildMatchRequestEmail(email.MatchRequestDetails{
		OpponentName:  opponent.Name,
		RequesterName: user.Name,
		LeagueName:    league.Name,
		ProposedAt:    apiutil.FromNullTime(created.ProposedAt),
		Note:          created.Message,
		BaseURL:       baseURL,
	}), logger)

	_ = apiutil.WriteJSON(w, http.StatusCreated, models.NewMatchRequest(created))
}

func validateCreate(user *authz.AuthUser, req createRequest, now time.Time) (dbgen.CreateMatchRequestParams, error) {
	if req.LeagueID <= 0 || req.OpponentID <= 0 {
		return dbgen.CreateMatchRequestParams{}, apiutil.NewHandlerError(http.StatusBadRequest, "leagueId and opponentId are required")
	}
	if req.OpponentID == user.ID {
		return dbgen.CreateMatchRequestParams{}, apiutil.NewHandlerError(http.StatusBadRequest, "Cannot challenge yourself")
	}

	message := strings.TrimSpace(req.Message)
	if utf8.RuneCountInString(message) > maxMessageLength {
		return dbgen.CreateMatchRequestParams{}, apiutil.NewHandlerError(http.StatusBadRequest, fmt.Sprintf("message must be %d characters or fewer", maxMessageLength))
	}

	params := dbgen.CreateMatchRequestParams{
		LeagueID:    req.LeagueID,
		RequesterID: user.ID,
		OpponentID:  req.OpponentID,
		Message:     message,
	}
	if req.ProposedAt != nil && strings.TrimSpace(*req.ProposedAt) != "" {
		proposed, err := apiutil.ParseTimestamp(*req.ProposedAt, "proposedAt")
		if err != nil {
			return dbgen.CreateMatchRequestParams{}, apiutil.NewHandlerError(http.StatusBadRequest, err.Error())
		}
		if !proposed.After(now) {
			return dbgen.CreateMatchRequestParams{}, apiutil.NewHandlerError(http.StatusBadRequest, "proposedAt must be in the future")
		}
		params.ProposedAt = sql.NullTime{Time: proposed, Valid: true}
	}
	return params, nil
}

// PATCH /api/v1/match-requests/{id}
func HandleResolveMatchRequest(w http.ResponseWriter, r *http.Request) {
	db := loadDB(w, r)
	if db == nil {
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
	var req resolveRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteErrorJSON(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Accept == nil {
		apiutil.WriteErrorJSON(w, http.StatusBadRequest, "accept is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), matchRequestsQueryTimeout)
	defer cancel()

	resolved, match, err := Resolve(ctx, db, user, id, *req.Accept)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	log.Ctx(r.Context()).Info().
		Int64("match_request_id", resolved.ID).
		Int64("user_id", user.ID).
		Str("status", resolved.Status).
		Msg("Match request resolved")

	resp := resolveResponse{MatchRequest: models.NewMatchRequest(resolved)}
	if match != nil {
		m := models.NewMatch(*match)
		resp.Match = &m
	}
	_ = apiutil.WriteJSON(w, http.StatusOK, resp)
}

// Resolve accepts or rejects a PENDING match request. Accepting schedules a
// match between requester (home) and opponent (away) in the same
// transaction that flips the status and notifies the requester.
func Resolve(ctx context.Context, db *appdb.DB, actor *authz.AuthUser, requestID int64, accept bool) (dbgen.MatchRequest, *dbgen.Match, error) {
	status, kind, verb := models.MatchRequestRejected, models.NotificationMatchRequestRejected, "declined"
	if accept {
		status, kind, verb = models.MatchRequestAccepted, models.NotificationMatchRequestAccepted, "accepted"
	}

	var (
		resolved dbgen.MatchRequest
		match    *dbgen.Match
	)
	err := db.RunInTx(ctx, func(tx *appdb.DB) error {
		request, err := tx.Queries.GetMatchRequestByID(ctx, requestID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return apiutil.NewHandlerError(http.StatusNotFound, "Match request not found")
			}
			return err
		}
		if actor == nil || (actor.ID != request.OpponentID && !authz.IsSuperAdmin(actor)) {
			return authz.ErrForbidden
		}
		if request.Status != models.MatchRequestPending {
			return apiutil.NewHandlerError(http.StatusBadRequest, "Match request has already been resolved")
		}

		updated, err := tx.Queries.ResolveMatchRequest(ctx, dbgen.ResolveMatchRequestParams{Status: status, ID: request.ID})
		if err != nil {
			return err
		}
		if updated == 0 {
			return apiutil.NewHandlerError(http.StatusBadRequest, "Match request has already been resolved")
		}

		notification := dbgen.CreateNotificationParams{
			UserID:         request.RequesterID,
			Kind:           kind,
			MatchRequestID: sql.NullInt64{Int64: request.ID, Valid: true},
		}
		if accept {
			created, err := tx.Queries.CreateMatch(ctx, dbgen.CreateMatchParams{
				LeagueID:       request.LeagueID,
				MatchRequestID: sql.NullInt64{Int64: request.ID, Valid: true},
				HomeUserID:     request.RequesterID,
				AwayUserID:     request.OpponentID,
				ScheduledAt:    request.ProposedAt,
			})
			if err != nil {
				return fmt.Errorf("create match: %w", err)
			}
			match = &created
			notification.MatchID = sql.NullInt64{Int64: created.ID, Valid: true}
		}

		opponent, err := tx.Queries.GetUserByID(ctx, request.OpponentID)
		if err != nil {
			return fmt.Errorf("load opponent: %w", err)
		}
		notification.Message = fmt.Sprintf("%s %s your match request", opponent.Name, verb)
		if _, err := tx.Queries.CreateNotification(ctx, notification); err != nil {
			return fmt.Errorf("notify requester: %w", err)
		}

		resolved, err = tx.Queries.GetMatchRequestByID(ctx, request.ID)
		return err
	})
	if err != nil {
		return dbgen.MatchRequest{}, nil, err
	}
	return resolved, match, nil
}
