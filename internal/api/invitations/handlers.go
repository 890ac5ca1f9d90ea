// internal/api/invitations/handlers.go
package invitations

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/codr1/leaguedesk/internal/api/apiutil"
	"github.com/codr1/leaguedesk/internal/api/authz"
	"github.com/codr1/leaguedesk/internal/api/notifications"
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

const invitationsQueryTimeout = 5 * time.Second

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

type resolveRequest struct {
	Accept *bool `json:"accept"`
}

type createRequest struct {
	TeamID   int64 `json:"teamId"`
	PlayerID int64 `json:"playerId"`
}

// PATCH /api/v1/invitations/{id}
func HandleResolveInvitation(w http.ResponseWriter, r *http.Request) {
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

	ctx, cancel := context.WithTimeout(r.Context(), invitationsQueryTimeout)
	defer cancel()

	invitation, err := Resolve(ctx, db, user, id, *req.Accept)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	logger := log.Ctx(r.Context())
	logger.Info().
		Int64("invitation_id", invitation.ID).
		Int64("user_id", user.ID).
		Str("status", invitation.Status).
		Msg("Invitation resolved")

	if emailSender != nil {
		team, err := db.Queries.GetTeamByID(ctx, invitation.TeamID)
		player, perr := db.Queries.GetUserByID(ctx, invitation.PlayerID)
		if err != nil || perr != nil {
			logger.Warn().Err(errors.Join(err, perr)).Int64("invitation_id", invitation.ID).Msg("Skipping invitation outcome email")
		} else {
			email.SendToUser(r.Context(), db.Queries, emailSender, team.CaptainID,
				email.BuildInvitationResolvedEmail(player.Name, team.Name, *req.Accept, baseURL), logger)
		}
	}
	_ = apiutil.WriteJSON(w, http.StatusOK, models.NewInvitation(invitation))
}

// Resolve moves a PENDING invitation to ACCEPTED or REJECTED. The status
// change, the team membership insert and the captain's notification commit
// together; a concurrent resolve of the same invitation sees zero affected
// rows and fails with a 400.
func Resolve(ctx context.Context, db *appdb.DB, actor *authz.AuthUser, invitationID int64, accept bool) (dbgen.Invitation, error) {
	status, kind, verb := models.InvitationRejected, models.NotificationInvitationRejected, "declined"
	if accept {
		status, kind, verb = models.InvitationAccepted, models.NotificationInvitationAccepted, "accepted"
	}

	var resolved dbgen.Invitation
	err := db.RunInTx(ctx, func(tx *appdb.DB) error {
		invitation, err := tx.Queries.GetInvitationByID(ctx, invitationID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return apiutil.NewHandlerError(http.StatusNotFound, "Invitation not found")
			}
			return err
		}
		if actor == nil || (actor.ID != invitation.PlayerID && !authz.IsSuperAdmin(actor)) {
			return authz.ErrForbidden
		}
		if invitation.Status != models.InvitationPending {
			return apiutil.NewHandlerError(http.StatusBadRequest, "Invitation has already been resolved")
		}

		updated, err := tx.Queries.ResolveInvitation(ctx, dbgen.ResolveInvitationParams{Status: status, ID: invitation.ID})
		if err != nil {
			return err
		}
		if updated == 0 {
			return apiutil.NewHandlerError(http.StatusBadRequest, "Invitation has already been resolved")
		}

		if accept {
			if _, err := tx.Queries.AddTeamPlayer(ctx, dbgen.AddTeamPlayerParams{
				TeamID:   invitation.TeamID,
				PlayerID: invitation.PlayerID,
			}); err != nil {
				return fmt.Errorf("add team player: %w", err)
			}
		}

		team, err := tx.Queries.GetTeamByID(ctx, invitation.TeamID)
		if err != nil {
			return fmt.Errorf("load team: %w", err)
		}
		player, err := tx.Queries.GetUserByID(ctx, invitation.PlayerID)
		if err != nil {
			return fmt.Errorf("load player: %w", err)
		}
		if _, err := tx.Queries.CreateNotification(ctx, dbgen.CreateNotificationParams{
			UserID:  team.CaptainID,
			Kind:    kind,
			Message: fmt.Sprintf("%s %s your invitation to %s", player.Name, verb, team.Name),
		}); err != nil {
			return fmt.Errorf("notify captain: %w", err)
		}

		resolved, err = tx.Queries.GetInvitationByID(ctx, invitation.ID)
		return err
	})
	return resolved, err
}

// GET /api/v1/invitations/count
func HandleInvitationCount(w http.ResponseWriter, r *http.Request) {
	db := loadDB(w, r)
	if db == nil {
		return
	}
	user, ok := apiutil.RequireRole(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), invitationsQueryTimeout)
	defer cancel()

	count, err := notifications.PendingInvitationCount(ctx, db.Queries, user.ID, user.Role)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	_ = apiutil.WriteJSON(w, http.StatusOK, map[string]int64{"count": count})
}

// GET /api/v1/invitations
func HandleInvitationsList(w http.ResponseWriter, r *http.Request) {
	db := loadDB(w, r)
	if db == nil {
		return
	}
	user, ok := apiutil.RequireRole(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), invitationsQueryTimeout)
	defer cancel()

	var (
		rows []dbgen.PendingInvitationRow
		err  error
	)
	switch user.Role {
	case authz.RolePlayer:
		rows, err = db.Queries.ListPendingInvitationsForPlayer(ctx, user.ID)
	case authz.RoleCaptain:
		rows, err = db.Queries.ListPendingInvitationsForCaptain(ctx, user.ID)
	}
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	_ = apiutil.WriteJSON(w, http.StatusOK, map[string]any{
		"invitations": models.NewPendingInvitations(rows),
	})
}

// POST /api/v1/invitations
func HandleCreateInvitation(w http.ResponseWriter, r *http.Request) {
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
	if req.TeamID <= 0 || req.PlayerID <= 0 {
		apiutil.WriteErrorJSON(w, http.StatusBadRequest, "teamId and playerId are required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), invitationsQueryTimeout)
	defer cancel()

	invitation, team, player, err := create(ctx, db, user, req)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	logger := log.Ctx(r.Context())
	logger.Info().
		Int64("invitation_id", invitation.ID).
		Int64("team_id", team.ID).
		Int64("player_id", player.ID).
		Msg("Invitation created")

	email.SendAsync(r.Context(), emailSender, player.Email, email.BuildInvitationEmail(email.InvitationDetails{
		PlayerName:  player.Name,
		TeamName:    team.Name,
		CaptainName: user.Name,
		BaseURL:     baseURL,
	}), logger)

	_ = apiutil.WriteJSON(w, http.StatusCreated, models.NewInvitation(invitation))
}

func create(ctx context.Context, db *appdb.DB, actor *authz.AuthUser, req createRequest) (dbgen.Invitation, dbgen.Team, dbgen.User, error) {
	var (
		invitation dbgen.Invitation
		team       dbgen.Team
		player     dbgen.User
	)
	err := db.RunInTx(ctx, func(tx *appdb.DB) error {
		var err error
		team, err = tx.Queries.GetTeamByID(ctx, req.TeamID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return apiutil.NewHandlerError(http.StatusNotFound, "Team not found")
			}
			return err
		}
		if actor.Role == authz.RoleCaptain && team.CaptainID != actor.ID {
			return authz.ErrForbidden
		}

		player, err = tx.Queries.GetUserByID(ctx, req.PlayerID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return apiutil.NewHandlerError(http.StatusNotFound, "Player not found")
			}
			return err
		}
		if authz.Status(player.Status) != authz.StatusApproved {
			return apiutil.NewHandlerError(http.StatusBadRequest, "Player has not been approved")
		}

		member, err := tx.Queries.IsTeamPlayer(ctx, dbgen.IsTeamPlayerParams{TeamID: team.ID, PlayerID: player.ID})
		if err != nil {
			return err
		}
		if member {
			return apiutil.NewHandlerError(http.StatusBadRequest, "Player is already on this team")
		}

		invitation, err = tx.Queries.CreateInvitation(ctx, dbgen.CreateInvitationParams{TeamID: team.ID, PlayerID: player.ID})
		if err != nil {
			if appdb.IsUniqueViolation(err) {
				return apiutil.NewHandlerError(http.StatusBadRequest, "Invitation is already pending")
			}
			return err
		}

		_, err = tx.Queries.CreateNotification(ctx, dbgen.CreateNotificationParams{
			UserID:  player.ID,
			Kind:    models.NotificationInvitationReceived,
			Message: fmt.Sprintf("You have been invited to join %s", team.Name),
		})
		return err
	})
	return invitation, team, player, err
}
