// internal/api/leagues/handlers.go
package leagues

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/codr1/leaguedesk/internal/api/apiutil"
	"github.com/codr1/leaguedesk/internal/api/authz"
	appdb "github.com/codr1/leaguedesk/internal/db"
	dbgen "github.com/codr1/leaguedesk/internal/db/generated"
	"github.com/codr1/leaguedesk/internal/models"
)

const (
	leagueQueryTimeout = 5 * time.Second
	leagueIDPathKey    = "id"
	teamIDPathKey      = "id"
	playerIDPathKey    = "playerId"
	maxNameLength      = 100
	minLevel           = 1
	maxLevel           = 10
)

var database *appdb.DB

var genders = map[string]bool{"MALE": true, "FEMALE": true, "OTHER": true}

type leagueRequest struct {
	Name   string `json:"name"`
	Gender string `json:"gender"`
	Level  *int64 `json:"level"`
}

type teamRequest struct {
	Name      string `json:"name"`
	LeagueID  *int64 `json:"leagueId"`
	CaptainID *int64 `json:"captainId"`
}

type teamMemberRequest struct {
	PlayerID int64 `json:"playerId"`
}

// InitHandlers must be called during server startup before handling requests.
func InitHandlers(db *appdb.DB) {
	database = db
}

func loadDB(w http.ResponseWriter, r *http.Request) *appdb.DB {
	if database == nil {
		log.Ctx(r.Context()).Error().Msg("Database not initialized")
		apiutil.WriteErrorJSON(w, http.StatusInternalServerError, "Internal Server Error")
	}
	return database
}

// GET /api/v1/leagues
func HandleLeaguesList(w http.ResponseWriter, r *http.Request) {
	db := loadDB(w, r)
	if db == nil {
		return
	}
	if _, ok := apiutil.RequireRole(w, r, authz.RoleManager); !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), leagueQueryTimeout)
	defer cancel()

	rows, err := db.Queries.ListLeagues(ctx)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	_ = apiutil.WriteJSON(w, http.StatusOK, map[string]any{"leagues": models.NewLeagues(rows)})
}

// POST /api/v1/leagues
func HandleLeagueCreate(w http.ResponseWriter, r *http.Request) {
	db := loadDB(w, r)
	if db == nil {
		return
	}
	actor, ok := apiutil.RequireRole(w, r, authz.RoleManager)
	if !ok {
		return
	}

	var req leagueRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteErrorJSON(w, http.StatusBadRequest, err.Error())
		return
	}
	params, err := parseLeagueRequest(req, actor.ID)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), leagueQueryTimeout)
	defer cancel()

	league, err := db.Queries.CreateLeague(ctx, params)
	if err != nil {
		if appdb.IsUniqueViolation(err) {
			apiutil.WriteErrorJSON(w, http.StatusBadRequest, "A league with that name already exists")
			return
		}
		apiutil.WriteError(w, r, err)
		return
	}

	log.Ctx(r.Context()).Info().
		Int64("league_id", league.ID).
		Int64("user_id", actor.ID).
		Msg("League created")
	_ = apiutil.WriteJSON(w, http.StatusCreated, models.NewLeague(league))
}

func parseLeagueRequest(req leagueRequest, managerID int64) (dbgen.CreateLeagueParams, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return dbgen.CreateLeagueParams{}, apiutil.FieldError{Field: "name", Reason: "is required"}
	}
	if len(name) > maxNameLength {
		return dbgen.CreateLeagueParams{}, apiutil.FieldError{Field: "name", Reason: fmt.Sprintf("must be at most %d characters", maxNameLength)}
	}

	gender := strings.ToUpper(strings.TrimSpace(req.Gender))
	if gender != "" && !genders[gender] {
		return dbgen.CreateLeagueParams{}, apiutil.FieldError{Field: "gender", Reason: "must be MALE, FEMALE or OTHER"}
	}
	if req.Level != nil && (*req.Level < minLevel || *req.Level > maxLevel) {
		return dbgen.CreateLeagueParams{}, apiutil.FieldError{Field: "level", Reason: fmt.Sprintf("must be between %d and %d", minLevel, maxLevel)}
	}

	return dbgen.CreateLeagueParams{
		Name:      name,
		Gender:    apiutil.ToNullString(gender),
		Level:     apiutil.ToNullInt64(req.Level),
		ManagerID: managerID,
	}, nil
}

// GET /api/v1/leagues/{id}/teams
func HandleListLeagueTeams(w http.ResponseWriter, r *http.Request) {
	db := loadDB(w, r)
	if db == nil {
		return
	}
	if _, ok := apiutil.RequireRole(w, r); !ok {
		return
	}

	leagueID, err := apiutil.PathID(r, leagueIDPathKey)
	if err != nil {
		apiutil.WriteErrorJSON(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), leagueQueryTimeout)
	defer cancel()

	league, err := loadLeague(ctx, db.Queries, leagueID)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	rows, err := db.Queries.ListTeamsByLeague(ctx, league.ID)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	_ = apiutil.WriteJSON(w, http.StatusOK, map[string]any{
		"league": models.NewLeague(league),
		"teams":  models.NewLeagueTeams(league.ID, rows),
	})
}

// POST /api/v1/teams
func HandleTeamCreate(w http.ResponseWriter, r *http.Request) {
	db := loadDB(w, r)
	if db == nil {
		return
	}
	actor, ok := apiutil.RequireRole(w, r, authz.RoleCaptain, authz.RoleManager)
	if !ok {
		return
	}

	var req teamRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteErrorJSON(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), leagueQueryTimeout)
	defer cancel()

	team, err := createTeam(ctx, db, actor, req)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	log.Ctx(r.Context()).Info().
		Int64("team_id", team.ID).
		Int64("captain_id", team.CaptainID).
		Int64("user_id", actor.ID).
		Msg("Team created")
	_ = apiutil.WriteJSON(w, http.StatusCreated, models.NewTeam(team))
}

// createTeam makes the caller captain unless a MANAGER names someone else.
// Captains can only create teams for themselves.
func createTeam(ctx context.Context, db *appdb.DB, actor *authz.AuthUser, req teamRequest) (dbgen.Team, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return dbgen.Team{}, apiutil.FieldError{Field: "name", Reason: "is required"}
	}
	if len(name) > maxNameLength {
		return dbgen.Team{}, apiutil.FieldError{Field: "name", Reason: fmt.Sprintf("must be at most %d characters", maxNameLength)}
	}

	captainID := actor.ID
	if req.CaptainID != nil && *req.CaptainID != actor.ID {
		if !authz.HasRole(actor, authz.RoleManager) {
			return dbgen.Team{}, authz.ErrForbidden
		}
		captainID = *req.CaptainID
	}

	var team dbgen.Team
	err := db.RunInTx(ctx, func(tx *appdb.DB) error {
		var league sql.NullInt64
		if req.LeagueID != nil {
			found, err := loadLeague(ctx, tx.Queries, *req.LeagueID)
			if err != nil {
				return err
			}
			league = sql.NullInt64{Int64: found.ID, Valid: true}
		}

		if captainID != actor.ID {
			captain, err := tx.Queries.GetUserByID(ctx, captainID)
			if err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					return apiutil.NewHandlerError(http.StatusNotFound, "Captain not found")
				}
				return err
			}
			if authz.Status(captain.Status) != authz.StatusApproved {
				return apiutil.NewHandlerError(http.StatusBadRequest, "Captain has not been approved")
			}
			if authz.Role(captain.Role) == authz.RolePlayer {
				return apiutil.NewHandlerError(http.StatusBadRequest, "Captain must have the CAPTAIN role")
			}
		}

		var err error
		team, err = tx.Queries.CreateTeam(ctx, dbgen.CreateTeamParams{
			Name:      name,
			CaptainID: captainID,
			LeagueID:  league,
		})
		if err != nil && appdb.IsUniqueViolation(err) {
			return apiutil.NewHandlerError(http.StatusBadRequest, "A team with that name already exists in this league")
		}
		return err
	})
	return team, err
}

// GET /api/v1/teams/{id}/players
func HandleListTeamPlayers(w http.ResponseWriter, r *http.Request) {
	db := loadDB(w, r)
	if db == nil {
		return
	}
	if _, ok := apiutil.RequireRole(w, r); !ok {
		return
	}

	teamID, err := apiutil.PathID(r, teamIDPathKey)
	if err != nil {
		apiutil.WriteErrorJSON(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), leagueQueryTimeout)
	defer cancel()

	team, err := loadTeam(ctx, db.Queries, teamID)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	rows, err := db.Queries.ListTeamPlayers(ctx, team.ID)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	_ = apiutil.WriteJSON(w, http.StatusOK, map[string]any{
		"team":    models.NewTeam(team),
		"players": models.NewTeamPlayers(rows),
	})
}

// POST /api/v1/teams/{id}/players
//
// Managers place free agents directly; captains go through invitations.
func HandleAddTeamMember(w http.ResponseWriter, r *http.Request) {
	db := loadDB(w, r)
	if db == nil {
		return
	}
	actor, ok := apiutil.RequireRole(w, r, authz.RoleManager)
	if !ok {
		return
	}

	teamID, err := apiutil.PathID(r, teamIDPathKey)
	if err != nil {
		apiutil.WriteErrorJSON(w, http.StatusBadRequest, err.Error())
		return
	}
	var req teamMemberRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteErrorJSON(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.PlayerID <= 0 {
		apiutil.WriteErrorJSON(w, http.StatusBadRequest, "playerId is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), leagueQueryTimeout)
	defer cancel()

	err = db.RunInTx(ctx, func(tx *appdb.DB) error {
		team, err := loadTeam(ctx, tx.Queries, teamID)
		if err != nil {
			return err
		}
		player, err := tx.Queries.GetUserByID(ctx, req.PlayerID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return apiutil.NewHandlerError(http.StatusNotFound, "Player not found")
			}
			return err
		}
		if authz.Status(player.Status) != authz.StatusApproved {
			return apiutil.NewHandlerError(http.StatusBadRequest, "Player has not been approved")
		}
		added, err := tx.Queries.AddTeamPlayer(ctx, dbgen.AddTeamPlayerParams{TeamID: team.ID, PlayerID: player.ID})
		if err != nil {
			return err
		}
		if added == 0 {
			return apiutil.NewHandlerError(http.StatusBadRequest, "Player is already on this team")
		}
		return nil
	})
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	log.Ctx(r.Context()).Info().
		Int64("team_id", teamID).
		Int64("player_id", req.PlayerID).
		Int64("user_id", actor.ID).
		Msg("Team member added")
	_ = apiutil.WriteJSON(w, http.StatusCreated, map[string]any{"teamId": teamID, "playerId": req.PlayerID})
}

// DELETE /api/v1/teams/{id}/players/{playerId}
//
// The team's captain, the player themselves, or a MANAGER may remove a member.
func HandleRemoveTeamMember(w http.ResponseWriter, r *http.Request) {
	db := loadDB(w, r)
	if db == nil {
		return
	}
	actor, ok := apiutil.RequireRole(w, r)
	if !ok {
		return
	}

	teamID, err := apiutil.PathID(r, teamIDPathKey)
	if err != nil {
		apiutil.WriteErrorJSON(w, http.StatusBadRequest, err.Error())
		return
	}
	playerID, err := apiutil.PathID(r, playerIDPathKey)
	if err != nil {
		apiutil.WriteErrorJSON(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), leagueQueryTimeout)
	defer cancel()

	err = db.RunInTx(ctx, func(tx *appdb.DB) error {
		team, err := loadTeam(ctx, tx.Queries, teamID)
		if err != nil {
			return err
		}
		if actor.ID != team.CaptainID && actor.ID != playerID && !authz.HasRole(actor, authz.RoleManager) {
			return authz.ErrForbidden
		}
		removed, err := tx.Queries.RemoveTeamPlayer(ctx, dbgen.RemoveTeamPlayerParams{TeamID: team.ID, PlayerID: playerID})
		if err != nil {
			return err
		}
		if removed == 0 {
			return apiutil.NewHandlerError(http.StatusNotFound, "Team member not found")
		}
		return nil
	})
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	log.Ctx(r.Context()).Info().
		Int64("team_id", teamID).
		Int64("player_id", playerID).
		Int64("user_id", actor.ID).
		Msg("Team member removed")
	_ = apiutil.WriteJSON(w, http.StatusOK, map[string]any{"removed": playerID})
}

func loadLeague(ctx context.Context, q *dbgen.Queries, id int64) (dbgen.League, error) {
	league, err := q.GetLeagueByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return dbgen.League{}, apiutil.NewHandlerError(http.StatusNotFound, "League not found")
		}
		return dbgen.League{}, err
	}
	return league, nil
}

func loadTeam(ctx context.Context, q *dbgen.Queries, id int64) (dbgen.Team, error) {
	team, err := q.GetTeamByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return dbgen.Team{}, apiutil.NewHandlerError(http.StatusNotFound, "Team not found")
		}
		return dbgen.Team{}, err
	}
	return team, nil
}
