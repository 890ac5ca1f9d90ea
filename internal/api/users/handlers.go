// internal/api/users/handlers.go
package users

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
	"github.com/codr1/leaguedesk/internal/email"
	"github.com/codr1/leaguedesk/internal/models"
)

var (
	database    *appdb.DB
	emailSender email.Sender
	baseURL     string
)

const (
	usersQueryTimeout = 5 * time.Second
	minLevel          = 1
	maxLevel          = 10
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

type roleRequest struct {
	Role string `json:"role"`
}

type levelRequest struct {
	Level *int64 `json:"level"`
}

type approveRequest struct {
	UserID int64  `json:"userId"`
	Status string `json:"status"`
}

// GET /api/v1/users?status=
func HandleUsersList(w http.ResponseWriter, r *http.Request) {
	db := loadDB(w, r)
	if db == nil {
		return
	}
	if _, ok := apiutil.RequireRole(w, r, authz.RoleManager); !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), usersQueryTimeout)
	defer cancel()

	var (
		rows []dbgen.User
		err  error
	)
	if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
		status, ok := authz.ParseStatus(raw)
		if !ok {
			apiutil.WriteErrorJSON(w, http.StatusBadRequest, "status must be PENDING or APPROVED")
			return
		}
		rows, err = db.Queries.ListUsersByStatus(ctx, string(status))
	} else {
		rows, err = db.Queries.ListUsers(ctx)
	}
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	_ = apiutil.WriteJSON(w, http.StatusOK, map[string]any{"users": models.NewUsers(rows)})
}

// PATCH /api/v1/users/{id}/role
func HandleUpdateRole(w http.ResponseWriter, r *http.Request) {
	db := loadDB(w, r)
	if db == nil {
		return
	}
	actor, ok := apiutil.RequireRole(w, r, authz.RoleManager)
	if !ok {
		return
	}

	id, err := apiutil.PathID(r, "id")
	if err != nil {
		apiutil.WriteErrorJSON(w, http.StatusBadRequest, err.Error())
		return
	}
	var req roleRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteErrorJSON(w, http.StatusBadRequest, err.Error())
		return
	}
	role, ok := authz.ParseRole(req.Role)
	if !ok {
		apiutil.WriteErrorJSON(w, http.StatusBadRequest, "role must be one of PLAYER, CAPTAIN, MANAGER, SUPERADMIN")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), usersQueryTimeout)
	defer cancel()

	var updated dbgen.User
	err = db.RunInTx(ctx, func(tx *appdb.DB) error {
		target, err := loadUser(ctx, tx.Queries, id)
		if err != nil {
			return err
		}
		if !authz.CanAssignRole(actor, target.ID, authz.Role(target.Role), role) {
			return authz.ErrForbidden
		}
		updated, err = tx.Queries.UpdateUserRole(ctx, dbgen.UpdateUserRoleParams{Role: string(role), ID: target.ID})
		return err
	})
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	log.Ctx(r.Context()).Info().
		Int64("user_id", actor.ID).
		Int64("target_user_id", updated.ID).
		Str("role", updated.Role).
		Msg("User role updated")
	_ = apiutil.WriteJSON(w, http.StatusOK, models.NewUser(updated))
}

// PATCH /api/v1/users/{id}/level
func HandleUpdateLevel(w http.ResponseWriter, r *http.Request) {
	db := loadDB(w, r)
	if db == nil {
		return
	}
	actor, ok := apiutil.RequireRole(w, r, authz.RoleManager)
	if !ok {
		return
	}

	id, err := apiutil.PathID(r, "id")
	if err != nil {
		apiutil.WriteErrorJSON(w, http.StatusBadRequest, err.Error())
		return
	}
	var req levelRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteErrorJSON(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Level != nil && (*req.Level < minLevel || *req.Level > maxLevel) {
		apiutil.WriteErrorJSON(w, http.StatusBadRequest, fmt.Sprintf("level must be between %d and %d", minLevel, maxLevel))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), usersQueryTimeout)
	defer cancel()

	var updated dbgen.User
	err = db.RunInTx(ctx, func(tx *appdb.DB) error {
		target, err := loadUser(ctx, tx.Queries, id)
		if err != nil {
			return err
		}
		if err := guardSuperAdmin(actor, target); err != nil {
			return err
		}
		updated, err = tx.Queries.UpdateUserLevel(ctx, dbgen.UpdateUserLevelParams{
			Level: apiutil.ToNullInt64(req.Level),
			ID:    target.ID,
		})
		return err
	})
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	log.Ctx(r.Context()).Info().
		Int64("user_id", actor.ID).
		Int64("target_user_id", updated.ID).
		Msg("User level updated")
	_ = apiutil.WriteJSON(w, http.StatusOK, models.NewUser(updated))
}

// POST /api/v1/users/approve
func HandleApproveUser(w http.ResponseWriter, r *http.Request) {
	db := loadDB(w, r)
	if db == nil {
		return
	}
	actor, ok := apiutil.RequireRole(w, r, authz.RoleManager)
	if !ok {
		return
	}

	var req approveRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteErrorJSON(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.UserID <= 0 {
		apiutil.WriteErrorJSON(w, http.StatusBadRequest, "userId is required")
		return
	}
	status, ok := authz.ParseStatus(req.Status)
	if !ok {
		apiutil.WriteErrorJSON(w, http.StatusBadRequest, "status must be PENDING or APPROVED")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), usersQueryTimeout)
	defer cancel()

	updated, approved, err := setStatus(ctx, db, actor, req.UserID, status)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	logger := log.Ctx(r.Context())
	logger.Info().
		Int64("user_id", actor.ID).
		Int64("target_user_id", updated.ID).
		Str("status", updated.Status).
		Msg("User status updated")

	if approved {
		email.SendAsync(r.Context(), emailSender, updated.Email, email.BuildAccountApprovedEmail(updated.Name, baseURL), logger)
	}
	_ = apiutil.WriteJSON(w, http.StatusOK, models.NewUser(updated))
}

// setStatus reports approved=true only for a PENDING to APPROVED transition,
// which is also when the account-approved notification is written.
func setStatus(ctx context.Context, db *appdb.DB, actor *authz.AuthUser, userID int64, status authz.Status) (dbgen.User, bool, error) {
	var (
		updated  dbgen.User
		approved bool
	)
	err := db.RunInTx(ctx, func(tx *appdb.DB) error {
		target, err := loadUser(ctx, tx.Queries, userID)
		if err != nil {
			return err
		}
		if err := guardSuperAdmin(actor, target); err != nil {
			return err
		}
		if target.ID == actor.ID {
			return apiutil.NewHandlerError(http.StatusBadRequest, "Cannot change your own status")
		}

		updated, err = tx.Queries.UpdateUserStatus(ctx, dbgen.UpdateUserStatusParams{Status: string(status), ID: target.ID})
		if err != nil {
			return err
		}
		if authz.Status(target.Status) == authz.StatusPending && status == authz.StatusApproved {
			approved = true
			_, err = tx.Queries.CreateNotification(ctx, dbgen.CreateNotificationParams{
				UserID:  target.ID,
				Kind:    models.NotificationAccountApproved,
				Message: "Your account has been approved",
			})
		}
		return err
	})
	return updated, approved, err
}

// guardSuperAdmin keeps SUPERADMIN accounts out of reach of everyone but
// other superadmins.
func guardSuperAdmin(actor *authz.AuthUser, target dbgen.User) error {
	if !authz.IsSuperAdmin(actor) && authz.Role(target.Role) == authz.RoleSuperAdmin {
		return authz.ErrForbidden
	}
	return nil
}

func loadUser(ctx context.Context, q *dbgen.Queries, id int64) (dbgen.User, error) {
	user, err := q.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return dbgen.User{}, apiutil.NewHandlerError(http.StatusNotFound, "User not found")
		}
		return dbgen.User{}, err
	}
	return user, nil
}
