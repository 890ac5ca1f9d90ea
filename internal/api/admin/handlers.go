// internal/api/admin/handlers.go
package admin

import (
	"context"
	"fmt"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/codr1/leaguedesk/internal/api/apiutil"
	"github.com/codr1/leaguedesk/internal/api/auth"
	"github.com/codr1/leaguedesk/internal/api/authz"
	appdb "github.com/codr1/leaguedesk/internal/db"
	dbgen "github.com/codr1/leaguedesk/internal/db/generated"
	"github.com/codr1/leaguedesk/internal/models"
)

var database *appdb.DB

const adminQueryTimeout = 5 * time.Second

func InitHandlers(db *appdb.DB) {
	database = db
}

type SuperAdminInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// Normalize trims the input and checks required fields and password length.
func (in *SuperAdminInput) Normalize() error {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Name = strings.TrimSpace(in.Name)

	if in.Email == "" {
		return apiutil.FieldError{Field: "email", Reason: "is required"}
	}
	if addr, err := mail.ParseAddress(in.Email); err != nil || addr.Address != in.Email {
		return apiutil.FieldError{Field: "email", Reason: "must be a valid address"}
	}
	if in.Name == "" {
		return apiutil.FieldError{Field: "name", Reason: "is required"}
	}
	if err := auth.ValidatePassword(in.Password); err != nil {
		return apiutil.FieldError{Field: "password", Reason: err.Error()}
	}
	return nil
}

// CreateSuperAdmin inserts an approved SUPERADMIN with a bcrypt password.
// The caller decides whether the actor may do so.
func CreateSuperAdmin(ctx context.Context, q *dbgen.Queries, in SuperAdminInput) (dbgen.User, error) {
	if err := in.Normalize(); err != nil {
		return dbgen.User{}, err
	}
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return dbgen.User{}, fmt.Errorf("hash password: %w", err)
	}

	user, err := q.CreateUser(ctx, dbgen.CreateUserParams{
		Email:        in.Email,
		Name:         in.Name,
		PasswordHash: apiutil.ToNullString(hash),
		Role:         string(authz.RoleSuperAdmin),
		Status:       string(authz.StatusApproved),
	})
	if err != nil {
		if appdb.IsUniqueViolation(err) {
			return dbgen.User{}, apiutil.NewHandlerError(http.StatusBadRequest, "A user with that email already exists")
		}
		return dbgen.User{}, err
	}
	return user, nil
}

// POST /api/v1/admin/create-superadmin
//
// Open to anyone until the first SUPERADMIN exists; afterwards only a
// SUPERADMIN may add another.
func HandleCreateSuperAdmin(w http.ResponseWriter, r *http.Request) {
	if database == nil {
		log.Ctx(r.Context()).Error().Msg("Database not initialized")
		apiutil.WriteErrorJSON(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	var in SuperAdminInput
	if err := apiutil.DecodeJSON(r, &in); err != nil {
		apiutil.WriteErrorJSON(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), adminQueryTimeout)
	defer cancel()

	actor := authz.UserFromContext(r.Context())
	var (
		created   dbgen.User
		bootstrap bool
	)
	err := database.RunInTx(ctx, func(tx *appdb.DB) error {
		count, err := tx.Queries.CountUsersByRole(ctx, string(authz.RoleSuperAdmin))
		if err != nil {
			return err
		}
		bootstrap = count == 0
		if !bootstrap {
			if err := authz.RequireRole(r.Context(), authz.RoleSuperAdmin); err != nil {
				return err
			}
		}
		created, err = CreateSuperAdmin(ctx, tx.Queries, in)
		return err
	})
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	event := log.Ctx(r.Context()).Info().
		Int64("created_user_id", created.ID).
		Bool("bootstrap", bootstrap)
	if actor != nil {
		event = event.Int64("user_id", actor.ID)
	}
	event.Msg("Superadmin created")

	_ = apiutil.WriteJSON(w, http.StatusCreated, models.NewUser(created))
}
