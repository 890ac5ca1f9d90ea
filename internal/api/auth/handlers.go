package auth

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/codr1/leaguedesk/internal/api/apiutil"
	"github.com/codr1/leaguedesk/internal/api/authz"
	"github.com/codr1/leaguedesk/internal/config"
	dbgen "github.com/codr1/leaguedesk/internal/db/generated"
	"github.com/codr1/leaguedesk/internal/models"
	"github.com/codr1/leaguedesk/internal/phone"
	"github.com/codr1/leaguedesk/internal/ratelimit"
)

var (
	appConfig *config.Config
	queries   *dbgen.Queries
	limiter   *ratelimit.Limiter
)

func InitHandlers(cfg *config.Config, q *dbgen.Queries, l *ratelimit.Limiter) {
	appConfig = cfg
	queries = q
	limiter = l
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	User     models.User `json:"user"`
	Redirect string      `json:"redirect"`
}

// HandleLogin handles POST /auth/login. The email field also accepts a phone
// number.
func HandleLogin(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	if queries == nil {
		logger.Error().Msg("Database queries not initialized")
		apiutil.WriteErrorJSON(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	var req loginRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteErrorJSON(w, http.StatusBadRequest, err.Error())
		return
	}
	identifier := strings.TrimSpace(req.Email)
	if identifier == "" || req.Password == "" {
		apiutil.WriteErrorJSON(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	ip := ratelimit.GetClientIP(r, appConfig != nil && appConfig.Auth.TrustProxy)
	if limiter != nil {
		if result := limiter.CheckLogin(identifier, ip); !result.Allowed {
			ratelimit.LogRateLimitExceeded(identifier, ip, result.Reason)
			w.Header().Set("Retry-After", strconv.Itoa(int(result.RetryAfter.Round(time.Second).Seconds())))
			apiutil.WriteErrorJSON(w, http.StatusTooManyRequests, "Too many sign-in attempts. Try again later.")
			return
		}
	}

	row, err := lookupLoginUser(r, identifier)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		logger.Error().Err(err).Msg("Failed to look up user for login")
		apiutil.WriteErrorJSON(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}
	if err != nil || !row.PasswordHash.Valid || !VerifyPassword(row.PasswordHash.String, req.Password) {
		if limiter != nil && limiter.RecordFailure(identifier, ip) {
			logger.Warn().
				Str("identifier", ratelimit.SanitizeIdentifier(identifier)).
				Str("ip", ip).
				Msg("Login locked out after repeated failures")
		}
		apiutil.WriteErrorJSON(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}
	if limiter != nil {
		limiter.Reset(identifier)
	}

	user := authUserFromRow(row, authz.SessionTypeLocal)
	if err := SetSessionCookie(w, user); err != nil {
		logger.Error().Err(err).Int64("user_id", row.ID).Msg("Failed to set session cookie")
		apiutil.WriteErrorJSON(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	logger.Info().Int64("user_id", row.ID).Msg("User signed in")
	_ = apiutil.WriteJSON(w, http.StatusOK, loginResponse{
		User:     models.NewUser(row),
		Redirect: landingPath(row),
	})
}

func lookupLoginUser(r *http.Request, identifier string) (dbgen.User, error) {
	if !strings.Contains(identifier, "@") {
		if normalized := phone.Normalize(identifier); normalized != "" {
			return queries.GetUserByPhone(r.Context(), sql.NullString{String: normalized, Valid: true})
		}
	}
	return queries.GetUserByEmail(r.Context(), identifier)
}

// HandleLogout clears the app session. The Clerk session, if any, is ended
// client side.
func HandleLogout(w http.ResponseWriter, r *http.Request) {
	ClearSessionCookie(w)
	if user := authz.UserFromContext(r.Context()); user != nil {
		log.Ctx(r.Context()).Info().Int64("user_id", user.ID).Msg("User signed out")
	}
	w.WriteHeader(http.StatusNoContent)
}
