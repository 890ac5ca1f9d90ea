package auth

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/clerk/clerk-sdk-go/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"

	"github.com/codr1/leaguedesk/internal/api/authz"
	dbgen "github.com/codr1/leaguedesk/internal/db/generated"
)

const (
	SessionCookieName = "leaguedesk_session"
	sessionTTL        = 8 * time.Hour
	sessionIssuer     = "leaguedesk"
)

var errAuthConfigMissing = errors.New("auth configuration missing")

// sessionClaims is the payload of the app session cookie. Only the user id
// travels in the token; role and status are reloaded on every request so a
// demotion takes effect immediately.
type sessionClaims struct {
	SessionType string `json:"stype"`
	jwt.RegisteredClaims
}

func isSecureCookie() bool {
	return appConfig == nil || !appConfig.IsDevelopment()
}

func signingKey() ([]byte, error) {
	if appConfig == nil || appConfig.App.SecretKey == "" {
		return nil, errAuthConfigMissing
	}
	return []byte(appConfig.App.SecretKey), nil
}

// SetSessionCookie issues an HS256 session token for user.
func SetSessionCookie(w http.ResponseWriter, user *authz.AuthUser) error {
	if w == nil || user == nil {
		return errors.New("session requires response writer and user")
	}
	key, err := signingKey()
	if err != nil {
		return err
	}

	now := time.Now()
	expiresAt := now.Add(sessionTTL)
	sessionType := user.SessionType
	if sessionType == "" {
		sessionType = authz.SessionTypeLocal
	}
	claims := sessionClaims{
		SessionType: sessionType,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    sessionIssuer,
			Subject:   strconv.FormatInt(user.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
	if err != nil {
		return fmt.Errorf("sign session: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   isSecureCookie(),
		SameSite: http.SameSiteLaxMode,
		Expires:  expiresAt,
		MaxAge:   int(sessionTTL.Seconds()),
	})
	return nil
}

func ClearSessionCookie(w http.ResponseWriter) {
	if w == nil {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   isSecureCookie(),
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
	})
}

func parseSessionToken(value string) (*sessionClaims, error) {
	key, err := signingKey()
	if err != nil {
		return nil, err
	}

	claims := &sessionClaims{}
	_, err = jwt.ParseWithClaims(value, claims, func(*jwt.Token) (any, error) {
		return key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(sessionIssuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, err
	}
	return claims, nil
}

// UserFromRequest resolves the caller from the app session cookie, falling
// back to Clerk session claims placed in the context by WithClerkSession.
// It returns nil, nil for anonymous requests.
func UserFromRequest(w http.ResponseWriter, r *http.Request) (*authz.AuthUser, error) {
	if r == nil {
		return nil, nil
	}
	if queries == nil {
		return nil, errors.New("auth queries not initialized")
	}

	user, err := userFromSessionCookie(w, r)
	if err != nil || user != nil {
		return user, err
	}
	return userFromClerkClaims(r)
}

func userFromSessionCookie(w http.ResponseWriter, r *http.Request) (*authz.AuthUser, error) {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		if errors.Is(err, http.ErrNoCookie) {
			return nil, nil
		}
		return nil, err
	}

	claims, err := parseSessionToken(cookie.Value)
	if err != nil {
		if errors.Is(err, errAuthConfigMissing) {
			return nil, err
		}
		log.Ctx(r.Context()).Debug().Err(err).Msg("Discarding invalid session cookie")
		ClearSessionCookie(w)
		return nil, nil
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		ClearSessionCookie(w)
		return nil, nil
	}

	row, err := queries.GetUserByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			ClearSessionCookie(w)
			return nil, nil
		}
		return nil, err
	}
	return authUserFromRow(row, claims.SessionType), nil
}

func userFromClerkClaims(r *http.Request) (*authz.AuthUser, error) {
	claims, ok := clerk.SessionClaimsFromContext(r.Context())
	if !ok || claims == nil || claims.Subject == "" {
		return nil, nil
	}

	row, err := queries.GetUserByClerkID(r.Context(), sql.NullString{String: claims.Subject, Valid: true})
	if err != nil {
		// Not linked yet; /auth/callback provisions the local account.
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return authUserFromRow(row, authz.SessionTypeClerk), nil
}

func authUserFromRow(row dbgen.User, sessionType string) *authz.AuthUser {
	switch sessionType {
	case authz.SessionTypeLocal, authz.SessionTypeClerk:
	default:
		sessionType = authz.SessionTypeLocal
	}
	return &authz.AuthUser{
		ID:          row.ID,
		Email:       row.Email,
		Name:        row.Name,
		Role:        authz.Role(row.Role),
		Status:      authz.Status(row.Status),
		SessionType: sessionType,
	}
}
