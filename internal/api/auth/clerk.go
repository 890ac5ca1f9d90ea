package auth

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strings"

	"github.com/clerk/clerk-sdk-go/v2"
	"github.com/clerk/clerk-sdk-go/v2/jwt"
	"github.com/clerk/clerk-sdk-go/v2/user"
	"github.com/rs/zerolog/log"

	"github.com/codr1/leaguedesk/internal/api/authz"
	dbgen "github.com/codr1/leaguedesk/internal/db/generated"
	"github.com/codr1/leaguedesk/internal/phone"
)

const clerkSessionCookie = "__session"

var clerkInitialized bool

// fetchClerkUser is swapped out in tests.
var fetchClerkUser = user.Get

func InitClerk(secretKey string) {
	if secretKey == "" {
		log.Warn().Msg("Clerk secret key not configured")
		return
	}
	clerk.SetKey(secretKey)
	clerkInitialized = true
	log.Info().Msg("Clerk SDK initialized")
}

// ClerkEnabled reports whether InitClerk received a secret key.
func ClerkEnabled() bool {
	return clerkInitialized
}

// HandleClerkCallback links the Clerk account behind the current session to a
// local user, provisioning a PENDING PLAYER on first sign-in, then issues the
// app session cookie.
func HandleClerkCallback(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	if !clerkInitialized {
		logger.Error().Msg("Clerk not configured")
		http.Error(w, "Authentication service not available", http.StatusServiceUnavailable)
		return
	}

	claims, ok := clerk.SessionClaimsFromContext(r.Context())
	if !ok || claims == nil {
		logger.Warn().Msg("No Clerk session claims in context")
		http.Redirect(w, r, authz.SignInPath, http.StatusFound)
		return
	}

	clerkUser, err := fetchClerkUser(r.Context(), claims.Subject)
	if err != nil {
		logger.Error().Err(err).Str("clerk_user_id", claims.Subject).Msg("Failed to get Clerk user")
		http.Error(w, "Failed to verify user", http.StatusInternalServerError)
		return
	}

	localUser, err := linkClerkUser(r.Context(), clerkUser)
	if err != nil {
		if errors.Is(err, errNoClerkEmail) {
			logger.Warn().Str("clerk_user_id", clerkUser.ID).Msg("Clerk user has no email address")
			http.Error(w, "An email address is required to sign in", http.StatusBadRequest)
			return
		}
		logger.Error().Err(err).Str("clerk_user_id", clerkUser.ID).Msg("Failed to link Clerk user")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	if err := SetSessionCookie(w, authUserFromRow(localUser, authz.SessionTypeClerk)); err != nil {
		logger.Error().Err(err).Int64("user_id", localUser.ID).Msg("Failed to set session cookie")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	logger.Info().
		Int64("user_id", localUser.ID).
		Str("status", localUser.Status).
		Msg("Clerk sign-in completed")
	http.Redirect(w, r, landingPath(localUser), http.StatusFound)
}

func landingPath(u dbgen.User) string {
	if authz.Status(u.Status) != authz.StatusApproved {
		return authz.PendingApprovalPath
	}
	return "/dashboard"
}

var errNoClerkEmail = errors.New("clerk user has no email address")

// linkClerkUser returns the local user for clerkUser, storing the Clerk id on
// first match and creating a PENDING PLAYER when nothing matches.
func linkClerkUser(ctx context.Context, clerkUser *clerk.User) (dbgen.User, error) {
	if queries == nil {
		return dbgen.User{}, errors.New("database not initialized")
	}

	clerkID := sql.NullString{String: clerkUser.ID, Valid: clerkUser.ID != ""}
	if clerkID.Valid {
		existing, err := queries.GetUserByClerkID(ctx, clerkID)
		if err == nil {
			return existing, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return dbgen.User{}, err
		}
	}

	existing, err := findLocalUserFromClerk(ctx, clerkUser)
	switch {
	case err == nil:
		if clerkID.Valid && !existing.ClerkUserID.Valid {
			if err := queries.SetUserClerkID(ctx, dbgen.SetUserClerkIDParams{ClerkUserID: clerkID, ID: existing.ID}); err != nil {
				return dbgen.User{}, err
			}
			existing.ClerkUserID = clerkID
		}
		return existing, nil
	case !errors.Is(err, sql.ErrNoRows):
		return dbgen.User{}, err
	}

	email := primaryEmail(clerkUser)
	if email == "" {
		return dbgen.User{}, errNoClerkEmail
	}
	var phoneNumber sql.NullString
	if normalized := phone.Normalize(primaryPhone(clerkUser)); normalized != "" {
		phoneNumber = sql.NullString{String: normalized, Valid: true}
	}

	created, err := queries.CreateUser(ctx, dbgen.CreateUserParams{
		ClerkUserID: clerkID,
		Email:       email,
		Phone:       phoneNumber,
		Name:        displayName(clerkUser, email),
		Role:        string(authz.RolePlayer),
		Status:      string(authz.StatusPending),
	})
	if err != nil {
		return dbgen.User{}, err
	}
	log.Ctx(ctx).Info().Int64("user_id", created.ID).Msg("Provisioned pending user from Clerk")
	return created, nil
}

// findLocalUserFromClerk matches by primary email, primary phone, then any
// email and any phone.
func findLocalUserFromClerk(ctx context.Context, clerkUser *clerk.User) (dbgen.User, error) {
	if queries == nil {
		return dbgen.User{}, errors.New("database not initialized")
	}

	candidates := make([]func() (dbgen.User, error), 0, 4)
	if email := primaryEmail(clerkUser); email != "" && clerkUser.PrimaryEmailAddressID != nil {
		candidates = append(candidates, func() (dbgen.User, error) { return queries.GetUserByEmail(ctx, email) })
	}
	if normalized := phone.Normalize(primaryPhone(clerkUser)); normalized != "" {
		candidates = append(candidates, func() (dbgen.User, error) {
			return queries.GetUserByPhone(ctx, sql.NullString{String: normalized, Valid: true})
		})
	}
	for _, email := range clerkUser.EmailAddresses {
		address := strings.TrimSpace(email.EmailAddress)
		if address == "" {
			continue
		}
		candidates = append(candidates, func() (dbgen.User, error) { return queries.GetUserByEmail(ctx, address) })
	}
	for _, number := range clerkUser.PhoneNumbers {
		normalized := phone.Normalize(number.PhoneNumber)
		if normalized == "" {
			continue
		}
		candidates = append(candidates, func() (dbgen.User, error) {
			return queries.GetUserByPhone(ctx, sql.NullString{String: normalized, Valid: true})
		})
	}

	for _, lookup := range candidates {
		found, err := lookup()
		if err == nil {
			return found, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return dbgen.User{}, err
		}
	}
	return dbgen.User{}, sql.ErrNoRows
}

func primaryEmail(u *clerk.User) string {
	if u.PrimaryEmailAddressID != nil {
		for _, email := range u.EmailAddresses {
			if email.ID == *u.PrimaryEmailAddressID {
				return strings.TrimSpace(email.EmailAddress)
			}
		}
	}
	if len(u.EmailAddresses) > 0 {
		return strings.TrimSpace(u.EmailAddresses[0].EmailAddress)
	}
	return ""
}

func primaryPhone(u *clerk.User) string {
	if u.PrimaryPhoneNumberID == nil {
		return ""
	}
	for _, number := range u.PhoneNumbers {
		if number.ID == *u.PrimaryPhoneNumberID {
			return number.PhoneNumber
		}
	}
	return ""
}

func displayName(u *clerk.User, fallback string) string {
	var parts []string
	if u.FirstName != nil && strings.TrimSpace(*u.FirstName) != "" {
		parts = append(parts, strings.TrimSpace(*u.FirstName))
	}
	if u.LastName != nil && strings.TrimSpace(*u.LastName) != "" {
		parts = append(parts, strings.TrimSpace(*u.LastName))
	}
	if len(parts) == 0 {
		return fallback
	}
	return strings.Join(parts, " ")
}

// WithClerkSession verifies the Clerk session cookie and stores its claims in
// the request context. Invalid or missing tokens pass through anonymously.
func WithClerkSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !clerkInitialized {
			next.ServeHTTP(w, r)
			return
		}

		sessionToken, err := r.Cookie(clerkSessionCookie)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}

		claims, err := jwt.Verify(r.Context(), &jwt.VerifyParams{
			Token: sessionToken.Value,
		})
		if err != nil {
			log.Ctx(r.Context()).Debug().Err(err).Msg("Invalid Clerk session token")
			next.ServeHTTP(w, r)
			return
		}

		ctx := clerk.ContextWithSessionClaims(r.Context(), claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
