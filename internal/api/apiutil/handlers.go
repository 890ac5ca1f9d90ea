package apiutil

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/codr1/leaguedesk/internal/api/authz"
	appdb "github.com/codr1/leaguedesk/internal/db"
)

type FieldError struct {
	Field  string
	Reason string
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

type HandlerError struct {
	Status  int
	Message string
	Err     error
}

func (e HandlerError) Error() string {
	return e.Message
}

func (e HandlerError) Unwrap() error {
	return e.Err
}

func NewHandlerError(status int, message string) HandlerError {
	return HandlerError{Status: status, Message: message}
}

type errorResponse struct {
	Error string `json:"error"`
}

func DecodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return fmt.Errorf("missing request body")
	}
	defer r.Body.Close()

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("missing request body")
		}
		return fmt.Errorf("invalid JSON body")
	}
	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		return fmt.Errorf("invalid JSON body")
	}
	return nil
}

func WriteJSON(w http.ResponseWriter, status int, payload any) error {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	if err := encoder.Encode(payload); err != nil {
		return err
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err := w.Write(buf.Bytes())
	return err
}

// WriteErrorJSON writes {"error": message} with the given status.
func WriteErrorJSON(w http.ResponseWriter, status int, message string) {
	_ = WriteJSON(w, status, errorResponse{Error: message})
}

// HandleNotFound answers unmatched API paths with a JSON body instead of the
// mux's plain-text 404.
func HandleNotFound(w http.ResponseWriter, r *http.Request) {
	WriteErrorJSON(w, http.StatusNotFound, "Not found")
}

// WriteError maps err onto a JSON error response. HandlerError keeps its
// status and message, field errors become 400, auth sentinels become 401/403, missing rows 404 and
// unique violations 400. Anything else is logged and reported as a 500.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		handlerErr HandlerError
		fieldErr   FieldError
	)
	switch {
	case errors.As(err, &fieldErr):
		WriteErrorJSON(w, http.StatusBadRequest, fieldErr.Error())
	case errors.As(err, &handlerErr):
		if handlerErr.Status >= http.StatusInternalServerError {
			log.Ctx(r.Context()).Error().Err(err).Msg(handlerErr.Message)
		}
		WriteErrorJSON(w, handlerErr.Status, handlerErr.Message)
	case errors.Is(err, authz.ErrUnauthenticated):
		WriteErrorJSON(w, http.StatusUnauthorized, "Unauthorized")
	case errors.Is(err, authz.ErrForbidden):
		WriteErrorJSON(w, http.StatusForbidden, "Forbidden")
	case errors.Is(err, sql.ErrNoRows):
		WriteErrorJSON(w, http.StatusNotFound, "Not found")
	case appdb.IsUniqueViolation(err):
		WriteErrorJSON(w, http.StatusBadRequest, "Record already exists")
	default:
		log.Ctx(r.Context()).Error().Err(err).Msg("Unhandled handler error")
		WriteErrorJSON(w, http.StatusInternalServerError, "Internal Server Error")
	}
}

// RequireRole writes a 401/403 JSON error and returns false unless the
// request's user passes authz.RequireRole.
func RequireRole(w http.ResponseWriter, r *http.Request, roles ...authz.Role) (*authz.AuthUser, bool) {
	logger := log.Ctx(r.Context())
	user := authz.UserFromContext(r.Context())
	if err := authz.RequireRole(r.Context(), roles...); err != nil {
		switch {
		case errors.Is(err, authz.ErrUnauthenticated):
			logger.Warn().Str("path", r.URL.Path).Msg("Access denied: unauthenticated")
			WriteErrorJSON(w, http.StatusUnauthorized, "Unauthorized")
		case errors.Is(err, authz.ErrForbidden):
			logEvent := logger.Warn().Str("path", r.URL.Path)
			if user != nil {
				logEvent = logEvent.Int64("user_id", user.ID).Str("role", string(user.Role))
			}
			logEvent.Msg("Access denied: forbidden")
			WriteErrorJSON(w, http.StatusForbidden, "Forbidden")
		default:
			logger.Error().Err(err).Msg("Access denied: error")
			WriteErrorJSON(w, http.StatusInternalServerError, "Failed to authorize request")
		}
		return nil, false
	}
	return user, true
}
