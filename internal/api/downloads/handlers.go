// internal/api/downloads/handlers.go
package downloads

import (
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/codr1/leaguedesk/internal/api/apiutil"
	"github.com/codr1/leaguedesk/internal/api/authz"
	"github.com/codr1/leaguedesk/internal/spreadsheet"
)

// GET /api/v1/admin/download-template
func HandleAdminTemplate(w http.ResponseWriter, r *http.Request) {
	serveTemplate(w, r, spreadsheet.KindAdmin, authz.RoleSuperAdmin)
}

// GET /api/v1/manager/download-template
func HandleManagerTemplate(w http.ResponseWriter, r *http.Request) {
	serveTemplate(w, r, spreadsheet.KindManager, authz.RoleManager)
}

// GET /api/v1/captain/download-template
func HandleCaptainTemplate(w http.ResponseWriter, r *http.Request) {
	serveTemplate(w, r, spreadsheet.KindCaptain, authz.RoleCaptain, authz.RoleManager)
}

func serveTemplate(w http.ResponseWriter, r *http.Request, kind spreadsheet.Kind, roles ...authz.Role) {
	user, ok := apiutil.RequireRole(w, r, roles...)
	if !ok {
		return
	}

	tmpl, ok := spreadsheet.ForKind(kind)
	if !ok {
		apiutil.WriteErrorJSON(w, http.StatusNotFound, "Template not found")
		return
	}
	buf, err := tmpl.Build()
	if err != nil {
		log.Ctx(r.Context()).Error().Err(err).Str("template", string(kind)).Msg("Failed to build template")
		apiutil.WriteErrorJSON(w, http.StatusInternalServerError, "Failed to build template")
		return
	}

	w.Header().Set("Content-Type", spreadsheet.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", tmpl.Filename))
	w.Header().Set("Content-Length", fmt.Sprint(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		log.Ctx(r.Context()).Warn().Err(err).Msg("Failed to write template response")
		return
	}

	log.Ctx(r.Context()).Info().
		Int64("user_id", user.ID).
		Str("template", string(kind)).
		Msg("Template downloaded")
}
