package apiutil

import (
	"bytes"
	"context"
	"net/http"

	"github.com/a-h/templ"
	"github.com/rs/zerolog/log"
)

// RenderHTMLComponent renders component into a buffer first so a failed
// render never leaves a half-written page. It reports whether the response
// was written.
func RenderHTMLComponent(ctx context.Context, w http.ResponseWriter, component templ.Component, headers map[string]string, logMsg, errorMsg string) bool {
	var buf bytes.Buffer
	if err := component.Render(ctx, &buf); err != nil {
		log.Ctx(ctx).Error().Err(err).Msg(logMsg)
		http.Error(w, errorMsg, http.StatusInternalServerError)
		return false
	}

	for key, value := range headers {
		w.Header().Set(key, value)
	}
	w.Header().Set("Content-Type", "text/html")
	_, _ = w.Write(buf.Bytes())
	return true
}
