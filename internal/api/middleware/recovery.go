package middleware

import (
	"log/slog"
	"net/http"

	"github.com/comate/comate/internal/api/apierr"
	"github.com/comate/comate/internal/middleware"
)

// Recovery creates panic recovery middleware for the API.
// Returns a JSON error unless the handler already started its response.
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return middleware.Recovery(logger, apiPanicHandler)
}

func apiPanicHandler(w http.ResponseWriter, _ *http.Request, _ any) {
	if rw, ok := w.(*middleware.ResponseWriter); ok && rw.Written() {
		return
	}
	apierr.WriteError(w, apierr.NewInternalError())
}
