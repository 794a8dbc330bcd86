package server

import (
	"net/http"

	apperrors "github.com/tuan28064/Hono-demo/internal/errors"
)

const msgRouteNotFound = "route not found"

// HandleError central handler for all errors
func HandleError(w http.ResponseWriter, r *http.Request, err error) {
	apperrors.RespondWithError(w, r, err)
}

// notFound serves the static fallback for unmatched non-API GET/HEAD paths
// and a JSON 404 for everything else.
func (s *Server) notFound(w http.ResponseWriter, r *http.Request) {
	if s.static != nil && s.static.serve(w, r) {
		return
	}
	HandleError(w, r, apperrors.NewNotFoundError(msgRouteNotFound))
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	HandleError(w, r, apperrors.NewMethodNotAllowedError("method not allowed"))
}
