package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/palaska/tasks-api/internal/api/shared"
	"github.com/palaska/tasks-api/internal/domain"
)

// getPathUUID parses the named chi path parameter as a UUID.
func getPathUUID(r *http.Request, paramName string) (uuid.UUID, error) {
	pathParam := chi.URLParam(r, paramName)
	if pathParam == "" {
		return uuid.Nil, domain.NewValidationError(paramName, "is required", domain.ErrValidation)
	}

	id, err := uuid.Parse(pathParam)
	if err != nil {
		return uuid.Nil, domain.NewValidationError(paramName, "has invalid format", domain.ErrInvalidID)
	}
	return id, nil
}

// requestScope returns the request context and its resolved user. Handlers
// behind the authenticated guard always get a user; the check here covers
// handlers mounted without one.
func requestScope(w http.ResponseWriter, r *http.Request) (*shared.RequestContext, *domain.User, bool) {
	rc := shared.FromContext(r.Context())
	if rc.DB() == nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError, "Server misconfigured", errMissingContext)
		return nil, nil, false
	}
	user := rc.User()
	if user == nil {
		HandleAPIError(w, r, domain.ErrUnauthorized, "")
		return nil, nil, false
	}
	return rc, user, true
}
