package api

import (
	"errors"
	"net/http"

	"github.com/palaska/tasks-api/internal/api/shared"
)

var errMissingContext = errors.New("request context not populated by pipeline")

// DelegateAuth forwards the request unchanged to the handler of the
// authentication provider bound by the pipeline. Whatever that handler
// writes is the response.
func DelegateAuth(w http.ResponseWriter, r *http.Request) {
	provider := shared.FromContext(r.Context()).Auth()
	if provider == nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError, "Server misconfigured", errMissingContext)
		return
	}
	provider.Handler().ServeHTTP(w, r)
}
