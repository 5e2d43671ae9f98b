package middleware

import (
	"net/http"

	"github.com/palaska/tasks-api/internal/api/shared"
	"github.com/palaska/tasks-api/internal/domain"
	"github.com/palaska/tasks-api/internal/platform/metrics"
)

// Guard names used as metric labels.
const (
	GuardAuthenticated = "authenticated"
	GuardAdministrator = "administrator"
)

// Verdict is the outcome of a guard check: either Allow or Reject.
type Verdict interface {
	verdict()
}

// Allow lets the request through on behalf of User.
type Allow struct {
	User *domain.User
}

// Reject turns the request away with Status and Body.
type Reject struct {
	Status int
	Body   shared.ErrorResponse
}

func (Allow) verdict()  {}
func (Reject) verdict() {}

var unauthorized = Reject{
	Status: http.StatusUnauthorized,
	Body:   shared.ErrorResponse{Error: "Unauthorized"},
}

// CheckAuthenticated allows any resolved user.
func CheckAuthenticated(rc *shared.RequestContext) Verdict {
	user := rc.User()
	if user == nil {
		return unauthorized
	}
	return Allow{User: user}
}

// CheckAdministrator allows only users holding the admin role.
func CheckAdministrator(rc *shared.RequestContext) Verdict {
	user := rc.User()
	if user == nil || !user.IsAdmin() {
		return unauthorized
	}
	return Allow{User: user}
}

// Authenticated wraps next so it runs only for signed-in callers.
func Authenticated(next http.Handler) http.Handler {
	return guard(GuardAuthenticated, CheckAuthenticated, next)
}

// Administrator wraps next so it runs only for administrators.
func Administrator(next http.Handler) http.Handler {
	return guard(GuardAdministrator, CheckAdministrator, next)
}

// guard reads only the already populated request context; it never resolves
// a session itself. A route mounted outside the pipeline is logged as a
// wiring fault and rejected.
func guard(name string, check func(*shared.RequestContext) Verdict, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rc := shared.FromContext(r.Context())
		if !rc.IdentityResolved() {
			rc.Logger().Error("guard reached before session resolution",
				"guard", name,
				"path", r.URL.Path)
		}
		switch v := check(rc).(type) {
		case Allow:
			next.ServeHTTP(w, r)
		case Reject:
			metrics.GuardRejections.WithLabelValues(name).Inc()
			rc.Logger().Debug("request rejected by guard",
				"guard", name,
				"status_code", v.Status,
				"path", r.URL.Path)
			shared.RespondWithJSON(w, r, v.Status, v.Body)
		}
	})
}
