package middleware

import (
	"errors"
	"net/http"

	"github.com/palaska/tasks-api/internal/api/shared"
	"github.com/palaska/tasks-api/internal/config"
	"github.com/palaska/tasks-api/internal/platform/database"
	"github.com/palaska/tasks-api/internal/platform/logger"
	"github.com/palaska/tasks-api/internal/platform/metrics"
	"github.com/palaska/tasks-api/internal/service/auth"
)

// ErrNoDatabase is returned when the binder reports success without a handle.
var ErrNoDatabase = errors.New("binder returned no database handle")

// Client-facing messages for pipeline failures.
const (
	msgMisconfigured   = "Server misconfigured"
	msgSessionFailure  = "Failed to resolve session"
	msgContextConflict = "Request context conflict"
)

// Pipeline composes the per-request context in a fixed order:
// bindings and logger, database handle, authentication provider, caller
// identity. Handlers behind it read that context and never redo any step.
type Pipeline struct {
	cfg     *config.Config
	binder  database.Binder
	factory auth.Factory
}

// NewPipeline wires a pipeline over the process configuration.
func NewPipeline(cfg *config.Config, binder database.Binder, factory auth.Factory) *Pipeline {
	if binder == nil || factory == nil {
		panic("middleware: pipeline requires a binder and a provider factory")
	}
	return &Pipeline{cfg: cfg, binder: binder, factory: factory}
}

// Handler runs the pipeline and then next.
func (p *Pipeline) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		log := logger.FromContext(ctx)

		rc := shared.NewRequestContext(p.cfg)
		if err := rc.SetLogger(log); err != nil {
			shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError, msgContextConflict, err)
			return
		}

		db, err := p.binder.Bind(ctx, p.cfg)
		if err == nil && db == nil {
			err = ErrNoDatabase
		}
		if err != nil {
			// Configuration fault: the factory must never see a missing handle.
			shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError, msgMisconfigured, err)
			return
		}
		if err := rc.SetDB(db); err != nil {
			shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError, msgContextConflict, err)
			return
		}

		provider, err := p.factory.New(db)
		if err != nil {
			shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError, msgMisconfigured, err)
			return
		}
		if err := rc.SetAuth(provider); err != nil {
			shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError, msgContextConflict, err)
			return
		}

		identity, err := ResolveSession(ctx, provider, r.Header)
		if err != nil {
			metrics.SessionResolutions.WithLabelValues(metrics.OutcomeError).Inc()
			shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError, msgSessionFailure, err)
			return
		}
		if err := rc.SetIdentity(identity); err != nil {
			shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError, msgContextConflict, err)
			return
		}

		if identity != nil {
			metrics.SessionResolutions.WithLabelValues(metrics.OutcomeAuthenticated).Inc()
		} else {
			metrics.SessionResolutions.WithLabelValues(metrics.OutcomeAnonymous).Inc()
		}
		ctx = logger.WithLogger(ctx, rc.Logger())

		next.ServeHTTP(w, r.WithContext(shared.WithRequestContext(ctx, rc)))
	})
}
