package auth

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/palaska/tasks-api/internal/domain"
	"github.com/palaska/tasks-api/internal/platform/email"
	"github.com/palaska/tasks-api/internal/platform/logger"
	"github.com/palaska/tasks-api/internal/redact"
	"github.com/palaska/tasks-api/internal/store"
)

const maxBodyBytes = 1 << 20

var validate = validator.New()

// SignUpRequest is the payload of POST sign-up/email.
type SignUpRequest struct {
	Name     string `json:"name"     validate:"required,max=200"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// SignInRequest is the payload of POST sign-in/email.
type SignInRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// SetRoleRequest is the payload of POST admin/set-role.
type SetRoleRequest struct {
	UserID uuid.UUID `json:"userId" validate:"required"`
	Role   string    `json:"role"   validate:"required,oneof=user admin"`
}

// AuthResponse is returned by sign-up and sign-in.
type AuthResponse struct {
	Token string       `json:"token"`
	User  *domain.User `json:"user"`
}

// routes mounts the provider endpoints under the configured base path.
func (p *SessionProvider) routes() http.Handler {
	r := chi.NewRouter()
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "Not Found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "Method Not Allowed")
	})

	r.Route(p.deps.Config.BasePath, func(r chi.Router) {
		r.Post("/sign-up/email", p.handleSignUp)
		r.Post("/sign-in/email", p.handleSignIn)
		r.Post("/sign-out", p.handleSignOut)
		r.Get("/get-session", p.handleGetSession)
		r.Get("/admin/list-users", p.handleListUsers)
		r.Post("/admin/set-role", p.handleSetRole)
	})
	return r
}

func (p *SessionProvider) handleSignUp(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContextOrDefault(ctx, p.logger)

	var req SignUpRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	hash, err := p.deps.Hasher.Hash(req.Password)
	if err != nil {
		log.Error("failed to hash password", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "Failed to create user")
		return
	}

	user, err := domain.NewUser(req.Name, req.Email, hash)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	var session *domain.Session
	err = store.RunInTransaction(ctx, p.db, func(ctx context.Context, tx *sql.Tx) error {
		if err := p.users.WithTx(tx).Create(ctx, user); err != nil {
			return err
		}
		s, err := p.newSession(user.ID, r)
		if err != nil {
			return err
		}
		if err := p.sessions.WithTx(tx).Create(ctx, s); err != nil {
			return err
		}
		session = s
		return nil
	})
	if err != nil {
		if errors.Is(err, store.ErrEmailExists) {
			writeError(w, http.StatusConflict, "User already exists")
			return
		}
		log.Error("failed to sign up user", slog.String("error", redact.Error(err)))
		writeError(w, http.StatusInternalServerError, "Failed to create user")
		return
	}

	if p.deps.Mailer != nil {
		err := p.deps.Mailer.SendWelcome(ctx, []string{user.Email}, "en", email.WelcomeData{Name: user.Name})
		if err != nil {
			log.Warn("failed to send welcome email",
				slog.String("user_id", user.ID.String()),
				slog.String("error", redact.Error(err)))
		}
	}

	p.respondWithSession(w, r, http.StatusOK, user, session)
}

func (p *SessionProvider) handleSignIn(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContextOrDefault(ctx, p.logger)

	var req SignInRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	user, err := p.users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			_ = p.deps.Verifier.Compare(p.deps.DecoyHash, req.Password)
			writeError(w, http.StatusUnauthorized, "Invalid email or password")
			return
		}
		log.Error("failed to look up user", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "Failed to sign in")
		return
	}

	if err := p.deps.Verifier.Compare(user.HashedPassword, req.Password); err != nil {
		log.Debug("password mismatch", slog.String("user_id", user.ID.String()))
		writeError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	session, err := p.newSession(user.ID, r)
	if err == nil {
		err = p.sessions.Create(ctx, session)
	}
	if err != nil {
		log.Error("failed to create session", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "Failed to sign in")
		return
	}

	p.respondWithSession(w, r, http.StatusOK, user, session)
}

func (p *SessionProvider) handleSignOut(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContextOrDefault(ctx, p.logger)

	identity, err := p.GetSession(ctx, r.Header)
	if err != nil {
		log.Error("failed to resolve session", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "Failed to sign out")
		return
	}
	if identity == nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	if err := p.sessions.Delete(ctx, identity.Session.ID); err != nil && !errors.Is(err, store.ErrSessionNotFound) {
		log.Error("failed to delete session", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "Failed to sign out")
		return
	}

	p.clearCookie(w)
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (p *SessionProvider) handleGetSession(w http.ResponseWriter, r *http.Request) {
	identity, err := p.GetSession(r.Context(), r.Header)
	if err != nil {
		logger.FromContextOrDefault(r.Context(), p.logger).
			Error("failed to resolve session", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "Failed to get session")
		return
	}
	// A nil identity encodes as JSON null.
	writeJSON(w, http.StatusOK, identity)
}

func (p *SessionProvider) handleListUsers(w http.ResponseWriter, r *http.Request) {
	if _, ok := p.requireAdmin(w, r); !ok {
		return
	}

	users, err := p.users.List(r.Context())
	if err != nil {
		logger.FromContextOrDefault(r.Context(), p.logger).
			Error("failed to list users", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "Failed to list users")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": users, "total": len(users)})
}

func (p *SessionProvider) handleSetRole(w http.ResponseWriter, r *http.Request) {
	if _, ok := p.requireAdmin(w, r); !ok {
		return
	}

	ctx := r.Context()
	var req SetRoleRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	if err := p.users.UpdateRole(ctx, req.UserID, req.Role); err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			writeError(w, http.StatusNotFound, "User not found")
			return
		}
		logger.FromContextOrDefault(ctx, p.logger).
			Error("failed to set role", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "Failed to set role")
		return
	}

	user, err := p.users.GetByID(ctx, req.UserID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to set role")
		return
	}
	writeJSON(w, http.StatusOK, map[string]*domain.User{"user": user})
}

// requireAdmin answers 401 for anonymous callers and 403 for non-admins.
func (p *SessionProvider) requireAdmin(w http.ResponseWriter, r *http.Request) (*domain.Identity, bool) {
	identity, err := p.GetSession(r.Context(), r.Header)
	if err != nil {
		logger.FromContextOrDefault(r.Context(), p.logger).
			Error("failed to resolve session", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "Failed to get session")
		return nil, false
	}
	if identity == nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return nil, false
	}
	if !identity.User.IsAdmin() {
		writeError(w, http.StatusForbidden, "Forbidden")
		return nil, false
	}
	return identity, true
}

func (p *SessionProvider) newSession(userID uuid.UUID, r *http.Request) (*domain.Session, error) {
	token, err := randomToken(32)
	if err != nil {
		return nil, fmt.Errorf("failed to generate session token: %w", err)
	}
	session, err := domain.NewSession(userID, token, p.deps.Now(), p.deps.Config.SessionTTL)
	if err != nil {
		return nil, err
	}
	session.IPAddress = clientIP(r)
	session.UserAgent = r.UserAgent()
	return session, nil
}

func (p *SessionProvider) respondWithSession(
	w http.ResponseWriter,
	r *http.Request,
	status int,
	user *domain.User,
	session *domain.Session,
) {
	token, err := p.deps.Tokens.GenerateToken(r.Context(), user.ID, session.ID, session.ExpiresAt)
	if err != nil {
		logger.FromContextOrDefault(r.Context(), p.logger).
			Error("failed to issue token", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "Failed to issue token")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     p.deps.Config.CookieName,
		Value:    session.Token,
		Path:     "/",
		Expires:  session.ExpiresAt,
		HttpOnly: true,
		Secure:   p.deps.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, status, AuthResponse{Token: token, User: user})
}

func (p *SessionProvider) clearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     p.deps.Config.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   p.deps.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request format")
		return false
	}
	if err := validate.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return false
	}
	return true
}

func validationMessage(err error) string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return "Validation failed"
	}
	parts := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			parts = append(parts, field+" is required")
		case "email":
			parts = append(parts, field+" must be a valid email")
		case "min":
			parts = append(parts, field+" must be at least "+fe.Param()+" characters")
		case "max":
			parts = append(parts, field+" must be at most "+fe.Param()+" characters")
		case "oneof":
			parts = append(parts, field+" must be one of ["+fe.Param()+"]")
		default:
			parts = append(parts, field+" is invalid")
		}
	}
	return "Validation failed: " + strings.Join(parts, ", ")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
