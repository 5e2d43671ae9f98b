package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/palaska/tasks-api/internal/config"
	"github.com/palaska/tasks-api/internal/domain"
	"github.com/palaska/tasks-api/internal/platform/database"
	"github.com/palaska/tasks-api/internal/platform/email"
	"github.com/palaska/tasks-api/internal/platform/logger"
	"github.com/palaska/tasks-api/internal/platform/sqlstore"
	"github.com/palaska/tasks-api/internal/store"
)

// Provider authenticates callers against one database handle. It resolves
// identities from request headers and serves its own endpoints (sign-up,
// sign-in, sign-out and friends) through Handler.
type Provider interface {
	// GetSession returns the caller's identity, or nil for an anonymous caller.
	// Missing, malformed, expired or revoked credentials are not errors; only
	// storage failures are.
	GetSession(ctx context.Context, h http.Header) (*domain.Identity, error)

	// Handler serves the provider's endpoints under the configured base path.
	Handler() http.Handler
}

// WelcomeMailer sends the welcome message after sign-up. *email.Mailer
// satisfies it.
type WelcomeMailer interface {
	SendWelcome(ctx context.Context, to []string, lang string, data email.WelcomeData) error
}

// Dependencies are the process-wide collaborators shared by every provider.
// Only the database handle differs between providers.
type Dependencies struct {
	Config        config.AuthConfig
	SecureCookies bool
	Tokens        JWTService
	Hasher        PasswordHasher
	Verifier      PasswordVerifier
	Mailer        WelcomeMailer
	Logger        *slog.Logger
	Now           func() time.Time

	// DecoyHash is compared against when sign-in names an unknown email, so
	// that path costs the same as a wrong password.
	DecoyHash string
}

// NewDependencies builds the shared collaborators from configuration. When no
// signing secret is configured (allowed outside production) an ephemeral one
// is generated; tokens then do not survive a restart.
func NewDependencies(cfg *config.Config, mailer WelcomeMailer, log *slog.Logger) (Dependencies, error) {
	if log == nil {
		log = slog.Default()
	}

	secret := cfg.Auth.Secret
	if secret == "" {
		if cfg.IsProduction() {
			return Dependencies{}, ErrSecretMissing
		}
		generated, err := randomToken(48)
		if err != nil {
			return Dependencies{}, fmt.Errorf("failed to generate signing secret: %w", err)
		}
		secret = generated
		log.Warn("auth.secret is not set, using an ephemeral signing secret")
	}

	tokens, err := NewJWTService(secret)
	if err != nil {
		return Dependencies{}, err
	}

	passwords := NewBcryptVerifier()
	decoy, err := newDecoyHash(passwords)
	if err != nil {
		return Dependencies{}, err
	}
	return Dependencies{
		Config:        cfg.Auth,
		SecureCookies: cfg.IsProduction(),
		Tokens:        tokens,
		Hasher:        passwords,
		Verifier:      passwords,
		Mailer:        mailer,
		Logger:        log,
		Now:           time.Now,
		DecoyHash:     decoy,
	}, nil
}

func newDecoyHash(hasher PasswordHasher) (string, error) {
	password, err := randomToken(24)
	if err != nil {
		return "", fmt.Errorf("failed to generate decoy password: %w", err)
	}
	return hasher.Hash(password)
}

// SessionProvider is the database-backed Provider.
type SessionProvider struct {
	db       *database.DB
	users    store.UserStore
	sessions store.SessionStore
	deps     Dependencies
	logger   *slog.Logger
	handler  http.Handler
}

var _ Provider = (*SessionProvider)(nil)

// NewSessionProvider binds a provider to db.
func NewSessionProvider(db *database.DB, deps Dependencies) (*SessionProvider, error) {
	if db == nil {
		return nil, ErrNilDatabase
	}
	if deps.Tokens == nil || deps.Hasher == nil || deps.Verifier == nil {
		return nil, errors.New("auth provider requires token and password services")
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.DecoyHash == "" {
		decoy, err := newDecoyHash(deps.Hasher)
		if err != nil {
			return nil, err
		}
		deps.DecoyHash = decoy
	}

	p := &SessionProvider{
		db:       db,
		users:    sqlstore.NewUserStore(db, deps.Logger),
		sessions: sqlstore.NewSessionStore(db, deps.Logger),
		deps:     deps,
		logger:   deps.Logger.With(slog.String("component", "auth_provider")),
	}
	p.handler = p.routes()
	return p, nil
}

// DB returns the handle the provider was built for.
func (p *SessionProvider) DB() *database.DB {
	return p.db
}

// Handler implements Provider.
func (p *SessionProvider) Handler() http.Handler {
	return p.handler
}

// GetSession implements Provider. It never writes: resolving the same headers
// twice yields the same identity. A bearer token, when present, decides the
// outcome on its own: an invalid or stale token yields an anonymous caller
// even if the request also carries a valid session cookie.
func (p *SessionProvider) GetSession(ctx context.Context, h http.Header) (*domain.Identity, error) {
	log := logger.FromContextOrDefault(ctx, p.logger)

	session, err := p.lookupSession(ctx, h)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, nil
	}

	if session.Expired(p.deps.Now()) {
		log.Debug("session expired", slog.String("session_id", session.ID.String()))
		return nil, nil
	}

	user, err := p.users.GetByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			log.Debug("session owner no longer exists", slog.String("session_id", session.ID.String()))
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load session user: %w", err)
	}

	identity, err := domain.NewIdentity(user, session)
	if err != nil {
		log.Debug("discarding inconsistent session", slog.String("error", err.Error()))
		return nil, nil
	}
	return identity, nil
}

// lookupSession finds the session named by the bearer token or, failing
// that, the session cookie.
func (p *SessionProvider) lookupSession(ctx context.Context, h http.Header) (*domain.Session, error) {
	log := logger.FromContextOrDefault(ctx, p.logger)

	if bearer, ok := bearerToken(h); ok {
		claims, err := p.deps.Tokens.ValidateToken(ctx, bearer)
		if err != nil {
			log.Debug("ignoring invalid bearer token", slog.String("error", err.Error()))
			return nil, nil
		}
		session, err := p.sessions.GetByID(ctx, claims.SessionID)
		if err != nil {
			if errors.Is(err, store.ErrSessionNotFound) {
				return nil, nil
			}
			return nil, fmt.Errorf("failed to load session: %w", err)
		}
		if session.UserID != claims.UserID {
			log.Warn("bearer token subject does not match session owner",
				slog.String("session_id", session.ID.String()))
			return nil, nil
		}
		return session, nil
	}

	token := cookieValue(h, p.deps.Config.CookieName)
	if token == "" {
		return nil, nil
	}
	session, err := p.sessions.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, store.ErrSessionNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	return session, nil
}

func bearerToken(h http.Header) (string, bool) {
	authHeader := h.Get("Authorization")
	scheme, token, found := strings.Cut(authHeader, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func cookieValue(h http.Header, name string) string {
	if name == "" {
		return ""
	}
	c, err := (&http.Request{Header: h}).Cookie(name)
	if err != nil {
		return ""
	}
	return c.Value
}

// randomToken returns n random bytes, base64url encoded.
func randomToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
