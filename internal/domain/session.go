package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrEmptySessionToken = errors.New("session token cannot be empty")
	ErrInvalidExpiry     = errors.New("session expiry must be after creation")

	// ErrIdentityMismatch is returned when a session does not belong to the user
	// it is paired with.
	ErrIdentityMismatch = errors.New("session does not belong to user")
)

// Session is a server-side login record. The token is the opaque credential
// carried by the session cookie.
type Session struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Token     string    `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
	IPAddress string    `json:"ip_address,omitempty"`
	UserAgent string    `json:"user_agent,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewSession creates a session for userID valid for ttl from now.
func NewSession(userID uuid.UUID, token string, now time.Time, ttl time.Duration) (*Session, error) {
	now = now.UTC()
	s := &Session{
		ID:        uuid.New(),
		UserID:    userID,
		Token:     token,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate checks if the Session has valid data.
func (s *Session) Validate() error {
	if s.ID == uuid.Nil || s.UserID == uuid.Nil {
		return ErrEmptyUserID
	}
	if s.Token == "" {
		return ErrEmptySessionToken
	}
	if !s.ExpiresAt.After(s.CreatedAt) {
		return ErrInvalidExpiry
	}
	return nil
}

// Expired reports whether the session is no longer valid at now.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// Identity is an authenticated caller: a user together with the session that
// authenticated them. A nil *Identity is an anonymous caller; there is no
// partially authenticated state.
type Identity struct {
	User    *User    `json:"user"`
	Session *Session `json:"session"`
}

// NewIdentity pairs user and session, rejecting incomplete or mismatched pairs.
func NewIdentity(user *User, session *Session) (*Identity, error) {
	if user == nil || session == nil {
		return nil, ErrIdentityMismatch
	}
	if session.UserID != user.ID {
		return nil, ErrIdentityMismatch
	}
	return &Identity{User: user, Session: session}, nil
}
