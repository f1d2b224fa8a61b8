package middleware

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"coachdesk/internal/application/session"
	domainProfile "coachdesk/internal/domain/profile"
)

// Session lifetimes.
const (
	DefaultSessionTTL    = 24 * time.Hour
	DefaultRememberMeTTL = 30 * 24 * time.Hour
)

// Session represents an authenticated session.
type Session struct {
	AccountID string
	Email     string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// SessionStore keeps sessions keyed by opaque token.
type SessionStore interface {
	Create(ctx context.Context, accountID, email string, ttl time.Duration) (string, error)
	Get(ctx context.Context, token string) (Session, bool, error)
	Delete(ctx context.Context, token string) error
}

// MemorySessionStore is an in-memory session store.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]Session
	now      func() time.Time
}

// NewMemorySessionStore creates a new in-memory session store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{
		sessions: make(map[string]Session),
		now:      time.Now,
	}
}

// Create stores a new session and returns the token.
// PRE: accountID is non-empty; ttl > 0
// POST: Session is stored, token is returned
func (ss *MemorySessionStore) Create(_ context.Context, accountID, email string, ttl time.Duration) (string, error) {
	token, err := generateToken()
	if err != nil {
		return "", err
	}
	now := ss.now()
	ss.mu.Lock()
	defer ss.mu.Unlock()
	ss.sessions[token] = Session{
		AccountID: accountID,
		Email:     email,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
	return token, nil
}

// Get retrieves a session by token.
// PRE: token is non-empty
// POST: Returns session if present and not expired; expired sessions are dropped
func (ss *MemorySessionStore) Get(_ context.Context, token string) (Session, bool, error) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	s, ok := ss.sessions[token]
	if !ok {
		return Session{}, false, nil
	}
	if !ss.now().Before(s.ExpiresAt) {
		delete(ss.sessions, token)
		return Session{}, false, nil
	}
	return s, true, nil
}

// Delete removes a session by token.
// PRE: token is non-empty
// POST: Session with given token is removed
func (ss *MemorySessionStore) Delete(_ context.Context, token string) error {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	delete(ss.sessions, token)
	return nil
}

// ProfileLoader reads the live profile of a signed-in account.
type ProfileLoader interface {
	GetByUID(ctx context.Context, uid string) (domainProfile.Profile, error)
}

const sessionCookieName = "coachdesk_session"

// Auth returns middleware that resolves the session cookie or bearer token and
// stores a session.Handle in the request context.
// It does NOT block unauthenticated requests; Gate does that.
// A profile that cannot be read leaves Handle.Profile nil.
func Auth(sessions SessionStore, tokens *TokenIssuer, profiles ProfileLoader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			h := session.Handle{}
			if user, ok := resolveUser(ctx, r, sessions, tokens); ok {
				h.User = &user
				p, err := profiles.GetByUID(ctx, user.UID)
				switch {
				case err == nil:
					h.Profile = &p
				case errors.Is(err, sql.ErrNoRows):
					// No stored profile yet reads as an athlete; nothing is written here.
					p = domainProfile.New(user.UID, user.Email, time.Now())
					h.Profile = &p
				default:
					slog.Warn("auth_event", "event", "profile_load_failed", "account_id", user.UID, "error", err)
				}
			}
			next.ServeHTTP(w, r.WithContext(session.WithHandle(ctx, h)))
		})
	}
}

func resolveUser(ctx context.Context, r *http.Request, sessions SessionStore, tokens *TokenIssuer) (session.User, bool) {
	if cookie, err := r.Cookie(sessionCookieName); err == nil && cookie.Value != "" {
		s, ok, err := sessions.Get(ctx, cookie.Value)
		if err != nil {
			slog.Warn("auth_event", "event", "session_lookup_failed", "error", err)
		}
		if ok {
			return session.User{UID: s.AccountID, Email: s.Email}, true
		}
	}
	if tokens == nil {
		return session.User{}, false
	}
	raw, ok := bearerToken(r)
	if !ok {
		return session.User{}, false
	}
	claims, err := tokens.Verify(raw)
	if err != nil {
		slog.Debug("auth_event", "event", "bearer_rejected", "error", err)
		return session.User{}, false
	}
	return session.User{UID: claims.Subject, Email: claims.Email}, true
}

func bearerToken(r *http.Request) (string, bool) {
	v := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(v) <= len(prefix) || !strings.EqualFold(v[:len(prefix)], prefix) {
		return "", false
	}
	return strings.TrimSpace(v[len(prefix):]), true
}

// SessionToken returns the session cookie value, if any.
func SessionToken(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil || cookie.Value == "" {
		return "", false
	}
	return cookie.Value, true
}

// SetSessionCookie sets the session cookie on the response.
func SetSessionCookie(w http.ResponseWriter, token string, ttl time.Duration, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
	})
}

// ClearSessionCookie removes the session cookie.
func ClearSessionCookie(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
		Path:     "/",
		MaxAge:   -1,
	})
}

func generateToken() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}
