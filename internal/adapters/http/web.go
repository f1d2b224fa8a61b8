package web

import (
	"crypto/rand"
	"log/slog"
	"net/http"
	"time"

	emailAdapter "coachdesk/internal/adapters/email"
	"coachdesk/internal/adapters/http/metrics"
	"coachdesk/internal/adapters/http/middleware"
	accountStore "coachdesk/internal/adapters/storage/account"
	profileStore "coachdesk/internal/adapters/storage/profile"
	resultStore "coachdesk/internal/adapters/storage/result"
	templateStore "coachdesk/internal/adapters/storage/template"
	weekStore "coachdesk/internal/adapters/storage/week"
	"coachdesk/internal/application/orchestrators"
)

// Stores holds all storage dependencies.
type Stores struct {
	AccountStore  accountStore.Store
	ProfileStore  profileStore.Store
	TemplateStore templateStore.Store
	WeekStore     weekStore.Store
	ResultStore   resultStore.Store
}

// Options configures the HTTP surface. Zero values fall back to in-memory
// sessions, in-memory rate limiting and no notifications or metrics.
type Options struct {
	CSRFKey        []byte
	SecureCookies  bool
	TrustedOrigins []string

	Sessions      middleware.SessionStore
	Tokens        *middleware.TokenIssuer
	Limiter       middleware.Limiter
	Notifier      *emailAdapter.Notifier
	Metrics       *metrics.Manager
	SessionTTL    time.Duration
	RememberMeTTL time.Duration
	SlowRequestMs int
	Location      *time.Location
}

// Global stores instance (set by NewMux)
var stores *Stores

// Global session store instance
var sessions middleware.SessionStore

// Global bearer token issuer; nil disables POST /api/token.
var tokens *middleware.TokenIssuer

// Global notifier; nil disables notifications.
var notifier *emailAdapter.Notifier

// Global metrics manager; nil disables domain counters and /metrics.
var metricsManager *metrics.Manager

// Cookie and session lifetime settings (set by NewMux)
var (
	secureCookies bool
	sessionTTL    = middleware.DefaultSessionTTL
	rememberMeTTL = middleware.DefaultRememberMeTTL
	location      = time.Local
)

// AuthRateLimitPerSecond controls the per-IP limit on sign-in routes when no
// limiter is configured. Tests can increase this.
var AuthRateLimitPerSecond = 5

// timeNow is a variable for testability.
var timeNow = time.Now

// NewMux wires HTTP handlers for the app.
func NewMux(s *Stores, o Options) http.Handler {
	stores = s
	sessions = o.Sessions
	if sessions == nil {
		sessions = middleware.NewMemorySessionStore()
	}
	tokens = o.Tokens
	notifier = o.Notifier
	metricsManager = o.Metrics
	secureCookies = o.SecureCookies
	if o.SessionTTL > 0 {
		sessionTTL = o.SessionTTL
	}
	if o.RememberMeTTL > 0 {
		rememberMeTTL = o.RememberMeTTL
	}
	if o.Location != nil {
		location = o.Location
	}

	limiter := o.Limiter
	if limiter == nil {
		limiter = middleware.NewMemoryLimiter(AuthRateLimitPerSecond, time.Second)
	}

	mux := http.NewServeMux()
	registerRoutes(mux, limiter)
	if metricsManager != nil {
		mux.Handle("GET /metrics", metricsManager.Handler())
	}

	csrfKey := o.CSRFKey
	if len(csrfKey) != 32 {
		csrfKey = randomKey()
	}

	var observer middleware.RequestObserver
	if metricsManager != nil {
		observer = metricsManager
	}

	// Apply middleware: Timing -> SecurityHeaders -> CSRF -> Auth -> Mux
	return middleware.Chain(mux,
		middleware.Auth(sessions, tokens, s.ProfileStore),
		middleware.CSRF(csrfKey, secureCookies, o.TrustedOrigins),
		middleware.SecurityHeaders,
		middleware.Timing(observer, o.SlowRequestMs),
	)
}

// randomKey generates a per-process CSRF key.
func randomKey() []byte {
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		panic("failed to generate CSRF key: " + err.Error())
	}
	slog.Warn("config_event", "event", "random_csrf_key", "detail", "form sessions won't survive restart")
	return key
}

// weekNotifier returns the configured notifier or a nil interface.
func weekNotifier() orchestrators.WeekNotifier {
	if notifier == nil {
		return nil
	}
	return notifier
}

// commentNotifier returns the configured notifier or a nil interface.
func commentNotifier() orchestrators.CommentNotifier {
	if notifier == nil {
		return nil
	}
	return notifier
}
