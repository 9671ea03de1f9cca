package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/patric-chuzhbe/shareride/internal/logger"
)

// ContextKey is a custom type for storing values in context to avoid collisions.
type ContextKey string

const stateKey ContextKey = "session"

type state struct {
	id     string
	values Values
}

// Manager binds a Store to the session cookie.
type Manager struct {
	store      Store
	cookieName string
	signingKey []byte
	ttl        time.Duration
	now        func() time.Time
}

// NewManager returns a Manager that signs cookie tokens with signingKey and
// keeps sessions alive for ttl.
func NewManager(store Store, cookieName string, signingKey []byte, ttl time.Duration) *Manager {
	return &Manager{
		store:      store,
		cookieName: cookieName,
		signingKey: signingKey,
		ttl:        ttl,
		now:        time.Now,
	}
}

// Middleware resolves the session of each request and makes it available
// through FromContext. A request without a valid session gets empty Values;
// it is never rejected here.
func (m *Manager) Middleware(h http.Handler) http.Handler {
	middleware := func(response http.ResponseWriter, request *http.Request) {
		current := m.resolve(request)
		ctx := context.WithValue(request.Context(), stateKey, current)
		h.ServeHTTP(response, request.WithContext(ctx))
	}

	return http.HandlerFunc(middleware)
}

func (m *Manager) resolve(request *http.Request) state {
	cookie, err := request.Cookie(m.cookieName)
	if err != nil || cookie.Value == "" {
		return state{}
	}

	sessionID, err := parseToken(cookie.Value, m.signingKey)
	if err != nil {
		logger.Log.Debugln("rejected session cookie", zap.Error(err))
		return state{}
	}

	values, err := m.store.Load(request.Context(), sessionID)
	if errors.Is(err, ErrNotFound) {
		return state{}
	}
	if err != nil {
		logger.Log.Errorln("Error calling the `m.store.Load()`:", zap.Error(err))
		return state{}
	}

	return state{id: sessionID, values: values}
}

// FromContext returns the session values resolved by Middleware. It never
// returns nil.
func FromContext(ctx context.Context) Values {
	current, ok := ctx.Value(stateKey).(state)
	if !ok || current.values == nil {
		return Values{}
	}
	return current.values
}

// Issue starts a new session holding values and sets its cookie on the
// response. It is the primitive a login flow calls after verifying
// credentials.
func (m *Manager) Issue(ctx context.Context, response http.ResponseWriter, values Values) (string, error) {
	sessionID := uuid.NewString()
	expiresAt := m.now().Add(m.ttl)

	if err := m.store.Save(ctx, sessionID, values, m.ttl); err != nil {
		return "", fmt.Errorf("session: issue: %w", err)
	}

	token, err := buildToken(sessionID, expiresAt, m.signingKey)
	if err != nil {
		return "", fmt.Errorf("session: sign token: %w", err)
	}

	http.SetCookie(response, &http.Cookie{
		Name:     m.cookieName,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	return sessionID, nil
}

// Destroy removes the session of request, if any, and clears the cookie.
func (m *Manager) Destroy(response http.ResponseWriter, request *http.Request) error {
	current, _ := request.Context().Value(stateKey).(state)

	http.SetCookie(response, &http.Cookie{
		Name:     m.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	if current.id == "" {
		return nil
	}

	return m.store.Delete(request.Context(), current.id)
}
