// Package auth проверяет bearer-токены входящих запросов и хеширует пароли.
package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/Tokebay/shorturl/internal/app/token"
	"github.com/Tokebay/shorturl/internal/logger"
	"go.uber.org/zap"
)

var (
	// ErrUnauthenticated нет заголовка, нет префикса Bearer или токен не из трех частей. HTTP 401.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrForbidden подпись не сошлась, нагрузка битая, нет username или токен просрочен. HTTP 403.
	ErrForbidden = errors.New("forbidden")
)

const bearerPrefix = "Bearer "

// Identity пользователь, от имени которого выполняется запрос.
type Identity struct {
	Username string
	IssuedAt time.Time
}

type identityKey struct{}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}

// FailureRecorder считает отказы аутентификации по причинам.
type FailureRecorder interface {
	AuthFailure(reason string)
}

type Gate struct {
	codec    *token.Codec
	ttl      time.Duration
	now      func() time.Time
	failures FailureRecorder
}

type GateOption func(*Gate)

// WithTokenTTL включает проверку возраста токена по iat. 0 отключает проверку.
func WithTokenTTL(ttl time.Duration) GateOption {
	return func(g *Gate) { g.ttl = ttl }
}

func WithGateClock(now func() time.Time) GateOption {
	return func(g *Gate) { g.now = now }
}

func WithFailureRecorder(r FailureRecorder) GateOption {
	return func(g *Gate) { g.failures = r }
}

func NewGate(codec *token.Codec, opts ...GateOption) *Gate {
	g := &Gate{
		codec: codec,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Authenticate разбирает значение заголовка Authorization.
func (g *Gate) Authenticate(authHeader string) (Identity, error) {
	if !strings.HasPrefix(authHeader, bearerPrefix) {
		return Identity{}, ErrUnauthenticated
	}

	// "Bearer  tok" и "Bearer tok x": токена в ожидаемой позиции нет
	raw := strings.TrimPrefix(authHeader, bearerPrefix)
	if raw == "" || strings.ContainsAny(raw, " \t") {
		return Identity{}, ErrUnauthenticated
	}

	claims, err := g.codec.Verify(raw)
	switch {
	case errors.Is(err, token.ErrMalformedToken):
		return Identity{}, ErrUnauthenticated
	case err != nil:
		return Identity{}, ErrForbidden
	}

	username, ok := claims.Username()
	if !ok {
		return Identity{}, ErrForbidden
	}
	id := Identity{Username: username}
	if iat, ok := claims.IssuedAt(); ok {
		id.IssuedAt = iat
	}

	if g.ttl > 0 {
		if id.IssuedAt.IsZero() || g.now().After(id.IssuedAt.Add(g.ttl)) {
			return Identity{}, ErrForbidden
		}
	}
	return id, nil
}

func (g *Gate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := g.Authenticate(r.Header.Get("Authorization"))
		if err != nil {
			status := http.StatusForbidden
			if errors.Is(err, ErrUnauthenticated) {
				status = http.StatusUnauthorized
			}
			if g.failures != nil {
				g.failures.AuthFailure(err.Error())
			}
			logger.Log.Info("Request rejected by auth gate",
				zap.String("path", r.URL.Path),
				zap.Int("status_code", status),
			)
			http.Error(w, http.StatusText(status), status)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
	})
}
