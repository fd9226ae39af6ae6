package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/eatwatah/eatwatah-api/pkg/auth"
)

const identityKey contextKey = "identity"

// Identity is the authenticated caller attached to the request context.
type Identity struct {
	TelegramID  string
	DisplayName string
	// ChatID is set only for JWT sessions, which are chat-scoped.
	ChatID string
}

// IdentityFromContext returns the identity set by WebAppAuth, if any.
func IdentityFromContext(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(identityKey).(*Identity)
	return id, ok
}

// ContextWithIdentity attaches an authenticated caller to the context.
func ContextWithIdentity(ctx context.Context, identity *Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

// WebAppAuth authenticates WebApp requests. It accepts either
// "Authorization: tma <initData>" (raw Telegram init data, verified against
// the bot token) or "Authorization: Bearer <jwt>" (a session token issued
// by the session endpoint).
func WebAppAuth(botToken, jwtSecret string, initDataMaxAge time.Duration, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			scheme, credentials, found := strings.Cut(header, " ")
			if !found {
				http.Error(w, "missing authorization", http.StatusUnauthorized)
				return
			}

			var identity *Identity
			switch strings.ToLower(scheme) {
			case "tma":
				user, err := auth.ValidateInitData(credentials, botToken, initDataMaxAge)
				if err != nil {
					logger.WarnContext(r.Context(), "init data rejected", slog.Any("error", err))
					http.Error(w, "invalid init data", http.StatusUnauthorized)
					return
				}
				identity = &Identity{TelegramID: user.TelegramID(), DisplayName: user.DisplayName()}
			case "bearer":
				claims, err := auth.ParseSessionToken(jwtSecret, credentials)
				if err != nil {
					logger.WarnContext(r.Context(), "session token rejected", slog.Any("error", err))
					http.Error(w, "invalid session token", http.StatusUnauthorized)
					return
				}
				identity = &Identity{TelegramID: claims.TelegramID, ChatID: claims.ChatID}
			default:
				http.Error(w, "unsupported authorization scheme", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(ContextWithIdentity(r.Context(), identity)))
		})
	}
}
