package middleware

import (
	"context"
	"net/http"

	"github.com/dukastore/backend/internal/identity"
	"github.com/dukastore/backend/pkg/config"
	"github.com/dukastore/backend/pkg/logger"
)

// sessionToucher refreshes a guest token's TTL on every request that
// carries it.
type sessionToucher interface {
	Touch(ctx context.Context, token string) error
}

// Identify resolves the cart owner for every request: an authenticated
// user id wins, otherwise the guest cookie is reused, and a fresh token
// is minted and set when neither exists. Runs after Auth.
func Identify(cfg config.SessionConfig, sessions sessionToucher, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var cookieToken string
			if cookie, err := r.Cookie(cfg.CookieName); err == nil {
				cookieToken = cookie.Value
			}

			owner, minted := identity.Resolve(UserIDFromContext(r.Context()), cookieToken)

			if minted != "" {
				http.SetCookie(w, &http.Cookie{
					Name:     cfg.CookieName,
					Value:    minted,
					Path:     "/",
					MaxAge:   int(cfg.TTL.Seconds()),
					HttpOnly: true,
					Secure:   cfg.Secure,
					SameSite: http.SameSiteLaxMode,
				})
			}

			ctx := WithOwner(r.Context(), owner)

			// Keep the guest session alive; a dead session store should
			// not take cart reads down with it.
			if sessions != nil && !owner.IsUser() {
				if err := sessions.Touch(ctx, owner.SessionToken()); err != nil && logg != nil {
					logg.Warn(ctx, "refreshing guest session failed: "+err.Error())
				}
			}

			if logg != nil {
				ctx = logg.WithOwner(ctx, owner.String())
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
