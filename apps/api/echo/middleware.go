package echoapi

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/nxtwiseedu/nxtwise-lms/core/auth"
)

const (
	guestCookieName = "guest_session"
	guestContextKey = "guestID"
	guestCookieTTL  = 30 * 24 * time.Hour
)

// identityMiddleware exposes the authenticated user to the core through the request context.
func identityMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		if claims, err := getContextClaims(ctx); err == nil && claims.Subject != "" {
			req := ctx.Request()
			ctx.SetRequest(req.WithContext(auth.WithUserID(req.Context(), claims.Subject)))
		}
		return next(ctx)
	}
}

// guestMiddleware gives every anonymous visitor a stable guest id, kept in a cookie.
func guestMiddleware(secure bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			if _, err := getContextClaims(ctx); err == nil {
				return next(ctx)
			}
			if c, err := ctx.Cookie(guestCookieName); err == nil {
				if _, err = uuid.Parse(c.Value); err == nil {
					ctx.Set(guestContextKey, c.Value)
					return next(ctx)
				}
			}
			id := uuid.NewString()
			ctx.SetCookie(&http.Cookie{
				Name:     guestCookieName,
				Value:    id,
				Path:     "/",
				Expires:  time.Now().Add(guestCookieTTL),
				HttpOnly: true,
				Secure:   secure,
				SameSite: http.SameSiteLaxMode,
			})
			ctx.Set(guestContextKey, id)
			return next(ctx)
		}
	}
}

func contextGuestID(ctx echo.Context) string {
	id, _ := ctx.Get(guestContextKey).(string)
	return id
}
