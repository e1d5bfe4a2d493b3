// Package middleware provides request-scoped identity, logging, tracing,
// metrics and rate limiting for the HTTP server.
package middleware

import (
	"context"
	"errors"
	"strings"

	"blogicum/internal/authz"
	"blogicum/internal/routes"
	"blogicum/internal/session"

	"github.com/gofiber/fiber/v2"
)

// Identity resolves the viewer from a bearer token or the session cookie.
// Requests without a usable token continue as anonymous.
func Identity(tokens *session.Manager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		viewer := authz.Anonymous

		if raw := tokenFromRequest(c); raw != "" {
			claims, err := tokens.Parse(c.UserContext(), raw)
			var uid uint
			if err == nil {
				uid, err = claims.UserID()
			}
			switch {
			case err == nil:
				viewer = authz.Viewer{ID: uid, Username: claims.Username}
				c.Locals(LocalUserID, uid)
				c.Locals(LocalClaims, claims)
				c.SetUserContext(context.WithValue(c.UserContext(), UserIDKey, uid))
			case errors.Is(err, session.ErrTokenRevoked):
				Logger.DebugContext(c.UserContext(), "revoked token presented")
			default:
				Logger.DebugContext(c.UserContext(), "unusable token presented", "error", err)
			}
		}

		c.Locals(LocalViewer, viewer)
		return c.Next()
	}
}

func tokenFromRequest(c *fiber.Ctx) string {
	if header := c.Get(fiber.HeaderAuthorization); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && parts[0] == "Bearer" {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	return c.Cookies(session.CookieName)
}

// ViewerFrom returns the viewer resolved by Identity, or Anonymous.
func ViewerFrom(c *fiber.Ctx) authz.Viewer {
	if v, ok := c.Locals(LocalViewer).(authz.Viewer); ok {
		return v
	}
	return authz.Anonymous
}

// ClaimsFrom returns the verified token claims of the request, if any.
func ClaimsFrom(c *fiber.Ctx) (*session.Claims, bool) {
	claims, ok := c.Locals(LocalClaims).(*session.Claims)
	return claims, ok && claims != nil
}

// LoginRequired redirects anonymous viewers to the login page, carrying the
// requested path in next.
func LoginRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if authz.RequireLogin(ViewerFrom(c)) == authz.RedirectToLogin {
			return c.Redirect(routes.LoginWithNext(c.OriginalURL()), fiber.StatusFound)
		}
		return c.Next()
	}
}
