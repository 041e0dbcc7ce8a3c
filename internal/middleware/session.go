// Package middleware holds the echo middleware shared by the auth routes:
// the session guard, the Redis token bucket, the Redis response cache and
// the request logger.
package middleware

import (
	"context"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Vivehasrinivasan/Buddy-Sign-new/internal/service"
)

// Verifier resolves an access token to an identity.  *service.SessionManager
// satisfies it.
type Verifier interface {
	Verify(ctx context.Context, raw string) (*service.Identity, error)
}

// TokenFromRequest returns the token carried in the named cookie, falling
// back to an Authorization: Bearer header.  Empty when neither is present.
func TokenFromRequest(c echo.Context, cookieName string) string {
	if ck, err := c.Cookie(cookieName); err == nil && ck.Value != "" {
		return ck.Value
	}
	auth := c.Request().Header.Get(echo.HeaderAuthorization)
	if len(auth) > 7 && strings.EqualFold(auth[:7], "Bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	return ""
}

// RequireSession rejects the request unless it carries a valid, unrevoked
// access token.  On success the identity is stored on the context; see
// IdentityFrom.
func RequireSession(v Verifier, accessCookie string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := TokenFromRequest(c, accessCookie)
			if raw == "" {
				return WriteError(c, service.ErrMissingToken)
			}
			id, err := v.Verify(c.Request().Context(), raw)
			if err != nil {
				return WriteError(c, err)
			}
			setIdentity(c, id)
			return next(c)
		}
	}
}

// WriteError renders err as {success:false, message, error} with the status
// its code maps to.  Causes stay out of the body; the service has logged them.
func WriteError(c echo.Context, err error) error {
	se := service.AsError(err)
	return c.JSON(se.Code.HTTPStatus(), map[string]any{
		"success": false,
		"message": se.Message,
		"error":   string(se.Code),
	})
}
