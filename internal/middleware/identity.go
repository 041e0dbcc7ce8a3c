package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/Vivehasrinivasan/Buddy-Sign-new/internal/service"
)

const (
	identityKey = "identity"
	userIDKey   = "user_id"
)

func setIdentity(c echo.Context, id *service.Identity) {
	c.Set(identityKey, id)
	c.Set(userIDKey, id.User.ID)
}

// IdentityFrom returns the identity stored by RequireSession.
func IdentityFrom(c echo.Context) (*service.Identity, bool) {
	id, ok := c.Get(identityKey).(*service.Identity)
	return id, ok && id != nil
}

// userID returns the authenticated user id, or "anon" on public routes.
func userID(c echo.Context) string {
	if s, ok := c.Get(userIDKey).(string); ok && s != "" {
		return s
	}
	return "anon"
}
