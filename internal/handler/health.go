package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Vivehasrinivasan/Buddy-Sign-new/internal/config"
)

// SystemHandler serves the unauthenticated status endpoints.
type SystemHandler struct {
	Cfg config.Config
	Now func() time.Time
}

func NewSystemHandler(cfg config.Config) *SystemHandler {
	return &SystemHandler{Cfg: cfg, Now: time.Now}
}

// Health is polled by load balancers.
func (h *SystemHandler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"success":   true,
		"message":   h.Cfg.AppName + " backend is running",
		"status":    "healthy",
		"timestamp": h.Now().UTC().Format(time.RFC3339),
		"version":   h.Cfg.AppVersion,
	})
}

// Info lists the public endpoints.  Its body depends only on config, so
// the router puts it behind the response cache.
func (h *SystemHandler) Info(c echo.Context) error {
	p := h.Cfg.APIPrefix
	return success(c, http.StatusOK, "", echo.Map{
		"app_name":   h.Cfg.AppName,
		"version":    h.Cfg.AppVersion,
		"api_prefix": p,
		"endpoints": echo.Map{
			"auth": echo.Map{
				"signup":       p + "/auth/signup",
				"login":        p + "/auth/login",
				"verify_token": p + "/auth/verify-token",
				"refresh":      p + "/auth/refresh",
				"logout":       p + "/auth/logout",
				"user":         p + "/auth/user",
			},
			"profile": p + "/profile",
			"health":  "/health",
		},
	})
}
