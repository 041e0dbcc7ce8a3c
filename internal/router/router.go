// Package router wires handlers and middleware onto an echo instance.
package router

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Vivehasrinivasan/Buddy-Sign-new/internal/config"
	"github.com/Vivehasrinivasan/Buddy-Sign-new/internal/handler"
	"github.com/Vivehasrinivasan/Buddy-Sign-new/internal/metrics"
	"github.com/Vivehasrinivasan/Buddy-Sign-new/internal/middleware"
)

// Setup installs the global middleware and the JSON error handler.
func Setup(e *echo.Echo, cfg config.Config, log *slog.Logger) {
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = errorHandler(log)

	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(middleware.RequestLogger(log))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     cfg.CORS,
		AllowCredentials: true,
		AllowHeaders:     []string{echo.HeaderContentType, echo.HeaderAuthorization, "Access-Control-Allow-Credentials"},
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
	}))
}

// RegisterRoutes registers the unauthenticated status routes.  cache wraps
// the info endpoint only.
func RegisterRoutes(e *echo.Echo, prefix string, sys *handler.SystemHandler, m *metrics.Auth, cache echo.MiddlewareFunc) {
	e.GET("/health", sys.Health)
	e.GET(prefix+"/info", sys.Info, cache)
	if m != nil {
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})))
	}
}

// RegisterAuth registers the session endpoints.  limiter guards every auth
// route; guard (RequireSession) guards the ones that need a live session.
// On guarded routes the limiter runs after guard so user-keyed strategies
// see the authenticated id.  Logout is outside guard: an expired access
// token can still be logged out.
func RegisterAuth(e *echo.Echo, prefix string, a *handler.AuthHandler, guard, limiter echo.MiddlewareFunc) {
	g := e.Group(prefix + "/auth")
	g.POST("/signup", a.Signup, limiter)
	g.POST("/login", a.Login, limiter)
	g.POST("/refresh", a.Refresh, limiter)
	g.POST("/logout", a.Logout, limiter)
	g.POST("/verify-token", a.VerifyToken, guard, limiter)
	g.GET("/user", a.User, guard, limiter)

	e.GET(prefix+"/profile", a.Profile, guard, limiter)
}

func errorHandler(log *slog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		status := http.StatusInternalServerError
		var he *echo.HTTPError
		if errors.As(err, &he) {
			status = he.Code
		}

		body := echo.Map{"success": false}
		switch status {
		case http.StatusNotFound:
			body["message"], body["error"] = "Endpoint not found", "not_found"
		case http.StatusMethodNotAllowed:
			body["message"], body["error"] = "Method not allowed", "method_not_allowed"
		default:
			if status < http.StatusInternalServerError {
				body["message"], body["error"] = http.StatusText(status), "bad_request"
				break
			}
			log.Error("unhandled error", "path", c.Path(), "err", err)
			body["message"], body["error"] = "Internal server error", "internal_server_error"
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(status)
		} else {
			err = c.JSON(status, body)
		}
		if err != nil {
			log.Error("write error response", "err", err)
		}
	}
}
