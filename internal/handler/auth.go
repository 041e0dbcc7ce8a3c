package handler

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Vivehasrinivasan/Buddy-Sign-new/internal/config"
	"github.com/Vivehasrinivasan/Buddy-Sign-new/internal/middleware"
	"github.com/Vivehasrinivasan/Buddy-Sign-new/internal/service"
	"github.com/Vivehasrinivasan/Buddy-Sign-new/internal/utils"
)

// AuthHandler serves the {prefix}/auth endpoints.  Tokens travel in two
// HttpOnly cookies named by Cookies.
type AuthHandler struct {
	Sessions *service.SessionManager
	Cookies  config.CookieConfig
}

func NewAuthHandler(s *service.SessionManager, cookies config.CookieConfig) *AuthHandler {
	return &AuthHandler{Sessions: s, Cookies: cookies}
}

// ----- DTOs -----

type signupReq struct {
	ParentEmail string `json:"parentEmail"`
	Password    string `json:"password"`
	ChildName   string `json:"childName"`
	ChildAge    any    `json:"childAge"` // number or numeric string
}

type loginReq struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	RememberMe bool   `json:"rememberMe"`
}

func success(c echo.Context, status int, message string, data any) error {
	body := echo.Map{"success": true}
	if message != "" {
		body["message"] = message
	}
	if data != nil {
		body["data"] = data
	}
	return c.JSON(status, body)
}

func badBody(c echo.Context) error {
	return middleware.WriteError(c, &service.Error{Code: service.CodeValidation, Message: "Invalid request body"})
}

// Signup creates the account; the client must log in afterwards.
func (h *AuthHandler) Signup(c echo.Context) error {
	var req signupReq
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	res, err := h.Sessions.Signup(c.Request().Context(), service.SignupInput{
		Email:     req.ParentEmail,
		Password:  req.Password,
		ChildName: req.ChildName,
		ChildAge:  ageText(req.ChildAge),
	})
	if err != nil {
		return middleware.WriteError(c, err)
	}
	return success(c, http.StatusCreated,
		fmt.Sprintf("Account created for %s. Please sign in to continue.", strings.TrimSpace(req.ChildName)),
		echo.Map{"user_id": res.UserID, "email": res.Email})
}

// ageText renders a decoded JSON age as text.  JSON numbers arrive as
// float64 and are truncated to whole years (8.5 reads as 8).
func ageText(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return fmt.Sprintf("%d", int64(t))
	case bool:
		if !t {
			return ""
		}
	}
	return fmt.Sprint(v)
}

// Login sets both cookies and returns the profile.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	res, err := h.Sessions.Login(c.Request().Context(), req.Email, req.Password, req.RememberMe)
	if err != nil {
		return middleware.WriteError(c, err)
	}

	h.setCookie(c, h.Cookies.AccessName, res.Access)
	h.setCookie(c, h.Cookies.RefreshName, res.Refresh)
	return success(c, http.StatusOK, "Welcome back to BuddySign!", echo.Map{
		"user": res.Profile,
		"session": echo.Map{
			"access_token_cookie":  h.Cookies.AccessName,
			"refresh_token_cookie": h.Cookies.RefreshName,
			"remember_me":          res.RememberMe,
		},
	})
}

// VerifyToken runs behind RequireSession and echoes the resolved profile.
func (h *AuthHandler) VerifyToken(c echo.Context) error {
	id, found := middleware.IdentityFrom(c)
	if !found {
		return middleware.WriteError(c, service.ErrMissingToken)
	}
	return success(c, http.StatusOK, "Token is valid", echo.Map{
		"user":        id.Profile(),
		"token_valid": true,
	})
}

// Refresh reads the refresh cookie and sets a new access cookie.
func (h *AuthHandler) Refresh(c echo.Context) error {
	raw := middleware.TokenFromRequest(c, h.Cookies.RefreshName)
	access, err := h.Sessions.Refresh(c.Request().Context(), raw)
	if err != nil {
		return middleware.WriteError(c, err)
	}
	h.setCookie(c, h.Cookies.AccessName, access)
	return success(c, http.StatusOK, "Token refreshed successfully", echo.Map{
		"session": echo.Map{"access_token_cookie": h.Cookies.AccessName},
	})
}

// Logout revokes the presented access token (and the refresh cookie, if
// any) and clears both cookies.
func (h *AuthHandler) Logout(c echo.Context) error {
	access := middleware.TokenFromRequest(c, h.Cookies.AccessName)
	var refresh string
	if ck, err := c.Cookie(h.Cookies.RefreshName); err == nil {
		refresh = ck.Value
	}
	if err := h.Sessions.Logout(c.Request().Context(), access, refresh); err != nil {
		return middleware.WriteError(c, err)
	}
	h.clearCookie(c, h.Cookies.AccessName)
	h.clearCookie(c, h.Cookies.RefreshName)
	return success(c, http.StatusOK, "Successfully logged out", nil)
}

// User returns the profile plus its creation time.
func (h *AuthHandler) User(c echo.Context) error {
	id, found := middleware.IdentityFrom(c)
	if !found {
		return middleware.WriteError(c, service.ErrMissingToken)
	}
	p := id.Profile()
	created := id.User.CreatedAt
	p.CreatedAt = &created
	return success(c, http.StatusOK, "", p)
}

// Profile returns the authenticated user's profile.
func (h *AuthHandler) Profile(c echo.Context) error {
	id, found := middleware.IdentityFrom(c)
	if !found {
		return middleware.WriteError(c, service.ErrMissingToken)
	}
	return success(c, http.StatusOK, "", id.Profile())
}

func (h *AuthHandler) setCookie(c echo.Context, name string, tok utils.Token) {
	c.SetCookie(&http.Cookie{
		Name:     name,
		Value:    tok.Raw,
		Path:     "/",
		Expires:  tok.ExpiresAt,
		MaxAge:   int(tok.Lifetime().Seconds()),
		HttpOnly: true,
		Secure:   h.Cookies.Secure,
		SameSite: sameSite(h.Cookies.SameSite),
	})
}

func (h *AuthHandler) clearCookie(c echo.Context, name string) {
	c.SetCookie(&http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.Cookies.Secure,
		SameSite: sameSite(h.Cookies.SameSite),
	})
}

func sameSite(v string) http.SameSite {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}
