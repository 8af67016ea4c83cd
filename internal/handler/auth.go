package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/famlink/internal/service"
	"github.com/iliyamo/famlink/internal/store"
)

// AuthHandler bundles dependencies for auth and profile endpoints.
type AuthHandler struct {
	Sessions *service.Session
	Identity *service.Identity
}

func NewAuthHandler(sessions *service.Session, identity *service.Identity) *AuthHandler {
	return &AuthHandler{Sessions: sessions, Identity: identity}
}

// ----- DTOs -----

type credentialsReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}
type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}
type renameReq struct {
	Username string `json:"username"`
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}
type authResp struct {
	User    userPart  `json:"user"`
	Access  tokenPart `json:"access"`
	Refresh tokenPart `json:"refresh"`
}

func toAuthResp(u userPart, pair service.TokenPair) authResp {
	return authResp{
		User:    u,
		Access:  tokenPart{Token: pair.AccessToken, Expires: pair.AccessExpires},
		Refresh: tokenPart{Token: pair.RefreshToken, Expires: pair.RefreshExpire}, // raw back to client
	}
}

// Register: create an account and return tokens immediately.
func (h *AuthHandler) Register(c echo.Context) error {
	var req credentialsReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if strings.TrimSpace(req.Username) == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "username/password required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	u, pair, err := h.Sessions.SignUp(ctx, req.Username, req.Password)
	if err != nil {
		if errors.Is(err, store.ErrUsernameTaken) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "username already taken"})
		}
		if errors.Is(err, service.ErrValidation) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create user failed"})
	}
	return c.JSON(http.StatusCreated, toAuthResp(toUserPart(u), pair))
}

// Login: verify credentials and return a new token pair. Unknown user
// and wrong password produce the same response on purpose.
func (h *AuthHandler) Login(c echo.Context) error {
	var req credentialsReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if strings.TrimSpace(req.Username) == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "username/password required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	u, pair, err := h.Sessions.SignIn(ctx, req.Username, req.Password)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) || errors.Is(err, service.ErrBadCredential) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "login failed"})
	}
	return c.JSON(http.StatusOK, toAuthResp(toUserPart(u), pair))
}

// Refresh: rotate the presented refresh token and issue a new pair.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	u, pair, err := h.Sessions.Refresh(ctx, strings.TrimSpace(req.RefreshToken))
	if err != nil {
		if errors.Is(err, store.ErrTokenNotFound) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "refresh failed"})
	}
	return c.JSON(http.StatusOK, toAuthResp(toUserPart(u), pair))
}

// Logout: invalidate a refresh token. Does not require a JWT; the
// refresh token itself proves possession of the session.
func (h *AuthHandler) Logout(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Sessions.Logout(ctx, strings.TrimSpace(req.RefreshToken)); err != nil {
		if errors.Is(err, store.ErrTokenNotFound) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "logout failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// Me returns the authenticated user's profile.
func (h *AuthHandler) Me(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Sessions.Me(ctx, authedUserID(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, toUserPart(u))
}

// Rename changes the authenticated user's username. Uniqueness is
// re-validated; a taken name answers 409.
func (h *AuthHandler) Rename(c echo.Context) error {
	var req renameReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Identity.Rename(ctx, authedUserID(c), req.Username)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, toUserPart(u))
}
