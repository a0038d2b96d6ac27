// File: internal/auth/handler.go
package auth

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/RachitSrivastava96/virasat-setu/internal/common"
	"github.com/RachitSrivastava96/virasat-setu/internal/config"
	"github.com/RachitSrivastava96/virasat-setu/internal/session"
	"github.com/RachitSrivastava96/virasat-setu/internal/shared"
)

// Handler exposes the authentication HTTP surface: local register/login,
// the Google OAuth round trip, session introspection and logout.
type Handler struct {
	users   shared.Service
	oauth   OAuthService
	gateway *session.Gateway
	cookies session.CookieOptions
	cfg     *config.Config
	logger  *zap.Logger
}

func NewHandler(
	users shared.Service,
	oauth OAuthService,
	gateway *session.Gateway,
	cfg *config.Config,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		users:   users,
		oauth:   oauth,
		gateway: gateway,
		cookies: session.CookieOptionsForMode(cfg.SessionCookieName, cfg.IsRelease()),
		cfg:     cfg,
		logger:  logger,
	}
}

// RegisterRoutes mounts the auth endpoints on the given router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	grp := rg.Group("/auth")
	{
		grp.POST("/register", h.Register)
		grp.POST("/login", h.Login)
		grp.GET("/google", h.GoogleLogin)
		grp.GET("/google/callback", h.GoogleCallback)
		grp.GET("/me", h.Me)
		grp.GET("/status", h.Status)
		grp.POST("/logout", h.Logout)
	}
}

// Register handles POST /auth/register. On success the new identity is
// signed in immediately: a session is established and the cookie issued
// alongside the 201 response.
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondBindingError(c, err)
		return
	}

	user, err := h.users.Register(c.Request.Context(), shared.RegisterRequest{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		common.RespondWithError(c, err)
		return
	}

	if err := h.establishSession(c, user); err != nil {
		common.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"user": user})
}

// Login handles POST /auth/login. All credential failures surface as the
// same 401, which the identity service guarantees.
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		// Malformed login input is indistinguishable from bad credentials;
		// reporting field errors here would leak which part was wrong.
		common.RespondWithError(c, common.ErrInvalidCredentials)
		return
	}

	user, err := h.users.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}

	if err := h.establishSession(c, user); err != nil {
		common.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// GoogleLogin handles GET /auth/google: mints a state value, parks it in a
// short-lived cookie, and redirects the browser to Google's consent page.
func (h *Handler) GoogleLogin(c *gin.Context) {
	state, err := generateAndSetState(c, h.cookies.Secure)
	if err != nil {
		h.logger.Error("failed to generate oauth state", zap.Error(err))
		common.RespondWithError(c, common.ErrInternalServer)
		return
	}
	c.Redirect(http.StatusTemporaryRedirect, h.oauth.GoogleLoginURL(state))
}

// GoogleCallback handles GET /auth/google/callback. Every failure ends in a
// redirect to the login-failed page; only a fully verified exchange signs
// the browser in and sends it back to the app.
func (h *Handler) GoogleCallback(c *gin.Context) {
	if errParam := c.Query("error"); errParam != "" {
		h.logger.Info("google oauth denied", zap.String("error", errParam))
		h.redirectLoginFailed(c, "provider_denied")
		return
	}

	storedState, err := readAndClearState(c, h.cookies.Secure)
	if err != nil || storedState == "" || c.Query("state") != storedState {
		h.logger.Warn("oauth state mismatch")
		h.redirectLoginFailed(c, "state_mismatch")
		return
	}

	code := c.Query("code")
	if code == "" {
		h.redirectLoginFailed(c, "missing_code")
		return
	}

	assertion, err := h.oauth.ExchangeGoogleCode(c.Request.Context(), code)
	if err != nil {
		h.logger.Error("google code exchange failed", zap.Error(err))
		h.redirectLoginFailed(c, "exchange_failed")
		return
	}

	user, err := h.users.ResolveOrCreateFederated(c.Request.Context(), *assertion)
	if err != nil {
		if errors.Is(err, common.ErrEmailOwnedByLocalAccount) {
			h.redirectLoginFailed(c, "email_owned_by_local_account")
			return
		}
		h.logger.Error("federated resolution failed", zap.Error(err))
		h.redirectLoginFailed(c, "resolution_failed")
		return
	}

	if err := h.establishSession(c, user); err != nil {
		h.logger.Error("session establishment failed after oauth", zap.Error(err))
		h.redirectLoginFailed(c, "session_failed")
		return
	}
	c.Redirect(http.StatusTemporaryRedirect, h.cfg.AppBaseURL)
}

// Me handles GET /auth/me. It always answers 200; anonymity is data, not
// an error.
func (h *Handler) Me(c *gin.Context) {
	if user, ok := c.Get(common.CurrentUserKey); ok {
		c.JSON(http.StatusOK, gin.H{"authenticated": true, "user": user})
		return
	}
	c.JSON(http.StatusOK, gin.H{"authenticated": false, "user": nil})
}

// Status handles GET /auth/status, a lighter probe than /auth/me.
func (h *Handler) Status(c *gin.Context) {
	_, ok := c.Get(common.CurrentUserKey)
	c.JSON(http.StatusOK, gin.H{"authenticated": ok})
}

// Logout handles POST /auth/logout. Revocation is idempotent: logging out
// without a session still succeeds and still clears the cookie.
func (h *Handler) Logout(c *gin.Context) {
	if token, err := c.Cookie(h.cookies.Name); err == nil && token != "" {
		if err := h.gateway.Revoke(c.Request.Context(), token); err != nil {
			common.RespondWithError(c, err)
			return
		}
	}
	session.ClearCookie(c.Writer, h.cookies)
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handler) establishSession(c *gin.Context, user *shared.User) error {
	token, expiresAt, err := h.gateway.Establish(c.Request.Context(), user.ID)
	if err != nil {
		return err
	}
	session.SetCookie(c.Writer, token, expiresAt, h.cookies)
	return nil
}

func (h *Handler) respondBindingError(c *gin.Context, err error) {
	if verrs, ok := err.(validator.ValidationErrors); ok {
		common.RespondWithError(c, common.ErrValidation.WithDetails(common.FormatValidationErrors(verrs)))
		return
	}
	common.RespondWithError(c, common.ErrBadRequest)
}

func (h *Handler) redirectLoginFailed(c *gin.Context, reason string) {
	target := h.cfg.LoginFailedURL
	if u, err := url.Parse(target); err == nil {
		q := u.Query()
		q.Set("reason", reason)
		u.RawQuery = q.Encode()
		target = u.String()
	}
	c.Redirect(http.StatusTemporaryRedirect, target)
}
