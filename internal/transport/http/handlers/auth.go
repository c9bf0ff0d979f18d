package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/stanokariz/peaceverse/internal/infra/security"
	"github.com/stanokariz/peaceverse/internal/transport/http/middleware"
	"github.com/stanokariz/peaceverse/internal/usecase"
)

// AuthHandler exposes signup, verification, login and the refresh loop.
type AuthHandler struct {
	auth    *usecase.AuthService
	cookies *CookieWriter
}

// NewAuthHandler constructs AuthHandler.
func NewAuthHandler(auth *usecase.AuthService, cookies *CookieWriter) *AuthHandler {
	return &AuthHandler{auth: auth, cookies: cookies}
}

// RegisterRoutes binds authentication routes, applying optional middleware ahead of throttled handlers.
func (h *AuthHandler) RegisterRoutes(r *gin.RouterGroup, requireAuth, signupLimiter, loginLimiter gin.HandlerFunc) {
	r.POST("/signup", chain(signupLimiter, h.signup)...)
	r.POST("/verify-email", h.verifyEmail)
	r.POST("/verify-phone", h.verifyPhone)
	r.POST("/resend-otp", chain(signupLimiter, h.resendOTP)...)
	r.POST("/login", chain(loginLimiter, h.login)...)
	r.POST("/refresh", h.refresh)
	r.POST("/logout", requireAuth, h.logout)
	r.GET("/me", requireAuth, h.me)
}

func chain(mw gin.HandlerFunc, handler gin.HandlerFunc) []gin.HandlerFunc {
	if mw == nil {
		return []gin.HandlerFunc{handler}
	}
	return []gin.HandlerFunc{mw, handler}
}

var signupErrorCases = []ErrorCase{
	{Err: usecase.ErrEmailAlreadyRegistered, Status: http.StatusConflict, Message: "email already registered"},
}

func (h *AuthHandler) signup(c *gin.Context) {
	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid signup payload"))
		return
	}

	result, err := h.auth.Signup(c.Request.Context(), usecase.SignupInput{
		Email:       req.Email,
		PhoneNumber: strings.TrimSpace(req.PhoneNumber),
		Password:    req.Password,
	})
	if err != nil {
		var policyErr *security.PasswordValidationError
		if errors.As(err, &policyErr) {
			c.JSON(http.StatusBadRequest, NewErrorResponse(c, policyErr.Message))
			return
		}
		RespondWithMappedError(c, err, signupErrorCases, http.StatusInternalServerError, "signup failed")
		return
	}

	c.JSON(http.StatusCreated, SignupResponse{
		User:             toUserResponse(result.User),
		PasswordStrength: result.PasswordStrength,
		Message:          "verification codes sent to email and phone",
	})
}

var verifyErrorCases = []ErrorCase{
	{Err: usecase.ErrUserNotFound, Status: http.StatusNotFound, Message: "user not found"},
	{Err: usecase.ErrInvalidOrExpiredOTP, Status: http.StatusBadRequest, Message: "invalid or expired code"},
	{Err: usecase.ErrAlreadyVerified, Status: http.StatusConflict, Message: "already verified"},
}

func (h *AuthHandler) verifyEmail(c *gin.Context) {
	var req VerifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid verification payload"))
		return
	}

	if err := h.auth.VerifyEmailOTP(c.Request.Context(), req.Email, req.Code); err != nil {
		RespondWithMappedError(c, err, verifyErrorCases, http.StatusInternalServerError, "verification failed")
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "email verified"})
}

func (h *AuthHandler) verifyPhone(c *gin.Context) {
	var req VerifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid verification payload"))
		return
	}

	if err := h.auth.VerifyPhoneOTP(c.Request.Context(), req.Email, req.Code); err != nil {
		RespondWithMappedError(c, err, verifyErrorCases, http.StatusInternalServerError, "verification failed")
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "phone verified"})
}

func (h *AuthHandler) resendOTP(c *gin.Context) {
	var req ResendOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid resend payload"))
		return
	}

	channel := usecase.OTPChannel(strings.ToLower(strings.TrimSpace(req.Channel)))
	if channel != usecase.ChannelEmail && channel != usecase.ChannelPhone {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "channel must be email or phone"))
		return
	}

	if err := h.auth.ResendOTP(c.Request.Context(), req.Email, channel); err != nil {
		RespondWithMappedError(c, err, verifyErrorCases, http.StatusInternalServerError, "resend failed")
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "verification code sent"})
}

var loginErrorCases = []ErrorCase{
	{Err: usecase.ErrInvalidCredentials, Status: http.StatusUnauthorized, Message: "invalid email or password"},
	{Err: usecase.ErrNotVerified, Status: http.StatusForbidden, Message: "account not verified"},
	{Err: usecase.ErrInactiveAccount, Status: http.StatusForbidden, Message: "account deactivated"},
}

func (h *AuthHandler) login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid login payload"))
		return
	}

	result, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		RespondWithMappedError(c, err, loginErrorCases, http.StatusInternalServerError, "login failed")
		return
	}

	h.cookies.SetTokens(c,
		result.Tokens.AccessToken, result.Tokens.AccessTTL,
		result.Tokens.RefreshToken, result.Tokens.RefreshTTL,
	)

	c.JSON(http.StatusOK, LoginResponse{
		User:    toUserResponse(result.User),
		Message: "logged in",
	})
}

func (h *AuthHandler) refresh(c *gin.Context) {
	refreshToken, err := c.Cookie(RefreshTokenCookie)
	if err != nil || refreshToken == "" {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "missing refresh token"))
		return
	}

	pair, err := h.auth.Refresh(c.Request.Context(), refreshToken)
	if err != nil {
		h.cookies.Clear(c)
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: security.ErrTokenExpired, Status: http.StatusUnauthorized, Message: "refresh token expired"},
			{Err: security.ErrTokenInvalid, Status: http.StatusUnauthorized, Message: "invalid refresh token"},
			{Err: usecase.ErrRefreshRevoked, Status: http.StatusUnauthorized, Message: "refresh token revoked"},
			{Err: usecase.ErrInactiveAccount, Status: http.StatusForbidden, Message: "account deactivated"},
		}, http.StatusInternalServerError, "refresh failed")
		return
	}

	h.cookies.SetTokens(c, pair.AccessToken, pair.AccessTTL, pair.RefreshToken, pair.RefreshTTL)

	c.JSON(http.StatusOK, MessageResponse{Message: "tokens refreshed"})
}

func (h *AuthHandler) logout(c *gin.Context) {
	if refreshToken, err := c.Cookie(RefreshTokenCookie); err == nil && refreshToken != "" {
		if err := h.auth.Logout(c.Request.Context(), refreshToken); err != nil {
			h.cookies.Clear(c)
			c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "logout failed"))
			return
		}
	}

	h.cookies.Clear(c)
	c.JSON(http.StatusOK, MessageResponse{Message: "logged out"})
}

func (h *AuthHandler) me(c *gin.Context) {
	userID, ok := middleware.GetAuthenticatedUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	user, err := h.auth.Me(c.Request.Context(), userID)
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrUserNotFound, Status: http.StatusNotFound, Message: "user not found"},
		}, http.StatusInternalServerError, "profile lookup failed")
		return
	}

	c.JSON(http.StatusOK, toUserResponse(user))
}
