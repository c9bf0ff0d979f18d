package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/stanokariz/peaceverse/internal/infra/security"
	"github.com/stanokariz/peaceverse/internal/usecase"
)

// PasswordHandler exposes the OTP-gated password reset endpoints.
type PasswordHandler struct {
	reset *usecase.PasswordResetService
}

func NewPasswordHandler(reset *usecase.PasswordResetService) *PasswordHandler {
	return &PasswordHandler{reset: reset}
}

// RegisterRoutes binds the reset routes with an optional limiter in front.
func (h *PasswordHandler) RegisterRoutes(r *gin.RouterGroup, limiter gin.HandlerFunc) {
	r.POST("/forgot-password", chain(limiter, h.forgot)...)
	r.POST("/reset-password", h.resetPassword)
}

var resetErrorCases = []ErrorCase{
	{Err: usecase.ErrUserNotFound, Status: http.StatusNotFound, Message: "user not found"},
	{Err: usecase.ErrInvalidOrExpiredOTP, Status: http.StatusBadRequest, Message: "invalid or expired code"},
}

func (h *PasswordHandler) forgot(c *gin.Context) {
	var req ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid payload"))
		return
	}

	if err := h.reset.RequestReset(c.Request.Context(), req.Email); err != nil {
		RespondWithMappedError(c, err, resetErrorCases, http.StatusInternalServerError, "reset request failed")
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "reset code sent"})
}

func (h *PasswordHandler) resetPassword(c *gin.Context) {
	var req ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid payload"))
		return
	}

	if err := h.reset.Reset(c.Request.Context(), req.Email, req.Code, req.NewPassword); err != nil {
		var policyErr *security.PasswordValidationError
		if errors.As(err, &policyErr) {
			c.JSON(http.StatusBadRequest, NewErrorResponse(c, policyErr.Message))
			return
		}
		RespondWithMappedError(c, err, resetErrorCases, http.StatusInternalServerError, "reset failed")
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "password reset"})
}
