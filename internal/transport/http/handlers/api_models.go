package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/stanokariz/peaceverse/internal/core/domain"
)

// ErrorResponse is the error payload returned by all endpoints.
type ErrorResponse struct {
	Error   string `json:"error"`
	TraceID string `json:"trace_id,omitempty"`
}

// NewErrorResponse creates an error response with trace ID from context
func NewErrorResponse(c *gin.Context, errorMsg string) ErrorResponse {
	traceID, _ := c.Get("trace_id")
	traceIDStr, _ := traceID.(string)

	return ErrorResponse{
		Error:   errorMsg,
		TraceID: traceIDStr,
	}
}

// MessageResponse represents a simple message payload.
type MessageResponse struct {
	Message string `json:"message"`
}

// SignupRequest is the payload for account creation.
type SignupRequest struct {
	Email       string `json:"email" binding:"required"`
	PhoneNumber string `json:"phoneNumber" binding:"required"`
	Password    string `json:"password" binding:"required"`
}

// SignupResponse reports the created account and a password strength hint.
type SignupResponse struct {
	User             UserResponse `json:"user"`
	PasswordStrength int          `json:"passwordStrength"`
	Message          string       `json:"message"`
}

// VerifyOTPRequest carries a one-time code for either channel.
type VerifyOTPRequest struct {
	Email string `json:"email" binding:"required"`
	Code  string `json:"code" binding:"required"`
}

// ResendOTPRequest asks for a fresh code on one channel.
type ResendOTPRequest struct {
	Email   string `json:"email" binding:"required"`
	Channel string `json:"channel" binding:"required"`
}

// LoginRequest is the payload for credential login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse returns the authenticated profile. Tokens travel in cookies.
type LoginResponse struct {
	User    UserResponse `json:"user"`
	Message string       `json:"message"`
}

// ForgotPasswordRequest starts the reset flow.
type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required"`
}

// ResetPasswordRequest completes the reset flow.
type ResetPasswordRequest struct {
	Email       string `json:"email" binding:"required"`
	Code        string `json:"code" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required"`
}

// UpdateRoleRequest changes a user's role.
type UpdateRoleRequest struct {
	Role string `json:"role" binding:"required"`
}

// SetActiveRequest toggles an account.
type SetActiveRequest struct {
	Active *bool `json:"active" binding:"required"`
}

// ReportIncidentRequest files a new incident.
type ReportIncidentRequest struct {
	Title       string  `json:"title" binding:"required"`
	Description string  `json:"description" binding:"required"`
	Category    string  `json:"category" binding:"required"`
	Severity    string  `json:"severity" binding:"required"`
	City        string  `json:"city"`
	Country     string  `json:"country"`
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
}

// ShareStoryRequest files a new peace story.
type ShareStoryRequest struct {
	Title   string  `json:"title" binding:"required"`
	Message string  `json:"message" binding:"required"`
	City    string  `json:"city"`
	Country string  `json:"country"`
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
}

// UserResponse is the transport-safe projection of a user.
type UserResponse struct {
	ID              string     `json:"id"`
	Email           string     `json:"email"`
	PhoneNumber     string     `json:"phoneNumber"`
	Role            string     `json:"role"`
	IsActive        bool       `json:"isActive"`
	IsEmailVerified bool       `json:"isEmailVerified"`
	IsPhoneVerified bool       `json:"isPhoneVerified"`
	IsLoggedIn      bool       `json:"isLoggedIn"`
	LastLogin       *time.Time `json:"lastLogin,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
}

func toUserResponse(user domain.User) UserResponse {
	return UserResponse{
		ID:              user.ID,
		Email:           user.Email,
		PhoneNumber:     user.PhoneNumber,
		Role:            string(user.Role),
		IsActive:        user.IsActive,
		IsEmailVerified: user.IsEmailVerified,
		IsPhoneVerified: user.IsPhoneVerified,
		IsLoggedIn:      user.IsLoggedIn,
		LastLogin:       user.LastLogin,
		CreatedAt:       user.CreatedAt,
	}
}

// IncidentResponse is the transport projection of an incident.
type IncidentResponse struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Severity    string    `json:"severity"`
	City        string    `json:"city,omitempty"`
	Country     string    `json:"country,omitempty"`
	Lat         float64   `json:"lat"`
	Lng         float64   `json:"lng"`
	IsVerified  bool      `json:"isVerified"`
	VerifiedBy  *string   `json:"verifiedBy,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

func toIncidentResponse(incident domain.Incident) IncidentResponse {
	return IncidentResponse{
		ID:          incident.ID,
		UserID:      incident.UserID,
		Title:       incident.Title,
		Description: incident.Description,
		Category:    string(incident.Category),
		Severity:    string(incident.Severity),
		City:        incident.City,
		Country:     incident.Country,
		Lat:         incident.Lat,
		Lng:         incident.Lng,
		IsVerified:  incident.IsVerified,
		VerifiedBy:  incident.VerifiedBy,
		CreatedAt:   incident.CreatedAt,
	}
}

// StoryResponse is the transport projection of a peace story.
type StoryResponse struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	City      string    `json:"city,omitempty"`
	Country   string    `json:"country,omitempty"`
	Lat       float64   `json:"lat"`
	Lng       float64   `json:"lng"`
	CreatedAt time.Time `json:"createdAt"`
}

func toStoryResponse(story domain.PeaceStory) StoryResponse {
	return StoryResponse{
		ID:        story.ID,
		UserID:    story.UserID,
		Title:     story.Title,
		Message:   story.Message,
		City:      story.City,
		Country:   story.Country,
		Lat:       story.Lat,
		Lng:       story.Lng,
		CreatedAt: story.CreatedAt,
	}
}
