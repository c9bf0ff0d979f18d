package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/stanokariz/peaceverse/internal/core/domain"
	"github.com/stanokariz/peaceverse/internal/usecase"
)

// AdminHandler exposes user management and the stats dashboard.
type AdminHandler struct {
	users *usecase.UserService
	stats *usecase.StatsService
}

func NewAdminHandler(users *usecase.UserService, stats *usecase.StatsService) *AdminHandler {
	return &AdminHandler{users: users, stats: stats}
}

// RegisterRoutes binds the admin routes. The caller is expected to gate the
// group with RequireAuth + RequireRole(admin).
func (h *AdminHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/users", h.listUsers)
	r.PATCH("/users/:id/role", h.updateRole)
	r.PATCH("/users/:id/active", h.setActive)
	r.DELETE("/users/:id", h.deleteUser)
	r.GET("/stats", h.siteStats)
}

var adminErrorCases = []ErrorCase{
	{Err: usecase.ErrUserNotFound, Status: http.StatusNotFound, Message: "user not found"},
	{Err: usecase.ErrAdminImmutable, Status: http.StatusForbidden, Message: "admin accounts cannot be modified"},
}

func (h *AdminHandler) listUsers(c *gin.Context) {
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	users, err := h.users.List(c.Request.Context(), offset, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "list users failed"))
		return
	}

	responses := make([]UserResponse, 0, len(users))
	for _, u := range users {
		responses = append(responses, toUserResponse(u))
	}
	c.JSON(http.StatusOK, gin.H{"users": responses})
}

func (h *AdminHandler) updateRole(c *gin.Context) {
	var req UpdateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid payload"))
		return
	}

	role, ok := domain.ParseRole(req.Role)
	if !ok {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "unknown role"))
		return
	}

	user, err := h.users.UpdateRole(c.Request.Context(), c.Param("id"), role)
	if err != nil {
		RespondWithMappedError(c, err, adminErrorCases, http.StatusInternalServerError, "update role failed")
		return
	}

	c.JSON(http.StatusOK, toUserResponse(user))
}

func (h *AdminHandler) setActive(c *gin.Context) {
	var req SetActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Active == nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid payload"))
		return
	}

	user, err := h.users.SetActive(c.Request.Context(), c.Param("id"), *req.Active)
	if err != nil {
		RespondWithMappedError(c, err, adminErrorCases, http.StatusInternalServerError, "update failed")
		return
	}

	c.JSON(http.StatusOK, toUserResponse(user))
}

func (h *AdminHandler) deleteUser(c *gin.Context) {
	if err := h.users.Delete(c.Request.Context(), c.Param("id")); err != nil {
		RespondWithMappedError(c, err, adminErrorCases, http.StatusInternalServerError, "delete failed")
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "user deleted"})
}

func (h *AdminHandler) siteStats(c *gin.Context) {
	stats, err := h.stats.Snapshot(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "stats unavailable"))
		return
	}

	c.JSON(http.StatusOK, stats)
}
