package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/stanokariz/peaceverse/internal/core/domain"
	"github.com/stanokariz/peaceverse/internal/transport/http/middleware"
	"github.com/stanokariz/peaceverse/internal/usecase"
)

// IncidentHandler exposes incident reports and peace stories.
type IncidentHandler struct {
	incidents *usecase.IncidentService
}

func NewIncidentHandler(incidents *usecase.IncidentService) *IncidentHandler {
	return &IncidentHandler{incidents: incidents}
}

// RegisterRoutes binds the incident and story routes. Reads are public,
// writes require authentication, verification requires editor or admin.
func (h *IncidentHandler) RegisterRoutes(r *gin.RouterGroup, auth gin.HandlerFunc) {
	moderate := middleware.RequireRole(domain.RoleEditor, domain.RoleAdmin)

	r.GET("/incidents", h.listIncidents)
	r.GET("/incidents/mine", auth, h.listMine)
	r.GET("/incidents/:id", h.getIncident)
	r.POST("/incidents", auth, h.report)
	r.POST("/incidents/:id/verify", auth, moderate, h.verify)

	r.GET("/stories", h.listStories)
	r.POST("/stories", auth, h.shareStory)
}

var incidentErrorCases = []ErrorCase{
	{Err: usecase.ErrIncidentNotFound, Status: http.StatusNotFound, Message: "incident not found"},
	{Err: usecase.ErrInvalidIncident, Status: http.StatusBadRequest, Message: "invalid report"},
}

func (h *IncidentHandler) report(c *gin.Context) {
	userID, ok := middleware.GetAuthenticatedUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	var req ReportIncidentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid report payload"))
		return
	}

	incident, err := h.incidents.Report(c.Request.Context(), userID, usecase.ReportInput{
		Title:       req.Title,
		Description: req.Description,
		Category:    domain.IncidentCategory(req.Category),
		Severity:    domain.IncidentSeverity(req.Severity),
		City:        req.City,
		Country:     req.Country,
		Lat:         req.Lat,
		Lng:         req.Lng,
	})
	if err != nil {
		RespondWithMappedError(c, err, incidentErrorCases, http.StatusInternalServerError, "report failed")
		return
	}

	c.JSON(http.StatusCreated, toIncidentResponse(incident))
}

func (h *IncidentHandler) getIncident(c *gin.Context) {
	incident, err := h.incidents.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		RespondWithMappedError(c, err, incidentErrorCases, http.StatusInternalServerError, "lookup failed")
		return
	}

	c.JSON(http.StatusOK, toIncidentResponse(incident))
}

func (h *IncidentHandler) listMine(c *gin.Context) {
	userID, ok := middleware.GetAuthenticatedUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	incidents, err := h.incidents.ListMine(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "list failed"))
		return
	}

	c.JSON(http.StatusOK, gin.H{"incidents": toIncidentResponses(incidents)})
}

func (h *IncidentHandler) listIncidents(c *gin.Context) {
	offset, limit := pageParams(c)

	incidents, err := h.incidents.List(c.Request.Context(), offset, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "list failed"))
		return
	}

	c.JSON(http.StatusOK, gin.H{"incidents": toIncidentResponses(incidents)})
}

func (h *IncidentHandler) verify(c *gin.Context) {
	verifierID, ok := middleware.GetAuthenticatedUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	if err := h.incidents.Verify(c.Request.Context(), c.Param("id"), verifierID); err != nil {
		RespondWithMappedError(c, err, incidentErrorCases, http.StatusInternalServerError, "verification failed")
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "incident verified"})
}

func (h *IncidentHandler) shareStory(c *gin.Context) {
	userID, ok := middleware.GetAuthenticatedUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	var req ShareStoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid story payload"))
		return
	}

	story, err := h.incidents.ShareStory(c.Request.Context(), userID, usecase.StoryInput{
		Title:   req.Title,
		Message: req.Message,
		City:    req.City,
		Country: req.Country,
		Lat:     req.Lat,
		Lng:     req.Lng,
	})
	if err != nil {
		RespondWithMappedError(c, err, incidentErrorCases, http.StatusInternalServerError, "story failed")
		return
	}

	c.JSON(http.StatusCreated, toStoryResponse(story))
}

func (h *IncidentHandler) listStories(c *gin.Context) {
	offset, limit := pageParams(c)

	stories, err := h.incidents.ListStories(c.Request.Context(), offset, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "list failed"))
		return
	}

	responses := make([]StoryResponse, 0, len(stories))
	for _, s := range stories {
		responses = append(responses, toStoryResponse(s))
	}
	c.JSON(http.StatusOK, gin.H{"stories": responses})
}

func toIncidentResponses(incidents []domain.Incident) []IncidentResponse {
	responses := make([]IncidentResponse, 0, len(incidents))
	for _, i := range incidents {
		responses = append(responses, toIncidentResponse(i))
	}
	return responses
}

func pageParams(c *gin.Context) (offset, limit int) {
	offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "50"))
	return offset, limit
}
