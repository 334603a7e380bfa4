package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/061010Elias/Telegram-License-Bot-Web-Interface/internal/domain/models"
	"github.com/061010Elias/Telegram-License-Bot-Web-Interface/internal/service"
)

// AdminHandler serves the administrative mutations under /api/admin.
type AdminHandler struct {
	logger *zap.Logger
	admin  *service.AdminService
}

func NewAdminHandler(logger *zap.Logger, admin *service.AdminService) *AdminHandler {
	return &AdminHandler{
		logger: logger.Named("admin_handler"),
		admin:  admin,
	}
}

// CreateLicensesRequest creates a batch of unused keys. An omitted
// max_executions means unlimited; an explicit zero is a valid exhausted quota.
type CreateLicensesRequest struct {
	Count         int     `json:"count" binding:"required,min=1,max=1000"`
	DurationDays  float64 `json:"duration_days" binding:"required,gt=0"`
	MaxExecutions *int    `json:"max_executions" binding:"omitempty,min=-1"`
}

// CreateLicenses handles POST /api/admin/licenses.
func (h *AdminHandler) CreateLicenses(c *gin.Context) {
	var req CreateLicensesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "bad_request"})
		return
	}
	maxExecutions := models.UnlimitedExecutions
	if req.MaxExecutions != nil {
		maxExecutions = *req.MaxExecutions
	}

	licenses, err := h.admin.CreateLicenses(c.Request.Context(), req.Count, req.DurationDays, maxExecutions)
	if err != nil {
		h.logger.Error("Failed to create licenses", zap.Error(err))
		renderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"licenses": licenses})
}

// ApplyActionRequest applies one administrative transition to one user.
type ApplyActionRequest struct {
	Action    string   `json:"action" binding:"required"`
	ValueDays *float64 `json:"value_days,omitempty"`
}

// ApplyAction handles POST /api/admin/users/:id/action.
func (h *AdminHandler) ApplyAction(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid user id", Code: "bad_request"})
		return
	}
	var req ApplyActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "bad_request"})
		return
	}

	if err := h.admin.Apply(c.Request.Context(), userID, req.Action, req.ValueDays); err != nil {
		h.logger.Warn("Admin action rejected",
			zap.String("user_id", userID.String()),
			zap.String("action", req.Action),
			zap.Error(err))
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "applied", "action": req.Action})
}

// RespondTicketRequest closes a ticket with one admin response.
type RespondTicketRequest struct {
	Response string `json:"response" binding:"required"`
}

// RespondTicket handles POST /api/admin/tickets/:id/respond.
func (h *AdminHandler) RespondTicket(c *gin.Context) {
	ticketID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid ticket id", Code: "bad_request"})
		return
	}
	var req RespondTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "bad_request"})
		return
	}

	ticket, err := h.admin.RespondTicket(c.Request.Context(), ticketID, req.Response)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, ticket)
}

// PurgeUser handles DELETE /api/admin/users/:id. Cascades to the user's
// tickets and execution records; irreversible.
func (h *AdminHandler) PurgeUser(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid user id", Code: "bad_request"})
		return
	}
	if err := h.admin.PurgeUser(c.Request.Context(), userID); err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "purged"})
}

// ClearActivities handles DELETE /api/admin/activities.
func (h *AdminHandler) ClearActivities(c *gin.Context) {
	if err := h.admin.ClearActivities(c.Request.Context()); err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "cleared"})
}

// ClearExecutions handles DELETE /api/admin/executions.
func (h *AdminHandler) ClearExecutions(c *gin.Context) {
	if err := h.admin.ClearExecutions(c.Request.Context()); err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "cleared"})
}
