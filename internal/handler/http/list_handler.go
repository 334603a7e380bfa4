package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/061010Elias/Telegram-License-Bot-Web-Interface/internal/service"
)

// ListHandler serves the read projections: users, licenses, tickets,
// activities and executions, newest first, capped.
type ListHandler struct {
	logger *zap.Logger
	admin  *service.AdminService
}

func NewListHandler(logger *zap.Logger, admin *service.AdminService) *ListHandler {
	return &ListHandler{
		logger: logger.Named("list_handler"),
		admin:  admin,
	}
}

// Users handles GET /api/users.
func (h *ListHandler) Users(c *gin.Context) {
	users, err := h.admin.ListUsers(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to list users", zap.Error(err))
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

// Licenses handles GET /api/licenses.
func (h *ListHandler) Licenses(c *gin.Context) {
	licenses, err := h.admin.ListLicenses(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to list licenses", zap.Error(err))
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"licenses": licenses})
}

// Tickets handles GET /api/tickets.
func (h *ListHandler) Tickets(c *gin.Context) {
	tickets, err := h.admin.ListTickets(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to list tickets", zap.Error(err))
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tickets": tickets})
}

// Activities handles GET /api/activities.
func (h *ListHandler) Activities(c *gin.Context) {
	activities, err := h.admin.ListActivities(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to list activities", zap.Error(err))
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"activities": activities})
}

// Executions handles GET /api/executions.
func (h *ListHandler) Executions(c *gin.Context) {
	executions, err := h.admin.ListExecutions(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to list executions", zap.Error(err))
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"executions": executions})
}
