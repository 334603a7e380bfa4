package http

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/061010Elias/Telegram-License-Bot-Web-Interface/internal/config"
)

// SetupRouter wires all HTTP routes. The admin surface carries no in-core
// authentication; deployments are expected to front it with their own gateway.
func SetupRouter(
	cfg *config.Config,
	webhookHandler *WebhookHandler,
	adminHandler *AdminHandler,
	listHandler *ListHandler,
	healthHandler *HealthHandler,
) *gin.Engine {
	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	if len(cfg.Server.CORSAllowOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.Server.CORSAllowOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowCredentials = !corsConfig.AllowAllOrigins
	router.Use(cors.New(corsConfig))

	router.GET("/healthz", healthHandler.Check)

	api := router.Group("/api")
	{
		api.POST("/telegram-webhook", webhookHandler.Receive)

		api.GET("/users", listHandler.Users)
		api.GET("/licenses", listHandler.Licenses)
		api.GET("/tickets", listHandler.Tickets)
		api.GET("/activities", listHandler.Activities)
		api.GET("/executions", listHandler.Executions)

		admin := api.Group("/admin")
		{
			admin.POST("/licenses", adminHandler.CreateLicenses)
			admin.POST("/users/:id/action", adminHandler.ApplyAction)
			admin.POST("/tickets/:id/respond", adminHandler.RespondTicket)
			admin.DELETE("/users/:id", adminHandler.PurgeUser)
			admin.DELETE("/activities", adminHandler.ClearActivities)
			admin.DELETE("/executions", adminHandler.ClearExecutions)
		}
	}
	return router
}
