package router

import (
	"github.com/labstack/echo/v4"

	"lostfound/internal/adapter/api/handler"
	"lostfound/internal/adapter/api/middleware"
)

func SetupAdminRouter(e *echo.Echo, authMiddleware *middleware.AuthMiddleware, adminMiddleware *middleware.AdminMiddleware) {
	reportHandler := handler.GetReportHandler()

	// Admin routes - require authentication and admin role
	admin := e.Group("/v1/admin")
	admin.Use(authMiddleware.Authenticate)
	admin.Use(adminMiddleware.AdminOnly)

	admin.POST("/reports/:id/confirm", reportHandler.Confirm)
	admin.DELETE("/reports/:collection/:id", reportHandler.Delete)
}
