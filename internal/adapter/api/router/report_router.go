package router

import (
	"github.com/labstack/echo/v4"

	"lostfound/internal/adapter/api/handler"
	"lostfound/internal/adapter/api/middleware"
	"lostfound/internal/infrastructure/ratelimit"
)

func SetupReportRouter(e *echo.Echo, authMiddleware *middleware.AuthMiddleware, limiter *ratelimit.RateLimiter) {
	reportHandler := handler.GetReportHandler()

	reports := e.Group("/v1/reports")

	// Anyone may file a lost report; the token, when sent, only identifies the caller.
	create := []echo.MiddlewareFunc{authMiddleware.OptionalAuth}
	if limiter != nil {
		create = append(create, middleware.RateLimit(limiter))
	}
	reports.POST("", reportHandler.Create, create...)

	reports.GET("/:collection", reportHandler.List)
	reports.GET("/:collection/stream", reportHandler.Stream)
}
