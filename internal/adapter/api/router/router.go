package router

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"lostfound/internal/adapter/api/middleware"
	"lostfound/internal/infrastructure/ratelimit"
)

func Setup(
	e *echo.Echo,
	authMiddleware *middleware.AuthMiddleware,
	adminMiddleware *middleware.AdminMiddleware,
	reportLimiter *ratelimit.RateLimiter,
	metricsHandler http.Handler,
) {
	SetupAuthRouter(e, authMiddleware)
	SetupReportRouter(e, authMiddleware, reportLimiter)
	SetupAdminRouter(e, authMiddleware, adminMiddleware)
	SetupHealthRouter(e, metricsHandler)
}
