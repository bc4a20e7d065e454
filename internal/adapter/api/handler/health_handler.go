package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	ws "lostfound/internal/infrastructure/websocket"
)

type HealthHandler struct {
	streams *ws.Manager
}

func NewHealthHandler(streams *ws.Manager) *HealthHandler {
	return &HealthHandler{
		streams: streams,
	}
}

func (h *HealthHandler) CheckHealth(c echo.Context) error {
	body := map[string]interface{}{
		"status": "Server is running",
		"time":   time.Now().Format(time.RFC3339),
	}
	if h.streams != nil {
		body["streams"] = h.streams.CountByCollection()
	}
	return c.JSON(http.StatusOK, body)
}
