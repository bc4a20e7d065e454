package handler

import (
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"

	gorillaws "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"lostfound/internal/adapter/api/middleware"
	"lostfound/internal/domain/entity"
	"lostfound/internal/domain/service"
	ws "lostfound/internal/infrastructure/websocket"
	"lostfound/internal/usecase"
	"lostfound/pkg/errors"
	"lostfound/pkg/logger"
	"lostfound/pkg/response"
)

type ReportHandler struct {
	lifecycle LifecycleService
	streams   *ws.Manager
	upgrader  gorillaws.Upgrader
}

func NewReportHandler(lifecycle LifecycleService, streams *ws.Manager, allowedOrigins []string) *ReportHandler {
	return &ReportHandler{
		lifecycle: lifecycle,
		streams:   streams,
		upgrader: gorillaws.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

type reportListResponse struct {
	Collection string           `json:"collection"`
	Items      []*entity.Report `json:"items"`
	Count      int              `json:"count"`
}

// Create accepts multipart form fields itemName, category, description and
// the photo file.
func (h *ReportHandler) Create(c echo.Context) error {
	photo, closePhoto, err := formPhoto(c)
	if err != nil {
		return response.Error(c, err)
	}
	defer closePhoto()

	id, err := h.lifecycle.CreateLostReport(c.Request().Context(), usecase.CreateReportInput{
		ItemName:    c.FormValue("itemName"),
		Category:    c.FormValue("category"),
		Description: c.FormValue("description"),
		Photo:       photo,
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, map[string]string{
		"id":         id,
		"collection": entity.StageLost.Collection(),
	})
}

func (h *ReportHandler) List(c echo.Context) error {
	collection := c.Param("collection")

	reports, err := h.lifecycle.ListReports(c.Request().Context(), collection)
	if err != nil {
		return response.Error(c, err)
	}
	if reports == nil {
		reports = []*entity.Report{}
	}

	return response.Success(c, reportListResponse{
		Collection: collection,
		Items:      reports,
		Count:      len(reports),
	})
}

// Stream upgrades to a websocket and pushes a snapshot frame for the initial
// contents and for every change. Closing the socket ends the subscription.
func (h *ReportHandler) Stream(c echo.Context) error {
	collection := c.Param("collection")
	if _, ok := entity.ParseStage(collection); !ok {
		return response.Error(c, errors.Validation("unknown collection "+collection))
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// The upgrader has already written the failure response.
		logger.Warn("WebSocket upgrade failed for %s: %v", collection, err)
		return nil
	}

	client := ws.NewClient(conn, collection)
	unsubscribe := h.lifecycle.SubscribeReports(c.Request().Context(), collection, client.SendSnapshot)
	if unsubscribe == nil {
		_ = conn.WriteJSON(ws.NewErrorFrame("Subscription could not be started"))
		conn.Close()
		return nil
	}
	defer unsubscribe()

	h.streams.Register(client)
	go client.WritePump()
	client.ReadPump(h.streams)
	return nil
}

func (h *ReportHandler) Confirm(c echo.Context) error {
	session := middleware.GetSession(c)

	newID, err := h.lifecycle.ConfirmFoundByID(c.Request().Context(), session, c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]string{
		"id":         newID,
		"collection": entity.StageFound.Collection(),
	})
}

func (h *ReportHandler) Delete(c echo.Context) error {
	session := middleware.GetSession(c)

	err := h.lifecycle.DeleteReport(c.Request().Context(), session, c.Param("collection"), c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]string{
		"message": "Report deleted",
	})
}

// formPhoto opens the optional photo part. A missing file yields a nil photo
// so the lifecycle reports it as a validation failure.
func formPhoto(c echo.Context) (*service.Photo, func(), error) {
	noop := func() {}

	fh, err := c.FormFile("photo")
	if err != nil {
		if err == http.ErrMissingFile || err == http.ErrNotMultipart {
			return nil, noop, nil
		}
		return nil, noop, errors.Validation("Invalid multipart form")
	}

	file, err := fh.Open()
	if err != nil {
		return nil, noop, errors.Validation("photo could not be read")
	}

	return photoFromHeader(fh, file), func() { file.Close() }, nil
}

func photoFromHeader(fh *multipart.FileHeader, file multipart.File) *service.Photo {
	return &service.Photo{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get(echo.HeaderContentType),
		Size:        fh.Size,
		Content:     file,
	}
}

func originChecker(allowed []string) func(*http.Request) bool {
	allowAll := len(allowed) == 0
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			allowAll = true
		}
		set[strings.TrimRight(o, "/")] = struct{}{}
	}

	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if allowAll || origin == "" {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		_, ok := set[u.Scheme+"://"+u.Host]
		return ok
	}
}
