package handler

import (
	"context"

	"lostfound/internal/domain/entity"
	"lostfound/internal/usecase"
	ws "lostfound/internal/infrastructure/websocket"
)

// AuthService is the identity surface the auth handler needs.
type AuthService interface {
	Register(ctx context.Context, input usecase.RegisterInput) (*entity.Principal, error)
	Login(ctx context.Context, email, password string) (*entity.Principal, error)
	AdminLogin(ctx context.Context, email, password string) (*entity.Principal, error)
	Logout(ctx context.Context, uid string) error
}

// LifecycleService is the report surface the report handler needs.
type LifecycleService interface {
	CreateLostReport(ctx context.Context, input usecase.CreateReportInput) (string, error)
	ConfirmFoundByID(ctx context.Context, session *usecase.Session, id string) (string, error)
	DeleteReport(ctx context.Context, session *usecase.Session, collection, id string) error
	ListReports(ctx context.Context, collection string) ([]*entity.Report, error)
	SubscribeReports(ctx context.Context, collection string, onUpdate func([]*entity.Report)) usecase.Unsubscribe
}

var (
	authHandler   *AuthHandler
	reportHandler *ReportHandler
	healthHandler *HealthHandler
)

func Setup(
	authService AuthService,
	lifecycle LifecycleService,
	streams *ws.Manager,
	allowedOrigins []string,
) {
	authHandler = NewAuthHandler(authService)
	reportHandler = NewReportHandler(lifecycle, streams, allowedOrigins)
	healthHandler = NewHealthHandler(streams)
}

func GetAuthHandler() *AuthHandler {
	return authHandler
}

func GetReportHandler() *ReportHandler {
	return reportHandler
}

func GetHealthHandler() *HealthHandler {
	return healthHandler
}
