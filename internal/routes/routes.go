package routes

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"resto-sync/internal/controllers"
	"resto-sync/internal/relay"
	"resto-sync/internal/services"
	"resto-sync/internal/state"
	"resto-sync/pkg/service"
	appwebsocket "resto-sync/pkg/websocket"
)

// Deps - собранные в main зависимости с жизненным циклом
// (хаб, хранилище, реле, сервисы). Контроллеры создаются здесь.
type Deps struct {
	Store         *state.Store
	Hub           *appwebsocket.Hub
	NotifRelay    relay.NotificationRelayInterface
	SyncService   services.SyncServiceInterface
	ReportService services.ReportServiceInterface
	JWTService    service.JWTService
	Logger        *zap.Logger
}

func InitRouter(e *echo.Echo, deps Deps) {
	deps.Logger.Info("InitRouter: Начало создания маршрутов")

	stateController := controllers.NewStateController(deps.Store, deps.NotifRelay, deps.Logger)
	sessionController := controllers.NewSessionController(deps.SyncService, deps.Logger)
	reportController := controllers.NewReportController(deps.ReportService, deps.Logger)
	wsController := controllers.NewWebsocketController(deps.Hub, deps.Store, deps.JWTService, deps.Logger)
	tokenController := controllers.NewTokenController(deps.JWTService, deps.Logger)

	api := e.Group("/api")

	api.GET("/state", stateController.GetState)
	api.POST("/state/table", stateController.ChooseTable)

	api.POST("/notifications/:id/read", stateController.MarkAsRead)
	api.POST("/notifications/read-all", stateController.MarkAllAsRead)

	api.POST("/context/enter", sessionController.Enter)
	api.POST("/context/leave", sessionController.Leave)
	api.POST("/context/sign-out", sessionController.SignOut)

	api.GET("/reports/shift", reportController.DownloadShiftReport)

	api.POST("/dev/token", tokenController.IssueDevToken)

	e.GET("/ws", wsController.Serve)

	deps.Logger.Info("InitRouter: Создание маршрутов завершено")
}
