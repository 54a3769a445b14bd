package controllers

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"resto-sync/internal/state"
	apperrors "resto-sync/pkg/errors"
	"resto-sync/pkg/service"
	"resto-sync/pkg/utils"
	appwebsocket "resto-sync/pkg/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// локальный сервис, вкладки подключаются с того же хоста
	CheckOrigin: func(r *http.Request) bool { return true },
}

// WebsocketController поднимает соединение с вкладкой интерфейса и
// сразу отправляет ей текущий снимок состояния.
type WebsocketController struct {
	hub        *appwebsocket.Hub
	store      *state.Store
	jwtService service.JWTService
	logger     *zap.Logger
}

func NewWebsocketController(hub *appwebsocket.Hub, store *state.Store, jwtService service.JWTService, logger *zap.Logger) *WebsocketController {
	return &WebsocketController{hub: hub, store: store, jwtService: jwtService, logger: logger}
}

func (c *WebsocketController) Serve(ctx echo.Context) error {
	tokenString := ctx.QueryParam("token")
	if tokenString == "" {
		return utils.ErrorResponse(ctx, apperrors.ErrInvalidToken, c.logger)
	}

	claims, err := c.jwtService.ValidateToken(tokenString)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	conn, err := upgrader.Upgrade(ctx.Response(), ctx.Request(), nil)
	if err != nil {
		c.logger.Error("Ошибка апгрейда соединения вкладки", zap.Error(err))
		return err
	}

	client := appwebsocket.NewClient(c.hub, conn, claims.UserID, c.logger)
	c.hub.Register <- client

	go client.WritePump()
	go client.ReadPump()

	// новая вкладка не ждет следующего изменения, снимок уходит сразу
	if err := c.hub.SendToUser(claims.UserID, c.store.Snapshot(), appwebsocket.MessageTypeState); err != nil {
		c.logger.Warn("Начальный снимок не отправлен вкладке", zap.Error(err))
	}
	return nil
}
