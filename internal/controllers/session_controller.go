package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"resto-sync/internal/dto"
	"resto-sync/internal/services"
	apperrors "resto-sync/pkg/errors"
	"resto-sync/pkg/utils"
)

// SessionController - вход и выход из контекста ресторана.
type SessionController struct {
	syncService services.SyncServiceInterface
	logger      *zap.Logger
}

func NewSessionController(syncService services.SyncServiceInterface, logger *zap.Logger) *SessionController {
	return &SessionController{syncService: syncService, logger: logger}
}

func (c *SessionController) Enter(ctx echo.Context) error {
	var payload dto.EnterContextDTO
	if err := ctx.Bind(&payload); err != nil {
		return utils.ErrorResponse(ctx, apperrors.ErrBadRequest, c.logger)
	}
	if err := ctx.Validate(&payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	if err := c.syncService.EnterRestaurant(ctx.Request().Context(), payload.UserID, payload.RestaurantID); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, nil, "Вход в контекст ресторана выполнен", http.StatusOK)
}

func (c *SessionController) Leave(ctx echo.Context) error {
	if err := c.syncService.LeaveRestaurant(ctx.Request().Context()); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, nil, "Выход из контекста ресторана выполнен", http.StatusOK)
}

func (c *SessionController) SignOut(ctx echo.Context) error {
	if err := c.syncService.SignOut(ctx.Request().Context()); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, nil, "Выход из аккаунта выполнен", http.StatusOK)
}
