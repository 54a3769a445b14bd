package controllers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"resto-sync/internal/dto"
	"resto-sync/internal/relay"
	"resto-sync/internal/state"
	apperrors "resto-sync/pkg/errors"
	"resto-sync/pkg/utils"
)

// StateController отдает интерфейсу снимок состояния и принимает
// отметки о прочтении.
type StateController struct {
	store      *state.Store
	notifRelay relay.NotificationRelayInterface
	logger     *zap.Logger
}

func NewStateController(store *state.Store, notifRelay relay.NotificationRelayInterface, logger *zap.Logger) *StateController {
	return &StateController{store: store, notifRelay: notifRelay, logger: logger}
}

func (c *StateController) GetState(ctx echo.Context) error {
	snapshot := c.store.Snapshot()
	return utils.SuccessResponse(ctx, snapshot, "Текущее состояние", http.StatusOK)
}

func (c *StateController) MarkAsRead(ctx echo.Context) error {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return utils.ErrorResponse(ctx, apperrors.ErrBadRequest, c.logger)
	}

	if err := c.notifRelay.MarkAsRead(ctx.Request().Context(), id); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, nil, "Уведомление отмечено прочитанным", http.StatusOK)
}

func (c *StateController) MarkAllAsRead(ctx echo.Context) error {
	var payload dto.MarkAllReadDTO
	if err := ctx.Bind(&payload); err != nil {
		return utils.ErrorResponse(ctx, apperrors.ErrBadRequest, c.logger)
	}
	if err := ctx.Validate(&payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	if err := c.notifRelay.MarkAllAsRead(ctx.Request().Context(), payload.UserID, payload.RestaurantID); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, nil, "Все уведомления отмечены прочитанными", http.StatusOK)
}

func (c *StateController) ChooseTable(ctx echo.Context) error {
	var payload dto.ChooseTableDTO
	if err := ctx.Bind(&payload); err != nil {
		return utils.ErrorResponse(ctx, apperrors.ErrBadRequest, c.logger)
	}
	if err := ctx.Validate(&payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	c.store.SetChosenTable(payload.TableNumber)
	return utils.SuccessResponse(ctx, nil, "Стол выбран", http.StatusOK)
}
