package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"resto-sync/internal/dto"
	apperrors "resto-sync/pkg/errors"
	"resto-sync/pkg/service"
	"resto-sync/pkg/utils"
)

// TokenController выдает токены для локальной разработки, когда
// хостинг-бэкенд недоступен и вкладке нечем авторизоваться на /ws.
type TokenController struct {
	jwtService service.JWTService
	logger     *zap.Logger
}

func NewTokenController(jwtService service.JWTService, logger *zap.Logger) *TokenController {
	return &TokenController{jwtService: jwtService, logger: logger}
}

func (c *TokenController) IssueDevToken(ctx echo.Context) error {
	var payload dto.EnterContextDTO
	if err := ctx.Bind(&payload); err != nil {
		return utils.ErrorResponse(ctx, apperrors.ErrBadRequest, c.logger)
	}
	if err := ctx.Validate(&payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	token, err := c.jwtService.GenerateToken(payload.UserID, payload.RestaurantID)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	body := dto.DevTokenDTO{
		Token:     token,
		ExpiresIn: int64(c.jwtService.GetAccessTokenTTL().Seconds()),
	}
	return utils.SuccessResponse(ctx, body, "Токен для разработки выдан", http.StatusOK)
}
