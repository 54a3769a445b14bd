package controllers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"resto-sync/internal/services"
	"resto-sync/pkg/utils"
)

// ReportController - выгрузка отчета по смене в xlsx.
type ReportController struct {
	reportService services.ReportServiceInterface
	logger        *zap.Logger
}

func NewReportController(reportService services.ReportServiceInterface, logger *zap.Logger) *ReportController {
	return &ReportController{reportService: reportService, logger: logger}
}

func (c *ReportController) DownloadShiftReport(ctx echo.Context) error {
	file, err := c.reportService.BuildShiftReport(ctx.Request().Context())
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	fileName := fmt.Sprintf("shift-report-%s.xlsx", time.Now().Format("2006-01-02-15-04"))
	ctx.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, fileName))
	ctx.Response().Header().Set(echo.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")

	ctx.Response().WriteHeader(http.StatusOK)
	if err := file.Write(ctx.Response().Writer); err != nil {
		c.logger.Error("Ошибка записи xlsx в ответ", zap.Error(err))
		return err
	}
	return nil
}
