package services

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"resto-sync/internal/state"
)

// ReportServiceInterface - выгрузка текущего состояния смены для владельца.
type ReportServiceInterface interface {
	BuildShiftReport(ctx context.Context) (*excelize.File, error)
}

type reportService struct {
	store  *state.Store
	logger *zap.Logger
}

func NewReportService(store *state.Store, logger *zap.Logger) ReportServiceInterface {
	return &reportService{store: store, logger: logger}
}

// BuildShiftReport собирает xlsx из текущего снимка: лист со сводкой
// сессий столов и лист с уведомлениями смены.
func (s *reportService) BuildShiftReport(ctx context.Context) (*excelize.File, error) {
	snapshot := s.store.Snapshot()

	f := excelize.NewFile()

	const sessionSheet = "Столы"
	if err := f.SetSheetName("Sheet1", sessionSheet); err != nil {
		return nil, err
	}

	sessionHeaders := []string{"Стол", "Сессия", "Заказ", "Статус", "Позиций", "Сумма", "Открыта"}
	for i, header := range sessionHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sessionSheet, cell, header); err != nil {
			return nil, err
		}
	}

	for row, session := range snapshot.Sessions {
		values := []interface{}{
			session.TableNumber,
			session.SessionID,
			session.OrderID,
			session.Status,
			len(session.Items),
			session.Total,
			session.OpenedAt.Local().Format("2006-01-02 15:04:05"),
		}
		for col, value := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			if err := f.SetCellValue(sessionSheet, cell, value); err != nil {
				return nil, err
			}
		}
	}

	const notificationSheet = "Уведомления"
	if _, err := f.NewSheet(notificationSheet); err != nil {
		return nil, err
	}

	notificationHeaders := []string{"Заголовок", "Сообщение", "Приоритет", "Отправитель", "Прочитано", "Создано"}
	for i, header := range notificationHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(notificationSheet, cell, header); err != nil {
			return nil, err
		}
	}

	for row, entry := range snapshot.Notifications {
		read := "нет"
		if entry.IsRead {
			read = "да"
		}
		values := []interface{}{
			entry.Notification.Title,
			entry.Notification.Message,
			entry.Notification.Priority,
			entry.Notification.Sender.Name,
			read,
			entry.CreatedAt.Local().Format("2006-01-02 15:04:05"),
		}
		for col, value := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			if err := f.SetCellValue(notificationSheet, cell, value); err != nil {
				return nil, err
			}
		}
	}

	s.logger.Debug(fmt.Sprintf("Отчет по смене: %d сессий, %d уведомлений",
		len(snapshot.Sessions), len(snapshot.Notifications)))
	return f, nil
}
