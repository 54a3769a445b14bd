package repositories

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/aarondl/null/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"resto-sync/internal/dto"
	"resto-sync/internal/entities"
)

const (
	sessionTable   = "table_sessions"
	orderTable     = "orders"
	orderItemTable = "order_items"
)

// SessionRepositoryInterface - выборка активных сессий столов.
// Вид перечитывается целиком: частичные слияния реляционного join'а
// чреваты ошибками, поэтому клиент их не делает.
type SessionRepositoryInterface interface {
	GetActiveSessions(ctx context.Context, restaurantID, waiterID uint64) ([]dto.SessionSummaryDTO, error)
}

// dbSessionRow - одна строка join'а сессия + заказ + позиция.
// Колонки позиции приходят из LEFT JOIN и потому nullable.
type dbSessionRow struct {
	Session entities.SessionSummaryView

	ItemID    null.Uint64
	ItemName  null.String
	Quantity  null.Int
	UnitPrice null.Float64
	Amount    null.Float64
	ItemState null.String
}

// toItem собирает позицию заказа; false - у сессии нет ни одной позиции.
func (db *dbSessionRow) toItem() (entities.OrderItem, bool) {
	if !db.ItemID.Valid {
		return entities.OrderItem{}, false
	}
	return entities.OrderItem{
		ID:        db.ItemID.Uint64,
		Name:      db.ItemName.String,
		Quantity:  db.Quantity.Int,
		UnitPrice: db.UnitPrice.Float64,
		Amount:    db.Amount.Float64,
		Status:    db.ItemState.String,
	}, true
}

func sessionViewToDTO(view entities.SessionSummaryView) dto.SessionSummaryDTO {
	items := make([]dto.OrderItemDTO, 0, len(view.Items))
	for _, item := range view.Items {
		items = append(items, dto.OrderItemDTO{
			ID:        item.ID,
			Name:      item.Name,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			Amount:    item.Amount,
			Status:    item.Status,
		})
	}
	return dto.SessionSummaryDTO{
		SessionID:   view.SessionID,
		TableNumber: view.TableNumber,
		OrderID:     view.OrderID,
		Status:      view.Status,
		Total:       view.Total,
		Items:       items,
		OpenedAt:    view.OpenedAt,
	}
}

type sessionRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewSessionRepository(storage *pgxpool.Pool, logger *zap.Logger) SessionRepositoryInterface {
	return &sessionRepository{storage: storage, logger: logger}
}

func (r *sessionRepository) GetActiveSessions(ctx context.Context, restaurantID, waiterID uint64) ([]dto.SessionSummaryDTO, error) {
	query, args, err := sq.Select(
		"s.id", "s.table_number", "s.status", "s.opened_at",
		"o.id", "o.total",
		"i.id", "i.name", "i.quantity", "i.unit_price", "i.amount", "i.status",
	).
		From(sessionTable + " s").
		Join(orderTable + " o ON o.session_id = s.id").
		LeftJoin(orderItemTable + " i ON i.order_id = o.id").
		Where(sq.Eq{
			"s.restaurant_id": restaurantID,
			"s.waiter_id":     waiterID,
			"s.status":        []string{entities.SessionStatusOpen, entities.SessionStatusBilling},
		}).
		OrderBy("s.table_number", "i.id").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	views := make([]entities.SessionSummaryView, 0)
	index := make(map[uint64]int)

	for rows.Next() {
		var dbRow dbSessionRow
		if err := rows.Scan(
			&dbRow.Session.SessionID, &dbRow.Session.TableNumber, &dbRow.Session.Status, &dbRow.Session.OpenedAt,
			&dbRow.Session.OrderID, &dbRow.Session.Total,
			&dbRow.ItemID, &dbRow.ItemName, &dbRow.Quantity, &dbRow.UnitPrice, &dbRow.Amount, &dbRow.ItemState,
		); err != nil {
			return nil, err
		}

		pos, seen := index[dbRow.Session.SessionID]
		if !seen {
			view := dbRow.Session
			view.RestaurantID = restaurantID
			view.Items = make([]entities.OrderItem, 0)
			views = append(views, view)
			pos = len(views) - 1
			index[view.SessionID] = pos
		}

		if item, ok := dbRow.toItem(); ok {
			views[pos].Items = append(views[pos].Items, item)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sessions := make([]dto.SessionSummaryDTO, 0, len(views))
	for _, view := range views {
		sessions = append(sessions, sessionViewToDTO(view))
	}
	return sessions, nil
}
