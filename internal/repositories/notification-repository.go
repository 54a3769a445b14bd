package repositories

import (
	"context"
	"errors"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/aarondl/null/v8"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"resto-sync/internal/dto"
	"resto-sync/internal/entities"
	apperrors "resto-sync/pkg/errors"
)

const (
	userNotificationTable = "user_notifications"
	notificationTable     = "notifications"
	userTable             = "users"
)

// dbNotificationEntry - строка выборки связки user_notification +
// уведомление + отправитель. Сканируется прямо в доменные сущности,
// nullable-колонки без места в сущностях живут рядом.
type dbNotificationEntry struct {
	Entry        entities.UserNotification
	Notification entities.NotificationRecord

	Type       null.String
	Priority   null.String
	SenderName null.String
	SenderURL  null.String
}

func (db *dbNotificationEntry) ToDTO() dto.NotificationEntryDTO {
	entry := dto.NotificationEntryDTO{
		ID:           db.Entry.ID,
		UserID:       db.Entry.UserID,
		RestaurantID: db.Entry.RestaurantID,
		IsRead:       db.Entry.IsRead,
		ReadAt:       db.Entry.ReadAt.Ptr(),
		CreatedAt:    db.Entry.CreatedAt,
		Notification: dto.NotificationDTO{
			ID:        db.Notification.ID,
			Title:     db.Notification.Title,
			Message:   db.Notification.Message,
			Type:      db.Type.String,
			Priority:  entities.NormalizePriority(db.Priority.String),
			CreatedAt: db.Notification.CreatedAt,
		},
	}
	if db.Notification.SenderID.Valid {
		entry.Notification.Sender = dto.SenderDTO{
			ID:        db.Notification.SenderID.Uint64,
			Name:      db.SenderName.String,
			AvatarURL: db.SenderURL.Ptr(),
		}
	}
	return entry
}

// NotificationRepositoryInterface - контракты выборки уведомлений.
// Для реле это непрозрачные удаленные вызовы.
type NotificationRepositoryInterface interface {
	GetRecent(ctx context.Context, userID, restaurantID, limit uint64) ([]dto.NotificationEntryDTO, error)
	FindNotificationByID(ctx context.Context, notificationID uint64) (*dto.NotificationDTO, error)
	MarkAsRead(ctx context.Context, userNotificationID uint64) error
	MarkAllAsRead(ctx context.Context, userID, restaurantID uint64) (int64, error)
}

type notificationRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewNotificationRepository(storage *pgxpool.Pool, logger *zap.Logger) NotificationRepositoryInterface {
	return &notificationRepository{storage: storage, logger: logger}
}

func (r *notificationRepository) GetRecent(ctx context.Context, userID, restaurantID, limit uint64) ([]dto.NotificationEntryDTO, error) {
	query, args, err := sq.Select(
		"un.id", "un.user_id", "un.restaurant_id", "un.is_read", "un.read_at", "un.created_at",
		"n.id", "n.title", "n.message", "n.type", "n.priority", "n.created_at",
		"u.id", "u.name", "u.avatar_url",
	).
		From(userNotificationTable + " un").
		Join(notificationTable + " n ON n.id = un.notification_id").
		LeftJoin(userTable + " u ON u.id = n.sender_id").
		Where(sq.Eq{"un.user_id": userID, "un.restaurant_id": restaurantID}).
		OrderBy("un.created_at DESC").
		Limit(limit).
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

	entries := make([]dto.NotificationEntryDTO, 0)
	for rows.Next() {
		var dbRow dbNotificationEntry
		if err := rows.Scan(
			&dbRow.Entry.ID, &dbRow.Entry.UserID, &dbRow.Entry.RestaurantID,
			&dbRow.Entry.IsRead, &dbRow.Entry.ReadAt, &dbRow.Entry.CreatedAt,
			&dbRow.Notification.ID, &dbRow.Notification.Title, &dbRow.Notification.Message,
			&dbRow.Type, &dbRow.Priority, &dbRow.Notification.CreatedAt,
			&dbRow.Notification.SenderID, &dbRow.SenderName, &dbRow.SenderURL,
		); err != nil {
			return nil, err
		}
		entries = append(entries, dbRow.ToDTO())
	}
	return entries, rows.Err()
}

func (r *notificationRepository) FindNotificationByID(ctx context.Context, notificationID uint64) (*dto.NotificationDTO, error) {
	query, args, err := sq.Select(
		"n.id", "n.title", "n.message", "n.type", "n.priority", "n.created_at",
		"u.id", "u.name", "u.avatar_url",
	).
		From(notificationTable + " n").
		LeftJoin(userTable + " u ON u.id = n.sender_id").
		Where(sq.Eq{"n.id": notificationID}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var dbRow dbNotificationEntry
	err = r.storage.QueryRow(ctx, query, args...).Scan(
		&dbRow.Notification.ID, &dbRow.Notification.Title, &dbRow.Notification.Message,
		&dbRow.Type, &dbRow.Priority, &dbRow.Notification.CreatedAt,
		&dbRow.Notification.SenderID, &dbRow.SenderName, &dbRow.SenderURL,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}

	notification := dbRow.ToDTO().Notification
	return &notification, nil
}

func (r *notificationRepository) MarkAsRead(ctx context.Context, userNotificationID uint64) error {
	query, args, err := sq.Update(userNotificationTable).
		Set("is_read", true).
		Set("read_at", time.Now().UTC()).
		Where(sq.Eq{"id": userNotificationID}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return err
	}

	tag, err := r.storage.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *notificationRepository) MarkAllAsRead(ctx context.Context, userID, restaurantID uint64) (int64, error) {
	query, args, err := sq.Update(userNotificationTable).
		Set("is_read", true).
		Set("read_at", time.Now().UTC()).
		Where(sq.Eq{"user_id": userID, "restaurant_id": restaurantID, "is_read": false}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return 0, err
	}

	tag, err := r.storage.Exec(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
