package postgresql

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ConnectDB создает пул соединений к базе хостинг-бэкенда.
// Доступ только на чтение, схему сопровождает бэкенд.
func ConnectDB(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	dbpool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}

	if err := dbpool.Ping(ctx); err != nil {
		dbpool.Close()
		return nil, err
	}

	return dbpool, nil
}
