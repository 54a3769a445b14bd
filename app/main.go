package main

import (
	"context"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-redis/redis/v8"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"resto-sync/internal/alerts"
	"resto-sync/internal/dto"
	"resto-sync/internal/listeners"
	"resto-sync/internal/relay"
	"resto-sync/internal/repositories"
	"resto-sync/internal/routes"
	"resto-sync/internal/services"
	"resto-sync/internal/state"
	"resto-sync/pkg/config"
	"resto-sync/pkg/database/postgresql"
	apperrors "resto-sync/pkg/errors"
	"resto-sync/pkg/eventbus"
	applogger "resto-sync/pkg/logger"
	"resto-sync/pkg/realtime"
	"resto-sync/pkg/service"
	"resto-sync/pkg/utils"
	appwebsocket "resto-sync/pkg/websocket"
)

func main() {
	e := echo.New()
	logger := applogger.NewLogger()

	cfg := config.New()

	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		DisableStackAll: true,
		StackSize:       1 << 10,
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			logger.Error("Паника в обработчике",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Error(err),
				zap.String("stack", string(stack)),
			)
			if !c.Response().Committed {
				httpErr := apperrors.NewHttpError(http.StatusInternalServerError, "Внутренняя ошибка сервера", err)
				utils.ErrorResponse(c, httpErr, logger)
			}
			return err
		},
	}))

	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:  []string{"http://localhost:5173", cfg.Server.BaseURL},
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:  []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		ExposeHeaders: []string{"Content-Disposition"},
	}))

	e.Validator = utils.NewValidator(validator.New())

	// база хостинг-бэкенда, без нее сервису делать нечего
	dbConn, err := postgresql.ConnectDB(context.Background(), cfg.Postgres.DSN)
	if err != nil {
		logger.Fatal("Не удалось подключиться к PostgreSQL", zap.Error(err))
	}
	defer dbConn.Close()
	logger.Info("Подключено к PostgreSQL")

	// Redis нужен только для снимков между перезапусками, без него
	// сервис работает, просто состояние не переживет рестарт
	var cacheRepo repositories.CacheRepositoryInterface
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       0,
	})
	if _, err := redisClient.Ping(context.Background()).Result(); err != nil {
		logger.Warn("Redis недоступен, снимки состояния отключены",
			zap.Error(err), zap.String("address", cfg.Redis.Address))
	} else {
		cacheRepo = repositories.NewRedisCacheRepository(redisClient)
	}

	rtClient := realtime.NewClient(cfg.Realtime.URL, cfg.Realtime.APIKey,
		cfg.Realtime.HeartbeatPeriod, cfg.Realtime.SubscribeTimeout, logger)
	connectCtx, cancel := context.WithTimeout(context.Background(), time.Second*15)
	if err := rtClient.Connect(connectCtx); err != nil {
		logger.Warn("Канал изменений недоступен, подписки откроются после повторного входа", zap.Error(err))
	}
	cancel()
	defer rtClient.Close()

	hub := appwebsocket.NewHub(logger)
	go hub.Run()

	bus := eventbus.New(logger)
	validate := validator.New()

	notifRepo := repositories.NewNotificationRepository(dbConn, logger)
	sessionRepo := repositories.NewSessionRepository(dbConn, logger)

	store := state.NewStore(cfg.Store.Name, cfg.Store.PersistTTL, cacheRepo, logger)
	store.OnChange(func(snapshot dto.ViewStateDTO) {
		if err := hub.Broadcast(snapshot, appwebsocket.MessageTypeState); err != nil {
			logger.Warn("Снимок состояния не разослан вкладкам", zap.Error(err))
		}
	})

	notifRelay := relay.NewNotificationRelay(rtClient, notifRepo, store, bus, validate, logger)
	sessionRelay := relay.NewSessionRelay(rtClient, sessionRepo, store, logger)

	notifier := alerts.NewNoopNotifier()
	if cfg.Alerts.Desktop {
		notifier = alerts.NewDesktopNotifier("")
	}
	dispatcher := alerts.NewDispatcher(hub, notifier, logger)
	listeners.NewAlertListener(dispatcher, logger).Register(bus)

	jwtSvc := service.NewJWTService(cfg.JWT.SecretKey, cfg.JWT.AccessTokenTTL)
	syncService := services.NewSyncService(sessionRelay, notifRelay, store, logger)
	reportService := services.NewReportService(store, logger)

	routes.InitRouter(e, routes.Deps{
		Store:         store,
		Hub:           hub,
		NotifRelay:    notifRelay,
		SyncService:   syncService,
		ReportService: reportService,
		JWTService:    jwtSvc,
		Logger:        logger,
	})

	logger.Info("Сервер запущен", zap.String("port", cfg.Server.Port))
	if err := e.Start(":" + cfg.Server.Port); err != nil {
		logger.Fatal("Ошибка запуска сервера", zap.Error(err))
	}
}
