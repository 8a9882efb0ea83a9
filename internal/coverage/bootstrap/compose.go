package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"ridecover/internal/coverage/adapters/in/in_amqp"
	"ridecover/internal/coverage/adapters/in/in_schedule"
	"ridecover/internal/coverage/adapters/in/in_ws"
	"ridecover/internal/coverage/adapters/in/transport"
	"ridecover/internal/coverage/adapters/out/flags"
	"ridecover/internal/coverage/adapters/out/messaging"
	"ridecover/internal/coverage/adapters/out/metrics"
	"ridecover/internal/coverage/adapters/out/notify"
	"ridecover/internal/coverage/adapters/out/persistence"
	"ridecover/internal/coverage/adapters/out/sdk"
	in "ridecover/internal/coverage/application/ports/in"
	out "ridecover/internal/coverage/application/ports/out"
	"ridecover/internal/coverage/application/usecase"
	"ridecover/internal/shared/auth"
	"ridecover/internal/shared/config"
	db_conn "ridecover/internal/shared/db"
	"ridecover/internal/shared/logger"
	"ridecover/internal/shared/mq"
	"ridecover/internal/shared/ws"
)

// Options — что поднимать помимо ядра. CLI-команды обходятся без RabbitMQ.
type Options struct {
	Events bool
}

// Components — собранные use cases и адаптеры сервиса покрытия
type Components struct {
	Setup        *usecase.Sessions
	UpdatePeriod in.UpdatePeriodUseCase
	Settings     in.CheckSettingsUseCase
	Coverage     in.GetCoverageUseCase
	Trips        out.TripStateProvider

	Hub       *ws.Hub
	Presenter out.NotificationPresenter
	Metrics   *metrics.PrometheusRecorder
	MQ        *mq.RabbitMQ
	JWT       *auth.JWTService

	closers []func()
}

// Close освобождает ресурсы в обратном порядке
func (c *Components) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
}

// Build подключает хранилища, SDK и транспорт событий и собирает use cases
func Build(ctx context.Context, cfg config.Config, opts Options, log *logger.Logger) (_ *Components, err error) {
	c := &Components{}
	defer func() {
		if err != nil {
			c.Close()
		}
	}()

	// 1. PostgreSQL: состояние поездок и миграции
	dbPool, err := db_conn.NewPool(ctx, cfg.Database, log)
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}
	c.closers = append(c.closers, func() { db_conn.Close(dbPool, log) })

	if err := db_conn.Migrate(ctx, dbPool, log); err != nil {
		log.Error(logger.Entry{
			Action:  "db_migration_failed",
			Message: err.Error(),
			Error:   &logger.ErrObj{Msg: err.Error()},
		})
	}

	// 2. Флаги водителя
	flagStore, err := c.openFlagStore(ctx, cfg, dbPool, log)
	if err != nil {
		return nil, err
	}

	// 3. RabbitMQ: публикация событий покрытия
	var events out.EventPublisher
	if opts.Events {
		c.MQ, err = mq.NewRabbitMQ(ctx, cfg.RabbitMQ, log)
		if err != nil {
			return nil, fmt.Errorf("connect rabbitmq: %w", err)
		}
		c.closers = append(c.closers, c.MQ.Close)

		if err := mq.SetupTopology(ctx, c.MQ, log); err != nil {
			log.Error(logger.Entry{
				Action:  "rabbitmq_topology_setup_failed",
				Message: err.Error(),
				Error:   &logger.ErrObj{Msg: err.Error()},
			})
		}
		events = messaging.NewEventPublisher(c.MQ, log)
	}

	// 4. Метрики, JWT, WebSocket hub и presenter уведомлений
	c.Metrics = metrics.NewPrometheusRecorder(nil)
	c.JWT = auth.NewJWTService(cfg.JWT)
	c.Hub = ws.NewHub(c.JWT.ExtractUserID, log)

	board := notify.NewBoard()
	switch cfg.Coverage.Presenter {
	case config.PresenterFCM:
		fcm, err := notify.NewFCMClient(ctx, cfg.Coverage.FCMCredentialsFile)
		if err != nil {
			return nil, err
		}
		c.Presenter = notify.NewFCMPresenter(fcm, board, log)
	default:
		wsPresenter := notify.NewWSPresenter(c.Hub, board, log)
		c.Hub.SetMessageHandler(wsPresenter.HandleMessage)
		c.Presenter = wsPresenter
	}

	// 5. Use cases
	sdkClient := sdk.NewClient(cfg.SDK, log)
	trips := persistence.NewTripStatePgProvider(dbPool)
	c.Trips = trips

	dispatcher := usecase.NewInsuranceDispatcher(sdkClient, events, c.Metrics, log)
	c.UpdatePeriod = usecase.NewUpdatePeriodUseCase(trips, dispatcher, log)
	c.Settings = usecase.NewSettingsDiagnosticsUseCase(sdkClient, c.Presenter, flagStore, events, c.Metrics, log)
	c.Setup = usecase.NewSessions(
		usecase.SetupConfig{SDKKey: cfg.SDK.Key, DetectionMode: cfg.SDK.DetectionMode},
		sdkClient,
		c.UpdatePeriod,
		c.Presenter,
		flagStore,
		events,
		c.Metrics,
		log,
	)
	c.Coverage = usecase.NewGetCoverageUseCase(trips, c.Setup, flagStore)

	return c, nil
}

func (c *Components) openFlagStore(ctx context.Context, cfg config.Config, pool *pgxpool.Pool, log *logger.Logger) (out.FlagStore, error) {
	switch cfg.Coverage.FlagBackend {
	case config.FlagBackendSQLite:
		store, err := flags.OpenSQLite(cfg.Coverage.SQLitePath)
		if err != nil {
			return nil, err
		}
		c.closers = append(c.closers, func() { _ = store.Close() })
		return store, nil

	case config.FlagBackendPostgres:
		return persistence.NewFlagPgStore(pool), nil

	default:
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			_ = rdb.Close()
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		log.Info(logger.Entry{Action: "redis_connected", Message: cfg.Redis.Addr})
		c.closers = append(c.closers, func() { _ = rdb.Close() })
		return flags.NewRedisStore(rdb, cfg.Redis.Prefix), nil
	}
}

// Run запускает Coverage Service и блокируется до отмены ctx
func Run(ctx context.Context, cfg config.Config, log *logger.Logger) {
	log.Info(logger.Entry{
		Action:  "coverage_service_starting",
		Message: "initializing coverage service",
		Additional: map[string]any{
			"trigger_policy": cfg.Coverage.TriggerPolicy,
			"flag_backend":   cfg.Coverage.FlagBackend,
			"presenter":      cfg.Coverage.Presenter,
		},
	})

	c, err := Build(ctx, cfg, Options{Events: true}, log)
	if err != nil {
		log.Fatal(logger.Entry{
			Action:  "coverage_service_init_failed",
			Message: err.Error(),
			Error:   &logger.ErrObj{Msg: err.Error()},
		})
		return
	}
	defer c.Close()

	go c.Hub.Run(ctx)

	// Входящие сообщения водителя; неизвестные типы уходят presenter'у (coverage.sync)
	if wsPresenter, ok := c.Presenter.(*notify.WSPresenter); ok {
		router := in_ws.NewRouter(ctx, c.Hub, c.Setup, c.UpdatePeriod, c.Settings, wsPresenter.HandleMessage, log)
		c.Hub.SetMessageHandler(router.HandleMessage)
	}

	// События поездок и статусов водителя
	if cfg.Coverage.TriggerPolicy.ConsumesEvents() {
		consumer := in_amqp.NewTripEventConsumer(c.MQ, c.UpdatePeriod, c.Setup, log)
		if err := consumer.Start(ctx); err != nil {
			log.Fatal(logger.Entry{
				Action:  "trip_event_consumer_start_failed",
				Message: err.Error(),
				Error:   &logger.ErrObj{Msg: err.Error()},
			})
			return
		}
	}

	// Периодические задачи
	scheduler, err := in_schedule.NewScheduler(c.UpdatePeriod, c.Settings, c.Setup, c.Setup, c.Trips, log)
	if err != nil {
		log.Fatal(logger.Entry{
			Action:  "scheduler_init_failed",
			Message: err.Error(),
			Error:   &logger.ErrObj{Msg: err.Error()},
		})
		return
	}
	intervals := in_schedule.Intervals{
		CheckSettings: cfg.Coverage.SettingsCheckInterval,
		RetrySetup:    cfg.Coverage.RetrySetupInterval,
		SetupOnDuty:   cfg.Coverage.RetrySetupInterval,
	}
	if cfg.Coverage.TriggerPolicy.UsesInterval() {
		intervals.RefreshPeriod = cfg.Coverage.RefreshInterval
	}
	if err := scheduler.Register(ctx, intervals); err != nil {
		log.Fatal(logger.Entry{
			Action:  "scheduler_register_failed",
			Message: err.Error(),
			Error:   &logger.ErrObj{Msg: err.Error()},
		})
		return
	}
	scheduler.Start()
	defer func() {
		if err := scheduler.Stop(); err != nil {
			log.Error(logger.Entry{
				Action:  "scheduler_stop_failed",
				Message: err.Error(),
				Error:   &logger.ErrObj{Msg: err.Error()},
			})
		}
	}()

	// HTTP
	handler := transport.NewHandler(c.Setup, c.UpdatePeriod, c.Settings, c.Coverage, log)
	router := transport.NewRouter(handler, c.JWT, transport.Extras{
		Metrics:   c.Metrics.Handler(),
		WebSocket: c.Hub.ServeWS,
	}, log)

	addr := fmt.Sprintf(":%d", cfg.Services.CoverageServicePort)
	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info(logger.Entry{
			Action:  "http_server_starting",
			Message: fmt.Sprintf("listening on %s", addr),
		})
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(logger.Entry{
				Action:  "http_server_failed",
				Message: err.Error(),
				Error:   &logger.ErrObj{Msg: err.Error()},
			})
		}
	}()

	<-ctx.Done()
	log.Info(logger.Entry{Action: "coverage_service_stopping", Message: "shutting down coverage service"})

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error(logger.Entry{
			Action:  "http_server_shutdown_failed",
			Message: err.Error(),
			Error:   &logger.ErrObj{Msg: err.Error()},
		})
	} else {
		log.Info(logger.Entry{Action: "http_server_stopped", Message: "http server stopped gracefully"})
	}

	log.Info(logger.Entry{Action: "coverage_service_stopped", Message: "coverage service stopped"})
}
