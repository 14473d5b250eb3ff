package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rocketscienceinc/stonepaper-backend/internal/config"
	"github.com/rocketscienceinc/stonepaper-backend/internal/repository"
	"github.com/rocketscienceinc/stonepaper-backend/internal/repository/storage"
	"github.com/rocketscienceinc/stonepaper-backend/internal/service"
	"github.com/rocketscienceinc/stonepaper-backend/internal/usecase"
	"github.com/rocketscienceinc/stonepaper-backend/transport/rest"
	"github.com/rocketscienceinc/stonepaper-backend/transport/websocket"
)

const shutdownTimeout = 10 * time.Second

var ErrAddrNotFound = errors.New("redis address string is empty")

// RunApp - runs the application.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigs
		log.Info("Received signal, shutting down", "signal", sig)
		cancel()
	}()

	redisAddrString := conf.Redis.GetRedisAddr()
	if redisAddrString == "" {
		return ErrAddrNotFound
	}

	redisStorage, err := storage.NewRedisStorage(ctx, redisAddrString)
	if err != nil {
		return fmt.Errorf("could not connect to redis storage: %w", err)
	}

	defer func() {
		if err = redisStorage.Close(); err != nil {
			log.Error("could not close redis storage", "error", err)
		}
	}()

	historyRepo, closeHistory, err := openHistory(ctx, logger, conf.History)
	if err != nil {
		return err
	}
	defer closeHistory()

	notifier, closeNotifier, err := newNotifier(logger, conf.Notifier)
	if err != nil {
		return err
	}
	defer closeNotifier()

	directoryRepo := repository.NewRoomDirectoryRepository(redisStorage.Connection)
	directoryService := service.NewDirectoryService(directoryRepo, conf.RoomTTL)

	dispatcher := service.NewOutcomeDispatcher(
		logger.With("component", "dispatcher"), historyRepo, notifier, directoryService, service.DispatcherConfig{
			Workers:     conf.Dispatcher.Workers,
			QueueSize:   conf.Dispatcher.QueueSize,
			TaskTimeout: conf.Dispatcher.TaskTimeout,
		})
	defer dispatcher.Close()

	engine := usecase.NewMatchEngine(logger.With("component", "engine"), repository.NewRoomRegistry(), dispatcher, conf.CountdownSeconds)
	hub := websocket.NewHub(logger.With("component", "hub"))
	loop := usecase.NewMatchLoop(logger.With("component", "loop"), engine, hub, 0)

	loopCtx, stopLoop := context.WithCancel(context.Background())
	defer stopLoop()
	go loop.Run(loopCtx)

	wsServer := websocket.New(logger.With("component", "websocket"), loop, hub)
	router := rest.NewRouter(logger.With("component", "rest"), directoryService, historyRepo, wsServer, conf.StaticDir)
	httpServer := rest.New(logger.With("component", "http"), conf.HTTPPort, router)

	httpErrCh := make(chan error, 1)
	go func() {
		if httpErr := httpServer.Start(); httpErr != nil {
			log.Error("HTTP server error", "error", httpErr)
			httpErrCh <- httpErr
		}
	}()

	select {
	case err = <-httpErrCh:
		err = fmt.Errorf("HTTP server error: %w", err)
	case <-ctx.Done():
		log.Info("Application context canceled, shutting down")
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()

	if shutdownErr := httpServer.Shutdown(shutdownCtx); shutdownErr != nil {
		log.Error("could not shutdown HTTP server", "error", shutdownErr)
	}

	hub.Close()
	if waitErr := wsServer.Wait(shutdownCtx); waitErr != nil {
		log.Error("could not wait for WebSocket connections", "error", waitErr)
	}

	stopLoop()
	<-loop.Done()

	return err
}

func openHistory(ctx context.Context, logger *slog.Logger, conf config.History) (repository.HistoryRepository, func(), error) {
	log := logger.With("method", "openHistory", "driver", conf.Driver)

	switch conf.Driver {
	case config.HistoryPostgres:
		if err := storage.Migrate(logger, conf.PostgresDSN); err != nil {
			return nil, nil, fmt.Errorf("could not migrate postgres: %w", err)
		}

		pgStorage, err := storage.NewPostgresStorage(ctx, conf.PostgresDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("could not connect to postgres: %w", err)
		}

		log.Info("match history ready")

		return repository.NewPostgresHistoryRepository(pgStorage.Pool), pgStorage.Close, nil

	default:
		sqliteStorage, err := storage.NewSQLiteStorage(conf.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("could not open sqlite storage: %w", err)
		}

		if err = sqliteStorage.Init(ctx); err != nil {
			_ = sqliteStorage.Close()
			return nil, nil, fmt.Errorf("could not init sqlite storage: %w", err)
		}

		log.Info("match history ready", "path", conf.SQLitePath)

		return repository.NewSQLiteHistoryRepository(sqliteStorage.Connection), func() {
			if err := sqliteStorage.Close(); err != nil {
				log.Error("could not close sqlite storage", "error", err)
			}
		}, nil
	}
}

func newNotifier(logger *slog.Logger, conf config.Notifier) (service.Notifier, func(), error) {
	switch conf.Driver {
	case config.NotifierSMTP:
		return service.NewSMTPNotifier(service.SMTPConfig{
			Host:     conf.SMTP.Host,
			Port:     conf.SMTP.Port,
			Username: conf.SMTP.Username,
			Password: conf.SMTP.Password,
			From:     conf.SMTP.From,
		}), func() {}, nil

	case config.NotifierNATS:
		conn, err := service.ConnectNATS(conf.NATS.URL)
		if err != nil {
			return nil, nil, err
		}

		return service.NewNATSNotifier(conn, conf.NATS.Subject), func() {
			if err := conn.Drain(); err != nil {
				logger.Error("could not drain nats connection", "error", err)
			}
		}, nil

	default:
		return service.NewLogNotifier(logger.With("component", "notifier")), func() {}, nil
	}
}
