package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"frontdesk/internal/api"
	"frontdesk/internal/billing"
	"frontdesk/internal/config"
	"frontdesk/internal/domain"
	"frontdesk/internal/events"
	"frontdesk/internal/google"
	"frontdesk/internal/logging"
	"frontdesk/internal/metrics"
	"frontdesk/internal/notify"
	"frontdesk/internal/repository"
	"frontdesk/internal/service"
	"frontdesk/internal/store"
	"frontdesk/internal/worker"

	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, logger, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func() { _ = closer.Close() })()
	}

	rooms, err := loadRooms(cfg, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	roomStore := store.New(
		store.InitializeRooms(rooms.Count, store.Boundaries{Standard: rooms.Standard, Deluxe: rooms.Deluxe}, rooms.Rates),
		logging.Component(logger, "store"),
	)
	logger.Info().Int("rooms", rooms.Count).Int("standard", rooms.Standard).Int("deluxe", rooms.Deluxe).Msg("room registry initialized")

	redisClient := initRedis(cfg, logger)
	if redisClient != nil {
		defer redisClient.Close()
	}

	eventBus := events.NewEventBus()

	natsConn := initNATS(cfg, eventBus, logger)
	if natsConn != nil {
		defer natsConn.Close()
	}

	initTelegram(cfg, eventBus, logger)

	sheetsWorker := initSheetsSync(ctx, cfg, redisClient, logger)

	var syncWorker domain.SyncWorker
	var sheetsSync api.SheetsSync
	if sheetsWorker != nil {
		syncWorker = sheetsWorker
		sheetsSync = sheetsWorker
	}

	bookingService := service.NewBookingService(
		roomStore,
		eventBus,
		syncWorker,
		billing.Hotel(cfg.Hotel),
		logging.Component(logger, "bookings"),
	)
	intakeService := service.NewIntakeService(
		initDrafts(cfg, redisClient, logger),
		bookingService,
		cfg.Intake.SubmitLimit,
		time.Duration(cfg.Intake.SubmitWindowSeconds)*time.Second,
		logging.Component(logger, "intake"),
	)
	reportService := service.NewReportService(roomStore)

	startMetrics(ctx, cfg, logger)

	var grpcServer *api.GRPCServer
	if cfg.API.GRPC.Enabled {
		grpcServer, err = api.NewGRPCServer(&cfg.API, logger)
		if err != nil {
			logger.Error().Err(err).Msg("create grpc server")
			return err
		}
		grpcServer.SetServing(true)
		grpcServer.SetSyncServing(sheetsWorker != nil)
	}

	httpServer := api.NewHTTPServer(cfg.API, cfg.Exports.Path, api.Services{
		Bookings: bookingService,
		Intake:   intakeService,
		Reports:  reportService,
		Sync:     sheetsSync,
	}, logging.Component(logger, "http"))

	return startServers(ctx, grpcServer, httpServer, cfg, logger)
}

func loadConfigAndLogger() (*config.Config, *zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load config: %w", err)
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("init logger: %w", err)
	}

	return cfg, logging.Component(baseLogger, "main"), closer, nil
}

// loadRooms returns the inline layout unless ROOMS_PATH or rooms.layout_path
// points to a layout file.
func loadRooms(cfg *config.Config, logger *zerolog.Logger) (config.RoomsConfig, error) {
	layoutPath := os.Getenv("ROOMS_PATH")
	if layoutPath == "" {
		layoutPath = cfg.Rooms.LayoutPath
	}
	if layoutPath == "" {
		return cfg.Rooms, nil
	}

	rooms, err := config.LoadRoomLayout(layoutPath, cfg.Rooms)
	if err != nil {
		logger.Error().Err(err).Str("rooms_path", layoutPath).Msg("load room layout")
		return config.RoomsConfig{}, err
	}
	return rooms, nil
}

func initRedis(cfg *config.Config, logger *zerolog.Logger) *redis.Client {
	if cfg.Redis.Address == "" {
		return nil
	}

	redisClient := repository.NewRedisClient(cfg.Redis)
	if _, err := redisClient.Ping(context.Background()).Result(); err != nil {
		logger.Warn().Err(err).Msg("redis connection failed, continuing without redis")
		_ = redisClient.Close()
		return nil
	}

	logger.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")
	return redisClient
}

func initDrafts(cfg *config.Config, redisClient *redis.Client, logger *zerolog.Logger) domain.DraftRepository {
	ttl := time.Duration(cfg.Intake.DraftTTLSeconds) * time.Second
	memory := repository.NewMemoryDraftRepository(ttl)
	if redisClient == nil {
		return memory
	}
	return repository.NewFailoverDraftRepository(
		repository.NewRedisDraftRepository(redisClient, ttl),
		memory,
		logging.Component(logger, "drafts"),
	)
}

func initNATS(cfg *config.Config, bus *events.EventBus, logger *zerolog.Logger) *nats.Conn {
	if cfg.NATS.URL == "" {
		return nil
	}

	conn, err := events.ConnectNATS(cfg.NATS.URL, cfg.App.Name)
	if err != nil {
		logger.Warn().Err(err).Msg("nats connection failed, continuing without event bridge")
		return nil
	}

	bridge := events.NewNATSBridge(conn, cfg.NATS.SubjectPrefix, logging.Component(logger, "nats"))
	bridge.Attach(bus, events.AllEventTypes...)
	logger.Info().Str("url", cfg.NATS.URL).Str("prefix", cfg.NATS.SubjectPrefix).Msg("nats bridge attached")
	return conn
}

func initTelegram(cfg *config.Config, bus *events.EventBus, logger *zerolog.Logger) {
	if cfg.Telegram.BotToken == "" {
		return
	}

	bot, err := notify.NewBotAPI(cfg.Telegram.BotToken, cfg.Telegram.Debug)
	if err != nil {
		logger.Warn().Err(err).Msg("telegram init failed, continuing without notifications")
		return
	}

	notifier := notify.NewTelegramNotifier(bot, cfg.Telegram.ManagerChats, logging.Component(logger, "telegram"))
	notifier.Attach(bus)
	logger.Info().Str("bot", bot.Self.UserName).Int("chats", len(cfg.Telegram.ManagerChats)).Msg("telegram notifier attached")
}

func initSheetsSync(ctx context.Context, cfg *config.Config, redisClient *redis.Client, logger *zerolog.Logger) *worker.SheetsWorker {
	if cfg.Google.GoogleCredentialsFile == "" || cfg.Google.BookingSpreadSheetID == "" {
		return nil
	}

	sheetsLogger := logging.Component(logger, "sheets")
	sheetsService, err := google.NewSheetsService(
		ctx,
		cfg.Google.GoogleCredentialsFile,
		cfg.Google.BookingSpreadSheetID,
		cfg.Google.BookingsSheetName,
	)
	if err != nil {
		sheetsLogger.Warn().Err(err).Msg("google sheets init failed, continuing without sheets")
		return nil
	}

	if email, err := google.ServiceAccountEmail(cfg.Google.GoogleCredentialsFile); err == nil {
		sheetsLogger.Info().Str("service_account", email).Msg("share the bookings spreadsheet with this account")
	}

	if err := sheetsService.TestConnection(ctx); err != nil {
		sheetsLogger.Warn().Err(err).Msg("google sheets unreachable, continuing without sheets")
		return nil
	}

	w := worker.NewSheetsWorker(sheetsService, redisClient, worker.PolicyFromConfig(cfg.Worker), sheetsLogger)

	// The store starts empty, so the mirror and the task queue start empty too.
	if err := w.Reset(ctx, nil); err != nil {
		sheetsLogger.Warn().Err(err).Msg("google sheets reset failed, continuing without sheets")
		return nil
	}

	go sheetsService.RefreshCache(ctx, time.Hour, func(err error) {
		sheetsLogger.Warn().Err(err).Msg("sheets cache refresh failed")
	})
	go w.Start(ctx)

	sheetsLogger.Info().Str("sheet", cfg.Google.BookingsSheetName).Msg("google sheets sync started")
	return w
}

func startMetrics(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) {
	metrics.Register()
	if !cfg.Monitoring.PrometheusEnabled {
		return
	}
	go startMetricsServer(ctx, cfg.Monitoring.PrometheusPort, logger)
}

func startServers(
	ctx context.Context,
	grpcServer *api.GRPCServer,
	httpServer *api.HTTPServer,
	cfg *config.Config,
	logger *zerolog.Logger,
) error {
	if grpcServer != nil {
		go func() {
			if err := grpcServer.Serve(); err != nil {
				logger.Error().Err(err).Msg("grpc server stopped")
			}
		}()
	}

	go func() {
		if !cfg.API.HTTP.Enabled {
			return
		}
		if err := httpServer.Start(); err != nil {
			logger.Error().Err(err).Msg("http server stopped")
		}
	}()

	logger.Info().Bool("grpc", grpcServer != nil).Int("http_port", cfg.API.HTTP.Port).Msg("front desk started")

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if grpcServer != nil {
		grpcServer.Shutdown(shutdownCtx)
	}
	_ = httpServer.Shutdown(shutdownCtx)

	logger.Info().Msg("front desk stopped")
	return nil
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
