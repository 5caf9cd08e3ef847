package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"

	"github.com/evn/absen_backend/config"
	"github.com/evn/absen_backend/db"
	"github.com/evn/absen_backend/internal/attendance"
	"github.com/evn/absen_backend/internal/handlers"
	reportHandlers "github.com/evn/absen_backend/internal/handlers/reports"
	"github.com/evn/absen_backend/internal/kv"
	"github.com/evn/absen_backend/internal/logging"
	"github.com/evn/absen_backend/internal/metrics"
	"github.com/evn/absen_backend/internal/notify"
	"github.com/evn/absen_backend/internal/realtime"
	"github.com/evn/absen_backend/internal/reports"
	"github.com/evn/absen_backend/internal/repositories"
	"github.com/evn/absen_backend/internal/routes"
	"github.com/evn/absen_backend/internal/secrets"
	authService "github.com/evn/absen_backend/internal/services/auth"
	"github.com/evn/absen_backend/internal/storage"
	"github.com/evn/absen_backend/internal/tasks"
)

func main() {
	cfg := config.NewConfig()
	logger := logging.Setup(cfg.LogLevel, cfg.LogPretty)
	loc := cfg.Location()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database := db.InitDB(cfg.DatabaseDSN)
	defer database.Close()

	redisClient := config.NewRedisClient(cfg)
	defer redisClient.Close()
	store := kv.NewRedisStore(redisClient)

	box, err := secrets.NewSecretBoxFromBase64(cfg.SecretboxKey)
	if err != nil {
		logger.Fatal().Err(err).Msg("SECRETBOX_KEY must be a base64 encoded 32 byte key")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	objects, files := buildStorage(cfg, logger)

	userRepo := repositories.NewUserRepository(database)
	deviceRepo := repositories.NewDeviceRepository(database)
	shiftRepo := repositories.NewShiftRepository(database)
	attendanceRepo := repositories.NewAttendanceRepository(database)
	photoRepo := repositories.NewPhotoRepository(database)
	notificationRepo := repositories.NewNotificationRepository(database)

	pool := tasks.NewPool(cfg.WorkerCount, cfg.WorkerQueueSize, logger, tasks.WithMetrics(m))
	pool.Start(ctx)

	hub := realtime.NewHub(logger)
	go hub.Run()

	dispatcher := notify.NewDispatcher(notify.DispatcherConfig{
		Store:       notificationRepo,
		Users:       userRepo,
		Photos:      photoRepo,
		ObjectStore: objects,
		Adapters:    notify.NewFactory(box, notify.NewRateLimiter(store, time.Now)),
		PhotoURLTTL: cfg.PhotoURLTTL,
		Location:    loc,
		Logger:      logger,
		Metrics:     m,
	})

	attendanceSvc := attendance.NewService(attendance.Deps{
		Debounce:    attendance.NewDebounceGuard(store, cfg.DebounceWindow),
		Identity:    attendance.NewIdentityResolver(userRepo, store, cfg.CardCacheTTL, logger),
		Shifts:      attendance.NewShiftEvaluator(shiftRepo),
		Records:     attendanceRepo,
		Photos:      attendance.NewPhotoPipeline(objects, photoRepo, time.Now, logger, m),
		Scheduler:   pool,
		Broadcaster: hub,
		Notifier:    dispatcher,
		Location:    loc,
		Logger:      logger,
		Metrics:     m,
	})

	jwtService := authService.NewJWTService(cfg.JwtSecret, cfg.TokenTTL)
	authSvc := authService.NewService(deviceRepo, userRepo, jwtService)

	reportSvc := reports.NewService(attendanceRepo, loc)
	var publisher reportHandlers.Publisher
	if cfg.SheetsCredentialsFile != "" && cfg.SheetsSpreadsheetID != "" {
		p, err := reports.NewSheetsPublisher(ctx, cfg.SheetsCredentialsFile, cfg.SheetsSpreadsheetID, cfg.SheetsSheetName)
		if err != nil {
			logger.Error().Err(err).Msg("google sheets disabled")
		} else {
			publisher = p
			go routes.DailyReportLoop(ctx, reportSvc, p, logger, cfg.ReportPushInterval)
		}
	}

	deps := routes.Deps{
		JwtSecret: cfg.JwtSecret,
		Logger:    logger,
		Gatherer:  reg,
		Auth:      authSvc,
		Taps:      attendanceSvc,
		Reports:   reportSvc,
		Publisher: publisher,
		Logs:      notificationRepo,
		Sender:    dispatcher,
		Hub:       hub,
		HealthChecks: map[string]handlers.Check{
			"postgres": database.PingContext,
			"redis":    store.Ping,
		},
	}
	if files != nil {
		deps.Files = files
	}
	router := routes.Setup(deps)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.ServerPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}
	pool.Stop()
	hub.Stop()
}

// buildStorage returns the photo store and, for the local driver, the store
// that serves signed /files/ links.
func buildStorage(cfg *config.Config, logger zerolog.Logger) (storage.ObjectStore, *storage.LocalStore) {
	switch cfg.StorageDriver {
	case "oss":
		s, err := storage.NewOSSStore(cfg.OSS)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to init OSS storage")
		}
		return s, nil
	case "local", "":
		if err := routes.EnsureUploadDirs(cfg.UploadDir); err != nil {
			logger.Fatal().Err(err).Msg("failed to create upload directories")
		}
		s := storage.NewLocalStore(cfg.UploadDir, cfg.PublicBaseURL, cfg.FileSigningSecret)
		return s, s
	default:
		logger.Fatal().Str("driver", cfg.StorageDriver).Msg("unknown STORAGE_DRIVER")
		return nil, nil
	}
}
