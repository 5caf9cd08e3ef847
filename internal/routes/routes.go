package routes

import (
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/jwtauth/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/evn/absen_backend/internal/handlers"
	adminHandlers "github.com/evn/absen_backend/internal/handlers/admin"
	attendanceHandlers "github.com/evn/absen_backend/internal/handlers/attendance"
	authHandlers "github.com/evn/absen_backend/internal/handlers/auth"
	reportHandlers "github.com/evn/absen_backend/internal/handlers/reports"
	"github.com/evn/absen_backend/internal/middleware"
	"github.com/evn/absen_backend/internal/realtime"
	authService "github.com/evn/absen_backend/internal/services/auth"
)

// Deps is everything the router hands to its handlers.
type Deps struct {
	JwtSecret string
	Logger    zerolog.Logger
	Gatherer  prometheus.Gatherer

	Auth         *authService.Service
	Taps         attendanceHandlers.TapService
	Reports      reportHandlers.ReportService
	Publisher    reportHandlers.Publisher
	Logs         adminHandlers.LogStore
	Sender       adminHandlers.TestSender
	Hub          *realtime.Hub
	Files        handlers.FileOpener
	HealthChecks map[string]handlers.Check
}

// Setup builds the router.
func Setup(d Deps) *chi.Mux {
	jwtAuth := jwtauth.New("HS256", []byte(d.JwtSecret), nil)

	authHandler := authHandlers.NewAuthHandler(d.Auth, d.Logger)
	attendanceHandler := attendanceHandlers.NewAttendanceHandler(d.Taps, d.Logger)
	reportsHandler := reportHandlers.NewReportsHandler(d.Reports, d.Publisher, d.Logger)
	notificationHandler := adminHandlers.NewNotificationHandler(d.Logs, d.Sender, d.Logger)

	router := chi.NewRouter()

	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(jwtauth.Verifier(jwtAuth))
	router.Use(middleware.AddUserIDToContext())

	// Public routes
	router.Post("/api/devices/auth", authHandler.DeviceAuthHandler)
	router.Post("/api/auth/login", authHandler.LoginHandler)
	router.Get("/health", handlers.HealthHandler(d.HealthChecks))
	router.Get("/ws", handlers.WebSocketHandler(d.Hub, jwtAuth, d.Logger))
	if d.Files != nil {
		router.Get("/files/*", handlers.FilesHandler(d.Files))
	}
	if d.Gatherer != nil {
		router.Handle("/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))
	}

	// Kiosk routes: device JWT or X-Device-ID/X-Device-Key.
	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireDevice(d.Auth, d.Logger))

		r.Post("/api/attendances/tap", attendanceHandler.Tap)
		r.Post("/api/attendances/{id}/photo", attendanceHandler.UploadPhoto)
	})

	// Dashboard routes
	router.Group(func(r chi.Router) {
		r.Use(jwtauth.Authenticator(jwtAuth))
		r.Use(middleware.RequireScope(authService.ScopeAdmin))

		r.Get("/api/reports/daily", reportsHandler.DailyHandler)
		r.Post("/api/reports/daily/publish", reportsHandler.PublishHandler)
		r.Get("/api/reports/export", reportsHandler.ExportHandler)

		r.Get("/api/notifications/logs", notificationHandler.ListLogsHandler)
		r.Get("/api/notifications/stats", notificationHandler.StatsHandler)
		r.Post("/api/notifications/test-send", notificationHandler.TestSendHandler)
	})

	return router
}
