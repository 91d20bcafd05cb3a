package main

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/DentistProject66/backend-dentist/internal/config"
	"github.com/DentistProject66/backend-dentist/internal/database"
	"github.com/DentistProject66/backend-dentist/internal/handler"
	"github.com/DentistProject66/backend-dentist/internal/middleware"
	"github.com/DentistProject66/backend-dentist/internal/queue"
	"github.com/DentistProject66/backend-dentist/internal/repository"
	"github.com/DentistProject66/backend-dentist/internal/router"
	queue_publisher "github.com/DentistProject66/backend-dentist/internal/service"
)

func main() {
	_ = godotenv.Load() // .env is optional; real env wins

	cfg := config.Load()

	zerolog.TimeFieldFormat = time.RFC3339
	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", "dentist-backend").Logger()
	if cfg.Dev() {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		logger.Fatal().Err(err).Msg("database connection failed")
	}
	defer db.Close()

	rdb := config.NewRedisClient()
	if rdb == nil {
		logger.Warn().Msg("redis unavailable, rate limiting disabled")
	}

	users := repository.NewUserRepo(db)
	assignments := repository.NewAssignmentRepo(db)
	patients := repository.NewPatientRepo(db)
	consultations := repository.NewConsultationRepo(db)
	appointments := repository.NewAppointmentRepo(db)
	payments := repository.NewPaymentRepo(db)
	archives := repository.NewArchiveRepo(db)
	admin := repository.NewAdminRepo(db)

	publisher := queue_publisher.New(cfg.AMQPURL, logger)
	if cfg.AMQPURL != "" {
		go func() {
			if err := queue.StartAuditConsumer(cfg.AMQPURL, logger); err != nil {
				logger.Warn().Err(err).Msg("audit consumer stopped")
			}
		}()
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.RequestID())
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.Logger(logger))
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))

	corsOrigins := []string{"*"}
	if cfg.CORSOrigin != "" {
		corsOrigins = []string{cfg.CORSOrigin}
	}
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{AllowOrigins: corsOrigins}))

	router.Register(e, router.Handlers{
		Health:        handler.NewHealthHandler(db),
		Auth:          handler.NewAuthHandler(cfg, users, assignments, logger),
		Admin:         handler.NewAdminHandler(cfg, users, assignments, admin, publisher, logger),
		Patients:      handler.NewPatientHandler(cfg, patients),
		Consultations: handler.NewConsultationHandler(cfg, consultations, publisher, logger),
		Appointments:  handler.NewAppointmentHandler(cfg, appointments, publisher, logger),
		Payments:      handler.NewPaymentHandler(cfg, payments),
		Archives:      handler.NewArchiveHandler(cfg, archives),
	}, cfg.JWTSecret, users, assignments)

	addr := ":" + cfg.Port
	logger.Info().Str("addr", addr).Str("env", cfg.Env).Msg("server starting")
	if err := e.Start(addr); err != nil {
		logger.Fatal().Err(err).Msg("server stopped")
	}
}
