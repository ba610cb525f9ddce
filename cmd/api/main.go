package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/medivet/vetcare-api/internal/config"
	"github.com/medivet/vetcare-api/internal/email"
	authHandler "github.com/medivet/vetcare-api/internal/handler/auth"
	healthHandler "github.com/medivet/vetcare-api/internal/handler/health"
	notificationHandler "github.com/medivet/vetcare-api/internal/handler/notification"
	patientHandler "github.com/medivet/vetcare-api/internal/handler/patient"
	treatmentHandler "github.com/medivet/vetcare-api/internal/handler/treatment"
	userHandler "github.com/medivet/vetcare-api/internal/handler/user"
	"github.com/medivet/vetcare-api/internal/middleware"
	"github.com/medivet/vetcare-api/internal/repository/postgres"
	"github.com/medivet/vetcare-api/internal/router"
	notificationService "github.com/medivet/vetcare-api/internal/service/notification"
	patientService "github.com/medivet/vetcare-api/internal/service/patient"
	treatmentService "github.com/medivet/vetcare-api/internal/service/treatment"
	userService "github.com/medivet/vetcare-api/internal/service/user"
	"github.com/medivet/vetcare-api/internal/whatsapp"
	"github.com/medivet/vetcare-api/pkg/auth"
	"github.com/medivet/vetcare-api/pkg/clock"
	"github.com/medivet/vetcare-api/pkg/logger"
	"github.com/medivet/vetcare-api/pkg/messaging"
	redisBroker "github.com/medivet/vetcare-api/pkg/messaging/redis"
	"github.com/medivet/vetcare-api/pkg/metrics"
	"github.com/medivet/vetcare-api/pkg/scheduler"
)

func main() {
	log := logger.New(nil)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err, "failed to load configuration")
	}

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal(err, "failed to connect to database")
	}
	defer db.Close()

	clk := clock.New()
	m := metrics.New("vetcare", "api")

	// Repositories
	userRepo := postgres.NewUserRepository(db)
	patientRepo := postgres.NewPatientRepository(db)
	treatmentRepo := postgres.NewTreatmentRepository(db, m)
	doseRepo := postgres.NewDoseRepository(db)

	// Event broker is optional: without Redis, events are dropped.
	var broker messaging.Broker = messaging.NewNoopBroker()
	if cfg.Redis.URL != "" {
		b, err := redisBroker.NewRedisBroker(redisBroker.Config{URL: cfg.Redis.URL}, log.Zerolog())
		if err != nil {
			log.Error(err, "failed to connect to Redis, events disabled")
		} else {
			broker = b
			defer broker.Close()
		}
	}

	// Services
	jwtSvc := auth.NewJWTService(cfg.JWT.Secret, time.Duration(cfg.JWT.ExpiryHours)*time.Hour, clk)
	emailSvc := email.NewSMTPService(cfg.SMTP, log)
	userSvc := userService.NewService(userRepo, jwtSvc, emailSvc, clk, log)
	patientSvc := patientService.NewService(patientRepo, treatmentRepo, userRepo, clk, log)
	treatmentSvc := treatmentService.NewService(treatmentRepo, doseRepo, patientRepo, clk, broker, log)

	// Notification pipeline
	gateway := whatsapp.NewTwilioGateway(cfg.Twilio)
	if !gateway.Configured() {
		log.Warn("whatsapp gateway not configured, notifications will be skipped")
	}
	dispatcher := notificationService.NewDispatcher(gateway, log, m)
	history := notificationService.NewHistory(notificationService.DefaultHistorySize)
	poller := notificationService.NewPoller(
		doseRepo,
		userRepo,
		dispatcher,
		history,
		broker,
		clk,
		notificationService.PollerConfig{
			Grace:              time.Duration(cfg.Scheduler.GraceMinutes) * time.Minute,
			AdminFallbackPhone: cfg.Scheduler.AdminFallback,
		},
		log,
		m,
	)

	sched := scheduler.New(poller, scheduler.Config{
		Interval:     cfg.Scheduler.Interval,
		MisfireGrace: cfg.Scheduler.MisfireGrace,
	}, clk, log)
	sched.Start(context.Background())
	defer sched.Stop()

	// HTTP surface
	authMiddleware := middleware.NewAuthMiddleware(jwtSvc)
	r := router.NewRouter(
		authMiddleware,
		authHandler.NewHandler(userSvc),
		userHandler.NewHandler(userSvc),
		patientHandler.NewHandler(patientSvc, authMiddleware),
		treatmentHandler.NewHandler(treatmentSvc, authMiddleware),
		notificationHandler.NewHandler(sched, history, authMiddleware),
		healthHandler.NewHandler(db, sched, history),
		router.Config{
			RateLimitRPS:   cfg.RateLimit.RequestsPerSecond,
			RateLimitBurst: cfg.RateLimit.Burst,
			CORSConfig:     middleware.DefaultCORSConfig(),
		},
	)
	r.Setup()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info("server listening", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal(err, "failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal(err, "server forced to shutdown")
	}

	log.Info("server exited properly")
}
