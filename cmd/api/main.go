package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/meryam27/skilltrack-api/internal/config"
	"github.com/meryam27/skilltrack-api/internal/database"
	"github.com/meryam27/skilltrack-api/internal/handler"
	"github.com/meryam27/skilltrack-api/internal/middleware"
	"github.com/meryam27/skilltrack-api/internal/models"
	"github.com/meryam27/skilltrack-api/internal/observability"
	"github.com/meryam27/skilltrack-api/internal/repository"
	"github.com/meryam27/skilltrack-api/internal/router"
	"github.com/meryam27/skilltrack-api/internal/service"
	"github.com/meryam27/skilltrack-api/pkg/insights"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.Track{},
		&models.Student{},
		&models.ActivityProfile{},
		&models.Competence{},
		&models.StudentCompetence{},
		&models.Goal{},
		&models.Achievement{},
		&models.AuditLog{},
	); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	redisClient, err := database.ConnectRedis(cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()

	// NATS is optional; the services treat a nil connection as "events off"
	natsConn, err := database.ConnectNATS(cfg.NATSURL)
	if err != nil {
		logger.Warn().Err(err).Msg("nats unavailable, events disabled")
		natsConn = nil
	} else if natsConn != nil {
		defer natsConn.Close()
	}

	observability.RegisterMetrics()

	validate := validator.New(validator.WithRequiredStructEnabled())

	userRepo := repository.NewUserRepository(db)
	trackRepo := repository.NewTrackRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	profileRepo := repository.NewActivityProfileRepository(db)
	competenceRepo := repository.NewCompetenceRepository(db)
	enrolmentRepo := repository.NewStudentCompetenceRepository(db)
	goalRepo := repository.NewGoalRepository(db)
	achievementRepo := repository.NewAchievementRepository(db)
	auditRepo := repository.NewAuditLogRepository(db)

	var generator insights.Generator
	if cfg.InsightsProvider == "openai" && cfg.OpenAIAPIKey != "" {
		openAI, err := insights.NewOpenAIGenerator(insights.OpenAIConfig{
			APIKey: cfg.OpenAIAPIKey,
			Model:  cfg.OpenAIModel,
			Logger: logger,
		})
		if err != nil {
			log.Fatalf("failed to create insight generator: %v", err)
		}
		generator = openAI
	}

	auditService := service.NewAuditService(auditRepo, logger)
	authService := service.NewAuthService(userRepo, studentRepo, service.AuthConfig{
		JWTSecret:  cfg.JWTSecret,
		JWTExpiry:  cfg.JWTExpiry,
		BcryptCost: cfg.BcryptCost,
	}, validate, logger)
	adminStudentService := service.NewAdminStudentService(studentRepo, userRepo, trackRepo, profileRepo, enrolmentRepo, auditService, validate, cfg.BcryptCost, logger)
	adminCompetenceService := service.NewAdminCompetenceService(competenceRepo, enrolmentRepo, auditService, validate, logger)
	sessionService := service.NewActivitySessionService(profileRepo, goalRepo, redisClient, natsConn, validate, logger)
	goalService := service.NewGoalService(goalRepo, validate, logger)
	achievementService := service.NewAchievementService(achievementRepo, natsConn, validate, logger)
	dashboardService := service.NewDashboardService(studentRepo, profileRepo, goalRepo, achievementRepo, enrolmentRepo, redisClient, cfg.DashboardCacheTTL, generator, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		AuthHandler:            handler.NewAuthHandler(authService, logger),
		AdminStudentHandler:    handler.NewAdminStudentHandler(adminStudentService, logger),
		AdminCompetenceHandler: handler.NewAdminCompetenceHandler(adminCompetenceService, logger),
		AuditHandler:           handler.NewAuditHandler(auditService, logger),
		ActivityHandler:        handler.NewActivityHandler(sessionService, studentRepo, logger),
		DashboardHandler:       handler.NewDashboardHandler(dashboardService, studentRepo, logger),
		GoalHandler:            handler.NewGoalHandler(goalService, studentRepo, logger),
		AchievementHandler:     handler.NewAchievementHandler(achievementService, studentRepo, logger),
		JWTMiddleware:          middleware.JWTProtected(cfg.JWTSecret),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
