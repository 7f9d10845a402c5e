package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/classroom-api/internal/config"
	"github.com/noah-isme/classroom-api/internal/database"
	"github.com/noah-isme/classroom-api/internal/handler"
	"github.com/noah-isme/classroom-api/internal/middleware"
	"github.com/noah-isme/classroom-api/internal/observability"
	"github.com/noah-isme/classroom-api/internal/repository"
	"github.com/noah-isme/classroom-api/internal/router"
	"github.com/noah-isme/classroom-api/internal/service"
	"github.com/noah-isme/classroom-api/pkg/events"
	"github.com/noah-isme/classroom-api/pkg/storage"
	"github.com/noah-isme/classroom-api/pkg/token"
)

// multipartOverhead leaves room for form boundaries and text fields around the uploaded file.
const multipartOverhead = 1 << 20

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load configuration")
	}
	if cfg.IsDevelopment() {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
	logger = logger.With().Str("service", cfg.AppName).Logger()

	db, err := database.Connect(cfg.DatabaseDriver, cfg.DatabaseURL, database.Options{Verbose: cfg.IsDevelopment()})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}

	if err := database.Migrate(db); err != nil {
		logger.Fatal().Err(err).Msg("failed to migrate database")
	}

	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 10*time.Second)
	redisClient, err := database.ConnectRedis(startupCtx, cfg.RedisURL)
	cancelStartup()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to redis")
	}
	if redisClient != nil {
		defer redisClient.Close()
	} else {
		logger.Warn().Msg("redis url not configured, assignment overview cache disabled")
	}

	var publisher events.Publisher = events.Noop{}
	natsConn, err := events.Connect(cfg.NATSURL, cfg.AppName)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to nats")
	}
	if natsConn != nil {
		defer natsConn.Drain()
		publisher = events.NewNATSPublisher(natsConn, cfg.NATSSubject, logger).WithCorrelation(middleware.CorrelationIDFromContext)
	}

	files, err := storage.NewLocal(cfg.UploadDir, cfg.UploadPublicURL, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to prepare upload directory")
	}

	observability.RegisterMetrics()

	validate := validator.New(validator.WithRequiredStructEnabled())
	tokens := token.NewManager(cfg.JWTSecret, cfg.JWTTTL, cfg.AppName)
	hasher := service.NewBcryptHasher(cfg.PasswordCost)
	cache := service.NewOverviewCache(redisClient, cfg.OverviewCacheTTL, logger)

	courseRepo := repository.NewCourseRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)

	courseService := service.NewCourseService(courseRepo, files, cache, validate, logger)
	studentService := service.NewStudentService(studentRepo, hasher, tokens, files, cache, validate, logger)
	enrollmentService := service.NewEnrollmentService(service.EnrollmentDependencies{
		Courses:     courseRepo,
		Students:    studentRepo,
		Enrollments: enrollmentRepo,
		Hasher:      hasher,
		Publisher:   publisher,
		Files:       files,
		Cache:       cache,
		Validator:   validate,
		MaxRows:     cfg.ImportMaxRows,
	}, logger)
	assignmentService := service.NewAssignmentService(service.AssignmentDependencies{
		Assignments: assignmentRepo,
		Courses:     courseRepo,
		Students:    studentRepo,
		Enrollments: enrollmentRepo,
		Submissions: submissionRepo,
		Files:       files,
		Cache:       cache,
		Publisher:   publisher,
		Validator:   validate,
	}, logger)
	submissionService := service.NewSubmissionService(service.SubmissionDependencies{
		Submissions: submissionRepo,
		Assignments: assignmentRepo,
		Students:    studentRepo,
		Storage:     files,
		Cache:       cache,
		Publisher:   publisher,
		Validator:   validate,
		MaxBytes:    cfg.UploadMaxBytes(),
	}, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
		BodyLimit:    int(cfg.UploadMaxBytes()) + multipartOverhead,
	})

	probes := map[string]handler.HealthProbe{
		"database": func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}
	if redisClient != nil {
		probes["redis"] = func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}
	}

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		CourseHandler:     handler.NewCourseHandler(courseService, logger),
		StudentHandler:    handler.NewStudentHandler(studentService, assignmentService, logger),
		EnrollmentHandler: handler.NewEnrollmentHandler(enrollmentService, logger),
		AssignmentHandler: handler.NewAssignmentHandler(assignmentService, submissionService, logger),
		JWTMiddleware:     middleware.JWTProtected(tokens),
		ImportLimiter:     middleware.RateLimit("import", cfg.ImportRatePerMinute, time.Minute),
		LoginLimiter:      middleware.RateLimit("login", cfg.LoginRatePerMinute, time.Minute),
		HealthProbes:      probes,
	})

	go func() {
		logger.Info().Str("address", cfg.HTTPAddress()).Msg("http server listening")
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	waitForShutdown(app, logger)
}

func waitForShutdown(app *fiber.App, logger zerolog.Logger) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	logger.Info().Msg("server stopped")
}
