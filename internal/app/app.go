package app

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	"vetlms_backend/internal/config"
	"vetlms_backend/internal/controller"
	"vetlms_backend/internal/repository"
	"vetlms_backend/internal/service"
	"vetlms_backend/internal/util"
	"vetlms_backend/pkg/configwatcher"
	"vetlms_backend/pkg/database"
	"vetlms_backend/pkg/logger"
	"vetlms_backend/pkg/monitoring"
	"vetlms_backend/pkg/security"
	"vetlms_backend/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config          *config.Config
	ConfigFile      string
	Router          *gin.Engine
	DB              *gorm.DB
	Redis           *redis.Client
	tracer          *sdktrace.TracerProvider
	services        *services
	configCallbacks []func(*config.Config)
}

type repositories struct {
	user           *repository.UserRepository
	course         *repository.CourseRepository
	quiz           *repository.QuizRepository
	enrollment     *repository.EnrollmentRepository
	quizAttempt    *repository.QuizAttemptRepository
	trainingRecord *repository.TrainingRecordRepository
	schema         *repository.SchemaRepository
}

type services struct {
	auth       *service.AuthService
	storage    *service.StorageService
	media      *service.MediaService
	viewing    *service.ViewingService
	training   *service.TrainingService
	approval   *service.ApprovalService
	course     *service.CourseService
	assignment *service.AssignmentService
}

type controllers struct {
	auth           *controller.AuthController
	course         *controller.CourseController
	assignment     *controller.AssignmentController
	trainingRecord *controller.TrainingRecordController
	health         *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		user:           repository.NewUserRepository(db),
		course:         repository.NewCourseRepository(db),
		quiz:           repository.NewQuizRepository(db),
		enrollment:     repository.NewEnrollmentRepository(db),
		quizAttempt:    repository.NewQuizAttemptRepository(db),
		trainingRecord: repository.NewTrainingRecordRepository(db),
		schema:         repository.NewSchemaRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, db *gorm.DB, rdb *redis.Client) *services {
	s := &services{}

	s.storage = service.NewStorageService(cfg)
	s.auth = service.NewAuthService(repos.user, cfg)
	s.media = service.NewMediaService()
	s.viewing = service.NewViewingService(repos.enrollment, repos.course, rdb, cfg)
	s.training = service.NewTrainingService(
		db,
		repos.trainingRecord,
		repos.enrollment,
		repos.quizAttempt,
		repos.quiz,
		repos.course,
		s.viewing,
		s.storage,
	)
	s.approval = service.NewApprovalService(db, repos.trainingRecord, repos.enrollment, repos.quizAttempt, s.storage)
	s.course = service.NewCourseService(db, repos.course, repos.quiz, repos.schema, s.media)
	s.assignment = service.NewAssignmentService(db, repos.course, repos.enrollment, repos.user)

	a.RegisterConfigCallback(s.viewing.UpdateConfig)

	return s
}

func (a *App) initControllers(s *services, db *gorm.DB, rdb *redis.Client) *controllers {
	return &controllers{
		auth:           controller.NewAuthController(s.auth),
		course:         controller.NewCourseController(s.course, s.assignment),
		assignment:     controller.NewAssignmentController(s.assignment, s.viewing),
		trainingRecord: controller.NewTrainingRecordController(s.training, s.approval),
		health:         controller.NewHealthController(db, rdb),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.RequestID())
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())

	router.Use(security.RateLimiter(cfg.RateLimit.MaxRequests, time.Duration(cfg.RateLimit.WindowMinutes)*time.Minute))

	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

// Build wires repositories, services and routes on top of an open database.
func Build(cfg *config.Config, db *gorm.DB, rdb *redis.Client) *App {
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	app := &App{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
	}

	repos := app.initRepositories(db)
	app.services = app.initServices(repos, cfg, db, rdb)
	controllers := app.initControllers(app.services, db, rdb)

	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())
	app.Router = router

	app.setupMiddlewares(router, cfg)
	app.registerRoutes(router, controllers, cfg)

	if cfg.Storage.Type == util.StorageLocal {
		router.Static("/uploads", cfg.Storage.LocalPath)
	}

	return app
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)
	logger.Log.Info("Logger initialized successfully")

	migrate := cfg.ForceMigrate || cfg.Server.Mode != "release"
	db, err := database.InitDB(&cfg.Database, migrate)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
	}

	if cfg.MigrateOnly {
		return &App{Config: cfg, DB: db}
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		logger.Log.Fatal("Failed to initialize redis", zap.Error(err))
	}

	monitoring.Init()

	var tp *sdktrace.TracerProvider
	if cfg.Tracing.Enabled {
		tp, err = tracing.InitTracer("vetlms-backend", cfg.Tracing)
		if err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
	}

	app := Build(cfg, db, rdb)
	app.tracer = tp
	return app
}

func (a *App) reloadConfig(cfg *config.Config) {
	for _, callback := range a.configCallbacks {
		callback(cfg)
	}
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	watchCtx, stopWatch := context.WithCancel(context.Background())
	defer stopWatch()
	if a.ConfigFile != "" {
		go func() {
			if err := configwatcher.WatchConfig(watchCtx, a.ConfigFile, a.reloadConfig); err != nil {
				logger.Log.Error("Config watcher stopped", zap.Error(err))
			}
		}()
	}

	go func() {
		logger.Log.Info("Server running", zap.String("port", a.Config.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// wait for SIGINT/SIGTERM, then give in-flight requests 5 seconds
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server...")
	stopWatch()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Error("Server forced to shutdown", zap.Error(err))
	}

	if a.tracer != nil {
		if err := a.tracer.Shutdown(ctx); err != nil {
			logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}
	if a.Redis != nil {
		a.Redis.Close()
	}
	if sqlDB, err := a.DB.DB(); err == nil {
		sqlDB.Close()
	}

	logger.Log.Info("Server exiting")
}
