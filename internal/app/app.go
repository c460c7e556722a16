package app

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lms_backend/internal/access"
	"lms_backend/internal/config"
	"lms_backend/internal/controller"
	"lms_backend/internal/grading"
	"lms_backend/internal/repository"
	"lms_backend/internal/service"
	"lms_backend/internal/util"
	"lms_backend/pkg/configwatcher"
	"lms_backend/pkg/database"
	"lms_backend/pkg/logger"
	"lms_backend/pkg/monitoring"
	"lms_backend/pkg/observability"
	"lms_backend/pkg/security"
	"lms_backend/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const probeTimeout = 15 * time.Second

type App struct {
	Config   *config.Config
	Router   *gin.Engine
	DB       *gorm.DB
	Redis    *redis.Client
	Policy   *access.Holder
	services *services
	cancel   context.CancelFunc
	cleanups []func()
}

type repositories struct {
	user        *repository.UserRepository
	course      *repository.CourseRepository
	lesson      *repository.LessonRepository
	video       *repository.VideoRepository
	enrollment  *repository.EnrollmentRepository
	progress    *repository.ProgressRepository
	quiz        *repository.QuizRepository
	question    *repository.QuestionRepository
	quizAttempt *repository.QuizAttemptRepository
	dashboard   *repository.DashboardRepository
}

type services struct {
	auth       *service.AuthService
	user       *service.UserService
	course     *service.CourseService
	lesson     *service.LessonService
	video      *service.VideoService
	enrollment *service.EnrollmentService
	progress   *service.ProgressService
	quiz       *service.QuizService
	question   *service.QuestionService
	dashboard  *service.DashboardService
}

type controllers struct {
	auth       *controller.AuthController
	user       *controller.UserController
	course     *controller.CourseController
	lesson     *controller.LessonController
	video      *controller.VideoController
	enrollment *controller.EnrollmentController
	progress   *controller.ProgressController
	quiz       *controller.QuizController
	question   *controller.QuestionController
	dashboard  *controller.DashboardController
	health     *controller.HealthController
}

// Deps are the pieces NewWithDeps does not build itself.
type Deps struct {
	DB     *gorm.DB
	Redis  *redis.Client
	Tokens service.TokenStore
	Policy *access.Holder
	Prober util.DurationProber
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		user:        repository.NewUserRepository(db),
		course:      repository.NewCourseRepository(db),
		lesson:      repository.NewLessonRepository(db),
		video:       repository.NewVideoRepository(db),
		enrollment:  repository.NewEnrollmentRepository(db),
		progress:    repository.NewProgressRepository(db),
		quiz:        repository.NewQuizRepository(db),
		question:    repository.NewQuestionRepository(db),
		quizAttempt: repository.NewQuizAttemptRepository(db),
		dashboard:   repository.NewDashboardRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, deps Deps) *services {
	s := &services{}

	s.auth = service.NewAuthService(repos.user, deps.Tokens, cfg)
	s.user = service.NewUserService(deps.DB, repos.user)
	s.course = service.NewCourseService(deps.DB, repos.course, repos.lesson, repos.user, repos.enrollment, repos.progress)
	s.lesson = service.NewLessonService(deps.DB, repos.lesson, repos.video, repos.course, deps.Prober)
	s.video = service.NewVideoService(deps.DB, repos.video, repos.lesson, s.lesson)
	s.enrollment = service.NewEnrollmentService(repos.enrollment, repos.course, repos.user, repos.lesson, repos.progress)
	s.progress = service.NewProgressService(repos.progress, repos.lesson, repos.user)
	s.quiz = service.NewQuizService(deps.DB, repos.quiz, repos.quizAttempt, repos.lesson,
		grading.Policy{PassThreshold: cfg.Quiz.PassThreshold})
	s.question = service.NewQuestionService(repos.question, repos.quiz)
	s.dashboard = service.NewDashboardService(repos.dashboard, repos.user, repos.course, repos.lesson, repos.enrollment)

	return s
}

func (a *App) initControllers(s *services, db *gorm.DB) *controllers {
	return &controllers{
		auth:       controller.NewAuthController(s.auth),
		user:       controller.NewUserController(s.user),
		course:     controller.NewCourseController(s.course, s.lesson, s.enrollment),
		lesson:     controller.NewLessonController(s.lesson),
		video:      controller.NewVideoController(s.video),
		enrollment: controller.NewEnrollmentController(s.enrollment),
		progress:   controller.NewProgressController(s.progress),
		quiz:       controller.NewQuizController(s.quiz),
		question:   controller.NewQuestionController(s.question),
		dashboard:  controller.NewDashboardController(s.dashboard),
		health:     controller.NewHealthController(db),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())
	router.Use(security.RateLimiter(cfg.RateLimit.MaxRequests, time.Duration(cfg.RateLimit.WindowMinutes)*time.Minute))

	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware(cfg.Tracing.ServiceName))
	}

	router.Use(monitoring.MetricsMiddleware())
}

// loadPolicy reads the configured role file, or the built-in policy when
// none is configured.
func loadPolicy(cfg *config.Config) (*access.Policy, error) {
	if cfg.Access.PolicyFile == "" {
		return access.DefaultPolicy(), nil
	}
	return access.LoadPolicy(cfg.Access.PolicyFile)
}

// watchPolicy swaps in the role file whenever it changes. A file that fails
// to parse leaves the current policy in place.
func (a *App) watchPolicy(ctx context.Context) {
	path := a.Config.Access.PolicyFile
	go func() {
		err := configwatcher.WatchFile(ctx, path, time.Second, func(p string) error {
			policy, err := access.LoadPolicy(p)
			if err != nil {
				return err
			}
			a.Policy.Store(policy)
			logger.Log.Info("Role policy reloaded", zap.String("path", p), zap.Strings("roles", policy.Roles()))
			return nil
		})
		if err != nil {
			logger.Log.Error("Role policy watcher stopped", zap.String("path", path), zap.Error(err))
		}
	}()
}

// NewWithDeps assembles the application around an open database. It does
// not touch global infrastructure, so tests can build the full router.
func NewWithDeps(cfg *config.Config, deps Deps) *App {
	if deps.Tokens == nil {
		deps.Tokens = service.NewMemoryTokenStore()
	}
	if deps.Policy == nil {
		deps.Policy = access.NewHolder(access.DefaultPolicy())
	}

	app := &App{
		Config: cfg,
		DB:     deps.DB,
		Redis:  deps.Redis,
		Policy: deps.Policy,
	}

	repos := app.initRepositories(deps.DB)
	app.services = app.initServices(repos, cfg, deps)
	controllers := app.initControllers(app.services, deps.DB)

	monitoring.Init()

	if cfg.Server.Mode == gin.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	if cfg.Server.Mode != gin.TestMode {
		router.Use(gin.Logger())
	}
	app.Router = router

	app.setupMiddlewares(router, cfg)
	app.registerRoutes(router, controllers)

	return app
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)
	defer logger.Log.Sync()

	logger.Log.Info("Logger initialized successfully")

	flushSentry, err := observability.InitSentry(cfg.Sentry.DSN, cfg.Sentry.Environment, cfg.Tracing.ServiceName)
	if err != nil {
		logger.Log.Error("Failed to initialize sentry", zap.Error(err))
	}

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
		log.Fatalf("Failed to initialize database: %v", err)
	}

	if cfg.ForceMigrate || cfg.Server.Mode != gin.ReleaseMode {
		if err := database.Migrate(db); err != nil {
			logger.Log.Fatal("Failed to migrate database", zap.Error(err))
		}
	}

	deps := Deps{DB: db}
	if cfg.MigrateOnly {
		return &App{Config: cfg, DB: db, cleanups: []func(){flushSentry}}
	}

	if cfg.Redis.Host != "" {
		rdb, err := database.InitRedis(&cfg.Redis)
		if err != nil {
			logger.Log.Fatal("Failed to initialize redis", zap.Error(err))
			log.Fatalf("Failed to initialize redis: %v", err)
		}
		deps.Redis = rdb
		deps.Tokens = service.NewRedisTokenStore(rdb)
	} else {
		logger.Log.Warn("Redis not configured, token revocation is kept in memory")
	}

	policy, err := loadPolicy(cfg)
	if err != nil {
		logger.Log.Fatal("Failed to load role policy", zap.String("path", cfg.Access.PolicyFile), zap.Error(err))
	}
	deps.Policy = access.NewHolder(policy)
	logger.Log.Info("Role policy loaded", zap.Strings("roles", policy.Roles()))

	if cfg.Video.ProbeDuration {
		deps.Prober = util.NewFFProbe(probeTimeout)
	}

	app := NewWithDeps(cfg, deps)
	app.cleanups = append(app.cleanups, flushSentry)

	ctx, cancel := context.WithCancel(context.Background())
	app.cancel = cancel

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer(ctx, cfg.Tracing.ServiceName, cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Error("Failed to initialize tracing", zap.Error(err))
		} else {
			app.cleanups = append(app.cleanups, func() {
				shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
				defer done()
				if err := tp.Shutdown(shutdownCtx); err != nil {
					logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
				}
			})
		}
	}

	if cfg.Access.PolicyFile != "" && cfg.Access.Watch {
		app.watchPolicy(ctx)
	}

	return app
}

// Close releases background resources in reverse order of creation.
func (a *App) Close() {
	if a.cancel != nil {
		a.cancel()
	}
	for i := len(a.cleanups) - 1; i >= 0; i-- {
		a.cleanups[i]()
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			logger.Log.Warn("Failed to close redis", zap.Error(err))
		}
	}
	if a.DB != nil {
		if sqlDB, err := a.DB.DB(); err == nil {
			sqlDB.Close()
		}
	}
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:              ":" + a.Config.Server.Port,
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Log.Info("Server running", zap.String("port", a.Config.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Error("Server forced to shutdown", zap.Error(err))
	}
	a.Close()

	logger.Log.Info("Server exiting")
}
