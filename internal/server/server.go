package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"flowfix/internal/auth"
	"flowfix/internal/config"
	"flowfix/internal/database"
	"flowfix/internal/handler"
	"flowfix/internal/mail"
	"flowfix/internal/middleware"
	"flowfix/internal/repository"
	"flowfix/internal/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"
)

var (
	_ service.TaskStore   = (*repository.TaskRepository)(nil)
	_ service.UserStore   = (*repository.UserRepository)(nil)
	_ service.NoticeStore = (*repository.NoticeRepository)(nil)
)

type Server struct {
	Engine *gin.Engine
	DB     *gorm.DB
	Config *config.Config
	Log    *logrus.Logger
}

func Init(cfg *config.Config, log *logrus.Logger) (*Server, error) {
	db, err := database.Open(cfg.DSN(), log)
	if err != nil {
		return nil, err
	}
	log.Info("✅ Connected to database")

	if cfg.MigrateOnStart {
		if err := database.Migrate(cfg.MigrationURL(), log); err != nil {
			return nil, fmt.Errorf("failed to migrate database: %w", err)
		}
	}

	if err := handler.RegisterValidators(); err != nil {
		return nil, fmt.Errorf("failed to register validators: %w", err)
	}

	// Repositories and services
	set := repository.NewSet(db)
	repos := storesOf(set)
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTExpiry)

	taskService := service.NewTaskService(repos, transactor(db), service.DefaultEscalations(), log)
	queryService := service.NewQueryService(repos, log)
	userService := service.NewUserService(repos, tokens, service.PasswordReset{
		Mailer: mailer(cfg, log),
		URL:    cfg.ResetURL,
		TTL:    cfg.ResetTokenTTL,
	}, log)

	if err := userService.EnsureAdmin(context.Background(), cfg.AdminEmail, cfg.AdminPassword, cfg.AdminName); err != nil {
		return nil, fmt.Errorf("failed to create bootstrap admin: %w", err)
	}

	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}
	r := NewRouter(RouterDeps{
		Log:         log,
		CORSOrigins: cfg.CORSOrigins,
		Tokens:      tokens,
		Users:       set.Users,
		Tasks:       handler.NewTaskHandler(taskService, queryService),
		Accounts:    handler.NewUserHandler(userService),
	})

	return &Server{
		Engine: r,
		DB:     db,
		Config: cfg,
		Log:    log,
	}, nil
}

func storesOf(s repository.Set) service.Repositories {
	return service.Repositories{Tasks: s.Tasks, Users: s.Users, Notices: s.Notices}
}

// transactor runs fn against repositories bound to one database transaction.
func transactor(db *gorm.DB) service.TxFunc {
	return func(ctx context.Context, fn func(r service.Repositories) error) error {
		return repository.WithTransaction(ctx, db, func(s repository.Set) error {
			return fn(storesOf(s))
		})
	}
}

func mailer(cfg *config.Config, log *logrus.Logger) service.Mailer {
	if cfg.SMTPHost == "" {
		log.Warn("SMTP_HOST not set, reset emails will only be logged")
		return mail.NewLogSender(log)
	}
	return mail.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.MailFrom, log)
}

// RouterDeps is everything the HTTP routes need.
type RouterDeps struct {
	Log         *logrus.Logger
	CORSOrigins []string
	Tokens      *auth.TokenManager
	Users       middleware.UserLookup
	Tasks       *handler.TaskHandler
	Accounts    *handler.UserHandler
}

func NewRouter(d RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(d.Log), corsMiddleware(d.CORSOrigins))

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := r.Group("/api")
	authorized := middleware.JWTAuthMiddleware(d.Tokens, d.Users)
	adminOnly := middleware.AdminOnly()

	// User routes
	users := api.Group("/user")
	users.POST("/login", d.Accounts.Login)
	users.POST("/forgot-password", d.Accounts.ForgotPassword)
	users.PUT("/reset-password/:token", d.Accounts.ResetPassword)
	users.Use(authorized)
	{
		users.POST("/logout", d.Accounts.Logout)
		users.POST("/register", adminOnly, d.Accounts.Register)
		users.GET("/get-team", adminOnly, d.Accounts.TeamList)
		users.GET("/notifications", d.Accounts.Notifications)
		users.PUT("/read-noti", d.Accounts.MarkRead)
		users.PUT("/profile", d.Accounts.UpdateProfile)
		users.PUT("/change-password", d.Accounts.ChangePassword)
		users.PUT("/:id", adminOnly, d.Accounts.SetActive)
		users.DELETE("/:id", adminOnly, d.Accounts.Delete)
	}

	// Task routes
	tasks := api.Group("/task")
	tasks.Use(authorized)
	{
		tasks.POST("/create", adminOnly, d.Tasks.Create)
		tasks.POST("/duplicate/:id", adminOnly, d.Tasks.Duplicate)
		tasks.POST("/activity/:id", d.Tasks.PostActivity)

		tasks.GET("/dashboard", d.Tasks.Dashboard)
		tasks.GET("", d.Tasks.List)
		tasks.GET("/:id", d.Tasks.Get)

		tasks.PUT("/create-subtask/:id", adminOnly, d.Tasks.CreateSubTask)
		tasks.PUT("/update/:id", adminOnly, d.Tasks.Update)
		tasks.PUT("/change-stage/:id", d.Tasks.ChangeStage)
		tasks.PUT("/change-status/:taskId/:subTaskId", d.Tasks.SetSubTaskStatus)
		tasks.PUT("/:id", adminOnly, d.Tasks.Trash)

		tasks.PATCH("/subtasks/:taskId/:subTaskId", adminOnly, d.Tasks.UpdateSubTask)

		tasks.DELETE("/delete-restore", adminOnly, d.Tasks.DeleteRestore)
		tasks.DELETE("/delete-restore/:id", adminOnly, d.Tasks.DeleteRestore)
		tasks.DELETE("/activity/:taskId/:activityId", d.Tasks.DeleteActivity)
		tasks.DELETE("/:taskId/subtasks/:subTaskId", adminOnly, d.Tasks.DeleteSubTask)
	}

	return r
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
		cfg.AllowCredentials = true
	}
	return cors.New(cfg)
}

func (s *Server) Run() {
	srv := &http.Server{
		Addr:    ":" + s.Config.ServerPort,
		Handler: s.Engine,
	}

	go func() {
		s.Log.Infof("🚀 Server running on port %s", s.Config.ServerPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.Log.Fatalf("❌ Failed to listen: %s", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	s.Log.Info("🛑 Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		s.Log.Fatalf("❌ Server forced to shutdown: %s", err)
	}

	if sqlDB, err := s.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
	s.Log.Info("✅ Server exited properly")
}
