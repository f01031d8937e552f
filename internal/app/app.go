package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "studiorit/docs"
	"studiorit/internal/config"
	"studiorit/internal/handlers"
	"studiorit/internal/logging"
	"studiorit/internal/middleware"
	"studiorit/internal/pdf"
	"studiorit/internal/repositories"
	"studiorit/internal/repositories/memory"
	"studiorit/internal/repositories/mongo"
	"studiorit/internal/routes"
	"studiorit/internal/services"
)

type App struct {
	cfg    *config.Config
	store  *repositories.Store
	router *gin.Engine
}

// New opens the configured store and wires services, handlers and routes.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	store, err := OpenStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	// === Services ===
	authService := services.NewAuthService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	var emailService services.EmailService
	if cfg.Email.Enabled() {
		emailService = services.NewEmailService(
			cfg.Email.SMTPHost,
			cfg.Email.SMTPPort,
			cfg.Email.SMTPUser,
			cfg.Email.SMTPPassword,
			cfg.Email.FromEmail,
		)
	}

	var (
		bot      *services.TelegramService
		tgSender services.TelegramSender
	)
	if cfg.Telegram.BotToken != "" {
		if bot, err = services.NewTelegramService(cfg.Telegram.BotToken); err != nil {
			logging.Logger.WithError(err).Warn("[app][telegram][disabled]")
		} else {
			tgSender = bot
		}
	}

	var emailSender services.EmailSender
	if emailService != nil {
		emailSender = emailService
	}
	notifier := services.NewNotificationService(store.Users, emailSender, tgSender)
	locks := services.NewKeyedLocker()

	userService := services.NewUserService(store.Users, emailService, authService)
	projectService := services.NewProjectService(store, notifier, locks)
	taskService := services.NewTaskService(store, services.NewApprovalRouter(store.Users), notifier, locks)

	// === Handlers ===
	h := routes.Handlers{
		Auth:     handlers.NewAuthHandler(userService, authService),
		Users:    handlers.NewUserHandler(),
		Projects: handlers.NewProjectHandler(projectService),
		Tasks:    handlers.NewTaskHandler(taskService, pdf.NewDocumentGenerator(cfg.Reports.FontPath)),
	}
	if bot != nil {
		h.Integrations = handlers.NewIntegrationsHandler(bot, services.NewTelegramLinker(store.Users, store.Links), taskService)
	}

	// === Gin ===
	router := gin.New()
	router.Use(logging.GinMiddleware())
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	routes.SetupRoutes(router, h, middleware.AuthMiddleware(authService, userService))

	return &App{cfg: cfg, store: store, router: router}, nil
}

// OpenStore returns the repositories for the configured driver.
func OpenStore(ctx context.Context, cfg *config.Config) (*repositories.Store, error) {
	switch cfg.Database.Driver {
	case config.DriverMemory:
		logging.Logger.Warn("[app][store][memory] data is not persisted")
		return memory.NewStore(), nil
	case config.DriverPostgres:
		store, db, err := repositories.OpenPostgres(ctx, cfg.Database.URL)
		if err != nil {
			return nil, err
		}
		if err := repositories.Migrate(ctx, db); err != nil {
			_ = db.Close()
			return nil, err
		}
		return store, nil
	case config.DriverMongo:
		return mongo.Open(ctx, cfg.Database.URL, cfg.Database.Name)
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Database.Driver)
	}
}

// Migrate applies the Postgres schema. Other drivers need no migration.
func Migrate(ctx context.Context, cfg *config.Config) error {
	if cfg.Database.Driver != config.DriverPostgres {
		logging.Logger.Infof("[app][migrate][skip] driver=%s", cfg.Database.Driver)
		return nil
	}
	store, db, err := repositories.OpenPostgres(ctx, cfg.Database.URL)
	if err != nil {
		return err
	}
	defer store.Close(ctx)
	if err := repositories.Migrate(ctx, db); err != nil {
		return err
	}
	logging.Logger.Info("[app][migrate][ok]")
	return nil
}

func (a *App) Router() *gin.Engine { return a.router }

func (a *App) Store() *repositories.Store { return a.store }

// Run serves HTTP until ctx is cancelled, then shuts down gracefully.
func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.cfg.Server.Port),
		Handler:           a.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Logger.Infof("[app][http][listen] addr=%s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	logging.Logger.Info("[app][http][shutdown]")
	return srv.Shutdown(shutdownCtx)
}

func (a *App) Close(ctx context.Context) error {
	if a.store == nil || a.store.Close == nil {
		return nil
	}
	return a.store.Close(ctx)
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
