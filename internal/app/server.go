package app

import (
	"context"
	"fmt"

	common_api "go-portal-sync/internal/common/api"
	"go-portal-sync/internal/config"
	cron_feature "go-portal-sync/internal/features/cron"
	sync_feature "go-portal-sync/internal/features/sync"
	"go-portal-sync/internal/features/system"
	"go-portal-sync/internal/middleware"
	"go-portal-sync/pkg/utils"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Server adds the admin API and the cron scheduler on top of Core.
var Server = fx.Options(
	fx.Provide(
		// Initialize Fiber Server
		NewFiberServer,

		// Controllers
		sync_feature.NewSyncController,
		system.NewDebugController,
		cron_feature.NewCronController,

		// Services
		cron_feature.NewCronService,

		AsRoute(sync_feature.NewSyncApi),
		AsRoute(cron_feature.NewCronApi),
		AsRoute(system.NewDebugApi),
		AsRoute(system.NewSwaggerApi),
	),
	fx.Invoke(
		ConfigureAuth,
		RegisterAllRoutesWithAnnotation,
		StartServer,
		StartScheduler,
	),
)

// NewFiberServer creates a new Fiber app instance
func NewFiberServer(cfg *config.Config) *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	app.Use(middleware.CORSMiddleware(cfg.CORSAllowOrigins))

	return app
}

// AsRoute tags the constructor so Fx adds it to the "routes" group.
func AsRoute(f any) any {
	return fx.Annotate(
		f,
		fx.As(new(common_api.Route)),
		fx.ResultTags(`group:"routes"`),
	)
}

// RegisterAllRoutes calls Setup() on every member of the "routes" group.
func RegisterAllRoutes(app *fiber.App, routes []common_api.Route, log *zap.Logger) {
	for _, route := range routes {
		log.Debug("Setting up route", zap.String("route", fmt.Sprintf("%T", route)))
		route.Setup(app)
	}
	log.Info("All routes registered", zap.Int("count", len(routes)))
}

var RegisterAllRoutesWithAnnotation = fx.Annotate(
	RegisterAllRoutes,
	fx.ParamTags(``, `group:"routes"`, ``),
)

// ConfigureAuth refuses to start an unauthenticated API and installs the
// JWT secret.
func ConfigureAuth(cfg *config.Config) error {
	if err := cfg.ValidateServer(); err != nil {
		return err
	}
	utils.SetSecret(cfg.JWTSecret)
	return nil
}

// StartServer starts Fiber in a goroutine and shuts it down when the app exits.
func StartServer(lc fx.Lifecycle, app *fiber.App, cfg *config.Config, log *zap.Logger, shutdowner fx.Shutdowner) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				port := fmt.Sprintf(":%s", cfg.Port)
				log.Info("Starting admin API", zap.String("addr", port))
				if err := app.Listen(port); err != nil {
					log.Error("Server failed", zap.Error(err))
					_ = shutdowner.Shutdown(fx.ExitCode(1))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return app.ShutdownWithContext(ctx)
		},
	})
}

func StartScheduler(lc fx.Lifecycle, cronService cron_feature.CronService) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return cronService.InitializeScheduler(ctx)
		},
		OnStop: func(ctx context.Context) error {
			return cronService.StopScheduler()
		},
	})
}
