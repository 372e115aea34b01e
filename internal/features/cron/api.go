package cron_feature

import (
	"go-portal-sync/internal/common/api"
	"go-portal-sync/internal/config"
	"go-portal-sync/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type CronApi struct {
	cronController *CronController
	config         *config.Config
}

func NewCronApi(cronController *CronController, config *config.Config) api.Route {
	return &CronApi{
		cronController: cronController,
		config:         config,
	}
}

func (h *CronApi) Setup(app *fiber.App) {
	schedules := app.Group("/api/sync/schedules", middleware.AuthMiddleware(h.config.SkipAuth))
	schedules.Get("/", h.cronController.ListSchedules)
}
