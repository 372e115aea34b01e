package sync

import (
	"go-portal-sync/internal/common/api"
	"go-portal-sync/internal/config"
	"go-portal-sync/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type SyncApi struct {
	controller *SyncController
	config     *config.Config
}

func NewSyncApi(controller *SyncController, config *config.Config) api.Route {
	return &SyncApi{
		controller: controller,
		config:     config,
	}
}

// Setup registers all sync routes
func (h *SyncApi) Setup(app *fiber.App) {
	syncGroup := app.Group("/api/sync", middleware.AuthMiddleware(h.config.SkipAuth))

	syncGroup.Get("/records", h.controller.ListRecords)
	syncGroup.Get("/records/stats", h.controller.GetStats)
	syncGroup.Get("/records/export", h.controller.ExportRecords)
	syncGroup.Get("/records/:id", h.controller.GetRecord)
	syncGroup.Post("/records", middleware.RequireRole(middleware.RoleAdmin), h.controller.CreateRecord)
	syncGroup.Put("/records/:id", middleware.RequireRole(middleware.RoleAdmin), h.controller.UpdateRecord)
	syncGroup.Delete("/records/:id", middleware.RequireRole(middleware.RoleAdmin), h.controller.DeleteRecord)
	syncGroup.Post("/records/reset", middleware.RequireRole(middleware.RoleAdmin), h.controller.ResetRecords)

	syncGroup.Get("/tasks", h.controller.ListTasks)
	syncGroup.Post("/tasks/:name/run", middleware.RequireRole(middleware.RoleAdmin, middleware.RoleOperator), h.controller.RunTask)
}
