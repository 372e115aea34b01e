package cron_feature

import (
	"github.com/gofiber/fiber/v2"
)

type CronController struct {
	Service CronService
}

func NewCronController(service CronService) *CronController {
	return &CronController{
		Service: service,
	}
}

// ListSchedules godoc
// @Summary      List sync schedules
// @Description  Every task with its cron schedule, next run and last outcome
// @Tags         sync-tasks
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Security     BearerAuth
// @Router       /api/sync/schedules [get]
func (c *CronController) ListSchedules(ctx *fiber.Ctx) error {
	return ctx.JSON(fiber.Map{
		"data": c.Service.ListJobs(),
	})
}
