package system

import (
	"go-portal-sync/internal/features/checkpoint"
	"go-portal-sync/pkg/utils"

	"github.com/gofiber/fiber/v2"
)

type DebugController struct {
	Store *checkpoint.Store
}

func NewDebugController(store *checkpoint.Store) *DebugController {
	return &DebugController{Store: store}
}

// Health godoc
// @Summary      Health check
// @Description  Reports whether the checkpoint store can be read
// @Tags         health
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      503  {object}  map[string]interface{}
// @Router       /health [get]
func (c *DebugController) Health(ctx *fiber.Ctx) error {
	stats, err := c.Store.Stats(ctx.UserContext())
	if err != nil {
		return ctx.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"status": "unavailable",
			"error":  err.Error(),
		})
	}

	return ctx.JSON(fiber.Map{
		"status":       "ok",
		"sync_records": stats.Total,
	})
}

// GetCurrentUser godoc
// @Summary      Get current user info
// @Description  Get the claims of the calling JWT
// @Tags         debug
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Security     BearerAuth
// @Router       /api/debug/me [get]
func (c *DebugController) GetCurrentUser(ctx *fiber.Ctx) error {
	claims, ok := ctx.Locals(utils.UserClaimsKey).(*utils.UserClaims)
	if !ok {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "no claims on request"})
	}

	return ctx.JSON(fiber.Map{
		"subject": claims.Subject,
		"roles":   claims.Roles,
		"message": "This is your current JWT token data",
	})
}
