package api

import (
	"go-portal-sync/internal/common/errs"

	"github.com/gofiber/fiber/v2"
)

// Route is implemented by every feature API that registers HTTP handlers.
type Route interface {
	Setup(app *fiber.App)
}

// StatusFor maps a classified error onto an HTTP status code.
func StatusFor(err error) int {
	switch errs.KindOf(err) {
	case errs.KindNotFound:
		return fiber.StatusNotFound
	case errs.KindAlreadyExists:
		return fiber.StatusConflict
	case errs.KindValidation, errs.KindConfiguration:
		return fiber.StatusBadRequest
	case errs.KindAuthentication, errs.KindTransport:
		return fiber.StatusBadGateway
	}
	return fiber.StatusInternalServerError
}

// Error writes err as {"error": message} with the status from StatusFor.
func Error(c *fiber.Ctx, err error) error {
	return c.Status(StatusFor(err)).JSON(fiber.Map{
		"error": err.Error(),
	})
}
