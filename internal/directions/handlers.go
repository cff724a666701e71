package directions

import (
	"errors"

	"backend-colatrails/internal/transport"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, svc *Service) {
	r.Post("/", func(c *fiber.Ctx) error {
		var req CalculateRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
		}
		mode, err := transport.ParseMode(req.TransportMode)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		est, err := svc.Calculate(c.Context(), req.Origin, req.Destination, mode)
		if err != nil {
			return ToHTTPError(err)
		}
		return c.JSON(est)
	})

	r.Get("/geocode", func(c *fiber.Ctx) error {
		point, err := svc.Geocode(c.Context(), c.Query("address"))
		if err != nil {
			return ToHTTPError(err)
		}
		return c.JSON(point)
	})
}

// ToHTTPError maps directions errors onto user-facing responses.
func ToHTTPError(err error) error {
	switch {
	case errors.Is(err, ErrMissingEndpoints):
		return fiber.NewError(fiber.StatusBadRequest, "Please enter both origin and destination.")
	case errors.Is(err, ErrRouteUnavailable):
		return fiber.NewError(fiber.StatusBadGateway, "Could not calculate route.")
	default:
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
}
