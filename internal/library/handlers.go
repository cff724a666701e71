package library

import (
	"context"
	"errors"

	"backend-colatrails/internal/directions"
	"backend-colatrails/internal/transport"

	"github.com/gofiber/fiber/v2"
)

// Router recalculates a saved route when it is loaded onto the map.
type Router interface {
	Calculate(ctx context.Context, origin, destination string, mode transport.Mode) (directions.Estimate, error)
}

// RegisterRoutes mounts the caller's library. Every route needs a user;
// anonymous browsing goes through RegisterExploreRoutes.
func RegisterRoutes(r fiber.Router, svc *Service, router Router, authMiddleware fiber.Handler) {
	r.Use(authMiddleware)

	r.Get("/", func(c *fiber.Ctx) error {
		records, err := svc.Search(c.Context(), userID(c), c.Query("q"))
		if err != nil {
			return toHTTPError(err)
		}
		return c.JSON(records)
	})

	r.Post("/", func(c *fiber.Ctx) error {
		var req SaveRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
		}
		record, err := svc.SaveCalculated(c.Context(), userID(c), req)
		if err != nil {
			return toHTTPError(err)
		}
		return c.Status(fiber.StatusCreated).JSON(record)
	})

	r.Delete("/", func(c *fiber.Ctx) error {
		if err := svc.Clear(c.Context(), userID(c)); err != nil {
			return toHTTPError(err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	r.Get("/:id", func(c *fiber.Ctx) error {
		record, err := svc.Get(c.Context(), userID(c), c.Params("id"))
		if err != nil {
			return toHTTPError(err)
		}
		return c.JSON(record)
	})

	r.Patch("/:id", func(c *fiber.Ctx) error {
		var req SettingsRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
		}
		record, err := svc.UpdateSettings(c.Context(), userID(c), c.Params("id"), req)
		if err != nil {
			return toHTTPError(err)
		}
		return c.JSON(record)
	})

	r.Put("/:id/review", func(c *fiber.Ctx) error {
		var req ReviewRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
		}
		record, err := svc.SubmitReview(c.Context(), userID(c), c.Params("id"), req)
		if err != nil {
			return toHTTPError(err)
		}
		return c.JSON(record)
	})

	r.Delete("/:id", func(c *fiber.Ctx) error {
		if err := svc.Delete(c.Context(), userID(c), c.Params("id")); err != nil {
			return toHTTPError(err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	r.Get("/:id/directions", func(c *fiber.Ctx) error {
		record, err := svc.Get(c.Context(), userID(c), c.Params("id"))
		if err != nil {
			return toHTTPError(err)
		}
		if len(record.Path) > 0 || router == nil {
			return c.JSON(storedEstimate(record))
		}

		est, err := router.Calculate(c.Context(), record.Origin, record.Destination, record.TransportMode)
		if err != nil {
			return directions.ToHTTPError(err)
		}
		if est.DistanceText == "" {
			est.DistanceText = record.DistanceText
		}
		if est.DurationText == "" {
			est.DurationText = record.DurationText
		}
		return c.JSON(est)
	})
}

func RegisterExploreRoutes(r fiber.Router, svc *Service) {
	r.Get("/", func(c *fiber.Ctx) error {
		records, err := svc.Public(c.Context())
		if err != nil {
			return toHTTPError(err)
		}
		return c.JSON(records)
	})
}

// storedEstimate presents a record without asking the provider, used for
// tracked routes whose path was captured on the ground.
func storedEstimate(r Record) directions.Estimate {
	est := directions.Estimate{
		Origin:       r.Origin,
		Destination:  r.Destination,
		Mode:         r.TransportMode,
		DistanceText: r.DistanceText,
		DurationText: r.DurationText,
		Path:         r.Path,
	}
	if len(r.Path) > 0 {
		est.StartLocation = r.Path[0]
	}
	return est
}

func userID(c *fiber.Ctx) string {
	id, _ := c.Locals("user_id").(string)
	return id
}

func toHTTPError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, "Route not found")
	case errors.Is(err, ErrForbidden):
		return fiber.NewError(fiber.StatusForbidden, "You can only change your own routes.")
	case errors.Is(err, ErrValidation):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, ErrDuplicate):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	case errors.Is(err, ErrCorrupt):
		return fiber.NewError(fiber.StatusInternalServerError, "Saved routes could not be read. Clear the library to recover.")
	default:
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
}
