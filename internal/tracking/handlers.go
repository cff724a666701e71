package tracking

import (
	"context"
	"errors"

	"backend-colatrails/internal/library"
	"backend-colatrails/internal/shared/geo"
	"backend-colatrails/internal/transport"

	"github.com/gofiber/fiber/v2"
)

type beginRequest struct {
	TransportMode string `json:"transport_mode"`
}

type stopRequest struct {
	Save   bool   `json:"save"`
	Title  string `json:"title"`
	Public bool   `json:"is_public"`
}

type saveRequest struct {
	Title  string `json:"title"`
	Public bool   `json:"is_public"`
}

type errorRequest struct {
	Reason string `json:"reason"`
}

type stopResponse struct {
	Session Snapshot        `json:"session"`
	Record  *library.Record `json:"record,omitempty"`
}

func RegisterRoutes(r fiber.Router, m *Manager, authMiddleware fiber.Handler) {
	r.Use(authMiddleware)

	r.Post("/", func(c *fiber.Ctx) error {
		var req beginRequest
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&req); err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
			}
		}
		mode, err := transport.ParseMode(req.TransportMode)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		h := m.Open(userID(c))
		if err := h.Session.Begin(mode); err != nil {
			return toHTTPError(err)
		}
		return c.Status(fiber.StatusCreated).JSON(h.Session.Snapshot())
	})

	r.Get("/", withSession(m, func(c *fiber.Ctx, h *Handle) error {
		return c.JSON(h.Session.Snapshot())
	}))

	r.Delete("/", func(c *fiber.Ctx) error {
		if err := m.Release(userID(c)); err != nil {
			return toHTTPError(err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	r.Post("/pause", withSession(m, func(c *fiber.Ctx, h *Handle) error {
		if err := h.Session.Pause(); err != nil {
			return toHTTPError(err)
		}
		return c.JSON(h.Session.Snapshot())
	}))

	r.Post("/resume", withSession(m, func(c *fiber.Ctx, h *Handle) error {
		if err := h.Session.Resume(); err != nil {
			return toHTTPError(err)
		}
		return c.JSON(h.Session.Snapshot())
	}))

	r.Post("/reset", withSession(m, func(c *fiber.Ctx, h *Handle) error {
		h.Session.Reset()
		return c.JSON(h.Session.Snapshot())
	}))

	r.Post("/stop", withSession(m, func(c *fiber.Ctx, h *Handle) error {
		var req stopRequest
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&req); err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
			}
		}
		prompt := func(context.Context, Snapshot) (Decision, error) {
			return Decision{Save: req.Save, Title: req.Title, Public: req.Public}, nil
		}
		summary, record, err := h.Session.Stop(c.Context(), prompt)
		if errors.Is(err, ErrInvalidTransition) {
			return toHTTPError(err)
		}
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Route was stopped but could not be saved.")
		}
		return c.JSON(stopResponse{Session: summary, Record: record})
	}))

	r.Post("/save", withSession(m, func(c *fiber.Ctx, h *Handle) error {
		var req saveRequest
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&req); err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
			}
		}
		record, err := h.Session.Save(c.Context(), Decision{Save: true, Title: req.Title, Public: req.Public})
		if err != nil {
			return toHTTPError(err)
		}
		return c.Status(fiber.StatusCreated).JSON(record)
	}))

	r.Put("/mode", withSession(m, func(c *fiber.Ctx, h *Handle) error {
		var req beginRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
		}
		mode, err := transport.ParseMode(req.TransportMode)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		h.Session.SetMode(mode)
		return c.JSON(h.Session.Snapshot())
	}))

	r.Post("/samples", withSession(m, func(c *fiber.Ctx, h *Handle) error {
		var p geo.Point
		if err := c.BodyParser(&p); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
		}
		delivered := h.Feed.Push(p)
		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"delivered": delivered, "session": h.Session.Snapshot()})
	}))

	r.Post("/errors", withSession(m, func(c *fiber.Ctx, h *Handle) error {
		var req errorRequest
		if err := c.BodyParser(&req); err != nil || req.Reason == "" {
			return fiber.NewError(fiber.StatusBadRequest, "reason required")
		}
		delivered := h.Feed.Fail(errors.New(req.Reason))
		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"delivered": delivered, "session": h.Session.Snapshot()})
	}))

	r.Get("/path.geojson", withSession(m, func(c *fiber.Ctx, h *Handle) error {
		c.Set(fiber.HeaderContentType, "application/geo+json")
		feature := geo.LineString(h.Session.Snapshot().Path)
		raw, err := feature.MarshalJSON()
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.Send(raw)
	}))
}

func withSession(m *Manager, fn func(c *fiber.Ctx, h *Handle) error) fiber.Handler {
	return func(c *fiber.Ctx) error {
		h, err := m.Get(userID(c))
		if err != nil {
			return toHTTPError(err)
		}
		return fn(c, h)
	}
}

func userID(c *fiber.Ctx) string {
	id, _ := c.Locals("user_id").(string)
	return id
}

func toHTTPError(err error) error {
	switch {
	case errors.Is(err, ErrNoSession):
		return fiber.NewError(fiber.StatusNotFound, "No tracking session. Start one first.")
	case errors.Is(err, ErrInvalidTransition):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	case errors.Is(err, ErrNothingToSave):
		return fiber.NewError(fiber.StatusBadRequest, "Nothing was tracked, so there is nothing to save.")
	case errors.Is(err, ErrClosed):
		return fiber.NewError(fiber.StatusGone, err.Error())
	default:
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
}
