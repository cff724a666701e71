package account

import (
	"errors"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Post("/signup", func(c *fiber.Ctx) error {
		var req SignupRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
		}
		user, err := svc.Signup(c.Context(), req)
		if err != nil {
			return toHTTPError(err)
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Account created.", "user": user})
	})

	r.Post("/login", func(c *fiber.Ctx) error {
		var req LoginRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Email and password are required.")
		}
		user, token, err := svc.Login(c.Context(), req)
		if err != nil {
			return toHTTPError(err)
		}
		return c.JSON(fiber.Map{"token": token, "user": user})
	})

	r.Get("/account", authMiddleware, func(c *fiber.Ctx) error {
		user, err := svc.Get(c.Context(), UserID(c))
		if err != nil {
			return toHTTPError(err)
		}
		return c.JSON(fiber.Map{"user": user})
	})

	r.Put("/account", authMiddleware, func(c *fiber.Ctx) error {
		var req UpdateRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
		}
		user, err := svc.Update(c.Context(), UserID(c), req)
		if err != nil {
			return toHTTPError(err)
		}
		return c.JSON(fiber.Map{"message": "Changes saved.", "user": user})
	})
}

func toHTTPError(err error) error {
	switch {
	case errors.Is(err, ErrInvalidInput):
		return fiber.NewError(fiber.StatusBadRequest, strings.TrimPrefix(err.Error(), ErrInvalidInput.Error()+": "))
	case errors.Is(err, ErrPasswordRequired):
		return fiber.NewError(fiber.StatusBadRequest, "Please enter your current password to change it.")
	case errors.Is(err, ErrInvalidCredentials):
		return fiber.NewError(fiber.StatusUnauthorized, "Invalid email or password")
	case errors.Is(err, ErrWrongPassword):
		return fiber.NewError(fiber.StatusUnauthorized, "Incorrect current password")
	case errors.Is(err, ErrUserNotFound):
		return fiber.NewError(fiber.StatusNotFound, "User not found")
	case errors.Is(err, ErrEmailTaken):
		return fiber.NewError(fiber.StatusConflict, "An account with that email already exists.")
	default:
		log.Printf("account error: %v", err)
		return fiber.NewError(fiber.StatusInternalServerError, "Server error")
	}
}
